package service

import (
	"context"
	"log/slog"

	"github.com/flicky/food-order-api/internal/model"
)

// EventPublisher delivers order events once the change that produced them has
// been committed.
type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
}

func publishEvent(ctx context.Context, events EventPublisher, log *slog.Logger, eventType string, order *model.Order) {
	if events == nil {
		return
	}
	event := model.NewOrderEvent(eventType, order)
	if err := events.Publish(ctx, event); err != nil && log != nil {
		log.Warn("publish order event failed",
			"event_id", event.ID, "type", eventType, "order_id", order.ID, "error", err)
	}
}
