package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/food-order-api/internal/model"
)

const (
	orderEventsQueue = "order.events"
	dlxExchange      = "order.events.dlx"
	dlqQueueName     = "order.events.dlq"
	idempotencyTTL   = 24 * time.Hour
)

// Notifier receives every accepted event payload.
type Notifier interface {
	Broadcast(payload []byte)
}

// OrderWorker relays committed order events to live subscribers. It never
// changes order or payment state.
type OrderWorker struct {
	channel     *amqp.Channel
	redisClient *redis.Client
	notifier    Notifier
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderWorker(ch *amqp.Channel, redisClient *redis.Client, notifier Notifier, log *slog.Logger) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		redisClient: redisClient,
		notifier:    notifier,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderEventsQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderEventsQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderEventsQueue,
	}); err != nil {
		return fmt.Errorf("declare order events queue: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order event worker started")
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.ID == uuid.Nil {
		w.log.Error("malformed order event", "error", err, "message_id", msg.MessageId)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	log := w.log.With("event_id", event.ID, "type", event.Type, "order_id", event.OrderID)

	// SetNX claims the event; a false result means it was already delivered.
	fresh, err := w.redisClient.SetNX(ctx, idempotencyKey(event.ID), "1", idempotencyTTL).Result()
	if err != nil {
		log.Error("claim idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if !fresh {
		log.Info("duplicate order event, skipping")
		_ = msg.Ack(false)
		return
	}

	w.notifier.Broadcast(msg.Body)
	_ = msg.Ack(false)
	log.Info("order event relayed")
}

func idempotencyKey(eventID uuid.UUID) string {
	return "order_event:" + eventID.String()
}
