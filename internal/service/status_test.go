package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/food-order-api/internal/model"
)

func TestNextStatus_ForwardGrid(t *testing.T) {
	flow := []model.OrderStatus{
		model.OrderStatusPlaced,
		model.OrderStatusPreparing,
		model.OrderStatusOutForDelivery,
		model.OrderStatusDelivered,
	}

	for ci, current := range flow {
		for ti, target := range flow {
			t.Run(string(current)+"->"+string(target), func(t *testing.T) {
				next, changed, err := NextStatus(current, target)

				if current == model.OrderStatusDelivered {
					require.ErrorIs(t, err, ErrInvalidState)
					assert.EqualError(t, err, "cannot change a delivered order")
					return
				}

				switch ti - ci {
				case 0:
					require.NoError(t, err)
					assert.False(t, changed)
					assert.Equal(t, current, next)
				case 1:
					require.NoError(t, err)
					assert.True(t, changed)
					assert.Equal(t, target, next)
				default:
					require.ErrorIs(t, err, ErrInvalidState)
					if ti < ci {
						assert.EqualError(t, err, "cannot move backwards")
					} else {
						assert.EqualError(t, err, "can only advance one step at a time")
					}
				}
			})
		}
	}
}

func TestNextStatus_CancelFromAnyOpenStatus(t *testing.T) {
	for _, current := range []model.OrderStatus{
		model.OrderStatusPlaced, model.OrderStatusPreparing, model.OrderStatusOutForDelivery,
	} {
		next, changed, err := NextStatus(current, model.OrderStatusCancelled)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, model.OrderStatusCancelled, next)
	}
}

func TestNextStatus_CancelledIsTerminal(t *testing.T) {
	for _, target := range []model.OrderStatus{model.OrderStatusPlaced, model.OrderStatusCancelled} {
		_, _, err := NextStatus(model.OrderStatusCancelled, target)
		require.ErrorIs(t, err, ErrInvalidState)
		assert.EqualError(t, err, "cannot change a cancelled order")
	}
}

func TestNextStatus_UnknownTarget(t *testing.T) {
	_, _, err := NextStatus(model.OrderStatusPlaced, model.OrderStatus("shipped"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
