package service

import "github.com/flicky/food-order-api/internal/model"

// NextStatus applies an administrative status change to current. It returns
// the resulting status and whether anything changed. Cancellation is allowed
// from any non-terminal status; otherwise the order may only advance one step
// along the fulfillment flow. Repeating the current status is a no-op.
func NextStatus(current, target model.OrderStatus) (model.OrderStatus, bool, error) {
	if current.IsTerminal() {
		return current, false, invalidState("cannot change a %s order", current)
	}
	if target == model.OrderStatusCancelled {
		return target, true, nil
	}

	to := target.FlowIndex()
	if to < 0 {
		return current, false, invalidArgument("unknown order status %q", target)
	}
	from := current.FlowIndex()
	switch {
	case to < from:
		return current, false, invalidState("cannot move backwards")
	case to == from:
		return current, false, nil
	case to-from > 1:
		return current, false, invalidState("can only advance one step at a time")
	}
	return target, true, nil
}
