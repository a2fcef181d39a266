package enums

import "fmt"

// OrderStatus tracks an order through its lifecycle. Every user has at most
// one order in the cart status; placement moves it to new and all later
// transitions are administrative.
type OrderStatus string

const (
	OrderStatusCart      OrderStatus = "cart"
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusAssembled OrderStatus = "assembled"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCart,
	OrderStatusNew,
	OrderStatusConfirmed,
	OrderStatusAssembled,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// statusTransitions is the administrative transition table. cart is only ever
// exited through order placement, and completed/cancelled are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:       {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusAssembled, OrderStatusCancelled},
	OrderStatusAssembled: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusCompleted},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
}

// CanTransitionTo reports whether the administrative transition table allows
// moving from the current status to next.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range statusTransitions[o] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
