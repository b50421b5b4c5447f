package domain

// OrderStatus is the order lifecycle state machine.
//
//	Pending -> Processing -> Confirmed -> Preparing -> Shipped -> Delivered
//
// Side branches: Cancelled (from Pending/Processing/Confirmed/OnHold), OnHold
// (from Processing, back to Processing or Cancelled), Returned (from
// Shipped/Delivered), Refunded (terminal, only from Returned).
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusOnHold     OrderStatus = "on_hold"
	OrderStatusReturned   OrderStatus = "returned"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusConfirmed, OrderStatusOnHold, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:  {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusReturned},
	OrderStatusDelivered:  {OrderStatusReturned},
	OrderStatusOnHold:     {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusReturned:   {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions exist.
func (s OrderStatus) IsTerminal() bool {
	next, ok := orderStatusTransitions[s]
	return ok && len(next) == 0
}

// ValidNextStatuses returns the statuses reachable from s. Terminal and
// unknown statuses return an empty slice.
func (s OrderStatus) ValidNextStatuses() []OrderStatus {
	next := orderStatusTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether s -> next is a legal transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
