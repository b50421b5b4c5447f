package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the aggregate root for a customer order. It exclusively owns its
// line items: all mutation goes through methods that re-derive the monetary
// totals and stamp the audit trail, and Items returns a copy. Every monetary
// field shares the order currency.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	CustomerID  uuid.UUID
	Contact     CustomerContact
	Status      OrderStatus
	Currency    string

	Subtotal       Money
	TaxAmount      Money
	ShippingCost   Money
	DiscountAmount Money
	Total          Money

	ShippingAddress *Address
	BillingAddress  *Address

	PaymentMethod        string
	PaymentTransactionID string
	TrackingNumber       string
	Carrier              string
	Notes                string

	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
	UpdatedBy   string

	items  []LineItem
	events []Event
}

// NewOrder creates a pending order with zero totals in the given currency.
func NewOrder(customerID uuid.UUID, orderNumber, currency string, contact CustomerContact, createdBy string) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is required", ErrCustomerNotFound)
	}
	if orderNumber == "" {
		return nil, fmt.Errorf("order number is required")
	}
	zero, err := ZeroMoney(currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o := &Order{
		ID:             uuid.New(),
		OrderNumber:    orderNumber,
		CustomerID:     customerID,
		Contact:        contact,
		Status:         OrderStatusPending,
		Currency:       zero.Currency(),
		Subtotal:       zero,
		TaxAmount:      zero,
		ShippingCost:   zero,
		DiscountAmount: zero,
		Total:          zero,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      createdBy,
		UpdatedBy:      createdBy,
	}
	o.record(OrderCreated{OrderID: o.ID, OrderNumber: orderNumber, CustomerID: customerID, At: now})
	return o, nil
}

func (o *Order) record(e Event) {
	o.events = append(o.events, e)
}

// PullEvents drains the recorded domain events for dispatch.
func (o *Order) PullEvents() []Event {
	events := o.events
	o.events = nil
	return events
}

func (o *Order) touch(actor string) {
	o.UpdatedAt = time.Now()
	o.UpdatedBy = actor
}

func (o *Order) requirePending() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: status is %s", ErrOrderNotPending, o.Status)
	}
	return nil
}

// Items returns a copy of the line items; the aggregate's own collection is
// never exposed.
func (o *Order) Items() []LineItem {
	out := make([]LineItem, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) findItem(productID uuid.UUID) int {
	for i, item := range o.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddLineItem appends a line item. If an item for the same product already
// exists, the quantities are merged into a single entry instead of
// duplicating it.
func (o *Order) AddLineItem(item LineItem, actor string) error {
	if err := o.requirePending(); err != nil {
		return err
	}
	if item.UnitPrice.Currency() != o.Currency {
		return fmt.Errorf("%w: item %s vs order %s", ErrCurrencyMismatch, item.UnitPrice.Currency(), o.Currency)
	}

	if i := o.findItem(item.ProductID); i >= 0 {
		merged, err := item.WithQuantity(o.items[i].Quantity + item.Quantity)
		if err != nil {
			return err
		}
		o.items = append(o.items[:i], o.items[i+1:]...)
		o.items = append(o.items, merged)
	} else {
		o.items = append(o.items, item)
	}

	if err := o.recalculateTotals(); err != nil {
		return err
	}
	o.touch(actor)
	return nil
}

// RemoveLineItem drops the item for the product. Removing an absent product
// is a no-op.
func (o *Order) RemoveLineItem(productID uuid.UUID, actor string) error {
	if err := o.requirePending(); err != nil {
		return err
	}
	i := o.findItem(productID)
	if i < 0 {
		return nil
	}
	o.items = append(o.items[:i], o.items[i+1:]...)
	if err := o.recalculateTotals(); err != nil {
		return err
	}
	o.touch(actor)
	return nil
}

// UpdateLineItemQuantity replaces the item with a new snapshot at the given
// quantity. Updating an absent product is a no-op.
func (o *Order) UpdateLineItemQuantity(productID uuid.UUID, quantity int, actor string) error {
	if err := o.requirePending(); err != nil {
		return err
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	i := o.findItem(productID)
	if i < 0 {
		return nil
	}
	updated, err := o.items[i].WithQuantity(quantity)
	if err != nil {
		return err
	}
	o.items[i] = updated
	if err := o.recalculateTotals(); err != nil {
		return err
	}
	o.touch(actor)
	return nil
}

// UpdateStatus transitions the order, consulting the transition table. An
// illegal transition is rejected, never silently accepted. The delivered
// timestamp is stamped the first time the order reaches Delivered.
func (o *Order) UpdateStatus(next OrderStatus, actor string) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidOrderStatus, next)
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	from := o.Status
	o.Status = next
	if next == OrderStatusDelivered && o.DeliveredAt == nil {
		now := time.Now()
		o.DeliveredAt = &now
	}
	o.touch(actor)
	o.record(OrderStatusChanged{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		From:        from,
		To:          next,
		Actor:       actor,
		At:          o.UpdatedAt,
	})
	return nil
}

func (o *Order) setMonetaryField(field *Money, amount Money, actor string) error {
	if err := o.requirePending(); err != nil {
		return err
	}
	if amount.Currency() != o.Currency {
		return fmt.Errorf("%w: %s vs order %s", ErrCurrencyMismatch, amount.Currency(), o.Currency)
	}
	*field = amount
	if err := o.recalculateTotals(); err != nil {
		return err
	}
	o.touch(actor)
	return nil
}

// ApplyDiscount sets the order-level discount and re-derives the total.
func (o *Order) ApplyDiscount(amount Money, actor string) error {
	return o.setMonetaryField(&o.DiscountAmount, amount, actor)
}

// SetShippingCost sets the shipping charge and re-derives the total.
func (o *Order) SetShippingCost(amount Money, actor string) error {
	return o.setMonetaryField(&o.ShippingCost, amount, actor)
}

// SetTaxAmount sets the tax charge and re-derives the total.
func (o *Order) SetTaxAmount(amount Money, actor string) error {
	return o.setMonetaryField(&o.TaxAmount, amount, actor)
}

// UpdateShippingInfo replaces the shipping (and optionally billing) address.
// Only pending orders may change where they ship to.
func (o *Order) UpdateShippingInfo(shipping Address, billing *Address, actor string) error {
	if err := o.requirePending(); err != nil {
		return err
	}
	addr := shipping
	o.ShippingAddress = &addr
	if billing != nil {
		b := *billing
		o.BillingAddress = &b
	}
	o.touch(actor)
	return nil
}

// UpdatePaymentInfo records payment metadata. Allowed in any status.
func (o *Order) UpdatePaymentInfo(method, transactionID, actor string) {
	o.PaymentMethod = method
	o.PaymentTransactionID = transactionID
	o.touch(actor)
}

// UpdateTrackingInfo records carrier tracking metadata. Allowed in any status.
func (o *Order) UpdateTrackingInfo(trackingNumber, carrier, actor string) {
	o.TrackingNumber = trackingNumber
	o.Carrier = carrier
	o.touch(actor)
}

// UpdateNotes replaces the free-form notes. Allowed in any status.
func (o *Order) UpdateNotes(notes, actor string) {
	o.Notes = notes
	o.touch(actor)
}

// recalculateTotals re-derives subtotal and total from the current items and
// charges. Total = subtotal + tax + shipping - discount, floored at zero by
// design.
func (o *Order) recalculateTotals() error {
	sum := decimal.Zero
	for _, item := range o.items {
		sum = sum.Add(item.TotalPrice.Amount())
	}
	subtotal, err := NewMoney(sum, o.Currency)
	if err != nil {
		return fmt.Errorf("subtotal: %w", err)
	}

	raw := sum.
		Add(o.TaxAmount.Amount()).
		Add(o.ShippingCost.Amount()).
		Sub(o.DiscountAmount.Amount())
	if raw.IsNegative() {
		raw = decimal.Zero
	}
	total, err := NewMoney(raw, o.Currency)
	if err != nil {
		return fmt.Errorf("total: %w", err)
	}

	o.Subtotal = subtotal
	o.Total = total
	return nil
}

// TotalItemCount sums the quantities across all line items.
func (o *Order) TotalItemCount() int {
	count := 0
	for _, item := range o.items {
		count += item.Quantity
	}
	return count
}

// TotalWeight returns the summed item weight. If any item's weight is
// unknown, the order weight is unknown.
func (o *Order) TotalWeight() (float64, bool) {
	total := 0.0
	for _, item := range o.items {
		w, ok := item.TotalWeight()
		if !ok {
			return 0, false
		}
		total += w
	}
	return total, true
}

func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusConfirmed:
		return true
	}
	return false
}

func (o *Order) CanBeModified() bool { return o.Status == OrderStatusPending }
func (o *Order) CanBeShipped() bool  { return o.Status == OrderStatusConfirmed }
func (o *Order) CanBeDelivered() bool {
	return o.Status == OrderStatusShipped
}
func (o *Order) IsCompleted() bool { return o.Status == OrderStatusDelivered }
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled || o.Status == OrderStatusRefunded
}

// OrderState is the persistence memento for an order. Adapters load and save
// aggregates through it; it is not part of the mutation API.
type OrderState struct {
	ID                   uuid.UUID       `json:"id"`
	OrderNumber          string          `json:"order_number"`
	CustomerID           uuid.UUID       `json:"customer_id"`
	Contact              CustomerContact `json:"contact"`
	Status               OrderStatus     `json:"status"`
	Currency             string          `json:"currency"`
	Items                []LineItem      `json:"items"`
	Subtotal             Money           `json:"subtotal"`
	TaxAmount            Money           `json:"tax_amount"`
	ShippingCost         Money           `json:"shipping_cost"`
	DiscountAmount       Money           `json:"discount_amount"`
	Total                Money           `json:"total"`
	ShippingAddress      *Address        `json:"shipping_address,omitempty"`
	BillingAddress       *Address        `json:"billing_address,omitempty"`
	PaymentMethod        string          `json:"payment_method,omitempty"`
	PaymentTransactionID string          `json:"payment_transaction_id,omitempty"`
	TrackingNumber       string          `json:"tracking_number,omitempty"`
	Carrier              string          `json:"carrier,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	DeliveredAt          *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	CreatedBy            string          `json:"created_by"`
	UpdatedBy            string          `json:"updated_by"`
}

// State snapshots the aggregate for persistence.
func (o *Order) State() OrderState {
	return OrderState{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		CustomerID:           o.CustomerID,
		Contact:              o.Contact,
		Status:               o.Status,
		Currency:             o.Currency,
		Items:                o.Items(),
		Subtotal:             o.Subtotal,
		TaxAmount:            o.TaxAmount,
		ShippingCost:         o.ShippingCost,
		DiscountAmount:       o.DiscountAmount,
		Total:                o.Total,
		ShippingAddress:      o.ShippingAddress,
		BillingAddress:       o.BillingAddress,
		PaymentMethod:        o.PaymentMethod,
		PaymentTransactionID: o.PaymentTransactionID,
		TrackingNumber:       o.TrackingNumber,
		Carrier:              o.Carrier,
		Notes:                o.Notes,
		DeliveredAt:          o.DeliveredAt,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		CreatedBy:            o.CreatedBy,
		UpdatedBy:            o.UpdatedBy,
	}
}

// RehydrateOrder reconstructs an aggregate previously captured with State.
// It bypasses creation-time validation and must only be used by persistence
// adapters.
func RehydrateOrder(s OrderState) *Order {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return &Order{
		ID:                   s.ID,
		OrderNumber:          s.OrderNumber,
		CustomerID:           s.CustomerID,
		Contact:              s.Contact,
		Status:               s.Status,
		Currency:             s.Currency,
		Subtotal:             s.Subtotal,
		TaxAmount:            s.TaxAmount,
		ShippingCost:         s.ShippingCost,
		DiscountAmount:       s.DiscountAmount,
		Total:                s.Total,
		ShippingAddress:      s.ShippingAddress,
		BillingAddress:       s.BillingAddress,
		PaymentMethod:        s.PaymentMethod,
		PaymentTransactionID: s.PaymentTransactionID,
		TrackingNumber:       s.TrackingNumber,
		Carrier:              s.Carrier,
		Notes:                s.Notes,
		DeliveredAt:          s.DeliveredAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		CreatedBy:            s.CreatedBy,
		UpdatedBy:            s.UpdatedBy,
		items:                items,
	}
}
