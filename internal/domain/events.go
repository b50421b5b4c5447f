package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	OrderCreatedEvent       EventType = "order.created"
	OrderStatusChangedEvent EventType = "order.status_changed"
	StockReservedEvent      EventType = "inventory.stock_reserved"
	StockReleasedEvent      EventType = "inventory.stock_released"
	StockAdjustedEvent      EventType = "inventory.stock_adjusted"
	ProductDeactivatedEvent EventType = "product.deactivated"
)

// Event is an immutable record of a domain fact. Aggregates record events;
// the application layer pulls and dispatches them.
type Event interface {
	Type() EventType
	OccurredAt() time.Time
}

type OrderCreated struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	At          time.Time `json:"at"`
}

func (e OrderCreated) Type() EventType       { return OrderCreatedEvent }
func (e OrderCreated) OccurredAt() time.Time { return e.At }

type OrderStatusChanged struct {
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
	Actor       string      `json:"actor"`
	At          time.Time   `json:"at"`
}

func (e OrderStatusChanged) Type() EventType       { return OrderStatusChangedEvent }
func (e OrderStatusChanged) OccurredAt() time.Time { return e.At }

type StockReserved struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

func (e StockReserved) Type() EventType       { return StockReservedEvent }
func (e StockReserved) OccurredAt() time.Time { return e.At }

type StockReleased struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

func (e StockReleased) Type() EventType       { return StockReleasedEvent }
func (e StockReleased) OccurredAt() time.Time { return e.At }

type StockAdjusted struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Delta     int       `json:"delta"`
	NewLevel  int       `json:"new_level"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

func (e StockAdjusted) Type() EventType       { return StockAdjustedEvent }
func (e StockAdjusted) OccurredAt() time.Time { return e.At }

type ProductDeactivated struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
}

func (e ProductDeactivated) Type() EventType       { return ProductDeactivatedEvent }
func (e ProductDeactivated) OccurredAt() time.Time { return e.At }
