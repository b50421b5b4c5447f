// Package service holds the cross-aggregate business rules for orders and
// products, behind repository ports implemented elsewhere.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/commercekit/commerce-core/internal/domain"
)

// ProductRepository is the persistence port for catalog products.
//
// ReserveStock and ReleaseStock exist so implementations can make the
// check-and-decrement atomic (a conditional UPDATE, or a lock around the
// entity operation). The service never does a read-then-write reservation
// across a race window.
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	GetActiveProducts(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ReserveStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error
}

// OrderRepository is the persistence port for order aggregates.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error)
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error)
	GetPendingOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error)
	GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
	Add(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository is the customer-lookup port.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}

// EventPublisher dispatches domain events to the outside world.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// NopPublisher discards events; used when no broker is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
