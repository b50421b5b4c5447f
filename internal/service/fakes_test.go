package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/commerce-core/internal/domain"
)

type fakeProductRepo struct {
	mu          sync.Mutex
	products    map[uuid.UUID]*domain.Product
	failReserve map[uuid.UUID]bool

	skuLookups    int
	everySKUTaken bool
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	repo := &fakeProductRepo{
		products:    make(map[uuid.UUID]*domain.Product),
		failReserve: make(map[uuid.UUID]bool),
	}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p, nil
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skuLookups++
	if r.everySKUTaken {
		return &domain.Product{ID: uuid.New(), SKU: sku}, nil
	}
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, sku)
}

func (r *fakeProductRepo) GetActiveProducts(context.Context) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, product.ID)
	}
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.products[id]
	return ok, nil
}

func (r *fakeProductRepo) ReserveStock(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	if r.failReserve[id] {
		return false, nil
	}
	if p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	return true, nil
}

func (r *fakeProductRepo) ReleaseStock(_ context.Context, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	p.StockQuantity += qty
	return nil
}

type fakeOrderRepo struct {
	orders           map[uuid.UUID]*domain.Order
	numberLookups    int
	everyNumberTaken bool
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return o, nil
}

func (r *fakeOrderRepo) GetByOrderNumber(_ context.Context, number string) (*domain.Order, error) {
	r.numberLookups++
	if r.everyNumberTaken {
		return domain.RehydrateOrder(domain.OrderState{OrderNumber: number}), nil
	}
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, number)
}

func (r *fakeOrderRepo) GetByCustomerID(_ context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetPendingOrdersByCustomer(_ context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID && o.Status == domain.OrderStatusPending {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetByStatus(_ context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) Add(_ context.Context, order *domain.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *domain.Order) error {
	if _, ok := r.orders[order.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.ID)
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.orders, id)
	return nil
}

type fakeUserRepo struct {
	customers map[uuid.UUID]*domain.Customer
}

func newFakeUserRepo(customers ...*domain.Customer) *fakeUserRepo {
	repo := &fakeUserRepo{customers: make(map[uuid.UUID]*domain.Customer)}
	for _, c := range customers {
		repo.customers[c.ID] = c
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
	}
	return c, nil
}

type capturingPublisher struct {
	events []domain.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.events = append(p.events, event)
	return nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }
