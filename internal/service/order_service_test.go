package service_test

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/commerce-core/internal/domain"
	"github.com/commercekit/commerce-core/internal/service"
)

func mustMoney(t *testing.T, amount float64, currency string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromFloat(amount, currency)
	require.NoError(t, err)
	return m
}

func activeCustomer() *domain.Customer {
	return &domain.Customer{
		ID:       uuid.New(),
		Name:     "Jamie Doe",
		Email:    "jamie@example.com",
		Role:     domain.CustomerRoleStandard,
		IsActive: true,
	}
}

func catalogProduct(t *testing.T, sku string, stock int) *domain.Product {
	t.Helper()
	product, err := domain.NewProduct(sku, "Product "+sku, domain.CategoryElectronics,
		mustMoney(t, 25, "USD"), "tester")
	require.NoError(t, err)
	product.StockQuantity = stock
	return product
}

func itemFor(t *testing.T, p *domain.Product, qty int) domain.LineItem {
	t.Helper()
	item, err := domain.NewLineItem(p.ID, p.Name, p.SKU, qty, p.Price, domain.ItemAttributes{})
	require.NoError(t, err)
	return item
}

type orderServiceFixture struct {
	svc       *service.OrderDomainService
	orders    *fakeOrderRepo
	products  *fakeProductRepo
	users     *fakeUserRepo
	publisher *capturingPublisher
}

func newOrderServiceFixture(t *testing.T, products []*domain.Product, customers []*domain.Customer, orders []*domain.Order) *orderServiceFixture {
	t.Helper()
	f := &orderServiceFixture{
		orders:    newFakeOrderRepo(orders...),
		products:  newFakeProductRepo(products...),
		users:     newFakeUserRepo(customers...),
		publisher: &capturingPublisher{},
	}
	f.svc = service.NewOrderDomainService(service.OrderServiceParams{
		Orders:    f.orders,
		Products:  f.products,
		Users:     f.users,
		Publisher: f.publisher,
		Clock:     fixedClock{at: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)},
		Rand:      rand.New(rand.NewSource(1)),
	})
	return f
}

func TestCanCreateOrder(t *testing.T) {
	customer := activeCustomer()
	inactive := activeCustomer()
	inactive.IsActive = false

	f := newOrderServiceFixture(t, nil, []*domain.Customer{customer, inactive}, nil)
	ctx := context.Background()

	ok, err := f.svc.CanCreateOrder(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanCreateOrder(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.CanCreateOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok, "unknown customer cannot order")
}

func TestCanCreateOrder_PendingCeiling(t *testing.T) {
	customer := activeCustomer()

	var pending []*domain.Order
	for i := 0; i < 6; i++ {
		order, err := domain.NewOrder(customer.ID, fmt.Sprintf("ORD-CEIL-%d", i), "USD",
			domain.CustomerContact{}, "tester")
		require.NoError(t, err)
		pending = append(pending, order)
	}

	f := newOrderServiceFixture(t, nil, []*domain.Customer{customer}, pending)

	ok, err := f.svc.CanCreateOrder(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.False(t, ok, "more than 5 pending orders blocks creation")
}

func TestValidateProductAvailability(t *testing.T) {
	inStock := catalogProduct(t, "SKU-A", 10)
	lowStock := catalogProduct(t, "SKU-B", 1)
	inactive := catalogProduct(t, "SKU-C", 10)
	inactive.Deactivate("tester")

	f := newOrderServiceFixture(t, []*domain.Product{inStock, lowStock, inactive}, nil, nil)
	ctx := context.Background()

	ok, err := f.svc.ValidateProductAvailability(ctx, []domain.LineItem{itemFor(t, inStock, 5)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.ValidateProductAvailability(ctx, []domain.LineItem{
		itemFor(t, inStock, 5),
		itemFor(t, lowStock, 2),
	})
	require.NoError(t, err)
	assert.False(t, ok, "one short item fails the whole check")

	ok, err = f.svc.ValidateProductAvailability(ctx, []domain.LineItem{itemFor(t, inactive, 1)})
	require.NoError(t, err)
	assert.False(t, ok, "inactive product is unavailable")

	missing := catalogProduct(t, "SKU-X", 5)
	ok, err = f.svc.ValidateProductAvailability(ctx, []domain.LineItem{itemFor(t, missing, 1)})
	require.NoError(t, err)
	assert.False(t, ok, "unknown product is unavailable")
}

func TestReserveInventory_Success(t *testing.T) {
	a := catalogProduct(t, "SKU-A", 10)
	b := catalogProduct(t, "SKU-B", 4)

	f := newOrderServiceFixture(t, []*domain.Product{a, b}, nil, nil)

	ok, err := f.svc.ReserveInventory(context.Background(), []domain.LineItem{
		itemFor(t, a, 3),
		itemFor(t, b, 4),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, a.StockQuantity)
	assert.Equal(t, 0, b.StockQuantity)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, domain.StockReservedEvent, f.publisher.events[0].Type())
}

func TestReserveInventory_CompensatesOnPartialFailure(t *testing.T) {
	a := catalogProduct(t, "SKU-A", 10)
	b := catalogProduct(t, "SKU-B", 5)

	f := newOrderServiceFixture(t, []*domain.Product{a, b}, nil, nil)
	// b passes the availability check but loses the reservation race
	f.products.failReserve[b.ID] = true

	ok, err := f.svc.ReserveInventory(context.Background(), []domain.LineItem{
		itemFor(t, a, 3),
		itemFor(t, b, 2),
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 10, a.StockQuantity, "already-reserved stock is released again")
	assert.Equal(t, 5, b.StockQuantity)
}

func TestReserveInventory_FailsFastOnUnavailability(t *testing.T) {
	a := catalogProduct(t, "SKU-A", 2)

	f := newOrderServiceFixture(t, []*domain.Product{a}, nil, nil)

	ok, err := f.svc.ReserveInventory(context.Background(), []domain.LineItem{itemFor(t, a, 3)})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, a.StockQuantity, "nothing reserved when validation fails")
	assert.Empty(t, f.publisher.events)
}

func TestReleaseInventory_BestEffort(t *testing.T) {
	a := catalogProduct(t, "SKU-A", 2)
	ghost := catalogProduct(t, "SKU-GHOST", 1)

	f := newOrderServiceFixture(t, []*domain.Product{a}, nil, nil)

	err := f.svc.ReleaseInventory(context.Background(), []domain.LineItem{
		itemFor(t, ghost, 1), // unknown product is skipped
		itemFor(t, a, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, a.StockQuantity)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.StockReleasedEvent, f.publisher.events[0].Type())
}

func TestCalculateShippingCost(t *testing.T) {
	f := newOrderServiceFixture(t, nil, nil, nil)
	domestic := domain.Address{City: "Austin", State: "TX", Country: "US"}
	international := domain.Address{City: "Berlin", Country: "DE"}

	light := catalogProduct(t, "SKU-L", 10)
	w := 10.0
	light.Weight = &w
	lightItem, err := domain.NewLineItem(light.ID, light.Name, light.SKU, 2, light.Price,
		domain.ItemAttributes{Weight: &w})
	require.NoError(t, err)

	heavyWeight := 600.0
	heavyItem, err := domain.NewLineItem(uuid.New(), "Anvil", "SKU-H", 2,
		mustMoney(t, 80, "USD"), domain.ItemAttributes{Weight: &heavyWeight})
	require.NoError(t, err)

	noWeightItem, err := domain.NewLineItem(uuid.New(), "Mystery", "SKU-M", 1,
		mustMoney(t, 10, "USD"), domain.ItemAttributes{})
	require.NoError(t, err)

	cost, err := f.svc.CalculateShippingCost([]domain.LineItem{lightItem}, domestic)
	require.NoError(t, err)
	assert.Equal(t, "5.99", cost.Amount().StringFixed(2), "base cost for light domestic orders")

	cost, err = f.svc.CalculateShippingCost([]domain.LineItem{heavyItem}, domestic)
	require.NoError(t, err)
	assert.Equal(t, "20.99", cost.Amount().StringFixed(2), "1200 weight-units adds the heavy surcharge")

	cost, err = f.svc.CalculateShippingCost([]domain.LineItem{lightItem}, international)
	require.NoError(t, err)
	assert.Equal(t, "25.99", cost.Amount().StringFixed(2), "international destination surcharge")

	cost, err = f.svc.CalculateShippingCost([]domain.LineItem{heavyItem, noWeightItem}, domestic)
	require.NoError(t, err)
	assert.Equal(t, "5.99", cost.Amount().StringFixed(2), "unknown order weight skips the weight surcharge")
}

func TestCalculateTaxAmount(t *testing.T) {
	f := newOrderServiceFixture(t, nil, nil, nil)
	subtotal := mustMoney(t, 100, "USD")

	tax, err := f.svc.CalculateTaxAmount(subtotal, domain.Address{State: "CA", Country: "US"})
	require.NoError(t, err)
	assert.Equal(t, "9.25", tax.Amount().StringFixed(2))

	tax, err = f.svc.CalculateTaxAmount(subtotal, domain.Address{State: "ZZ", Country: "XX"})
	require.NoError(t, err)
	assert.Equal(t, "8.00", tax.Amount().StringFixed(2), "unknown region falls back to the default rate")
}

func TestGenerateOrderNumber(t *testing.T) {
	f := newOrderServiceFixture(t, nil, nil, nil)

	number, err := f.svc.GenerateOrderNumber(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(number, "ORD-20260828"), "got %s", number)
	assert.Equal(t, 1, f.orders.numberLookups)
}

func TestGenerateOrderNumber_Exhaustion(t *testing.T) {
	f := newOrderServiceFixture(t, nil, nil, nil)
	f.orders.everyNumberTaken = true

	_, err := f.svc.GenerateOrderNumber(context.Background())
	require.ErrorIs(t, err, domain.ErrGenerationExhausted)
	assert.Equal(t, 10, f.orders.numberLookups, "bounded to 10 attempts")
}

func TestValidNextStatuses(t *testing.T) {
	f := newOrderServiceFixture(t, nil, nil, nil)

	assert.ElementsMatch(t,
		[]domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusCancelled},
		f.svc.ValidNextStatuses(domain.OrderStatusPending))
	assert.Empty(t, f.svc.ValidNextStatuses(domain.OrderStatusRefunded))
}

func TestValidateOrder(t *testing.T) {
	customer := activeCustomer()
	product := catalogProduct(t, "SKU-A", 10)

	f := newOrderServiceFixture(t, []*domain.Product{product}, []*domain.Customer{customer}, nil)
	ctx := context.Background()

	order, err := domain.NewOrder(customer.ID, "ORD-VAL-1", "USD", domain.CustomerContact{}, "tester")
	require.NoError(t, err)
	require.NoError(t, order.AddLineItem(itemFor(t, product, 2), "tester"))

	result, err := f.svc.ValidateOrder(ctx, order)
	require.NoError(t, err)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestValidateOrder_CollectsErrors(t *testing.T) {
	inactiveCustomer := activeCustomer()
	inactiveCustomer.IsActive = false

	f := newOrderServiceFixture(t, nil, []*domain.Customer{inactiveCustomer}, nil)

	order, err := domain.NewOrder(inactiveCustomer.ID, "ORD-VAL-2", "USD", domain.CustomerContact{}, "tester")
	require.NoError(t, err)

	result, err := f.svc.ValidateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.False(t, result.Valid())
	assert.Len(t, result.Errors, 2, "inactive customer and empty order")
}

func TestValidateOrder_WeightedItemsNeedShippingAddress(t *testing.T) {
	customer := activeCustomer()
	product := catalogProduct(t, "SKU-A", 10)
	w := 2.0
	product.Weight = &w

	f := newOrderServiceFixture(t, []*domain.Product{product}, []*domain.Customer{customer}, nil)

	order, err := domain.NewOrder(customer.ID, "ORD-VAL-3", "USD", domain.CustomerContact{}, "tester")
	require.NoError(t, err)
	item, err := domain.NewLineItem(product.ID, product.Name, product.SKU, 1, product.Price,
		domain.ItemAttributes{Weight: &w})
	require.NoError(t, err)
	require.NoError(t, order.AddLineItem(item, "tester"))

	result, err := f.svc.ValidateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.False(t, result.Valid())

	require.NoError(t, order.UpdateShippingInfo(domain.Address{Street: "1 Main St", Country: "US"}, nil, "tester"))
	result, err = f.svc.ValidateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, result.Valid())
}

func TestValidateOrder_HighValueWarning(t *testing.T) {
	customer := activeCustomer()
	product := catalogProduct(t, "SKU-A", 1000)

	f := newOrderServiceFixture(t, []*domain.Product{product}, []*domain.Customer{customer}, nil)

	order, err := domain.NewOrder(customer.ID, "ORD-VAL-4", "USD", domain.CustomerContact{}, "tester")
	require.NoError(t, err)
	// 500 x $25 = $12,500 > the $10,000 advisory threshold
	require.NoError(t, order.AddLineItem(itemFor(t, product, 500), "tester"))

	result, err := f.svc.ValidateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "warnings never block")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "high-value")
}
