package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/commercekit/commerce-core/internal/config"
	"github.com/commercekit/commerce-core/internal/domain"
)

// OrderDomainService holds the business rules that span the order and product
// aggregates: availability checks, inventory reservation with compensation,
// shipping and tax computation, order-number generation, and status-transition
// lookups.
type OrderDomainService struct {
	orders    OrderRepository
	products  ProductRepository
	users     UserRepository
	rates     RateProvider
	publisher EventPublisher
	logger    *zap.Logger
	gen       *idGenerator

	maxPendingOrders     int
	defaultCurrency      string
	baseShippingCost     decimal.Decimal
	heavyWeightThreshold float64
	heavyWeightSurcharge decimal.Decimal
	highValueThreshold   decimal.Decimal
}

// OrderServiceParams wires the service dependencies. Rates, Publisher,
// Logger, Clock, Rand and Config may be nil/zero; defaults are applied.
type OrderServiceParams struct {
	Orders    OrderRepository
	Products  ProductRepository
	Users     UserRepository
	Rates     RateProvider
	Publisher EventPublisher
	Logger    *zap.Logger
	Clock     Clock
	Rand      *rand.Rand
	Config    *config.Config
}

func NewOrderDomainService(p OrderServiceParams) *OrderDomainService {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if p.Rates == nil {
		p.Rates = NewStaticRateTable(cfg)
	}
	if p.Publisher == nil {
		p.Publisher = NopPublisher{}
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &OrderDomainService{
		orders:               p.Orders,
		products:             p.Products,
		users:                p.Users,
		rates:                p.Rates,
		publisher:            p.Publisher,
		logger:               p.Logger,
		gen:                  newIDGenerator(p.Clock, p.Rand),
		maxPendingOrders:     cfg.MaxPendingOrders,
		defaultCurrency:      cfg.DefaultCurrency,
		baseShippingCost:     decimal.NewFromFloat(cfg.BaseShippingCost),
		heavyWeightThreshold: cfg.HeavyWeightThreshold,
		heavyWeightSurcharge: decimal.NewFromFloat(cfg.HeavyWeightSurcharge),
		highValueThreshold:   decimal.NewFromFloat(cfg.HighValueOrderThreshold),
	}
}

// CanCreateOrder reports whether the customer is allowed to open another
// order: the account must exist, be active, and sit under the pending-order
// ceiling.
func (s *OrderDomainService) CanCreateOrder(ctx context.Context, customerID uuid.UUID) (bool, error) {
	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("customer lookup: %w", err)
	}
	if !customer.CanPlaceOrders() {
		return false, nil
	}

	pending, err := s.orders.GetPendingOrdersByCustomer(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("pending orders lookup: %w", err)
	}
	if len(pending) > s.maxPendingOrders {
		s.logger.Info("pending order ceiling reached",
			zap.String("customer_id", customerID.String()),
			zap.Int("pending", len(pending)))
		return false, nil
	}
	return true, nil
}

// ValidateProductAvailability checks every line item against the catalog: the
// product must exist, be active, and have at least the requested quantity in
// stock. The check is all-or-nothing; nothing is reserved here.
func (s *OrderDomainService) ValidateProductAvailability(ctx context.Context, items []domain.LineItem) (bool, error) {
	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("product lookup: %w", err)
		}
		if !product.IsActive || !product.IsInStock() || product.StockQuantity < item.Quantity {
			return false, nil
		}
	}
	return true, nil
}

// ReserveInventory reserves stock for every line item. Reservation is
// validated up front, then performed per product through the repository's
// atomic check-and-decrement. If a later reservation loses a race, the
// already-reserved items are released again (compensation) and false is
// returned so the caller can retry.
func (s *OrderDomainService) ReserveInventory(ctx context.Context, items []domain.LineItem) (bool, error) {
	ok, err := s.ValidateProductAvailability(ctx, items)
	if err != nil || !ok {
		return false, err
	}

	var reserved []domain.LineItem
	for _, item := range items {
		ok, err := s.products.ReserveStock(ctx, item.ProductID, item.Quantity)
		if err != nil || !ok {
			s.logger.Warn("reservation failed, compensating",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			s.compensateReservations(ctx, reserved)
			if err != nil {
				return false, fmt.Errorf("reserve stock: %w", err)
			}
			return false, nil
		}
		reserved = append(reserved, item)

		if pubErr := s.publisher.Publish(ctx, domain.StockReserved{
			ProductID: item.ProductID,
			SKU:       item.ProductSKU,
			Quantity:  item.Quantity,
			Actor:     "order-domain-service",
			At:        s.gen.clock.Now(),
		}); pubErr != nil {
			s.logger.Warn("stock reserved event publish failed", zap.Error(pubErr))
		}
	}
	return true, nil
}

func (s *OrderDomainService) compensateReservations(ctx context.Context, reserved []domain.LineItem) {
	for _, item := range reserved {
		if err := s.products.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("compensating release failed",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

// ReleaseInventory returns reserved stock for the items, best effort. A
// missing product is skipped, never failing the rest of the batch.
func (s *OrderDomainService) ReleaseInventory(ctx context.Context, items []domain.LineItem) error {
	for _, item := range items {
		if err := s.products.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Warn("stock release skipped",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			continue
		}
		if pubErr := s.publisher.Publish(ctx, domain.StockReleased{
			ProductID: item.ProductID,
			SKU:       item.ProductSKU,
			Quantity:  item.Quantity,
			Actor:     "order-domain-service",
			At:        s.gen.clock.Now(),
		}); pubErr != nil {
			s.logger.Warn("stock released event publish failed", zap.Error(pubErr))
		}
	}
	return nil
}

// CalculateShippingCost estimates shipping as base cost + a surcharge for
// heavy orders + a destination surcharge. Approximate heuristic, not a
// carrier rate table.
func (s *OrderDomainService) CalculateShippingCost(items []domain.LineItem, addr domain.Address) (domain.Money, error) {
	currency := s.defaultCurrency
	if len(items) > 0 {
		currency = items[0].UnitPrice.Currency()
	}

	cost := s.baseShippingCost

	totalWeight := 0.0
	weightKnown := true
	for _, item := range items {
		w, ok := item.TotalWeight()
		if !ok {
			weightKnown = false
			break
		}
		totalWeight += w
	}
	if weightKnown && totalWeight > s.heavyWeightThreshold {
		cost = cost.Add(s.heavyWeightSurcharge)
	}

	cost = cost.Add(s.rates.ShippingSurcharge(addr))
	return domain.NewMoney(cost, currency)
}

// CalculateTaxAmount applies the region's flat tax rate to the subtotal.
func (s *OrderDomainService) CalculateTaxAmount(subtotal domain.Money, addr domain.Address) (domain.Money, error) {
	return subtotal.Multiply(s.rates.TaxRate(addr))
}

// GenerateOrderNumber produces a unique human-readable order number, retrying
// the timestamp+random candidate against the order store a bounded number of
// times.
func (s *OrderDomainService) GenerateOrderNumber(ctx context.Context) (string, error) {
	return generateUnique(ctx, s.gen.orderNumberCandidate, func(ctx context.Context, number string) (bool, error) {
		_, err := s.orders.GetByOrderNumber(ctx, number)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
}

// ValidNextStatuses exposes the order status transition table. Terminal
// statuses return an empty slice.
func (s *OrderDomainService) ValidNextStatuses(current domain.OrderStatus) []domain.OrderStatus {
	return current.ValidNextStatuses()
}

// ValidateOrder runs the aggregate order checks. Hard failures land in
// Errors; advisory findings (for example an unusually large total) land in
// Warnings and never block the order.
func (s *OrderDomainService) ValidateOrder(ctx context.Context, order *domain.Order) (*ValidationResult, error) {
	result := &ValidationResult{}

	customer, err := s.users.GetByID(ctx, order.CustomerID)
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		result.AddError(fmt.Sprintf("customer %s not found", order.CustomerID))
	case err != nil:
		return nil, fmt.Errorf("customer lookup: %w", err)
	case !customer.CanPlaceOrders():
		result.AddError(fmt.Sprintf("customer %s is not active", order.CustomerID))
	}

	items := order.Items()
	if len(items) == 0 {
		result.AddError("order has no line items")
	}

	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				result.AddError(fmt.Sprintf("product %s not found", item.ProductID))
				continue
			}
			return nil, fmt.Errorf("product lookup: %w", err)
		}
		if !product.IsActive {
			result.AddError(fmt.Sprintf("product %s is inactive", product.SKU))
		}
		if product.StockQuantity < item.Quantity {
			result.AddError(fmt.Sprintf("product %s has insufficient stock: have %d, want %d",
				product.SKU, product.StockQuantity, item.Quantity))
		}

		if _, hasWeight := item.TotalWeight(); hasWeight && order.ShippingAddress == nil {
			result.AddError("order with weighted items requires a shipping address")
		}
	}

	if order.Total.Amount().GreaterThan(s.highValueThreshold) {
		result.AddWarning(fmt.Sprintf("high-value order: total %s", order.Total))
	}

	return result, nil
}
