package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/commercekit/commerce-core/internal/config"
	"github.com/commercekit/commerce-core/internal/domain"
)

// Heuristic inputs for the reorder calculations: estimated average daily
// sales per category, pending a real sales-history integration.
var categoryDailySales = map[domain.Category]float64{
	domain.CategoryElectronics: 12,
	domain.CategoryClothing:    8,
	domain.CategoryBooks:       5,
	domain.CategoryHome:        6,
	domain.CategorySports:      7,
	domain.CategoryToys:        9,
}

const (
	defaultDailySales  = 4.0
	leadTimeDays       = 7.0
	safetyStockDays    = 2.0
	orderingCost       = 50.0 // flat cost per purchase order
	holdingCostRate    = 0.25 // annual holding cost as fraction of unit cost
	minHoldingCostUnit = 1.0
)

// ProductDomainService holds catalog-level business rules: SKU generation and
// uniqueness, reorder heuristics, pricing validation and composite product
// validation.
type ProductDomainService struct {
	products  ProductRepository
	logger    *zap.Logger
	gen       *idGenerator
	lowMargin decimal.Decimal
}

type ProductServiceParams struct {
	Products ProductRepository
	Logger   *zap.Logger
	Clock    Clock
	Rand     *rand.Rand
	Config   *config.Config
}

func NewProductDomainService(p ProductServiceParams) *ProductDomainService {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &ProductDomainService{
		products:  p.Products,
		logger:    p.Logger,
		gen:       newIDGenerator(p.Clock, p.Rand),
		lowMargin: decimal.NewFromFloat(cfg.LowMarginThresholdPct),
	}
}

// GenerateUniqueSKU produces a category+brand-coded SKU, retrying the
// timestamp+random candidate against the catalog a bounded number of times.
func (s *ProductDomainService) GenerateUniqueSKU(ctx context.Context, category domain.Category, brand string) (string, error) {
	return generateUnique(ctx, func() string {
		return s.gen.skuCandidate(category, brand)
	}, func(ctx context.Context, sku string) (bool, error) {
		_, err := s.products.GetBySKU(ctx, sku)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
}

// estimatedDailySales seeds the reorder heuristics: a category base rate
// scaled up for well-rated products.
func estimatedDailySales(p *domain.Product) float64 {
	daily, ok := categoryDailySales[p.Category]
	if !ok {
		daily = defaultDailySales
	}
	// Rating multiplier: a 5-star product sells an estimated 50% faster.
	return daily * (1 + p.Rating/10)
}

// CalculateOptimalReorderPoint returns the stock level at which the product
// should be reordered: expected demand over the lead time plus safety stock.
func (s *ProductDomainService) CalculateOptimalReorderPoint(p *domain.Product) int {
	daily := estimatedDailySales(p)
	point := daily*leadTimeDays + daily*safetyStockDays
	return int(math.Ceil(point))
}

// CalculateOptimalReorderQuantity returns an EOQ-style order size:
// sqrt(2 * annual demand * ordering cost / annual holding cost per unit).
func (s *ProductDomainService) CalculateOptimalReorderQuantity(p *domain.Product) int {
	annualDemand := estimatedDailySales(p) * 365

	unitCost, _ := p.Price.Amount().Float64()
	if p.Cost != nil {
		unitCost, _ = p.Cost.Amount().Float64()
	}
	holding := unitCost * holdingCostRate
	if holding < minHoldingCostUnit {
		holding = minHoldingCostUnit
	}

	eoq := math.Sqrt(2 * annualDemand * orderingCost / holding)
	qty := int(math.Ceil(eoq))
	if qty < 1 {
		qty = 1
	}
	if p.MaxStockLevel > 0 && qty > p.MaxStockLevel {
		qty = p.MaxStockLevel
	}
	return qty
}

// ValidatePricing checks price/cost coherence. Price must be positive; a
// recorded cost must share the currency and sit below the price. A margin
// under the configured threshold is a warning, not an error.
func (s *ProductDomainService) ValidatePricing(price domain.Money, cost *domain.Money) *ValidationResult {
	result := &ValidationResult{}

	if price.IsZero() {
		result.AddError("price must be greater than zero")
		return result
	}
	if cost == nil {
		return result
	}

	if cost.Currency() != price.Currency() {
		result.AddError(fmt.Sprintf("cost currency %s does not match price currency %s",
			cost.Currency(), price.Currency()))
		return result
	}

	greater, err := price.GreaterThan(*cost)
	if err != nil || !greater {
		result.AddError(fmt.Sprintf("price %s must exceed cost %s", price, *cost))
		return result
	}

	margin := price.Amount().Sub(cost.Amount()).Div(price.Amount()).Mul(decimal.NewFromInt(100))
	if margin.LessThan(s.lowMargin) {
		result.AddWarning(fmt.Sprintf("low profit margin: %s%%", margin.StringFixed(2)))
	}
	return result
}

// ValidateProduct composes SKU uniqueness, pricing, stock-level and physical
// attribute checks.
func (s *ProductDomainService) ValidateProduct(ctx context.Context, p *domain.Product) (*ValidationResult, error) {
	result := &ValidationResult{}

	if p.SKU == "" {
		result.AddError("sku is required")
	} else {
		existing, err := s.products.GetBySKU(ctx, p.SKU)
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
		case err != nil:
			return nil, fmt.Errorf("sku lookup: %w", err)
		case existing.ID != p.ID:
			result.AddError(fmt.Sprintf("sku %s is already in use", p.SKU))
		}
	}

	result.Merge(s.ValidatePricing(p.Price, p.Cost))

	if p.StockQuantity < 0 {
		result.AddError("stock quantity must not be negative")
	}
	if p.MinStockLevel < 0 || p.MaxStockLevel < p.MinStockLevel {
		result.AddError(fmt.Sprintf("invalid stock levels: min=%d max=%d", p.MinStockLevel, p.MaxStockLevel))
	}
	if p.StockQuantity > p.MaxStockLevel && p.MaxStockLevel > 0 {
		result.AddWarning(fmt.Sprintf("stock %d exceeds max level %d", p.StockQuantity, p.MaxStockLevel))
	}

	if p.Weight != nil && *p.Weight <= 0 {
		result.AddError("weight must be positive when set")
	}
	if p.Rating < 0 || p.Rating > 5 {
		result.AddError(fmt.Sprintf("rating %.2f out of range", p.Rating))
	}

	return result, nil
}

// ProductsNeedingRestock returns active products at or below their minimum
// stock level.
func (s *ProductDomainService) ProductsNeedingRestock(ctx context.Context) ([]*domain.Product, error) {
	active, err := s.products.GetActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("active products lookup: %w", err)
	}
	var out []*domain.Product
	for _, p := range active {
		if p.NeedsRestocking() {
			out = append(out, p)
		}
	}
	return out, nil
}
