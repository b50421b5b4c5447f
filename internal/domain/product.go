package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
	CategoryHome        Category = "Home"
	CategorySports      Category = "Sports"
	CategoryToys        Category = "Toys"
	CategoryOther       Category = "Other"
)

// Product is the inventory-bearing catalog entity. Stock never goes negative:
// reservations check-and-decrement, releases only increment. A product that is
// still referenced by orders is deactivated, never removed.
type Product struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Brand       string    `json:"brand,omitempty"`
	Model       string    `json:"model,omitempty"`

	Price Money  `json:"price"`
	Cost  *Money `json:"cost,omitempty"`

	StockQuantity int `json:"stock_quantity"`
	MinStockLevel int `json:"min_stock_level"`
	MaxStockLevel int `json:"max_stock_level"`

	Weight     *float64 `json:"weight,omitempty"`
	Dimensions string   `json:"dimensions,omitempty"`
	Color      string   `json:"color,omitempty"`
	Size       string   `json:"size,omitempty"`

	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	IsActive    bool    `json:"is_active"`
	IsFeatured  bool    `json:"is_featured"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`

	events []Event
}

func NewProduct(sku, name string, category Category, price Money, createdBy string) (*Product, error) {
	if strings.TrimSpace(sku) == "" || strings.TrimSpace(name) == "" {
		return nil, ErrInvalidProduct
	}
	now := time.Now()
	return &Product{
		ID:        uuid.New(),
		SKU:       sku,
		Name:      name,
		Category:  category,
		Price:     price,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: createdBy,
		UpdatedBy: createdBy,
	}, nil
}

func (p *Product) record(e Event) {
	p.events = append(p.events, e)
}

// PullEvents drains the recorded domain events for dispatch.
func (p *Product) PullEvents() []Event {
	events := p.events
	p.events = nil
	return events
}

func (p *Product) touch(actor string) {
	p.UpdatedAt = time.Now()
	p.UpdatedBy = actor
}

// ReserveStock decrements the stock by qty if enough is available. It returns
// false, without error, when stock is insufficient: callers branch on this
// routinely. The check and decrement happen together so the quantity can
// never go negative.
func (p *Product) ReserveStock(qty int, actor string) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	p.touch(actor)
	p.record(StockReserved{ProductID: p.ID, SKU: p.SKU, Quantity: qty, Actor: actor, At: p.UpdatedAt})
	return true, nil
}

// ReleaseStock returns previously reserved units to stock.
func (p *Product) ReleaseStock(qty int, actor string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	p.StockQuantity += qty
	p.touch(actor)
	p.record(StockReleased{ProductID: p.ID, SKU: p.SKU, Quantity: qty, Actor: actor, At: p.UpdatedAt})
	return nil
}

// AdjustStock applies a signed correction. The resulting quantity must not be
// negative.
func (p *Product) AdjustStock(delta int, actor string) error {
	next := p.StockQuantity + delta
	if next < 0 {
		return fmt.Errorf("%w: %d%+d", ErrNegativeStock, p.StockQuantity, delta)
	}
	p.StockQuantity = next
	p.touch(actor)
	p.record(StockAdjusted{ProductID: p.ID, SKU: p.SKU, Delta: delta, NewLevel: next, Actor: actor, At: p.UpdatedAt})
	return nil
}

// SetStockLevels updates the restock thresholds.
func (p *Product) SetStockLevels(min, max int, actor string) error {
	if min < 0 || max < min {
		return fmt.Errorf("%w: min=%d max=%d", ErrInvalidStockLevels, min, max)
	}
	p.MinStockLevel = min
	p.MaxStockLevel = max
	p.touch(actor)
	return nil
}

// UpdatePrice replaces the sale price; the currency must match any recorded
// cost.
func (p *Product) UpdatePrice(price Money, actor string) error {
	if p.Cost != nil && p.Cost.Currency() != price.Currency() {
		return fmt.Errorf("%w: price %s vs cost %s", ErrCurrencyMismatch, price.Currency(), p.Cost.Currency())
	}
	p.Price = price
	p.touch(actor)
	return nil
}

// UpdateCost records the acquisition cost in the price currency.
func (p *Product) UpdateCost(cost Money, actor string) error {
	if cost.Currency() != p.Price.Currency() {
		return fmt.Errorf("%w: cost %s vs price %s", ErrCurrencyMismatch, cost.Currency(), p.Price.Currency())
	}
	c := cost
	p.Cost = &c
	p.touch(actor)
	return nil
}

// UpdateRating replaces the aggregate review rating.
func (p *Product) UpdateRating(rating float64, reviewCount int, actor string) error {
	if rating < 0 || rating > 5 || reviewCount < 0 {
		return fmt.Errorf("%w: %.2f", ErrInvalidRating, rating)
	}
	p.Rating = rating
	p.ReviewCount = reviewCount
	p.touch(actor)
	return nil
}

// Deactivate soft-removes the product from the catalog.
func (p *Product) Deactivate(actor string) {
	if !p.IsActive {
		return
	}
	p.IsActive = false
	p.touch(actor)
	p.record(ProductDeactivated{ProductID: p.ID, SKU: p.SKU, Actor: actor, At: p.UpdatedAt})
}

func (p *Product) Activate(actor string) {
	if p.IsActive {
		return
	}
	p.IsActive = true
	p.touch(actor)
}

func (p *Product) IsInStock() bool { return p.StockQuantity > 0 }

func (p *Product) NeedsRestocking() bool { return p.StockQuantity <= p.MinStockLevel }

// ProfitMargin returns (price-cost)/price as a percentage. The second return
// value is false when no cost is recorded.
func (p *Product) ProfitMargin() (decimal.Decimal, bool) {
	if p.Cost == nil || p.Price.IsZero() {
		return decimal.Zero, false
	}
	diff := p.Price.Amount().Sub(p.Cost.Amount())
	return diff.Div(p.Price.Amount()).Mul(decimal.NewFromInt(100)), true
}

// Profit returns price-cost, or false when no cost is recorded.
func (p *Product) Profit() (Money, bool) {
	if p.Cost == nil {
		return Money{}, false
	}
	profit, err := p.Price.Subtract(*p.Cost)
	if err != nil {
		return Money{}, false
	}
	return profit, true
}
