package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ItemAttributes are optional product attributes captured on the line item at
// order time, so later product changes do not alter historical orders.
type ItemAttributes struct {
	Weight     *float64 `json:"weight,omitempty"`
	Dimensions string   `json:"dimensions,omitempty"`
	Brand      string   `json:"brand,omitempty"`
	Model      string   `json:"model,omitempty"`
	Color      string   `json:"color,omitempty"`
	Size       string   `json:"size,omitempty"`
}

// LineItem is an immutable snapshot of a product within an order. Changing the
// quantity produces a new LineItem. Two line items refer to the same product
// when their ProductID matches.
type LineItem struct {
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name"`
	ProductSKU  string         `json:"product_sku"`
	Quantity    int            `json:"quantity"`
	UnitPrice   Money          `json:"unit_price"`
	TotalPrice  Money          `json:"total_price"`
	Attributes  ItemAttributes `json:"attributes,omitempty"`
}

func NewLineItem(productID uuid.UUID, name, sku string, quantity int, unitPrice Money, attrs ItemAttributes) (LineItem, error) {
	if productID == uuid.Nil || strings.TrimSpace(name) == "" || strings.TrimSpace(sku) == "" {
		return LineItem{}, ErrInvalidProduct
	}
	if quantity <= 0 {
		return LineItem{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	total, err := unitPrice.MultiplyInt(quantity)
	if err != nil {
		return LineItem{}, fmt.Errorf("line item total: %w", err)
	}
	return LineItem{
		ProductID:   productID,
		ProductName: name,
		ProductSKU:  sku,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  total,
		Attributes:  attrs,
	}, nil
}

// WithQuantity returns a copy with the new quantity and a recomputed total.
func (li LineItem) WithQuantity(quantity int) (LineItem, error) {
	return NewLineItem(li.ProductID, li.ProductName, li.ProductSKU, quantity, li.UnitPrice, li.Attributes)
}

// SameProduct reports whether both items snapshot the same product.
func (li LineItem) SameProduct(other LineItem) bool {
	return li.ProductID == other.ProductID
}

// TotalWeight returns weight x quantity. The second return value is false when
// the snapshot carries no weight; callers must propagate "unknown", never zero.
func (li LineItem) TotalWeight() (float64, bool) {
	if li.Attributes.Weight == nil {
		return 0, false
	}
	return *li.Attributes.Weight * float64(li.Quantity), true
}
