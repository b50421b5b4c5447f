package domain

import "errors"

var (
	// Money
	ErrInvalidAmount    = errors.New("amount must be non-negative")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter code")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrDivideByZero     = errors.New("division by zero")

	// Line items
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidProduct  = errors.New("product id, name and sku are required")

	// Order
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotPending    = errors.New("order is not in pending state")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidOrderStatus = errors.New("unknown order status")

	// Product / inventory
	ErrProductNotFound    = errors.New("product not found")
	ErrNegativeStock      = errors.New("stock quantity must not go negative")
	ErrInvalidStockLevels = errors.New("max stock level must be >= min stock level")
	ErrInvalidRating      = errors.New("rating must be between 0 and 5")

	// Customers
	ErrCustomerNotFound = errors.New("customer not found")

	// Identifier generation
	ErrGenerationExhausted = errors.New("unique identifier generation exhausted retries")
)
