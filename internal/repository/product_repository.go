package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercekit/commerce-core/internal/domain"
	"github.com/commercekit/commerce-core/internal/service"
)

type ProductRepository struct {
	db *sql.DB
}

var _ service.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `
	id, sku, name, description, category, brand, model,
	price, cost, currency,
	stock_quantity, min_stock_level, max_stock_level,
	weight, dimensions, color, size,
	rating, review_count, is_active, is_featured,
	created_at, updated_at, created_by, updated_by
`

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return product, err
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, sku)
	}
	return product, err
}

func (r *ProductRepository) GetActiveProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("products query: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	var cost decimal.NullDecimal
	if product.Cost != nil {
		cost = decimal.NullDecimal{Decimal: product.Cost.Amount(), Valid: true}
	}

	query := `
		UPDATE products
		SET sku = $2, name = $3, description = $4, category = $5,
			brand = $6, model = $7,
			price = $8, cost = $9, currency = $10,
			stock_quantity = $11, min_stock_level = $12, max_stock_level = $13,
			weight = $14, dimensions = $15, color = $16, size = $17,
			rating = $18, review_count = $19, is_active = $20, is_featured = $21,
			updated_at = $22, updated_by = $23
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		product.ID, product.SKU, product.Name, product.Description, product.Category,
		product.Brand, product.Model,
		product.Price.Amount(), cost, product.Price.Currency(),
		product.StockQuantity, product.MinStockLevel, product.MaxStockLevel,
		product.Weight, product.Dimensions, product.Color, product.Size,
		product.Rating, product.ReviewCount, product.IsActive, product.IsFeatured,
		product.UpdatedAt, product.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("product update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, product.ID)
	}
	return nil
}

func (r *ProductRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("product exists query: %w", err)
	}
	return exists, nil
}

// ReserveStock performs the atomic check-and-decrement: the conditional
// UPDATE only matches when enough stock remains, so two racing reservations
// can never both succeed on the last unit.
func (r *ProductRepository) ReserveStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`, id, qty)
	if err != nil {
		return false, fmt.Errorf("stock reservation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ProductRepository) ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("stock release: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p           domain.Product
		price       decimal.Decimal
		cost        decimal.NullDecimal
		currency    string
		weight      sql.NullFloat64
		description sql.NullString
		brand       sql.NullString
		model       sql.NullString
		dimensions  sql.NullString
		color       sql.NullString
		size        sql.NullString
		createdBy   sql.NullString
		updatedBy   sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &description, &p.Category, &brand, &model,
		&price, &cost, &currency,
		&p.StockQuantity, &p.MinStockLevel, &p.MaxStockLevel,
		&weight, &dimensions, &color, &size,
		&p.Rating, &p.ReviewCount, &p.IsActive, &p.IsFeatured,
		&p.CreatedAt, &p.UpdatedAt, &createdBy, &updatedBy,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Brand = brand.String
	p.Model = model.String
	p.Dimensions = dimensions.String
	p.Color = color.String
	p.Size = size.String
	p.CreatedBy = createdBy.String
	p.UpdatedBy = updatedBy.String
	if weight.Valid {
		w := weight.Float64
		p.Weight = &w
	}

	if p.Price, err = domain.NewMoney(price, currency); err != nil {
		return nil, fmt.Errorf("price deserialization: %w", err)
	}
	if cost.Valid {
		c, err := domain.NewMoney(cost.Decimal, currency)
		if err != nil {
			return nil, fmt.Errorf("cost deserialization: %w", err)
		}
		p.Cost = &c
	}

	return &p, nil
}
