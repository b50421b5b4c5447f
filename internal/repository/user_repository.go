package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercekit/commerce-core/internal/domain"
	"github.com/commercekit/commerce-core/internal/service"
)

// UserRepository reads the customers table. The domain only needs the
// eligibility read model; account management happens elsewhere.
type UserRepository struct {
	db *sql.DB
}

var _ service.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, is_active, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&customer.ID, &customer.Name, &customer.Email,
		&customer.Role, &customer.IsActive, &customer.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("customer query: %w", err)
	}
	return &customer, nil
}
