// Package repository provides the Postgres implementations of the service
// layer's persistence ports.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/commercekit/commerce-core/internal/domain"
	"github.com/commercekit/commerce-core/internal/service"
)

type OrderRepository struct {
	db *sql.DB
}

var _ service.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, order_number, customer_id, contact, status, currency, items,
	subtotal, tax_amount, shipping_cost, discount_amount, total,
	shipping_address, billing_address,
	payment_method, payment_transaction_id, tracking_number, carrier, notes,
	delivered_at, created_at, updated_at, created_by, updated_by
`

func (r *OrderRepository) Add(ctx context.Context, order *domain.Order) error {
	state := order.State()

	itemsJSON, err := json.Marshal(state.Items)
	if err != nil {
		return fmt.Errorf("items serialization: %w", err)
	}
	contactJSON, err := json.Marshal(state.Contact)
	if err != nil {
		return fmt.Errorf("contact serialization: %w", err)
	}
	shippingJSON, err := marshalNullable(state.ShippingAddress)
	if err != nil {
		return fmt.Errorf("shipping address serialization: %w", err)
	}
	billingJSON, err := marshalNullable(state.BillingAddress)
	if err != nil {
		return fmt.Errorf("billing address serialization: %w", err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err = r.db.ExecContext(ctx, query,
		state.ID, state.OrderNumber, state.CustomerID, contactJSON,
		state.Status, state.Currency, itemsJSON,
		state.Subtotal.Amount(), state.TaxAmount.Amount(), state.ShippingCost.Amount(),
		state.DiscountAmount.Amount(), state.Total.Amount(),
		shippingJSON, billingJSON,
		state.PaymentMethod, state.PaymentTransactionID,
		state.TrackingNumber, state.Carrier, state.Notes,
		state.DeliveredAt, state.CreatedAt, state.UpdatedAt,
		state.CreatedBy, state.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("order insert: %w", err)
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	state := order.State()

	itemsJSON, err := json.Marshal(state.Items)
	if err != nil {
		return fmt.Errorf("items serialization: %w", err)
	}
	shippingJSON, err := marshalNullable(state.ShippingAddress)
	if err != nil {
		return fmt.Errorf("shipping address serialization: %w", err)
	}
	billingJSON, err := marshalNullable(state.BillingAddress)
	if err != nil {
		return fmt.Errorf("billing address serialization: %w", err)
	}

	query := `
		UPDATE orders
		SET status = $2, items = $3,
			subtotal = $4, tax_amount = $5, shipping_cost = $6,
			discount_amount = $7, total = $8,
			shipping_address = $9, billing_address = $10,
			payment_method = $11, payment_transaction_id = $12,
			tracking_number = $13, carrier = $14, notes = $15,
			delivered_at = $16, updated_at = $17, updated_by = $18
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		state.ID, state.Status, itemsJSON,
		state.Subtotal.Amount(), state.TaxAmount.Amount(), state.ShippingCost.Amount(),
		state.DiscountAmount.Amount(), state.Total.Amount(),
		shippingJSON, billingJSON,
		state.PaymentMethod, state.PaymentTransactionID,
		state.TrackingNumber, state.Carrier, state.Notes,
		state.DeliveredAt, state.UpdatedAt, state.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("order update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, state.ID)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("order delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return order, err
}

func (r *OrderRepository) GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, number)
	}
	return order, err
}

func (r *OrderRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID)
}

func (r *OrderRepository) GetPendingOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 AND status = $2 ORDER BY created_at DESC`,
		customerID, domain.OrderStatusPending)
}

func (r *OrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC`,
		status)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("orders query: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		state        domain.OrderState
		contactJSON  []byte
		itemsJSON    []byte
		shippingJSON []byte
		billingJSON  []byte
		subtotal     decimal.Decimal
		tax          decimal.Decimal
		shipping     decimal.Decimal
		discount     decimal.Decimal
		total        decimal.Decimal
		deliveredAt  sql.NullTime
	)

	err := row.Scan(
		&state.ID, &state.OrderNumber, &state.CustomerID, &contactJSON,
		&state.Status, &state.Currency, &itemsJSON,
		&subtotal, &tax, &shipping, &discount, &total,
		&shippingJSON, &billingJSON,
		&state.PaymentMethod, &state.PaymentTransactionID,
		&state.TrackingNumber, &state.Carrier, &state.Notes,
		&deliveredAt, &state.CreatedAt, &state.UpdatedAt,
		&state.CreatedBy, &state.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(contactJSON, &state.Contact); err != nil {
		return nil, fmt.Errorf("contact deserialization: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &state.Items); err != nil {
		return nil, fmt.Errorf("items deserialization: %w", err)
	}
	if state.ShippingAddress, err = unmarshalNullableAddress(shippingJSON); err != nil {
		return nil, fmt.Errorf("shipping address deserialization: %w", err)
	}
	if state.BillingAddress, err = unmarshalNullableAddress(billingJSON); err != nil {
		return nil, fmt.Errorf("billing address deserialization: %w", err)
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		state.DeliveredAt = &t
	}

	for name, pair := range map[string]struct {
		dst *domain.Money
		amt decimal.Decimal
	}{
		"subtotal":        {&state.Subtotal, subtotal},
		"tax_amount":      {&state.TaxAmount, tax},
		"shipping_cost":   {&state.ShippingCost, shipping},
		"discount_amount": {&state.DiscountAmount, discount},
		"total":           {&state.Total, total},
	} {
		m, err := domain.NewMoney(pair.amt, state.Currency)
		if err != nil {
			return nil, fmt.Errorf("%s deserialization: %w", name, err)
		}
		*pair.dst = m
	}

	return domain.RehydrateOrder(state), nil
}

func marshalNullable(addr *domain.Address) ([]byte, error) {
	if addr == nil {
		return nil, nil
	}
	return json.Marshal(addr)
}

func unmarshalNullableAddress(data []byte) (*domain.Address, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var addr domain.Address
	if err := json.Unmarshal(data, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}
