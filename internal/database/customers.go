package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, restaurant_id, name, phone, email, loyalty_points, credit_balance,
	is_active, created_at, updated_at`

func scanCustomer(s rowScanner) (Customer, error) {
	var c Customer
	err := s.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Phone, &c.Email, &c.LoyaltyPoints,
		&c.CreditBalance, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type ListCustomersByRestaurantParams struct {
	RestaurantID uuid.UUID
	Search       pgtype.Text
}

func (q *Queries) ListCustomersByRestaurant(ctx context.Context, arg ListCustomersByRestaurantParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE restaurant_id = $1 AND is_active = true
			AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')
		ORDER BY name`, arg.RestaurantID, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type GetCustomerParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetCustomer(ctx context.Context, arg GetCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true`, arg.ID, arg.RestaurantID)
	return scanCustomer(row)
}

type CreateCustomerParams struct {
	RestaurantID uuid.UUID
	Name         string
	Phone        string
	Email        pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO customers (restaurant_id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		RETURNING `+customerColumns,
		arg.RestaurantID, arg.Name, arg.Phone, arg.Email)
	return scanCustomer(row)
}

type AddCustomerCreditParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Amount       pgtype.Numeric
}

// AddCustomerCredit increases the amount a customer owes.
func (q *Queries) AddCustomerCredit(ctx context.Context, arg AddCustomerCreditParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers
		SET credit_balance = credit_balance + $3, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING `+customerColumns,
		arg.ID, arg.RestaurantID, arg.Amount)
	return scanCustomer(row)
}

type AddCustomerLoyaltyPointsParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Points       int32
}

func (q *Queries) AddCustomerLoyaltyPoints(ctx context.Context, arg AddCustomerLoyaltyPointsParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers
		SET loyalty_points = loyalty_points + $3, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING `+customerColumns,
		arg.ID, arg.RestaurantID, arg.Points)
	return scanCustomer(row)
}
