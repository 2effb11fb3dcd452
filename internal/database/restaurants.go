package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const restaurantColumns = `id, name, slug, tax_rate, currency, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(s rowScanner) (Restaurant, error) {
	var r Restaurant
	err := s.Scan(&r.ID, &r.Name, &r.Slug, &r.TaxRate, &r.Currency, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateRestaurantParams struct {
	Name     string
	Slug     string
	TaxRate  pgtype.Numeric
	Currency string
}

func (q *Queries) CreateRestaurant(ctx context.Context, arg CreateRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO restaurants (name, slug, tax_rate, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING `+restaurantColumns,
		arg.Name, arg.Slug, arg.TaxRate, arg.Currency)
	return scanRestaurant(row)
}

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	return scanRestaurant(row)
}

func (q *Queries) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type UpdateRestaurantParams struct {
	ID       uuid.UUID
	Name     string
	TaxRate  pgtype.Numeric
	Currency string
	IsActive bool
}

func (q *Queries) UpdateRestaurant(ctx context.Context, arg UpdateRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE restaurants
		SET name = $2, tax_rate = $3, currency = $4, is_active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+restaurantColumns,
		arg.ID, arg.Name, arg.TaxRate, arg.Currency, arg.IsActive)
	return scanRestaurant(row)
}
