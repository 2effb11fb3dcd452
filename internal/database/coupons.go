package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const couponColumns = `id, restaurant_id, code, type, value, free_items, applicable_item_ids,
	min_order_amount, payment_method, usage_limit, used_count, expires_at,
	is_active, created_at, updated_at`

func scanCoupon(s rowScanner) (Coupon, error) {
	var c Coupon
	err := s.Scan(&c.ID, &c.RestaurantID, &c.Code, &c.Type, &c.Value, &c.FreeItems,
		&c.ApplicableItemIDs, &c.MinOrderAmount, &c.PaymentMethod, &c.UsageLimit,
		&c.UsedCount, &c.ExpiresAt, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) ListCouponsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Coupon, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE restaurant_id = $1 AND is_active = true
		ORDER BY code`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type GetCouponByCodeParams struct {
	RestaurantID uuid.UUID
	Code         string
}

func (q *Queries) GetCouponByCode(ctx context.Context, arg GetCouponByCodeParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE restaurant_id = $1 AND upper(code) = upper($2) AND is_active = true`,
		arg.RestaurantID, arg.Code)
	return scanCoupon(row)
}

type CreateCouponParams struct {
	RestaurantID      uuid.UUID
	Code              string
	Type              string
	Value             pgtype.Numeric
	FreeItems         []CouponFreeItem
	ApplicableItemIDs []uuid.UUID
	MinOrderAmount    pgtype.Numeric
	PaymentMethod     pgtype.Text
	UsageLimit        pgtype.Int4
	ExpiresAt         pgtype.Timestamptz
}

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO coupons (restaurant_id, code, type, value, free_items, applicable_item_ids,
			min_order_amount, payment_method, usage_limit, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+couponColumns,
		arg.RestaurantID, arg.Code, arg.Type, arg.Value, arg.FreeItems, arg.ApplicableItemIDs,
		arg.MinOrderAmount, arg.PaymentMethod, arg.UsageLimit, arg.ExpiresAt)
	return scanCoupon(row)
}

type UpdateCouponParams struct {
	ID                uuid.UUID
	RestaurantID      uuid.UUID
	Code              string
	Type              string
	Value             pgtype.Numeric
	FreeItems         []CouponFreeItem
	ApplicableItemIDs []uuid.UUID
	MinOrderAmount    pgtype.Numeric
	PaymentMethod     pgtype.Text
	UsageLimit        pgtype.Int4
	ExpiresAt         pgtype.Timestamptz
}

func (q *Queries) UpdateCoupon(ctx context.Context, arg UpdateCouponParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE coupons
		SET code = $3, type = $4, value = $5, free_items = $6, applicable_item_ids = $7,
			min_order_amount = $8, payment_method = $9, usage_limit = $10, expires_at = $11,
			updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING `+couponColumns,
		arg.ID, arg.RestaurantID, arg.Code, arg.Type, arg.Value, arg.FreeItems,
		arg.ApplicableItemIDs, arg.MinOrderAmount, arg.PaymentMethod, arg.UsageLimit, arg.ExpiresAt)
	return scanCoupon(row)
}

type SoftDeleteCouponParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) SoftDeleteCoupon(ctx context.Context, arg SoftDeleteCouponParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `
		UPDATE coupons SET is_active = false, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING id`, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}

type IncrementCouponUsageParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) IncrementCouponUsage(ctx context.Context, arg IncrementCouponUsageParams) (Coupon, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE coupons SET used_count = used_count + 1, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING `+couponColumns,
		arg.ID, arg.RestaurantID)
	return scanCoupon(row)
}
