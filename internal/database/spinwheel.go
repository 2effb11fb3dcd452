package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const spinWheelColumns = `id, restaurant_id, name, segments, is_active, created_at, updated_at`

func scanSpinWheel(s rowScanner) (SpinWheel, error) {
	var w SpinWheel
	err := s.Scan(&w.ID, &w.RestaurantID, &w.Name, &w.Segments, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (q *Queries) GetSpinWheelByRestaurant(ctx context.Context, restaurantID uuid.UUID) (SpinWheel, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+spinWheelColumns+` FROM spin_wheels
		WHERE restaurant_id = $1 AND is_active = true`, restaurantID)
	return scanSpinWheel(row)
}

type UpsertSpinWheelParams struct {
	RestaurantID uuid.UUID
	Name         string
	Segments     []SpinSegment
}

// UpsertSpinWheel creates or replaces the restaurant's single active wheel.
func (q *Queries) UpsertSpinWheel(ctx context.Context, arg UpsertSpinWheelParams) (SpinWheel, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO spin_wheels (restaurant_id, name, segments)
		VALUES ($1, $2, $3)
		ON CONFLICT (restaurant_id) DO UPDATE
		SET name = excluded.name, segments = excluded.segments, is_active = true, updated_at = now()
		RETURNING `+spinWheelColumns,
		arg.RestaurantID, arg.Name, arg.Segments)
	return scanSpinWheel(row)
}

const spinResultColumns = `id, restaurant_id, wheel_id, customer_id, segment_label,
	reward_type, reward_value, coupon_id, created_at`

func scanSpinResult(s rowScanner) (SpinResult, error) {
	var r SpinResult
	err := s.Scan(&r.ID, &r.RestaurantID, &r.WheelID, &r.CustomerID, &r.SegmentLabel,
		&r.RewardType, &r.RewardValue, &r.CouponID, &r.CreatedAt)
	return r, err
}

type CreateSpinResultParams struct {
	RestaurantID uuid.UUID
	WheelID      uuid.UUID
	CustomerID   uuid.UUID
	SegmentLabel string
	RewardType   string
	RewardValue  pgtype.Text
	CouponID     pgtype.UUID
}

func (q *Queries) CreateSpinResult(ctx context.Context, arg CreateSpinResultParams) (SpinResult, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO spin_results (restaurant_id, wheel_id, customer_id, segment_label,
			reward_type, reward_value, coupon_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+spinResultColumns,
		arg.RestaurantID, arg.WheelID, arg.CustomerID, arg.SegmentLabel,
		arg.RewardType, arg.RewardValue, arg.CouponID)
	return scanSpinResult(row)
}

type CountSpinsTodayParams struct {
	RestaurantID uuid.UUID
	CustomerID   uuid.UUID
}

// CountSpinsToday enforces the one-spin-per-customer-per-day rule.
func (q *Queries) CountSpinsToday(ctx context.Context, arg CountSpinsTodayParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM spin_results
		WHERE restaurant_id = $1 AND customer_id = $2
			AND created_at >= date_trunc('day', now())`,
		arg.RestaurantID, arg.CustomerID).Scan(&n)
	return n, err
}
