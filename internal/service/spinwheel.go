package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
)

// Errors returned by the spin wheel service.
var (
	ErrNoWheel          = errors.New("no active spin wheel")
	ErrEmptyWheel       = errors.New("wheel has no segments with positive weight")
	ErrAlreadySpunToday = errors.New("customer already spun today")
	ErrBadSegment       = errors.New("segment has invalid reward value")
)

// SpinStore defines the DB methods needed by the spin wheel service.
type SpinStore interface {
	GetSpinWheelByRestaurant(ctx context.Context, restaurantID uuid.UUID) (database.SpinWheel, error)
	UpsertSpinWheel(ctx context.Context, arg database.UpsertSpinWheelParams) (database.SpinWheel, error)
	CreateSpinResult(ctx context.Context, arg database.CreateSpinResultParams) (database.SpinResult, error)
	CountSpinsToday(ctx context.Context, arg database.CountSpinsTodayParams) (int64, error)
	GetCouponByCode(ctx context.Context, arg database.GetCouponByCodeParams) (database.Coupon, error)
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	AddCustomerLoyaltyPoints(ctx context.Context, arg database.AddCustomerLoyaltyPointsParams) (database.Customer, error)
}

// NewSpinStore creates a SpinStore from a DBTX (pool or tx).
type NewSpinStore func(db database.DBTX) SpinStore

// SpinOutcome is the landed segment and any reward applied.
type SpinOutcome struct {
	Result        database.SpinResult
	Segment       database.SpinSegment
	PointsAwarded int32
}

// SpinService runs the loyalty wheel: weighted segment selection, one spin
// per customer per day, rewards applied in the same transaction as the
// result record.
type SpinService struct {
	pool     TxBeginner
	newStore NewSpinStore
	intn     func(n int) int
}

func NewSpinService(pool TxBeginner, newStore NewSpinStore) *SpinService {
	return &SpinService{pool: pool, newStore: newStore, intn: rand.Intn}
}

// PickSegment selects a segment with probability proportional to its weight.
// Zero and negative weights never win.
func PickSegment(segments []database.SpinSegment, intn func(n int) int) (database.SpinSegment, error) {
	total := 0
	for _, seg := range segments {
		if seg.Weight > 0 {
			total += int(seg.Weight)
		}
	}
	if total == 0 {
		return database.SpinSegment{}, ErrEmptyWheel
	}

	roll := intn(total)
	for _, seg := range segments {
		if seg.Weight <= 0 {
			continue
		}
		roll -= int(seg.Weight)
		if roll < 0 {
			return seg, nil
		}
	}
	return database.SpinSegment{}, ErrEmptyWheel // unreachable
}

// Spin performs one spin for a customer.
func (s *SpinService) Spin(ctx context.Context, restaurantID, customerID uuid.UUID) (*SpinOutcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	wheel, err := store.GetSpinWheelByRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoWheel
		}
		return nil, fmt.Errorf("get wheel: %w", err)
	}

	if _, err := store.GetCustomer(ctx, database.GetCustomerParams{
		ID:           customerID,
		RestaurantID: restaurantID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	spins, err := store.CountSpinsToday(ctx, database.CountSpinsTodayParams{
		RestaurantID: restaurantID,
		CustomerID:   customerID,
	})
	if err != nil {
		return nil, fmt.Errorf("count spins: %w", err)
	}
	if spins > 0 {
		return nil, ErrAlreadySpunToday
	}

	segment, err := PickSegment(wheel.Segments, s.intn)
	if err != nil {
		return nil, err
	}

	outcome := &SpinOutcome{Segment: segment}
	var couponID pgtype.UUID
	if segment.RewardType == enum.RewardTypeCoupon {
		coupon, err := store.GetCouponByCode(ctx, database.GetCouponByCodeParams{
			RestaurantID: restaurantID,
			Code:         segment.Value,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: no active coupon %q", ErrBadSegment, segment.Value)
			}
			return nil, fmt.Errorf("resolve coupon: %w", err)
		}
		couponID = pgtype.UUID{Bytes: coupon.ID, Valid: true}
	}
	if segment.RewardType == enum.RewardTypePoints {
		points, err := strconv.ParseInt(segment.Value, 10, 32)
		if err != nil || points <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadSegment, segment.Value)
		}
		if _, err := store.AddCustomerLoyaltyPoints(ctx, database.AddCustomerLoyaltyPointsParams{
			ID:           customerID,
			RestaurantID: restaurantID,
			Points:       int32(points),
		}); err != nil {
			return nil, fmt.Errorf("award points: %w", err)
		}
		outcome.PointsAwarded = int32(points)
	}

	result, err := store.CreateSpinResult(ctx, database.CreateSpinResultParams{
		RestaurantID: restaurantID,
		WheelID:      wheel.ID,
		CustomerID:   customerID,
		SegmentLabel: segment.Label,
		RewardType:   segment.RewardType,
		RewardValue:  pgtype.Text{String: segment.Value, Valid: segment.Value != ""},
		CouponID:     couponID,
	})
	if err != nil {
		return nil, fmt.Errorf("record spin: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	outcome.Result = result
	return outcome, nil
}
