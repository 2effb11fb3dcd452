package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by coupon validation.
var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponInactive      = errors.New("coupon is not active")
	ErrCouponExpired       = errors.New("coupon has expired")
	ErrCouponExhausted     = errors.New("coupon usage limit reached")
	ErrCouponMinOrder      = errors.New("order total below coupon minimum")
	ErrCouponWrongMethod   = errors.New("coupon restricted to another payment method")
	ErrCouponNotApplicable = errors.New("coupon does not apply to any ordered item")
)

// CouponStore defines the DB methods needed by the coupon service.
type CouponStore interface {
	GetCouponByCode(ctx context.Context, arg database.GetCouponByCodeParams) (database.Coupon, error)
}

// CartLine is one order line as seen by coupon evaluation.
type CartLine struct {
	MenuItemID uuid.UUID
	Quantity   int32
	LineTotal  decimal.Decimal
}

// CouponOutcome is the monetary effect of a validated coupon on a cart.
type CouponOutcome struct {
	Coupon database.Coupon
	// Discount is the amount subtracted from the subtotal (zero for
	// free-item coupons).
	Discount decimal.Decimal
	// FreeItemsValue is the list value of granted free items; it is reported
	// for savings display but never subtracted from the subtotal.
	FreeItemsValue decimal.Decimal
}

var timeNow = time.Now

// CouponService validates coupon codes against a cart.
type CouponService struct {
	store CouponStore
	now   func() time.Time
}

func NewCouponService(store CouponStore) *CouponService {
	return &CouponService{store: store, now: timeNow}
}

// Validate checks a code against the cart and payment method and returns its
// monetary effect. Percentage and fixed coupons with an item restriction apply
// only to the restricted portion of the subtotal; fixed discounts never exceed
// the portion they apply to.
func (s *CouponService) Validate(ctx context.Context, restaurantID uuid.UUID, code string, lines []CartLine, paymentMethod string) (*CouponOutcome, error) {
	coupon, err := s.store.GetCouponByCode(ctx, database.GetCouponByCodeParams{
		RestaurantID: restaurantID,
		Code:         code,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}

	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}
	if coupon.ExpiresAt.Valid && s.now().After(coupon.ExpiresAt.Time) {
		return nil, ErrCouponExpired
	}
	if coupon.UsageLimit.Valid && coupon.UsedCount >= coupon.UsageLimit.Int32 {
		return nil, ErrCouponExhausted
	}
	if coupon.PaymentMethod.Valid && paymentMethod != "" && coupon.PaymentMethod.String != paymentMethod {
		return nil, ErrCouponWrongMethod
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}

	minOrder := numericToDecimal(coupon.MinOrderAmount)
	if minOrder.GreaterThan(decimal.Zero) && subtotal.LessThan(minOrder) {
		return nil, ErrCouponMinOrder
	}

	// The applicable portion is the whole subtotal unless the coupon names
	// specific menu items.
	applicable := subtotal
	if len(coupon.ApplicableItemIDs) > 0 {
		restricted := make(map[uuid.UUID]bool, len(coupon.ApplicableItemIDs))
		for _, id := range coupon.ApplicableItemIDs {
			restricted[id] = true
		}
		applicable = decimal.Zero
		for _, l := range lines {
			if restricted[l.MenuItemID] {
				applicable = applicable.Add(l.LineTotal)
			}
		}
		if applicable.IsZero() {
			return nil, ErrCouponNotApplicable
		}
	}

	outcome := &CouponOutcome{Coupon: coupon}

	switch coupon.Type {
	case enum.CouponTypePercentage:
		pct := numericToDecimal(coupon.Value)
		outcome.Discount = applicable.Mul(pct).Div(decimal.NewFromInt(100))
	case enum.CouponTypeFixedAmount:
		amount := numericToDecimal(coupon.Value)
		if amount.GreaterThan(applicable) {
			amount = applicable
		}
		outcome.Discount = amount
	case enum.CouponTypeFreeItems:
		for _, fi := range coupon.FreeItems {
			price, err := decimal.NewFromString(fi.Price)
			if err != nil {
				continue
			}
			outcome.FreeItemsValue = outcome.FreeItemsValue.Add(
				price.Mul(decimal.NewFromInt32(fi.Quantity)))
		}
	default:
		return nil, fmt.Errorf("unknown coupon type %q", coupon.Type)
	}

	return outcome, nil
}
