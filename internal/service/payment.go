package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies when a restaurant has no configured rate.
var DefaultTaxRate = decimal.NewFromFloat(8.5)

// TipPresets are the selectable tip percentages.
var TipPresets = []int64{10, 15, 20, 25}

// SplitTolerance is the maximum accepted gap between the split amounts and
// the final total.
var SplitTolerance = decimal.NewFromFloat(0.01)

// Errors returned by checkout validation.
var (
	ErrEmptyCart              = errors.New("order has no items")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidTipPreset       = errors.New("tip percentage is not a preset")
	ErrInvalidDiscountMode    = errors.New("invalid manual discount mode")
	ErrSplitAmountNotPositive = errors.New("both split amounts must be greater than zero")
	ErrSplitWithCredit        = errors.New("split payment cannot be combined with full credit")
	ErrCreditNeedsCustomer    = errors.New("credit requires a selected customer or a name and phone")
	ErrOverpayment            = errors.New("amount received exceeds the final total")
	ErrOrderItemNotFound      = errors.New("ordered menu item not found")
	ErrCustomerNotFound       = errors.New("customer not found")
)

// --- Pure computation ---

// ManualDiscount is an optional staff-entered discount. Percentage mode is
// computed against the original subtotal, before any coupon.
type ManualDiscount struct {
	Mode  string // enum.DiscountModePercentage or enum.DiscountModeFixed
	Value decimal.Decimal
}

// Tip is either a preset percentage of the taxed total or a custom amount.
type Tip struct {
	Percent      int64
	CustomAmount decimal.Decimal
}

// ComputePaymentInput feeds the totals pipeline. A nil TaxRate means the
// caller has no configured rate and the default applies; an explicit zero
// charges no tax.
type ComputePaymentInput struct {
	Subtotal       decimal.Decimal
	TaxRate        *decimal.Decimal
	CouponDiscount decimal.Decimal
	FreeItemsValue decimal.Decimal
	Manual         *ManualDiscount
	Tip            *Tip
}

// PaymentComputation is the fully derived set of order totals.
type PaymentComputation struct {
	OriginalSubtotal   decimal.Decimal
	OriginalTax        decimal.Decimal
	CouponDiscount     decimal.Decimal
	FreeItemsValue     decimal.Decimal
	ManualDiscount     decimal.Decimal
	TotalDiscount      decimal.Decimal
	DiscountedSubtotal decimal.Decimal
	TaxAmount          decimal.Decimal
	SubtotalWithTax    decimal.Decimal
	TipAmount          decimal.Decimal
	FinalTotal         decimal.Decimal
	TotalSavings       decimal.Decimal
}

// ComputePayment derives all order totals. The pipeline is fixed: tax on the
// original subtotal first, then coupon and manual discounts (the manual
// percentage is taken from the original subtotal, not the coupon-reduced one),
// tax recomputed on the discounted subtotal, then tip on the taxed total.
// Free-item value counts toward savings but is never subtracted.
func ComputePayment(in ComputePaymentInput) (PaymentComputation, error) {
	taxRate := DefaultTaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	hundred := decimal.NewFromInt(100)

	c := PaymentComputation{
		OriginalSubtotal: in.Subtotal,
		OriginalTax:      in.Subtotal.Mul(taxRate).Div(hundred),
		CouponDiscount:   in.CouponDiscount,
		FreeItemsValue:   in.FreeItemsValue,
	}

	if in.Manual != nil && in.Manual.Value.GreaterThan(decimal.Zero) {
		switch in.Manual.Mode {
		case enum.DiscountModePercentage:
			c.ManualDiscount = in.Subtotal.Mul(in.Manual.Value).Div(hundred)
		case enum.DiscountModeFixed:
			c.ManualDiscount = in.Manual.Value
		default:
			return PaymentComputation{}, ErrInvalidDiscountMode
		}
		if c.ManualDiscount.GreaterThan(in.Subtotal) {
			c.ManualDiscount = in.Subtotal
		}
	}

	c.TotalDiscount = c.CouponDiscount.Add(c.ManualDiscount)
	c.DiscountedSubtotal = in.Subtotal.Sub(c.TotalDiscount)
	if c.DiscountedSubtotal.IsNegative() {
		c.DiscountedSubtotal = decimal.Zero
	}

	c.TaxAmount = c.DiscountedSubtotal.Mul(taxRate).Div(hundred)
	c.SubtotalWithTax = c.DiscountedSubtotal.Add(c.TaxAmount)

	if in.Tip != nil {
		switch {
		case in.Tip.Percent > 0:
			if !isTipPreset(in.Tip.Percent) {
				return PaymentComputation{}, ErrInvalidTipPreset
			}
			c.TipAmount = c.SubtotalWithTax.Mul(decimal.NewFromInt(in.Tip.Percent)).Div(hundred)
		case in.Tip.CustomAmount.GreaterThan(decimal.Zero):
			c.TipAmount = in.Tip.CustomAmount
		}
	}

	c.FinalTotal = c.SubtotalWithTax.Add(c.TipAmount)
	c.TotalSavings = c.TotalDiscount.Add(c.FreeItemsValue)
	return c, nil
}

func isTipPreset(p int64) bool {
	for _, v := range TipPresets {
		if v == p {
			return true
		}
	}
	return false
}

// --- Split validation ---

// SplitCheck reports whether two split amounts settle the final total.
// An imbalance outside the tolerance is informational; only non-positive
// amounts block submission.
type SplitCheck struct {
	Balanced bool
	// Difference is final total minus amounts: positive means shortfall,
	// negative means overpayment.
	Difference decimal.Decimal
}

func CheckSplit(amount1, amount2, finalTotal decimal.Decimal) SplitCheck {
	diff := finalTotal.Sub(amount1.Add(amount2))
	return SplitCheck{Balanced: diff.Abs().LessThanOrEqual(SplitTolerance), Difference: diff}
}

// --- Checkout ---

// OrderLine is one cart line as submitted.
type OrderLine struct {
	MenuItemID uuid.UUID
	Quantity   int32
	Variants   []database.VariantSelection
}

// SplitPayment carries the two halves of a split settlement.
type SplitPayment struct {
	Method1 string
	Amount1 decimal.Decimal
	Method2 string
	Amount2 decimal.Decimal
}

// CreditCustomerRef identifies who carries unpaid balance: either an existing
// customer id or a name and phone for on-the-fly creation.
type CreditCustomerRef struct {
	CustomerID uuid.UUID
	Name       string
	Phone      string
}

// CheckoutRequest is the full submission payload, validated before any write.
type CheckoutRequest struct {
	RestaurantID uuid.UUID
	ActorID      uuid.UUID
	Lines        []OrderLine
	Notes        string

	CouponCode string
	Manual     *ManualDiscount
	Tip        *Tip

	Method string
	// AmountReceived below the final total creates credit for the gap; zero
	// with WholeAsCredit set books the entire total as credit.
	AmountReceived *decimal.Decimal
	WholeAsCredit  bool
	Split          *SplitPayment
	Customer       *CreditCustomerRef
}

// CheckoutResult is the committed order with its derived totals and any
// stock shortfall warnings from auto-deduction.
type CheckoutResult struct {
	Order       database.Order
	Items       []database.OrderItem
	Payment     database.Payment
	Computation PaymentComputation
	Warnings    []DeductionWarning
}

// OrderStore defines the DB methods needed by checkout.
type OrderStore interface {
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	GetNextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	IncrementCouponUsage(ctx context.Context, arg database.IncrementCouponUsageParams) (database.Coupon, error)
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	AddCustomerCredit(ctx context.Context, arg database.AddCustomerCreditParams) (database.Customer, error)
	GetCouponByCode(ctx context.Context, arg database.GetCouponByCodeParams) (database.Coupon, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CheckoutService turns a validated cart into a committed order, payment,
// inventory deductions and coupon usage, all in one transaction.
type CheckoutService struct {
	pool         TxBeginner
	newStore     NewOrderStore
	newInventory NewInventoryStore
	inventory    *InventoryService
}

func NewCheckoutService(pool TxBeginner, newStore NewOrderStore, newInventory NewInventoryStore) *CheckoutService {
	return &CheckoutService{
		pool:         pool,
		newStore:     newStore,
		newInventory: newInventory,
		inventory:    NewInventoryService(pool, newInventory),
	}
}

// ValidateRequest applies the submission gate. Imbalanced splits pass (the
// imbalance is surfaced, not blocking); non-positive split amounts and
// unresolvable credit customers do not.
func ValidateRequest(req CheckoutRequest) error {
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	if req.Split != nil && req.WholeAsCredit {
		return ErrSplitWithCredit
	}

	if req.Split != nil {
		if !enum.ValidPaymentMethod(req.Split.Method1) || !enum.ValidPaymentMethod(req.Split.Method2) {
			return ErrInvalidPaymentMethod
		}
		if req.Split.Amount1.LessThanOrEqual(decimal.Zero) || req.Split.Amount2.LessThanOrEqual(decimal.Zero) {
			return ErrSplitAmountNotPositive
		}
	} else if !enum.ValidPaymentMethod(req.Method) {
		return ErrInvalidPaymentMethod
	}

	// Partial payments only turn into credit once the total is computed, so
	// the customer check for those happens at settlement. Whole-as-credit is
	// certain up front.
	if req.WholeAsCredit && !creditCustomerResolvable(req.Customer) {
		return ErrCreditNeedsCustomer
	}

	return nil
}

func creditCustomerResolvable(ref *CreditCustomerRef) bool {
	if ref == nil {
		return false
	}
	if ref.CustomerID != uuid.Nil {
		return true
	}
	return strings.TrimSpace(ref.Name) != "" && strings.TrimSpace(ref.Phone) != ""
}

// Submit validates, prices, computes and commits the order. Order numbers are
// assigned POS-NNN per restaurant; a concurrent submission taking the same
// number retries with a fresh transaction.
func (s *CheckoutService) Submit(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	const maxAttempts = 3
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := s.submitOnce(ctx, req)
		if err == nil {
			return result, nil
		}
		if !isOrderNumberConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("order number conflict after %d attempts: %w", maxAttempts, lastErr)
}

func (s *CheckoutService) submitOnce(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Price every line server-side from the current menu.
	items := make([]database.CreateOrderItemParams, 0, len(req.Lines))
	cartLines := make([]CartLine, 0, len(req.Lines))
	deductLines := make(map[uuid.UUID]int32, len(req.Lines))
	subtotal := decimal.Zero
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("menu item %s: quantity must be positive", line.MenuItemID)
		}
		menuItem, err := store.GetMenuItem(ctx, database.GetMenuItemParams{
			ID:           line.MenuItemID,
			RestaurantID: req.RestaurantID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrOrderItemNotFound
			}
			return nil, fmt.Errorf("get menu item: %w", err)
		}

		unitPrice, err := PriceForSelection(menuItem, line.Variants)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", menuItem.Name, err)
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt32(line.Quantity))
		subtotal = subtotal.Add(lineTotal)

		items = append(items, database.CreateOrderItemParams{
			MenuItemID: line.MenuItemID,
			Name:       menuItem.Name,
			Variants:   line.Variants,
			Quantity:   line.Quantity,
			UnitPrice:  decimalToNumeric(unitPrice),
			LineTotal:  decimalToNumeric(lineTotal),
		})
		cartLines = append(cartLines, CartLine{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			LineTotal:  lineTotal,
		})
		deductLines[line.MenuItemID] += line.Quantity
	}

	restaurant, err := store.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	taxRate := DefaultTaxRate
	if restaurant.TaxRate.Valid {
		taxRate = numericToDecimal(restaurant.TaxRate)
	}

	// Coupon, if any, evaluated against the priced cart.
	couponDiscount := decimal.Zero
	freeItemsValue := decimal.Zero
	var coupon *database.Coupon
	if req.CouponCode != "" {
		method := req.Method
		if req.Split != nil {
			method = ""
		}
		couponSvc := &CouponService{store: store, now: timeNow}
		outcome, err := couponSvc.Validate(ctx, req.RestaurantID, req.CouponCode, cartLines, method)
		if err != nil {
			return nil, err
		}
		couponDiscount = outcome.Discount
		freeItemsValue = outcome.FreeItemsValue
		coupon = &outcome.Coupon
	}

	comp, err := ComputePayment(ComputePaymentInput{
		Subtotal:       subtotal,
		TaxRate:        &taxRate,
		CouponDiscount: couponDiscount,
		FreeItemsValue: freeItemsValue,
		Manual:         req.Manual,
		Tip:            req.Tip,
	})
	if err != nil {
		return nil, err
	}

	// Settlement: derive credit from the received amount.
	payment := database.CreatePaymentParams{
		Amount:      decimalToNumeric(comp.FinalTotal),
		ProcessedBy: req.ActorID,
	}
	creditAmount := decimal.Zero
	switch {
	case req.Split != nil:
		payment.IsSplit = true
		payment.SplitMethod1 = pgtype.Text{String: req.Split.Method1, Valid: true}
		payment.SplitAmount1 = decimalToNumeric(req.Split.Amount1)
		payment.SplitMethod2 = pgtype.Text{String: req.Split.Method2, Valid: true}
		payment.SplitAmount2 = decimalToNumeric(req.Split.Amount2)
		payment.AmountReceived = decimalToNumeric(req.Split.Amount1.Add(req.Split.Amount2))
	case req.WholeAsCredit:
		payment.Method = pgtype.Text{String: req.Method, Valid: true}
		payment.AmountReceived = decimalToNumeric(decimal.Zero)
		creditAmount = comp.FinalTotal
	default:
		received := comp.FinalTotal
		if req.AmountReceived != nil {
			received = *req.AmountReceived
			if received.GreaterThan(comp.FinalTotal) {
				return nil, ErrOverpayment
			}
		}
		payment.Method = pgtype.Text{String: req.Method, Valid: true}
		payment.AmountReceived = decimalToNumeric(received)
		if received.LessThan(comp.FinalTotal) {
			creditAmount = comp.FinalTotal.Sub(received)
		}
	}

	// Credit needs someone to carry it.
	var customerID pgtype.UUID
	if creditAmount.GreaterThan(decimal.Zero) {
		if !creditCustomerResolvable(req.Customer) {
			return nil, ErrCreditNeedsCustomer
		}
		customer, err := s.resolveCustomer(ctx, store, req.RestaurantID, req.Customer)
		if err != nil {
			return nil, err
		}
		customerID = pgtype.UUID{Bytes: customer.ID, Valid: true}
		payment.IsCredit = true
		payment.CreditAmount = decimalToNumeric(creditAmount)
		payment.CreditCustomerID = customerID

		if _, err := store.AddCustomerCredit(ctx, database.AddCustomerCreditParams{
			ID:           customer.ID,
			RestaurantID: req.RestaurantID,
			Amount:       decimalToNumeric(creditAmount),
		}); err != nil {
			return nil, fmt.Errorf("add customer credit: %w", err)
		}
	} else if req.Customer != nil && req.Customer.CustomerID != uuid.Nil {
		customerID = pgtype.UUID{Bytes: req.Customer.CustomerID, Valid: true}
	}

	seq, err := store.GetNextOrderNumber(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	orderParams := database.CreateOrderParams{
		RestaurantID:       req.RestaurantID,
		OrderNumber:        fmt.Sprintf("POS-%03d", seq),
		CustomerID:         customerID,
		Status:             enum.OrderStatusPlaced,
		Subtotal:           decimalToNumeric(comp.OriginalSubtotal),
		TaxRate:            decimalToNumeric(taxRate),
		CouponDiscount:     decimalToNumeric(comp.CouponDiscount),
		ManualDiscount:     decimalToNumeric(comp.ManualDiscount),
		FreeItemsValue:     decimalToNumeric(comp.FreeItemsValue),
		DiscountedSubtotal: decimalToNumeric(comp.DiscountedSubtotal),
		TaxAmount:          decimalToNumeric(comp.TaxAmount),
		TipAmount:          decimalToNumeric(comp.TipAmount),
		TotalAmount:        decimalToNumeric(comp.FinalTotal),
		TotalSavings:       decimalToNumeric(comp.TotalSavings),
		CreatedBy:          req.ActorID,
	}
	if req.CouponCode != "" {
		orderParams.CouponCode = pgtype.Text{String: req.CouponCode, Valid: true}
	}
	if req.Notes != "" {
		orderParams.Notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	order, err := store.CreateOrder(ctx, orderParams)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created := make([]database.OrderItem, 0, len(items))
	for i := range items {
		items[i].OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, items[i])
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}

	payment.OrderID = order.ID
	pay, err := store.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if coupon != nil {
		if _, err := store.IncrementCouponUsage(ctx, database.IncrementCouponUsageParams{
			ID:           coupon.ID,
			RestaurantID: req.RestaurantID,
		}); err != nil {
			return nil, fmt.Errorf("increment coupon usage: %w", err)
		}
	}

	warnings, err := s.inventory.DeductForOrder(ctx, s.newInventory(tx), req.RestaurantID, order.ID, req.ActorID, deductLines)
	if err != nil {
		return nil, fmt.Errorf("deduct inventory: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{
		Order:       order,
		Items:       created,
		Payment:     pay,
		Computation: comp,
		Warnings:    warnings,
	}, nil
}

func (s *CheckoutService) resolveCustomer(ctx context.Context, store OrderStore, restaurantID uuid.UUID, ref *CreditCustomerRef) (database.Customer, error) {
	if ref.CustomerID != uuid.Nil {
		customer, err := store.GetCustomer(ctx, database.GetCustomerParams{
			ID:           ref.CustomerID,
			RestaurantID: restaurantID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.Customer{}, ErrCustomerNotFound
			}
			return database.Customer{}, fmt.Errorf("get customer: %w", err)
		}
		return customer, nil
	}

	customer, err := store.CreateCustomer(ctx, database.CreateCustomerParams{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(ref.Name),
		Phone:        strings.TrimSpace(ref.Phone),
	})
	if err != nil {
		// Any failure here aborts the whole submission; credit cannot be
		// booked without a customer record.
		return database.Customer{}, fmt.Errorf("create credit customer: %w", err)
	}
	return customer, nil
}

// PriceForSelection resolves the unit price of a menu item given its selected
// variant options. A standalone option replaces the base price; additive
// modifiers stack on top of whichever base is in effect.
func PriceForSelection(item database.MenuItem, selections []database.VariantSelection) (decimal.Decimal, error) {
	base := numericToDecimal(item.Price)
	additive := decimal.Zero

	for _, sel := range selections {
		group, ok := findVariantGroup(item.Variants, sel.Group)
		if !ok {
			return decimal.Zero, fmt.Errorf("unknown variant group %q", sel.Group)
		}
		opt, ok := findVariantOption(group, sel.Option)
		if !ok {
			return decimal.Zero, fmt.Errorf("unknown option %q in group %q", sel.Option, sel.Group)
		}

		mod, err := decimal.NewFromString(opt.PriceModifier)
		if err != nil {
			return decimal.Zero, fmt.Errorf("option %q: bad price modifier %q", opt.Name, opt.PriceModifier)
		}
		if opt.PricingType == enum.PricingTypeStandalone {
			base = mod
		} else {
			additive = additive.Add(mod)
		}
	}

	return base.Add(additive), nil
}

func findVariantGroup(groups []database.VariantGroup, name string) (database.VariantGroup, bool) {
	for _, g := range groups {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return database.VariantGroup{}, false
}

func findVariantOption(group database.VariantGroup, name string) (database.VariantOption, bool) {
	for _, o := range group.Options {
		if strings.EqualFold(o.Name, name) {
			return o, true
		}
	}
	return database.VariantOption{}, false
}

func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" &&
		strings.Contains(pgErr.ConstraintName, "order_number")
}
