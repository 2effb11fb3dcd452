package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPlaced    = "PLACED"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	AdjustmentTypeRestock          = "restock"
	AdjustmentTypeOrderDeduction   = "order_deduction"
	AdjustmentTypeManualAdjustment = "manual_adjustment"
	AdjustmentTypeWaste            = "waste"
	AdjustmentTypeReturn           = "return"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	StockStatusNotTracked = "Not Tracked"
	StockStatusOutOfStock = "Out of Stock"
	StockStatusLowStock   = "Low Stock"
	StockStatusInStock    = "In Stock"
)

const (
	UnitPieces   = "pieces"
	UnitMl       = "ml"
	UnitLiters   = "liters"
	UnitGrams    = "grams"
	UnitKg       = "kg"
	UnitCups     = "cups"
	UnitPortions = "portions"
	UnitBottles  = "bottles"
	UnitCans     = "cans"
	UnitCustom   = "custom"
)

const (
	PaymentMethodCash = "cash"
	PaymentMethodUPI  = "upi"
	PaymentMethodBank = "bank"
)

const (
	DiscountModePercentage = "percentage"
	DiscountModeFixed      = "fixed"
)

const (
	CouponTypePercentage  = "percentage"
	CouponTypeFixedAmount = "fixed_amount"
	CouponTypeFreeItems   = "free_items"
)

const (
	PricingTypeAdditive   = "additive"
	PricingTypeStandalone = "standalone"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleStaff   = "STAFF"
)

const (
	RewardTypePoints = "points"
	RewardTypeCoupon = "coupon"
	RewardTypeNone   = "none"
)

// ValidUnit reports whether u is one of the supported inventory units.
func ValidUnit(u string) bool {
	switch u {
	case UnitPieces, UnitMl, UnitLiters, UnitGrams, UnitKg,
		UnitCups, UnitPortions, UnitBottles, UnitCans, UnitCustom:
		return true
	}
	return false
}

// ValidAdjustmentType reports whether t is a recognized adjustment type.
func ValidAdjustmentType(t string) bool {
	switch t {
	case AdjustmentTypeRestock, AdjustmentTypeOrderDeduction,
		AdjustmentTypeManualAdjustment, AdjustmentTypeWaste, AdjustmentTypeReturn:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodBank:
		return true
	}
	return false
}
