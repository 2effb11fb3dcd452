package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Restaurant struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	TaxRate   pgtype.Numeric
	Currency  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           uuid.UUID
	RestaurantID pgtype.UUID // null for platform admins
	Email        string
	PasswordHash string
	Name         string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Category struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  pgtype.Text
	SortOrder    int32
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VariantOption is a single option within a variant group, e.g. "Large".
// PricingType is "additive" (modifier added to base price) or "standalone"
// (modifier replaces base price).
type VariantOption struct {
	Name          string `json:"name"`
	PriceModifier string `json:"price_modifier"`
	PricingType   string `json:"pricing_type"`
}

// VariantGroup is a named set of options, e.g. "Size" -> Small/Medium/Large.
type VariantGroup struct {
	Name    string          `json:"name"`
	Options []VariantOption `json:"options"`
}

type MenuItem struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	CategoryID      uuid.UUID
	Name            string
	Description     pgtype.Text
	Price           pgtype.Numeric
	ImageUrl        pgtype.Text
	IsAvailable     bool
	PreparationTime pgtype.Int4
	SpiceLevel      pgtype.Int4
	Allergens       []string
	Dietary         []string
	Tags            []string
	Variants        []VariantGroup // jsonb
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LinkedItem is a forward consumption edge owned by an inventory item: each
// order of the linked menu item consumes Ratio units of the owning item.
// LinkedInventoryID holds a real inventory id once resolved, or a
// "pending:<menuItemID>" placeholder until the target inventory exists.
type LinkedItem struct {
	ID                string    `json:"id"`
	LinkedMenuItemID  string    `json:"linked_menu_item_id"`
	LinkedMenuItem    string    `json:"linked_menu_item_name"`
	LinkedInventoryID string    `json:"linked_inventory_id"`
	Ratio             string    `json:"ratio"`
	ReverseRatio      string    `json:"reverse_ratio,omitempty"`
	EnableReverseLink bool      `json:"enable_reverse_link"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type InventoryItem struct {
	ID                  uuid.UUID
	RestaurantID        uuid.UUID
	MenuItemID          pgtype.UUID // null for standalone items
	Name                string
	Quantity            pgtype.Numeric
	Unit                string
	CustomUnit          pgtype.Text
	MinimumThreshold    pgtype.Numeric
	ConsumptionPerOrder pgtype.Numeric
	MaxCapacity         pgtype.Numeric
	CostPerUnit         pgtype.Numeric
	Supplier            pgtype.Text
	IsTracked           bool
	AutoDeduct          bool
	LinkedItems         []LinkedItem // jsonb
	BaseInventoryID     pgtype.UUID  // set when this item is the target of another item's link
	BaseRatio           pgtype.Numeric
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type InventoryTransaction struct {
	ID               uuid.UUID
	InventoryID      uuid.UUID
	RestaurantID     uuid.UUID
	Type             string
	PreviousQuantity pgtype.Numeric
	NewQuantity      pgtype.Numeric
	QuantityChange   pgtype.Numeric // signed delta
	Reason           pgtype.Text
	Notes            pgtype.Text
	OrderID          pgtype.UUID
	CreatedBy        uuid.UUID
	CreatedAt        time.Time
}

type Customer struct {
	ID            uuid.UUID
	RestaurantID  uuid.UUID
	Name          string
	Phone         string
	Email         pgtype.Text
	LoyaltyPoints int32
	CreditBalance pgtype.Numeric
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CouponFreeItem references a menu item granted free when the coupon applies.
type CouponFreeItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int32  `json:"quantity"`
}

type Coupon struct {
	ID                uuid.UUID
	RestaurantID      uuid.UUID
	Code              string
	Type              string
	Value             pgtype.Numeric
	FreeItems         []CouponFreeItem // jsonb
	ApplicableItemIDs []uuid.UUID      // empty = applies to whole cart
	MinOrderAmount    pgtype.Numeric
	PaymentMethod     pgtype.Text // restrict to one method when set
	UsageLimit        pgtype.Int4
	UsedCount         int32
	ExpiresAt         pgtype.Timestamptz
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// VariantSelection records the option chosen per variant group on a cart line.
type VariantSelection struct {
	Group  string `json:"group"`
	Option string `json:"option"`
}

type Order struct {
	ID                 uuid.UUID
	RestaurantID       uuid.UUID
	OrderNumber        string
	CustomerID         pgtype.UUID
	Status             string
	Subtotal           pgtype.Numeric
	TaxRate            pgtype.Numeric
	CouponCode         pgtype.Text
	CouponDiscount     pgtype.Numeric
	ManualDiscount     pgtype.Numeric
	FreeItemsValue     pgtype.Numeric
	DiscountedSubtotal pgtype.Numeric
	TaxAmount          pgtype.Numeric
	TipAmount          pgtype.Numeric
	TotalAmount        pgtype.Numeric
	TotalSavings       pgtype.Numeric
	Notes              pgtype.Text
	CreatedBy          uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Variants   []VariantSelection // jsonb
	Quantity   int32
	UnitPrice  pgtype.Numeric
	LineTotal  pgtype.Numeric
}

type Payment struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	Method           pgtype.Text // null when split
	Amount           pgtype.Numeric
	AmountReceived   pgtype.Numeric
	IsSplit          bool
	SplitMethod1     pgtype.Text
	SplitAmount1     pgtype.Numeric
	SplitMethod2     pgtype.Text
	SplitAmount2     pgtype.Numeric
	IsCredit         bool
	CreditAmount     pgtype.Numeric
	CreditCustomerID pgtype.UUID
	ProcessedBy      uuid.UUID
	CreatedAt        time.Time
}

// SpinSegment is one slice of a restaurant's loyalty wheel.
type SpinSegment struct {
	Label      string `json:"label"`
	RewardType string `json:"reward_type"`
	Value      string `json:"value"`
	Weight     int32  `json:"weight"`
}

type SpinWheel struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Segments     []SpinSegment // jsonb
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SpinResult struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	WheelID      uuid.UUID
	CustomerID   uuid.UUID
	SegmentLabel string
	RewardType   string
	RewardValue  pgtype.Text
	CouponID     pgtype.UUID
	CreatedAt    time.Time
}
