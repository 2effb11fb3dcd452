package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// PendingLinkPrefix marks a linked-item inventory id that has not been
// resolved to a real inventory record yet.
const PendingLinkPrefix = "pending:"

// Errors returned by the inventory service.
var (
	ErrInvalidAdjustmentType = errors.New("invalid adjustment type")
	ErrNegativeAmount        = errors.New("amount must be >= 0")
	ErrNegativeQuantity      = errors.New("resulting quantity would be negative")
	ErrItemNotFound          = errors.New("inventory item not found")
	ErrMenuItemNotFound      = errors.New("linked menu item not found")
	ErrInvalidRatio          = errors.New("ratio must be > 0")
	ErrInvalidReverseRatio   = errors.New("reverse ratio must be > 0 when reverse link enabled")
	ErrTransactionsExist     = errors.New("item already has transactions")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InventoryStore defines the DB methods needed by the inventory service.
// Satisfied by *database.Queries (and its WithTx variant).
type InventoryStore interface {
	GetInventoryItem(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	GetInventoryItemForUpdate(ctx context.Context, arg database.GetInventoryItemParams) (database.InventoryItem, error)
	GetInventoryByMenuItem(ctx context.Context, arg database.GetInventoryByMenuItemParams) (database.InventoryItem, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	ListInventoryByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.InventoryItem, error)
	ListInventoryLinkingMenuItem(ctx context.Context, arg database.ListInventoryLinkingMenuItemParams) ([]database.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error)
	SetInventoryQuantity(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryItem, error)
	SetInventoryLinks(ctx context.Context, arg database.SetInventoryLinksParams) (database.InventoryItem, error)
	CreateInventoryTransaction(ctx context.Context, arg database.CreateInventoryTransactionParams) (database.InventoryTransaction, error)
	CountInventoryTransactions(ctx context.Context, inventoryID uuid.UUID) (int64, error)
}

// NewInventoryStore creates an InventoryStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryStore

// InventoryService implements adjustment and linking business rules.
type InventoryService struct {
	pool     TxBeginner
	newStore NewInventoryStore
}

func NewInventoryService(pool TxBeginner, newStore NewInventoryStore) *InventoryService {
	return &InventoryService{pool: pool, newStore: newStore}
}

// --- Stock status ---

// StockStatus classifies an item's stock level. Quantity exactly equal to the
// threshold is Low Stock, not In Stock.
func StockStatus(isTracked bool, quantity, minimumThreshold decimal.Decimal) string {
	switch {
	case !isTracked:
		return enum.StockStatusNotTracked
	case quantity.IsZero():
		return enum.StockStatusOutOfStock
	case quantity.LessThanOrEqual(minimumThreshold):
		return enum.StockStatusLowStock
	default:
		return enum.StockStatusInStock
	}
}

// --- Adjustments ---

// ComputeAdjustment derives the new quantity for an adjustment. Restock and
// return add the entered amount, waste subtracts it, manual_adjustment and
// order_deduction treat it as absolute and subtractive respectively. A result
// below zero is rejected outright, never clamped.
func ComputeAdjustment(adjType string, current, amount decimal.Decimal) (newQty, delta decimal.Decimal, err error) {
	if amount.IsNegative() {
		return decimal.Zero, decimal.Zero, ErrNegativeAmount
	}

	switch adjType {
	case enum.AdjustmentTypeRestock, enum.AdjustmentTypeReturn:
		newQty = current.Add(amount)
	case enum.AdjustmentTypeWaste, enum.AdjustmentTypeOrderDeduction:
		newQty = current.Sub(amount)
	case enum.AdjustmentTypeManualAdjustment:
		newQty = amount
	default:
		return decimal.Zero, decimal.Zero, ErrInvalidAdjustmentType
	}

	if newQty.IsNegative() {
		return decimal.Zero, decimal.Zero, ErrNegativeQuantity
	}
	return newQty, newQty.Sub(current), nil
}

// AdjustmentRequest is the validated input for a quantity adjustment.
type AdjustmentRequest struct {
	InventoryID  uuid.UUID
	RestaurantID uuid.UUID
	Type         string
	Amount       decimal.Decimal
	Reason       string
	Notes        string
	ActorID      uuid.UUID
}

// AdjustmentResult is the updated item plus the transaction it produced.
type AdjustmentResult struct {
	Item        database.InventoryItem
	Transaction database.InventoryTransaction
	// WentLow is true when this adjustment crossed from above the threshold
	// to at-or-below it; callers use it to emit stock alerts.
	WentLow bool
}

// Adjust applies one quantity adjustment atomically: the row is locked, the new
// quantity computed and validated, and exactly one transaction record written.
func (s *InventoryService) Adjust(ctx context.Context, req AdjustmentRequest) (*AdjustmentResult, error) {
	if !enum.ValidAdjustmentType(req.Type) {
		return nil, ErrInvalidAdjustmentType
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetInventoryItemForUpdate(ctx, database.GetInventoryItemParams{
		ID:           req.InventoryID,
		RestaurantID: req.RestaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}

	current := numericToDecimal(item.Quantity)
	newQty, delta, err := ComputeAdjustment(req.Type, current, req.Amount)
	if err != nil {
		return nil, err
	}

	updated, err := store.SetInventoryQuantity(ctx, database.SetInventoryQuantityParams{
		ID:           req.InventoryID,
		RestaurantID: req.RestaurantID,
		Quantity:     decimalToNumeric(newQty),
	})
	if err != nil {
		return nil, fmt.Errorf("set quantity: %w", err)
	}

	reason := pgtype.Text{}
	if req.Reason != "" {
		reason = pgtype.Text{String: req.Reason, Valid: true}
	}
	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	txn, err := store.CreateInventoryTransaction(ctx, database.CreateInventoryTransactionParams{
		InventoryID:      req.InventoryID,
		RestaurantID:     req.RestaurantID,
		Type:             req.Type,
		PreviousQuantity: decimalToNumeric(current),
		NewQuantity:      decimalToNumeric(newQty),
		QuantityChange:   decimalToNumeric(delta),
		Reason:           reason,
		Notes:            notes,
		CreatedBy:        req.ActorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	threshold := numericToDecimal(item.MinimumThreshold)
	wentLow := item.IsTracked &&
		current.GreaterThan(threshold) &&
		newQty.LessThanOrEqual(threshold)

	return &AdjustmentResult{Item: updated, Transaction: txn, WentLow: wentLow}, nil
}

// CreateInitialTransaction records the opening balance for an item created
// before transaction tracking existed. Refused when history already exists.
func (s *InventoryService) CreateInitialTransaction(ctx context.Context, inventoryID, restaurantID, actorID uuid.UUID) (database.InventoryTransaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.InventoryTransaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	n, err := store.CountInventoryTransactions(ctx, inventoryID)
	if err != nil {
		return database.InventoryTransaction{}, fmt.Errorf("count transactions: %w", err)
	}
	if n > 0 {
		return database.InventoryTransaction{}, ErrTransactionsExist
	}

	item, err := store.GetInventoryItem(ctx, database.GetInventoryItemParams{
		ID:           inventoryID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.InventoryTransaction{}, ErrItemNotFound
		}
		return database.InventoryTransaction{}, fmt.Errorf("get inventory item: %w", err)
	}

	qty := numericToDecimal(item.Quantity)
	txn, err := store.CreateInventoryTransaction(ctx, database.CreateInventoryTransactionParams{
		InventoryID:      inventoryID,
		RestaurantID:     restaurantID,
		Type:             enum.AdjustmentTypeManualAdjustment,
		PreviousQuantity: decimalToNumeric(decimal.Zero),
		NewQuantity:      decimalToNumeric(qty),
		QuantityChange:   decimalToNumeric(qty),
		Reason:           pgtype.Text{String: "initial balance", Valid: true},
		CreatedBy:        actorID,
	})
	if err != nil {
		return database.InventoryTransaction{}, fmt.Errorf("create transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.InventoryTransaction{}, fmt.Errorf("commit tx: %w", err)
	}
	return txn, nil
}

// --- Linking resolution ---

// LinkRequest is one proposed link from a base inventory item to a menu item.
type LinkRequest struct {
	LinkedMenuItemID  uuid.UUID
	Ratio             decimal.Decimal
	ReverseRatio      decimal.Decimal
	EnableReverseLink bool
	// InitialQuantity seeds inventory created for "new item" links; zero
	// otherwise.
	InitialQuantity decimal.Decimal
}

// ResolveResult reports the outcome of a resolution pass.
type ResolveResult struct {
	Base     database.InventoryItem
	Created  int
	Patched  int
	Failures []string
}

// ResolveLinkedItems ensures every proposed link has a backing inventory
// record and wires ratios and reverse-link metadata consistently. The
// operation is best-effort per link: a failed creation leaves that link's
// placeholder id in place and is reported in Failures. Re-running against an
// already-resolved set is a no-op.
func (s *InventoryService) ResolveLinkedItems(ctx context.Context, store InventoryStore, baseID, restaurantID uuid.UUID, links []LinkRequest) (*ResolveResult, error) {
	base, err := store.GetInventoryItem(ctx, database.GetInventoryItemParams{
		ID:           baseID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get base item: %w", err)
	}

	result := &ResolveResult{}
	now := time.Now()
	resolved := make([]database.LinkedItem, 0, len(links))

	for i, link := range links {
		if link.Ratio.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("link[%d]: %w", i, ErrInvalidRatio)
		}
		if link.EnableReverseLink && link.ReverseRatio.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("link[%d]: %w", i, ErrInvalidReverseRatio)
		}

		menuItem, err := store.GetMenuItem(ctx, database.GetMenuItemParams{
			ID:           link.LinkedMenuItemID,
			RestaurantID: restaurantID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("link[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("link[%d]: get menu item: %w", i, err)
		}

		entry := database.LinkedItem{
			ID:                uuid.NewString(),
			LinkedMenuItemID:  link.LinkedMenuItemID.String(),
			LinkedMenuItem:    menuItem.Name,
			LinkedInventoryID: PendingLinkPrefix + link.LinkedMenuItemID.String(),
			Ratio:             link.Ratio.String(),
			EnableReverseLink: link.EnableReverseLink,
			IsActive:          true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if link.EnableReverseLink {
			entry.ReverseRatio = link.ReverseRatio.String()
		}

		target, err := store.GetInventoryByMenuItem(ctx, database.GetInventoryByMenuItemParams{
			MenuItemID:   pgtype.UUID{Bytes: link.LinkedMenuItemID, Valid: true},
			RestaurantID: restaurantID,
		})
		switch {
		case err == nil:
			// Existing inventory: record its id, force auto-deduct, and set the
			// reverse link when the target has none yet.
			entry.LinkedInventoryID = target.ID.String()

			baseRef := target.BaseInventoryID
			baseRatio := target.BaseRatio
			if link.EnableReverseLink && !target.BaseInventoryID.Valid {
				baseRef = pgtype.UUID{Bytes: baseID, Valid: true}
				baseRatio = decimalToNumeric(link.ReverseRatio)
			}

			if !target.AutoDeduct || (link.EnableReverseLink && !target.BaseInventoryID.Valid) {
				if _, err := store.SetInventoryLinks(ctx, database.SetInventoryLinksParams{
					ID:              target.ID,
					RestaurantID:    restaurantID,
					AutoDeduct:      true,
					LinkedItems:     target.LinkedItems,
					BaseInventoryID: baseRef,
					BaseRatio:       baseRatio,
				}); err != nil {
					result.Failures = append(result.Failures,
						fmt.Sprintf("%s: patch failed: %v", menuItem.Name, err))
					entry.LinkedInventoryID = PendingLinkPrefix + link.LinkedMenuItemID.String()
					resolved = append(resolved, entry)
					continue
				}
				result.Patched++
			}

		case errors.Is(err, pgx.ErrNoRows):
			// No inventory yet: create one for the linked menu item.
			params := database.CreateInventoryItemParams{
				RestaurantID:        restaurantID,
				MenuItemID:          pgtype.UUID{Bytes: link.LinkedMenuItemID, Valid: true},
				Name:                menuItem.Name,
				Quantity:            decimalToNumeric(link.InitialQuantity),
				Unit:                enum.UnitPieces,
				MinimumThreshold:    decimalToNumeric(decimal.Zero),
				ConsumptionPerOrder: decimalToNumeric(decimal.NewFromInt(1)),
				IsTracked:           true,
				AutoDeduct:          true,
			}
			if link.EnableReverseLink {
				params.BaseInventoryID = pgtype.UUID{Bytes: baseID, Valid: true}
				params.BaseRatio = decimalToNumeric(link.ReverseRatio)
			}

			created, err := store.CreateInventoryItem(ctx, params)
			if err != nil {
				result.Failures = append(result.Failures,
					fmt.Sprintf("%s: create failed: %v", menuItem.Name, err))
				resolved = append(resolved, entry)
				continue
			}
			entry.LinkedInventoryID = created.ID.String()
			result.Created++

		default:
			result.Failures = append(result.Failures,
				fmt.Sprintf("%s: lookup failed: %v", menuItem.Name, err))
			resolved = append(resolved, entry)
			continue
		}

		resolved = append(resolved, entry)
	}

	updatedBase, err := store.SetInventoryLinks(ctx, database.SetInventoryLinksParams{
		ID:              baseID,
		RestaurantID:    restaurantID,
		AutoDeduct:      base.AutoDeduct,
		LinkedItems:     resolved,
		BaseInventoryID: base.BaseInventoryID,
		BaseRatio:       base.BaseRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("update base links: %w", err)
	}

	result.Base = updatedBase
	return result, nil
}

// RepairLinks scans all inventory for a restaurant and re-derives link
// consistency: placeholder ids are resolved where the target inventory now
// exists, link targets missing auto-deduct or a reverse reference are
// patched. Returns the number of items fixed.
func (s *InventoryService) RepairLinks(ctx context.Context, store InventoryStore, restaurantID uuid.UUID) (int, error) {
	items, err := store.ListInventoryByRestaurant(ctx, restaurantID)
	if err != nil {
		return 0, fmt.Errorf("list inventory: %w", err)
	}

	// Index by menu item id for placeholder resolution.
	byMenuItem := make(map[string]database.InventoryItem)
	for _, it := range items {
		if it.MenuItemID.Valid {
			byMenuItem[uuid.UUID(it.MenuItemID.Bytes).String()] = it
		}
	}

	fixed := 0
	for _, it := range items {
		if len(it.LinkedItems) == 0 {
			continue
		}

		changed := false
		links := make([]database.LinkedItem, len(it.LinkedItems))
		copy(links, it.LinkedItems)

		for i := range links {
			link := &links[i]

			// Resolve stale placeholders.
			if strings.HasPrefix(link.LinkedInventoryID, PendingLinkPrefix) {
				if target, ok := byMenuItem[link.LinkedMenuItemID]; ok {
					link.LinkedInventoryID = target.ID.String()
					link.UpdatedAt = time.Now()
					changed = true
				}
			}

			// Re-assert auto-deduct and reverse metadata on resolved targets.
			target, ok := byMenuItem[link.LinkedMenuItemID]
			if !ok {
				continue
			}
			needsPatch := !target.AutoDeduct
			baseRef := target.BaseInventoryID
			baseRatio := target.BaseRatio
			if link.EnableReverseLink && !target.BaseInventoryID.Valid {
				baseRef = pgtype.UUID{Bytes: it.ID, Valid: true}
				if r, err := decimal.NewFromString(link.ReverseRatio); err == nil && r.GreaterThan(decimal.Zero) {
					baseRatio = decimalToNumeric(r)
					needsPatch = true
				}
			}
			if needsPatch {
				if _, err := store.SetInventoryLinks(ctx, database.SetInventoryLinksParams{
					ID:              target.ID,
					RestaurantID:    restaurantID,
					AutoDeduct:      true,
					LinkedItems:     target.LinkedItems,
					BaseInventoryID: baseRef,
					BaseRatio:       baseRatio,
				}); err != nil {
					return fixed, fmt.Errorf("patch %s: %w", target.Name, err)
				}
				target.AutoDeduct = true
				target.BaseInventoryID = baseRef
				target.BaseRatio = baseRatio
				byMenuItem[link.LinkedMenuItemID] = target
				fixed++
			}
		}

		if changed {
			if _, err := store.SetInventoryLinks(ctx, database.SetInventoryLinksParams{
				ID:              it.ID,
				RestaurantID:    restaurantID,
				AutoDeduct:      it.AutoDeduct,
				LinkedItems:     links,
				BaseInventoryID: it.BaseInventoryID,
				BaseRatio:       it.BaseRatio,
			}); err != nil {
				return fixed, fmt.Errorf("update %s: %w", it.Name, err)
			}
			fixed++
		}
	}

	return fixed, nil
}

// --- Order deduction ---

// DeductionWarning reports inventory that could not be fully deducted for an
// order line; the sale is never blocked by a stock shortfall.
type DeductionWarning struct {
	InventoryID uuid.UUID
	Name        string
	Requested   decimal.Decimal
	Deducted    decimal.Decimal
}

// DeductForOrder walks the inventory backing each ordered menu item and, for
// tracked auto-deduct items, subtracts consumptionPerOrder x quantity, then
// propagates through the link edge: the reverse view (baseInventoryId x
// baseRatio) when the consuming record carries it, and the forward view
// (holders whose linkedItems list the sold menu item) otherwise, so a link
// deducts its base whichever side of the edge is populated. Quantities clamp
// at zero with a warning rather than failing the sale. Must be called inside
// the order transaction so deductions commit with the order.
func (s *InventoryService) DeductForOrder(ctx context.Context, store InventoryStore, restaurantID, orderID, actorID uuid.UUID, lines map[uuid.UUID]int32) ([]DeductionWarning, error) {
	var warnings []DeductionWarning

	for menuItemID, qty := range lines {
		// baseDeducted tracks the holder already reached through the reverse
		// link so the forward scan does not deduct it twice.
		var baseDeducted uuid.UUID

		item, err := store.GetInventoryByMenuItem(ctx, database.GetInventoryByMenuItemParams{
			MenuItemID:   pgtype.UUID{Bytes: menuItemID, Valid: true},
			RestaurantID: restaurantID,
		})
		switch {
		case err == nil:
			if item.IsTracked && item.AutoDeduct {
				consume := numericToDecimal(item.ConsumptionPerOrder).Mul(decimal.NewFromInt32(qty))
				w, err := s.deductClamped(ctx, store, item, consume, restaurantID, orderID, actorID)
				if err != nil {
					return warnings, err
				}
				if w != nil {
					warnings = append(warnings, *w)
				}

				if item.BaseInventoryID.Valid {
					base, err := store.GetInventoryItemForUpdate(ctx, database.GetInventoryItemParams{
						ID:           item.BaseInventoryID.Bytes,
						RestaurantID: restaurantID,
					})
					if err != nil && !errors.Is(err, pgx.ErrNoRows) {
						return warnings, fmt.Errorf("lookup base inventory: %w", err)
					}
					if err == nil {
						baseConsume := numericToDecimal(item.BaseRatio).Mul(decimal.NewFromInt32(qty))
						w, err := s.deductClamped(ctx, store, base, baseConsume, restaurantID, orderID, actorID)
						if err != nil {
							return warnings, err
						}
						if w != nil {
							warnings = append(warnings, *w)
						}
						baseDeducted = base.ID
					}
				}
			}
		case errors.Is(err, pgx.ErrNoRows):
			// No record of its own; forward links may still consume stock.
		default:
			return warnings, fmt.Errorf("lookup inventory: %w", err)
		}

		holders, err := store.ListInventoryLinkingMenuItem(ctx, database.ListInventoryLinkingMenuItemParams{
			RestaurantID: restaurantID,
			MenuItemID:   menuItemID,
		})
		if err != nil {
			return warnings, fmt.Errorf("lookup linked inventory: %w", err)
		}
		for _, holder := range holders {
			if holder.ID == baseDeducted {
				continue
			}
			ratio := forwardRatio(holder.LinkedItems, menuItemID)
			if ratio.LessThanOrEqual(decimal.Zero) {
				continue
			}
			w, err := s.deductClamped(ctx, store, holder, ratio.Mul(decimal.NewFromInt32(qty)), restaurantID, orderID, actorID)
			if err != nil {
				return warnings, err
			}
			if w != nil {
				warnings = append(warnings, *w)
			}
		}
	}

	return warnings, nil
}

// forwardRatio returns the active forward ratio a holder records for the
// given menu item, or zero when no usable link exists.
func forwardRatio(links []database.LinkedItem, menuItemID uuid.UUID) decimal.Decimal {
	for _, l := range links {
		if !l.IsActive || l.LinkedMenuItemID != menuItemID.String() {
			continue
		}
		r, err := decimal.NewFromString(l.Ratio)
		if err != nil {
			continue
		}
		return r
	}
	return decimal.Zero
}

func (s *InventoryService) deductClamped(ctx context.Context, store InventoryStore, item database.InventoryItem, amount decimal.Decimal, restaurantID, orderID, actorID uuid.UUID) (*DeductionWarning, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	current := numericToDecimal(item.Quantity)
	deducted := amount
	var warning *DeductionWarning
	if amount.GreaterThan(current) {
		deducted = current
		warning = &DeductionWarning{
			InventoryID: item.ID,
			Name:        item.Name,
			Requested:   amount,
			Deducted:    deducted,
		}
	}

	newQty := current.Sub(deducted)
	if _, err := store.SetInventoryQuantity(ctx, database.SetInventoryQuantityParams{
		ID:           item.ID,
		RestaurantID: restaurantID,
		Quantity:     decimalToNumeric(newQty),
	}); err != nil {
		return nil, fmt.Errorf("deduct %s: %w", item.Name, err)
	}

	if _, err := store.CreateInventoryTransaction(ctx, database.CreateInventoryTransactionParams{
		InventoryID:      item.ID,
		RestaurantID:     restaurantID,
		Type:             enum.AdjustmentTypeOrderDeduction,
		PreviousQuantity: decimalToNumeric(current),
		NewQuantity:      decimalToNumeric(newQty),
		QuantityChange:   decimalToNumeric(newQty.Sub(current)),
		OrderID:          pgtype.UUID{Bytes: orderID, Valid: true},
		CreatedBy:        actorID,
	}); err != nil {
		return nil, fmt.Errorf("record deduction for %s: %w", item.Name, err)
	}

	return warning, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}
