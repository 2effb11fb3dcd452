package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const inventoryColumns = `id, restaurant_id, menu_item_id, name, quantity, unit, custom_unit,
	minimum_threshold, consumption_per_order, max_capacity, cost_per_unit, supplier,
	is_tracked, auto_deduct, linked_items, base_inventory_id, base_ratio, created_at, updated_at`

func scanInventoryItem(s rowScanner) (InventoryItem, error) {
	var it InventoryItem
	err := s.Scan(&it.ID, &it.RestaurantID, &it.MenuItemID, &it.Name, &it.Quantity, &it.Unit,
		&it.CustomUnit, &it.MinimumThreshold, &it.ConsumptionPerOrder, &it.MaxCapacity,
		&it.CostPerUnit, &it.Supplier, &it.IsTracked, &it.AutoDeduct, &it.LinkedItems,
		&it.BaseInventoryID, &it.BaseRatio, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (q *Queries) ListInventoryByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items
		WHERE restaurant_id = $1
		ORDER BY name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type ListInventoryLinkingMenuItemParams struct {
	RestaurantID uuid.UUID
	MenuItemID   uuid.UUID
}

// ListInventoryLinkingMenuItem returns items whose linked_items list the given
// menu item, i.e. the stock that menu item consumes through forward links.
func (q *Queries) ListInventoryLinkingMenuItem(ctx context.Context, arg ListInventoryLinkingMenuItemParams) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items
		WHERE restaurant_id = $1
		  AND linked_items @> jsonb_build_array(jsonb_build_object('linked_menu_item_id', $2::text))
		ORDER BY name`, arg.RestaurantID, arg.MenuItemID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type GetInventoryItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetInventoryItem(ctx context.Context, arg GetInventoryItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items
		WHERE id = $1 AND restaurant_id = $2`, arg.ID, arg.RestaurantID)
	return scanInventoryItem(row)
}

// GetInventoryItemForUpdate locks the row so concurrent adjustments serialize.
func (q *Queries) GetInventoryItemForUpdate(ctx context.Context, arg GetInventoryItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items
		WHERE id = $1 AND restaurant_id = $2
		FOR NO KEY UPDATE`, arg.ID, arg.RestaurantID)
	return scanInventoryItem(row)
}

type GetInventoryByMenuItemParams struct {
	MenuItemID   pgtype.UUID
	RestaurantID uuid.UUID
}

// GetInventoryByMenuItem finds the inventory record backing a menu item.
// At most one exists per menu item per restaurant (partial unique index).
func (q *Queries) GetInventoryByMenuItem(ctx context.Context, arg GetInventoryByMenuItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items
		WHERE menu_item_id = $1 AND restaurant_id = $2`, arg.MenuItemID, arg.RestaurantID)
	return scanInventoryItem(row)
}

type CreateInventoryItemParams struct {
	RestaurantID        uuid.UUID
	MenuItemID          pgtype.UUID
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
	LinkedItems         []LinkedItem
	BaseInventoryID     pgtype.UUID
	BaseRatio           pgtype.Numeric
}

func (q *Queries) CreateInventoryItem(ctx context.Context, arg CreateInventoryItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO inventory_items (restaurant_id, menu_item_id, name, quantity, unit, custom_unit,
			minimum_threshold, consumption_per_order, max_capacity, cost_per_unit, supplier,
			is_tracked, auto_deduct, linked_items, base_inventory_id, base_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+inventoryColumns,
		arg.RestaurantID, arg.MenuItemID, arg.Name, arg.Quantity, arg.Unit, arg.CustomUnit,
		arg.MinimumThreshold, arg.ConsumptionPerOrder, arg.MaxCapacity, arg.CostPerUnit,
		arg.Supplier, arg.IsTracked, arg.AutoDeduct, arg.LinkedItems,
		arg.BaseInventoryID, arg.BaseRatio)
	return scanInventoryItem(row)
}

type UpdateInventoryItemParams struct {
	ID                  uuid.UUID
	RestaurantID        uuid.UUID
	Name                string
	Unit                string
	CustomUnit          pgtype.Text
	MinimumThreshold    pgtype.Numeric
	ConsumptionPerOrder pgtype.Numeric
	MaxCapacity         pgtype.Numeric
	CostPerUnit         pgtype.Numeric
	Supplier            pgtype.Text
	IsTracked           bool
	AutoDeduct          bool
	LinkedItems         []LinkedItem
	BaseInventoryID     pgtype.UUID
	BaseRatio           pgtype.Numeric
}

func (q *Queries) UpdateInventoryItem(ctx context.Context, arg UpdateInventoryItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE inventory_items
		SET name = $3, unit = $4, custom_unit = $5, minimum_threshold = $6,
			consumption_per_order = $7, max_capacity = $8, cost_per_unit = $9, supplier = $10,
			is_tracked = $11, auto_deduct = $12, linked_items = $13,
			base_inventory_id = $14, base_ratio = $15, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING `+inventoryColumns,
		arg.ID, arg.RestaurantID, arg.Name, arg.Unit, arg.CustomUnit, arg.MinimumThreshold,
		arg.ConsumptionPerOrder, arg.MaxCapacity, arg.CostPerUnit, arg.Supplier,
		arg.IsTracked, arg.AutoDeduct, arg.LinkedItems, arg.BaseInventoryID, arg.BaseRatio)
	return scanInventoryItem(row)
}

type SetInventoryQuantityParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Quantity     pgtype.Numeric
}

func (q *Queries) SetInventoryQuantity(ctx context.Context, arg SetInventoryQuantityParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE inventory_items SET quantity = $3, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING `+inventoryColumns,
		arg.ID, arg.RestaurantID, arg.Quantity)
	return scanInventoryItem(row)
}

type SetInventoryLinksParams struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	AutoDeduct      bool
	LinkedItems     []LinkedItem
	BaseInventoryID pgtype.UUID
	BaseRatio       pgtype.Numeric
}

// SetInventoryLinks patches only the linking-related fields of an item.
func (q *Queries) SetInventoryLinks(ctx context.Context, arg SetInventoryLinksParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE inventory_items
		SET auto_deduct = $3, linked_items = $4, base_inventory_id = $5, base_ratio = $6,
			updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING `+inventoryColumns,
		arg.ID, arg.RestaurantID, arg.AutoDeduct, arg.LinkedItems,
		arg.BaseInventoryID, arg.BaseRatio)
	return scanInventoryItem(row)
}

func (q *Queries) EnableAutoDeductForAll(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE inventory_items SET auto_deduct = true, updated_at = now()
		WHERE restaurant_id = $1 AND auto_deduct = false`, restaurantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type DeleteInventoryItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) DeleteInventoryItem(ctx context.Context, arg DeleteInventoryItemParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM inventory_items
		WHERE id = $1 AND restaurant_id = $2
		RETURNING id`, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}

// --- Transactions ---

const inventoryTxColumns = `id, inventory_id, restaurant_id, type, previous_quantity,
	new_quantity, quantity_change, reason, notes, order_id, created_by, created_at`

func scanInventoryTransaction(s rowScanner) (InventoryTransaction, error) {
	var t InventoryTransaction
	err := s.Scan(&t.ID, &t.InventoryID, &t.RestaurantID, &t.Type, &t.PreviousQuantity,
		&t.NewQuantity, &t.QuantityChange, &t.Reason, &t.Notes, &t.OrderID,
		&t.CreatedBy, &t.CreatedAt)
	return t, err
}

type CreateInventoryTransactionParams struct {
	InventoryID      uuid.UUID
	RestaurantID     uuid.UUID
	Type             string
	PreviousQuantity pgtype.Numeric
	NewQuantity      pgtype.Numeric
	QuantityChange   pgtype.Numeric
	Reason           pgtype.Text
	Notes            pgtype.Text
	OrderID          pgtype.UUID
	CreatedBy        uuid.UUID
}

func (q *Queries) CreateInventoryTransaction(ctx context.Context, arg CreateInventoryTransactionParams) (InventoryTransaction, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO inventory_transactions (inventory_id, restaurant_id, type, previous_quantity,
			new_quantity, quantity_change, reason, notes, order_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+inventoryTxColumns,
		arg.InventoryID, arg.RestaurantID, arg.Type, arg.PreviousQuantity, arg.NewQuantity,
		arg.QuantityChange, arg.Reason, arg.Notes, arg.OrderID, arg.CreatedBy)
	return scanInventoryTransaction(row)
}

type ListInventoryTransactionsParams struct {
	InventoryID  uuid.UUID
	RestaurantID uuid.UUID
	Type         pgtype.Text // optional filter
	Limit        int32
}

func (q *Queries) ListInventoryTransactions(ctx context.Context, arg ListInventoryTransactionsParams) ([]InventoryTransaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+inventoryTxColumns+` FROM inventory_transactions
		WHERE inventory_id = $1 AND restaurant_id = $2
			AND ($3::text IS NULL OR type = $3)
		ORDER BY created_at DESC
		LIMIT $4`,
		arg.InventoryID, arg.RestaurantID, arg.Type, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InventoryTransaction
	for rows.Next() {
		t, err := scanInventoryTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (q *Queries) CountInventoryTransactions(ctx context.Context, inventoryID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM inventory_transactions WHERE inventory_id = $1`, inventoryID).Scan(&n)
	return n, err
}
