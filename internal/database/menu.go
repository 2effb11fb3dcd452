package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Categories ---

const categoryColumns = `id, restaurant_id, name, description, sort_order, is_active, created_at, updated_at`

func scanCategory(s rowScanner) (Category, error) {
	var c Category
	err := s.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) ListCategoriesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Category, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE restaurant_id = $1 AND is_active = true
		ORDER BY sort_order, name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type CreateCategoryParams struct {
	RestaurantID uuid.UUID
	Name         string
	Description  pgtype.Text
	SortOrder    int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO categories (restaurant_id, name, description, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		arg.RestaurantID, arg.Name, arg.Description, arg.SortOrder)
	return scanCategory(row)
}

type UpdateCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  pgtype.Text
	SortOrder    int32
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, description = $4, sort_order = $5, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING `+categoryColumns,
		arg.ID, arg.RestaurantID, arg.Name, arg.Description, arg.SortOrder)
	return scanCategory(row)
}

type SoftDeleteCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) SoftDeleteCategory(ctx context.Context, arg SoftDeleteCategoryParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `
		UPDATE categories SET is_active = false, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING id`, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}

// --- Menu items ---

const menuItemColumns = `id, restaurant_id, category_id, name, description, price, image_url,
	is_available, preparation_time, spice_level, allergens, dietary, tags, variants,
	is_active, created_at, updated_at`

func scanMenuItem(s rowScanner) (MenuItem, error) {
	var m MenuItem
	err := s.Scan(&m.ID, &m.RestaurantID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
		&m.ImageUrl, &m.IsAvailable, &m.PreparationTime, &m.SpiceLevel,
		&m.Allergens, &m.Dietary, &m.Tags, &m.Variants,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (q *Queries) ListMenuItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items
		WHERE restaurant_id = $1 AND is_active = true
		ORDER BY name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type GetMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetMenuItem(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true`,
		arg.ID, arg.RestaurantID)
	return scanMenuItem(row)
}

type CreateMenuItemParams struct {
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
	Variants        []VariantGroup
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (restaurant_id, category_id, name, description, price, image_url,
			is_available, preparation_time, spice_level, allergens, dietary, tags, variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+menuItemColumns,
		arg.RestaurantID, arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.ImageUrl,
		arg.IsAvailable, arg.PreparationTime, arg.SpiceLevel, arg.Allergens, arg.Dietary,
		arg.Tags, arg.Variants)
	return scanMenuItem(row)
}

type UpdateMenuItemParams struct {
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
	Variants        []VariantGroup
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET category_id = $3, name = $4, description = $5, price = $6, image_url = $7,
			is_available = $8, preparation_time = $9, spice_level = $10,
			allergens = $11, dietary = $12, tags = $13, variants = $14, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING `+menuItemColumns,
		arg.ID, arg.RestaurantID, arg.CategoryID, arg.Name, arg.Description, arg.Price,
		arg.ImageUrl, arg.IsAvailable, arg.PreparationTime, arg.SpiceLevel,
		arg.Allergens, arg.Dietary, arg.Tags, arg.Variants)
	return scanMenuItem(row)
}

type SoftDeleteMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) SoftDeleteMenuItem(ctx context.Context, arg SoftDeleteMenuItemParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, `
		UPDATE menu_items SET is_active = false, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2 AND is_active = true
		RETURNING id`, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}
