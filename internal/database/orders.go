package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, restaurant_id, order_number, customer_id, status, subtotal, tax_rate,
	coupon_code, coupon_discount, manual_discount, free_items_value, discounted_subtotal,
	tax_amount, tip_amount, total_amount, total_savings, notes, created_by, created_at, updated_at`

func scanOrder(s rowScanner) (Order, error) {
	var o Order
	err := s.Scan(&o.ID, &o.RestaurantID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.Subtotal,
		&o.TaxRate, &o.CouponCode, &o.CouponDiscount, &o.ManualDiscount, &o.FreeItemsValue,
		&o.DiscountedSubtotal, &o.TaxAmount, &o.TipAmount, &o.TotalAmount, &o.TotalSavings,
		&o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetNextOrderNumber returns the next sequential order number for a restaurant.
// Callers must retry on unique violations; concurrent transactions can read
// the same MAX.
func (q *Queries) GetNextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, `
		SELECT coalesce(max(substring(order_number FROM '[0-9]+$')::int), 0) + 1
		FROM orders WHERE restaurant_id = $1`, restaurantID).Scan(&n)
	return n, err
}

type CreateOrderParams struct {
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
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (restaurant_id, order_number, customer_id, status, subtotal, tax_rate,
			coupon_code, coupon_discount, manual_discount, free_items_value, discounted_subtotal,
			tax_amount, tip_amount, total_amount, total_savings, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+orderColumns,
		arg.RestaurantID, arg.OrderNumber, arg.CustomerID, arg.Status, arg.Subtotal, arg.TaxRate,
		arg.CouponCode, arg.CouponDiscount, arg.ManualDiscount, arg.FreeItemsValue,
		arg.DiscountedSubtotal, arg.TaxAmount, arg.TipAmount, arg.TotalAmount, arg.TotalSavings,
		arg.Notes, arg.CreatedBy)
	return scanOrder(row)
}

type GetOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND restaurant_id = $2`, arg.ID, arg.RestaurantID)
	return scanOrder(row)
}

type ListOrdersByRestaurantParams struct {
	RestaurantID uuid.UUID
	Limit        int32
}

func (q *Queries) ListOrdersByRestaurant(ctx context.Context, arg ListOrdersByRestaurantParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE restaurant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, arg.RestaurantID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

// --- Order items ---

const orderItemColumns = `id, order_id, menu_item_id, name, variants, quantity, unit_price, line_total`

func scanOrderItem(s rowScanner) (OrderItem, error) {
	var it OrderItem
	err := s.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Variants,
		&it.Quantity, &it.UnitPrice, &it.LineTotal)
	return it, err
}

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Variants   []VariantSelection
	Quantity   int32
	UnitPrice  pgtype.Numeric
	LineTotal  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, name, variants, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.MenuItemID, arg.Name, arg.Variants, arg.Quantity,
		arg.UnitPrice, arg.LineTotal)
	return scanOrderItem(row)
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// --- Payments ---

const paymentColumns = `id, order_id, method, amount, amount_received, is_split,
	split_method_1, split_amount_1, split_method_2, split_amount_2,
	is_credit, credit_amount, credit_customer_id, processed_by, created_at`

func scanPayment(s rowScanner) (Payment, error) {
	var p Payment
	err := s.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.AmountReceived, &p.IsSplit,
		&p.SplitMethod1, &p.SplitAmount1, &p.SplitMethod2, &p.SplitAmount2,
		&p.IsCredit, &p.CreditAmount, &p.CreditCustomerID, &p.ProcessedBy, &p.CreatedAt)
	return p, err
}

type CreatePaymentParams struct {
	OrderID          uuid.UUID
	Method           pgtype.Text
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
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, method, amount, amount_received, is_split,
			split_method_1, split_amount_1, split_method_2, split_amount_2,
			is_credit, credit_amount, credit_customer_id, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+paymentColumns,
		arg.OrderID, arg.Method, arg.Amount, arg.AmountReceived, arg.IsSplit,
		arg.SplitMethod1, arg.SplitAmount1, arg.SplitMethod2, arg.SplitAmount2,
		arg.IsCredit, arg.CreditAmount, arg.CreditCustomerID, arg.ProcessedBy)
	return scanPayment(row)
}

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
