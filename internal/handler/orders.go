package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/savoria-pos/api/internal/cache"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/middleware"
	"github.com/savoria-pos/api/internal/service"
	"github.com/savoria-pos/api/internal/ws"
	"github.com/shopspring/decimal"
)

// OrderReadStore defines the read-side database methods for order handlers.
// Checkout itself goes through the transactional CheckoutService.
type OrderReadStore interface {
	ListOrdersByRestaurant(ctx context.Context, arg database.ListOrdersByRestaurantParams) ([]database.Order, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

// OrderHandler handles checkout and order history.
type OrderHandler struct {
	store    OrderReadStore
	checkout *service.CheckoutService
	hub      *ws.Hub
}

func NewOrderHandler(store OrderReadStore, checkout *service.CheckoutService, hub *ws.Hub) *OrderHandler {
	return &OrderHandler{store: store, checkout: checkout, hub: hub}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/checkout", h.Checkout)
	r.Post("/compute", h.Compute)
}

// --- Request / Response types ---

type checkoutLineBody struct {
	MenuItemID string                      `json:"menu_item_id"`
	Quantity   int32                       `json:"quantity"`
	Variants   []database.VariantSelection `json:"variants"`
}

type manualDiscountBody struct {
	Mode  string `json:"mode"`
	Value string `json:"value"`
}

type tipBody struct {
	Percent      int64  `json:"percent"`
	CustomAmount string `json:"custom_amount"`
}

type splitBody struct {
	Method1 string `json:"method_1"`
	Amount1 string `json:"amount_1"`
	Method2 string `json:"method_2"`
	Amount2 string `json:"amount_2"`
}

type creditCustomerBody struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

type checkoutRequest struct {
	Items          []checkoutLineBody  `json:"items"`
	Notes          string              `json:"notes"`
	CouponCode     string              `json:"coupon_code"`
	ManualDiscount *manualDiscountBody `json:"manual_discount"`
	Tip            *tipBody            `json:"tip"`
	Method         string              `json:"method"`
	AmountReceived string              `json:"amount_received"`
	WholeAsCredit  bool                `json:"whole_as_credit"`
	Split          *splitBody          `json:"split"`
	Customer       *creditCustomerBody `json:"customer"`
}

type orderItemResponse struct {
	ID        uuid.UUID                   `json:"id"`
	MenuItem  uuid.UUID                   `json:"menu_item_id"`
	Name      string                      `json:"name"`
	Variants  []database.VariantSelection `json:"variants"`
	Quantity  int32                       `json:"quantity"`
	UnitPrice string                      `json:"unit_price"`
	LineTotal string                      `json:"line_total"`
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:        it.ID,
		MenuItem:  it.MenuItemID,
		Name:      it.Name,
		Variants:  it.Variants,
		Quantity:  it.Quantity,
		UnitPrice: numericString(it.UnitPrice),
		LineTotal: numericString(it.LineTotal),
	}
}

type orderResponse struct {
	ID                 uuid.UUID  `json:"id"`
	OrderNumber        string     `json:"order_number"`
	CustomerID         *uuid.UUID `json:"customer_id"`
	Status             string     `json:"status"`
	Subtotal           string     `json:"subtotal"`
	TaxRate            string     `json:"tax_rate"`
	CouponCode         *string    `json:"coupon_code"`
	CouponDiscount     string     `json:"coupon_discount"`
	ManualDiscount     string     `json:"manual_discount"`
	FreeItemsValue     string     `json:"free_items_value"`
	DiscountedSubtotal string     `json:"discounted_subtotal"`
	TaxAmount          string     `json:"tax_amount"`
	TipAmount          string     `json:"tip_amount"`
	TotalAmount        string     `json:"total_amount"`
	TotalSavings       string     `json:"total_savings"`
	Notes              *string    `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		CustomerID:         uuidOrNil(o.CustomerID),
		Status:             o.Status,
		Subtotal:           numericString(o.Subtotal),
		TaxRate:            numericPlain(o.TaxRate),
		CouponCode:         textOrNil(o.CouponCode),
		CouponDiscount:     numericString(o.CouponDiscount),
		ManualDiscount:     numericString(o.ManualDiscount),
		FreeItemsValue:     numericString(o.FreeItemsValue),
		DiscountedSubtotal: numericString(o.DiscountedSubtotal),
		TaxAmount:          numericString(o.TaxAmount),
		TipAmount:          numericString(o.TipAmount),
		TotalAmount:        numericString(o.TotalAmount),
		TotalSavings:       numericString(o.TotalSavings),
		Notes:              textOrNil(o.Notes),
		CreatedAt:          o.CreatedAt,
	}
}

type paymentResponse struct {
	ID               uuid.UUID  `json:"id"`
	Method           *string    `json:"method"`
	Amount           string     `json:"amount"`
	AmountReceived   string     `json:"amount_received"`
	IsSplit          bool       `json:"is_split"`
	SplitMethod1     *string    `json:"split_method_1"`
	SplitAmount1     string     `json:"split_amount_1"`
	SplitMethod2     *string    `json:"split_method_2"`
	SplitAmount2     string     `json:"split_amount_2"`
	IsCredit         bool       `json:"is_credit"`
	CreditAmount     string     `json:"credit_amount"`
	CreditCustomerID *uuid.UUID `json:"credit_customer_id"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toPaymentResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		Method:           textOrNil(p.Method),
		Amount:           numericString(p.Amount),
		AmountReceived:   numericString(p.AmountReceived),
		IsSplit:          p.IsSplit,
		SplitMethod1:     textOrNil(p.SplitMethod1),
		SplitAmount1:     numericString(p.SplitAmount1),
		SplitMethod2:     textOrNil(p.SplitMethod2),
		SplitAmount2:     numericString(p.SplitAmount2),
		IsCredit:         p.IsCredit,
		CreditAmount:     numericString(p.CreditAmount),
		CreditCustomerID: uuidOrNil(p.CreditCustomerID),
		CreatedAt:        p.CreatedAt,
	}
}

type computationResponse struct {
	OriginalSubtotal   string `json:"original_subtotal"`
	OriginalTax        string `json:"original_tax"`
	CouponDiscount     string `json:"coupon_discount"`
	FreeItemsValue     string `json:"free_items_value"`
	ManualDiscount     string `json:"manual_discount"`
	TotalDiscount      string `json:"total_discount"`
	DiscountedSubtotal string `json:"discounted_subtotal"`
	TaxAmount          string `json:"tax_amount"`
	SubtotalWithTax    string `json:"subtotal_with_tax"`
	TipAmount          string `json:"tip_amount"`
	FinalTotal         string `json:"final_total"`
	TotalSavings       string `json:"total_savings"`
}

func toComputationResponse(c service.PaymentComputation) computationResponse {
	return computationResponse{
		OriginalSubtotal:   c.OriginalSubtotal.StringFixed(2),
		OriginalTax:        c.OriginalTax.StringFixed(2),
		CouponDiscount:     c.CouponDiscount.StringFixed(2),
		FreeItemsValue:     c.FreeItemsValue.StringFixed(2),
		ManualDiscount:     c.ManualDiscount.StringFixed(2),
		TotalDiscount:      c.TotalDiscount.StringFixed(2),
		DiscountedSubtotal: c.DiscountedSubtotal.StringFixed(2),
		TaxAmount:          c.TaxAmount.StringFixed(2),
		SubtotalWithTax:    c.SubtotalWithTax.StringFixed(2),
		TipAmount:          c.TipAmount.StringFixed(2),
		FinalTotal:         c.FinalTotal.StringFixed(2),
		TotalSavings:       c.TotalSavings.StringFixed(2),
	}
}

type deductionWarningResponse struct {
	InventoryID uuid.UUID `json:"inventory_id"`
	Name        string    `json:"name"`
	Requested   string    `json:"requested"`
	Deducted    string    `json:"deducted"`
}

type checkoutResponse struct {
	Order       orderResponse              `json:"order"`
	Items       []orderItemResponse        `json:"items"`
	Payment     paymentResponse            `json:"payment"`
	Computation computationResponse        `json:"computation"`
	Warnings    []deductionWarningResponse `json:"warnings"`
}

// --- Handlers ---

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	params := database.ListOrdersByRestaurantParams{RestaurantID: rid, Limit: 50}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be 1-500")
			return
		}
		params.Limit = int32(n)
	}

	orders, err := h.store.ListOrdersByRestaurant(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: id, RestaurantID: rid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payments, err := h.store.ListPaymentsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	itemResp := make([]orderItemResponse, len(items))
	for i, it := range items {
		itemResp[i] = toOrderItemResponse(it)
	}
	payResp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		payResp[i] = toPaymentResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":    toOrderResponse(order),
		"items":    itemResp,
		"payments": payResp,
	})
}

// Checkout creates an order, its items and payment in one transaction and
// broadcasts the result to connected terminals.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	svcReq, errMsg := buildCheckoutRequest(rid, claims.UserID, req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	result, err := h.checkout.Submit(r.Context(), *svcReq)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	cache.InvalidateInventory(r.Context(), rid)

	warnings := make([]deductionWarningResponse, len(result.Warnings))
	for i, wrn := range result.Warnings {
		warnings[i] = deductionWarningResponse{
			InventoryID: wrn.InventoryID,
			Name:        wrn.Name,
			Requested:   wrn.Requested.String(),
			Deducted:    wrn.Deducted.String(),
		}
	}

	itemResp := make([]orderItemResponse, len(result.Items))
	for i, it := range result.Items {
		itemResp[i] = toOrderItemResponse(it)
	}

	resp := checkoutResponse{
		Order:       toOrderResponse(result.Order),
		Items:       itemResp,
		Payment:     toPaymentResponse(result.Payment),
		Computation: toComputationResponse(result.Computation),
		Warnings:    warnings,
	}

	if h.hub != nil {
		h.hub.BroadcastToRestaurant(rid, ws.NewEvent(ws.EventOrderCreated, map[string]string{
			"order_id":     result.Order.ID.String(),
			"order_number": result.Order.OrderNumber,
			"total":        numericString(result.Order.TotalAmount),
		}))
		for _, wrn := range result.Warnings {
			h.hub.BroadcastToRestaurant(rid, ws.NewEvent(ws.EventStockAlert, map[string]string{
				"inventory_id": wrn.InventoryID.String(),
				"name":         wrn.Name,
				"requested":    wrn.Requested.String(),
				"deducted":     wrn.Deducted.String(),
			}))
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

type computeRequest struct {
	Subtotal       string              `json:"subtotal"`
	TaxRate        string              `json:"tax_rate"`
	CouponDiscount string              `json:"coupon_discount"`
	FreeItemsValue string              `json:"free_items_value"`
	ManualDiscount *manualDiscountBody `json:"manual_discount"`
	Tip            *tipBody            `json:"tip"`
	SplitAmount1   string              `json:"split_amount_1"`
	SplitAmount2   string              `json:"split_amount_2"`
}

// Compute previews payment math without touching the database, so terminals
// can show live totals while the cashier edits discounts and tips.
func (h *OrderHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil || subtotal.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid subtotal")
		return
	}
	// Absent tax_rate means "use the default"; an explicit "0" is tax-free.
	in := service.ComputePaymentInput{Subtotal: subtotal}
	if req.TaxRate != "" {
		tr, err := decimal.NewFromString(req.TaxRate)
		if err != nil || tr.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid tax_rate")
			return
		}
		in.TaxRate = &tr
	}
	if req.CouponDiscount != "" {
		cd, err := decimal.NewFromString(req.CouponDiscount)
		if err != nil || cd.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid coupon_discount")
			return
		}
		in.CouponDiscount = cd
	}
	if req.FreeItemsValue != "" {
		fv, err := decimal.NewFromString(req.FreeItemsValue)
		if err != nil || fv.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid free_items_value")
			return
		}
		in.FreeItemsValue = fv
	}
	if req.ManualDiscount != nil {
		md, errMsg := buildManualDiscount(req.ManualDiscount)
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg)
			return
		}
		in.Manual = md
	}
	if req.Tip != nil {
		tip, errMsg := buildTip(req.Tip)
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg)
			return
		}
		in.Tip = tip
	}

	comp, err := service.ComputePayment(in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTipPreset), errors.Is(err, service.ErrInvalidDiscountMode):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("ERROR: compute payment: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	resp := map[string]interface{}{"computation": toComputationResponse(comp)}
	if req.SplitAmount1 != "" || req.SplitAmount2 != "" {
		a1, err1 := decimal.NewFromString(req.SplitAmount1)
		a2, err2 := decimal.NewFromString(req.SplitAmount2)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid split amounts")
			return
		}
		check := service.CheckSplit(a1, a2, comp.FinalTotal)
		resp["split"] = map[string]interface{}{
			"balanced":   check.Balanced,
			"difference": check.Difference.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidTipPreset),
		errors.Is(err, service.ErrInvalidDiscountMode),
		errors.Is(err, service.ErrSplitAmountNotPositive),
		errors.Is(err, service.ErrSplitWithCredit),
		errors.Is(err, service.ErrCreditNeedsCustomer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOverpayment):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrOrderItemNotFound):
		writeError(w, http.StatusUnprocessableEntity, "cart references an unknown menu item")
	case errors.Is(err, service.ErrCustomerNotFound):
		writeError(w, http.StatusUnprocessableEntity, "customer not found")
	case errors.Is(err, service.ErrCouponNotFound):
		writeError(w, http.StatusUnprocessableEntity, "coupon not found")
	case errors.Is(err, service.ErrCouponInactive),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponExhausted),
		errors.Is(err, service.ErrCouponMinOrder),
		errors.Is(err, service.ErrCouponWrongMethod),
		errors.Is(err, service.ErrCouponNotApplicable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("ERROR: checkout: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func buildCheckoutRequest(rid, actorID uuid.UUID, req checkoutRequest) (*service.CheckoutRequest, string) {
	out := &service.CheckoutRequest{
		RestaurantID:  rid,
		ActorID:       actorID,
		Notes:         req.Notes,
		CouponCode:    req.CouponCode,
		Method:        req.Method,
		WholeAsCredit: req.WholeAsCredit,
	}

	for _, it := range req.Items {
		id, err := uuid.Parse(it.MenuItemID)
		if err != nil {
			return nil, "invalid menu_item_id in items"
		}
		if it.Quantity < 1 {
			return nil, "item quantity must be at least 1"
		}
		out.Lines = append(out.Lines, service.OrderLine{
			MenuItemID: id,
			Quantity:   it.Quantity,
			Variants:   it.Variants,
		})
	}

	if req.ManualDiscount != nil {
		md, errMsg := buildManualDiscount(req.ManualDiscount)
		if errMsg != "" {
			return nil, errMsg
		}
		out.Manual = md
	}
	if req.Tip != nil {
		tip, errMsg := buildTip(req.Tip)
		if errMsg != "" {
			return nil, errMsg
		}
		out.Tip = tip
	}
	if req.AmountReceived != "" {
		ar, err := decimal.NewFromString(req.AmountReceived)
		if err != nil || ar.IsNegative() {
			return nil, "invalid amount_received"
		}
		out.AmountReceived = &ar
	}
	if req.Split != nil {
		a1, err1 := decimal.NewFromString(req.Split.Amount1)
		a2, err2 := decimal.NewFromString(req.Split.Amount2)
		if err1 != nil || err2 != nil {
			return nil, "invalid split amounts"
		}
		out.Split = &service.SplitPayment{
			Method1: req.Split.Method1,
			Amount1: a1,
			Method2: req.Split.Method2,
			Amount2: a2,
		}
	}
	if req.Customer != nil {
		ref := &service.CreditCustomerRef{Name: req.Customer.Name, Phone: req.Customer.Phone}
		if req.Customer.CustomerID != "" {
			id, err := uuid.Parse(req.Customer.CustomerID)
			if err != nil {
				return nil, "invalid customer_id"
			}
			ref.CustomerID = id
		}
		out.Customer = ref
	}
	return out, ""
}

func buildManualDiscount(b *manualDiscountBody) (*service.ManualDiscount, string) {
	v, err := decimal.NewFromString(b.Value)
	if err != nil || v.IsNegative() {
		return nil, "invalid manual discount value"
	}
	return &service.ManualDiscount{Mode: b.Mode, Value: v}, ""
}

func buildTip(b *tipBody) (*service.Tip, string) {
	tip := &service.Tip{Percent: b.Percent}
	if b.CustomAmount != "" {
		ca, err := decimal.NewFromString(b.CustomAmount)
		if err != nil || ca.IsNegative() {
			return nil, "invalid custom tip amount"
		}
		tip.CustomAmount = ca
	}
	return tip, ""
}
