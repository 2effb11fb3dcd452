package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/savoria-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// CouponStore defines the database methods needed by coupon handlers.
type CouponStore interface {
	ListCouponsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.Coupon, error)
	GetCouponByCode(ctx context.Context, arg database.GetCouponByCodeParams) (database.Coupon, error)
	CreateCoupon(ctx context.Context, arg database.CreateCouponParams) (database.Coupon, error)
	UpdateCoupon(ctx context.Context, arg database.UpdateCouponParams) (database.Coupon, error)
	SoftDeleteCoupon(ctx context.Context, arg database.SoftDeleteCouponParams) (uuid.UUID, error)
}

// CouponHandler handles coupon management and validation.
type CouponHandler struct {
	store CouponStore
	svc   *service.CouponService
}

func NewCouponHandler(store CouponStore, svc *service.CouponService) *CouponHandler {
	return &CouponHandler{store: store, svc: svc}
}

func (h *CouponHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/validate", h.Validate)
}

// --- Request / Response types ---

type couponFreeItemBody struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int32  `json:"quantity"`
}

type couponRequest struct {
	Code              string               `json:"code"`
	Type              string               `json:"type"`
	Value             string               `json:"value"`
	FreeItems         []couponFreeItemBody `json:"free_items"`
	ApplicableItemIDs []string             `json:"applicable_item_ids"`
	MinOrderAmount    string               `json:"min_order_amount"`
	PaymentMethod     string               `json:"payment_method"`
	UsageLimit        *int32               `json:"usage_limit"`
	ExpiresAt         *time.Time           `json:"expires_at"`
}

type couponResponse struct {
	ID                uuid.UUID                 `json:"id"`
	Code              string                    `json:"code"`
	Type              string                    `json:"type"`
	Value             string                    `json:"value"`
	FreeItems         []database.CouponFreeItem `json:"free_items"`
	ApplicableItemIDs []uuid.UUID               `json:"applicable_item_ids"`
	MinOrderAmount    string                    `json:"min_order_amount"`
	PaymentMethod     *string                   `json:"payment_method"`
	UsageLimit        *int32                    `json:"usage_limit"`
	UsedCount         int32                     `json:"used_count"`
	ExpiresAt         *time.Time                `json:"expires_at"`
	IsActive          bool                      `json:"is_active"`
	CreatedAt         time.Time                 `json:"created_at"`
}

func toCouponResponse(c database.Coupon) couponResponse {
	resp := couponResponse{
		ID:                c.ID,
		Code:              c.Code,
		Type:              c.Type,
		Value:             numericString(c.Value),
		FreeItems:         c.FreeItems,
		ApplicableItemIDs: c.ApplicableItemIDs,
		MinOrderAmount:    numericString(c.MinOrderAmount),
		PaymentMethod:     textOrNil(c.PaymentMethod),
		UsedCount:         c.UsedCount,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
	}
	if c.UsageLimit.Valid {
		v := c.UsageLimit.Int32
		resp.UsageLimit = &v
	}
	if c.ExpiresAt.Valid {
		t := c.ExpiresAt.Time
		resp.ExpiresAt = &t
	}
	return resp
}

// --- Handlers ---

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	coupons, err := h.store.ListCouponsByRestaurant(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: list coupons: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = toCouponResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, errMsg := buildCouponParams(rid, req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	coupon, err := h.store.CreateCoupon(r.Context(), *params)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "coupon code already exists")
			return
		}
		log.Printf("ERROR: create coupon: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(coupon))
}

func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid coupon ID")
		return
	}

	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, errMsg := buildCouponParams(rid, req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	coupon, err := h.store.UpdateCoupon(r.Context(), database.UpdateCouponParams{
		ID:                id,
		RestaurantID:      rid,
		Code:              params.Code,
		Type:              params.Type,
		Value:             params.Value,
		FreeItems:         params.FreeItems,
		ApplicableItemIDs: params.ApplicableItemIDs,
		MinOrderAmount:    params.MinOrderAmount,
		PaymentMethod:     params.PaymentMethod,
		UsageLimit:        params.UsageLimit,
		ExpiresAt:         params.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "coupon code already exists")
			return
		}
		log.Printf("ERROR: update coupon: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(coupon))
}

func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid coupon ID")
		return
	}

	if _, err := h.store.SoftDeleteCoupon(r.Context(), database.SoftDeleteCouponParams{
		ID:           id,
		RestaurantID: rid,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		log.Printf("ERROR: delete coupon: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateCouponRequest struct {
	Code          string             `json:"code"`
	PaymentMethod string             `json:"payment_method"`
	Cart          []validateCartLine `json:"cart"`
}

type validateCartLine struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	LineTotal  string `json:"line_total"`
}

type validateCouponResponse struct {
	Valid          bool           `json:"valid"`
	Coupon         couponResponse `json:"coupon"`
	Discount       string         `json:"discount"`
	FreeItemsValue string         `json:"free_items_value"`
}

// Validate checks a coupon against a proposed cart without committing
// anything. Business rejections come back as 422 with the reason.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	lines := make([]service.CartLine, 0, len(req.Cart))
	for _, l := range req.Cart {
		id, err := uuid.Parse(l.MenuItemID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid menu_item_id in cart")
			return
		}
		total, err := decimal.NewFromString(l.LineTotal)
		if err != nil || total.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid line_total in cart")
			return
		}
		lines = append(lines, service.CartLine{MenuItemID: id, Quantity: l.Quantity, LineTotal: total})
	}

	outcome, err := h.svc.Validate(r.Context(), rid, req.Code, lines, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			writeError(w, http.StatusNotFound, "coupon not found")
		case errors.Is(err, service.ErrCouponInactive),
			errors.Is(err, service.ErrCouponExpired),
			errors.Is(err, service.ErrCouponExhausted),
			errors.Is(err, service.ErrCouponMinOrder),
			errors.Is(err, service.ErrCouponWrongMethod),
			errors.Is(err, service.ErrCouponNotApplicable):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			log.Printf("ERROR: validate coupon: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, validateCouponResponse{
		Valid:          true,
		Coupon:         toCouponResponse(outcome.Coupon),
		Discount:       outcome.Discount.StringFixed(2),
		FreeItemsValue: outcome.FreeItemsValue.StringFixed(2),
	})
}

func buildCouponParams(rid uuid.UUID, req couponRequest) (*database.CreateCouponParams, string) {
	if req.Code == "" {
		return nil, "code is required"
	}
	switch req.Type {
	case enum.CouponTypePercentage, enum.CouponTypeFixedAmount, enum.CouponTypeFreeItems:
	default:
		return nil, "type must be percentage, fixed_amount or free_items"
	}

	params := &database.CreateCouponParams{
		RestaurantID: rid,
		Code:         req.Code,
		Type:         req.Type,
	}

	value := req.Value
	if value == "" {
		value = "0"
	}
	v, err := parseMoney(value)
	if err != nil {
		return nil, "invalid value"
	}
	params.Value = v
	if req.Type == enum.CouponTypePercentage {
		if d := numericDecimal(v); d.GreaterThan(decimal.NewFromInt(100)) {
			return nil, "percentage value must not exceed 100"
		}
	}
	if req.Type == enum.CouponTypeFreeItems && len(req.FreeItems) == 0 {
		return nil, "free_items coupon needs at least one free item"
	}

	for _, fi := range req.FreeItems {
		if fi.MenuItemID == "" || fi.Name == "" {
			return nil, "free item needs menu_item_id and name"
		}
		if _, err := decimal.NewFromString(fi.Price); err != nil {
			return nil, "invalid free item price"
		}
		if fi.Quantity < 1 {
			return nil, "free item quantity must be at least 1"
		}
		params.FreeItems = append(params.FreeItems, database.CouponFreeItem{
			MenuItemID: fi.MenuItemID,
			Name:       fi.Name,
			Price:      fi.Price,
			Quantity:   fi.Quantity,
		})
	}

	for _, s := range req.ApplicableItemIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, "invalid applicable_item_ids"
		}
		params.ApplicableItemIDs = append(params.ApplicableItemIDs, id)
	}

	minOrder := req.MinOrderAmount
	if minOrder == "" {
		minOrder = "0"
	}
	mo, err := parseMoney(minOrder)
	if err != nil {
		return nil, "invalid min_order_amount"
	}
	params.MinOrderAmount = mo

	if req.PaymentMethod != "" {
		if !enum.ValidPaymentMethod(req.PaymentMethod) {
			return nil, "invalid payment_method"
		}
		params.PaymentMethod = pgtype.Text{String: req.PaymentMethod, Valid: true}
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit < 1 {
			return nil, "usage_limit must be at least 1"
		}
		params.UsageLimit = pgtype.Int4{Int32: *req.UsageLimit, Valid: true}
	}
	if req.ExpiresAt != nil {
		params.ExpiresAt = pgtype.Timestamptz{Time: *req.ExpiresAt, Valid: true}
	}
	return params, ""
}
