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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/cache"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/savoria-pos/api/internal/middleware"
	"github.com/savoria-pos/api/internal/service"
	"github.com/savoria-pos/api/internal/ws"
	"github.com/shopspring/decimal"
)

// InventoryStore defines the database methods needed by inventory handlers.
// *database.Queries satisfies both this and service.InventoryStore.
type InventoryStore interface {
	service.InventoryStore
	UpdateInventoryItem(ctx context.Context, arg database.UpdateInventoryItemParams) (database.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, arg database.DeleteInventoryItemParams) (uuid.UUID, error)
	EnableAutoDeductForAll(ctx context.Context, restaurantID uuid.UUID) (int64, error)
	ListInventoryTransactions(ctx context.Context, arg database.ListInventoryTransactionsParams) ([]database.InventoryTransaction, error)
}

// InventoryHandler handles inventory CRUD, adjustments and link management.
type InventoryHandler struct {
	store InventoryStore
	svc   *service.InventoryService
	hub   *ws.Hub
}

func NewInventoryHandler(store InventoryStore, svc *service.InventoryService, hub *ws.Hub) *InventoryHandler {
	return &InventoryHandler{store: store, svc: svc, hub: hub}
}

func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/adjust", h.Adjust)
	r.Get("/{id}/transactions", h.ListTransactions)
	r.Post("/{id}/initial-transaction", h.CreateInitialTransaction)
	r.Post("/{id}/links", h.SetLinks)
	r.Post("/links/repair", h.RepairLinks)
	r.Post("/enable-auto-deduct", h.EnableAutoDeduct)
}

// --- Request / Response types ---

type inventoryItemRequest struct {
	MenuItemID          string        `json:"menu_item_id"`
	Name                string        `json:"name"`
	Quantity            string        `json:"quantity"`
	Unit                string        `json:"unit"`
	CustomUnit          string        `json:"custom_unit"`
	MinimumThreshold    string        `json:"minimum_threshold"`
	ConsumptionPerOrder string        `json:"consumption_per_order"`
	MaxCapacity         string        `json:"max_capacity"`
	CostPerUnit         string        `json:"cost_per_unit"`
	Supplier            string        `json:"supplier"`
	IsTracked           *bool         `json:"is_tracked"`
	AutoDeduct          *bool         `json:"auto_deduct"`
	Links               []linkRequest `json:"links"`
}

type linkRequest struct {
	LinkedMenuItemID  string `json:"linked_menu_item_id"`
	Ratio             string `json:"ratio"`
	ReverseRatio      string `json:"reverse_ratio"`
	EnableReverseLink bool   `json:"enable_reverse_link"`
	InitialQuantity   string `json:"initial_quantity"`
}

type inventoryItemResponse struct {
	ID                  uuid.UUID             `json:"id"`
	MenuItemID          *uuid.UUID            `json:"menu_item_id"`
	Name                string                `json:"name"`
	Quantity            string                `json:"quantity"`
	Unit                string                `json:"unit"`
	CustomUnit          *string               `json:"custom_unit"`
	MinimumThreshold    string                `json:"minimum_threshold"`
	ConsumptionPerOrder string                `json:"consumption_per_order"`
	MaxCapacity         *string               `json:"max_capacity"`
	CostPerUnit         *string               `json:"cost_per_unit"`
	Supplier            *string               `json:"supplier"`
	IsTracked           bool                  `json:"is_tracked"`
	AutoDeduct          bool                  `json:"auto_deduct"`
	StockStatus         string                `json:"stock_status"`
	LinkedItems         []database.LinkedItem `json:"linked_items"`
	BaseInventoryID     *uuid.UUID            `json:"base_inventory_id"`
	BaseRatio           *string               `json:"base_ratio"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

func toInventoryItemResponse(item database.InventoryItem) inventoryItemResponse {
	resp := inventoryItemResponse{
		ID:                  item.ID,
		MenuItemID:          uuidOrNil(item.MenuItemID),
		Name:                item.Name,
		Quantity:            numericPlain(item.Quantity),
		Unit:                item.Unit,
		CustomUnit:          textOrNil(item.CustomUnit),
		MinimumThreshold:    numericPlain(item.MinimumThreshold),
		ConsumptionPerOrder: numericPlain(item.ConsumptionPerOrder),
		Supplier:            textOrNil(item.Supplier),
		IsTracked:           item.IsTracked,
		AutoDeduct:          item.AutoDeduct,
		StockStatus:         service.StockStatus(item.IsTracked, numericDecimal(item.Quantity), numericDecimal(item.MinimumThreshold)),
		LinkedItems:         item.LinkedItems,
		BaseInventoryID:     uuidOrNil(item.BaseInventoryID),
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
	if item.MaxCapacity.Valid {
		v := numericPlain(item.MaxCapacity)
		resp.MaxCapacity = &v
	}
	if item.CostPerUnit.Valid {
		v := numericString(item.CostPerUnit)
		resp.CostPerUnit = &v
	}
	if item.BaseRatio.Valid {
		v := numericPlain(item.BaseRatio)
		resp.BaseRatio = &v
	}
	return resp
}

type inventoryTransactionResponse struct {
	ID               uuid.UUID  `json:"id"`
	Type             string     `json:"type"`
	PreviousQuantity string     `json:"previous_quantity"`
	NewQuantity      string     `json:"new_quantity"`
	QuantityChange   string     `json:"quantity_change"`
	Reason           *string    `json:"reason"`
	Notes            *string    `json:"notes"`
	OrderID          *uuid.UUID `json:"order_id"`
	CreatedBy        uuid.UUID  `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toInventoryTransactionResponse(t database.InventoryTransaction) inventoryTransactionResponse {
	return inventoryTransactionResponse{
		ID:               t.ID,
		Type:             t.Type,
		PreviousQuantity: numericPlain(t.PreviousQuantity),
		NewQuantity:      numericPlain(t.NewQuantity),
		QuantityChange:   numericPlain(t.QuantityChange),
		Reason:           textOrNil(t.Reason),
		Notes:            textOrNil(t.Notes),
		OrderID:          uuidOrNil(t.OrderID),
		CreatedBy:        t.CreatedBy,
		CreatedAt:        t.CreatedAt,
	}
}

// --- Handlers ---

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	if data, ok := cache.GetCached(r.Context(), cache.InventoryKey(rid)); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	items, err := h.store.ListInventoryByRestaurant(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: list inventory: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]inventoryItemResponse, len(items))
	for i, item := range items {
		resp[i] = toInventoryItemResponse(item)
	}

	if data, err := json.Marshal(resp); err == nil {
		cache.SetCached(r.Context(), cache.InventoryKey(rid), data, cache.InventoryTTL)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	rid, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	item, err := h.store.GetInventoryItem(r.Context(), database.GetInventoryItemParams{ID: id, RestaurantID: rid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		log.Printf("ERROR: get inventory item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toInventoryItemResponse(item))
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req inventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, errMsg := buildInventoryParams(rid, req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	item, err := h.store.CreateInventoryItem(r.Context(), *params)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "menu item does not exist")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "menu item already has an inventory record")
			return
		}
		log.Printf("ERROR: create inventory item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Link requests attached to creation resolve best-effort after the item
	// exists, same as the dedicated links endpoint.
	if len(req.Links) > 0 {
		links, errMsg := buildLinkRequests(req.Links)
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg)
			return
		}
		result, err := h.svc.ResolveLinkedItems(r.Context(), h.store, item.ID, rid, links)
		if err != nil {
			log.Printf("ERROR: resolve links on create: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		item = result.Base
	}

	cache.InvalidateInventory(r.Context(), rid)
	writeJSON(w, http.StatusCreated, toInventoryItemResponse(item))
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	rid, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req inventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, errMsg := buildInventoryParams(rid, req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	current, err := h.store.GetInventoryItem(r.Context(), database.GetInventoryItemParams{ID: id, RestaurantID: rid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		log.Printf("ERROR: get inventory item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Quantity changes go through adjustments; link wiring goes through the
	// links endpoint. Update touches the descriptive fields only.
	item, err := h.store.UpdateInventoryItem(r.Context(), database.UpdateInventoryItemParams{
		ID:                  id,
		RestaurantID:        rid,
		Name:                params.Name,
		Unit:                params.Unit,
		CustomUnit:          params.CustomUnit,
		MinimumThreshold:    params.MinimumThreshold,
		ConsumptionPerOrder: params.ConsumptionPerOrder,
		MaxCapacity:         params.MaxCapacity,
		CostPerUnit:         params.CostPerUnit,
		Supplier:            params.Supplier,
		IsTracked:           params.IsTracked,
		AutoDeduct:          params.AutoDeduct,
		LinkedItems:         current.LinkedItems,
		BaseInventoryID:     current.BaseInventoryID,
		BaseRatio:           current.BaseRatio,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		log.Printf("ERROR: update inventory item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cache.InvalidateInventory(r.Context(), rid)
	writeJSON(w, http.StatusOK, toInventoryItemResponse(item))
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	if _, err := h.store.DeleteInventoryItem(r.Context(), database.DeleteInventoryItemParams{
		ID:           id,
		RestaurantID: rid,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		log.Printf("ERROR: delete inventory item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cache.InvalidateInventory(r.Context(), rid)
	w.WriteHeader(http.StatusNoContent)
}

type adjustRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

type adjustResponse struct {
	Item        inventoryItemResponse        `json:"item"`
	Transaction inventoryTransactionResponse `json:"transaction"`
}

func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	rid, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	result, err := h.svc.Adjust(r.Context(), service.AdjustmentRequest{
		InventoryID:  id,
		RestaurantID: rid,
		Type:         req.Type,
		Amount:       amount,
		Reason:       req.Reason,
		Notes:        req.Notes,
		ActorID:      claims.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAdjustmentType):
			writeError(w, http.StatusBadRequest, "invalid adjustment type")
		case errors.Is(err, service.ErrNegativeAmount):
			writeError(w, http.StatusBadRequest, "amount must not be negative")
		case errors.Is(err, service.ErrNegativeQuantity):
			writeError(w, http.StatusUnprocessableEntity, "adjustment would make quantity negative")
		case errors.Is(err, service.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "inventory item not found")
		default:
			log.Printf("ERROR: adjust inventory: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if result.WentLow && h.hub != nil {
		h.hub.BroadcastToRestaurant(rid, ws.NewEvent(ws.EventStockAlert, map[string]string{
			"inventory_id": result.Item.ID.String(),
			"name":         result.Item.Name,
			"quantity":     numericPlain(result.Item.Quantity),
			"status":       service.StockStatus(result.Item.IsTracked, numericDecimal(result.Item.Quantity), numericDecimal(result.Item.MinimumThreshold)),
		}))
	}

	cache.InvalidateInventory(r.Context(), rid)
	writeJSON(w, http.StatusOK, adjustResponse{
		Item:        toInventoryItemResponse(result.Item),
		Transaction: toInventoryTransactionResponse(result.Transaction),
	})
}

func (h *InventoryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	rid, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	params := database.ListInventoryTransactionsParams{
		InventoryID:  id,
		RestaurantID: rid,
		Limit:        50,
	}
	if t := r.URL.Query().Get("type"); t != "" {
		if !enum.ValidAdjustmentType(t) {
			writeError(w, http.StatusBadRequest, "invalid transaction type")
			return
		}
		params.Type = pgtype.Text{String: t, Valid: true}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be 1-500")
			return
		}
		params.Limit = int32(n)
	}

	txns, err := h.store.ListInventoryTransactions(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list inventory transactions: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	total, err := h.store.CountInventoryTransactions(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: count inventory transactions: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]inventoryTransactionResponse, len(txns))
	for i, t := range txns {
		resp[i] = toInventoryTransactionResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": resp,
		"total":        total,
	})
}

func (h *InventoryHandler) CreateInitialTransaction(w http.ResponseWriter, r *http.Request) {
	rid, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	txn, err := h.svc.CreateInitialTransaction(r.Context(), id, rid, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "inventory item not found")
		case errors.Is(err, service.ErrTransactionsExist):
			writeError(w, http.StatusConflict, "item already has transactions")
		default:
			log.Printf("ERROR: create initial transaction: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, toInventoryTransactionResponse(txn))
}

type setLinksRequest struct {
	Links []linkRequest `json:"links"`
}

type setLinksResponse struct {
	Item     inventoryItemResponse `json:"item"`
	Created  int                   `json:"created"`
	Patched  int                   `json:"patched"`
	Failures []string              `json:"failures"`
}

func (h *InventoryHandler) SetLinks(w http.ResponseWriter, r *http.Request) {
	rid, id, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req setLinksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	links, errMsg := buildLinkRequests(req.Links)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	result, err := h.svc.ResolveLinkedItems(r.Context(), h.store, id, rid, links)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "inventory item not found")
		case errors.Is(err, service.ErrInvalidRatio), errors.Is(err, service.ErrInvalidReverseRatio):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrMenuItemNotFound):
			writeError(w, http.StatusBadRequest, "linked menu item does not exist")
		default:
			log.Printf("ERROR: resolve inventory links: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	cache.InvalidateInventory(r.Context(), rid)
	if result.Failures == nil {
		result.Failures = []string{}
	}
	writeJSON(w, http.StatusOK, setLinksResponse{
		Item:     toInventoryItemResponse(result.Base),
		Created:  result.Created,
		Patched:  result.Patched,
		Failures: result.Failures,
	})
}

func (h *InventoryHandler) RepairLinks(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	fixed, err := h.svc.RepairLinks(r.Context(), h.store, rid)
	if err != nil {
		log.Printf("ERROR: repair inventory links: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cache.InvalidateInventory(r.Context(), rid)
	writeJSON(w, http.StatusOK, map[string]int{"fixed": fixed})
}

func (h *InventoryHandler) EnableAutoDeduct(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	updated, err := h.store.EnableAutoDeductForAll(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: enable auto deduct: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cache.InvalidateInventory(r.Context(), rid)
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// --- helpers ---

func (h *InventoryHandler) pathIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid inventory item ID")
		return uuid.Nil, uuid.Nil, false
	}
	return rid, id, true
}

func buildInventoryParams(rid uuid.UUID, req inventoryItemRequest) (*database.CreateInventoryItemParams, string) {
	if req.Name == "" {
		return nil, "name is required"
	}
	if !enum.ValidUnit(req.Unit) {
		return nil, "invalid unit"
	}
	if req.Unit == enum.UnitCustom && req.CustomUnit == "" {
		return nil, "custom_unit is required for custom unit"
	}

	params := &database.CreateInventoryItemParams{
		RestaurantID: rid,
		Name:         req.Name,
		Unit:         req.Unit,
		IsTracked:    true,
	}
	if req.IsTracked != nil {
		params.IsTracked = *req.IsTracked
	}
	if req.AutoDeduct != nil {
		params.AutoDeduct = *req.AutoDeduct
	}
	if req.MenuItemID != "" {
		id, err := uuid.Parse(req.MenuItemID)
		if err != nil {
			return nil, "invalid menu_item_id"
		}
		params.MenuItemID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if req.CustomUnit != "" {
		params.CustomUnit = pgtype.Text{String: req.CustomUnit, Valid: true}
	}
	if req.Supplier != "" {
		params.Supplier = pgtype.Text{String: req.Supplier, Valid: true}
	}

	var errMsg string
	params.Quantity, errMsg = moneyOrDefault(req.Quantity, "0", "invalid quantity")
	if errMsg != "" {
		return nil, errMsg
	}
	params.MinimumThreshold, errMsg = moneyOrDefault(req.MinimumThreshold, "0", "invalid minimum_threshold")
	if errMsg != "" {
		return nil, errMsg
	}
	params.ConsumptionPerOrder, errMsg = moneyOrDefault(req.ConsumptionPerOrder, "1", "invalid consumption_per_order")
	if errMsg != "" {
		return nil, errMsg
	}
	if req.MaxCapacity != "" {
		n, err := parseMoney(req.MaxCapacity)
		if err != nil {
			return nil, "invalid max_capacity"
		}
		params.MaxCapacity = n
	}
	if req.CostPerUnit != "" {
		n, err := parseMoney(req.CostPerUnit)
		if err != nil {
			return nil, "invalid cost_per_unit"
		}
		params.CostPerUnit = n
	}
	return params, ""
}

func moneyOrDefault(s, def, errMsg string) (pgtype.Numeric, string) {
	if s == "" {
		s = def
	}
	n, err := parseMoney(s)
	if err != nil {
		return pgtype.Numeric{}, errMsg
	}
	return n, ""
}

func buildLinkRequests(reqs []linkRequest) ([]service.LinkRequest, string) {
	links := make([]service.LinkRequest, 0, len(reqs))
	for _, lr := range reqs {
		menuItemID, err := uuid.Parse(lr.LinkedMenuItemID)
		if err != nil {
			return nil, "invalid linked_menu_item_id"
		}
		ratio, err := decimal.NewFromString(lr.Ratio)
		if err != nil || !ratio.IsPositive() {
			return nil, "ratio must be a positive number"
		}
		link := service.LinkRequest{
			LinkedMenuItemID:  menuItemID,
			Ratio:             ratio,
			EnableReverseLink: lr.EnableReverseLink,
		}
		if lr.ReverseRatio != "" {
			rr, err := decimal.NewFromString(lr.ReverseRatio)
			if err != nil || rr.IsNegative() {
				return nil, "reverse_ratio must not be negative"
			}
			link.ReverseRatio = rr
		}
		if lr.InitialQuantity != "" {
			iq, err := decimal.NewFromString(lr.InitialQuantity)
			if err != nil || iq.IsNegative() {
				return nil, "initial_quantity must not be negative"
			}
			link.InitialQuantity = iq
		}
		links = append(links, link)
	}
	return links, ""
}
