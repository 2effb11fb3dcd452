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
	"github.com/savoria-pos/api/internal/cache"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/savoria-pos/api/internal/ws"
)

// MenuStore defines the database methods needed by menu item handlers.
type MenuStore interface {
	ListMenuItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SoftDeleteMenuItem(ctx context.Context, arg database.SoftDeleteMenuItemParams) (uuid.UUID, error)
}

// MenuHandler handles menu item CRUD.
type MenuHandler struct {
	store MenuStore
	hub   *ws.Hub
}

func NewMenuHandler(store MenuStore, hub *ws.Hub) *MenuHandler {
	return &MenuHandler{store: store, hub: hub}
}

// menuChanged invalidates the menu snapshot and tells terminals to refetch.
func (h *MenuHandler) menuChanged(ctx context.Context, rid uuid.UUID) {
	cache.InvalidateMenu(ctx, rid)
	if h.hub != nil {
		h.hub.BroadcastToRestaurant(rid, ws.NewEvent(ws.EventMenuChanged, map[string]string{
			"restaurant_id": rid.String(),
		}))
	}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type variantOptionBody struct {
	Name          string `json:"name"`
	PriceModifier string `json:"price_modifier"`
	PricingType   string `json:"pricing_type"`
}

type variantGroupBody struct {
	Name    string              `json:"name"`
	Options []variantOptionBody `json:"options"`
}

type menuItemRequest struct {
	CategoryID      string             `json:"category_id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Price           string             `json:"price"`
	ImageURL        string             `json:"image_url"`
	IsAvailable     *bool              `json:"is_available"`
	PreparationTime *int32             `json:"preparation_time"`
	SpiceLevel      *int32             `json:"spice_level"`
	Allergens       []string           `json:"allergens"`
	Dietary         []string           `json:"dietary"`
	Tags            []string           `json:"tags"`
	Variants        []variantGroupBody `json:"variants"`
}

type menuItemResponse struct {
	ID              uuid.UUID                `json:"id"`
	CategoryID      uuid.UUID                `json:"category_id"`
	Name            string                   `json:"name"`
	Description     *string                  `json:"description"`
	Price           string                   `json:"price"`
	ImageURL        *string                  `json:"image_url"`
	IsAvailable     bool                     `json:"is_available"`
	PreparationTime *int32                   `json:"preparation_time"`
	SpiceLevel      *int32                   `json:"spice_level"`
	Allergens       []string                 `json:"allergens"`
	Dietary         []string                 `json:"dietary"`
	Tags            []string                 `json:"tags"`
	Variants        []database.VariantGroup  `json:"variants"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:          m.ID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Description: textOrNil(m.Description),
		Price:       numericString(m.Price),
		ImageURL:    textOrNil(m.ImageUrl),
		IsAvailable: m.IsAvailable,
		Allergens:   m.Allergens,
		Dietary:     m.Dietary,
		Tags:        m.Tags,
		Variants:    m.Variants,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.PreparationTime.Valid {
		v := m.PreparationTime.Int32
		resp.PreparationTime = &v
	}
	if m.SpiceLevel.Valid {
		v := m.SpiceLevel.Int32
		resp.SpiceLevel = &v
	}
	return resp
}

// parseVariants validates variant groups from a request body. Options default
// to additive pricing with a zero modifier; empty names are rejected rather
// than silently dropped (the import sheet path is more lenient).
func parseVariants(groups []variantGroupBody) ([]database.VariantGroup, error) {
	out := make([]database.VariantGroup, 0, len(groups))
	for _, g := range groups {
		if g.Name == "" {
			return nil, errors.New("variant group name is required")
		}
		if len(g.Options) == 0 {
			return nil, errors.New("variant group needs at least one option")
		}
		group := database.VariantGroup{Name: g.Name}
		for _, o := range g.Options {
			if o.Name == "" {
				return nil, errors.New("variant option name is required")
			}
			opt := database.VariantOption{
				Name:          o.Name,
				PriceModifier: "0",
				PricingType:   enum.PricingTypeAdditive,
			}
			if o.PriceModifier != "" {
				n, err := parseMoney(o.PriceModifier)
				if err != nil {
					return nil, errors.New("invalid price_modifier for option " + o.Name)
				}
				opt.PriceModifier = numericPlain(n)
			}
			switch o.PricingType {
			case "", enum.PricingTypeAdditive:
			case enum.PricingTypeStandalone:
				opt.PricingType = enum.PricingTypeStandalone
			default:
				return nil, errors.New("pricing_type must be additive or standalone")
			}
			group.Options = append(group.Options, opt)
		}
		out = append(out, group)
	}
	return out, nil
}

// --- Handlers ---

// List returns the full menu, served from the Redis snapshot when warm.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	if data, ok := cache.GetCached(r.Context(), cache.MenuKey(rid)); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	items, err := h.store.ListMenuItemsByRestaurant(r.Context(), rid)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}

	if data, err := json.Marshal(resp); err == nil {
		cache.SetCached(r.Context(), cache.MenuKey(rid), data, cache.MenuTTL)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), database.GetMenuItemParams{ID: id, RestaurantID: rid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	params, errMsg := h.paramsFromBody(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	params.RestaurantID = rid

	item, err := h.store.CreateMenuItem(r.Context(), *params)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "category does not exist")
			return
		}
		log.Printf("ERROR: create menu item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.menuChanged(r.Context(), rid)
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	params, errMsg := h.paramsFromBody(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:              id,
		RestaurantID:    rid,
		CategoryID:      params.CategoryID,
		Name:            params.Name,
		Description:     params.Description,
		Price:           params.Price,
		ImageUrl:        params.ImageUrl,
		IsAvailable:     params.IsAvailable,
		PreparationTime: params.PreparationTime,
		SpiceLevel:      params.SpiceLevel,
		Allergens:       params.Allergens,
		Dietary:         params.Dietary,
		Tags:            params.Tags,
		Variants:        params.Variants,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "category does not exist")
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.menuChanged(r.Context(), rid)
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	if _, err := h.store.SoftDeleteMenuItem(r.Context(), database.SoftDeleteMenuItemParams{
		ID:           id,
		RestaurantID: rid,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.menuChanged(r.Context(), rid)
	w.WriteHeader(http.StatusNoContent)
}

// paramsFromBody decodes and validates a menu item payload; returns a
// non-empty message on validation failure.
func (h *MenuHandler) paramsFromBody(r *http.Request) (*database.CreateMenuItemParams, string) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "invalid request body"
	}
	if req.Name == "" {
		return nil, "name is required"
	}
	if req.CategoryID == "" {
		return nil, "category_id is required"
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, "invalid category_id"
	}
	if req.Price == "" {
		return nil, "price is required"
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		return nil, "invalid price"
	}
	if req.SpiceLevel != nil && (*req.SpiceLevel < 0 || *req.SpiceLevel > 5) {
		return nil, "spice_level must be 0-5"
	}

	variants, err := parseVariants(req.Variants)
	if err != nil {
		return nil, err.Error()
	}

	params := &database.CreateMenuItemParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Price:       price,
		IsAvailable: true,
		Allergens:   req.Allergens,
		Dietary:     req.Dietary,
		Tags:        req.Tags,
		Variants:    variants,
	}
	if req.IsAvailable != nil {
		params.IsAvailable = *req.IsAvailable
	}
	if req.Description != "" {
		params.Description = pgtype.Text{String: req.Description, Valid: true}
	}
	if req.ImageURL != "" {
		params.ImageUrl = pgtype.Text{String: req.ImageURL, Valid: true}
	}
	if req.PreparationTime != nil {
		params.PreparationTime = pgtype.Int4{Int32: *req.PreparationTime, Valid: true}
	}
	if req.SpiceLevel != nil {
		params.SpiceLevel = pgtype.Int4{Int32: *req.SpiceLevel, Valid: true}
	}
	return params, ""
}
