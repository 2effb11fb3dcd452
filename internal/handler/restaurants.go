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
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// RestaurantStore defines the database methods needed by restaurant handlers.
type RestaurantStore interface {
	ListRestaurants(ctx context.Context) ([]database.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	UpdateRestaurant(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error)
}

// RestaurantHandler handles platform-admin tenant management.
type RestaurantHandler struct {
	store     RestaurantStore
	provision *service.ProvisionService
}

func NewRestaurantHandler(store RestaurantStore, provision *service.ProvisionService) *RestaurantHandler {
	return &RestaurantHandler{store: store, provision: provision}
}

// RegisterRoutes registers admin tenant endpoints. Mounted under /admin,
// behind the ADMIN role check.
func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Get("/restaurants", h.List)
	r.Post("/restaurants", h.Provision)
	r.Get("/restaurants/{id}", h.Get)
	r.Put("/restaurants/{id}", h.Update)
}

type provisionRequest struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Currency      string `json:"currency"`
	TaxRate       string `json:"tax_rate"`
	OwnerName     string `json:"owner_name"`
	OwnerEmail    string `json:"owner_email"`
	OwnerPassword string `json:"owner_password"`
}

type restaurantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	TaxRate   string    `json:"tax_rate"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRestaurantResponse(r database.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		TaxRate:   numericPlain(r.TaxRate),
		Currency:  r.Currency,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Provision creates a restaurant and its owner account in one shot.
func (h *RestaurantHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.OwnerEmail == "" || req.OwnerName == "" {
		writeError(w, http.StatusBadRequest, "owner_name and owner_email are required")
		return
	}

	var taxRate *decimal.Decimal
	if req.TaxRate != "" {
		d, err := decimal.NewFromString(req.TaxRate)
		if err != nil || d.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid tax_rate")
			return
		}
		taxRate = &d
	}

	result, err := h.provision.Provision(r.Context(), service.ProvisionRequest{
		Name:          req.Name,
		Slug:          req.Slug,
		Currency:      req.Currency,
		TaxRate:       taxRate,
		OwnerName:     req.OwnerName,
		OwnerEmail:    req.OwnerEmail,
		OwnerPassword: req.OwnerPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "owner_password must be at least 8 characters")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "owner_email already registered")
		case errors.Is(err, service.ErrSlugTaken):
			writeError(w, http.StatusConflict, "slug already in use")
		default:
			log.Printf("ERROR: provision restaurant: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"restaurant": toRestaurantResponse(result.Restaurant),
		"owner":      toUserResponse(result.Owner),
	})
}

func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.store.ListRestaurants(r.Context())
	if err != nil {
		log.Printf("ERROR: list restaurants: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]restaurantResponse, len(restaurants))
	for i, rest := range restaurants {
		resp[i] = toRestaurantResponse(rest)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	restaurant, err := h.store.GetRestaurant(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		log.Printf("ERROR: get restaurant: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

type updateRestaurantRequest struct {
	Name     string `json:"name"`
	TaxRate  string `json:"tax_rate"`
	Currency string `json:"currency"`
	IsActive *bool  `json:"is_active"`
}

func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req updateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	taxRate, err := parseMoney(req.TaxRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tax_rate")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	restaurant, err := h.store.UpdateRestaurant(r.Context(), database.UpdateRestaurantParams{
		ID:       id,
		Name:     req.Name,
		TaxRate:  taxRate,
		Currency: req.Currency,
		IsActive: isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "restaurant not found")
			return
		}
		log.Printf("ERROR: update restaurant: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}
