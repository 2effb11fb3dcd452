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
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/savoria-pos/api/internal/service"
)

// SpinWheelStore defines the database methods needed by spin wheel handlers.
type SpinWheelStore interface {
	GetSpinWheelByRestaurant(ctx context.Context, restaurantID uuid.UUID) (database.SpinWheel, error)
	UpsertSpinWheel(ctx context.Context, arg database.UpsertSpinWheelParams) (database.SpinWheel, error)
}

// SpinWheelHandler handles wheel configuration and customer spins.
type SpinWheelHandler struct {
	store SpinWheelStore
	svc   *service.SpinService
}

func NewSpinWheelHandler(store SpinWheelStore, svc *service.SpinService) *SpinWheelHandler {
	return &SpinWheelHandler{store: store, svc: svc}
}

func (h *SpinWheelHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Upsert)
	r.Post("/spin", h.Spin)
}

type spinSegmentBody struct {
	Label      string `json:"label"`
	RewardType string `json:"reward_type"`
	Value      string `json:"value"`
	Weight     int32  `json:"weight"`
}

type spinWheelRequest struct {
	Name     string            `json:"name"`
	Segments []spinSegmentBody `json:"segments"`
}

type spinWheelResponse struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Segments  []database.SpinSegment `json:"segments"`
	IsActive  bool                   `json:"is_active"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func toSpinWheelResponse(wh database.SpinWheel) spinWheelResponse {
	return spinWheelResponse{
		ID:        wh.ID,
		Name:      wh.Name,
		Segments:  wh.Segments,
		IsActive:  wh.IsActive,
		UpdatedAt: wh.UpdatedAt,
	}
}

func (h *SpinWheelHandler) Get(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	wheel, err := h.store.GetSpinWheelByRestaurant(r.Context(), rid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no spin wheel configured")
			return
		}
		log.Printf("ERROR: get spin wheel: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSpinWheelResponse(wheel))
}

func (h *SpinWheelHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req spinWheelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Segments) == 0 {
		writeError(w, http.StatusBadRequest, "wheel needs at least one segment")
		return
	}

	segments := make([]database.SpinSegment, 0, len(req.Segments))
	hasWeight := false
	for _, s := range req.Segments {
		if s.Label == "" {
			writeError(w, http.StatusBadRequest, "segment label is required")
			return
		}
		if s.Weight < 0 {
			writeError(w, http.StatusBadRequest, "segment weight must not be negative")
			return
		}
		if s.Weight > 0 {
			hasWeight = true
		}
		switch s.RewardType {
		case enum.RewardTypeNone:
		case enum.RewardTypePoints:
			if n, err := strconv.Atoi(s.Value); err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "points segment needs a positive integer value")
				return
			}
		case enum.RewardTypeCoupon:
			if s.Value == "" {
				writeError(w, http.StatusBadRequest, "coupon segment needs a coupon code value")
				return
			}
		default:
			writeError(w, http.StatusBadRequest, "reward_type must be points, coupon or none")
			return
		}
		segments = append(segments, database.SpinSegment{
			Label:      s.Label,
			RewardType: s.RewardType,
			Value:      s.Value,
			Weight:     s.Weight,
		})
	}
	if !hasWeight {
		writeError(w, http.StatusBadRequest, "wheel needs at least one segment with positive weight")
		return
	}

	wheel, err := h.store.UpsertSpinWheel(r.Context(), database.UpsertSpinWheelParams{
		RestaurantID: rid,
		Name:         req.Name,
		Segments:     segments,
	})
	if err != nil {
		log.Printf("ERROR: upsert spin wheel: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSpinWheelResponse(wheel))
}

type spinRequest struct {
	CustomerID string `json:"customer_id"`
}

type spinResponse struct {
	SegmentLabel  string     `json:"segment_label"`
	RewardType    string     `json:"reward_type"`
	RewardValue   *string    `json:"reward_value"`
	CouponID      *uuid.UUID `json:"coupon_id"`
	PointsAwarded int32      `json:"points_awarded"`
}

func (h *SpinWheelHandler) Spin(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	var req spinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}

	outcome, err := h.svc.Spin(r.Context(), rid, customerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoWheel):
			writeError(w, http.StatusNotFound, "no active spin wheel")
		case errors.Is(err, service.ErrCustomerNotFound):
			writeError(w, http.StatusNotFound, "customer not found")
		case errors.Is(err, service.ErrAlreadySpunToday):
			writeError(w, http.StatusConflict, "customer already spun today")
		case errors.Is(err, service.ErrEmptyWheel), errors.Is(err, service.ErrBadSegment):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			log.Printf("ERROR: spin wheel: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, spinResponse{
		SegmentLabel:  outcome.Result.SegmentLabel,
		RewardType:    outcome.Result.RewardType,
		RewardValue:   textOrNil(outcome.Result.RewardValue),
		CouponID:      uuidOrNil(outcome.Result.CouponID),
		PointsAwarded: outcome.PointsAwarded,
	})
}
