package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/quickbiz/quickbiz-api/internal/gateway/middleware"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/application"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	businessDomain "github.com/quickbiz/quickbiz-api/internal/modules/business/domain"
	"github.com/quickbiz/quickbiz-api/internal/shared/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxEventBody = 64 << 10

type AnalyticsHandler struct {
	service      application.AnalyticsService
	businessRepo businessDomain.BusinessRepository // Ownership checks
	logger       zerolog.Logger
}

func NewAnalyticsHandler(service application.AnalyticsService, businessRepo businessDomain.BusinessRepository, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		businessRepo: businessRepo,
		logger:       logger,
	}
}

type trackEventRequest struct {
	EventType domain.EventKind `json:"event_type"`
	Metadata  domain.Metadata  `json:"metadata"`
}

type revenueRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// writeServiceError maps analytics errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEventKind),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidMetadata):
		utils.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrUnknownTenant):
		utils.WriteError(w, http.StatusNotFound, "business not found", nil)
	case errors.Is(err, domain.ErrStorageFailure):
		utils.WriteError(w, http.StatusServiceUnavailable, "analytics temporarily unavailable", nil)
	default:
		utils.WriteError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func parseBusinessID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid business id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// authorizeOwner resolves the path business and checks the caller owns it.
// Inactive businesses are reported as missing, same as the service does.
func (h *AnalyticsHandler) authorizeOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	businessID, ok := parseBusinessID(w, r)
	if !ok {
		return uuid.Nil, false
	}

	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(uuid.UUID)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}

	business, err := h.businessRepo.GetByID(r.Context(), businessID)
	if errors.Is(err, businessDomain.ErrBusinessNotFound) || (err == nil && !business.IsActive) {
		utils.WriteError(w, http.StatusNotFound, "business not found", nil)
		return uuid.Nil, false
	}
	if err != nil {
		h.logger.Error().Err(err).Str("business_id", businessID.String()).Msg("ownership lookup failed")
		utils.WriteError(w, http.StatusServiceUnavailable, "analytics temporarily unavailable", nil)
		return uuid.Nil, false
	}
	if business.OwnerID != userID {
		utils.WriteError(w, http.StatusForbidden, "forbidden", nil)
		return uuid.Nil, false
	}
	return businessID, true
}

// daysParam reads ?days=, falling back to def when absent
func daysParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "days must be an integer", nil)
		return 0, false
	}
	return days, true
}

// TrackEvent is public: storefront pages report visits and views here
func (h *AnalyticsHandler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	businessID, ok := parseBusinessID(w, r)
	if !ok {
		return
	}

	var req trackEventRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, domain.ErrInvalidMetadata) {
			writeServiceError(w, err)
			return
		}
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	event, err := h.service.RecordEvent(r.Context(), businessID, req.EventType, RequestContextFrom(r), &req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, event)
}

func (h *AnalyticsHandler) RecordRevenue(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	var req revenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.service.RecordRevenue(r.Context(), businessID, req.Amount); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnalyticsHandler) GetPeriodStats(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}
	days, ok := daysParam(w, r, 7)
	if !ok {
		return
	}

	stats, err := h.service.PeriodStats(r.Context(), businessID, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}
	days, ok := daysParam(w, r, 7)
	if !ok {
		return
	}

	cmp, err := h.service.CompareStats(r.Context(), businessID, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cmp)
}

func (h *AnalyticsHandler) GetDailyBreakdown(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}
	days, ok := daysParam(w, r, 30)
	if !ok {
		return
	}

	rows, err := h.service.DailyBreakdown(r.Context(), businessID, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (h *AnalyticsHandler) GetLifetime(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetLifetimeStats(r.Context(), businessID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	dash, err := h.service.GetDashboard(r.Context(), businessID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, dash)
}
