package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	apiContext "pulse/internal/api/context"
	"pulse/internal/engine/analytics"
	apperrors "pulse/internal/pkg/errors"
	"pulse/internal/platform/models"
)

type AnalyticsHandler struct {
	service *analytics.Service
}

func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

type CollectResponse struct {
	Message string `json:"message"`
}

// Collect ingests one event for the authenticated tenant.
func (h *AnalyticsHandler) Collect(w http.ResponseWriter, r *http.Request) {
	app := r.Context().Value(apiContext.App).(*models.App)

	var req analytics.CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.service.Collect(app.ID, &req); err != nil {
		if apperrors.IsKind(err, apperrors.KindStorage) {
			log.Error().Err(apperrors.Detail(err)).Int64("app_id", app.ID).Msg("collect failed")
		}
		apperrors.WriteDomainError(w, err)
		return
	}

	apperrors.WriteJSON(w, http.StatusCreated, CollectResponse{Message: "Event collected"})
}

// EventSummary serves count, unique-user count and device breakdown for one
// event type, scoped to the calling tenant.
func (h *AnalyticsHandler) EventSummary(w http.ResponseWriter, r *http.Request) {
	app := r.Context().Value(apiContext.App).(*models.App)

	query := r.URL.Query()
	filters := analytics.Filters{
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	}

	if raw := query.Get("app_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apperrors.WriteError(w, http.StatusBadRequest, "app_id must be an integer")
			return
		}
		filters.AppID = &id
	}

	summary, err := h.service.EventSummary(app.ID, query.Get("event"), filters)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindStorage) {
			log.Error().Err(apperrors.Detail(err)).Int64("app_id", app.ID).Msg("event summary failed")
		}
		apperrors.WriteDomainError(w, err)
		return
	}

	apperrors.WriteJSON(w, http.StatusOK, summary)
}

// UserStats serves the representative device/IP row for one external user.
func (h *AnalyticsHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	app := r.Context().Value(apiContext.App).(*models.App)

	stats, err := h.service.UserStats(app.ID, r.URL.Query().Get("userId"))
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindStorage) {
			log.Error().Err(apperrors.Detail(err)).Int64("app_id", app.ID).Msg("user stats failed")
		}
		apperrors.WriteDomainError(w, err)
		return
	}

	apperrors.WriteJSON(w, http.StatusOK, stats)
}
