package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apiContext "pulse/internal/api/context"
	apperrors "pulse/internal/pkg/errors"
	"pulse/internal/platform/audit"
	"pulse/internal/platform/models"
	"pulse/internal/platform/repositories"
)

type AuthHandler struct {
	apps  *repositories.AppRepository
	audit *audit.Logger
}

func NewAuthHandler(apps *repositories.AppRepository, auditLog *audit.Logger) *AuthHandler {
	return &AuthHandler{apps: apps, audit: auditLog}
}

type RegisterRequest struct {
	Email string `json:"email"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
	APIKey  string `json:"api_key"`
}

// Register issues a fresh tenant id and API key for an email address.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, http.StatusBadRequest, "Valid email required")
		return
	}

	app, err := h.apps.Register(req.Email)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindStorage) {
			log.Error().Err(apperrors.Detail(err)).Msg("register failed")
		}
		apperrors.WriteDomainError(w, err)
		return
	}

	h.audit.Log(r, app.ID, "app.register", map[string]interface{}{"email": app.Email})

	apperrors.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Message: "Registered successfully",
		UserID:  app.ID,
		APIKey:  app.APIKey,
	})
}

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// GetAPIKey returns the authenticated tenant's own key.
func (h *AuthHandler) GetAPIKey(w http.ResponseWriter, r *http.Request) {
	app := r.Context().Value(apiContext.App).(*models.App)

	apperrors.WriteJSON(w, http.StatusOK, APIKeyResponse{APIKey: app.APIKey})
}

type RevokeResponse struct {
	Message string `json:"message"`
}

// Revoke permanently disables the authenticated tenant's key. Idempotent.
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	app := r.Context().Value(apiContext.App).(*models.App)

	if err := h.apps.Revoke(app.ID); err != nil {
		log.Error().Err(apperrors.Detail(err)).Int64("app_id", app.ID).Msg("revoke failed")
		apperrors.WriteDomainError(w, err)
		return
	}

	h.audit.Log(r, app.ID, "app.revoke", nil)

	apperrors.WriteJSON(w, http.StatusOK, RevokeResponse{Message: "API key revoked"})
}
