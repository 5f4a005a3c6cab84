package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	apiContext "pulse/internal/api/context"
	apperrors "pulse/internal/pkg/errors"
	"pulse/internal/platform/repositories"
)

// AuthMiddleware validates the x-api-key header against the tenant registry
// on every request. No caching: a revocation takes effect on the next call.
type AuthMiddleware struct {
	apps *repositories.AppRepository
}

func NewAuthMiddleware(apps *repositories.AppRepository) *AuthMiddleware {
	return &AuthMiddleware{apps: apps}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("x-api-key")
		if apiKey == "" {
			apperrors.WriteDomainError(w, apperrors.Auth("x-api-key header required"))
			return
		}

		app, err := m.apps.GetByAPIKey(apiKey)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				apperrors.WriteDomainError(w, apperrors.Auth("Invalid or revoked API key"))
				return
			}
			log.Error().Err(apperrors.Detail(err)).Msg("auth lookup failed")
			apperrors.WriteError(w, http.StatusInternalServerError, "Authentication failed")
			return
		}

		// A revoked key is indistinguishable from an unknown one so callers
		// cannot probe for tenant existence.
		if app.Revoked {
			apperrors.WriteDomainError(w, apperrors.Auth("Invalid or revoked API key"))
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.App, app)
		next(w, r.WithContext(ctx))
	}
}
