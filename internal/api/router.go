package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "pulse/internal/api/context"
	"pulse/internal/api/handlers"
	"pulse/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	HealthHandler    *handlers.HealthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	RateLimiter      *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	rateMid := deps.RateLimiter

	// Liveness
	router.GET("/", wrap(deps.HealthHandler.Root))
	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Tenant registration and key management
	router.POST("/api/auth/register",
		chain(deps.AuthHandler.Register, middleware.RequestLog))
	router.GET("/api/auth/api-key",
		chain(deps.AuthHandler.GetAPIKey, middleware.RequestLog, authMid.Handle))
	router.POST("/api/auth/revoke",
		chain(deps.AuthHandler.Revoke, middleware.RequestLog, authMid.Handle))

	// Event collection and aggregates. The limiter runs before auth so
	// rejected requests never hit the registry or the store.
	router.POST("/api/analytics/collect",
		chain(deps.AnalyticsHandler.Collect, middleware.RequestLog, rateMid.Handle, authMid.Handle))
	router.GET("/api/analytics/event-summary",
		chain(deps.AnalyticsHandler.EventSummary, middleware.RequestLog, authMid.Handle))
	router.GET("/api/analytics/user-stats",
		chain(deps.AnalyticsHandler.UserStats, middleware.RequestLog, authMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
