package main

import (
	"fmt"
	"log"
	"net/http"

	"pulse/internal/api"
	"pulse/internal/api/handlers"
	"pulse/internal/api/middleware"
	"pulse/internal/engine/analytics"
	"pulse/internal/pkg/logger"
	"pulse/internal/platform/audit"
	"pulse/internal/platform/config"
	"pulse/internal/platform/database"
	"pulse/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Repositories and services
	appRepo := repositories.NewAppRepository(db)
	analyticsRepo := analytics.NewRepository(db)
	analyticsSvc := analytics.NewService(analyticsRepo)
	auditLog := audit.NewLogger(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(appRepo, auditLog)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(appRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:      authHandler,
		AnalyticsHandler: analyticsHandler,
		HealthHandler:    healthHandler,
		AuthMiddleware:   authMiddleware,
		RateLimiter:      rateLimiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
