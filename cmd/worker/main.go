package main

import (
	"log"

	"pulse/internal/engine/analytics"
	"pulse/internal/pkg/logger"
	"pulse/internal/platform/config"
	"pulse/internal/platform/database"
	"pulse/internal/workers"
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

	repo := analytics.NewRepository(db)
	worker := workers.NewRollupWorker(repo, cfg.Worker.RollupInterval)

	log.Println("Starting rollup worker...")
	worker.Run()
}
