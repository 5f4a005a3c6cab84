package main

import (
	"context"
	"flag"
	"log"

	"pulse/internal/platform/config"
	"pulse/internal/platform/database"
	"pulse/migrations"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	switch *direction {
	case "up":
		err = migrations.Up(ctx, db)
	case "down":
		err = migrations.Down(ctx, db)
	default:
		log.Fatal("Invalid direction: must be 'up' or 'down'")
	}
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Migration completed successfully")
}
