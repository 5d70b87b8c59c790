package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/db"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/seed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Env).With("service", "seed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = db.Close(gdb) }()

	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	s, err := seed.Run(ctx, gdb)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	logger.Info("seed_done",
		"users", s.Users,
		"categories", s.Categories,
		"products", s.Products,
	)
}
