package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/db"
	"github.com/Skotchmaster/marketplace/internal/logging"
)

func main() {
	migrate := flag.Bool("migrate", false, "run schema migrations after a successful check")
	timeout := flag.Duration("timeout", 5*time.Second, "dial and query timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Env).With("service", "dbcheck")
	if cfg.DatabaseURL == "" {
		logger.Error("dbcheck_failed", "err", "DATABASE_URL is empty")
		os.Exit(1)
	}

	ctx := context.Background()
	res, err := db.Check(ctx, cfg.DatabaseURL, *timeout)
	if err != nil {
		logger.Error("dbcheck_failed", "addr", res.Address, "err", err, "hint", db.Hint(err))
		os.Exit(1)
	}
	logger.Info("dbcheck_ok", "addr", res.Address, "server_time", res.ServerTime, "version", res.Version)

	if !*migrate {
		return
	}
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = db.Close(gdb) }()
	if err := db.Migrate(gdb); err != nil {
		logger.Error("migrate_failed", "err", err)
		return
	}
	logger.Info("migrate_done")
}
