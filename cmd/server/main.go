package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/marketplace/internal/cache"
	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/db"
	"github.com/Skotchmaster/marketplace/internal/es"
	"github.com/Skotchmaster/marketplace/internal/httpserver"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/metrics"
	"github.com/Skotchmaster/marketplace/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/marketplace/internal/middleware/logging"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/storage"
	"github.com/Skotchmaster/marketplace/internal/tracing"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	cfg.MustValid()
	if cfg.IsProduction() {
		config.MustNonEmpty(cfg.PaymentSecret, "PAYMENT_WEBHOOK_SECRET")
	}

	logger := logging.New(cfg.LogLevel, cfg.Env).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	tp, err := tracing.Init(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	r := repo.New(gdb)

	var events mykafka.Publisher = mykafka.Noop{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var idem cache.IdempotencyStore = cache.NewMemory()
	var redisStore *cache.Redis
	if cfg.RedisAddr != "" {
		redisStore, err = cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, idempotencyTTL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		idem = redisStore
	}

	catalog := &service.CatalogService{Repo: r, Events: events}
	if cfg.ESURL != "" {
		client, err := es.NewClient(ctx, es.Options{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			logger.Warn("es_disabled", "reason", "connect failed", "error", err)
		} else {
			catalog.Index = es.NewProductIndex(client, cfg.ESIndex)
		}
	}

	gateway, err := storage.NewS3Gateway(ctx, storage.Config{
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		MaxFileSize:   cfg.Storage.MaxFileSize,
		MaxFiles:      cfg.Storage.MaxFiles,
	}, storage.S3Options{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.HTTPErrorHandler(cfg.IsProduction())
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-CSRF-Token", httpserver.HeaderIdempotencyKey},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", (cfg.Storage.MaxFileSize*int64(cfg.Storage.MaxFiles))/1024+1024)))
	e.Use(csrf.Middleware(csrf.Config{
		Secure:    cfg.IsProduction(),
		SkipPaths: []string{"/api/auth/login", "/api/auth/register", "/api/auth/refresh"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		AccessSecret: cfg.JWTAccessSecret,
		Health:       &httpserver.HealthHTTP{DB: gdb},
		Auth: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Repo:          r,
				AccessSecret:  cfg.JWTAccessSecret,
				RefreshSecret: cfg.JWTRefreshSecret,
				AccessTTL:     cfg.AccessTTL,
				RefreshTTL:    cfg.RefreshTTL,
			},
			Users:         &service.UserService{Repo: r},
			SecureCookies: cfg.IsProduction(),
		},
		Categories: &httpserver.CategoryHTTP{Svc: &service.CategoryService{Repo: r}},
		Catalog:    &httpserver.CatalogHTTP{Svc: catalog},
		Reviews:    &httpserver.ReviewHTTP{Svc: &service.ReviewService{Repo: r, Events: events}},
		Cart:       &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: events}},
		Orders: &httpserver.OrderHTTP{Svc: &service.OrderService{
			Repo:        r,
			Pricing:     cfg.Pricing,
			Idempotency: idem,
			Events:      events,
		}},
		Payments: &httpserver.PaymentHTTP{Svc: &service.PaymentService{Repo: r, Secret: []byte(cfg.PaymentSecret), Events: events}},
		Wishlist: &httpserver.WishlistHTTP{Svc: &service.WishlistService{Repo: r}},
		Uploads:  &httpserver.UploadHTTP{Svc: &service.UploadService{Storage: gateway, Repo: r}},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.Error("redis_close_failed", "error", err)
		}
	}
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing_shutdown_failed", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("shutdown_complete")
}
