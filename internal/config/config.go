package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Env         string
	ServiceName string
	LogLevel    string
	ServerPort  int
	CORSOrigins []string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JaegerEndpoint string

	Storage StorageConfig

	PaymentSecret string
	Pricing       Pricing
}

// StorageConfig is read once at start-up and handed to the upload gateway.
type StorageConfig struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	MaxFileSize   int64
	MaxFiles      int
}

type Pricing struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func Load() Config {
	return Config{
		Env:         EnvDefault("APP_ENV", "development"),
		ServiceName: EnvDefault("SERVICE_NAME", "marketplace"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		CORSOrigins: CSV(EnvDefault("CORS_ORIGINS", "*")),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:        EnvDurationDefault("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:       EnvDurationDefault("REFRESH_TTL", 7*24*time.Hour),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),

		Storage: StorageConfig{
			Bucket:        os.Getenv("STORAGE_BUCKET"),
			Endpoint:      EnvDefault("STORAGE_ENDPOINT", "https://storage.googleapis.com"),
			Region:        EnvDefault("STORAGE_REGION", "auto"),
			AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
			PublicBaseURL: EnvDefault("STORAGE_PUBLIC_BASE_URL", "https://storage.googleapis.com"),
			MaxFileSize:   int64(EnvIntDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)),
			MaxFiles:      EnvIntDefault("UPLOAD_MAX_FILES", 10),
		},

		PaymentSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		Pricing: Pricing{
			TaxRate:               EnvDecimalDefault("TAX_RATE", decimal.Zero),
			ShippingFee:           EnvDecimalDefault("SHIPPING_FEE", decimal.Zero),
			FreeShippingThreshold: EnvDecimalDefault("FREE_SHIPPING_THRESHOLD", decimal.Zero),
		},
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func EnvDecimalDefault(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}
