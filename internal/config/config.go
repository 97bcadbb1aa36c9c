// Package config reads the process configuration from the environment,
// after loading an optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-storefront/pkg/database"
	"go-storefront/pkg/mail"
	"go-storefront/pkg/storage"
)

const (
	defaultJWTSecret     = "change-me-in-production"
	defaultAdminPassword = "admin123"
	defaultGuestPassword = "guest123"
)

type Config struct {
	AppEnv string
	Port   string

	DB database.Config

	JWTSecret  string
	SessionTTL time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	S3 storage.S3Config

	Mail mail.SMTPConfig
	// NotifyEmail receives the new-order notification. Defaults to the
	// SMTP username (the operator mailbox).
	NotifyEmail string

	// StrictOrderTransitions enforces the PENDING→PAID→SHIPPED→DELIVERED
	// graph on admin status updates. Off: any status may be set.
	StrictOrderTransitions bool
	// RestockOnCancel returns line quantities to stock when an order is
	// cancelled. Off: cancellation leaves stock untouched.
	RestockOnCancel bool

	AdminUIDir string

	SeedAdminEmail    string
	SeedAdminPassword string
	SeedGuestEmail    string
	SeedGuestPassword string
}

// Load reads .env (if present) and then the environment. The bool reports
// whether a .env file was found.
func Load() (Config, bool) {
	found := godotenv.Load() == nil
	return FromEnv(), found
}

// FromEnv reads the environment without touching .env.
func FromEnv() Config {
	cfg := Config{
		AppEnv: get("APP_ENV", "local"),
		Port:   get("PORT", "3000"),

		DB: database.Config{
			Driver: strings.ToLower(get("DB_DRIVER", "postgres")),
		},

		JWTSecret:  get("JWT_SECRET", defaultJWTSecret),
		SessionTTL: duration("SESSION_TTL", 24*time.Hour),

		RedisAddr:       get("REDIS_ADDR", ""),
		RedisPassword:   get("REDIS_PASSWORD", ""),
		RedisDB:         integer("REDIS_DB", 0),
		CatalogCacheTTL: duration("CATALOG_CACHE_TTL", 5*time.Minute),

		S3: storage.S3Config{
			Bucket:   get("S3_BUCKET", ""),
			Region:   get("S3_REGION", "us-east-1"),
			Key:      get("S3_KEY", ""),
			Secret:   get("S3_SECRET", ""),
			Endpoint: get("S3_ENDPOINT", ""),
			BaseURL:  get("S3_URL", ""),
		},

		Mail: mail.SMTPConfig{
			Host:     get("MAIL_HOST", "smtp.gmail.com"),
			Port:     get("MAIL_PORT", "587"),
			Username: get("MAIL_USERNAME", ""),
			Password: get("MAIL_PASSWORD", ""),
			From:     get("MAIL_FROM", ""),
			FromName: get("MAIL_FROM_NAME", "Storefront"),
		},
		NotifyEmail: get("ORDER_NOTIFY_EMAIL", ""),

		StrictOrderTransitions: boolean("STRICT_ORDER_TRANSITIONS", false),
		RestockOnCancel:        boolean("RESTOCK_ON_CANCEL", false),

		AdminUIDir: get("ADMIN_UI_DIR", ""),

		SeedAdminEmail:    get("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword: get("SEED_ADMIN_PASSWORD", defaultAdminPassword),
		SeedGuestEmail:    get("SEED_GUEST_EMAIL", "guest@example.com"),
		SeedGuestPassword: get("SEED_GUEST_PASSWORD", defaultGuestPassword),
	}

	switch cfg.DB.Driver {
	case "sqlite":
		cfg.DB.DSN = get("DATABASE_URL", "storefront.db")
	default:
		cfg.DB.DSN = database.DSNFromEnv()
	}

	if cfg.NotifyEmail == "" {
		cfg.NotifyEmail = cfg.Mail.Username
	}
	return cfg
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// InsecureSecret reports whether the JWT secret is still the default.
func (c Config) InsecureSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// DefaultAdminPassword reports whether the seeded admin still uses the
// well-known password.
func (c Config) DefaultAdminPassword() bool {
	return c.SeedAdminPassword == defaultAdminPassword
}

func (c Config) DefaultGuestPassword() bool {
	return c.SeedGuestPassword == defaultGuestPassword
}

func get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func boolean(key string, fallback bool) bool {
	b, err := strconv.ParseBool(get(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}

func integer(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return n
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, fallback.String()))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
