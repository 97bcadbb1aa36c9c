package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "DB_DRIVER", "JWT_SECRET", "SESSION_TTL",
		"STRICT_ORDER_TRANSITIONS", "RESTOCK_ON_CANCEL", "MAIL_USERNAME", "ORDER_NOTIFY_EMAIL",
		"SEED_ADMIN_PASSWORD", "SEED_GUEST_PASSWORD"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.StrictOrderTransitions)
	assert.False(t, cfg.RestockOnCancel)
	assert.True(t, cfg.InsecureSecret())
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.DefaultAdminPassword())
	assert.True(t, cfg.DefaultGuestPassword())

	t.Setenv("SEED_ADMIN_PASSWORD", "long-random-value")
	assert.False(t, FromEnv().DefaultAdminPassword())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file:shop.db")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("STRICT_ORDER_TRANSITIONS", "true")
	t.Setenv("RESTOCK_ON_CANCEL", "1")
	t.Setenv("MAIL_USERNAME", "owner@example.com")
	t.Setenv("ORDER_NOTIFY_EMAIL", "")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := FromEnv()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file:shop.db", cfg.DB.DSN)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.StrictOrderTransitions)
	assert.True(t, cfg.RestockOnCancel)
	assert.Equal(t, "owner@example.com", cfg.NotifyEmail)
	assert.Equal(t, 0, cfg.RedisDB)
}
