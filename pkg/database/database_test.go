package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteMemory(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", DSN: "file:conn_test?mode=memory&cache=shared"})
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Row().Scan(&one))
	assert.Equal(t, 1, one)
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "store")
	t.Setenv("DB_PORT", "5432")
	assert.Equal(t, "host=db user=shop password=pw dbname=store port=5432 sslmode=disable TimeZone=UTC", DSNFromEnv())

	t.Setenv("DATABASE_URL", "postgres://u:p@h/d")
	assert.Equal(t, "postgres://u:p@h/d", DSNFromEnv())
}
