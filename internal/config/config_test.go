package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/crud.sqlite")
	t.Setenv("QUERY_CACHE_TTL", "30s")
	t.Setenv("STRICT_QUERY_PARAMS", "true")
	t.Setenv("AUTH_JWT_VALIDATION_TYPE", "hs256")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/crud.sqlite", cfg.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.StrictParams)
	assert.Equal(t, "HS256", cfg.Auth.JWT.ValidationType)
}

func TestLoadConfigFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongodb")
	t.Setenv("QUERY_CACHE_TTL", "soon")
	t.Setenv("BCRYPT_COST", "high")
	t.Setenv("AUTH_ENABLED", "maybe")

	cfg := LoadConfig()

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.Auth.Enabled)
}
