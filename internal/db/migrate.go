package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"CrudAPI/internal/config"
	"CrudAPI/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationURL is the golang-migrate database URL of the configured store.
func MigrationURL(cfg *config.Config) string {
	if cfg.StoreDriver == config.DriverSQLite {
		return "sqlite3://" + filepath.ToSlash(cfg.SQLitePath)
	}
	return cfg.PostgresDSN
}

// ApplyMigrations runs every pending up-migration found in dir.
func ApplyMigrations(dir, databaseURL string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("abs migrations: %w", err)
	}
	// golang-migrate с file:// требует абсолютный путь и прямые слэши
	src := "file://" + filepath.ToSlash(abs)

	m, err := migrate.New(src, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations_up_to_date", map[string]any{"dir": abs})
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	logger.Info("migrations_applied", map[string]any{"dir": abs, "version": version, "dirty": dirty})
	return nil
}
