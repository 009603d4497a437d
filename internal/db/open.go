// Package db opens the configured SQL engine, Redis and migrations.
package db

import (
	"context"
	"database/sql"

	"CrudAPI/internal/config"
	"CrudAPI/internal/store"
)

// Open connects to the configured engine and returns the matching dialect.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, store.Dialect, func(), error) {
	if cfg.StoreDriver == config.DriverSQLite {
		db, closeFn, err := OpenSQLite(ctx, cfg.SQLitePath)
		return db, store.SQLite, closeFn, err
	}
	db, closeFn, err := OpenPostgres(ctx, cfg.PostgresDSN)
	return db, store.Postgres, closeFn, err
}
