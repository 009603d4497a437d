package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (and creates) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, func(), error) {
	if path == "" {
		return nil, nil, fmt.Errorf("sqlite path is empty")
	}
	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")

	db, err := sql.Open("sqlite3", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	// один писатель: sqlite блокирует файл целиком
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}
