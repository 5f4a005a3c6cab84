package database

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"pulse/internal/platform/config"
)

// dsn strips the file: scheme and fills in the default connection options.
// A URL that already carries options keeps them untouched.
func dsn(url string) string {
	d := strings.TrimPrefix(url, "file:")
	if strings.Contains(d, "?") {
		return d
	}
	return d + "?cache=shared&mode=rwc&_busy_timeout=5000"
}

// New opens the backing store from a single connection string and applies the
// pool bounds. Requests queue for a connection up to the driver timeout once
// the pool is exhausted.
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(cfg.URL))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
