// Package db opens the Postgres pool behind the user and note repositories.
//
// DB_DRIVER=memory runs the server on the in-memory repositories in
// internal/store and never reaches this package; Open and migrations refuse
// that driver with ErrInMemory.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/notekeeper/apiserver/config"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrInMemory is returned when the configuration selects the in-memory store.
var ErrInMemory = errors.New("database driver is memory, no postgres connection configured")

// Connection pool limits.
const (
	pingTimeout     = 5 * time.Second
	connMaxIdleTime = 2 * time.Minute
	connMaxLifetime = 30 * time.Minute
	maxIdleConns    = 5
	maxOpenConns    = 25
)

// PostgresURL builds the lib/pq connection URL shared by the server, the
// migrate command and the end-to-end suite. Credentials are URL-escaped.
func PostgresURL(cfg config.DatabaseConfig) string {
	q := url.Values{}
	q.Set("sslmode", sslMode(cfg.UseSSL))

	return (&url.URL{
		Scheme:   DriverPostgres,
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     cfg.DBName,
		RawQuery: q.Encode(),
	}).String()
}

// RequirePostgres reports ErrInMemory for the memory driver and an error for
// any driver other than postgres.
func RequirePostgres(cfg config.DatabaseConfig) error {
	switch cfg.Driver {
	case DriverPostgres, "":
		return nil
	case DriverMemory:
		return ErrInMemory
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects to Postgres and verifies the connection before returning.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if err := RequirePostgres(cfg); err != nil {
		return nil, err
	}

	conn, err := sql.Open(DriverPostgres, PostgresURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	conn.SetConnMaxIdleTime(connMaxIdleTime)
	conn.SetConnMaxLifetime(connMaxLifetime)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetMaxOpenConns(maxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return conn, nil
}

func sslMode(useSSL bool) string {
	if useSSL {
		return "require"
	}
	return "disable"
}
