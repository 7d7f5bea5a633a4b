// Package db persists extraction records and operator accounts.
// Persistence is optional: without configuration the service runs in
// extract-only mode and the handlers skip every database call.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the shared connection pool; nil when persistence is disabled.
var Pool *pgxpool.Pool

// connString resolves the connection string. DATABASE_URL wins
// outright; otherwise one is assembled from the discrete DB_* vars,
// and "" means no database was configured at all.
func connString() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if host == "" || user == "" || name == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		user, os.Getenv("DB_PASSWORD"), host, port, name)
}

// Init connects the pool. A missing configuration is reported as an
// error so the caller can log the degraded mode, but it is not fatal.
func Init() error {
	url := connString()
	if url == "" {
		log.Println("No database configuration found - running in extract-only mode")
		return fmt.Errorf("no database configuration")
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Pool sizing for a PgBouncer front end.
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	Pool = pool
	log.Println("Database connection pool initialized successfully")
	return nil
}

// Close releases the pool on shutdown.
func Close() {
	if Pool != nil {
		Pool.Close()
		log.Println("Database connection pool closed")
	}
}

// GetPool returns the current connection pool
func GetPool() *pgxpool.Pool {
	return Pool
}
