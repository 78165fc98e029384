package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/limitrade/pkg/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	db, err := New(context.Background(), cfg.Database)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if !status.Healthy {
		t.Error("Expected database to be healthy")
	}
	if status.Stats.MaxConns == 0 {
		t.Error("Expected MaxConns to be greater than 0")
	}
}

func TestMigrateAndTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.Migrate(ctx, []string{
		`CREATE TEMP TABLE IF NOT EXISTS migrate_probe (id BIGINT PRIMARY KEY)`,
	})
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	// temp tables live per connection; a rolled back insert must leave nothing behind either way
	err = db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `CREATE TEMP TABLE tx_probe (id BIGINT)`); err != nil {
			return err
		}
		return context.Canceled
	})
	if err == nil {
		t.Error("Expected WithTx to surface the callback error")
	}
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := config.DatabaseConfig{
		URL:             "invalid://url",
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	_, err := New(context.Background(), cfg)
	if err == nil {
		t.Error("Expected error with invalid database URL, got nil")
	}
}

func TestClose_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// Double close should not panic
	db.Close()
	db.Close()
}
