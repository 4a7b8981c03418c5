package storage

import (
	"context"
	"testing"
	"time"

	"github.com/wallet-feed/internal/config"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// setupTestDB connects to the local dev database, skipping the test when
// Postgres is not reachable. Integration tests assume migrations have
// been applied.
func setupTestDB(t *testing.T) *PostgresDB {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := &config.PostgresConfig{
		Host:           "localhost",
		Port:           "5432",
		Database:       "wallet_feed",
		User:           "feed",
		Password:       "feed_dev_password",
		MaxConnections: 10,
	}

	db, err := NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
		return nil
	}
	t.Cleanup(db.Close)

	if err := db.Ping(testContext(t)); err != nil {
		t.Skipf("Skipping test - Postgres not responding: %v", err)
		return nil
	}

	return db
}
