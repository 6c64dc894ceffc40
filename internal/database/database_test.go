package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mediarise/referralbot/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DatabaseDriver: "sqlite3",
		DatabaseDSN:    filepath.Join(t.TempDir(), "test.db"),
	}
}

func TestConnectAndMigrate(t *testing.T) {
	cfg := testConfig(t)

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for _, table := range []string{"users", "referrals", "redemptions", "channels", "settings"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	// The seeded start message must not duplicate.
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings WHERE key = 'start_message'`).Scan(&count); err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 seeded start_message row, got %d", count)
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	cfg := testConfig(t)

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if err := Migrate(context.Background(), db, "postgres"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
