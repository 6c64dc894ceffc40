package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mediarise/referralbot/internal/config"
)

// Connect opens the configured database. sqlite3 is the default and keeps the
// whole store in a single file; mysql is available for shared deployments
// (the DSN should include parseTime=true).
func Connect(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DatabaseDriver, err)
	}

	switch cfg.DatabaseDriver {
	case "sqlite3":
		// A single connection serializes writers; sqlite handles one at a time
		// anyway and this avoids SQLITE_BUSY under concurrent handlers.
		db.SetMaxOpenConns(1)
	default:
		db.SetConnMaxLifetime(time.Minute * 5)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DatabaseDriver, err)
	}

	return db, nil
}

// Migrate runs the bootstrap schema to ensure required tables exist. It is
// idempotent; statements run one at a time so both drivers accept them.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	statements, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
