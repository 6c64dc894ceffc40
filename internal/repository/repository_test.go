package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mediarise/referralbot/internal/database"
)

// newTestDB opens a sqlite database in a temp dir with the real schema
// applied, mirroring the production connection settings.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(context.Background(), db, "sqlite3"); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, id int64, username, firstName, code string, credits, totalReferrals int) {
	t.Helper()
	const query = `
INSERT INTO users (user_id, username, first_name, referral_code, credits, total_referrals, joined_at)
VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?)`
	if _, err := db.Exec(query, id, username, firstName, code, credits, totalReferrals, time.Now().UTC()); err != nil {
		t.Fatalf("seed user %d: %v", id, err)
	}
}

func seedReferral(t *testing.T, db *sql.DB, referrerID, referredID int64) {
	t.Helper()
	const query = `INSERT INTO referrals (referrer_id, referred_id, created_at) VALUES (?, ?, ?)`
	if _, err := db.Exec(query, referrerID, referredID, time.Now().UTC()); err != nil {
		t.Fatalf("seed referral %d->%d: %v", referrerID, referredID, err)
	}
}

func seedRedemption(t *testing.T, db *sql.DB, userID int64, code string, creditsUsed int) {
	t.Helper()
	const query = `INSERT INTO redemptions (user_id, code, credits_used, created_at) VALUES (?, ?, ?, ?)`
	if _, err := db.Exec(query, userID, code, creditsUsed, time.Now().UTC()); err != nil {
		t.Fatalf("seed redemption for %d: %v", userID, err)
	}
}
