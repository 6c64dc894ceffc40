package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mediarise/referralbot/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) DB() *sql.DB {
	return r.db
}

func (r *UserRepository) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	const query = `
SELECT user_id, COALESCE(username, ''), first_name, referral_code, referred_by, credits, total_referrals, joined_at
FROM users WHERE user_id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, userID))
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	const query = `
SELECT user_id, COALESCE(username, ''), first_name, referral_code, referred_by, credits, total_referrals, joined_at
FROM users WHERE referral_code = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, code))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var referredBy sql.NullInt64
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.ReferralCode, &referredBy, &u.Credits, &u.TotalReferrals, &u.JoinedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if referredBy.Valid {
		u.ReferredBy = &referredBy.Int64
	}
	return &u, nil
}

// Leaderboard returns the top referrers, best first. Users with zero
// referrals never appear; ties are broken by user id so the order is
// deterministic for a given table state.
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	const query = `
SELECT user_id, COALESCE(username, ''), first_name, total_referrals
FROM users
WHERE total_referrals > 0
ORDER BY total_referrals DESC, user_id ASC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.FirstName, &e.TotalReferrals); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Rank is 1 + the number of users with a strictly greater referral count.
// Tied users therefore share the same rank value; that matches the product
// behavior, it is not a bug.
func (r *UserRepository) Rank(ctx context.Context, userID int64) (int, error) {
	const query = `
SELECT COUNT(*) + 1
FROM users
WHERE total_referrals > (SELECT total_referrals FROM users WHERE user_id = ?)`
	var rank int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&rank); err != nil {
		return 0, fmt.Errorf("query rank: %w", err)
	}
	return rank, nil
}

func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT user_id FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) Stats(ctx context.Context) (models.Stats, error) {
	var s models.Stats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.TotalUsers); err != nil {
		return models.Stats{}, fmt.Errorf("count users: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM referrals`).Scan(&s.TotalReferrals); err != nil {
		return models.Stats{}, fmt.Errorf("count referrals: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM redemptions`).Scan(&s.TotalRedemptions); err != nil {
		return models.Stats{}, fmt.Errorf("count redemptions: %w", err)
	}
	return s, nil
}

// ListReferrals returns the referral facts credited to a referrer, newest
// first. Used by the audit surface; registration writes these rows itself.
func (r *UserRepository) ListReferrals(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	const query = `
SELECT id, referrer_id, referred_id, created_at
FROM referrals WHERE referrer_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	var refs []models.Referral
	for rows.Next() {
		var ref models.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
