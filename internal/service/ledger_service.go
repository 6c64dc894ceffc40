package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mediarise/referralbot/internal/models"
	"github.com/mediarise/referralbot/internal/repository"
)

var ErrSelfReferral = errors.New("self referral")
var ErrInsufficientCredits = errors.New("insufficient credits")

// LedgerService owns the referral bookkeeping: registration with referrer
// crediting, redemption, rankings. Every multi-row mutation runs in a single
// transaction so concurrent handlers cannot interleave into a lost update.
type LedgerService struct {
	users       *repository.UserRepository
	redemptions *repository.RedemptionRepository
	reward      int
	threshold   int
}

func NewLedgerService(users *repository.UserRepository, redemptions *repository.RedemptionRepository, reward, threshold int) *LedgerService {
	return &LedgerService{users: users, redemptions: redemptions, reward: reward, threshold: threshold}
}

func (s *LedgerService) Reward() int    { return s.reward }
func (s *LedgerService) Threshold() int { return s.threshold }

// Register creates the user on first contact and returns the stored row. The
// second return value is false when the user already existed, in which case
// nothing is written and no referral is credited. A referrer code that does
// not resolve is silently ignored; a code resolving to the caller themselves
// is ErrSelfReferral and nothing is written.
func (s *LedgerService) Register(ctx context.Context, userID int64, username, firstName, referrerCode string) (*models.User, bool, error) {
	existing, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	var referrer *models.User
	if code := strings.TrimSpace(referrerCode); code != "" {
		referrer, err = s.users.FindByReferralCode(ctx, code)
		if err != nil {
			return nil, false, fmt.Errorf("resolve referral code: %w", err)
		}
		if referrer != nil && referrer.ID == userID {
			return nil, false, ErrSelfReferral
		}
	}

	user := &models.User{
		ID:           userID,
		Username:     username,
		FirstName:    firstName,
		ReferralCode: newReferralCode(),
		JoinedAt:     time.Now().UTC(),
	}
	if referrer != nil {
		id := referrer.ID
		user.ReferredBy = &id
	}

	tx, err := s.users.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("begin register tx: %w", err)
	}
	defer tx.Rollback()

	const insertUser = `
INSERT INTO users (user_id, username, first_name, referral_code, referred_by, joined_at)
VALUES (?, NULLIF(?, ''), ?, ?, ?, ?)`
	var referredBy any
	if user.ReferredBy != nil {
		referredBy = *user.ReferredBy
	}
	if _, err := tx.ExecContext(ctx, insertUser, user.ID, user.Username, user.FirstName, user.ReferralCode, referredBy, user.JoinedAt); err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}

	if referrer != nil {
		const insertReferral = `INSERT INTO referrals (referrer_id, referred_id, created_at) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insertReferral, referrer.ID, user.ID, user.JoinedAt); err != nil {
			return nil, false, fmt.Errorf("insert referral: %w", err)
		}
		const creditReferrer = `
UPDATE users SET credits = credits + ?, total_referrals = total_referrals + 1
WHERE user_id = ?`
		if _, err := tx.ExecContext(ctx, creditReferrer, s.reward, referrer.ID); err != nil {
			return nil, false, fmt.Errorf("credit referrer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit register tx: %w", err)
	}
	return user, true, nil
}

// Redeem exchanges exactly the threshold worth of credits for a fresh reward
// code. The decrement is conditional on the balance, so two racing attempts
// against a balance that covers only one cannot both succeed.
func (s *LedgerService) Redeem(ctx context.Context, userID int64) (string, error) {
	tx, err := s.users.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("begin redeem tx: %w", err)
	}
	defer tx.Rollback()

	const debit = `UPDATE users SET credits = credits - ? WHERE user_id = ? AND credits >= ?`
	res, err := tx.ExecContext(ctx, debit, s.threshold, userID, s.threshold)
	if err != nil {
		return "", fmt.Errorf("debit credits: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("debit rows affected: %w", err)
	}
	if affected == 0 {
		return "", ErrInsufficientCredits
	}

	code := newRedemptionCode()
	const insert = `INSERT INTO redemptions (user_id, code, credits_used, created_at) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, userID, code, s.threshold, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit redeem tx: %w", err)
	}
	return code, nil
}

func (s *LedgerService) Find(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *LedgerService) ResolveReferralCode(ctx context.Context, code string) (*models.User, error) {
	return s.users.FindByReferralCode(ctx, code)
}

func (s *LedgerService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.users.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}

func (s *LedgerService) Rank(ctx context.Context, userID int64) (int, error) {
	rank, err := s.users.Rank(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("rank: %w", err)
	}
	return rank, nil
}

func (s *LedgerService) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}

func (s *LedgerService) Stats(ctx context.Context) (models.Stats, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

func (s *LedgerService) Referrals(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	refs, err := s.users.ListReferrals(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("referrals: %w", err)
	}
	return refs, nil
}

func (s *LedgerService) Redemptions(ctx context.Context, userID int64) ([]models.Redemption, error) {
	reds, err := s.redemptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("redemptions: %w", err)
	}
	return reds, nil
}

func newReferralCode() string {
	return uuid.NewString()[:8]
}

func newRedemptionCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "REWARD-" + strings.ToUpper(hex[:8])
}
