package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mediarise/referralbot/internal/models"
)

type RedemptionRepository struct {
	db *sql.DB
}

func NewRedemptionRepository(db *sql.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) DB() *sql.DB {
	return r.db
}

// ListByUser returns a user's redemptions, newest first. The rows themselves
// are written inside the redeem transaction in the service layer.
func (r *RedemptionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Redemption, error) {
	const query = `
SELECT id, user_id, code, credits_used, created_at
FROM redemptions WHERE user_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var reds []models.Redemption
	for rows.Next() {
		var red models.Redemption
		if err := rows.Scan(&red.ID, &red.UserID, &red.Code, &red.CreditsUsed, &red.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		reds = append(reds, red)
	}
	return reds, rows.Err()
}
