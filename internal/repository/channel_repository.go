package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mediarise/referralbot/internal/models"
)

type ChannelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func (r *ChannelRepository) GetByChannelID(ctx context.Context, channelID string) (*models.Channel, error) {
	const query = `SELECT id, channel_id, title, COALESCE(join_link, '') FROM channels WHERE channel_id = ?`
	row := r.db.QueryRowContext(ctx, query, channelID)
	var ch models.Channel
	if err := row.Scan(&ch.ID, &ch.ChannelID, &ch.Title, &ch.JoinLink); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	return &ch, nil
}

func (r *ChannelRepository) Create(ctx context.Context, ch *models.Channel) error {
	const query = `INSERT INTO channels (channel_id, title, join_link) VALUES (?, ?, NULLIF(?, ''))`
	res, err := r.db.ExecContext(ctx, query, ch.ChannelID, ch.Title, ch.JoinLink)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("channel last insert id: %w", err)
	}
	ch.ID = id
	return nil
}

// Delete reports whether a row was actually removed, so callers can tell a
// successful removal from a no-op on an unknown channel.
func (r *ChannelRepository) Delete(ctx context.Context, channelID string) (bool, error) {
	const query = `DELETE FROM channels WHERE channel_id = ?`
	res, err := r.db.ExecContext(ctx, query, channelID)
	if err != nil {
		return false, fmt.Errorf("delete channel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("channel rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *ChannelRepository) List(ctx context.Context) ([]models.Channel, error) {
	const query = `SELECT id, channel_id, title, COALESCE(join_link, '') FROM channels ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.ChannelID, &ch.Title, &ch.JoinLink); err != nil {
			return nil, fmt.Errorf("scan channel list: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}
