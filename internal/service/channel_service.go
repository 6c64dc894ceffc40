package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mediarise/referralbot/internal/models"
	"github.com/mediarise/referralbot/internal/repository"
)

var ErrChannelExists = errors.New("channel already exists")
var ErrChannelNotFound = errors.New("channel not found")

// ChannelService manages the membership-gate configuration. The live
// membership check itself happens at the Telegram boundary; this layer only
// owns which channels are required.
type ChannelService struct {
	channels *repository.ChannelRepository
}

func NewChannelService(channels *repository.ChannelRepository) *ChannelService {
	return &ChannelService{channels: channels}
}

func (s *ChannelService) Add(ctx context.Context, channelID, title, joinLink string) (*models.Channel, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, errors.New("channel id required")
	}
	existing, err := s.channels.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("check channel: %w", err)
	}
	if existing != nil {
		return nil, ErrChannelExists
	}

	ch := &models.Channel{
		ChannelID: channelID,
		Title:     strings.TrimSpace(title),
		JoinLink:  strings.TrimSpace(joinLink),
	}
	if err := s.channels.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("add channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelService) Remove(ctx context.Context, channelID string) error {
	removed, err := s.channels.Delete(ctx, strings.TrimSpace(channelID))
	if err != nil {
		return fmt.Errorf("remove channel: %w", err)
	}
	if !removed {
		return ErrChannelNotFound
	}
	return nil
}

func (s *ChannelService) List(ctx context.Context) ([]models.Channel, error) {
	channels, err := s.channels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}
