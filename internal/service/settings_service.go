package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mediarise/referralbot/internal/repository"
)

const (
	keyStartMessage = "start_message"
	keyLogChannel   = "log_channel"
)

const fallbackStartMessage = "Welcome!"

// SettingsService holds the mutable bot copy and the audit log-channel id.
type SettingsService struct {
	settings *repository.SettingsRepository
}

func NewSettingsService(settings *repository.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

func (s *SettingsService) StartMessage(ctx context.Context) (string, error) {
	value, ok, err := s.settings.Get(ctx, keyStartMessage)
	if err != nil {
		return "", fmt.Errorf("start message: %w", err)
	}
	if !ok || value == "" {
		return fallbackStartMessage, nil
	}
	return value, nil
}

func (s *SettingsService) SetStartMessage(ctx context.Context, message string) error {
	if err := s.settings.Set(ctx, keyStartMessage, message); err != nil {
		return fmt.Errorf("set start message: %w", err)
	}
	return nil
}

// LogChannel returns the configured audit channel id, or 0 when none is set.
func (s *SettingsService) LogChannel(ctx context.Context) (int64, error) {
	value, ok, err := s.settings.Get(ctx, keyLogChannel)
	if err != nil {
		return 0, fmt.Errorf("log channel: %w", err)
	}
	if !ok || value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse log channel %q: %w", value, err)
	}
	return id, nil
}

func (s *SettingsService) SetLogChannel(ctx context.Context, channelID int64) error {
	if err := s.settings.Set(ctx, keyLogChannel, strconv.FormatInt(channelID, 10)); err != nil {
		return fmt.Errorf("set log channel: %w", err)
	}
	return nil
}
