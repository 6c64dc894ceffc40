package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mediarise/referralbot/internal/admin"
	"github.com/mediarise/referralbot/internal/config"
	"github.com/mediarise/referralbot/internal/database"
	"github.com/mediarise/referralbot/internal/repository"
	"github.com/mediarise/referralbot/internal/service"
	"github.com/mediarise/referralbot/internal/telegram"
	"github.com/mediarise/referralbot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	ledger := service.NewLedgerService(userRepo, redemptionRepo, cfg.RewardPerReferral, cfg.RedemptionThreshold)
	channels := service.NewChannelService(channelRepo)
	settings := service.NewSettingsService(settingsRepo)

	bot := telegram.NewBot(cfg, botAPI, logr, ledger, channels, settings)

	adminServer := admin.NewServer(cfg.AdminListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr, ledger, channels, settings, bot)
	go func() {
		if err := adminServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("admin server stopped", "err", err)
		}
	}()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", "err", err)
	}
}
