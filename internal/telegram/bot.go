package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mediarise/referralbot/internal/config"
	"github.com/mediarise/referralbot/internal/models"
	"github.com/mediarise/referralbot/internal/service"
)

type Bot struct {
	cfg      config.Config
	api      *tgbotapi.BotAPI
	log      *slog.Logger
	ledger   *service.LedgerService
	channels *service.ChannelService
	settings *service.SettingsService
}

func NewBot(cfg config.Config, api *tgbotapi.BotAPI, log *slog.Logger, ledger *service.LedgerService, channels *service.ChannelService, settings *service.SettingsService) *Bot {
	return &Bot{
		cfg:      cfg,
		api:      api,
		log:      log,
		ledger:   ledger,
		channels: channels,
		settings: settings,
	}
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot started", "username", b.api.Self.UserName)

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

// SendMessage lets other components (the admin panel) deliver plain messages
// through the bot's API connection.
func (b *Bot) SendMessage(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendText(msg.Chat.ID, "Use /help to see available commands.")
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "profile":
		b.handleProfile(ctx, msg)
	case "leaderboard":
		b.handleLeaderboard(ctx, msg)
	case "redeem":
		b.handleRedeem(ctx, msg)
	case "help":
		b.sendText(msg.Chat.ID, helpText(b.isOwner(msg.From), b.ledger.Reward(), b.ledger.Threshold()))
	case "broadcast":
		b.handleBroadcast(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	case "addchannel":
		b.handleAddChannel(ctx, msg)
	case "removechannel":
		b.handleRemoveChannel(ctx, msg)
	case "channels":
		b.handleListChannels(ctx, msg)
	case "setstart":
		b.handleSetStart(ctx, msg)
	case "setlogchannel":
		b.handleSetLogChannel(ctx, msg)
	case "getlogchannel":
		b.handleGetLogChannel(ctx, msg)
	default:
		b.sendText(msg.Chat.ID, "Unknown command. Use /help.")
	}
}

// passesGate checks the caller against every configured channel. Per-channel
// lookup failures are logged and that channel is skipped, so a broken channel
// cannot lock everyone out.
func (b *Bot) passesGate(ctx context.Context, msg *tgbotapi.Message) bool {
	if msg.From == nil {
		return false
	}
	channels, err := b.channels.List(ctx)
	if err != nil {
		b.log.Error("list gate channels", "err", err)
		return true
	}
	if len(channels) == 0 {
		return true
	}

	var notJoined []models.Channel
	for _, ch := range channels {
		member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: chatConfigFor(ch, msg.From.ID),
		})
		if err != nil {
			b.log.Error("membership check failed", "channel", ch.ChannelID, "err", err)
			continue
		}
		switch strings.ToLower(member.Status) {
		case "left", "kicked":
			notJoined = append(notJoined, ch)
		}
	}

	if len(notJoined) > 0 {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "⚠️ You must join the following channels to use this bot:")
		reply.ReplyMarkup = joinChannelsKeyboard(notJoined)
		if _, err := b.api.Send(reply); err != nil {
			b.log.Error("send gate prompt", "err", err)
		}
		return false
	}
	return true
}

func chatConfigFor(ch models.Channel, userID int64) tgbotapi.ChatConfigWithUser {
	cfg := tgbotapi.ChatConfigWithUser{UserID: userID}
	if id, err := strconv.ParseInt(ch.ChannelID, 10, 64); err == nil && id != 0 {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = strings.TrimPrefix(ch.ChannelID, "@")
	}
	return cfg
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if !b.passesGate(ctx, msg) {
		return
	}

	username := ""
	firstName := ""
	if msg.From != nil {
		username = msg.From.UserName
		firstName = msg.From.FirstName
	}

	user, created, err := b.ledger.Register(ctx, msg.From.ID, username, firstName, msg.CommandArguments())
	if err != nil {
		if errors.Is(err, service.ErrSelfReferral) {
			b.sendText(msg.Chat.ID, "❌ You cannot use your own referral link!")
			return
		}
		b.log.Error("register", "user", msg.From.ID, "err", err)
		b.sendText(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	startMsg, err := b.settings.StartMessage(ctx)
	if err != nil {
		b.log.Error("start message", "err", err)
		startMsg = "Welcome!"
	}
	link := referralLink(b.api.Self.UserName, user.ReferralCode)

	if !created {
		reply := tgbotapi.NewMessage(msg.Chat.ID, startText(startMsg, user, link, b.ledger.Reward()))
		reply.ReplyMarkup = mainMenuKeyboard(link, b.ledger.Reward(), b.ledger.Threshold())
		if _, err := b.api.Send(reply); err != nil {
			b.log.Error("send start", "err", err)
		}
		return
	}

	referred := user.ReferredBy != nil
	reply := tgbotapi.NewMessage(msg.Chat.ID, welcomeText(startMsg, referred, link, b.ledger.Reward(), b.ledger.Threshold()))
	reply.ReplyMarkup = welcomeKeyboard(link, b.ledger.Reward())
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send welcome", "err", err)
	}

	if referred {
		b.notifyReferrer(ctx, *user.ReferredBy, firstName)
		b.audit(ctx, fmt.Sprintf("🔗 New referral: %s (%d) referred by %d", firstName, user.ID, *user.ReferredBy))
	}
}

func (b *Bot) notifyReferrer(ctx context.Context, referrerID int64, referredName string) {
	referrer, err := b.ledger.Find(ctx, referrerID)
	if err != nil || referrer == nil {
		b.log.Error("load referrer", "referrer", referrerID, "err", err)
		return
	}
	notice := newReferralNotice(referredName, b.ledger.Reward(), referrer.Credits)
	if err := b.SendMessage(referrerID, notice); err != nil {
		b.log.Error("notify referrer", "referrer", referrerID, "err", err)
	}
}

func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) {
	if !b.passesGate(ctx, msg) {
		return
	}
	text, markup, ok := b.profileView(ctx, msg.From.ID)
	if !ok {
		b.sendText(msg.Chat.ID, "Please use /start first!")
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = markup
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send profile", "err", err)
	}
}

func (b *Bot) profileView(ctx context.Context, userID int64) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	user, err := b.ledger.Find(ctx, userID)
	if err != nil {
		b.log.Error("find user", "user", userID, "err", err)
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}
	if user == nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}
	rank, err := b.ledger.Rank(ctx, userID)
	if err != nil {
		b.log.Error("rank", "user", userID, "err", err)
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}
	link := referralLink(b.api.Self.UserName, user.ReferralCode)
	return profileText(user, rank, link, b.ledger.Threshold()), profileKeyboard(link, b.ledger.Reward()), true
}

func (b *Bot) handleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	if !b.passesGate(ctx, msg) {
		return
	}
	text, markup, ok := b.leaderboardView(ctx, msg.From.ID)
	if !ok {
		b.sendText(msg.Chat.ID, "No users on the leaderboard yet!")
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = markup
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send leaderboard", "err", err)
	}
}

func (b *Bot) leaderboardView(ctx context.Context, userID int64) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	entries, err := b.ledger.Leaderboard(ctx, b.cfg.LeaderboardSize)
	if err != nil {
		b.log.Error("leaderboard", "err", err)
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}
	if len(entries) == 0 {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}

	link := ""
	if user, err := b.ledger.Find(ctx, userID); err == nil && user != nil {
		link = referralLink(b.api.Self.UserName, user.ReferralCode)
	}
	return leaderboardText(entries, b.ledger.Reward()), leaderboardKeyboard(link, b.ledger.Reward()), true
}

func (b *Bot) handleRedeem(ctx context.Context, msg *tgbotapi.Message) {
	if !b.passesGate(ctx, msg) {
		return
	}
	text, markup, ok := b.redeemView(ctx, msg.From.ID)
	if !ok {
		b.sendText(msg.Chat.ID, "Please use /start first!")
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = markup
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send redeem", "err", err)
	}
}

func (b *Bot) redeemView(ctx context.Context, userID int64) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	user, err := b.ledger.Find(ctx, userID)
	if err != nil {
		b.log.Error("find user", "user", userID, "err", err)
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}
	if user == nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}

	link := referralLink(b.api.Self.UserName, user.ReferralCode)
	markup := redeemKeyboard(link, b.ledger.Reward())

	code, err := b.ledger.Redeem(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientCredits) {
			return insufficientBalanceText(user.Credits, b.ledger.Threshold(), b.ledger.Reward()), markup, true
		}
		b.log.Error("redeem", "user", userID, "err", err)
		return "❌ Redemption failed. Please try again later.", markup, true
	}

	b.audit(ctx, fmt.Sprintf("🎁 Redemption: user %d redeemed %d credits, code %s", userID, b.ledger.Threshold(), code))
	return redeemSuccessText(code, b.ledger.Threshold()), markup, true
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("callback ack", "err", err)
	}
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	var (
		text   string
		markup tgbotapi.InlineKeyboardMarkup
		ok     bool
	)
	switch cb.Data {
	case callbackProfile:
		text, markup, ok = b.profileView(ctx, cb.From.ID)
		if !ok {
			b.sendText(chatID, "Please use /start first!")
			return
		}
	case callbackLeaderboard:
		text, markup, ok = b.leaderboardView(ctx, cb.From.ID)
		if !ok {
			b.sendText(chatID, "No users on the leaderboard yet!")
			return
		}
	case callbackRedeem:
		text, markup, ok = b.redeemView(ctx, cb.From.ID)
		if !ok {
			b.sendText(chatID, "Please use /start first!")
			return
		}
	default:
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("edit message", "err", err)
	}
}

func (b *Bot) isOwner(from *tgbotapi.User) bool {
	return from != nil && from.ID == b.cfg.OwnerID
}

func (b *Bot) requireOwner(msg *tgbotapi.Message) bool {
	if b.isOwner(msg.From) {
		return true
	}
	b.sendText(msg.Chat.ID, "❌ This command is only for the bot owner!")
	return false
}

// handleBroadcast sends the message to every known user, skipping individual
// failures, then edits the progress message with the final counts.
func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.sendText(msg.Chat.ID, "Usage: /broadcast <message>")
		return
	}

	ids, err := b.ledger.ListUserIDs(ctx)
	if err != nil {
		b.log.Error("list users for broadcast", "err", err)
		b.sendText(msg.Chat.ID, "Broadcast failed to start.")
		return
	}

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("📤 Broadcasting to %d users...", len(ids))))
	if err != nil {
		b.log.Error("send broadcast status", "err", err)
	}

	success, failed := 0, 0
	for _, id := range ids {
		if err := b.SendMessage(id, text); err != nil {
			b.log.Error("broadcast send failed", "user", id, "err", err)
			failed++
			continue
		}
		success++
	}

	summary := fmt.Sprintf("✅ Broadcast Complete!\n\nSuccess: %d\nFailed: %d\nTotal: %d", success, failed, len(ids))
	if status.MessageID != 0 {
		edit := tgbotapi.NewEditMessageText(msg.Chat.ID, status.MessageID, summary)
		if _, err := b.api.Send(edit); err != nil {
			b.log.Error("edit broadcast status", "err", err)
		}
	} else {
		b.sendText(msg.Chat.ID, summary)
	}
	b.audit(ctx, fmt.Sprintf("📣 Broadcast by owner: %d sent, %d failed", success, failed))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	stats, err := b.ledger.Stats(ctx)
	if err != nil {
		b.log.Error("stats", "err", err)
		b.sendText(msg.Chat.ID, "Could not load statistics.")
		return
	}
	b.sendText(msg.Chat.ID, statsText(stats))
}

func (b *Bot) handleAddChannel(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.sendText(msg.Chat.ID, "Usage: /addchannel <channel_id> <name> [invite_link]")
		return
	}
	channelID := args[0]
	rest := args[1:]
	joinLink := ""
	if len(rest) >= 2 && strings.HasPrefix(rest[len(rest)-1], "http") {
		joinLink = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	title := strings.Join(rest, " ")

	if _, err := b.channels.Add(ctx, channelID, title, joinLink); err != nil {
		if errors.Is(err, service.ErrChannelExists) {
			b.sendText(msg.Chat.ID, "❌ Channel already exists!")
			return
		}
		b.log.Error("add channel", "channel", channelID, "err", err)
		b.sendText(msg.Chat.ID, "Could not add channel.")
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Channel added: %s (%s)", title, channelID))
	b.audit(ctx, fmt.Sprintf("⚙️ Channel added: %s (%s)", title, channelID))
}

func (b *Bot) handleRemoveChannel(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	channelID := strings.TrimSpace(msg.CommandArguments())
	if channelID == "" {
		b.sendText(msg.Chat.ID, "Usage: /removechannel <channel_id>")
		return
	}
	if err := b.channels.Remove(ctx, channelID); err != nil {
		if errors.Is(err, service.ErrChannelNotFound) {
			b.sendText(msg.Chat.ID, "❌ Channel not found!")
			return
		}
		b.log.Error("remove channel", "channel", channelID, "err", err)
		b.sendText(msg.Chat.ID, "Could not remove channel.")
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Channel removed: %s", channelID))
	b.audit(ctx, fmt.Sprintf("⚙️ Channel removed: %s", channelID))
}

func (b *Bot) handleListChannels(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	channels, err := b.channels.List(ctx)
	if err != nil {
		b.log.Error("list channels", "err", err)
		b.sendText(msg.Chat.ID, "Could not list channels.")
		return
	}
	if len(channels) == 0 {
		b.sendText(msg.Chat.ID, "No channels configured.")
		return
	}
	b.sendText(msg.Chat.ID, channelsText(channels))
}

func (b *Bot) handleSetStart(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.sendText(msg.Chat.ID, "Usage: /setstart <message>")
		return
	}
	if err := b.settings.SetStartMessage(ctx, text); err != nil {
		b.log.Error("set start message", "err", err)
		b.sendText(msg.Chat.ID, "Could not update start message.")
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Start message updated!\n\nNew message:\n%s", text))
	b.audit(ctx, "⚙️ Start message updated by owner")
}

func (b *Bot) handleSetLogChannel(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	raw := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		b.sendText(msg.Chat.ID, "Usage: /setlogchannel <numeric_channel_id>")
		return
	}
	if err := b.settings.SetLogChannel(ctx, id); err != nil {
		b.log.Error("set log channel", "err", err)
		b.sendText(msg.Chat.ID, "Could not update log channel.")
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Log channel set to %d", id))
	b.audit(ctx, fmt.Sprintf("⚙️ Log channel set to %d", id))
}

func (b *Bot) handleGetLogChannel(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireOwner(msg) {
		return
	}
	id, err := b.settings.LogChannel(ctx)
	if err != nil {
		b.log.Error("get log channel", "err", err)
		b.sendText(msg.Chat.ID, "Could not read log channel.")
		return
	}
	if id == 0 {
		b.sendText(msg.Chat.ID, "No log channel configured.")
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("Log channel: %d", id))
}

// audit mirrors an event notice to the configured log channel. Delivery
// failures are logged locally and otherwise ignored.
func (b *Bot) audit(ctx context.Context, text string) {
	id, err := b.settings.LogChannel(ctx)
	if err != nil {
		b.log.Error("audit channel lookup", "err", err)
		return
	}
	if id == 0 {
		return
	}
	if err := b.SendMessage(id, text); err != nil {
		b.log.Error("audit delivery failed", "channel", id, "err", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.log.Error("send text", "err", err)
	}
}
