package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mediarise/referralbot/internal/models"
)

const (
	callbackProfile     = "profile"
	callbackLeaderboard = "leaderboard"
	callbackRedeem      = "redeem"
)

func mainMenuKeyboard(link string, reward, threshold int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 My Profile", callbackProfile),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", callbackLeaderboard),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📤 Share Referral Link", shareURL(link, reward)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💸 Redeem %d credits", threshold), callbackRedeem),
		),
	)
}

func welcomeKeyboard(link string, reward int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(fmt.Sprintf("📤 Share & Earn %d credits", reward), shareURL(link, reward)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 My Profile", callbackProfile),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", callbackLeaderboard),
		),
	)
}

func profileKeyboard(link string, reward int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📤 Share Referral Link", shareURL(link, reward)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 View Leaderboard", callbackLeaderboard),
			tgbotapi.NewInlineKeyboardButtonData("💸 Redeem Now", callbackRedeem),
		),
	)
}

func leaderboardKeyboard(link string, reward int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📤 Share & Climb Up!", shareURL(link, reward)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 My Profile", callbackProfile),
		),
	)
}

func redeemKeyboard(link string, reward int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📤 Share & Earn More", shareURL(link, reward)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 My Profile", callbackProfile),
		),
	)
}

func joinChannelsKeyboard(channels []models.Channel) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Join "+ch.Title, channelJoinLink(ch)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
