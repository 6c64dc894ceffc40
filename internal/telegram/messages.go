package telegram

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mediarise/referralbot/internal/models"
)

func referralLink(botUsername, code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
}

func shareURL(link string, reward int) string {
	text := fmt.Sprintf("Join this bot and earn rewards! %d credits per referral!", reward)
	return fmt.Sprintf("https://t.me/share/url?url=%s&text=%s", url.QueryEscape(link), url.QueryEscape(text))
}

// channelJoinLink prefers the stored invite link (private channels), falling
// back to the public t.me address derived from the @username.
func channelJoinLink(ch models.Channel) string {
	if ch.JoinLink != "" {
		return ch.JoinLink
	}
	return fmt.Sprintf("https://t.me/%s", strings.TrimPrefix(ch.ChannelID, "@"))
}

func startText(startMsg string, u *models.User, link string, reward int) string {
	return fmt.Sprintf(
		"%s\n\n👤 Your Profile:\n💰 Balance: %d credits\n👥 Total Referrals: %d\n\n🔗 Your Referral Link:\n%s\n\nShare this link to earn %d credits per referral!",
		startMsg, u.Credits, u.TotalReferrals, link, reward,
	)
}

func welcomeText(startMsg string, referred bool, link string, reward, threshold int) string {
	var b strings.Builder
	b.WriteString(startMsg)
	b.WriteString("\n\n")
	if referred {
		fmt.Fprintf(&b, "✅ You were referred! Your referrer earned %d credits.\n\n", reward)
	}
	fmt.Fprintf(&b, "🔗 Your Referral Link:\n%s\n\n💰 Earn %d credits per referral!\n💸 Redeem rewards at %d credits.", link, reward, threshold)
	return b.String()
}

func profileText(u *models.User, rank int, link string, threshold int) string {
	remaining := threshold - u.Credits
	return fmt.Sprintf(
		"👤 Your Profile\n\nName: %s\n💰 Balance: %d credits\n👥 Total Referrals: %d\n🏆 Rank: #%d\n\n🔗 Your Referral Link:\n%s\n\n💡 Earn %d more to redeem!",
		u.FirstName, u.Credits, u.TotalReferrals, rank, link, remaining,
	)
}

func leaderboardText(entries []models.LeaderboardEntry, reward int) string {
	var b strings.Builder
	b.WriteString("🏆 Top Referrers 🏆\n\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, e := range entries {
		medal := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			medal = medals[i]
		}
		name := e.FirstName
		if e.Username != "" {
			name = "@" + e.Username
		}
		fmt.Fprintf(&b, "%s %s - %d referrals (%d credits)\n", medal, name, e.TotalReferrals, e.TotalReferrals*reward)
	}
	return b.String()
}

func insufficientBalanceText(credits, threshold, reward int) string {
	return fmt.Sprintf(
		"❌ Insufficient Balance!\n\nYou have: %d credits\nRequired: %d credits\nNeed: %d more\n\n💡 Share your referral link to earn %d credits per referral!",
		credits, threshold, threshold-credits, reward,
	)
}

func redeemSuccessText(code string, threshold int) string {
	return fmt.Sprintf(
		"🎉 Congratulations! 🎉\n\nYour Reward Code: %s\n\n✅ Redemption Successful!\nCredits Used: %d\n\nKeep referring to earn more rewards!",
		code, threshold,
	)
}

func newReferralNotice(firstName string, reward, balance int) string {
	return fmt.Sprintf("🎉 New Referral!\n\nUser: %s\nYou earned %d credits!\nTotal Balance: %d credits", firstName, reward, balance)
}

func statsText(s models.Stats) string {
	return fmt.Sprintf(
		"📊 Bot Statistics\n\n👥 Total Users: %d\n🔗 Total Referrals: %d\n🎁 Total Redemptions: %d",
		s.TotalUsers, s.TotalReferrals, s.TotalRedemptions,
	)
}

func channelsText(channels []models.Channel) string {
	var b strings.Builder
	b.WriteString("📋 Mandatory Channels:\n\n")
	for _, ch := range channels {
		fmt.Fprintf(&b, "• %s (%s)\n", ch.Title, ch.ChannelID)
	}
	return b.String()
}

func helpText(isOwner bool, reward, threshold int) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"📖 Available Commands:\n\n👤 User Commands:\n/start - Start the bot and get your referral link\n/profile - View your profile and stats\n/leaderboard - See top referrers\n/redeem - Redeem for rewards\n/help - Show this help message\n\n💡 Earn %d credits per referral\n🎁 Redeem at %d credits",
		reward, threshold,
	)
	if isOwner {
		b.WriteString("\n\n👑 Admin Commands:\n" +
			"/broadcast <message> - Send message to all users\n" +
			"/stats - View bot statistics\n" +
			"/addchannel <channel_id> <name> [link] - Add mandatory channel\n" +
			"/removechannel <channel_id> - Remove channel\n" +
			"/channels - List all channels\n" +
			"/setstart <message> - Set custom start message\n" +
			"/setlogchannel <id> - Set audit log channel\n" +
			"/getlogchannel - Show audit log channel")
	}
	return b.String()
}
