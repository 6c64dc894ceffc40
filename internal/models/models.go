package models

import "time"

// User is a bot participant. ID is the Telegram user id; the referral code is
// assigned once at registration and never changes.
type User struct {
	ID             int64
	Username       string
	FirstName      string
	ReferralCode   string
	ReferredBy     *int64
	Credits        int
	TotalReferrals int
	JoinedAt       time.Time
}

// Referral is an append-only fact: referrer brought referred in. One row per
// successful registration with a referrer.
type Referral struct {
	ID         int64
	ReferrerID int64
	ReferredID int64
	CreatedAt  time.Time
}

// Redemption records credits exchanged for a reward code. Rows are never
// updated or deleted.
type Redemption struct {
	ID          int64
	UserID      int64
	Code        string
	CreditsUsed int
	CreatedAt   time.Time
}

// Channel is a membership requirement: users must belong to every configured
// channel before the bot serves them. JoinLink is set for private channels
// where an invite link is the only way in.
type Channel struct {
	ID        int64
	ChannelID string
	Title     string
	JoinLink  string
}

type LeaderboardEntry struct {
	UserID         int64
	Username       string
	FirstName      string
	TotalReferrals int
}

type Stats struct {
	TotalUsers       int
	TotalReferrals   int
	TotalRedemptions int
}
