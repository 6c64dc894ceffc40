package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot and the admin panel.
type Config struct {
	BotToken            string
	OwnerID             int64
	DatabaseDriver      string
	DatabaseDSN         string
	RewardPerReferral   int
	RedemptionThreshold int
	LeaderboardSize     int
	AdminListenAddr     string
	AdminUsername       string
	AdminPassword       string
	LogLevel            string
}

// Load reads configuration from environment variables, applying sane defaults.
// A .env file is loaded first when one is present, but is not required.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseDriver:      strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite3")),
		DatabaseDSN:         getEnv("DATABASE_DSN", "referral_bot.db"),
		RewardPerReferral:   getInt("REWARD_PER_REFERRAL", 5),
		RedemptionThreshold: getInt("REDEMPTION_THRESHOLD", 300),
		LeaderboardSize:     getInt("LEADERBOARD_SIZE", 10),
		AdminListenAddr:     getEnv("ADMIN_LISTEN_ADDR", ":8080"),
		AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", "change-me"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.OwnerID = getInt64("OWNER_ID", 0)

	var missing []string
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.OwnerID == 0 {
		missing = append(missing, "OWNER_ID")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "mysql":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q (want sqlite3 or mysql)", cfg.DatabaseDriver)
	}

	if cfg.RewardPerReferral <= 0 {
		return Config{}, fmt.Errorf("REWARD_PER_REFERRAL must be positive, got %d", cfg.RewardPerReferral)
	}
	if cfg.RedemptionThreshold <= 0 {
		return Config{}, fmt.Errorf("REDEMPTION_THRESHOLD must be positive, got %d", cfg.RedemptionThreshold)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	return nil
}
