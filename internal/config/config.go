package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/flor3z/countdown-bot/internal/countdown"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken  string `env:"DISCORD_BOT_TOKEN" env-required:"true"`
	CommandPrefix string `env:"COMMAND_PREFIX" env-default:"!"`

	// Storage
	ItemsFile    string `env:"ITEMS_FILE" env-default:"./data/items.json"`
	BossesFile   string `env:"BOSSES_FILE" env-default:"./data/bosses.json"`
	// Empty keeps countdowns in memory only
	DatabasePath string `env:"DATABASE_PATH" env-default:"./data/bot.db"`

	// Reminders
	ReminderInterval  time.Duration `env:"REMINDER_INTERVAL" env-default:"30s"`
	ReminderWindowMin time.Duration `env:"REMINDER_WINDOW_MIN" env-default:"15m"`
	ReminderWindowMax time.Duration `env:"REMINDER_WINDOW_MAX" env-default:"16m"`
	ExpiredRetention  time.Duration `env:"EXPIRED_RETENTION" env-default:"24h"`

	// Countdowns
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" env-default:"30s"`
	DefaultRarity  string        `env:"DEFAULT_RARITY"`
	ShareChannels  string        `env:"SHARE_CHANNELS" env-default:"⛏️=⛏mining-2hours,🌲=🌲woodcutting-4hours,🌿=🌿herbalism-4hours"`
	ClaimCategory  string        `env:"CLAIM_CATEGORY" env-default:"claims"`

	// Metrics listener, disabled when empty
	MetricsAddr string `env:"METRICS_ADDR"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX cannot be empty")
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if c.ReminderWindowMin <= 0 || c.ReminderWindowMax < c.ReminderWindowMin {
		return fmt.Errorf("invalid reminder window %s-%s", c.ReminderWindowMin, c.ReminderWindowMax)
	}
	if c.ExpiredRetention < 0 {
		return fmt.Errorf("EXPIRED_RETENTION cannot be negative")
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("CONFIRM_TIMEOUT must be positive")
	}

	c.DefaultRarity = strings.ToLower(strings.TrimSpace(c.DefaultRarity))
	if _, ok := countdown.LookupRarity(c.DefaultRarity); !ok {
		return fmt.Errorf("invalid DEFAULT_RARITY %q", c.DefaultRarity)
	}
	if _, err := c.ShareTargets(); err != nil {
		return err
	}
	return nil
}

// ShareTargets parses SHARE_CHANNELS ("emoji=channel,emoji=channel").
func (c *Config) ShareTargets() ([]countdown.ShareTarget, error) {
	var targets []countdown.ShareTarget
	for _, pair := range strings.Split(c.ShareChannels, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		emoji, channel, ok := strings.Cut(pair, "=")
		emoji, channel = strings.TrimSpace(emoji), strings.TrimSpace(channel)
		if !ok || emoji == "" || channel == "" {
			return nil, fmt.Errorf("invalid SHARE_CHANNELS entry %q", pair)
		}
		targets = append(targets, countdown.ShareTarget{Emoji: emoji, Channel: channel})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("SHARE_CHANNELS needs at least one emoji=channel entry")
	}
	return targets, nil
}
