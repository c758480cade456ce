package config

import (
	"testing"
	"time"

	"github.com/flor3z/countdown-bot/internal/countdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.Equal(t, 30*time.Second, cfg.ReminderInterval)
	assert.Equal(t, 15*time.Minute, cfg.ReminderWindowMin)
	assert.Equal(t, 16*time.Minute, cfg.ReminderWindowMax)
	assert.Equal(t, 30*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 24*time.Hour, cfg.ExpiredRetention)
	assert.Empty(t, cfg.DefaultRarity)
	assert.Equal(t, "claims", cfg.ClaimCategory)

	targets, err := cfg.ShareTargets()
	require.NoError(t, err)
	assert.Len(t, targets, 3)
	assert.Equal(t, "🌲woodcutting-4hours", targets[1].Channel)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DEFAULT_RARITY", "R")
	t.Setenv("REMINDER_INTERVAL", "10s")
	t.Setenv("SHARE_CHANNELS", "🐟=fishing, 🪓 = logging")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "r", cfg.DefaultRarity)
	assert.Equal(t, 10*time.Second, cfg.ReminderInterval)

	targets, err := cfg.ShareTargets()
	require.NoError(t, err)
	assert.Equal(t, []countdown.ShareTarget{{Emoji: "🐟", Channel: "fishing"}, {Emoji: "🪓", Channel: "logging"}}, targets)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"DEFAULT_RARITY":      "z",
		"SHARE_CHANNELS":      "no-separator",
		"REMINDER_WINDOW_MIN": "20m",
		"CONFIRM_TIMEOUT":     "0s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("DISCORD_BOT_TOKEN", "token")
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
