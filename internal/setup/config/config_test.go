package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonTOML = `
version = 1

[debug]
log_level = "debug"
max_logs_to_keep = 3

[postgresql]
host = "db"
port = 5432

[redis]
host = "cache"
port = 6379
`

const botTOML = `
version = 1
request_timeout = 2500

[discord]
token = "secret"
owner_ids = [1, 2]

[prefixes]
defaults = ["ww", "!", "?"]
debug = "wa"

[urban_dictionary]
cooldown_uses = 8
cooldown_window = 3500

[docs]
requests_per_second = 2

[[docs.libraries]]
module = "discord"
url = "https://discordpy.readthedocs.io/en/latest/"

[[docs.libraries]]
module = "asyncpg"
url = "https://magicstack.github.io/asyncpg/current/"
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common", commonTOML)
	writeConfig(t, dir, "bot", botTOML)

	cfg, used, err := config.Load(filepath.Join(dir, "missing"), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, used)

	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, 3, cfg.Common.Debug.MaxLogsToKeep)
	assert.Equal(t, "db", cfg.Common.PostgreSQL.Host)
	assert.Equal(t, 6379, cfg.Common.Redis.Port)

	assert.Equal(t, "secret", cfg.Bot.Discord.Token)
	assert.Equal(t, []uint64{1, 2}, cfg.Bot.Discord.OwnerIDs)
	assert.Equal(t, []string{"ww", "!", "?"}, cfg.Bot.Prefixes.Defaults)
	assert.Equal(t, "wa", cfg.Bot.Prefixes.Debug)
	assert.Equal(t, 8, cfg.Bot.UrbanDictionary.CooldownUses)
	assert.InDelta(t, 2.0, cfg.Bot.Docs.RequestsPerSecond, 0)
	assert.Equal(t, []config.DocsLibrary{
		{Module: "discord", URL: "https://discordpy.readthedocs.io/en/latest/"},
		{Module: "asyncpg", URL: "https://magicstack.github.io/asyncpg/current/"},
	}, cfg.Bot.Docs.Libraries)
	assert.Equal(t, 2500*time.Millisecond, cfg.Bot.Timeout())
}

func TestLoadFilesFromDifferentPaths(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	writeConfig(t, first, "bot", botTOML)
	writeConfig(t, second, "common", commonTOML)
	writeConfig(t, second, "bot", "version = 1\n[discord]\ntoken = \"other\"\n")

	cfg, used, err := config.Load(first, second)
	require.NoError(t, err)

	// common.toml is searched first, so the second path is reported
	assert.Equal(t, second, used)
	assert.Equal(t, "secret", cfg.Bot.Discord.Token)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		common string
		bot    string
		err    error
	}{
		{
			name:   "missing bot file",
			common: commonTOML,
			err:    config.ErrConfigFileNotFound,
		},
		{
			name: "missing common file",
			bot:  botTOML,
			err:  config.ErrConfigFileNotFound,
		},
		{
			name:   "missing version",
			common: "[debug]\nlog_level = \"info\"\n",
			bot:    botTOML,
			err:    config.ErrConfigVersionMissing,
		},
		{
			name:   "version mismatch",
			common: commonTOML,
			bot:    "version = 99\n",
			err:    config.ErrConfigVersionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.common != "" {
				writeConfig(t, dir, "common", tt.common)
			}
			if tt.bot != "" {
				writeConfig(t, dir, "bot", tt.bot)
			}

			_, _, err := config.Load(dir)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTimeoutDefault(t *testing.T) {
	t.Parallel()

	var bot config.BotConfig
	assert.Equal(t, 5*time.Second, bot.Timeout())
}
