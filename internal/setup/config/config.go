package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Bot    BotConfig
}

// CommonConfig contains configuration shared between the bot and the db tool.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Retry      Retry      `koanf:"retry"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Sentry     Sentry     `koanf:"sentry"`
	Uptrace    Uptrace    `koanf:"uptrace"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Maximum number of commands running at once.
	MaxConcurrentCommands int64           `koanf:"max_concurrent_commands"`
	Discord               Discord         `koanf:"discord"`
	Prefixes              Prefixes        `koanf:"prefixes"`
	Pagination            Pagination      `koanf:"pagination"`
	UrbanDictionary       UrbanDictionary `koanf:"urban_dictionary"`
	Docs                  Docs            `koanf:"docs"`
	Locale                Locale          `koanf:"locale"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
	// Enable pprof debugging.
	EnablePprof bool `koanf:"enable_pprof"`
	// pprof server port.
	PprofPort int `koanf:"pprof_port"`
}

// Retry contains retry configuration for database operations.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Name reported to CLIENT LIST.
	ClientName string `koanf:"client_name"`
	// Disable client side caching for servers without CLIENT TRACKING.
	DisableCache bool `koanf:"disable_cache"`
}

// Sentry contains error reporting configuration. Reporting is off without a DSN.
type Sentry struct {
	DSN         string  `koanf:"dsn"`
	Environment string  `koanf:"environment"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// Uptrace contains tracing configuration. Tracing is off without a DSN.
type Uptrace struct {
	DSN         string `koanf:"dsn"`
	Environment string `koanf:"environment"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Discord bot token for authentication.
	Token string `koanf:"token"`
	// Users allowed to run owner-only commands and debug prefixes.
	OwnerIDs []uint64 `koanf:"owner_ids"`
}

// Prefixes contains command prefix configuration.
type Prefixes struct {
	// Prefixes used where no custom prefixes are set.
	Defaults []string `koanf:"defaults"`
	// Extra prefix only owners can use.
	Debug string `koanf:"debug"`
}

// Pagination contains paginated message configuration.
type Pagination struct {
	// Seconds a paginated message accepts input.
	Timeout int `koanf:"timeout"`
}

// UrbanDictionary contains Urban Dictionary API configuration.
type UrbanDictionary struct {
	// API base URL.
	BaseURL string `koanf:"base_url"`
	// Outgoing requests per second.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Outgoing request burst.
	Burst int `koanf:"burst"`
	// Command uses allowed per window for each user.
	CooldownUses int `koanf:"cooldown_uses"`
	// Cooldown window in milliseconds.
	CooldownWindow int `koanf:"cooldown_window"`
	// Seconds define and autocomplete responses stay cached in Redis. Zero disables caching.
	CacheTTL int `koanf:"cache_ttl"`
}

// Docs contains documentation inventory configuration.
type Docs struct {
	// Outgoing requests per second.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Outgoing request burst.
	Burst int `koanf:"burst"`
	// Searchable libraries. The first one is searched by rtfm itself.
	Libraries []DocsLibrary `koanf:"libraries"`
}

// DocsLibrary is a library with a Sphinx objects.inv inventory.
type DocsLibrary struct {
	// Module is the import name, also used as the subcommand name.
	Module string `koanf:"module"`
	// Base URL of the hosted documentation.
	URL string `koanf:"url"`
}

// Locale contains localization configuration.
type Locale struct {
	// Directory holding one folder of TOML bundles per locale.
	Directory string `koanf:"directory"`
	// Locale every other locale falls back to.
	Native string `koanf:"native"`
}

// Timeout returns the configured request timeout, or five seconds.
func (c *BotConfig) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 5 * time.Second
	}

	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return Load(
		".nanika",
		filepath.Join(homeDir, ".nanika", "config"),
		"/etc/nanika/config",
		"config",
		".",
	)
}

// Load reads common.toml and bot.toml from the first of paths holding each.
// Returns the config along with the directory the first file came from.
func Load(paths ...string) (*Config, string, error) {
	var (
		config         Config
		usedConfigPath string
	)

	sections := []struct {
		name   string
		target any
	}{
		{"common", &config.Common},
		{"bot", &config.Bot},
	}

	for _, section := range sections {
		k := koanf.New(".")
		configLoaded := false

		for _, path := range paths {
			configPath := filepath.Join(path, section.name+".toml")
			if _, err := os.Stat(configPath); err != nil {
				continue
			}

			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, "", fmt.Errorf("error loading %s: %w", configPath, err)
			}

			configLoaded = true

			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, section.name)
		}

		if err := k.Unmarshal("", section.target); err != nil {
			return nil, "", fmt.Errorf("error unmarshaling %s.toml: %w", section.name, err)
		}
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			name,
		)
	}

	return nil
}
