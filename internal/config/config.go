// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Games    GamesConfig    `mapstructure:"games"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
	// OwnerIDs are the accounts whose messages count as the bot's own:
	// they may manage reminders and toggle the bot.
	OwnerIDs    []int64       `mapstructure:"owner_ids"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	TTTTurnTimeout time.Duration  `mapstructure:"ttt_turn_timeout"`
	Akinator       AkinatorConfig `mapstructure:"akinator"`
}

// AkinatorConfig holds settings for the entity guess backend.
type AkinatorConfig struct {
	DefaultRegion   string        `mapstructure:"default_region"`
	BaseURLTemplate string        `mapstructure:"base_url_template"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// HTTPConfig holds the status server settings. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory or configPath is loaded first so its
// values act as environment variables.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(configPath); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_DRIVER, GAMES_AKINATOR_DEFAULT_REGION
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	return &cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
func loadDotEnv(configPath string) error {
	paths := []string{".env"}
	if configPath != "" && configPath != "." {
		paths = append(paths, filepath.Join(configPath, ".env"))
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.owner_ids", []int64{})
	v.SetDefault("bot.poll_timeout", "10s")

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "minigame")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "minigame")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.sqlite_path", "storage/data/bot.db")

	// Game defaults
	v.SetDefault("games.ttt_turn_timeout", "2m")
	v.SetDefault("games.akinator.default_region", "en")
	v.SetDefault("games.akinator.base_url_template", "https://{region}.akinator.com")
	v.SetDefault("games.akinator.timeout", "30s")

	v.SetDefault("http.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Validate checks the settings needed to run the bot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return errors.New("bot.token is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && strings.TrimSpace(c.Database.SQLitePath) == "" {
		return errors.New("database.sqlite_path is required for the sqlite driver")
	}
	return nil
}

// IsOwner checks if a user ID is in the owner list.
func (c *Config) IsOwner(userID int64) bool {
	for _, id := range c.Bot.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
