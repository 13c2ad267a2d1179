package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "RECORDATORIO_"

type Config struct {
	Telegram  TelegramConfig  `koanf:"telegram"`
	Database  DatabaseConfig  `koanf:"database"`
	Reminders RemindersConfig `koanf:"reminders"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Log       LogConfig       `koanf:"log"`

	location *time.Location
}

type TelegramConfig struct {
	Token string `koanf:"token"`
	Debug bool   `koanf:"debug"`
}

type DatabaseConfig struct {
	// postgres://... for pgx, sqlite:<path> or file:<path> for the embedded store
	URI string `koanf:"uri"`
}

type RemindersConfig struct {
	Timezone          string `koanf:"timezone"`
	DefaultHour       string `koanf:"default_hour"` // HH:MM
	RetryEveryMinutes int    `koanf:"retry_every_minutes"`
	MaxRetries        int    `koanf:"max_retries"`
}

type SchedulerConfig struct {
	IntervalSeconds int `koanf:"interval_seconds"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// plainEnv maps the unprefixed variables used by existing deployments onto
// config keys. Later entries win.
var plainEnv = []struct{ name, key string }{
	{"BOT_TOKEN", "telegram.token"},
	{"TELEGRAM_TOKEN", "telegram.token"},
	{"DATABASE_URI", "database.uri"},
	{"TZ", "reminders.timezone"},
	{"DEFAULT_HOUR", "reminders.default_hour"},
	{"RETRY_EVERY_MINUTES", "reminders.retry_every_minutes"},
	{"MAX_RETRIES", "reminders.max_retries"},
	{"LOG_LEVEL", "log.level"},
}

func Load() (*Config, error) {
	// .env file is optional in production
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	for _, v := range plainEnv {
		if value := strings.TrimSpace(os.Getenv(v.name)); value != "" {
			if err := k.Set(v.key, value); err != nil {
				return nil, fmt.Errorf("failed to set %s: %w", v.key, err)
			}
		}
	}

	// RECORDATORIO_REMINDERS__MAX_RETRIES -> reminders.max_retries
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.Database.URI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}

	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Reminders.Timezone, err)
	}
	c.location = loc

	if _, err := time.Parse("15:04", c.Reminders.DefaultHour); err != nil {
		return fmt.Errorf("default hour must be HH:MM, got %q", c.Reminders.DefaultHour)
	}
	if c.Reminders.RetryEveryMinutes <= 0 {
		return fmt.Errorf("retry_every_minutes must be positive")
	}
	if c.Reminders.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Scheduler.IntervalSeconds <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %d", c.Scheduler.IntervalSeconds)
	}
	return nil
}

// Location returns the configured zone. Validate must have succeeded first.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) RetryCooldown() time.Duration {
	return time.Duration(c.Reminders.RetryEveryMinutes) * time.Minute
}

func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalSeconds) * time.Second
}
