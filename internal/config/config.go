package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the notepad.
type Config struct {
	TelegramToken string `yaml:"telegram_token"`
	// TelegramChatID, when set, is the only chat the bot answers and the
	// chat digests are sent to.
	TelegramChatID int64         `yaml:"telegram_chat_id"`
	DatabaseURL    string        `yaml:"database_url"`
	DigestInterval time.Duration `yaml:"digest_interval"`
	// DigestTime is an optional HH:MM wall-clock time for a daily digest.
	DigestTime string `yaml:"digest_time"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

// Load builds the configuration from defaults, a .env file, an optional YAML
// file and environment variables. Later sources win.
//
// The YAML path is taken from path, or from NOTEPAD_CONFIG when path is empty.
func Load(path string) (Config, error) {
	cfg := Config{
		DatabaseURL: "notepad.db",
		LogLevel:    "info",
		LogFormat:   "text",
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = strings.TrimSpace(os.Getenv("NOTEPAD_CONFIG"))
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); v != "" {
		cfg.TelegramToken = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q", v)
		}
		cfg.TelegramChatID = id
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DIGEST_INTERVAL_HOURS")); v != "" {
		interval, err := parseInterval(v)
		if err != nil {
			return cfg, err
		}
		cfg.DigestInterval = interval
	}
	if v := strings.TrimSpace(os.Getenv("DIGEST_TIME")); v != "" {
		cfg.DigestTime = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}

	if cfg.DigestInterval < 0 {
		return cfg, fmt.Errorf("digest interval must not be negative")
	}

	return cfg, nil
}

// RequireTelegram reports whether the bot can be started with this config.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func parseInterval(raw string) (time.Duration, error) {
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid DIGEST_INTERVAL_HOURS %q", raw)
	}
	return time.Duration(hours) * time.Hour, nil
}
