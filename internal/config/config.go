package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"gmatprep/internal/validation"
)

// Config holds application configuration
type Config struct {
	Mode           string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	DefaultTimeLimit time.Duration
	Timezone         string

	// Reminders are sent at most once a day inside [start, end)
	NotificationStartHour int
	NotificationEndHour   int

	AWSRegion     string
	SESFromEmail  string
	SESFromName   string
	ReminderEmail string

	TelegramBotToken string
	TelegramChatID   int64
}

var defaults = map[string]interface{}{
	"GMATPREP_MODE":           "dev",
	"DATABASE_TYPE":           "sqlite",
	"DB_PATH":                 "./gmatprep.db",
	"DATABASE_URL":            "",
	"MIGRATIONS_PATH":         "",
	"DEFAULT_TIME_LIMIT":      "45m",
	"TIMEZONE":                "Local",
	"NOTIFICATION_START_HOUR": 7,
	"NOTIFICATION_END_HOUR":   22,
	"AWS_REGION":              "us-east-1",
	"SES_FROM_EMAIL":          "",
	"SES_FROM_NAME":           "GMAT Prep",
	"REMINDER_EMAIL":          "",
	"TELEGRAM_BOT_TOKEN":      "",
	"TELEGRAM_CHAT_ID":        0,
}

// Load reads configuration from a .env file, if present, and environment
// variables with sensible defaults
func Load() *Config {
	// A missing .env file is fine; the environment still applies
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Config{
		Mode:                  v.GetString("GMATPREP_MODE"),
		DatabaseType:          v.GetString("DATABASE_TYPE"),
		DatabasePath:          v.GetString("DB_PATH"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		MigrationsPath:        v.GetString("MIGRATIONS_PATH"),
		DefaultTimeLimit:      v.GetDuration("DEFAULT_TIME_LIMIT"),
		Timezone:              v.GetString("TIMEZONE"),
		NotificationStartHour: v.GetInt("NOTIFICATION_START_HOUR"),
		NotificationEndHour:   v.GetInt("NOTIFICATION_END_HOUR"),
		AWSRegion:             v.GetString("AWS_REGION"),
		SESFromEmail:          v.GetString("SES_FROM_EMAIL"),
		SESFromName:           v.GetString("SES_FROM_NAME"),
		ReminderEmail:         v.GetString("REMINDER_EMAIL"),
		TelegramBotToken:      v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:        v.GetInt64("TELEGRAM_CHAT_ID"),
	}
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return errors.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return errors.Errorf("unsupported DATABASE_TYPE %q", c.DatabaseType)
	}

	if c.DefaultTimeLimit <= 0 {
		return errors.New("DEFAULT_TIME_LIMIT must be positive")
	}
	if c.NotificationStartHour < 0 || c.NotificationEndHour > 24 || c.NotificationStartHour >= c.NotificationEndHour {
		return errors.Errorf("notification window %d-%d is invalid", c.NotificationStartHour, c.NotificationEndHour)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.SESFromEmail != "" {
		if err := validation.ValidateEmail(c.SESFromEmail); err != nil {
			return errors.Wrap(err, "SES_FROM_EMAIL")
		}
		if err := validation.ValidateEmail(c.ReminderEmail); err != nil {
			return errors.Wrap(err, "REMINDER_EMAIL")
		}
	}
	return nil
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid TIMEZONE %q", c.Timezone)
	}
	return loc, nil
}

// EmailEnabled reports whether SES reminders are configured
func (c *Config) EmailEnabled() bool {
	return c.SESFromEmail != "" && c.ReminderEmail != ""
}

// TelegramEnabled reports whether Telegram reminders are configured
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}
