package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config keeps runtime settings for the planner service.
// Values are read from PLANNER_-prefixed environment variables.
type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" default:"planner.db"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	Timezone    string `envconfig:"TIMEZONE" default:"UTC"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Telegram delivery is optional; reminders are only logged without it.
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`

	RolloverTime      string        `envconfig:"ROLLOVER_TIME" default:"00:05"`
	ReportTime        string        `envconfig:"REPORT_TIME" default:"08:00"`
	ReminderInterval  time.Duration `envconfig:"REMINDER_INTERVAL" default:"15m"`
	ReminderLookahead time.Duration `envconfig:"REMINDER_LOOKAHEAD" default:"1h"`
	JobTimeout        time.Duration `envconfig:"JOB_TIMEOUT" default:"2m"`

	OverallLookbackYears int `envconfig:"OVERALL_LOOKBACK_YEARS" default:"5"`
	OverallRecordCap     int `envconfig:"OVERALL_RECORD_CAP" default:"10000"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("PLANNER", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot check by type alone.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	for name, value := range map[string]string{"ROLLOVER_TIME": c.RolloverTime, "REPORT_TIME": c.ReportTime} {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("invalid %s %q, expected HH:MM", name, value)
		}
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive")
	}
	if c.ReminderLookahead < 0 {
		return fmt.Errorf("REMINDER_LOOKAHEAD must not be negative")
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	if c.OverallLookbackYears <= 0 || c.OverallRecordCap <= 0 {
		return fmt.Errorf("overall analytics bounds must be positive")
	}
	return nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
