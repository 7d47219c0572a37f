// Package config provides configuration loading, validation, and management
// for the bot. It reads a YAML file layered with BOT_* environment variables,
// applies defaults, and validates the result.
package config

import (
	"time"
)

// Config defines the application configuration parameters for all components
// of the bot: Telegram transport, access control, AI backend, currency
// lookups, storage, scheduled tasks, logging, and metrics.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	AI        AIConfig        `mapstructure:"ai"`
	Currency  CurrencyConfig  `mapstructure:"currency"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds the transport settings and the raw allow-list.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"            validate:"required"`
	Proxy          string        `mapstructure:"proxy"            validate:"omitempty,url"`
	AllowedUserIDs string        `mapstructure:"allowed_user_ids"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"     validate:"min=1s,max=5m"`

	// Allow is parsed from AllowedUserIDs during Load.
	Allow AllowList `mapstructure:"-" validate:"-"`
}

// AIConfig configures the conversational backend.
type AIConfig struct {
	Provider           string        `mapstructure:"provider"             validate:"oneof=gemini openai"`
	APIKey             string        `mapstructure:"api_key"              validate:"required"`
	Model              string        `mapstructure:"model"                validate:"required"`
	BaseURL            string        `mapstructure:"base_url"             validate:"omitempty,url"`
	Temperature        float32       `mapstructure:"temperature"          validate:"min=0,max=2"`
	SystemInstruction  string        `mapstructure:"system_instruction"`
	Timeout            time.Duration `mapstructure:"timeout"              validate:"min=1s,max=10m"`
	MaxHistoryMessages int           `mapstructure:"max_history_messages" validate:"min=0,max=500"`
	MaxRetries         int           `mapstructure:"max_retries"          validate:"min=0,max=10"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"          validate:"min=0,max=1m"`
}

// CurrencyConfig configures the exchange-rate scraper and its worker pool.
type CurrencyConfig struct {
	SearchBaseURL string        `mapstructure:"search_base_url" validate:"required,url"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"         validate:"min=1s,max=2m"`
	Workers       int           `mapstructure:"workers"         validate:"min=1,max=64"`

	// BreakerFailures consecutive failed lookups suspend lookups for BreakerCooldown.
	BreakerFailures uint32        `mapstructure:"breaker_failures" validate:"min=1,max=100"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" validate:"min=1s,max=1h"`
}

// DatabaseConfig configures the SQLite store backing conversation history.
type DatabaseConfig struct {
	Path             string        `mapstructure:"path"              validate:"required"`
	HistoryRetention time.Duration `mapstructure:"history_retention" validate:"min=0"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig describes a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"    validate:"required_if=Enabled true"`
	Path    string `mapstructure:"path"    validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-visible texts.
type MessagesConfig struct {
	Help               string `mapstructure:"help"                 validate:"required"`
	NotAllowed         string `mapstructure:"not_allowed"          validate:"required"`
	ResetDone          string `mapstructure:"reset_done"           validate:"required"`
	InlineTitle        string `mapstructure:"inline_title"         validate:"required"`
	InlineThumbnailURL string `mapstructure:"inline_thumbnail_url" validate:"omitempty,url"`
}
