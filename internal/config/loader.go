package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every error returned by LoadConfig.
var ErrConfiguration = errors.New("configuration error")

// secretKeys have no default but may come from the environment only.
var secretKeys = []string{"telegram.token", "ai.api_key"}

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. the YAML file at path (optional)
// 3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: bind env %s: %v", ErrConfiguration, key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	cfg.Telegram.Allow = ParseAllowList(cfg.Telegram.AllowedUserIDs)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	slog.Debug("Configuration loaded",
		"ai_provider", cfg.AI.Provider,
		"ai_model", cfg.AI.Model,
		"db_path", cfg.Database.Path,
		"allow_all", cfg.Telegram.Allow.All(),
		"allowed_ids", len(cfg.Telegram.Allow.IDs()),
		"proxy", cfg.Telegram.Proxy != "")

	return cfg, nil
}

// Validate checks struct-level rules on the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.AI.Provider == "gemini" && c.AI.BaseURL != "" {
		return fmt.Errorf("ai.base_url is only supported by the openai provider")
	}
	return nil
}
