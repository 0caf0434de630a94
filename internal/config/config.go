// Package config loads process-level settings once at startup.
//
// Provider credentials are deliberately absent: they are resolved per request
// through internal/secrets.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"llm-bridge/internal/integrations/google"
	"llm-bridge/internal/integrations/openrouter"
)

const (
	SecretsFromEnv = "env"
	SecretsFromSSM = "ssm"
)

// Config holds the bridge configuration.
type Config struct {
	SecretsSource     string `mapstructure:"secrets_source" validate:"oneof=env ssm"`
	ParamPrefix       string `mapstructure:"param_prefix" validate:"required_if=SecretsSource ssm"`
	GoogleBaseURL     string `mapstructure:"google_base_url" validate:"required,url"`
	OpenRouterBaseURL string `mapstructure:"openrouter_base_url" validate:"required,url"`
	LogLevel          string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

var keys = []string{"secrets_source", "param_prefix", "google_base_url", "openrouter_base_url", "log_level"}

// Load reads configuration from the environment (SECRETS_SOURCE, PARAM_PREFIX,
// GOOGLE_BASE_URL, OPENROUTER_BASE_URL, LOG_LEVEL).
func Load() (*Config, error) {
	return load(viper.New())
}

func load(vip *viper.Viper) (*Config, error) {
	vip.SetDefault("secrets_source", SecretsFromEnv)
	vip.SetDefault("param_prefix", "")
	vip.SetDefault("google_base_url", google.DefaultBaseURL)
	vip.SetDefault("openrouter_base_url", openrouter.DefaultBaseURL)
	vip.SetDefault("log_level", "info")
	vip.AutomaticEnv()
	for _, k := range keys {
		if err := vip.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.SecretsSource = strings.ToLower(strings.TrimSpace(cfg.SecretsSource))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.ParamPrefix = strings.TrimSpace(cfg.ParamPrefix)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
