package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress      string        `mapstructure:"SERVER_ADDRESS"`       // e.g., ":8080"
	ServerWriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"` // Must outlast a generation call
	AppEnv             string        `mapstructure:"APP_ENV"`              // "production" switches gin to release mode and logs to JSON
	LogLevel           string        `mapstructure:"LOG_LEVEL"`            // debug|info|warn|error
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"` // Comma separated in env

	// AI Configuration
	LLMProvider           string        `mapstructure:"LLM_PROVIDER"`           // "openai" or "mock"
	OpenAIKey             string        `mapstructure:"OPENAI_API_KEY"`         // API key for OpenAI
	OpenAIBaseURL         string        `mapstructure:"OPENAI_BASE_URL"`        // Optional OpenAI-compatible endpoint
	GenerationModel       string        `mapstructure:"GENERATION_MODEL"`       // e.g., "gpt-4o"
	GenerationTemperature float32       `mapstructure:"GENERATION_TEMPERATURE"` // Sampling temperature
	GenerationTimeout     time.Duration `mapstructure:"GENERATION_TIMEOUT"`     // 0 waits for the model indefinitely

	// Session Configuration
	SessionCapacity int           `mapstructure:"SESSION_CAPACITY"` // Max sessions held in memory
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`      // Idle lifetime of a session

	// Rate Limiting (enabled when REDIS_ADDR is set)
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":         ":8080",
	"SERVER_WRITE_TIMEOUT":   5 * time.Minute,
	"APP_ENV":                "development",
	"LOG_LEVEL":              "info",
	"CORS_ALLOWED_ORIGINS":   []string{},
	"LLM_PROVIDER":           ProviderOpenAI,
	"OPENAI_API_KEY":         "",
	"OPENAI_BASE_URL":        "",
	"GENERATION_MODEL":       "gpt-4o",
	"GENERATION_TEMPERATURE": 0.7,
	"GENERATION_TIMEOUT":     time.Duration(0),
	"SESSION_CAPACITY":       1000,
	"SESSION_TTL":            time.Hour,
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"RATE_LIMIT_PER_MINUTE":  10,
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)     // Path to look for the config file in
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	// Every key needs a default so that Unmarshal picks up its env override.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv() // Read environment variables that match keys

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		slog.Info("config file not found, relying on environment variables", "path", path)
	} else {
		slog.Info("using configuration file", "file", v.ConfigFileUsed())
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.LLMProvider = strings.ToLower(strings.TrimSpace(config.LLMProvider))

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("LLM_PROVIDER %q not supported", c.LLMProvider)
	}
	if c.GenerationTimeout < 0 {
		return errors.New("GENERATION_TIMEOUT must not be negative")
	}
	if c.RedisAddr != "" && c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive when REDIS_ADDR is set")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
