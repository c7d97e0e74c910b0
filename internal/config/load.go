package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name, so
// server.port is read from COACH_SERVER_PORT.
const EnvPrefix = "COACH"

// Default model used for both the voice and content profiles.
const DefaultModel = "gemini-2.5-flash"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.log_format":               "json",
	"server.shutdown_timeout_seconds": 15,
	"database.url":                    "",
	"auth.jwt_secret":                 "",
	"auth.token_lifetime_minutes":     60 * 24,
	"llm.gemini_api_key":              "",
	"llm.voice_model":                 DefaultModel,
	"llm.content_model":               DefaultModel,
	"llm.max_retries":                 3,
	"llm.base_delay_seconds":          1.0,
	"redis.addr":                      "",
	"redis.password":                  "",
	"redis.db":                        0,
	"task.worker_count":               2,
	"task.queue_size":                 100,
	"task.stuck_task_age_minutes":     30,
	"rate_limit.limit":                15,
	"rate_limit.window_seconds":       60,
	"rate_limit.expiry_seconds":       120,
}

// Load reads configuration from defaults, an optional ./config.yaml and
// COACH_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding values that are already set. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
