package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// ServerConfig contains HTTP server and logging settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat              string `mapstructure:"log_format" validate:"required,oneof=json text"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains token signing settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// LLMConfig contains the static defaults for the generation provider. The
// API key and model names can be overridden at runtime through the
// settings table.
type LLMConfig struct {
	GeminiAPIKey     string  `mapstructure:"gemini_api_key"`
	VoiceModel       string  `mapstructure:"voice_model" validate:"required"`
	ContentModel     string  `mapstructure:"content_model" validate:"required"`
	MaxRetries       int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelaySeconds float64 `mapstructure:"base_delay_seconds" validate:"gt=0"`
}

// RedisConfig points at the ephemeral cache used for rate-limit windows.
// An empty Addr keeps the windows in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// TaskConfig sizes the background worker pool.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize           int `mapstructure:"queue_size" validate:"gt=0"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gt=0"`
}

// RateLimitConfig controls admission to generation endpoints.
type RateLimitConfig struct {
	Limit         int `mapstructure:"limit" validate:"gt=0"`
	WindowSeconds int `mapstructure:"window_seconds" validate:"gt=0"`
	ExpirySeconds int `mapstructure:"expiry_seconds" validate:"gtefield=WindowSeconds"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// TokenLifetime returns how long an issued access token stays valid.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// BaseDelay returns the initial retry backoff.
func (c LLMConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelaySeconds * float64(time.Second))
}

// StuckTaskAge returns how long a task may stay processing before the
// monitor fails it.
func (c TaskConfig) StuckTaskAge() time.Duration {
	return time.Duration(c.StuckTaskAgeMinutes) * time.Minute
}

// Window returns the sliding window length.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Expiry returns the absolute lifetime of a stored window.
func (c RateLimitConfig) Expiry() time.Duration {
	return time.Duration(c.ExpirySeconds) * time.Second
}
