package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/coach-api/internal/config"
	"github.com/phrazzld/coach-api/internal/platform/logger"
)

// setupAppLogger configures the application logger and logs the loaded
// configuration without secrets.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(logger.LoggerConfig{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)
	l.Debug("Provider configuration",
		"gemini_api_key_present", cfg.LLM.GeminiAPIKey != "",
		"voice_model", cfg.LLM.VoiceModel,
		"content_model", cfg.LLM.ContentModel,
		"redis_configured", cfg.Redis.Addr != "")
	return l, nil
}
