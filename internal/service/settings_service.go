package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/phrazzld/coach-api/internal/config"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// AISettingsView is the admin view of the AI settings. The API key itself
// is never returned.
type AISettingsView struct {
	APIKeySet    bool   `json:"api_key_set"`
	APIKeyHint   string `json:"api_key_hint,omitempty"`
	VoiceModel   string `json:"voice_model"`
	ContentModel string `json:"content_model"`
}

// AISettingsUpdate carries the settings to change. Nil or blank fields are
// left as they are.
type AISettingsUpdate struct {
	APIKey       *string `json:"api_key"`
	VoiceModel   *string `json:"voice_model"`
	ContentModel *string `json:"content_model"`
}

// SettingsService reads and updates the runtime AI settings. Changes take
// effect the next time a generator is built.
type SettingsService struct {
	store    store.SettingsStore
	provider config.AISettingsProvider
	logger   *slog.Logger
}

// NewSettingsService creates a SettingsService. provider resolves the
// effective settings, normally a config.FallbackSettings over the same
// store.
func NewSettingsService(s store.SettingsStore, provider config.AISettingsProvider, logger *slog.Logger) (*SettingsService, error) {
	if s == nil || provider == nil {
		return nil, &ServiceError{Service: "settings", Operation: "create_service", Message: "dependencies cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{store: s, provider: provider, logger: logger.With("component", "settings_service")}, nil
}

// AISettings returns the effective settings. Admin only.
func (s *SettingsService) AISettings(ctx context.Context, c Caller) (*AISettingsView, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	current, err := s.provider.AISettings(ctx)
	if err != nil {
		return nil, newServiceError("settings", "get_ai_settings", "failed to read settings", err)
	}
	return &AISettingsView{
		APIKeySet:    current.APIKey != "",
		APIKeyHint:   keyHint(current.APIKey),
		VoiceModel:   current.VoiceModel,
		ContentModel: current.ContentModel,
	}, nil
}

// UpdateAISettings stores the given settings and returns the effective
// result. Admin only.
func (s *SettingsService) UpdateAISettings(ctx context.Context, c Caller, u AISettingsUpdate) (*AISettingsView, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}

	values := map[string]string{}
	set := func(key string, v *string) {
		if v == nil {
			return
		}
		if trimmed := strings.TrimSpace(*v); trimmed != "" {
			values[key] = trimmed
		}
	}
	set(config.SettingGeminiAPIKey, u.APIKey)
	set(config.SettingVoiceModel, u.VoiceModel)
	set(config.SettingContentModel, u.ContentModel)
	if len(values) == 0 {
		return nil, domain.NewValidationError("settings", "at least one value is required", domain.ErrValidation)
	}

	if err := s.store.SetSettings(ctx, values); err != nil {
		return nil, newServiceError("settings", "update_ai_settings", "failed to save settings", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("AI settings updated",
		"keys", keys,
		"user_id", c.UserID)

	return s.AISettings(ctx, c)
}

// keyHint shows the last four characters of a key long enough to hide the
// rest.
func keyHint(key string) string {
	if len(key) < 12 {
		return ""
	}
	return "..." + key[len(key)-4:]
}
