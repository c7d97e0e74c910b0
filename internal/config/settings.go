package config

import (
	"context"
	"log/slog"
	"strings"
)

// Keys of the runtime AI settings in the settings store.
const (
	SettingGeminiAPIKey = "gemini_api_key"
	SettingVoiceModel   = "voice_model"
	SettingContentModel = "content_model"
)

// AISettings is the provider configuration that may change while the
// process runs.
type AISettings struct {
	APIKey       string
	VoiceModel   string
	ContentModel string
}

// AISettingsProvider returns the current AI settings. Implementations are
// queried every time a generation client is built.
type AISettingsProvider interface {
	AISettings(ctx context.Context) (AISettings, error)
}

// SettingsReader reads key/value settings from durable storage.
type SettingsReader interface {
	GetSettings(ctx context.Context, keys ...string) (map[string]string, error)
}

// StaticSettings is an AISettingsProvider that never changes.
type StaticSettings AISettings

// AISettings implements AISettingsProvider.
func (s StaticSettings) AISettings(context.Context) (AISettings, error) {
	return AISettings(s), nil
}

// NewStaticSettings builds the static defaults from loaded configuration.
func NewStaticSettings(cfg LLMConfig) StaticSettings {
	return StaticSettings{
		APIKey:       cfg.GeminiAPIKey,
		VoiceModel:   cfg.VoiceModel,
		ContentModel: cfg.ContentModel,
	}
}

// FallbackSettings layers stored settings over static defaults. Empty or
// missing stored values fall through to the defaults, and a failing store
// is logged and ignored.
type FallbackSettings struct {
	source   SettingsReader
	defaults AISettings
	logger   *slog.Logger
}

// NewFallbackSettings creates a FallbackSettings. A nil source serves only
// the defaults.
func NewFallbackSettings(source SettingsReader, defaults AISettings, logger *slog.Logger) *FallbackSettings {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackSettings{
		source:   source,
		defaults: defaults,
		logger:   logger.With("component", "ai_settings"),
	}
}

// AISettings implements AISettingsProvider.
func (f *FallbackSettings) AISettings(ctx context.Context) (AISettings, error) {
	out := f.defaults
	if f.source == nil {
		return out, nil
	}

	stored, err := f.source.GetSettings(ctx, SettingGeminiAPIKey, SettingVoiceModel, SettingContentModel)
	if err != nil {
		f.logger.WarnContext(ctx, "failed to read stored AI settings, using defaults", "error", err)
		return out, nil
	}

	overlay(&out.APIKey, stored[SettingGeminiAPIKey])
	overlay(&out.VoiceModel, stored[SettingVoiceModel])
	overlay(&out.ContentModel, stored[SettingContentModel])
	return out, nil
}

func overlay(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
