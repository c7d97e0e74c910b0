package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/coach-api/internal/config"
	"github.com/phrazzld/coach-api/internal/generation"
	"google.golang.org/genai"
)

// ModelFunc opens a Model for an API key.
type ModelFunc func(ctx context.Context, apiKey string) (Model, error)

// NewGenAIModel opens a Gemini API client for apiKey.
func NewGenAIModel(ctx context.Context, apiKey string) (Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}
	return client.Models, nil
}

// Factory implements generation.GeneratorFactory. Every NewGenerator call
// reads the AI settings again.
type Factory struct {
	settings config.AISettingsProvider
	llm      config.LLMConfig
	newModel ModelFunc
	logger   *slog.Logger
}

var _ generation.GeneratorFactory = (*Factory)(nil)

// NewFactory creates a Factory. A nil newModel uses NewGenAIModel.
func NewFactory(
	settings config.AISettingsProvider,
	llm config.LLMConfig,
	newModel ModelFunc,
	logger *slog.Logger,
) *Factory {
	if settings == nil {
		settings = config.NewStaticSettings(llm)
	}
	if newModel == nil {
		newModel = NewGenAIModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{settings: settings, llm: llm, newModel: newModel, logger: logger}
}

// NewGenerator implements generation.GeneratorFactory.
func (f *Factory) NewGenerator(ctx context.Context) (generation.Generator, error) {
	s, err := f.settings.AISettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read AI settings: %w", err)
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, ErrMissingAPIKey)
	}

	model, err := f.newModel(ctx, s.APIKey)
	if err != nil {
		return nil, err
	}
	voice, content := s.VoiceModel, s.ContentModel
	if voice == "" {
		voice = f.llm.VoiceModel
	}
	if content == "" {
		content = f.llm.ContentModel
	}
	return NewClient(model, Options{
		VoiceModel:   voice,
		ContentModel: content,
		MaxRetries:   f.llm.MaxRetries,
		BaseDelay:    f.llm.BaseDelay(),
	}, f.logger)
}
