package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/generation/repair"
	"google.golang.org/genai"
)

// Apologies returned by the chat operations when the provider call fails.
const (
	ChatApology  = generation.ChatApology
	AudioApology = generation.AudioApology
)

// Chat tuning for the voice profile.
const (
	chatMaxOutputTokens int32   = 150
	chatTemperature     float32 = 0.7

	// DefaultAudioMIMEType is used when a voice message arrives untagged.
	DefaultAudioMIMEType = "audio/webm"

	jsonMIMEType = "application/json"

	roleUser  = "user"
	roleModel = "model"
)

// Model is the slice of the genai client the Client uses. *genai.Models
// satisfies it.
type Model interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Options configures a Client.
type Options struct {
	VoiceModel   string
	ContentModel string
	MaxRetries   int
	BaseDelay    time.Duration
}

// Client implements generation.Generator.
type Client struct {
	model  Model
	opts   Options
	logger *slog.Logger
}

var _ generation.Generator = (*Client)(nil)

// NewClient creates a Client over model.
func NewClient(model Model, opts Options, logger *slog.Logger) (*Client, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model cannot be nil", generation.ErrInvalidConfig)
	}
	if opts.VoiceModel == "" || opts.ContentModel == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", generation.ErrInvalidConfig)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay < 0 {
		opts.BaseDelay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		model:  model,
		opts:   opts,
		logger: logger.With(slog.String("component", "gemini_client")),
	}, nil
}

// GenerateLesson implements generation.Generator.
func (c *Client) GenerateLesson(ctx context.Context, topic string, level domain.Level) generation.Result {
	return c.generateFromTemplate(ctx, generation.KindLesson, lessonTemplate, newPromptData(topic, level))
}

// GenerateBookOutline implements generation.Generator.
func (c *Client) GenerateBookOutline(ctx context.Context, topic string, level domain.Level) generation.Result {
	return c.generateFromTemplate(ctx, generation.KindOutline, outlineTemplate, newPromptData(topic, level))
}

// GenerateChapterContent implements generation.Generator.
func (c *Client) GenerateChapterContent(
	ctx context.Context,
	chapterTitle, bookTitle string,
	level domain.Level,
) generation.Result {
	data := newPromptData(bookTitle, level)
	data.ChapterTitle = chapterTitle
	data.BookTitle = bookTitle
	return c.generateFromTemplate(ctx, generation.KindChapter, chapterTemplate, data)
}

func (c *Client) generateFromTemplate(
	ctx context.Context,
	kind generation.Kind,
	name string,
	data promptData,
) generation.Result {
	prompt, err := renderPrompt(name, data)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to render prompt",
			slog.String("template", name),
			slog.String("error", err.Error()))
		return repair.Fallback("", kind, err.Error())
	}
	return c.GenerateStructured(ctx, kind, prompt)
}

// GenerateStructured sends prompt to the content profile in JSON mode and
// repairs the reply into the shape named by kind. Provider failures yield
// the repair fallback instead of an error.
func (c *Client) GenerateStructured(ctx context.Context, kind generation.Kind, prompt string) generation.Result {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: textContent(roleUser, ContentInstruction),
		ResponseMIMEType:  jsonMIMEType,
	}
	contents := []*genai.Content{textContent(roleUser, prompt)}

	text, err := c.callWithRetry(ctx, c.opts.ContentModel, contents, cfg)
	if err != nil {
		c.logger.ErrorContext(ctx, "structured generation failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return repair.Fallback(text, kind, err.Error())
	}

	res, stage := repair.RepairWithStage(text, kind)
	if stage != repair.StageStrict {
		c.logger.WarnContext(ctx, "model response needed repair",
			slog.String("kind", string(kind)),
			slog.String("stage", string(stage)),
			slog.Int("response_length", len(text)))
	}
	return res
}

// Chat implements generation.Generator.
func (c *Client) Chat(ctx context.Context, history []generation.Message, message string) string {
	contents := append(historyContents(history), textContent(roleUser, message))
	reply, err := c.chat(ctx, contents)
	if err != nil {
		c.logger.ErrorContext(ctx, "chat failed", slog.String("error", err.Error()))
		return ChatApology
	}
	return reply
}

// ChatWithAudio implements generation.Generator. An empty mimeType is
// treated as DefaultAudioMIMEType.
func (c *Client) ChatWithAudio(
	ctx context.Context,
	history []generation.Message,
	audio []byte,
	mimeType string,
) string {
	if len(audio) == 0 {
		return AudioApology
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DefaultAudioMIMEType
	}
	turn := &genai.Content{
		Role:  roleUser,
		Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}}},
	}
	reply, err := c.chat(ctx, append(historyContents(history), turn))
	if err != nil {
		c.logger.ErrorContext(ctx, "voice chat failed",
			slog.String("mime_type", mimeType),
			slog.Int("audio_bytes", len(audio)),
			slog.String("error", err.Error()))
		return AudioApology
	}
	return reply
}

// chat makes a single voice-profile call. Chat is latency bound, so it is
// not retried.
func (c *Client) chat(ctx context.Context, contents []*genai.Content) (string, error) {
	temperature := chatTemperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: textContent(roleUser, VoiceInstruction),
		MaxOutputTokens:   chatMaxOutputTokens,
		Temperature:       &temperature,
	}
	resp, err := c.model.GenerateContent(ctx, c.opts.VoiceModel, contents, cfg)
	if err != nil {
		return "", err
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty reply", generation.ErrInvalidResponse)
	}
	return strings.TrimSpace(text), nil
}

func textContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}

// historyContents maps stored turns to provider contents, skipping empty
// turns the provider would reject.
func historyContents(history []generation.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := roleUser
		if m.Role == generation.RoleModel {
			role = roleModel
		}
		contents = append(contents, textContent(role, m.Text))
	}
	return contents
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
