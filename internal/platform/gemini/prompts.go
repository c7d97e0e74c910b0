package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/phrazzld/coach-api/internal/domain"
)

// VoiceInstruction is the system instruction of the voice profile.
const VoiceInstruction = `You are an AI English Speaking Coach for voice conversations.

CRITICAL RULES:
1. KEEP RESPONSES UNDER 2 SENTENCES - This is a voice call, be brief!
2. Speak naturally like a friend, not a textbook
3. If user makes grammar mistake, correct it quickly: "Great! Just say 'went' not 'go' for past tense."
4. Ask ONE follow-up question to keep conversation going
5. No markdown, no bullet points - plain spoken English only
6. Be warm, encouraging, and patient`

// ContentInstruction is the system instruction of the content profile.
const ContentInstruction = `You are an expert English language education content creator.

Your role is to generate high-quality, structured educational content including:
- Grammar lessons with clear explanations and examples
- Vocabulary lessons with context and usage
- Practice exercises and quizzes
- Book chapters with comprehensive coverage

Guidelines:
- Use clear, professional language
- Provide rich examples and explanations
- Structure content logically
- Include practical exercises
- Make content engaging and easy to understand
- Always follow the requested JSON structure exactly`

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// Template names.
const (
	lessonTemplate  = "lesson.tmpl"
	outlineTemplate = "book_outline.tmpl"
	chapterTemplate = "chapter.tmpl"
)

// promptData is the data passed to the prompt templates.
type promptData struct {
	Topic        string
	Level        domain.Level
	LevelName    string
	ChapterTitle string
	BookTitle    string
}

func newPromptData(topic string, level domain.Level) promptData {
	return promptData{Topic: topic, Level: level, LevelName: level.DisplayName()}
}

// renderPrompt executes the named template.
func renderPrompt(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	prompt := strings.TrimSpace(buf.String())
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	return prompt, nil
}
