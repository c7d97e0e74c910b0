package repair

import (
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
)

// maxExcerptRunes bounds the raw text carried in a fallback.
const maxExcerptRunes = 200

// Fallback returns the error-shaped result for kind. Every field of the
// shape is present with a safe default.
func Fallback(raw string, kind generation.Kind, reason string) generation.Result {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	res := generation.Result{
		Kind:    kind,
		Failure: &generation.Failure{Message: reason, Excerpt: Excerpt(raw)},
	}

	switch kind {
	case generation.KindLesson:
		res.Lesson = &generation.LessonContent{
			Title:       generation.FallbackLessonTitle,
			Summary:     generation.FallbackLessonSummary,
			FullContent: "Error details: " + reason,
			ConversationalPractice: []domain.DialogueLine{
				{Speaker: generation.FallbackSpeaker, Text: generation.FallbackPracticeText},
			},
		}
	case generation.KindOutline:
		res.Outline = &generation.OutlineContent{Title: generation.FallbackBookTitle}
	case generation.KindChapter:
		res.Chapter = &generation.ChapterContent{Content: ChapterError(reason)}
	}
	res.Normalize()
	return res
}

// ChapterError is the inline marker stored in a chapter body whose
// generation failed.
func ChapterError(reason string) string {
	return "::: warning\nThis chapter could not be generated: " + reason + "\n:::"
}

// Excerpt truncates raw to a short prefix on a rune boundary.
func Excerpt(raw string) string {
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) <= maxExcerptRunes {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:maxExcerptRunes]) + "..."
}
