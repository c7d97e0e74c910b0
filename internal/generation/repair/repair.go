// Package repair recovers structured lesson, outline and chapter content
// from language model output that may be malformed, truncated or wrapped in
// stray text. It never fails: every input yields a well-typed result, with
// an error-shaped fallback as the last resort.
package repair

import (
	"encoding/json"
	"strings"

	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
)

// Stage names the step of the cascade that produced a result.
type Stage string

// Cascade stages, in the order they are tried.
const (
	StageStrict   Stage = "strict"
	StageContent  Stage = "content_field"
	StageFields   Stage = "fields"
	StageHeading  Stage = "heading_slice"
	StageFallback Stage = "fallback"
)

// Repair parses raw into the shape named by hint.
func Repair(raw string, hint generation.Kind) generation.Result {
	res, _ := RepairWithStage(raw, hint)
	return res
}

// RepairWithStage is Repair that also reports which stage succeeded.
func RepairWithStage(raw string, hint generation.Kind) (generation.Result, Stage) {
	text := stripFence(raw)

	if res, ok := strictParse(text, hint); ok {
		return res, StageStrict
	}
	if res, ok := contentFieldParse(text, hint); ok {
		return res, StageContent
	}
	if res, ok := fieldParse(text, hint); ok {
		return res, StageFields
	}
	if res, ok := headingParse(text, hint); ok {
		return res, StageHeading
	}
	return Fallback(raw, hint, "the response could not be parsed"), StageFallback
}

// strictParse decodes a well-formed JSON object. Each known key is decoded
// on its own so one mistyped field does not discard the others.
func strictParse(text string, hint generation.Kind) (generation.Result, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return generation.Result{}, false
	}

	res := generation.Result{Kind: hint}
	content, hasContent := decodeString(obj["content"])
	if hasContent {
		content = NormalizeTables(content)
	}

	switch hint {
	case generation.KindLesson:
		l := &generation.LessonContent{}
		l.Title, _ = decodeString(obj["title"])
		l.Summary, _ = decodeString(obj["summary"])
		l.FullContent, _ = decodeString(obj["full_content"])
		if l.FullContent == "" && hasContent {
			l.FullContent = content
		}
		l.FullContent = NormalizeTables(l.FullContent)
		decodeInto(obj["exercises"], &l.Exercises)
		decodeInto(obj["quiz"], &l.Quiz)
		decodeInto(obj["conversational_practice"], &l.ConversationalPractice)
		res.Lesson = l
	case generation.KindOutline:
		o := &generation.OutlineContent{}
		o.Title, _ = decodeString(obj["title"])
		o.Description, _ = decodeString(obj["description"])
		decodeInto(obj["chapters"], &o.Chapters)
		res.Outline = o
	case generation.KindChapter:
		res.Chapter = &generation.ChapterContent{Content: content}
	default:
		return generation.Result{}, false
	}

	if msg, ok := decodeString(obj[generation.ErrorKey]); ok && msg != "" {
		excerpt, _ := decodeString(obj[generation.ExcerptKey])
		res.Failure = &generation.Failure{Message: msg, Excerpt: excerpt}
	}
	res.Normalize()
	return res, true
}

// contentFieldParse pulls a "content" string out of broken JSON.
func contentFieldParse(text string, hint generation.Kind) (generation.Result, bool) {
	if hint == generation.KindOutline {
		return generation.Result{}, false
	}
	m := contentField.FindStringSubmatch(text)
	if m == nil {
		return generation.Result{}, false
	}
	body := NormalizeTables(unescape(m[1]))
	if strings.TrimSpace(body) == "" {
		return generation.Result{}, false
	}

	res := generation.Result{Kind: hint, Repaired: true}
	if hint == generation.KindChapter {
		res.Chapter = &generation.ChapterContent{Content: body}
	} else {
		res.Lesson = &generation.LessonContent{FullContent: body}
		res.Lesson.Title, _ = extractString(text, "title")
		res.Lesson.Summary, _ = extractString(text, "summary")
	}
	res.Normalize()
	return res, true
}

// fieldParse pulls individual fields and arrays out of broken JSON.
func fieldParse(text string, hint generation.Kind) (generation.Result, bool) {
	res := generation.Result{Kind: hint, Repaired: true}

	switch hint {
	case generation.KindLesson:
		l := &generation.LessonContent{}
		title, okTitle := extractString(text, "title")
		body, okBody := extractString(text, "full_content")
		if !okTitle && !okBody {
			return generation.Result{}, false
		}
		l.Title = title
		l.FullContent = NormalizeTables(body)
		l.Summary, _ = extractString(text, "summary")
		if !extractArray(text, "exercises", &l.Exercises) {
			l.Exercises = []domain.Question{}
		}
		if !extractArray(text, "quiz", &l.Quiz) {
			l.Quiz = []domain.Question{}
		}
		if !extractArray(text, "conversational_practice", &l.ConversationalPractice) {
			l.ConversationalPractice = []domain.DialogueLine{}
		}
		res.Lesson = l
	case generation.KindOutline:
		o := &generation.OutlineContent{}
		title, okTitle := extractString(text, "title")
		okChapters := extractArray(text, "chapters", &o.Chapters)
		if !okTitle && !okChapters {
			return generation.Result{}, false
		}
		o.Title = title
		o.Description, _ = extractString(text, "description")
		res.Outline = o
	default:
		return generation.Result{}, false
	}

	res.Normalize()
	return res, true
}

// headingParse treats the text from the first markdown heading on as the
// body of a partial result.
func headingParse(text string, hint generation.Kind) (generation.Result, bool) {
	if hint == generation.KindOutline {
		return generation.Result{}, false
	}
	body, ok := sliceFromHeading(text)
	if !ok {
		return generation.Result{}, false
	}
	body = NormalizeTables(body)

	res := generation.Result{Kind: hint, Repaired: true}
	if hint == generation.KindChapter {
		res.Chapter = &generation.ChapterContent{Content: body}
	} else {
		res.Lesson = &generation.LessonContent{Title: headingText(body), FullContent: body}
	}
	res.Normalize()
	return res, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeInto decodes raw into v. A value of the wrong type leaves v nil,
// which Normalize turns into an empty list.
func decodeInto[T any](raw json.RawMessage, v *[]T) {
	if len(raw) == 0 {
		return
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		*v = nil
		return
	}
	*v = out
}
