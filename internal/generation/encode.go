package generation

import "encoding/json"

// Keys added to the flat JSON form of a fallback result.
const (
	ErrorKey   = "error"
	ExcerptKey = "raw_excerpt"
)

// MarshalJSON writes r in the same flat shape the prompts ask the model
// for, so an encoded result can be fed back through repair.
func (r Result) MarshalJSON() ([]byte, error) {
	r.Normalize()

	out := map[string]any{}
	switch r.Kind {
	case KindLesson:
		out["title"] = r.Lesson.Title
		out["summary"] = r.Lesson.Summary
		out["full_content"] = r.Lesson.FullContent
		out["exercises"] = r.Lesson.Exercises
		out["quiz"] = r.Lesson.Quiz
		out["conversational_practice"] = r.Lesson.ConversationalPractice
	case KindOutline:
		out["title"] = r.Outline.Title
		out["description"] = r.Outline.Description
		out["chapters"] = r.Outline.Chapters
	case KindChapter:
		out["content"] = r.Chapter.Content
	}
	if r.Failure != nil {
		out[ErrorKey] = r.Failure.Message
		out[ExcerptKey] = r.Failure.Excerpt
	}
	return json.Marshal(out)
}
