package domain

import "strings"

// Level is a CEFR proficiency code.
type Level string

// Supported proficiency levels.
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

var levelNames = map[Level]string{
	LevelA1: "A1 - Beginner",
	LevelA2: "A2 - Elementary",
	LevelB1: "B1 - Intermediate",
	LevelB2: "B2 - Upper Intermediate",
	LevelC1: "C1 - Advanced",
	LevelC2: "C2 - Proficiency",
}

// Levels returns all supported levels in ascending order.
func Levels() []Level {
	return []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}
}

// ParseLevel normalizes s and checks it against the supported codes.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", NewValidationError("level", "must be one of A1, A2, B1, B2, C1, C2", ErrInvalidLevel)
	}
	return l, nil
}

// Valid reports whether l is a supported code.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// DisplayName returns the human readable name, or the raw code when unknown.
func (l Level) DisplayName() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return string(l)
}
