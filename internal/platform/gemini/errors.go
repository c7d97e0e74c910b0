package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyPrompt is returned when a rendered prompt is empty.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrMissingAPIKey is returned by the factory when no API key is configured.
	ErrMissingAPIKey = errors.New("gemini API key is not configured")
)
