// Package service contains the application use cases behind the HTTP API.
// It orchestrates domain objects and the stores defined in internal/store:
//
//   - GenerationService turns requests into generation tasks, hands them to
//     the background executor through events, and reports task status.
//   - ChatService runs text and voice conversations against the language
//     model and records history.
//   - ProgressService tracks lesson completion, streaks and practice time.
//   - LibraryService serves lessons and books and the admin book actions.
//   - SettingsService reads and updates the runtime AI settings.
//
// Services receive their collaborators through constructors and never
// depend on infrastructure packages directly.
package service
