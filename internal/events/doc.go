// Package events decouples the services that request generation from the
// runner that executes it. A service emits a GenerationRequested event
// carrying the new task; registered handlers turn it into background work.
package events
