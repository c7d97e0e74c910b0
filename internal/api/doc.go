// Package api holds the HTTP handlers for lesson and book generation,
// task status polling, chat and the learner's library and progress.
// Handlers decode and validate requests, call the services and map
// service errors to safe status codes and messages.
package api
