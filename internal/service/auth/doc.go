// Package auth issues and validates the bearer tokens that identify API
// callers. Accounts live outside this service; a token carries the user ID
// and whether the caller may use the admin endpoints.
package auth
