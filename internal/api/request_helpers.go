package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/api/shared"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/service"
)

// callerFromContext returns the identity the auth middleware stored for r.
func callerFromContext(r *http.Request) (service.Caller, bool) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{UserID: userID, IsAdmin: shared.IsAdmin(r.Context())}, true
}

// handleCaller is callerFromContext that writes a 401 when the request is
// not authenticated.
func handleCaller(w http.ResponseWriter, r *http.Request) (service.Caller, bool) {
	c, ok := callerFromContext(r)
	if !ok {
		logger.FromContext(r.Context()).Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return service.Caller{}, false
	}
	return c, true
}

// getPathUUID parses the chi path parameter paramName as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// handleCallerAndPathUUID extracts the caller and the path UUID, writing
// the error response when either is missing.
func handleCallerAndPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (service.Caller, uuid.UUID, bool) {
	c, ok := handleCaller(w, r)
	if !ok {
		return service.Caller{}, uuid.Nil, false
	}
	id, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContext(r.Context()).Warn("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return service.Caller{}, uuid.Nil, false
	}
	return c, id, true
}

// parseAndValidateRequest decodes the JSON body into v and validates it,
// writing a 400 on failure.
func parseAndValidateRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			HandleAPIError(w, r, err, "")
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter, returning def
// when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer", domain.ErrValidation)
	}
	return n, nil
}

// RateLimitKey keys generation rate limits by the authenticated user. It
// must run behind the auth middleware.
func RateLimitKey(r *http.Request) (string, bool) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		return "", false
	}
	return userID.String(), true
}
