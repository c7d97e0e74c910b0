package api

import (
	"net/http"

	"github.com/phrazzld/coach-api/internal/api/shared"
)

// ProgressHandler serves the learner progress endpoints.
type ProgressHandler struct {
	svc ProgressService
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(svc ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

// GetProgress handles GET /api/progress.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Get(r.Context(), c.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// AddPracticeTime handles POST /api/progress/time.
func (h *ProgressHandler) AddPracticeTime(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}
	var req PracticeTimeRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	total, err := h.svc.AddPracticeTime(r.Context(), c.UserID, req.Minutes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update practice time")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PracticeTimeResponse{Status: "success", NewTotal: total})
}
