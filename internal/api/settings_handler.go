package api

import (
	"net/http"

	"github.com/phrazzld/coach-api/internal/api/shared"
	"github.com/phrazzld/coach-api/internal/service"
)

// SettingsHandler serves the admin AI settings endpoints.
type SettingsHandler struct {
	svc SettingsService
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// GetAISettings handles GET /api/admin/settings/ai.
func (h *SettingsHandler) GetAISettings(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}
	view, err := h.svc.AISettings(r.Context(), c)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load settings")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// UpdateAISettings handles PUT /api/admin/settings/ai.
func (h *SettingsHandler) UpdateAISettings(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}
	var req service.AISettingsUpdate
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	view, err := h.svc.UpdateAISettings(r.Context(), c, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update settings")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}
