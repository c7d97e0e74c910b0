package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/api/shared"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/service"
)

// GenerationHandler serves the generation submission and polling
// endpoints. Submissions answer 303 See Other pointing at the task's
// status endpoint.
type GenerationHandler struct {
	svc GenerationService
}

// NewGenerationHandler creates a GenerationHandler.
func NewGenerationHandler(svc GenerationService) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// RequestLesson handles POST /api/lessons/generate.
func (h *GenerationHandler) RequestLesson(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.svc.RequestLesson)
}

// RequestBook handles POST /api/admin/books/generate.
func (h *GenerationHandler) RequestBook(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.svc.RequestBook)
}

// RegenerateLesson handles POST /api/lessons/{id}/regenerate.
func (h *GenerationHandler) RegenerateLesson(w http.ResponseWriter, r *http.Request) {
	h.retarget(w, r, h.svc.RegenerateLesson)
}

// RegenerateBook handles POST /api/admin/books/{id}/regenerate.
func (h *GenerationHandler) RegenerateBook(w http.ResponseWriter, r *http.Request) {
	h.retarget(w, r, h.svc.RegenerateBook)
}

// FillBookContent handles POST /api/admin/books/{id}/fill.
func (h *GenerationHandler) FillBookContent(w http.ResponseWriter, r *http.Request) {
	h.retarget(w, r, h.svc.FillBookContent)
}

// RegenerateChapter handles POST /api/admin/chapters/{id}/regenerate.
func (h *GenerationHandler) RegenerateChapter(w http.ResponseWriter, r *http.Request) {
	h.retarget(w, r, h.svc.RegenerateChapter)
}

// Status handles GET /api/generation/{id}.
func (h *GenerationHandler) Status(w http.ResponseWriter, r *http.Request) {
	c, taskID, ok := handleCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	status, err := h.svc.Status(r.Context(), c, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

type createFunc func(ctx context.Context, c service.Caller, topic, level string) (*domain.GenerationTask, error)

type retargetFunc func(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error)

func (h *GenerationHandler) create(w http.ResponseWriter, r *http.Request, submit createFunc) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}
	var req GenerateRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	t, err := submit(r.Context(), c, req.Topic, req.Level)
	h.respond(w, r, t, err)
}

func (h *GenerationHandler) retarget(w http.ResponseWriter, r *http.Request, submit retargetFunc) {
	c, id, ok := handleCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := submit(r.Context(), c, id)
	h.respond(w, r, t, err)
}

func (h *GenerationHandler) respond(w http.ResponseWriter, r *http.Request, t *domain.GenerationTask, err error) {
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start generation")
		return
	}
	logger.FromContext(r.Context()).Info("generation task submitted",
		"task_id", t.ID,
		"task_type", t.Kind,
		"operation", t.Operation)
	shared.RespondSeeOther(w, r, StatusURL(t.ID), TaskSubmittedResponse{
		TaskID:    t.ID,
		Status:    t.Status,
		StatusURL: StatusURL(t.ID),
	})
}
