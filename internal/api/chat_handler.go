package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/phrazzld/coach-api/internal/api/shared"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/service"
)

// MaxAudioBytes caps an uploaded voice message.
const MaxAudioBytes = 10 << 20

// ChatHandler serves the text and voice chat endpoints.
type ChatHandler struct {
	svc ChatService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}
	var req ChatRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}
	convID, err := parseConversationID(req.ConversationID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	reply, err := h.svc.Chat(r.Context(), c.UserID, convID, req.Message)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to process message")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reply)
}

// VoiceChat handles POST /api/chat/voice, a multipart form with an audio
// part and an optional conversation_id field.
func (h *ChatHandler) VoiceChat(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(MaxAudioBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge, "Audio file is too large", err)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("audio")
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("audio", "is required", domain.ErrValidation), "")
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(io.LimitReader(file, MaxAudioBytes+1))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read audio", err)
		return
	}
	if len(audio) > MaxAudioBytes {
		shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Audio file is too large")
		return
	}

	convID, err := parseConversationID(r.FormValue("conversation_id"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = service.DefaultAudioMIMEType
	}

	reply, err := h.svc.VoiceChat(r.Context(), c.UserID, convID, audio, mimeType)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to process voice message")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reply)
}
