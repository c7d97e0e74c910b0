package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// DefaultAudioMIMEType is assumed for voice messages without a content type.
const DefaultAudioMIMEType = "audio/webm"

// ChatReply is the answer to one chat turn.
type ChatReply struct {
	Response       string    `json:"response"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

// ChatService runs conversations with the language model. Each turn is
// appended to the conversation history and counts as one practice minute.
type ChatService struct {
	generators    generation.GeneratorFactory
	conversations store.ConversationStore
	progress      store.ProgressStore
	logger        *slog.Logger
}

// NewChatService creates a ChatService.
func NewChatService(
	generators generation.GeneratorFactory,
	conversations store.ConversationStore,
	progress store.ProgressStore,
	logger *slog.Logger,
) (*ChatService, error) {
	if generators == nil || conversations == nil || progress == nil {
		return nil, &ServiceError{Service: "chat", Operation: "create_service", Message: "dependencies cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		generators:    generators,
		conversations: conversations,
		progress:      progress,
		logger:        logger.With("component", "chat_service"),
	}, nil
}

// Chat answers a text message. A nil conversationID starts a new
// conversation; an unknown or foreign one is reported as not found.
func (s *ChatService) Chat(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	return s.turn(ctx, "chat", userID, conversationID, message, func(gen generation.Generator, history []generation.Message) string {
		return gen.Chat(ctx, history, message)
	}, generation.ChatApology)
}

// VoiceChat answers a recorded voice message. The stored user side of the
// turn is domain.VoiceMessageMarker.
func (s *ChatService) VoiceChat(
	ctx context.Context,
	userID uuid.UUID,
	conversationID *uuid.UUID,
	audio []byte,
	mimeType string,
) (*ChatReply, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyMessage
	}
	if mimeType == "" {
		mimeType = DefaultAudioMIMEType
	}
	return s.turn(ctx, "voice_chat", userID, conversationID, domain.VoiceMessageMarker,
		func(gen generation.Generator, history []generation.Message) string {
			return gen.ChatWithAudio(ctx, history, audio, mimeType)
		}, generation.AudioApology)
}

func (s *ChatService) turn(
	ctx context.Context,
	op string,
	userID uuid.UUID,
	conversationID *uuid.UUID,
	userText string,
	ask func(generation.Generator, []generation.Message) string,
	apology string,
) (*ChatReply, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	conv, isNew, err := s.conversation(ctx, userID, conversationID)
	if err != nil {
		return nil, newServiceError("chat", op, "failed to load conversation", err)
	}

	var reply string
	gen, err := s.generators.NewGenerator(ctx)
	if err != nil {
		log.Error("failed to create generator", "error", err)
		reply = apology
	} else {
		reply = ask(gen, generation.HistoryFromTurns(conv.History))
	}

	conv.Append(userText, reply)
	if isNew {
		err = s.conversations.Create(ctx, conv)
	} else {
		err = s.conversations.UpdateHistory(ctx, conv)
	}
	if err != nil {
		return nil, newServiceError("chat", op, "failed to save conversation", err)
	}

	s.addPracticeMinute(ctx, userID)
	return &ChatReply{Response: reply, ConversationID: conv.ID}, nil
}

func (s *ChatService) conversation(ctx context.Context, userID uuid.UUID, id *uuid.UUID) (*domain.Conversation, bool, error) {
	if id == nil || *id == uuid.Nil {
		return domain.NewConversation(userID), true, nil
	}
	conv, err := s.conversations.GetByID(ctx, *id)
	if err != nil {
		return nil, false, err
	}
	if !conv.OwnedBy(userID) {
		return nil, false, store.ErrConversationNotFound
	}
	return conv, false, nil
}

// addPracticeMinute credits the turn. The reply has already been stored,
// so a failure here is logged rather than returned.
func (s *ChatService) addPracticeMinute(ctx context.Context, userID uuid.UUID) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	p, err := s.progress.Get(ctx, userID)
	if err == nil {
		err = p.AddPracticeMinutes(domain.ChatPracticeMinutes)
	}
	if err == nil {
		err = s.progress.Save(ctx, p)
	}
	if err != nil {
		log.Warn("failed to record chat practice time",
			"error", err,
			"user_id", userID)
	}
}
