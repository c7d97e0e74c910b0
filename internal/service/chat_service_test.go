package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/mocks"
	"github.com/phrazzld/coach-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	svc      *ChatService
	gen      *mocks.MockGenerator
	gens     *mocks.MockGeneratorFactory
	convs    *mocks.ConversationStore
	progress *mocks.ProgressStore
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	gen := &mocks.MockGenerator{Reply: "Great question!"}
	gens := &mocks.MockGeneratorFactory{Generator: gen}
	convs := mocks.NewConversationStore()
	progress := mocks.NewProgressStore()
	svc, err := NewChatService(gens, convs, progress, testLogger())
	require.NoError(t, err)
	return &chatFixture{svc: svc, gen: gen, gens: gens, convs: convs, progress: progress}
}

func TestChatService_NewConversation(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	user := uuid.New()

	reply, err := f.svc.Chat(ctx, user, nil, "How do I use 'since'?")
	require.NoError(t, err)
	assert.Equal(t, "Great question!", reply.Response)
	assert.NotEqual(t, uuid.Nil, reply.ConversationID)

	conv, err := f.convs.GetByID(ctx, reply.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, user, conv.UserID)
	assert.Equal(t, []domain.Turn{{User: "How do I use 'since'?", Assistant: "Great question!"}}, conv.History)

	p, err := f.progress.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.ChatPracticeMinutes, p.PracticeTimeMinutes)
}

func TestChatService_ContinuesConversationWithHistory(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := f.svc.Chat(ctx, user, nil, "Hello")
	require.NoError(t, err)

	f.gen.Reply = "Sure."
	second, err := f.svc.Chat(ctx, user, &first.ConversationID, "Can we practise?")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	histories := f.gen.ChatHistories()
	require.Len(t, histories, 2)
	assert.Empty(t, histories[0])
	assert.Equal(t, []generation.Message{
		{Role: generation.RoleUser, Text: "Hello"},
		{Role: generation.RoleModel, Text: "Great question!"},
	}, histories[1])

	conv, err := f.convs.GetByID(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.History, 2)

	p, err := f.progress.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, p.PracticeTimeMinutes)
}

func TestChatService_UnknownOrForeignConversation(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()

	unknown := uuid.New()
	_, err := f.svc.Chat(ctx, uuid.New(), &unknown, "Hello")
	assert.ErrorIs(t, err, store.ErrConversationNotFound)

	owned, err := f.svc.Chat(ctx, uuid.New(), nil, "Hello")
	require.NoError(t, err)
	_, err = f.svc.Chat(ctx, uuid.New(), &owned.ConversationID, "Hijack")
	assert.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestChatService_EmptyMessage(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)

	_, err := f.svc.Chat(context.Background(), uuid.New(), nil, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.VoiceChat(context.Background(), uuid.New(), nil, nil, "audio/ogg")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.gens.Calls())
}

func TestChatService_ProviderFailureRecordsApology(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	f.gen.ChatFn = func(context.Context, []generation.Message, string) string {
		return generation.ChatApology
	}
	ctx := context.Background()

	reply, err := f.svc.Chat(ctx, uuid.New(), nil, "Hello")
	require.NoError(t, err)
	assert.Equal(t, generation.ChatApology, reply.Response)

	conv, err := f.convs.GetByID(ctx, reply.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{{User: "Hello", Assistant: generation.ChatApology}}, conv.History)
}

func TestChatService_GeneratorUnavailable(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	f.gens.Err = generation.ErrInvalidConfig

	reply, err := f.svc.Chat(context.Background(), uuid.New(), nil, "Hello")
	require.NoError(t, err)
	assert.Equal(t, generation.ChatApology, reply.Response)

	voice, err := f.svc.VoiceChat(context.Background(), uuid.New(), nil, []byte{1, 2}, "")
	require.NoError(t, err)
	assert.Equal(t, generation.AudioApology, voice.Response)
}

func TestChatService_VoiceChat(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	var gotMIME string
	var gotAudio []byte
	f.gen.AudioFn = func(_ context.Context, _ []generation.Message, audio []byte, mimeType string) string {
		gotAudio, gotMIME = audio, mimeType
		return "I heard you."
	}
	ctx := context.Background()

	reply, err := f.svc.VoiceChat(ctx, uuid.New(), nil, []byte{0x1a, 0x45}, "")
	require.NoError(t, err)
	assert.Equal(t, "I heard you.", reply.Response)
	assert.Equal(t, DefaultAudioMIMEType, gotMIME)
	assert.Equal(t, []byte{0x1a, 0x45}, gotAudio)

	conv, err := f.convs.GetByID(ctx, reply.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoiceMessageMarker, conv.History[0].User)
}

func TestChatService_SaveFailure(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := f.svc.Chat(ctx, user, nil, "Hello")
	require.NoError(t, err)

	f.convs.UpdateErr = errors.New("connection reset")
	_, err = f.svc.Chat(ctx, user, &first.ConversationID, "Again")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "chat", svcErr.Operation)
}

func TestChatService_ProgressFailureKeepsReply(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	f.progress.SaveErr = errors.New("read only")

	reply, err := f.svc.Chat(context.Background(), uuid.New(), nil, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Great question!", reply.Response)
}
