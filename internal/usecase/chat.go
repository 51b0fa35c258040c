package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"plateful-agent/internal/domain"
)

const (
	defaultMaxMessage    = 500
	defaultMaxTranscript = 50
)

type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	SaveTurn(ctx context.Context, session domain.Session, turn []domain.ChatMessage) error
	GetTranscript(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}

type Advancer interface {
	Advance(ctx context.Context, session domain.Session, text string) (domain.Session, string)
}

type ChatService struct {
	dialogue         Advancer
	store            SessionStore
	maxMessageLen    int
	maxTranscriptLen int
}

type ChatInput struct {
	SessionID string
	Message   string
}

type ChatOutput struct {
	SessionID string
	Reply     string
}

func NewChatService(d Advancer, s SessionStore, maxMessageLen, maxTranscriptLen int) (*ChatService, error) {
	if d == nil {
		return nil, errors.New("usecase: dialogue must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessage
	}
	if maxTranscriptLen <= 0 {
		maxTranscriptLen = defaultMaxTranscript
	}
	return &ChatService{
		dialogue:         d,
		store:            s,
		maxMessageLen:    maxMessageLen,
		maxTranscriptLen: maxTranscriptLen,
	}, nil
}

// Send runs one chat turn. Any submitted text, whitespace included, reaches
// the dialogue untrimmed so that names and phone numbers are stored verbatim.
func (s *ChatService) Send(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if in.Message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(in.Message) > s.maxMessageLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newUUID()
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return ChatOutput{}, newError(ErrorInternal, "session_load_error", err)
	}
	session.ID = sessionID

	next, reply := s.dialogue.Advance(ctx, session, in.Message)
	next.ID = sessionID

	turn := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: in.Message},
		{Role: domain.RoleAssistant, Content: reply},
	}
	if err := s.store.SaveTurn(ctx, next, turn); err != nil {
		return ChatOutput{}, newError(ErrorInternal, "session_write_error", err)
	}

	return ChatOutput{SessionID: sessionID, Reply: reply}, nil
}

// Transcript returns the most recent messages of a session, oldest first.
func (s *ChatService) Transcript(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newError(ErrorInvalidInput, "missing_session_id", nil)
	}
	msgs, err := s.store.GetTranscript(ctx, sessionID, s.maxTranscriptLen)
	if err != nil {
		return nil, newError(ErrorInternal, "transcript_load_error", err)
	}
	return msgs, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
