package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"plateful-agent/internal/domain"
)

// Memory keeps sessions in process memory. State is lost on restart.
type Memory struct {
	mu          sync.Mutex
	sessions    map[string]domain.Session
	transcripts map[string][]domain.ChatMessage
}

func NewMemory() *Memory {
	return &Memory{
		sessions:    make(map[string]domain.Session),
		transcripts: make(map[string][]domain.ChatMessage),
	}
}

func (m *Memory) GetSession(_ context.Context, sessionID string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.Session{ID: sessionID}, nil
	}
	s.Organizations = append([]domain.Organization(nil), s.Organizations...)
	return s, nil
}

func (m *Memory) SaveTurn(_ context.Context, session domain.Session, turn []domain.ChatMessage) error {
	if strings.TrimSpace(session.ID) == "" {
		return errors.New("repository: SaveTurn: session ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session.Organizations = append([]domain.Organization(nil), session.Organizations...)
	m.sessions[session.ID] = session
	m.transcripts[session.ID] = append(m.transcripts[session.ID], turn...)
	return nil
}

func (m *Memory) GetTranscript(_ context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.transcripts[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ChatMessage(nil), msgs...), nil
}
