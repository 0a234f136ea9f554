package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.ChatSession
	turns    map[string][]domain.ConversationTurn
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		sessions: make(map[string]domain.ChatSession),
		turns:    make(map[string][]domain.ConversationTurn),
	}
}

// CreateSession starts a new session.
func (s *HistoryStore) CreateSession(_ context.Context, owner, title string) (domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	sess := domain.ChatSession{
		ID:        uuid.New().String(),
		Owner:     owner,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// GetSession returns a session by ID.
func (s *HistoryStore) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

// ListSessions returns the owner's sessions, most recently updated first.
func (s *HistoryStore) ListSessions(_ context.Context, owner string) ([]domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ChatSession
	for _, sess := range s.sessions {
		if sess.Owner == owner {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// UpdateTitle renames a session.
func (s *HistoryStore) UpdateTitle(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	sess.Title = title
	s.sessions[id] = sess
	return nil
}

// Turns returns a session's turns in creation order.
func (s *HistoryStore) Turns(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrNotFound
	}
	turns := s.turns[sessionID]
	out := make([]domain.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append records a turn.
func (s *HistoryStore) Append(
	_ context.Context, sessionID string, role domain.Role, content string,
) (domain.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.ConversationTurn{}, domain.ErrNotFound
	}
	now := time.Now()
	turn := domain.ConversationTurn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	sess.UpdatedAt = now
	s.sessions[sessionID] = sess
	return turn, nil
}

// DeleteSession removes a session and its turns.
func (s *HistoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.turns, id)
	return nil
}
