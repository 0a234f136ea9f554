package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions inside persisted chat sessions.
type ChatService struct {
	history driven.HistoryStore
	query   driving.QueryService
}

// NewChatService creates a new chat service.
func NewChatService(history driven.HistoryStore, query driving.QueryService) *ChatService {
	return &ChatService{history: history, query: query}
}

// StartSession creates an empty session.
func (s *ChatService) StartSession(ctx context.Context, owner string) (domain.ChatSession, error) {
	if owner == "" {
		owner = domain.DefaultOwner
	}
	sess, err := s.history.CreateSession(ctx, owner, "")
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("create session: %w", err)
	}
	logger.Debug("Started session %s for %s", sess.ID, owner)
	return sess, nil
}

// Ask records query, answers it with the session's earlier turns as
// context and records the answer. When answering fails, an
// "Error: <message>" assistant turn is recorded and the error returned.
func (s *ChatService) Ask(ctx context.Context, sessionID, collection, query string) (domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Answer{}, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}

	sess, err := s.history.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	prior, err := s.history.Turns(ctx, sessionID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load turns: %w", err)
	}

	if _, err := s.history.Append(ctx, sessionID, domain.RoleUser, query); err != nil {
		return domain.Answer{}, fmt.Errorf("record question: %w", err)
	}
	if sess.Title == "" {
		if err := s.history.UpdateTitle(ctx, sessionID, domain.SessionTitle(query)); err != nil {
			logger.Warn("Failed to set title for session %s: %v", sessionID, err)
		}
	}

	answer, err := s.query.Answer(ctx, query, collection, prior)
	if err != nil {
		if _, aerr := s.history.Append(ctx, sessionID, domain.RoleAssistant, "Error: "+err.Error()); aerr != nil {
			logger.Warn("Failed to record error turn for session %s: %v", sessionID, aerr)
		}
		return domain.Answer{}, err
	}

	if _, err := s.history.Append(ctx, sessionID, domain.RoleAssistant, answer.Text); err != nil {
		return domain.Answer{}, fmt.Errorf("record answer: %w", err)
	}
	return answer, nil
}

// Sessions lists the owner's sessions.
func (s *ChatService) Sessions(ctx context.Context, owner string) ([]domain.ChatSession, error) {
	if owner == "" {
		owner = domain.DefaultOwner
	}
	return s.history.ListSessions(ctx, owner)
}

// Turns returns a session's conversation.
func (s *ChatService) Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	return s.history.Turns(ctx, sessionID)
}

// DeleteSession removes a session and its turns.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.history.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}
