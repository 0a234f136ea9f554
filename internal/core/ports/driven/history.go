package driven

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// HistoryStore persists chat sessions and their conversation turns.
type HistoryStore interface {
	// CreateSession starts a new session owned by owner.
	CreateSession(ctx context.Context, owner, title string) (domain.ChatSession, error)

	// GetSession returns a session by ID, or domain.ErrNotFound.
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)

	// ListSessions returns the owner's sessions, most recently updated first.
	ListSessions(ctx context.Context, owner string) ([]domain.ChatSession, error)

	// UpdateTitle renames a session.
	UpdateTitle(ctx context.Context, id, title string) error

	// Turns returns a session's turns in creation order.
	Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)

	// Append records a turn at the end of a session.
	Append(ctx context.Context, sessionID string, role domain.Role, content string) (domain.ConversationTurn, error)

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, id string) error
}
