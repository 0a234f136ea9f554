package driving

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// ChatService runs question answering inside persisted chat sessions.
type ChatService interface {
	// StartSession creates an empty session for owner.
	StartSession(ctx context.Context, owner string) (domain.ChatSession, error)

	// Ask records the question, answers it using the session's earlier turns
	// and records the answer. On failure an error turn is recorded instead.
	Ask(ctx context.Context, sessionID, collection, query string) (domain.Answer, error)

	// Sessions lists the owner's sessions.
	Sessions(ctx context.Context, owner string) ([]domain.ChatSession, error)

	// Turns returns a session's conversation.
	Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, sessionID string) error
}
