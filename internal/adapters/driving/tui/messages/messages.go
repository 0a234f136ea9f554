// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// SessionStarted carries a newly created session.
type SessionStarted struct {
	Session domain.ChatSession
	Err     error
}

// TurnsLoaded carries the history of a resumed session.
type TurnsLoaded struct {
	SessionID string
	Turns     []domain.ConversationTurn
	Err       error
}

// AnswerReceived carries the answer to a submitted question.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
