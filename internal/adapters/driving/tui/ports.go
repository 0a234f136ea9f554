// Package tui provides the interactive chat for citeqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls.
type Ports struct {
	// Chat runs sessions and answers questions.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}

// Options configures a chat.
type Options struct {
	// Collection is searched for every question.
	Collection string

	// Owner owns sessions the chat starts.
	Owner string

	// SessionID resumes an existing session when set.
	SessionID string
}
