package domain

import (
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Title returns the role name capitalised for rendering, e.g. "User".
func (r Role) Title() string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ConversationTurn is one message in a chat session.
// Turns are ordered by creation time within a session.
type ConversationTurn struct {
	ID        string
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// ChatSession groups conversation turns for one owner.
type ChatSession struct {
	ID        string
	Owner     string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// sessionTitleLimit is the number of characters of the first user
// message kept as the session title.
const sessionTitleLimit = 50

// SessionTitle derives a session title from the first user message.
func SessionTitle(firstMessage string) string {
	msg := strings.TrimSpace(firstMessage)
	runes := []rune(msg)
	if len(runes) <= sessionTitleLimit {
		return msg
	}
	return string(runes[:sessionTitleLimit]) + "..."
}
