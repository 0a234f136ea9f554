package services

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// contextHeader precedes the rendered conversation window.
const contextHeader = "Previous conversation context:"

// currentQuestionLabel precedes the current query after the window.
const currentQuestionLabel = "Current question: "

// ContextOptions configures AssembleQuery.
type ContextOptions struct {
	// Keywords are topic terms. A keyword contained in the query but not in
	// recent conversation marks a change of topic. Matching is a
	// case-insensitive substring test, so "AWPs" contains "AWP".
	Keywords []string

	// Indicators are words and phrases that mark a follow-up question.
	Indicators []string

	// CharBudget caps the total characters of the turns in the window.
	CharBudget int

	// TurnCap caps the number of turns in the window.
	TurnCap int

	// RecentTurns is how many trailing turns are inspected for topics.
	RecentTurns int
}

// ContextOptionsFromSettings converts settings into options, filling
// zero values with defaults.
func ContextOptionsFromSettings(s domain.ContextSettings) ContextOptions {
	def := domain.DefaultContextSettings()
	opts := ContextOptions{
		Keywords:    s.Keywords,
		Indicators:  s.Indicators,
		CharBudget:  s.CharBudget,
		TurnCap:     s.TurnCap,
		RecentTurns: s.RecentTurns,
	}
	if opts.Keywords == nil {
		opts.Keywords = def.Keywords
	}
	if opts.Indicators == nil {
		opts.Indicators = def.Indicators
	}
	if opts.CharBudget <= 0 {
		opts.CharBudget = def.CharBudget
	}
	if opts.TurnCap <= 0 {
		opts.TurnCap = def.TurnCap
	}
	if opts.RecentTurns <= 0 {
		opts.RecentTurns = def.RecentTurns
	}
	return opts
}

// ContextDecision is the outcome of AssembleQuery.
type ContextDecision struct {
	// Query is the effective query: the original query, or the rendered
	// window followed by the query.
	Query string

	// UseContext reports whether the query was judged a follow-up on the
	// same topic.
	UseContext bool

	// HasFollowup reports whether a follow-up indicator was found.
	HasFollowup bool

	// NewTopics lists keywords present in the query but not in recent turns.
	NewTopics []string

	// Window holds the included turns in chronological order.
	Window []domain.ConversationTurn
}

// AssembleQuery decides whether to fold earlier turns into query and
// builds the effective query. history holds the session's turns in
// chronological order; a trailing user turn equal to query is treated as
// the current question and ignored.
//
// It performs no I/O.
func AssembleQuery(history []domain.ConversationTurn, query string, opts ContextOptions) ContextDecision {
	decision := ContextDecision{Query: query}

	history = withoutCurrentTurn(history, query)
	if len(history) <= 1 {
		return decision
	}

	recent := history
	if opts.RecentTurns > 0 && len(recent) > opts.RecentTurns {
		recent = recent[len(recent)-opts.RecentTurns:]
	}
	parts := make([]string, len(recent))
	for i, turn := range recent {
		parts[i] = turn.Content
	}
	recentContent := strings.ToLower(strings.Join(parts, " "))
	queryLower := strings.ToLower(query)

	for _, indicator := range opts.Indicators {
		if strings.Contains(queryLower, strings.ToLower(indicator)) {
			decision.HasFollowup = true
			break
		}
	}

	for _, keyword := range opts.Keywords {
		kw := strings.ToLower(keyword)
		if strings.Contains(queryLower, kw) && !strings.Contains(recentContent, kw) {
			decision.NewTopics = append(decision.NewTopics, keyword)
		}
	}

	decision.UseContext = decision.HasFollowup && len(decision.NewTopics) == 0
	if !decision.UseContext {
		return decision
	}

	decision.Window = contextWindow(history, opts.CharBudget, opts.TurnCap)
	if len(decision.Window) == 0 {
		return decision
	}
	decision.Query = renderContext(decision.Window, query)
	return decision
}

// contextWindow walks history newest to oldest and keeps turns until the
// next one would exceed the character budget or the turn cap. It stops at
// the first turn that does not fit. The result is chronological.
func contextWindow(history []domain.ConversationTurn, charBudget, turnCap int) []domain.ConversationTurn {
	var window []domain.ConversationTurn
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		if len(window) >= turnCap {
			break
		}
		n := utf8.RuneCountInString(history[i].Content)
		if used+n > charBudget {
			break
		}
		used += n
		window = append(window, history[i])
	}

	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window
}

// renderContext formats the window and appends the current query.
func renderContext(window []domain.ConversationTurn, query string) string {
	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n")
	for _, turn := range window {
		b.WriteString(turn.Role.Title())
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(currentQuestionLabel)
	b.WriteString(query)
	return b.String()
}

// withoutCurrentTurn drops a trailing user turn that repeats query.
func withoutCurrentTurn(history []domain.ConversationTurn, query string) []domain.ConversationTurn {
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Role == domain.RoleUser && strings.TrimSpace(last.Content) == strings.TrimSpace(query) {
			return history[:n-1]
		}
	}
	return history
}
