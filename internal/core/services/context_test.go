package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

func turn(role domain.Role, content string) domain.ConversationTurn {
	return domain.ConversationTurn{Role: role, Content: content}
}

func pdriHistory() []domain.ConversationTurn {
	return []domain.ConversationTurn{
		turn(domain.RoleUser, "What is PDRI?"),
		turn(domain.RoleAssistant, "PDRI is the Project Definition Rating Index, a scoring tool for front end planning."),
	}
}

func TestAssembleQuery_FollowupUsesContext(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})

	d := AssembleQuery(pdriHistory(), "How is it used in practice?", opts)

	assert.True(t, d.HasFollowup)
	assert.Empty(t, d.NewTopics)
	assert.True(t, d.UseContext)
	require.Len(t, d.Window, 2)
	assert.True(t, strings.HasPrefix(d.Query, "Previous conversation context:\n"))
	assert.Contains(t, d.Query, "User: What is PDRI?\n")
	assert.Contains(t, d.Query, "Assistant: PDRI is the Project Definition Rating Index")
	assert.True(t, strings.HasSuffix(d.Query, "Current question: How is it used in practice?"))
}

func TestAssembleQuery_NewTopicSkipsContext(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})

	d := AssembleQuery(pdriHistory(), "What about AWP scheduling?", opts)

	assert.True(t, d.HasFollowup)
	assert.ElementsMatch(t, []string{"AWP", "scheduling"}, d.NewTopics)
	assert.False(t, d.UseContext)
	assert.Equal(t, "What about AWP scheduling?", d.Query)
	assert.Empty(t, d.Window)
}

func TestAssembleQuery_SingleTurnHistory(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})
	history := []domain.ConversationTurn{turn(domain.RoleUser, "What is PDRI?")}

	d := AssembleQuery(history, "How is it scored?", opts)

	assert.False(t, d.UseContext)
	assert.Equal(t, "How is it scored?", d.Query)
}

func TestAssembleQuery_NoIndicator(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})

	d := AssembleQuery(pdriHistory(), "Define front end planning", opts)

	assert.False(t, d.HasFollowup)
	assert.False(t, d.UseContext)
	assert.Equal(t, "Define front end planning", d.Query)
}

func TestAssembleQuery_KeywordAlreadyDiscussed(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})

	d := AssembleQuery(pdriHistory(), "Why does PDRI matter?", opts)

	assert.Empty(t, d.NewTopics)
	assert.True(t, d.UseContext)
}

func TestAssembleQuery_IgnoresRecordedCurrentTurn(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})
	query := "How is it used in practice?"
	history := append(pdriHistory(), turn(domain.RoleUser, query))

	d := AssembleQuery(history, query, opts)

	require.True(t, d.UseContext)
	assert.Len(t, d.Window, 2)
	assert.Equal(t, 1, strings.Count(d.Query, query))
}

func TestAssembleQuery_KeywordsMatchInsideWords(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})

	d := AssembleQuery(pdriHistory(), "How do AWPs relate to modularization?", opts)

	assert.True(t, d.HasFollowup)
	assert.ElementsMatch(t, []string{"AWP", "modular"}, d.NewTopics)
	assert.False(t, d.UseContext)
}

func TestAssembleQuery_IndicatorCaseInsensitive(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})

	d := AssembleQuery(pdriHistory(), "TELL ME MORE", opts)

	assert.True(t, d.HasFollowup)
	assert.True(t, d.UseContext)
}

func TestContextWindow_TurnCap(t *testing.T) {
	var history []domain.ConversationTurn
	for i := 0; i < 10; i++ {
		history = append(history, turn(domain.RoleUser, "short"))
	}

	window := contextWindow(history, 2000, 4)

	assert.Len(t, window, 4)
}

func TestContextWindow_StopsAtFirstOverflow(t *testing.T) {
	history := []domain.ConversationTurn{
		turn(domain.RoleUser, "oldest short"),
		turn(domain.RoleAssistant, strings.Repeat("x", 1995)),
		turn(domain.RoleUser, "recent"),
	}

	window := contextWindow(history, 2000, 4)

	// 6 + 1995 exceeds the budget, so the older short turn is never reached.
	require.Len(t, window, 1)
	assert.Equal(t, "recent", window[0].Content)
}

func TestContextWindow_TurnFillingBudgetExactlyFits(t *testing.T) {
	history := []domain.ConversationTurn{
		turn(domain.RoleUser, "oldest short"),
		turn(domain.RoleAssistant, strings.Repeat("x", 1994)),
		turn(domain.RoleUser, "recent"),
	}

	window := contextWindow(history, 2000, 4)

	require.Len(t, window, 2)
	assert.Equal(t, "recent", window[1].Content)
}

func TestContextWindow_ChronologicalOrder(t *testing.T) {
	history := []domain.ConversationTurn{
		turn(domain.RoleUser, "one"),
		turn(domain.RoleAssistant, "two"),
		turn(domain.RoleUser, "three"),
	}

	window := contextWindow(history, 2000, 4)

	require.Len(t, window, 3)
	assert.Equal(t, "one", window[0].Content)
	assert.Equal(t, "three", window[2].Content)
}

func TestContextWindow_BoundHoldsForAnyHistory(t *testing.T) {
	sizes := []int{0, 1, 150, 999, 1000, 1001, 1999, 2000, 2001, 640, 512, 7}
	for start := range sizes {
		var history []domain.ConversationTurn
		for i := start; i < len(sizes); i++ {
			history = append(history, turn(domain.RoleUser, strings.Repeat("é", sizes[i])))
		}

		window := contextWindow(history, 2000, 4)

		total := 0
		for _, w := range window {
			total += utf8.RuneCountInString(w.Content)
			assert.Contains(t, sizesAsStrings(sizes), w.Content, "turns are never truncated")
		}
		assert.LessOrEqual(t, total, 2000)
		assert.LessOrEqual(t, len(window), 4)
	}
}

func sizesAsStrings(sizes []int) []string {
	out := make([]string, len(sizes))
	for i, n := range sizes {
		out[i] = strings.Repeat("é", n)
	}
	return out
}

func TestContextOptionsFromSettings_Defaults(t *testing.T) {
	opts := ContextOptionsFromSettings(domain.ContextSettings{})

	assert.Equal(t, 2000, opts.CharBudget)
	assert.Equal(t, 4, opts.TurnCap)
	assert.Equal(t, 3, opts.RecentTurns)
	assert.NotEmpty(t, opts.Keywords)
	assert.NotEmpty(t, opts.Indicators)
}
