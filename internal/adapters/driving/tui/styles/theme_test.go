package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme_AccentsAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Primary, theme.Secondary, theme.Muted, theme.Error} {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate accent %s", c)
		seen[c] = true
	}
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestStyles_TranscriptStylesSet(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"UserLabel":      s.UserLabel,
		"AssistantLabel": s.AssistantLabel,
		"Citation":       s.Citation,
		"InputField":     s.InputField,
		"StatusBar":      s.StatusBar,
	} {
		assert.NotEqual(t, lipgloss.Style{}, style, name)
	}
	assert.Contains(t, s.Citation.Render("[1] a.pdf"), "[1] a.pdf")
}
