// Package transcript renders the scrolling conversation of a chat.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// Entry is one message in the transcript.
type Entry struct {
	Role    domain.Role
	Text    string
	Sources []domain.SourceInfo

	// Err marks an entry that reports a failed question.
	Err bool
}

// Transcript wraps a viewport holding the rendered entries.
type Transcript struct {
	viewport viewport.Model
	styles   *styles.Styles
	entries  []Entry
}

// New creates an empty transcript of the given size.
func New(s *styles.Styles, width, height int) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		viewport: viewport.New(width, height),
		styles:   s,
	}
}

// Update forwards scroll messages to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Append adds an entry and scrolls to the bottom.
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
	t.refresh()
}

// SetTurns replaces the entries with stored conversation turns.
func (t *Transcript) SetTurns(turns []domain.ConversationTurn) {
	t.entries = t.entries[:0]
	for _, turn := range turns {
		t.entries = append(t.entries, Entry{Role: turn.Role, Text: turn.Content})
	}
	t.refresh()
}

// Clear removes every entry.
func (t *Transcript) Clear() {
	t.entries = nil
	t.refresh()
}

// Entries returns the entries in display order.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// SetSize resizes the viewport and rewraps the entries.
func (t *Transcript) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// PageUp scrolls up one screen.
func (t *Transcript) PageUp() {
	t.viewport.PageUp()
}

// PageDown scrolls down one screen.
func (t *Transcript) PageDown() {
	t.viewport.PageDown()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.Render())
	t.viewport.GotoBottom()
}

// Render returns every entry wrapped to the viewport width.
func (t *Transcript) Render() string {
	if len(t.entries) == 0 {
		return t.styles.Muted.Render("Ask a question to get started.")
	}

	width := t.viewport.Width
	if width < 20 {
		width = 20
	}
	body := lipgloss.NewStyle().Width(width)

	blocks := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		var b strings.Builder
		switch {
		case e.Err:
			b.WriteString(t.styles.Error.Render("Error"))
		case e.Role == domain.RoleUser:
			b.WriteString(t.styles.UserLabel.Render("You"))
		default:
			b.WriteString(t.styles.AssistantLabel.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(e.Text))
		for i, src := range e.Sources {
			b.WriteString("\n")
			b.WriteString(t.styles.Citation.Width(width).Render(citation(i+1, src)))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func citation(n int, src domain.SourceInfo) string {
	line := fmt.Sprintf("[%d] %s, page %s", n, src.FileName, src.PageLabel)
	if src.ProductName != "" {
		line += " · " + src.ProductName
	}
	return line + "\n    " + src.DocumentURL
}
