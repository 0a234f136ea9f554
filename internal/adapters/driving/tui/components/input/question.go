// Package input provides the question editor for the chat.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/styles"
)

// Height is the number of text rows the editor shows.
const Height = 3

// QuestionInput wraps a bubbles textarea. Enter is left to the caller
// to submit; the keymap's Newline binding inserts a line break.
type QuestionInput struct {
	textarea textarea.Model
	styles   *styles.Styles
}

// NewQuestionInput creates a focused question editor.
func NewQuestionInput(s *styles.Styles, km *keymap.KeyMap) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 2000
	ta.SetHeight(Height)
	ta.KeyMap.InsertNewline = km.Newline
	ta.Focus()

	return &QuestionInput{textarea: ta, styles: s}
}

// Init starts the cursor blinking.
func (q *QuestionInput) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles editor messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textarea, cmd = q.textarea.Update(msg)
	return q, cmd
}

// View renders the editor inside a border.
func (q *QuestionInput) View() string {
	return q.styles.InputField.Render(q.textarea.View())
}

// Value returns the trimmed question text.
func (q *QuestionInput) Value() string {
	return strings.TrimSpace(q.textarea.Value())
}

// SetValue replaces the editor text.
func (q *QuestionInput) SetValue(value string) {
	q.textarea.SetValue(value)
}

// Reset clears the editor.
func (q *QuestionInput) Reset() {
	q.textarea.Reset()
}

// Focus lets the editor take key input.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textarea.Focus()
}

// Blur stops the editor taking key input.
func (q *QuestionInput) Blur() {
	q.textarea.Blur()
}

// Focused returns whether the editor is focused.
func (q *QuestionInput) Focused() bool {
	return q.textarea.Focused()
}

// SetWidth sizes the editor to fit width including its border.
func (q *QuestionInput) SetWidth(width int) {
	inner := width - q.styles.InputField.GetHorizontalFrameSize()
	if inner < 20 {
		inner = 20
	}
	q.textarea.SetWidth(inner)
}

// RenderedHeight is the editor's height including its border.
func (q *QuestionInput) RenderedHeight() int {
	return Height + q.styles.InputField.GetVerticalFrameSize()
}
