package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	opts  Options
	ctx   context.Context

	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusbar  *status.Bar
	spinner    spinner.Model

	// session is the active chat session. Questions wait until it exists.
	session domain.ChatSession

	// busy is set while a question or session request is in flight.
	busy bool

	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if opts.Collection == "" {
		opts.Collection = domain.DefaultCollection
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	bar := status.NewBar(s, km)
	bar.SetCollection(opts.Collection)

	return &App{
		ports:      ports,
		opts:       opts,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s, km),
		transcript: transcript.New(s, 80, 18),
		statusbar:  bar,
		spinner:    sp,
		busy:       true,
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model. It opens or resumes the session.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("citeqa - "+a.opts.Collection),
		a.input.Init(),
		a.spinner.Tick,
		a.openSession(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.setSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.statusbar.SetSpinner(a.spinner.View())
		return a, cmd

	case messages.SessionStarted:
		a.busy = false
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.session = msg.Session
		a.transcript.Clear()
		a.statusbar.Clear()
		return a, nil

	case messages.TurnsLoaded:
		a.busy = false
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.session = domain.ChatSession{ID: msg.SessionID}
		a.transcript.SetTurns(msg.Turns)
		a.statusbar.Clear()
		return a, nil

	case messages.AnswerReceived:
		a.busy = false
		if msg.Err != nil {
			a.transcript.Append(transcript.Entry{Role: domain.RoleAssistant, Text: msg.Err.Error(), Err: true})
			a.setError(msg.Err)
			return a, nil
		}
		a.transcript.Append(transcript.Entry{
			Role:    domain.RoleAssistant,
			Text:    msg.Answer.Text,
			Sources: msg.Answer.Sources,
		})
		a.statusbar.Clear()
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.ScrollUp):
		a.transcript.PageUp()
		return a, nil

	case keymap.Matches(k, a.keymap.ScrollDown):
		a.transcript.PageDown()
		return a, nil

	case keymap.Matches(k, a.keymap.NewSession):
		if a.busy {
			return a, nil
		}
		a.opts.SessionID = ""
		a.busy = true
		a.statusbar.SetState(status.StateThinking)
		return a, tea.Batch(a.spinner.Tick, a.openSession())

	case keymap.Matches(k, a.keymap.Send):
		question := a.input.Value()
		if question == "" || a.busy || a.session.ID == "" {
			return a, nil
		}
		a.input.Reset()
		a.transcript.Append(transcript.Entry{Role: domain.RoleUser, Text: question})
		a.busy = true
		a.err = nil
		a.statusbar.SetState(status.StateThinking)
		return a, tea.Batch(a.spinner.Tick, a.ask(a.session.ID, question))
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.styles.Title.Render("citeqa") + " " + a.styles.Muted.Render(a.sessionLabel())
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		a.transcript.View(),
		a.input.View(),
		a.statusbar.View(),
	)
}

func (a *App) sessionLabel() string {
	if a.session.ID == "" {
		return "starting session..."
	}
	if a.session.Title != "" {
		return a.session.Title
	}
	return "session " + a.session.ID
}

func (a *App) setSize(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.input.SetWidth(width)
	a.statusbar.SetWidth(width)

	// header and status bar take one row each
	body := height - a.input.RenderedHeight() - 2
	if body < 3 {
		body = 3
	}
	a.transcript.SetSize(width, body)
}

func (a *App) setError(err error) {
	a.err = err
	a.statusbar.SetState(status.StateError)
	a.statusbar.SetMessage(err.Error())
}

// openSession resumes opts.SessionID or starts a new session.
func (a *App) openSession() tea.Cmd {
	chat := a.ports.Chat
	ctx := a.ctx
	if id := a.opts.SessionID; id != "" {
		return func() tea.Msg {
			turns, err := chat.Turns(ctx, id)
			return messages.TurnsLoaded{SessionID: id, Turns: turns, Err: err}
		}
	}
	owner := a.opts.Owner
	return func() tea.Msg {
		sess, err := chat.StartSession(ctx, owner)
		return messages.SessionStarted{Session: sess, Err: err}
	}
}

func (a *App) ask(sessionID, question string) tea.Cmd {
	chat := a.ports.Chat
	ctx := a.ctx
	collection := a.opts.Collection
	return func() tea.Msg {
		answer, err := chat.Ask(ctx, sessionID, collection, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// Session returns the active session.
func (a *App) Session() domain.ChatSession {
	return a.session
}

// Busy reports whether a request is in flight.
func (a *App) Busy() bool {
	return a.busy
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Transcript returns the conversation component.
func (a *App) Transcript() *transcript.Transcript {
	return a.transcript
}
