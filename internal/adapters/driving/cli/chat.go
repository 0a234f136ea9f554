package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeqa/internal/adapters/driving/tui"
)

var (
	chatCollection string
	chatSession    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open a terminal chat over the ingested documents. Each answer lists the
file, page and URL of the passages it was drawn from. Follow-up questions are
rewritten using the conversation so far.

Controls:
  Enter        - Send question
  Ctrl+N       - New session
  PgUp/PgDn    - Scroll
  Esc, Ctrl+C  - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatCollection, "collection", "c", "", "collection to search")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume an existing session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if chatService == nil {
		return notConfigured("chat")
	}

	app, err := tui.NewApp(&tui.Ports{Chat: chatService}, tui.Options{
		Collection: collectionOrDefault(chatCollection),
		Owner:      owner(),
		SessionID:  chatSession,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
