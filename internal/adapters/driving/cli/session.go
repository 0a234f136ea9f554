package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage chat sessions",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a chat session and print its ID",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if chatService == nil {
			return notConfigured("chat")
		}
		sess, err := chatService.StartSession(cmd.Context(), owner())
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		cmd.Println(sess.ID)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if chatService == nil {
			return notConfigured("chat")
		}
		sessions, err := chatService.Sessions(cmd.Context(), owner())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(sessions) == 0 {
			cmd.Println("No chat sessions.")
			return nil
		}
		for _, s := range sessions {
			title := s.Title
			if title == "" {
				title = "(untitled)"
			}
			cmd.Printf("%s  %s  %s\n", s.ID, s.UpdatedAt.Local().Format(time.DateTime), title)
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the turns of a chat session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatService == nil {
			return notConfigured("chat")
		}
		turns, err := chatService.Turns(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		for _, t := range turns {
			cmd.Printf("%s: %s\n\n", t.Role.Title(), t.Content)
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:     "delete <session-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a chat session and its turns",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatService == nil {
			return notConfigured("chat")
		}
		if err := chatService.DeleteSession(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		cmd.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionNewCmd, sessionListCmd, sessionShowCmd, sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}
