package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "View and change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every setting with where its value comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return notConfigured("settings")
		}
		entries, err := settingsService.Entries()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		cmd.Printf("Config file: %s\n\n", settingsService.ConfigPath())
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, e := range entries {
			value := e.Value
			if value == "" {
				value = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t(%s)\n", e.Key, value, e.Source)
		}
		return w.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a setting to the config file",
	Long: `Persist a setting to the config file. List values such as
ingestion.extensions take a comma separated list.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return notConfigured("settings")
		}
		if err := settingsService.Set(args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Set %s\n", args[0])
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider> [api-key]",
	Short: "Store an API key for openai or anthropic",
	Long: `Store an API key for every component that uses the provider. When the key
is not given as an argument it is read from standard input without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return notConfigured("settings")
		}
		provider := domain.AIProvider(strings.ToLower(args[0]))
		if !provider.IsValid() {
			return fmt.Errorf("unknown provider %q", args[0])
		}

		var key string
		if len(args) == 2 {
			key = args[1]
		} else {
			cmd.Printf("%s API key: ", provider.Description())
			key = readSecret(cmd.InOrStdin())
			cmd.Println()
		}

		if err := settingsService.SetAPIKey(provider, key); err != nil {
			return err
		}
		cmd.Printf("Stored %s API key in %s\n", provider, settingsService.ConfigPath())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return notConfigured("settings")
		}
		cmd.Println(settingsService.ConfigPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configSetKeyCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// readSecret reads a line without echo when in is the terminal.
//
//nolint:errcheck // CLI helper, an empty key is rejected by the caller
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}
