package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

var (
	promptContent     string
	promptFile        string
	promptDescription string
	promptActivate    bool
)

var promptCmd = &cobra.Command{
	Use:     "prompt",
	Aliases: []string{"prompts"},
	Short:   "Manage versioned prompt templates",
	Long: `Prompt templates are versioned per name. At most one version of a name is
active; when none is, the builtin default is used.

  qa_template      needs {context_str} and {query_str}
  refine_template  needs {query_str}, {existing_answer} and {context_msg}`,
}

var promptListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List stored prompt versions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		versions, err := promptService.List(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to list prompts: %w", err)
		}
		if len(versions) == 0 {
			cmd.Println("No stored prompts. Builtin defaults are in use.")
			return nil
		}
		for _, v := range versions {
			marker := " "
			if v.IsActive {
				marker = "*"
			}
			cmd.Printf("%s %-16s v%-3d %s  %s\n", marker, v.Name, v.Version, v.ID, v.Description)
		}
		return nil
	},
}

var promptShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored prompt version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		v, err := promptService.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get prompt: %w", err)
		}
		cmd.Printf("Name:        %s\n", v.Name)
		cmd.Printf("Version:     %d\n", v.Version)
		cmd.Printf("Active:      %t\n", v.IsActive)
		cmd.Printf("Created:     %s\n", v.CreatedAt.Local().Format(time.DateTime))
		if v.Description != "" {
			cmd.Printf("Description: %s\n", v.Description)
		}
		cmd.Printf("\n%s\n", v.Content)
		return nil
	},
}

var promptActiveCmd = &cobra.Command{
	Use:   "active <name>",
	Short: "Print the template synthesis will use for a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		tmpl, err := promptService.GetActive(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve prompt: %w", err)
		}
		if tmpl.IsBuiltin() {
			cmd.Printf("# %s (builtin)\n", tmpl.Name)
		} else {
			cmd.Printf("# %s v%d\n", tmpl.Name, tmpl.Version)
		}
		cmd.Println(tmpl.Text)
		return nil
	},
}

var promptCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Store a new version of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		content, err := promptText(cmd)
		if err != nil {
			return err
		}
		if content == nil {
			return errors.New("one of --content or --file is required")
		}
		v, err := promptService.Create(cmd.Context(), args[0], *content, promptDescription)
		if err != nil {
			return fmt.Errorf("failed to create prompt: %w", err)
		}
		return reportPromptVersion(cmd, v)
	},
}

var promptUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Store a new version based on an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		content, err := promptText(cmd)
		if err != nil {
			return err
		}
		var description *string
		if cmd.Flags().Changed("description") {
			description = &promptDescription
		}
		v, err := promptService.Update(cmd.Context(), args[0], content, description)
		if err != nil {
			return fmt.Errorf("failed to update prompt: %w", err)
		}
		return reportPromptVersion(cmd, v)
	},
}

var promptActivateCmd = &cobra.Command{
	Use:   "activate <name> <version>",
	Short: "Make a version the active one for its name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		var version int
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		if err := promptService.Activate(cmd.Context(), args[0], version); err != nil {
			return fmt.Errorf("failed to activate prompt: %w", err)
		}
		cmd.Printf("Activated %s v%d\n", args[0], version)
		return nil
	},
}

var promptDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an inactive prompt version",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		if err := promptService.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete prompt: %w", err)
		}
		cmd.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var promptImportCmd = &cobra.Command{
	Use:   "import <file.yaml|dir>",
	Short: "Create prompt versions from a YAML bundle or a folder of .txt files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		seeds, err := file.ReadPromptBundle(args[0])
		if err != nil {
			return err
		}
		created, err := promptService.Import(cmd.Context(), seeds)
		if err != nil {
			return fmt.Errorf("failed to import prompts: %w", err)
		}
		for i, v := range created {
			state := ""
			if seeds[i].Activate {
				state = " (active)"
			}
			cmd.Printf("Imported %s v%d%s\n", v.Name, v.Version, state)
		}
		return nil
	},
}

var promptExportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Write the templates in use to a YAML bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptService == nil {
			return notConfigured("prompt")
		}
		versions, err := promptService.List(cmd.Context(), "")
		if err != nil {
			return fmt.Errorf("failed to list prompts: %w", err)
		}

		names := map[string]bool{domain.PromptQA: true, domain.PromptRefine: true}
		for _, v := range versions {
			names[v.Name] = true
		}
		sorted := make([]string, 0, len(names))
		for name := range names {
			sorted = append(sorted, name)
		}
		sort.Strings(sorted)

		seeds := make([]domain.PromptSeed, 0, len(sorted))
		for _, name := range sorted {
			tmpl, err := promptService.GetActive(cmd.Context(), name)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", name, err)
			}
			seeds = append(seeds, domain.PromptSeed{Name: name, Content: tmpl.Text, Activate: true})
		}

		if err := file.WritePromptBundle(args[0], seeds); err != nil {
			return err
		}
		cmd.Printf("Exported %d prompts to %s\n", len(seeds), args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{promptCreateCmd, promptUpdateCmd} {
		c.Flags().StringVar(&promptContent, "content", "", "template text")
		c.Flags().StringVarP(&promptFile, "file", "f", "", "read the template text from a file")
		c.Flags().StringVarP(&promptDescription, "description", "d", "", "short description of the change")
		c.MarkFlagsMutuallyExclusive("content", "file")
	}
	promptCreateCmd.Flags().BoolVar(&promptActivate, "activate", false, "activate the new version")
	promptUpdateCmd.Flags().BoolVar(&promptActivate, "activate", false, "activate the new version")

	promptCmd.AddCommand(
		promptListCmd, promptShowCmd, promptActiveCmd,
		promptCreateCmd, promptUpdateCmd, promptActivateCmd, promptDeleteCmd,
		promptImportCmd, promptExportCmd,
	)
	rootCmd.AddCommand(promptCmd)
}

// promptText returns the template text given by --content or --file,
// or nil when neither flag was set.
func promptText(cmd *cobra.Command) (*string, error) {
	switch {
	case cmd.Flags().Changed("file"):
		data, err := os.ReadFile(promptFile)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		text := strings.TrimRight(string(data), "\n")
		return &text, nil
	case cmd.Flags().Changed("content"):
		text := promptContent
		return &text, nil
	default:
		return nil, nil
	}
}

// reportPromptVersion prints a new version and activates it if asked.
func reportPromptVersion(cmd *cobra.Command, v domain.SystemPromptVersion) error {
	cmd.Printf("Created %s v%d (%s)\n", v.Name, v.Version, v.ID)
	if !promptActivate {
		return nil
	}
	if err := promptService.Activate(cmd.Context(), v.Name, v.Version); err != nil {
		return fmt.Errorf("failed to activate prompt: %w", err)
	}
	cmd.Printf("Activated %s v%d\n", v.Name, v.Version)
	return nil
}
