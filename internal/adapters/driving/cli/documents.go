package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCollection string

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the file names ingested into a collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if ingestionService == nil {
			return notConfigured("ingestion")
		}

		collection := collectionOrDefault(documentsCollection)
		names, err := ingestionService.ListDocuments(cmd.Context(), collection)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		if len(names) == 0 {
			cmd.Printf("No documents in %q.\n", collection)
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		cmd.Printf("\n%d documents in %q\n", len(names), collection)
		return nil
	},
}

var documentsRemoveCmd = &cobra.Command{
	Use:     "remove <file-name>",
	Aliases: []string{"rm"},
	Short:   "Remove every chunk of a document",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestionService == nil {
			return notConfigured("ingestion")
		}

		collection := collectionOrDefault(documentsCollection)
		n, err := ingestionService.RemoveDocument(cmd.Context(), collection, args[0])
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", args[0], err)
		}
		cmd.Printf("Removed %s (%d chunks)\n", args[0], n)
		return nil
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections in the vector store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if ingestionService == nil {
			return notConfigured("ingestion")
		}

		names, err := ingestionService.ListCollections(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}
		if len(names) == 0 {
			cmd.Println("No collections.")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

func init() {
	documentsCmd.PersistentFlags().StringVarP(&documentsCollection, "collection", "c", "", "collection to inspect")
	documentsCmd.AddCommand(documentsListCmd, documentsRemoveCmd)
	rootCmd.AddCommand(documentsCmd, collectionsCmd)
}
