package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/citeqa/internal/core/domain"
)

var (
	catalogCollection string
	catalogLimit      int
	catalogSourceDir  string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Attach catalogue metadata to documents",
	Long: `A catalogue is a CSV file with the columns "Product Name", "eCopyfile" and
"CII Website URL". Each row names a document file and the product and page
it belongs to.`,
}

var catalogApplyCmd = &cobra.Command{
	Use:   "apply <catalog.csv>",
	Short: "Set product_name and document_url on ingested documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestionService == nil {
			return notConfigured("ingestion")
		}

		records, err := file.ReadCatalog(args[0], catalogLimit)
		if err != nil {
			return err
		}

		collection := collectionOrDefault(catalogCollection)
		result, err := ingestionService.ApplyCatalog(cmd.Context(), collection, records)
		if err != nil {
			return fmt.Errorf("failed to apply catalog: %w", err)
		}
		for _, name := range result.Missing {
			cmd.Printf("Not ingested: %s\n", name)
		}
		cmd.Printf("Updated %d chunks across %d files.\n", result.UpdatedChunks, result.UpdatedFiles)
		return nil
	},
}

var catalogIngestCmd = &cobra.Command{
	Use:   "ingest <catalog.csv>",
	Short: "Ingest the files a catalogue lists with their metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestionService == nil {
			return notConfigured("ingestion")
		}

		records, err := file.ReadCatalog(args[0], catalogLimit)
		if err != nil {
			return err
		}

		sourceDir := catalogSourceDir
		if sourceDir == "" {
			sourceDir = filepath.Dir(args[0])
		}
		collection := collectionOrDefault(catalogCollection)

		var added, skipped, missing int
		for _, rec := range records {
			path := filepath.Join(sourceDir, rec.FileName)
			if _, err := os.Stat(path); err != nil {
				cmd.Printf("Missing: %s\n", rec.FileName)
				missing++
				continue
			}

			result, err := ingestionService.IngestFile(cmd.Context(), path, collection, rec.DocumentURL, rec.ProductName)
			switch {
			case errors.Is(err, domain.ErrValidation):
				cmd.Printf("Skipped %s: %v\n", rec.FileName, err)
				skipped++
			case err != nil:
				return fmt.Errorf("failed to ingest %s: %w", rec.FileName, err)
			default:
				cmd.Printf("Ingested %s (%d chunks)\n", rec.FileName, result.ChunksAdded)
				added += result.ChunksAdded
			}
		}
		cmd.Printf("\nAdded %d chunks. %d skipped, %d missing.\n", added, skipped, missing)
		return nil
	},
}

func init() {
	catalogCmd.PersistentFlags().StringVarP(&catalogCollection, "collection", "c", "", "collection to update")
	catalogCmd.PersistentFlags().IntVar(&catalogLimit, "limit", 0, "read at most this many rows (0 for all)")
	catalogIngestCmd.Flags().StringVar(&catalogSourceDir, "source-dir", "", "folder holding the listed files (default: the catalogue's folder)")
	catalogCmd.AddCommand(catalogApplyCmd, catalogIngestCmd)
	rootCmd.AddCommand(catalogCmd)
}
