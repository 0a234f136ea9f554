package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// defaultIngestFolder is scanned when no folder argument is given.
const defaultIngestFolder = "data"

var (
	ingestCollection string
	ingestURL        string
	ingestProduct    string
	ingestWatch      bool

	backfillCollection string
	backfillURL        string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Ingest new documents from a folder",
	Long: `Scans the folder recursively for allow-listed files (pdf, docx and xlsx by
default) and adds those whose file name is not yet in the collection.
Existing documents are never reloaded or re-embedded.

With --watch, ingestion re-runs whenever files in the folder change. A changed
file has its chunks replaced; a deleted file has its chunks removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill-urls",
	Short: "Set document_url on chunks that lack one",
	Args:  cobra.NoArgs,
	RunE:  runBackfill,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "collection to ingest into")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "document_url attached to new chunks")
	ingestCmd.Flags().StringVar(&ingestProduct, "product", "", "product_name attached to new chunks")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep running and re-ingest on file changes")
	rootCmd.AddCommand(ingestCmd)

	backfillCmd.Flags().StringVarP(&backfillCollection, "collection", "c", "", "collection to update")
	backfillCmd.Flags().StringVar(&backfillURL, "url", "", "URL to set (default: synthesis.fallback_url)")
	rootCmd.AddCommand(backfillCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion")
	}

	folder := defaultIngestFolder
	if appSettings != nil && appSettings.DataDir != "" {
		folder = appSettings.DataDir
	}
	if len(args) > 0 {
		folder = args[0]
	}
	req := domain.IngestRequest{
		Folder:      folder,
		Collection:  collectionOrDefault(ingestCollection),
		DocumentURL: ingestURL,
		ProductName: ingestProduct,
	}

	if ingestWatch {
		return runIngestWatch(cmd, req)
	}

	cmd.Printf("Ingesting %s into %q...\n", folder, req.Collection)
	result, err := ingestionService.Ingest(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printIngestResult(cmd, result)
	return nil
}

func runIngestWatch(cmd *cobra.Command, req domain.IngestRequest) error {
	if watchService == nil {
		return notConfigured("watch")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	go func() {
		if _, ok := <-stop; ok {
			watchService.Stop()
		}
	}()

	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", req.Folder)
	err := watchService.Run(cmd.Context(), req, func(run domain.WatchRun) {
		stamp := run.EndedAt.Format(time.TimeOnly)
		if run.Err != nil {
			cmd.Printf("[%s] ingest failed: %v\n", stamp, run.Err)
			return
		}
		if len(run.Removed) > 0 {
			cmd.Printf("[%s] Replaced %s\n", stamp, strings.Join(run.Removed, ", "))
		}
		cmd.Printf("[%s] ", stamp)
		printIngestResult(cmd, run.Result)
	})
	close(stop)
	if err != nil && !errors.Is(err, cmd.Context().Err()) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, result domain.IngestResult) {
	for _, path := range result.Skipped {
		cmd.Printf("Skipped %s: duplicate file name\n", path)
	}
	for _, name := range result.Empty {
		cmd.Printf("Skipped %s: no extractable text\n", name)
	}
	if result.ChunksAdded == 0 {
		cmd.Println("No new documents to ingest.")
		return
	}
	cmd.Printf("Added %d chunks from %d files.\n", result.ChunksAdded, len(result.Files))
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion")
	}

	url := backfillURL
	if url == "" && appSettings != nil {
		url = appSettings.Synthesis.FallbackURL
	}
	if url == "" {
		url = domain.DefaultFallbackURL
	}

	collection := collectionOrDefault(backfillCollection)
	n, err := ingestionService.BackfillURLs(cmd.Context(), collection, url)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	cmd.Printf("Updated %d chunks in %q with %s\n", n, collection, url)
	return nil
}
