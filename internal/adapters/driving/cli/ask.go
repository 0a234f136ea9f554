package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

var (
	askCollection string
	askSession    string
	askJSON       bool

	retrieveCollection string
	retrieveJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the ingested documents",
	Long: `Retrieves the passages most similar to the question, asks the LLM to answer
from them, and lists the file and page each passage came from.

With --session the question is asked in an existing chat session, so earlier
turns are used to rewrite follow-up questions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Show the passages a question would be answered from",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRetrieve,
}

func init() {
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "collection to search")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "chat session to ask in")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
	askCmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of passages to retrieve (default: retrieval.top_k)")
	rootCmd.AddCommand(askCmd)

	retrieveCmd.Flags().StringVarP(&retrieveCollection, "collection", "c", "", "collection to search")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "print the passages as JSON")
	retrieveCmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of passages to retrieve (default: retrieval.top_k)")
	rootCmd.AddCommand(retrieveCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	collection := collectionOrDefault(askCollection)

	var (
		answer domain.Answer
		err    error
	)
	if askSession != "" {
		if chatService == nil {
			return notConfigured("chat")
		}
		answer, err = chatService.Ask(cmd.Context(), askSession, collection, question)
	} else {
		if queryService == nil {
			return notConfigured("query")
		}
		answer, err = queryService.Answer(cmd.Context(), question, collection, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}
	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, answer domain.Answer) {
	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		cmd.Printf("  [%d] %s, page %s\n", i+1, src.FileName, src.PageLabel)
		if src.ProductName != "" {
			cmd.Printf("      %s\n", src.ProductName)
		}
		cmd.Printf("      %s\n", src.DocumentURL)
	}
}

// retrievedPassage is the JSON shape of one retrieve result.
type retrievedPassage struct {
	Score float64 `json:"score"`
	domain.SourceInfo
	Text string `json:"text"`
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	query := strings.Join(args, " ")
	collection := collectionOrDefault(retrieveCollection)
	chunks, err := retrievalService.Retrieve(cmd.Context(), query, collection, topK)
	if err != nil {
		return fmt.Errorf("failed to retrieve: %w", err)
	}

	fallback := domain.DefaultFallbackURL
	if appSettings != nil && appSettings.Synthesis.FallbackURL != "" {
		fallback = appSettings.Synthesis.FallbackURL
	}
	passages := make([]retrievedPassage, len(chunks))
	for i, sc := range chunks {
		passages[i] = retrievedPassage{
			Score:      sc.Score,
			SourceInfo: domain.SourceInfoFromMetadata(sc.Chunk.Metadata, fallback),
			Text:       sc.Chunk.Text,
		}
	}

	if retrieveJSON {
		return printJSON(cmd, passages)
	}
	if len(passages) == 0 {
		cmd.Println("No passages found.")
		return nil
	}
	for i, p := range passages {
		cmd.Printf("[%d] %.3f  %s, page %s\n", i+1, p.Score, p.FileName, p.PageLabel)
		cmd.Printf("    %s\n\n", snippet(p.Text, 200))
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// snippet flattens whitespace and truncates s to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
