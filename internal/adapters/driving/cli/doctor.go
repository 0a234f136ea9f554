package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the embedding provider, LLM and vector store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if healthService == nil {
			return notConfigured("health")
		}

		report := healthService.Check(cmd.Context())
		for _, c := range report.Checks {
			cmd.Printf("%s %-10s %s\n", statusMark(c.Status), c.Name, c.Detail)
		}
		if !report.Healthy() {
			return errors.New("one or more checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func statusMark(s domain.CheckStatus) string {
	switch s {
	case domain.CheckOK:
		return "[ok]  "
	case domain.CheckWarn:
		return "[warn]"
	default:
		return "[fail]"
	}
}
