// Package cli implements the citeqa command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// skipBootstrap marks commands that run without opening the store.
const skipBootstrap = "skip-bootstrap"

// Services holds the driving ports the commands call.
type Services struct {
	Settings        *domain.Settings
	SettingsService driving.SettingsService
	Ingestion       driving.IngestionService
	Retrieval       driving.RetrievalService
	Query           driving.QueryService
	Chat            driving.ChatService
	Prompts         driving.PromptService
	Health          driving.HealthService
	Watch           driving.WatchService
}

// BootstrapOptions are the root flags the bootstrap needs.
type BootstrapOptions struct {
	ConfigDir string

	// TopK overrides the configured retrieval depth when positive.
	TopK int
}

// BootstrapFunc builds the services for one command run. The returned
// function releases what the services hold open.
type BootstrapFunc func(ctx context.Context, opts BootstrapOptions) (*Services, func() error, error)

var (
	appSettings      *domain.Settings
	settingsService  driving.SettingsService
	ingestionService driving.IngestionService
	retrievalService driving.RetrievalService
	queryService     driving.QueryService
	chatService      driving.ChatService
	promptService    driving.PromptService
	healthService    driving.HealthService
	watchService     driving.WatchService

	bootstrap BootstrapFunc
	cleanup   func() error

	verbose   bool
	configDir string
	topK      int
)

var rootCmd = &cobra.Command{
	Use:   "citeqa",
	Short: "Ask cited questions over your documents",
	Long: `citeqa ingests PDF, DOCX and XLSX documents into a local vector store and
answers questions about them with an LLM, citing the file and page each
passage came from.

Configuration lives in ~/.citeqa/config.toml. Environment variables and a
.env file override it; see 'citeqa config show'.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.citeqa)")
}

// SetServices sets the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	appSettings = s.Settings
	settingsService = s.SettingsService
	ingestionService = s.Ingestion
	retrievalService = s.Retrieval
	queryService = s.Query
	chatService = s.Chat
	promptService = s.Prompts
	healthService = s.Health
	watchService = s.Watch
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer runCleanup()
	return rootCmd.ExecuteContext(ctx)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	services, release, err := bootstrap(cmd.Context(), BootstrapOptions{ConfigDir: configDir, TopK: topK})
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	SetServices(services)
	cleanup = release
	return nil
}

func runCleanup() {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		logger.Warn("shutdown: %v", err)
	}
	cleanup = nil
}

// collectionOrDefault resolves the --collection flag against settings.
func collectionOrDefault(flag string) string {
	if flag != "" {
		return flag
	}
	if appSettings != nil && appSettings.DefaultCollection != "" {
		return appSettings.DefaultCollection
	}
	return domain.DefaultCollection
}

// owner returns the configured session owner.
func owner() string {
	if appSettings != nil && appSettings.Owner != "" {
		return appSettings.Owner
	}
	return domain.DefaultOwner
}

// notConfigured reports a service the bootstrap did not provide.
func notConfigured(name string) error {
	return errors.New(name + " service not configured")
}
