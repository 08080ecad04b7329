// Package cli provides the lexiq command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexiq/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
	"github.com/custodia-labs/lexiq/internal/logger"
	"github.com/custodia-labs/lexiq/internal/normalisers"
)

// version is set at build time via -ldflags.
var version = "dev"

// AnalyzerFactory builds the analyzer selected by settings.
type AnalyzerFactory func(settings *domain.AppSettings, prompts driven.PromptStore) (*ai.Backend, error)

// ResultStoreFactory opens the persistent cache layer selected by settings.
type ResultStoreFactory func(ctx context.Context, settings domain.CacheSettings) (driven.ResultStore, error)

// Services holds the dependencies the commands run against.
type Services struct {
	Settings       driving.SettingsService
	Prompts        driven.PromptStore
	NewAnalyzer    AnalyzerFactory
	NewResultStore ResultStoreFactory

	// Documents extracts analysable text from files. Nil keeps the
	// built-in normalisers.
	Documents driven.NormaliserRegistry
}

var (
	settingsService driving.SettingsService
	promptStore     driven.PromptStore
	newAnalyzer     AnalyzerFactory           = defaultAnalyzer
	newResultStore  ResultStoreFactory        = openResultStore
	documents       driven.NormaliserRegistry = normalisers.Default()

	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "lexiq",
	Short: "Incremental terminology QA for translated documents",
	Long: `lexiq checks the terminology of a document against a glossary and keeps
the analysis current as the document is edited. Unchanged revisions are served
from cache and small edits only re-analyse the regions that changed.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print re-analysis decisions to stderr")
}

// Configure injects the services used by all commands.
// Nil factories keep the defaults.
func Configure(s Services) {
	settingsService = s.Settings
	promptStore = s.Prompts
	if s.NewAnalyzer != nil {
		newAnalyzer = s.NewAnalyzer
	}
	if s.NewResultStore != nil {
		newResultStore = s.NewResultStore
	}
	if s.Documents != nil {
		documents = s.Documents
	}
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which commands use for
// cancellation.
func ExecuteContext(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("lexiq: %w", err)
	}
	return nil
}

func defaultAnalyzer(settings *domain.AppSettings, prompts driven.PromptStore) (*ai.Backend, error) {
	return ai.CreateAnalyzer(settings, prompts, false)
}
