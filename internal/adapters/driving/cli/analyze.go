package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
)

var (
	analyzeBaseline string
	analyzeJSON     bool
)

// analysisFlags are the per-edit parameters shared by analyze and watch.
type analysisFlags struct {
	glossary string
	language string
	domain   string
	grammar  bool
	spelling bool
}

var analyzeFlags analysisFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyse a document's terminology",
	Long: `Checks the terminology of a document against a glossary and prints the
flagged terms with aggregate statistics.

With --baseline the previous revision is analysed first, so the document is
re-analysed incrementally: only the regions that changed since the baseline
are sent to the analyzer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeBaseline, "baseline", "", "previous revision of the document")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.glossary, "glossary", "g", "", "glossary file")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "language code (default from settings)")
	cmd.Flags().StringVarP(&f.domain, "domain", "d", "", "subject domain (default from settings)")
	cmd.Flags().BoolVar(&f.grammar, "grammar", false, "report grammar issues (default from settings)")
	cmd.Flags().BoolVar(&f.spelling, "spelling", false, "report spelling issues (default from settings)")
}

// editor turns document content into edits with fixed parameters.
type editor struct {
	glossary string
	language string
	domain   string
	flags    domain.CheckFlags

	// pinned is set when --language was given; it overrides the
	// language a document declares.
	pinned bool
}

// newEditor resolves the flags against the settings defaults.
func (f *analysisFlags) newEditor(cmd *cobra.Command, defaults domain.AnalysisSettings) (*editor, error) {
	e := &editor{
		language: defaults.Language,
		domain:   defaults.Domain,
		flags:    defaults.Flags,
	}
	if f.language != "" {
		e.language = f.language
		e.pinned = true
	}
	if f.domain != "" {
		e.domain = f.domain
	}
	if cmd.Flags().Changed("grammar") {
		e.flags.Grammar = f.grammar
	}
	if cmd.Flags().Changed("spelling") {
		e.flags.Spelling = f.spelling
	}
	if f.glossary != "" {
		data, err := os.ReadFile(f.glossary)
		if err != nil {
			return nil, fmt.Errorf("failed to read glossary: %w", err)
		}
		e.glossary = string(data)
	}
	return e, nil
}

func (e *editor) edit(content string) domain.Edit {
	return domain.Edit{
		Snapshot: domain.NewSnapshot(content),
		Glossary: e.glossary,
		Language: e.language,
		Domain:   e.domain,
		Flags:    e.flags,
	}
}

// editFor builds the edit for an extracted document, preferring the
// document's declared language over the settings default.
func (e *editor) editFor(doc *driven.NormaliseResult) domain.Edit {
	edit := e.edit(doc.Text)
	if !e.pinned && doc.Language != "" {
		edit.Language = doc.Language
	}
	return edit
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	content, err := readDocument(ctx, path)
	if err != nil {
		return err
	}

	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck // Best-effort close on exit

	ed, err := analyzeFlags.newEditor(cmd, eng.settings.Analysis)
	if err != nil {
		return err
	}

	_, policy := eng.sessions.Open(path)
	unsubscribe := traceTransitions(policy)
	defer unsubscribe()

	if analyzeBaseline != "" {
		baseline, err := readDocument(ctx, analyzeBaseline)
		if err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
		if _, err := policy.Reanalyze(ctx, ed.editFor(baseline), logProgress); err != nil {
			return fmt.Errorf("baseline analysis failed: %w", err)
		}
	}

	outcome, err := policy.Reanalyze(ctx, ed.editFor(content), logProgress)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		return writeJSONReport(cmd.OutOrStdout(), path, outcome)
	}
	writeReport(cmd.OutOrStdout(), path, outcome, stylesFor(cmd.OutOrStdout()))
	return nil
}

// traceTransitions logs every state change in verbose mode.
func traceTransitions(svc driving.ReanalysisService) func() {
	return svc.Subscribe(func(t domain.Transition) {
		engineLog.Debug("%s -> %s (%s)", t.From, t.To, t.Reason)
	})
}

func logProgress(p domain.Progress) {
	engineLog.Debug("chunk %d/%d done (%.0f%%)", p.ChunkIndex+1, p.TotalChunks, p.Percent)
}
