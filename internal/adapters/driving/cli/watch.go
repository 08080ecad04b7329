package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexiq/internal/adapters/driving/watch"
	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/logger"
)

var (
	watchDebounce    time.Duration
	watchMetricsAddr string
	watchJSON        bool
)

var watchFlags analysisFlags

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Re-analyse a document whenever it changes",
	Long: `Analyses a document, then keeps the analysis current while the file is
edited. Saves are debounced, and a save that arrives while an analysis is
still running cancels it in favour of the newer revision.

Use --metrics-addr to expose Prometheus metrics for the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounceDuration, "quiet period before re-analysing")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "output reports as JSON")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck // Best-effort close on exit

	ed, err := watchFlags.newEditor(cmd, eng.settings.Analysis)
	if err != nil {
		return err
	}

	eng.serveMetrics(ctx, watchMetricsAddr)

	_, policy := eng.sessions.Open(path)
	defer traceTransitions(policy)()

	out := cmd.OutOrStdout()
	styles := stylesFor(out)
	runner := newRunner(ctx, func(ctx context.Context) {
		content, err := readDocument(ctx, path)
		if err != nil {
			logger.Warn("%v", err)
			return
		}
		outcome, err := policy.Reanalyze(ctx, ed.editFor(content), logProgress)
		switch {
		case errors.Is(err, domain.ErrCancelled):
			engineLog.Debug("analysis superseded by a newer revision")
		case err != nil:
			fmt.Fprintf(out, "Analysis failed: %v\n", err)
		case watchJSON:
			if err := writeJSONReport(out, path, outcome); err != nil {
				logger.Warn("%v", err)
			}
		default:
			writeReport(out, path, outcome, styles)
			fmt.Fprintln(out)
		}
	})
	defer runner.stop()

	w, err := watch.New(path,
		watch.WithDebounceDuration(watchDebounce),
		watch.WithOnChange(runner.trigger),
		watch.WithOnError(func(err error) { logger.Warn("watch: %v", err) }),
	)
	if err != nil {
		return err
	}

	runner.trigger()
	return w.Run(ctx)
}

// runner runs at most one analysis at a time. Triggering cancels the
// running analysis and waits for it before starting the next.
type runner struct {
	ctx context.Context
	run func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newRunner(ctx context.Context, run func(context.Context)) *runner {
	return &runner{ctx: ctx, run: run}
}

func (r *runner) trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	ctx, cancel := context.WithCancel(r.ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	go func() {
		defer close(done)
		r.run(ctx)
	}()
}

func (r *runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *runner) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel, r.done = nil, nil
}
