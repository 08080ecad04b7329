package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/logger"
)

var orchLog = logger.For("orchestrator")

// Orchestrator dispatches a document to the analyzer, splitting it into
// ordered chunks when it exceeds the single-call limit.
type Orchestrator struct {
	analyzer          driven.Analyzer
	splitter          driven.Splitter
	singleCallLimit   int
	maxDocumentLength int
	concurrency       int
	limiter           *rate.Limiter
	weights           domain.QualityWeights
	metrics           driven.MetricsRecorder
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLimits sets the single-call limit and the absolute document ceiling,
// both in runes.
func WithLimits(singleCall, maxDocument int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.singleCallLimit = singleCall
		o.maxDocumentLength = maxDocument
	}
}

// WithConcurrency bounds in-flight chunk calls. Values below 1 mean 1.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.concurrency = max(n, 1)
	}
}

// WithRateLimit gates analyzer calls at rps calls per second. 0 disables it.
func WithRateLimit(rps float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if rps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			o.limiter = nil
		}
	}
}

// WithWeights sets the quality weights used for multi-chunk statistics.
func WithWeights(w domain.QualityWeights) OrchestratorOption {
	return func(o *Orchestrator) {
		o.weights = w
	}
}

// WithOrchestratorMetrics sets the recorder for analyzer call outcomes.
func WithOrchestratorMetrics(m driven.MetricsRecorder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates an Orchestrator. The splitter must cut chunks no
// larger than the single-call limit.
func NewOrchestrator(analyzer driven.Analyzer, splitter driven.Splitter, opts ...OrchestratorOption) *Orchestrator {
	defaults := domain.DefaultEngineSettings()
	o := &Orchestrator{
		analyzer:          analyzer,
		splitter:          splitter,
		singleCallLimit:   defaults.SingleCallLimit,
		maxDocumentLength: defaults.MaxDocumentLength,
		concurrency:       1,
		weights:           defaults.Weights,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze classifies req.Text.
//
// Text within the single-call limit goes to the analyzer in one call and its
// result is returned as is. Longer text is split into chunks that are
// dispatched in index order; term offsets are rebased onto the full document
// and statistics are recomputed over the combined term list. onProgress, if
// not nil, is called after each chunk in index order.
//
// Cancelling ctx stops further dispatch and yields domain.ErrCancelled; no
// partial result is ever returned. An analyzer failure is returned as a
// *domain.ChunkError naming the failing chunk.
func (o *Orchestrator) Analyze(ctx context.Context, req domain.AnalysisRequest, onProgress domain.ProgressFunc) (domain.AnalysisResult, error) {
	if o.singleCallLimit <= 0 {
		return domain.AnalysisResult{}, fmt.Errorf("%w: single call limit %d", domain.ErrInputTooLarge, o.singleCallLimit)
	}
	n := utf8.RuneCountInString(req.Text)
	if n > o.maxDocumentLength {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %d runes exceeds ceiling of %d", domain.ErrInputTooLarge, n, o.maxDocumentLength)
	}
	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}
	if n == 0 {
		return domain.AnalysisResult{Terms: []domain.Term{}}, nil
	}

	runID := uuid.New().String()
	progress := func(index, total int) {
		if onProgress != nil {
			onProgress(domain.Progress{
				RunID:       runID,
				ChunkIndex:  index,
				TotalChunks: total,
				Percent:     float64(index+1) * 100 / float64(total),
			})
		}
	}

	if n <= o.singleCallLimit {
		job := domain.ChunkJob{Index: 0, TotalChunks: 1, Content: req.Text}
		result, err := o.callChunk(ctx, job, req)
		if err != nil {
			return domain.AnalysisResult{}, err
		}
		progress(0, 1)
		return result, nil
	}

	jobs := o.splitter.Split(req.Text)
	for _, job := range jobs {
		if utf8.RuneCountInString(job.Content) > o.singleCallLimit {
			return domain.AnalysisResult{}, fmt.Errorf("%w: %s produced a chunk above %d runes",
				domain.ErrInputTooLarge, o.splitter.Name(), o.singleCallLimit)
		}
	}
	orchLog.Info("run %s: %d runes in %d chunks (concurrency %d)", runID[:8], n, len(jobs), o.concurrency)

	var (
		results []domain.AnalysisResult
		err     error
	)
	if o.concurrency > 1 {
		results, err = o.runConcurrent(ctx, jobs, req, progress)
	} else {
		results, err = o.runSequential(ctx, jobs, req, progress)
	}
	if err != nil {
		orchLog.Debug("run %s: %s", runID[:8], summarise(jobs))
		return domain.AnalysisResult{}, err
	}

	var terms []domain.Term
	for i, r := range results {
		for _, t := range r.Terms {
			terms = append(terms, t.At(t.Start+jobs[i].OffsetBase, t.End+jobs[i].OffsetBase))
		}
	}
	if terms == nil {
		terms = []domain.Term{}
	}
	return domain.NewAnalysisResult(terms, o.weights), nil
}

func (o *Orchestrator) runSequential(ctx context.Context, jobs []domain.ChunkJob, req domain.AnalysisRequest, progress func(int, int)) ([]domain.AnalysisResult, error) {
	results := make([]domain.AnalysisResult, len(jobs))
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			markRemaining(jobs, i, domain.ChunkCancelled)
			return nil, fmt.Errorf("%w: before chunk %d/%d", domain.ErrCancelled, i+1, len(jobs))
		}
		jobs[i].Status = domain.ChunkRunning
		r, err := o.callChunk(ctx, jobs[i], req)
		if err != nil {
			jobs[i].Status = chunkStatusFor(err)
			markRemaining(jobs, i+1, domain.ChunkCancelled)
			return nil, err
		}
		results[i] = r
		jobs[i].Status = domain.ChunkDone
		jobs[i].ProgressPercent = float64(i+1) * 100 / float64(len(jobs))
		progress(i, len(jobs))
	}
	return results, nil
}

// runConcurrent overlaps up to o.concurrency calls but flushes results and
// progress strictly in index order.
func (o *Orchestrator) runConcurrent(ctx context.Context, jobs []domain.ChunkJob, req domain.AnalysisRequest, progress func(int, int)) ([]domain.AnalysisResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	results := make([]domain.AnalysisResult, len(jobs))
	errs := make([]error, len(jobs))
	done := make([]chan struct{}, len(jobs))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var statusMu sync.Mutex
	setStatus := func(i int, s domain.ChunkStatus) {
		statusMu.Lock()
		jobs[i].Status = s
		statusMu.Unlock()
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := range jobs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				defer close(done[i])
				setStatus(i, domain.ChunkRunning)
				r, err := o.callChunk(gctx, jobs[i], req)
				if err != nil {
					setStatus(i, chunkStatusFor(err))
					errs[i] = err
					return err
				}
				results[i] = r
				setStatus(i, domain.ChunkDone)
				return nil
			})
		}
		_ = g.Wait()
	}()

	flushed := 0
flush:
	for i := range jobs {
		select {
		case <-done[i]:
		case <-finished:
			// Dispatch stopped; chunks never started will not complete.
			select {
			case <-done[i]:
			default:
				break flush
			}
		}
		if errs[i] != nil || ctx.Err() != nil {
			break
		}
		statusMu.Lock()
		jobs[i].ProgressPercent = float64(i+1) * 100 / float64(len(jobs))
		statusMu.Unlock()
		progress(i, len(jobs))
		flushed++
	}
	<-finished

	statusMu.Lock()
	defer statusMu.Unlock()
	for i := range jobs {
		if jobs[i].Status == domain.ChunkPending {
			jobs[i].Status = domain.ChunkCancelled
		}
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: after %d/%d chunks", domain.ErrCancelled, flushed, len(jobs))
	}
	if err := firstChunkError(errs); err != nil {
		return nil, err
	}
	if flushed < len(jobs) {
		return nil, fmt.Errorf("%w: after %d/%d chunks", domain.ErrCancelled, flushed, len(jobs))
	}
	return results, nil
}

// callChunk sends one chunk to the analyzer and returns its terms positioned
// within the chunk.
func (o *Orchestrator) callChunk(ctx context.Context, job domain.ChunkJob, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			o.recordCall("cancelled")
			return domain.AnalysisResult{}, fmt.Errorf("%w: waiting for rate limiter: %w", domain.ErrCancelled, err)
		}
	}

	start := time.Now()
	result, err := o.analyzer.Analyze(ctx, req.WithText(job.Content))
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			o.recordCall("cancelled")
			return domain.AnalysisResult{}, fmt.Errorf("%w: chunk %d/%d: %w", domain.ErrCancelled, job.Index+1, job.TotalChunks, err)
		}
		o.recordCall(outcomeFor(err))
		return domain.AnalysisResult{}, &domain.ChunkError{Index: job.Index, Total: job.TotalChunks, Err: err}
	}

	terms, dropped, err := normaliseTerms([]rune(job.Content), result.Terms)
	if err != nil {
		o.recordCall("malformed")
		return domain.AnalysisResult{}, &domain.ChunkError{Index: job.Index, Total: job.TotalChunks, Err: err}
	}
	o.recordCall("ok")
	orchLog.Debug("chunk %d/%d: %d terms in %s", job.Index+1, job.TotalChunks, len(terms), time.Since(start).Round(time.Millisecond))

	if dropped > 0 {
		orchLog.Warn("chunk %d/%d: %d terms could not be located and were dropped", job.Index+1, job.TotalChunks, dropped)
		return domain.NewAnalysisResult(terms, o.weights), nil
	}
	domain.SortTerms(terms)
	return domain.AnalysisResult{Terms: terms, Statistics: result.Statistics}, nil
}

// normaliseTerms validates analyzer terms against the text they came from.
// Terms whose offsets disagree with their text are re-located by search and
// dropped when the text does not occur. A term without text or with an
// unknown classification makes the whole response malformed.
func normaliseTerms(content []rune, terms []domain.Term) ([]domain.Term, int, error) {
	out := make([]domain.Term, 0, len(terms))
	dropped := 0
	for i, t := range terms {
		if t.Text == "" {
			return nil, 0, fmt.Errorf("%w: term %d has no text", domain.ErrMalformedResponse, i)
		}
		if !t.Classification.IsValid() {
			return nil, 0, fmt.Errorf("%w: term %q has classification %q", domain.ErrMalformedResponse, t.Text, t.Classification)
		}
		if t.Within(len(content)) && string(content[t.Start:t.End]) == t.Text {
			out = append(out, t.Clone())
			continue
		}
		start, ok := relocate(content, t.Text, t.Start)
		if !ok {
			dropped++
			continue
		}
		out = append(out, t.At(start, start+utf8.RuneCountInString(t.Text)))
	}
	return out, dropped, nil
}

func (o *Orchestrator) recordCall(outcome string) {
	if o.metrics != nil {
		o.metrics.RecordChunkCall(outcome)
	}
}

func outcomeFor(err error) string {
	switch {
	case domain.IsTransient(err):
		return "transient"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}

func chunkStatusFor(err error) domain.ChunkStatus {
	if domain.IsCancelled(err) {
		return domain.ChunkCancelled
	}
	return domain.ChunkFailed
}

func markRemaining(jobs []domain.ChunkJob, from int, status domain.ChunkStatus) {
	for i := from; i < len(jobs); i++ {
		jobs[i].Status = status
	}
}

// firstChunkError returns the lowest-index failure that is not a
// cancellation caused by another chunk failing.
func firstChunkError(errs []error) error {
	var cancelled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if domain.IsCancelled(err) {
			if cancelled == nil {
				cancelled = err
			}
			continue
		}
		return err
	}
	return cancelled
}

func summarise(jobs []domain.ChunkJob) string {
	counts := make(map[domain.ChunkStatus]int)
	for _, j := range jobs {
		counts[j.Status]++
	}
	order := []domain.ChunkStatus{domain.ChunkDone, domain.ChunkFailed, domain.ChunkCancelled, domain.ChunkRunning, domain.ChunkPending}
	out := ""
	for _, s := range order {
		if counts[s] == 0 {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%d %s", counts[s], s)
	}
	return out
}
