package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
	"github.com/custodia-labs/lexiq/internal/logger"
	"github.com/custodia-labs/lexiq/internal/textdiff"
)

// Ensure ReanalysisPolicy implements the interface.
var _ driving.ReanalysisService = (*ReanalysisPolicy)(nil)

var policyLog = logger.For("policy")

// partialSeparator joins changed segments into one partial-analysis text.
const partialSeparator = "\n\n"

// analysed is the last fully analysed snapshot with its parameters and result.
type analysed struct {
	snapshot domain.Snapshot
	request  domain.AnalysisRequest
	key      domain.Fingerprint
	result   domain.AnalysisResult
}

// ReanalysisPolicy is the per-document state machine that chooses between a
// cache hit, a partial pass over the changed segments and a full pass.
//
// Reanalyze calls are serialised; a second call waits for the first.
type ReanalysisPolicy struct {
	cache        *AnalysisCache
	orchestrator *Orchestrator
	merger       *ResultMerger
	differ       *textdiff.Differ
	settings     domain.EngineSettings
	metrics      driven.MetricsRecorder

	run sync.Mutex

	mu      sync.Mutex
	state   domain.State
	last    *analysed
	subs    map[int]func(domain.Transition)
	nextSub int
}

// PolicyOption configures a ReanalysisPolicy.
type PolicyOption func(*ReanalysisPolicy)

// WithPolicyMetrics sets the recorder for decisions and fallbacks.
func WithPolicyMetrics(m driven.MetricsRecorder) PolicyOption {
	return func(p *ReanalysisPolicy) {
		p.metrics = m
	}
}

// WithDiffer overrides the segment differ.
func WithDiffer(d *textdiff.Differ) PolicyOption {
	return func(p *ReanalysisPolicy) {
		if d != nil {
			p.differ = d
		}
	}
}

// NewReanalysisPolicy creates a policy in the idle state.
func NewReanalysisPolicy(cache *AnalysisCache, orchestrator *Orchestrator, settings domain.EngineSettings, opts ...PolicyOption) *ReanalysisPolicy {
	p := &ReanalysisPolicy{
		cache:        cache,
		orchestrator: orchestrator,
		merger:       NewResultMerger(settings.Weights),
		differ: textdiff.NewDiffer(textdiff.WithEstimator(textdiff.NewEstimator(
			textdiff.WithSampleThreshold(settings.SampleThreshold),
			textdiff.WithSampleSize(settings.SampleSize),
		))),
		settings: settings,
		state:    domain.StateIdle,
		subs:     make(map[int]func(domain.Transition)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reanalyze brings the analysis up to date with edit.
//
// Decision order:
//  1. exact cache hit
//  2. no prior analysis: full
//  3. language, domain, glossary or flags changed: full
//  4. change at or above the full threshold: full
//  5. checks enabled and the edit is minor: full, and the cache is cleared
//  6. otherwise partial, falling back to full once when the partial pass finds
//     nothing where the prior result had terms
//
// On error or cancellation the previous snapshot and result are kept and
// nothing is cached.
func (p *ReanalysisPolicy) Reanalyze(ctx context.Context, edit domain.Edit, onProgress domain.ProgressFunc) (*domain.Outcome, error) {
	p.run.Lock()
	defer p.run.Unlock()

	start := time.Now()
	req := edit.Request()
	prior := p.lastAnalysed()

	if prior != nil && (prior.request.Flags != req.Flags || prior.request.Glossary != req.Glossary) {
		policyLog.Info("analysis parameters changed, clearing cache")
		p.cache.Clear(ctx)
	}

	p.transition(domain.StateCheckingCache, "edit")
	key := p.cache.KeyFor(req)
	if result, ok := p.cache.Get(ctx, key); ok {
		p.remember(edit.Snapshot, req, key, result)
		p.transition(domain.StateCacheHit, "exact key")
		return p.finish(start, &domain.Outcome{Path: domain.PathCacheHit, Result: result, Key: key}), nil
	}

	p.transition(domain.StateDiffing, "cache miss")
	path, profile, reason := p.decide(ctx, prior, req)

	outcome := &domain.Outcome{Path: path, Key: key, Profile: profile}
	var (
		result domain.AnalysisResult
		err    error
	)
	if path == domain.PathPartial {
		p.transition(domain.StatePartialPending, reason)
		result, outcome.FellBack, err = p.runPartial(ctx, prior, req, profile, onProgress)
		if outcome.FellBack {
			outcome.Path = domain.PathFull
		}
	} else {
		p.transition(domain.StateFullPending, reason)
		result, err = p.runFull(ctx, req, onProgress)
	}

	if err != nil {
		if domain.IsCancelled(err) {
			p.transition(domain.StateCancelled, "cancelled")
		} else {
			p.transition(domain.StateError, err.Error())
		}
		return nil, err
	}

	p.cache.Set(ctx, key, result, req.Text)
	p.remember(edit.Snapshot, req, key, result)
	outcome.Result = result
	p.transition(domain.StateDone, string(outcome.Path))
	return p.finish(start, outcome), nil
}

// decide picks the path for a cache miss and returns the change profile
// when one was computed.
func (p *ReanalysisPolicy) decide(ctx context.Context, prior *analysed, req domain.AnalysisRequest) (domain.Path, *domain.ChangeProfile, string) {
	if prior == nil {
		return domain.PathFull, nil, "no prior analysis"
	}
	if !prior.request.SameParameters(req) {
		return domain.PathFull, nil, "analysis parameters changed"
	}

	done := logger.Timed("diff")
	profile := p.differ.Diff(prior.snapshot.Content, req.Text)
	done()
	profile.Base = prior.key
	policyLog.Debug("%.2f%% changed in %d segments (%d runes edited)",
		profile.PercentChanged, len(profile.ChangedSegments), profile.EditedRunes)

	if profile.PercentChanged >= p.settings.FullThresholdPercent {
		return domain.PathFull, &profile, fmt.Sprintf("%.1f%% changed", profile.PercentChanged)
	}
	if req.Flags.Any() && profile.IsMinor(p.settings.MinorEditPercent, p.settings.MinorEditMaxSegments, p.settings.MinorEditMaxRunes) {
		p.cache.Clear(ctx)
		return domain.PathFull, &profile, "minor edit with language checks"
	}
	return domain.PathPartial, &profile, "small structural edit"
}

func (p *ReanalysisPolicy) runFull(ctx context.Context, req domain.AnalysisRequest, onProgress domain.ProgressFunc) (domain.AnalysisResult, error) {
	p.transition(domain.StateAnalyzing, "full")
	return p.orchestrator.Analyze(ctx, req, onProgress)
}

func (p *ReanalysisPolicy) runPartial(
	ctx context.Context,
	prior *analysed,
	req domain.AnalysisRequest,
	profile *domain.ChangeProfile,
	onProgress domain.ProgressFunc,
) (domain.AnalysisResult, bool, error) {
	p.transition(domain.StateAnalyzing, "partial")

	text, parts := partialText(profile.ChangedSegments)
	partial, err := p.orchestrator.Analyze(ctx, req.WithText(text), onProgress)
	if err != nil {
		return domain.AnalysisResult{}, false, err
	}
	terms := mapPartialTerms(partial.Terms, parts, []rune(req.Text))

	if len(terms) == 0 && expectsTerms(prior.result, profile) {
		policyLog.Warn("partial pass found no terms where the prior result had some, falling back to full")
		if p.metrics != nil {
			p.metrics.RecordFallback()
		}
		p.transition(domain.StateFullPending, "partial fallback")
		result, err := p.runFull(ctx, req, onProgress)
		return result, true, err
	}

	p.transition(domain.StateMerge, fmt.Sprintf("%d partial terms", len(terms)))
	merged, err := p.merger.Merge(prior.result, terms, *profile)
	if err != nil {
		return domain.AnalysisResult{}, false, err
	}
	return merged, false, nil
}

// partialPart maps a stretch of the partial text back to the document.
type partialPart struct {
	textStart int
	length    int
	docStart  int
}

// partialText joins the non-empty changed segments with a separator.
func partialText(segments []domain.Segment) (string, []partialPart) {
	var b strings.Builder
	var parts []partialPart
	pos := 0
	sepLen := len([]rune(partialSeparator))
	for _, s := range segments {
		if s.Len() == 0 {
			continue
		}
		if len(parts) > 0 {
			b.WriteString(partialSeparator)
			pos += sepLen
		}
		parts = append(parts, partialPart{textStart: pos, length: s.Len(), docStart: s.Start})
		b.WriteString(s.Content)
		pos += s.Len()
	}
	return b.String(), parts
}

// mapPartialTerms moves terms from partial-text offsets to document offsets.
// Terms starting in a separator are dropped; terms running past their
// segment are clipped to it.
func mapPartialTerms(terms []domain.Term, parts []partialPart, doc []rune) []domain.Term {
	out := make([]domain.Term, 0, len(terms))
	for _, t := range terms {
		for _, part := range parts {
			end := part.textStart + part.length
			if t.Start < part.textStart || t.Start >= end {
				continue
			}
			start := part.docStart + t.Start - part.textStart
			stop := part.docStart + min(t.End, end) - part.textStart
			moved := t.At(start, stop)
			moved.Text = string(doc[start:stop])
			out = append(out, moved)
			break
		}
	}
	return out
}

// expectsTerms reports whether the prior result had terms inside a changed
// segment that still has content.
func expectsTerms(prior domain.AnalysisResult, profile *domain.ChangeProfile) bool {
	for _, s := range profile.ChangedSegments {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		for _, t := range prior.Terms {
			if t.Intersects(s.PrevStart, s.PrevEnd) {
				return true
			}
		}
	}
	return false
}

// State returns the current state machine state.
func (p *ReanalysisPolicy) State() domain.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastSnapshot returns the last fully analysed snapshot, if any.
func (p *ReanalysisPolicy) LastSnapshot() (domain.Snapshot, bool) {
	last := p.lastAnalysed()
	if last == nil {
		return domain.Snapshot{}, false
	}
	return last.snapshot, true
}

// CurrentResult returns the result attached to LastSnapshot, if any.
func (p *ReanalysisPolicy) CurrentResult() (domain.AnalysisResult, bool) {
	last := p.lastAnalysed()
	if last == nil {
		return domain.AnalysisResult{}, false
	}
	return last.result.Clone(), true
}

// Subscribe registers fn for every transition.
// fn runs synchronously on the goroutine driving the transition.
func (p *ReanalysisPolicy) Subscribe(fn func(domain.Transition)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// Reset forgets the last snapshot and result and returns to idle.
// The cache is left alone.
func (p *ReanalysisPolicy) Reset() {
	p.run.Lock()
	defer p.run.Unlock()
	p.mu.Lock()
	p.last = nil
	p.mu.Unlock()
	p.transition(domain.StateIdle, "reset")
}

// Cache returns the policy's cache.
func (p *ReanalysisPolicy) Cache() *AnalysisCache {
	return p.cache
}

// ClearCache drops every cached analysis, including the persistent layer.
// The last snapshot and result are kept, so the next edit can still take
// the partial path.
func (p *ReanalysisPolicy) ClearCache(ctx context.Context) {
	p.run.Lock()
	defer p.run.Unlock()
	p.cache.Clear(ctx)
}

func (p *ReanalysisPolicy) lastAnalysed() *analysed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *ReanalysisPolicy) remember(snapshot domain.Snapshot, req domain.AnalysisRequest, key domain.Fingerprint, result domain.AnalysisResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = &analysed{snapshot: snapshot, request: req, key: key, result: result.Clone()}
}

func (p *ReanalysisPolicy) transition(to domain.State, reason string) {
	p.mu.Lock()
	t := domain.Transition{From: p.state, To: to, Reason: reason, At: time.Now()}
	p.state = to
	subs := make([]func(domain.Transition), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	policyLog.Debug("%s -> %s (%s)", t.From, t.To, reason)
	for _, fn := range subs {
		fn(t)
	}
}

func (p *ReanalysisPolicy) finish(start time.Time, o *domain.Outcome) *domain.Outcome {
	o.Duration = time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordDecision(o.Path, o.Duration)
	}
	policyLog.Info("%s in %s: %d terms, quality %.1f", o.Path, o.Duration.Round(time.Millisecond),
		len(o.Result.Terms), o.Result.Statistics.QualityScore)
	return o
}
