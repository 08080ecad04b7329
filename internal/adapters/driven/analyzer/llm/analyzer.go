// Package llm implements the analyzer port by prompting a chat model.
//
// The model is asked for a JSON object with a "terms" array. Replies that
// cannot be decoded, or that omit the array, are reported as
// domain.ErrMalformedResponse and never partially trusted.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/logger"
)

// Ensure Analyzer implements the interfaces.
var (
	_ driven.Analyzer         = (*Analyzer)(nil)
	_ driven.PromptStoreAware = (*Analyzer)(nil)
)

// DefaultMaxTokens bounds the model reply.
const DefaultMaxTokens = 4096

var log = logger.For("analyzer/llm")

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWeights sets the quality weights used for the returned statistics.
func WithWeights(w domain.QualityWeights) Option {
	return func(a *Analyzer) {
		a.weights = w
	}
}

// WithMaxTokens sets the reply token budget.
func WithMaxTokens(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// Analyzer classifies terms by prompting an LLMService.
type Analyzer struct {
	llm       driven.LLMService
	weights   domain.QualityWeights
	maxTokens int
	defaults  map[string]string

	mu      sync.RWMutex
	prompts driven.PromptStore
}

// New creates an analyzer backed by the given chat model.
func New(service driven.LLMService, opts ...Option) (*Analyzer, error) {
	if service == nil {
		return nil, domain.ErrLLMUnavailable
	}
	a := &Analyzer{
		llm:       service,
		weights:   domain.DefaultQualityWeights(),
		maxTokens: DefaultMaxTokens,
		defaults:  DefaultPrompts(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// SetPromptStore sets the store that customised prompts are loaded from.
func (a *Analyzer) SetPromptStore(store driven.PromptStore) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prompts = store
}

// Name identifies the backend in logs.
func (a *Analyzer) Name() string {
	return "llm:" + a.llm.ModelName()
}

// Analyze classifies the terms of req.Text.
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, err
	}

	user, err := a.renderUser(req)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: a.prompt(driven.PromptAnalysisSystem)},
		{Role: "user", Content: user},
	}
	reply, err := a.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   a.maxTokens,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%s: %w", a.Name(), err)
	}

	terms, err := decodeTerms(reply)
	if err != nil {
		log.Debug("undecodable reply (%d bytes): %v", len(reply), err)
		return domain.AnalysisResult{}, fmt.Errorf("%s: %w", a.Name(), err)
	}
	log.Debug("%d terms from %d runes", len(terms), len([]rune(req.Text)))
	return domain.NewAnalysisResult(terms, a.weights), nil
}

// prompt loads a prompt from the store, falling back to the built-in text.
func (a *Analyzer) prompt(name string) string {
	a.mu.RLock()
	store := a.prompts
	a.mu.RUnlock()

	if store != nil {
		if p, err := store.Load(name); err == nil && p != "" {
			return p
		}
	}
	return a.defaults[name]
}

func (a *Analyzer) renderUser(req domain.AnalysisRequest) (string, error) {
	tmpl, err := template.New(driven.PromptAnalysisUser).Parse(a.prompt(driven.PromptAnalysisUser))
	if err != nil {
		log.Warn("custom user prompt does not parse, using built-in: %v", err)
		tmpl = template.Must(template.New(driven.PromptAnalysisUser).Parse(a.defaults[driven.PromptAnalysisUser]))
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, req); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", driven.PromptAnalysisUser, err)
	}
	return b.String(), nil
}

type reply struct {
	Terms *[]domain.Term `json:"terms"`
}

// decodeTerms parses a model reply. Models sometimes wrap JSON in a
// markdown code fence even when asked not to.
func decodeTerms(raw string) ([]domain.Term, error) {
	body := stripFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrMalformedResponse)
	}

	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if r.Terms == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, errMissingTerms)
	}
	return *r.Terms, nil
}

var errMissingTerms = errors.New(`reply has no "terms" array`)

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
