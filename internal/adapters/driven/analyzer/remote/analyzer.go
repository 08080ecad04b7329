// Package remote implements the analyzer port against a hosted analysis
// service that accepts one JSON request per text and replies with the
// classified terms.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/custodia-labs/lexiq/internal/adapters/driven/llm"
	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure Analyzer implements the interface.
var _ driven.Analyzer = (*Analyzer)(nil)

const name = "remote"

// DefaultTimeout bounds one analysis call.
const DefaultTimeout = 90 * time.Second

// Config holds configuration for the remote analyzer.
type Config struct {
	// URL is the analysis endpoint (required).
	URL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds one call (default: 90s).
	Timeout time.Duration

	// Weights are used to compute statistics from the returned terms.
	// The zero value selects domain.DefaultQualityWeights.
	Weights domain.QualityWeights

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Analyzer calls a hosted analysis service over HTTP.
type Analyzer struct {
	url     string
	apiKey  string
	weights domain.QualityWeights
	client  *http.Client
}

// New creates a remote analyzer.
func New(cfg Config) (*Analyzer, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%w: remote analyzer URL is required", domain.ErrAnalyzerUnavailable)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	weights := cfg.Weights
	if weights == (domain.QualityWeights{}) {
		weights = domain.DefaultQualityWeights()
	}

	return &Analyzer{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		weights: weights,
		client:  client,
	}, nil
}

// Name identifies the backend in logs.
func (a *Analyzer) Name() string {
	return name
}

type analyzeRequest struct {
	Text          string `json:"text"`
	Glossary      string `json:"glossary"`
	Language      string `json:"language"`
	Domain        string `json:"domain"`
	CheckGrammar  bool   `json:"checkGrammar"`
	CheckSpelling bool   `json:"checkSpelling"`
}

type analyzeResponse struct {
	Terms      *[]domain.Term     `json:"terms"`
	Statistics *domain.Statistics `json:"statistics"`
}

// Analyze classifies the terms of req.Text.
// Statistics in the reply are required but recomputed locally so that
// scores stay comparable with merged results.
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	payload, err := json.Marshal(analyzeRequest{
		Text:          req.Text,
		Glossary:      req.Glossary,
		Language:      req.Language,
		Domain:        req.Domain,
		CheckGrammar:  req.Flags.Grammar,
		CheckSpelling: req.Flags.Spelling,
	})
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return domain.AnalysisResult{}, llm.TransportError(name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.AnalysisResult{}, llm.TransportError(name, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.AnalysisResult{}, fmt.Errorf("%s: %w (status %d)", name, domain.ErrAnalyzerUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.AnalysisResult{}, llm.StatusError(name, resp.StatusCode, body)
	}

	var out analyzeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.AnalysisResult{}, llm.DecodeError(name, err)
	}
	if out.Terms == nil {
		return domain.AnalysisResult{}, llm.DecodeError(name, fmt.Errorf(`response has no "terms" array`))
	}
	if out.Statistics == nil {
		return domain.AnalysisResult{}, llm.DecodeError(name, fmt.Errorf(`response has no "statistics" object`))
	}

	return domain.NewAnalysisResult(*out.Terms, a.weights), nil
}
