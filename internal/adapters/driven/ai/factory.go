// Package ai builds the analyzer selected in settings together with the
// chat-model service it prompts.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexiq/internal/adapters/driven/analyzer/consistency"
	llmanalyzer "github.com/custodia-labs/lexiq/internal/adapters/driven/analyzer/llm"
	"github.com/custodia-labs/lexiq/internal/adapters/driven/analyzer/remote"
	anthropicllm "github.com/custodia-labs/lexiq/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/lexiq/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/lexiq/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

const pingTimeout = 5 * time.Second

const llmHint = "Run 'lexiq settings show' to check the llm.* keys"

// providers constructs the chat service for each supported provider.
var providers = map[domain.AIProvider]func(*domain.LLMSettings) (driven.LLMService, error){
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

// Backend is an analyzer plus the chat service it owns, if any.
type Backend struct {
	Analyzer driven.Analyzer

	// LLMService is nil for the remote backend.
	LLMService driven.LLMService
}

// Close releases the chat service.
func (b *Backend) Close() {
	if b.LLMService != nil {
		_ = b.LLMService.Close()
	}
}

// CreateAnalyzer builds the analyzer named by settings.Analyzer. With
// validate set, the LLM provider must answer a ping first. A nil prompts
// store keeps the built-in prompts.
func CreateAnalyzer(settings *domain.AppSettings, prompts driven.PromptStore, validate bool) (*Backend, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no settings", domain.ErrAnalyzerUnavailable)
	}

	switch settings.Analyzer {
	case domain.AnalyzerRemote:
		a, err := remote.New(remote.Config{
			URL:     settings.Remote.URL,
			APIKey:  settings.Remote.APIKey,
			Weights: settings.Engine.Weights,
		})
		if err != nil {
			return nil, fmt.Errorf("%w. Run 'lexiq settings set remote.url <url>' to fix", err)
		}
		return &Backend{Analyzer: a}, nil

	case domain.AnalyzerConsistency:
		return &Backend{Analyzer: consistency.New(consistency.WithWeights(settings.Engine.Weights))}, nil

	case domain.AnalyzerLLM, "":
		return createLLMBackend(settings, prompts, validate)

	default:
		return nil, fmt.Errorf("%w: analyzer backend %q", domain.ErrUnsupportedType, settings.Analyzer)
	}
}

func createLLMBackend(settings *domain.AppSettings, prompts driven.PromptStore, validate bool) (*Backend, error) {
	create := CreateLLMService
	if validate {
		create = CreateAndValidateLLMService
	}
	svc, err := create(&settings.LLM)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: no LLM provider configured. Run 'lexiq settings set llm.provider <name>' to fix",
			domain.ErrLLMUnavailable)
	}

	a, err := llmanalyzer.New(svc, llmanalyzer.WithWeights(settings.Engine.Weights))
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	if prompts != nil {
		a.SetPromptStore(prompts)
	}
	return &Backend{Analyzer: a, LLMService: svc}, nil
}

// CreateLLMService returns the chat service for settings, or nil when no
// provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	newService, ok := providers[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	return newService(settings)
}

// CreateAndValidateLLMService is CreateLLMService followed by a ping.
// Every failure is reported as domain.ErrLLMUnavailable.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, llmHint)
	}
	if svc == nil {
		return nil, nil
	}
	if err := ping(svc); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, llmHint)
	}
	return svc, nil
}

// ValidateLLMConfig pings the provider described by settings and returns
// the raw ping error. Unconfigured settings pass.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(svc)
}

func ping(svc driven.LLMService) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
