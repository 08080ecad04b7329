package cli

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/lexiq/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexiq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// --- Mock implementations ---

type mockSettingsService struct {
	settings    domain.AppSettings
	setErr      error
	validateErr error
	pingErr     error
	set         map[string]string
	provider    domain.AIProvider
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		set:      make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider = provider
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// mockAnalyzer flags every occurrence of each misspelling.
type mockAnalyzer struct {
	mu          sync.Mutex
	misspelling []string
	texts       []string
	languages   []string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisResult{}, err
	}
	m.mu.Lock()
	m.texts = append(m.texts, req.Text)
	m.languages = append(m.languages, req.Language)
	m.mu.Unlock()

	var terms []domain.Term
	for _, word := range m.misspelling {
		offset := 0
		for {
			i := strings.Index(req.Text[offset:], word)
			if i < 0 {
				break
			}
			start := utf8.RuneCountInString(req.Text[:offset+i])
			terms = append(terms, domain.Term{
				Text:           word,
				Start:          start,
				End:            start + utf8.RuneCountInString(word),
				Classification: domain.ClassSpelling,
				Score:          40,
				Frequency:      1,
				Suggestions:    []string{"color"},
			})
			offset += i + len(word)
		}
	}
	return domain.NewAnalysisResult(terms, domain.DefaultQualityWeights()), nil
}

func (m *mockAnalyzer) Name() string { return "mock" }

func (m *mockAnalyzer) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *mockAnalyzer) lastLanguage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.languages) == 0 {
		return ""
	}
	return m.languages[len(m.languages)-1]
}

// setupTestServices wires mocks into the package and returns a cleanup
// function restoring the previous services and flag values.
func setupTestServices() (*mockSettingsService, *mockAnalyzer, func()) {
	prevSettings, prevPrompts := settingsService, promptStore
	prevAnalyzer, prevStore := newAnalyzer, newResultStore
	prevDocuments := documents

	settings := newMockSettingsService()
	analyzer := &mockAnalyzer{misspelling: []string{"colour"}}
	store := memory.NewResultStore()

	Configure(Services{
		Settings: settings,
		NewAnalyzer: func(*domain.AppSettings, driven.PromptStore) (*ai.Backend, error) {
			return &ai.Backend{Analyzer: analyzer}, nil
		},
		NewResultStore: func(context.Context, domain.CacheSettings) (driven.ResultStore, error) {
			return store, nil
		},
	})

	return settings, analyzer, func() {
		settingsService, promptStore = prevSettings, prevPrompts
		newAnalyzer, newResultStore = prevAnalyzer, prevStore
		documents = prevDocuments
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// resetFlags restores every flag of cmd and its children to its default and
// drops contexts left over from ExecuteContext.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(nil) //nolint:staticcheck // Execute substitutes context.Background
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
