package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty string is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown provider is invalid", provider: AIProvider("unknown"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderOpenAI.IsLocal())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "OpenAI (cloud)", AIProviderOpenAI.Description())
	assert.Equal(t, "Anthropic (cloud)", AIProviderAnthropic.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{
			name:     "valid ollama configuration",
			settings: LLMSettings{Provider: AIProviderOllama, Model: "llama3.2", BaseURL: "http://localhost:11434"},
			expected: true,
		},
		{
			name:     "valid openai configuration with API key",
			settings: LLMSettings{Provider: AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test123"},
			expected: true,
		},
		{
			name:     "anthropic without API key",
			settings: LLMSettings{Provider: AIProviderAnthropic, Model: "claude-3-5-sonnet-latest"},
			expected: false,
		},
		{
			name:     "empty provider",
			settings: LLMSettings{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestBackends_IsValid(t *testing.T) {
	for _, b := range AllCacheBackends() {
		assert.True(t, b.IsValid(), b)
		assert.NotEqual(t, unknownDescription, b.Description())
	}
	assert.False(t, CacheBackend("etcd").IsValid())
	assert.Equal(t, unknownDescription, CacheBackend("etcd").Description())

	assert.True(t, AnalyzerLLM.IsValid())
	assert.True(t, AnalyzerRemote.IsValid())
	assert.True(t, AnalyzerConsistency.IsValid())
	assert.False(t, AnalyzerBackend("").IsValid())
}

func TestRemoteSettings_IsConfigured(t *testing.T) {
	assert.False(t, RemoteSettings{}.IsConfigured())
	assert.True(t, RemoteSettings{URL: "https://qa.example.com/analyze"}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, "en", s.Analysis.Language)
	assert.Equal(t, "general", s.Analysis.Domain)
	assert.False(t, s.Analysis.Flags.Any())
	assert.Equal(t, AnalyzerLLM, s.Analyzer)
	assert.Equal(t, CacheMemory, s.Cache.Backend)
	assert.Equal(t, "localhost:6379", s.Cache.RedisAddr)
	assert.False(t, s.LLM.IsConfigured())

	e := s.Engine
	assert.Equal(t, 12000, e.SingleCallLimit)
	assert.Equal(t, 1000000, e.MaxDocumentLength)
	assert.Equal(t, 1, e.Concurrency)
	assert.Equal(t, 10000, e.SampleThreshold)
	assert.Equal(t, 3000, e.SampleSize)
	assert.InDelta(t, 30, e.FullThresholdPercent, 0)
	assert.InDelta(t, 1, e.MinorEditPercent, 0)
	assert.Equal(t, 2, e.MinorEditMaxSegments)
	assert.Equal(t, DefaultQualityWeights(), e.Weights)
}

func TestDefaultLLMModels(t *testing.T) {
	models := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, models[p], p)
	}
}
