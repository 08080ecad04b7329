package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for the LLM analyzer.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AnalyzerBackend selects the external analyzer implementation.
type AnalyzerBackend string

// Available analyzer backends.
const (
	// AnalyzerLLM prompts a chat model directly.
	AnalyzerLLM AnalyzerBackend = "llm"

	// AnalyzerRemote calls a hosted analysis service over HTTP.
	AnalyzerRemote AnalyzerBackend = "remote"

	// AnalyzerConsistency runs rule-based checks locally, without a model.
	AnalyzerConsistency AnalyzerBackend = "consistency"
)

// IsValid returns true if the backend is recognised.
func (b AnalyzerBackend) IsValid() bool {
	return b == AnalyzerLLM || b == AnalyzerRemote || b == AnalyzerConsistency
}

// String returns the string representation.
func (b AnalyzerBackend) String() string {
	return string(b)
}

// CacheBackend selects where analysis results persist beyond memory.
type CacheBackend string

// Available cache backends.
const (
	// CacheMemory keeps results in process memory only.
	CacheMemory CacheBackend = "memory"

	// CacheSQLite persists results to a local database.
	CacheSQLite CacheBackend = "sqlite"

	// CacheRedis shares results through a Redis server.
	CacheRedis CacheBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheMemory, CacheSQLite, CacheRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b CacheBackend) Description() string {
	switch b {
	case CacheMemory:
		return "Memory (process lifetime)"
	case CacheSQLite:
		return "SQLite (local, survives restarts)"
	case CacheRedis:
		return "Redis (shared between processes)"
	default:
		return unknownDescription
	}
}

// AnalysisSettings are the default analysis parameters.
type AnalysisSettings struct {
	Language string
	Domain   string
	Flags    CheckFlags
}

// EngineSettings tune the re-analysis engine.
type EngineSettings struct {
	// SingleCallLimit is the largest text, in runes, sent in one analyzer call.
	SingleCallLimit int

	// MaxDocumentLength is the absolute ceiling on document length in runes.
	MaxDocumentLength int

	// Concurrency bounds in-flight chunk calls. 1 means strictly sequential.
	Concurrency int

	// RequestsPerSecond limits analyzer calls. 0 disables limiting.
	RequestsPerSecond float64

	// SampleThreshold is the input length above which similarity is sampled.
	SampleThreshold int

	// SampleSize is the total sample length used above the threshold.
	SampleSize int

	// FullThresholdPercent routes edits at or above this change to a full pass.
	FullThresholdPercent float64

	// MinorEditPercent bounds the change share of a minor edit.
	MinorEditPercent float64

	// MinorEditMaxSegments bounds the segment count of a minor edit.
	MinorEditMaxSegments int

	// MinorEditMaxRunes bounds the runes touched by a minor edit.
	MinorEditMaxRunes int

	// Weights feed the quality score.
	Weights QualityWeights
}

// DefaultEngineSettings returns the stock engine tuning.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		SingleCallLimit:      12000,
		MaxDocumentLength:    1000000,
		Concurrency:          1,
		RequestsPerSecond:    0,
		SampleThreshold:      10000,
		SampleSize:           3000,
		FullThresholdPercent: 30,
		MinorEditPercent:     1,
		MinorEditMaxSegments: 2,
		MinorEditMaxRunes:    10,
		Weights:              DefaultQualityWeights(),
	}
}

// CacheSettings configure the result cache.
type CacheSettings struct {
	// Backend selects the persistent layer behind the memory cache.
	Backend CacheBackend

	// MaxEntries bounds the memory cache. 0 means unbounded.
	MaxEntries int

	// RedisAddr is the Redis server address.
	RedisAddr string
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RemoteSettings configure the hosted analysis service.
type RemoteSettings struct {
	// URL is the analysis endpoint.
	URL string

	// APIKey is sent as a bearer token when set.
	APIKey string
}

// IsConfigured returns true if the remote endpoint is set.
func (r RemoteSettings) IsConfigured() bool {
	return r.URL != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Analysis holds default analysis parameters.
	Analysis AnalysisSettings

	// Engine holds engine tuning.
	Engine EngineSettings

	// Cache holds cache configuration.
	Cache CacheSettings

	// Analyzer selects the analyzer backend.
	Analyzer AnalyzerBackend

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Remote holds hosted analyzer settings.
	Remote RemoteSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM provider is left unconfigured; users set it via `lexiq settings set`.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Analysis: AnalysisSettings{
			Language: "en",
			Domain:   "general",
		},
		Engine: DefaultEngineSettings(),
		Cache: CacheSettings{
			Backend:   CacheMemory,
			RedisAddr: "localhost:6379",
		},
		Analyzer: AnalyzerLLM,
		LLM:      LLMSettings{},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllCacheBackends returns every cache backend.
func AllCacheBackends() []CacheBackend {
	return []CacheBackend{CacheMemory, CacheSQLite, CacheRedis}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
