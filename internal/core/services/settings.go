package services

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyLanguage          = "analysis.language"
	KeyDomain            = "analysis.domain"
	KeyCheckGrammar      = "analysis.check_grammar"
	KeyCheckSpelling     = "analysis.check_spelling"
	KeySingleCallLimit   = "engine.single_call_limit"
	KeyMaxDocumentLength = "engine.max_document_length"
	KeyConcurrency       = "engine.concurrency"
	KeyRequestsPerSecond = "engine.requests_per_second"
	KeySampleThreshold   = "similarity.sample_threshold"
	KeySampleSize        = "similarity.sample_size"
	KeyFullThreshold     = "policy.full_threshold_percent"
	KeyMinorEditPercent  = "policy.minor_edit_percent"
	KeyMinorEditSegments = "policy.minor_edit_max_segments"
	KeyMinorEditRunes    = "policy.minor_edit_max_runes"
	KeyWeightValid       = "quality.weight_valid"
	KeyWeightReview      = "quality.weight_review"
	KeyWeightCritical    = "quality.weight_critical"
	KeyWeightSpelling    = "quality.weight_spelling"
	KeyWeightGrammar     = "quality.weight_grammar"
	KeyCacheBackend      = "cache.backend"
	KeyCacheMaxEntries   = "cache.max_entries"
	KeyCacheRedisAddr    = "cache.redis_addr"
	KeyAnalyzerBackend   = "analyzer.backend"
	KeyRemoteURL         = "remote.url"
	KeyRemoteAPIKey      = "remote.api_key"
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMBaseURL        = "llm.base_url"
	KeyLLMAPIKey         = "llm.api_key"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKinds lists every settable key with its value type.
var settingKinds = map[string]keyKind{
	KeyLanguage:          kindString,
	KeyDomain:            kindString,
	KeyCheckGrammar:      kindBool,
	KeyCheckSpelling:     kindBool,
	KeySingleCallLimit:   kindInt,
	KeyMaxDocumentLength: kindInt,
	KeyConcurrency:       kindInt,
	KeyRequestsPerSecond: kindFloat,
	KeySampleThreshold:   kindInt,
	KeySampleSize:        kindInt,
	KeyFullThreshold:     kindFloat,
	KeyMinorEditPercent:  kindFloat,
	KeyMinorEditSegments: kindInt,
	KeyMinorEditRunes:    kindInt,
	KeyWeightValid:       kindFloat,
	KeyWeightReview:      kindFloat,
	KeyWeightCritical:    kindFloat,
	KeyWeightSpelling:    kindFloat,
	KeyWeightGrammar:     kindFloat,
	KeyCacheBackend:      kindString,
	KeyCacheMaxEntries:   kindInt,
	KeyCacheRedisAddr:    kindString,
	KeyAnalyzerBackend:   kindString,
	KeyRemoteURL:         kindString,
	KeyRemoteAPIKey:      kindString,
	KeyLLMProvider:       kindString,
	KeyLLMModel:          kindString,
	KeyLLMBaseURL:        kindString,
	KeyLLMAPIKey:         kindString,
}

// SettingKeys returns every settable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	de := defaults.Engine

	settings := &domain.AppSettings{
		Analysis: domain.AnalysisSettings{
			Language: s.getString(KeyLanguage, defaults.Analysis.Language),
			Domain:   s.getString(KeyDomain, defaults.Analysis.Domain),
			Flags: domain.CheckFlags{
				Grammar:  s.getBool(KeyCheckGrammar, defaults.Analysis.Flags.Grammar),
				Spelling: s.getBool(KeyCheckSpelling, defaults.Analysis.Flags.Spelling),
			},
		},
		Engine: domain.EngineSettings{
			SingleCallLimit:      s.getInt(KeySingleCallLimit, de.SingleCallLimit),
			MaxDocumentLength:    s.getInt(KeyMaxDocumentLength, de.MaxDocumentLength),
			Concurrency:          s.getInt(KeyConcurrency, de.Concurrency),
			RequestsPerSecond:    s.getFloat(KeyRequestsPerSecond, de.RequestsPerSecond),
			SampleThreshold:      s.getInt(KeySampleThreshold, de.SampleThreshold),
			SampleSize:           s.getInt(KeySampleSize, de.SampleSize),
			FullThresholdPercent: s.getFloat(KeyFullThreshold, de.FullThresholdPercent),
			MinorEditPercent:     s.getFloat(KeyMinorEditPercent, de.MinorEditPercent),
			MinorEditMaxSegments: s.getInt(KeyMinorEditSegments, de.MinorEditMaxSegments),
			MinorEditMaxRunes:    s.getInt(KeyMinorEditRunes, de.MinorEditMaxRunes),
			Weights: domain.QualityWeights{
				Valid:    s.getFloat(KeyWeightValid, de.Weights.Valid),
				Review:   s.getFloat(KeyWeightReview, de.Weights.Review),
				Critical: s.getFloat(KeyWeightCritical, de.Weights.Critical),
				Spelling: s.getFloat(KeyWeightSpelling, de.Weights.Spelling),
				Grammar:  s.getFloat(KeyWeightGrammar, de.Weights.Grammar),
			},
		},
		Cache: domain.CacheSettings{
			Backend:    s.getCacheBackend(defaults.Cache.Backend),
			MaxEntries: s.getInt(KeyCacheMaxEntries, defaults.Cache.MaxEntries),
			RedisAddr:  s.getString(KeyCacheRedisAddr, defaults.Cache.RedisAddr),
		},
		Analyzer: s.getAnalyzerBackend(defaults.Analyzer),
		LLM: domain.LLMSettings{
			Provider: s.getProvider(KeyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(KeyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(KeyLLMAPIKey),
		},
		Remote: domain.RemoteSettings{
			URL:    s.configStore.GetString(KeyRemoteURL),
			APIKey: s.configStore.GetString(KeyRemoteAPIKey),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	e := settings.Engine
	values := []struct {
		key   string
		value any
	}{
		{KeyLanguage, settings.Analysis.Language},
		{KeyDomain, settings.Analysis.Domain},
		{KeyCheckGrammar, settings.Analysis.Flags.Grammar},
		{KeyCheckSpelling, settings.Analysis.Flags.Spelling},
		{KeySingleCallLimit, e.SingleCallLimit},
		{KeyMaxDocumentLength, e.MaxDocumentLength},
		{KeyConcurrency, e.Concurrency},
		{KeyRequestsPerSecond, e.RequestsPerSecond},
		{KeySampleThreshold, e.SampleThreshold},
		{KeySampleSize, e.SampleSize},
		{KeyFullThreshold, e.FullThresholdPercent},
		{KeyMinorEditPercent, e.MinorEditPercent},
		{KeyMinorEditSegments, e.MinorEditMaxSegments},
		{KeyMinorEditRunes, e.MinorEditMaxRunes},
		{KeyWeightValid, e.Weights.Valid},
		{KeyWeightReview, e.Weights.Review},
		{KeyWeightCritical, e.Weights.Critical},
		{KeyWeightSpelling, e.Weights.Spelling},
		{KeyWeightGrammar, e.Weights.Grammar},
		{KeyCacheBackend, settings.Cache.Backend.String()},
		{KeyCacheMaxEntries, settings.Cache.MaxEntries},
		{KeyCacheRedisAddr, settings.Cache.RedisAddr},
		{KeyAnalyzerBackend, settings.Analyzer.String()},
		{KeyRemoteURL, settings.Remote.URL},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present so a save never wipes them.
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(KeyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	if settings.Remote.APIKey != "" {
		if err := s.configStore.Set(KeyRemoteAPIKey, settings.Remote.APIKey); err != nil {
			return fmt.Errorf("save remote api_key: %w", err)
		}
	}

	return nil
}

// Set updates a single setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	default:
		if err := validateChoice(key, value); err != nil {
			return err
		}
		parsed = value
	}

	return s.configStore.Set(key, parsed)
}

func validateChoice(key, value string) error {
	switch key {
	case KeyCacheBackend:
		if !domain.CacheBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid cache backend: %s", domain.ErrInvalidInput, value)
		}
	case KeyAnalyzerBackend:
		if !domain.AnalyzerBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid analyzer backend: %s", domain.ErrInvalidInput, value)
		}
	case KeyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, value)
		}
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey
	settings.Analyzer = domain.AnalyzerLLM

	return s.Save(settings)
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	e := settings.Engine

	if e.SingleCallLimit <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, KeySingleCallLimit)
	}
	if e.MaxDocumentLength < e.SingleCallLimit {
		return fmt.Errorf("%w: %s must be at least %s", domain.ErrInvalidInput, KeyMaxDocumentLength, KeySingleCallLimit)
	}
	if e.SampleSize > e.SampleThreshold {
		return fmt.Errorf("%w: %s must not exceed %s", domain.ErrInvalidInput, KeySampleSize, KeySampleThreshold)
	}
	if e.FullThresholdPercent <= 0 || e.FullThresholdPercent > 100 {
		return fmt.Errorf("%w: %s must be in (0, 100]", domain.ErrInvalidInput, KeyFullThreshold)
	}

	switch settings.Analyzer {
	case domain.AnalyzerLLM:
		if !settings.LLM.IsConfigured() {
			return fmt.Errorf("%w: analyzer %q requires an LLM provider (run 'lexiq settings llm')",
				domain.ErrLLMUnavailable, settings.Analyzer)
		}
	case domain.AnalyzerRemote:
		if !settings.Remote.IsConfigured() {
			return fmt.Errorf("%w: analyzer %q requires %s", domain.ErrAnalyzerUnavailable, settings.Analyzer, KeyRemoteURL)
		}
		if s.aiValidator != nil {
			if err := s.aiValidator.ValidateRemote(&settings.Remote); err != nil {
				return err
			}
		}
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	backend := domain.CacheBackend(s.configStore.GetString(KeyCacheBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getAnalyzerBackend(defaultVal domain.AnalyzerBackend) domain.AnalyzerBackend {
	backend := domain.AnalyzerBackend(s.configStore.GetString(KeyAnalyzerBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
