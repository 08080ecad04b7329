package driving

import "github.com/custodia-labs/lexiq/internal/core/domain"

// SettingsService reads and edits the persisted settings behind the
// "settings" commands.
type SettingsService interface {
	// Get returns the stored settings merged over the defaults.
	Get() (*domain.AppSettings, error)

	Save(settings *domain.AppSettings) error

	// Set parses value for the dotted key and saves it. Unknown keys and
	// unparsable values are domain.ErrInvalidInput.
	Set(key, value string) error

	// SetLLMProvider switches the LLM analyzer to provider. An empty model
	// selects the provider default.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate reports the first setting that would stop an analysis.
	Validate() error

	GetDefaults() domain.AppSettings

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}
