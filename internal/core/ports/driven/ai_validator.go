package driven

import "github.com/custodia-labs/lexiq/internal/core/domain"

// AIConfigValidator checks analyzer backend configurations before they are
// used for an analysis run.
type AIConfigValidator interface {
	// ValidateLLM pings the configured chat-model provider.
	// Returns nil if configuration is valid or not configured.
	ValidateLLM(config *domain.LLMSettings) error

	// ValidateRemote checks the remote analyzer endpoint without
	// submitting any text. Returns nil when no URL is configured.
	ValidateRemote(config *domain.RemoteSettings) error
}
