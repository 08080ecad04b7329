package ai

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates analyzer backend configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new analyzer config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateLLM validates an LLM configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}

// ValidateRemote requires an absolute http(s) URL. Credentials must go in
// remote.api_key, never in the URL.
func (v *ConfigValidator) ValidateRemote(config *domain.RemoteSettings) error {
	if config == nil || strings.TrimSpace(config.URL) == "" {
		return nil
	}

	u, err := url.Parse(config.URL)
	if err != nil {
		return fmt.Errorf("%w: remote.url: %v", domain.ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: remote.url must use http or https, got %q", domain.ErrInvalidInput, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: remote.url has no host", domain.ErrInvalidInput)
	}
	if u.User != nil {
		return fmt.Errorf("%w: remote.url must not embed credentials, use remote.api_key", domain.ErrInvalidInput)
	}
	return nil
}
