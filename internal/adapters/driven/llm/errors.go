// Package llm holds behaviour shared by the chat-completion adapters in its
// subpackages: mapping HTTP and transport failures onto domain errors.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

// maxBodyInError bounds how much of a response body is quoted in errors.
const maxBodyInError = 512

// StatusError converts a non-2xx response into an error.
// 429 is transient and rate limited; 408 and 5xx are transient;
// 401 and 403 mean the provider is unusable with the configured credentials.
func StatusError(provider string, status int, body []byte) error {
	msg := string(body)
	if len(msg) > maxBodyInError {
		msg = msg[:maxBodyInError] + "..."
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %w (status %d)", provider, domain.ErrAnalyzerTransient, domain.ErrRateLimited, status)
	case status == http.StatusRequestTimeout || status >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrAnalyzerTransient, status, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrLLMUnavailable, status, msg)
	default:
		return fmt.Errorf("%s: API returned status %d: %s", provider, status, msg)
	}
}

// TransportError converts a failed round trip into an error.
// Cancellation is passed through; timeouts and network failures are transient.
func TransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	var (
		netErr net.Error
		opErr  *net.OpError
	)
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) || errors.As(err, &opErr) {
		return fmt.Errorf("%s: %w: %w", provider, domain.ErrAnalyzerTransient, err)
	}
	return fmt.Errorf("%s: send request: %w", provider, err)
}

// DecodeError reports a response body that could not be decoded.
func DecodeError(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, domain.ErrMalformedResponse, err)
}
