package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/lexiq/internal/core/domain"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		transient   bool
		rateLimited bool
		unavailable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true, true, false},
		{"server error", http.StatusBadGateway, true, false, false},
		{"timeout", http.StatusRequestTimeout, true, false, false},
		{"unauthorised", http.StatusUnauthorized, false, false, true},
		{"forbidden", http.StatusForbidden, false, false, true},
		{"bad request", http.StatusBadRequest, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StatusError("openai", tt.status, []byte(`{"error":"x"}`))

			assert.Error(t, err)
			assert.Equal(t, tt.transient, domain.IsTransient(err))
			assert.Equal(t, tt.rateLimited, errors.Is(err, domain.ErrRateLimited))
			assert.Equal(t, tt.unavailable, errors.Is(err, domain.ErrLLMUnavailable))
			assert.Contains(t, err.Error(), "openai")
		})
	}
}

func TestStatusError_TruncatesBody(t *testing.T) {
	err := StatusError("ollama", http.StatusBadRequest, []byte(strings.Repeat("x", 2000)))

	assert.Less(t, len(err.Error()), 600)
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
}

func TestTransportError(t *testing.T) {
	cancelled := TransportError("anthropic", context.Canceled)
	assert.ErrorIs(t, cancelled, context.Canceled)
	assert.False(t, domain.IsTransient(cancelled))

	deadline := TransportError("anthropic", context.DeadlineExceeded)
	assert.True(t, domain.IsTransient(deadline))

	netErr := TransportError("anthropic", &net.OpError{Op: "dial", Err: errors.New("connection refused")})
	assert.True(t, domain.IsTransient(netErr))

	other := TransportError("anthropic", errors.New("unsupported protocol scheme"))
	assert.False(t, domain.IsTransient(other))
}

func TestDecodeError(t *testing.T) {
	err := DecodeError("openai", errors.New("unexpected end of JSON input"))

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
