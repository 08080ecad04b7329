package driven

import "context"

// LLMService is a chat model reached over a provider API. The LLM
// analyzer sends one Chat per chunk; Ping backs "settings validate".
//
// Errors follow the analyzer conventions: domain.ErrAnalyzerTransient for
// timeouts, 5xx and 429 (also domain.ErrRateLimited), domain.ErrLLMUnavailable
// for rejected credentials, domain.ErrMalformedResponse for bodies that do
// not decode.
type LLMService interface {
	// Generate completes a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat sends a conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping checks reachability and credentials without running inference.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a Generate call. Zero values leave the provider
// defaults in place.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}

// ChatMessage is one turn. Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a Chat call.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64

	// JSON requests a JSON object reply on providers with a JSON mode.
	// Others rely on the prompt.
	JSON bool
}
