// Package ollama runs analysis prompts against a local Ollama server.
package ollama

import (
	"context"
	"time"

	"github.com/custodia-labs/lexiq/internal/adapters/driven/llm"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "http://localhost:11434"
	DefaultLLMModel = "llama3.2"
	// CPU inference on a full chunk is slow.
	DefaultLLMTimeout = 300 * time.Second
)

// LLMConfig configures an LLMService. Zero fields take the defaults.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService implements driven.LLMService over /api/chat.
type LLMService struct {
	client *llm.Client
	model  string
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Format   string    `json:"format,omitempty"`
	Options  *options  `json:"options,omitempty"`
}

type chatResponse struct {
	Message message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

// NewLLMService returns a service. Ollama needs no credentials, so
// construction cannot fail.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		client: llm.NewClient("ollama", cfg.BaseURL, cfg.Timeout, nil),
		model:  cfg.Model,
	}
}

// Generate sends prompt as a single user message through /api/chat.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := s.request([]driven.ChatMessage{{Role: "user", Content: prompt}})
	req.Options = optionsFor(opts.MaxTokens, opts.Temperature, opts.StopWords)
	return s.chat(ctx, req)
}

// Chat sends the conversation. opts.JSON sets format "json".
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := s.request(messages)
	req.Options = optionsFor(opts.MaxTokens, opts.Temperature, nil)
	if opts.JSON {
		req.Format = "json"
	}
	return s.chat(ctx, req)
}

func (s *LLMService) request(messages []driven.ChatMessage) *chatRequest {
	req := &chatRequest{Model: s.model, Messages: make([]message, 0, len(messages))}
	for _, m := range messages {
		req.Messages = append(req.Messages, message{Role: m.Role, Content: m.Content})
	}
	return req
}

// optionsFor returns nil when everything is zero so the server's model
// defaults apply.
func optionsFor(maxTokens int, temperature float64, stop []string) *options {
	if maxTokens == 0 && temperature == 0 && len(stop) == 0 {
		return nil
	}
	return &options{NumPredict: maxTokens, Temperature: temperature, Stop: stop}
}

func (s *LLMService) chat(ctx context.Context, req *chatRequest) (string, error) {
	var resp chatResponse
	if err := s.client.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", llm.ProviderError(s.client.Provider(), resp.Error)
	}
	return resp.Message.Content, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.Get(ctx, "/api/tags")
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}
