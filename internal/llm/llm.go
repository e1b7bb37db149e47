// Package llm adapts chat-completion services (OpenAI compatible APIs,
// Ollama, Gemini) to a single Client interface used by analysis modules.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDisabled is returned by New when no LLM service is configured.
var ErrDisabled = errors.New("llm service disabled")

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client sends a conversation and returns the assistant reply.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)

	// Name identifies the service and model, e.g. "ollama:llama3".
	Name() string
}

// Services understood by New.
const (
	ServiceOpenAI = "openai"
	ServiceOllama = "ollama"
	ServiceGemini = "gemini"
	ServiceNone   = "none"
)

// Config selects and configures the service.
type Config struct {
	Service string
	Timeout time.Duration
	OpenAI  OpenAIConfig
	Ollama  OllamaConfig
	Gemini  GeminiConfig
}

// New returns the client for cfg.Service. An empty service or "none" yields
// ErrDisabled.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Service) {
	case "", ServiceNone:
		return nil, ErrDisabled
	case ServiceOpenAI:
		c, err := NewOpenAI(cfg.OpenAI, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ServiceOllama:
		return NewOllama(cfg.Ollama, cfg.Timeout), nil
	case ServiceGemini:
		c, err := NewGemini(ctx, cfg.Gemini, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm service %q", cfg.Service)
	}
}

// withTimeout applies d to ctx when ctx has no deadline of its own.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
