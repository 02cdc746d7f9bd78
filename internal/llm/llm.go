// Package llm provides a gateway over the hosted language model providers.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Speaker identifies who produced a conversation turn
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single utterance in the session's conversation history
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryWindow bounds how many prior turns are sent to a provider. Without
// a bound the prompt grows for the lifetime of the session.
const HistoryWindow = 10

// ProviderError indicates that a hosted model call failed: network failure,
// quota exceeded, or a malformed response. It is recoverable; the assistant
// apologizes and the loop continues.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider generates text from a prompt plus bounded prior conversation
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, history []Turn) (string, error)
}

// Gateway routes generation requests to the provider selected by the model
// choice. Exactly one call is in flight per turn; there is no retry policy
// beyond the transport's rate-limit handling.
type Gateway struct {
	providers map[string]Provider
	model     string
	timeout   time.Duration
}

// NewGateway creates a gateway with the given providers, keyed by the model
// prefix they serve ("gpt", "gemini", "claude")
func NewGateway(model string, timeout time.Duration, providers ...Provider) *Gateway {
	byName := make(map[string]Provider)
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Gateway{
		providers: byName,
		model:     model,
		timeout:   timeout,
	}
}

// SetModel switches the default model choice. Called by the configure
// workflow when the settings file changes mid-session.
func (g *Gateway) SetModel(model string) { g.model = model }

// Model returns the current model choice
func (g *Gateway) Model() string { return g.model }

// Generate sends the prompt to the provider for the current model choice,
// with the most recent HistoryWindow turns as context
func (g *Gateway) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	return g.GenerateWith(ctx, g.model, prompt, history)
}

// GenerateWith is Generate with an explicit model choice
func (g *Gateway) GenerateWith(ctx context.Context, model string, prompt string, history []Turn) (string, error) {
	provider, err := g.providerFor(model)
	if err != nil {
		return "", err
	}

	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := provider.Generate(ctx, prompt, history)
	if err != nil {
		return "", &ProviderError{Provider: provider.Name(), Err: err}
	}
	return text, nil
}

func (g *Gateway) providerFor(model string) (Provider, error) {
	var name string
	switch {
	case strings.HasPrefix(model, "gpt"):
		name = "openai"
	case strings.HasPrefix(model, "gemini"):
		name = "gemini"
	case strings.HasPrefix(model, "claude"):
		name = "anthropic"
	default:
		return nil, &ProviderError{Provider: model, Err: fmt.Errorf("no provider for model choice %q", model)}
	}

	provider, ok := g.providers[name]
	if !ok {
		return nil, &ProviderError{Provider: name, Err: fmt.Errorf("provider not configured")}
	}
	return provider, nil
}
