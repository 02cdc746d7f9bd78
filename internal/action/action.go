// Package action provides the assistant's action handlers and dispatch.
package action

import (
	"context"
	"fmt"
	"time"

	"github.com/ravix/ada/internal/config"
	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
)

// HandlerError indicates that an action's side effect failed: a shell
// command exited non-zero, a file could not be written, and so on. It is
// recoverable and its message is reported verbatim to the user.
type HandlerError struct {
	Op       string
	ExitCode int
	Output   string
	Err      error
}

func (e *HandlerError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed (exit %d): %s", e.Op, e.ExitCode, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// TextGenerator generates free-form text with conversation context.
// Satisfied by llm.Gateway.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, history []llm.Turn) (string, error)
}

// JSONGenerator generates a JSON-constrained response
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, instructions string, prompt string) (string, error)
}

// VisionGenerator generates a JSON-constrained response from a prompt plus
// a local image
type VisionGenerator interface {
	GenerateVisionJSON(ctx context.Context, instructions string, prompt string, imagePath string) (string, error)
}

// Context provides the collaborators handlers need during execution
type Context struct {
	Text   TextGenerator
	JSON   JSONGenerator
	Vision VisionGenerator

	Settings     *config.Settings
	SettingsPath string

	AssistantName string
	CompanionName string
	ShellTimeout  time.Duration

	// OnSettingsChanged is invoked after the configure workflow persists new
	// settings, so live components can pick up the new model and voice
	OnSettingsChanged func(*config.Settings)
}

// personaHead is the shared prompt prefix establishing the assistant's tone
func (c *Context) personaHead() string {
	return fmt.Sprintf(`You are a friendly, ultra helpful, attentive, concise AI assistant named '%s'.
You work with your human companion '%s' to build valuable experience through software.
We both like short, concise, back-and-forth conversations.`, c.AssistantName, c.CompanionName)
}

// Feedback asks the model to phrase a status message in the assistant's
// voice. Used for intermediate spoken updates during multi-step workflows.
func (c *Context) Feedback(ctx context.Context, message string) string {
	prompt := fmt.Sprintf("%s\nConcisely communicate the following message to your human companion: '%s'", c.personaHead(), message)
	response, err := c.Text.Generate(ctx, prompt, nil)
	if err != nil {
		// Status messages are best-effort; fall back to the literal text
		return message
	}
	return response
}

// Handler executes one intent's workflow and returns the text to speak
type Handler interface {
	Intent() intent.Intent
	Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error)
}

// Registry maps intents to their handlers
type Registry struct {
	handlers map[intent.Intent]Handler
}

// NewRegistry creates a registry with the given handlers
func NewRegistry(handlers ...Handler) *Registry {
	registry := &Registry{handlers: make(map[intent.Intent]Handler)}
	for _, h := range handlers {
		registry.handlers[h.Intent()] = h
	}
	return registry
}

// Dispatch runs the handler registered for the intent
func (r *Registry) Dispatch(ctx context.Context, it intent.Intent, utterance string, history []llm.Turn, actx *Context) (string, error) {
	handler, ok := r.handlers[it]
	if !ok {
		return "", fmt.Errorf("no handler for intent %q", it)
	}
	return handler.Handle(ctx, utterance, history, actx)
}

// Handles reports whether a handler is registered for the intent
func (r *Registry) Handles(it intent.Intent) bool {
	_, ok := r.handlers[it]
	return ok
}
