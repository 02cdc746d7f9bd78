// Package assistant provides the core listen, classify, act, speak loop.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ravix/ada/internal/action"
	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
	"github.com/ravix/ada/internal/parse"
	"github.com/ravix/ada/internal/speech"
	"github.com/ravix/ada/internal/telemetry"
)

// CommandSource yields wake-word-prefixed user commands. Satisfied by
// speech.Listener.
type CommandSource interface {
	NextCommand(ctx context.Context) (string, error)
}

// Classifier resolves an utterance to an intent. Satisfied by
// intent.Classifier.
type Classifier interface {
	Classify(ctx context.Context, prompt string) intent.Intent
}

// Assistant orchestrates the conversation: it waits for the wake word,
// classifies the command, dispatches to the matching handler, and speaks
// the result. Turns are strictly sequential; at most one model call is in
// flight at a time.
type Assistant struct {
	commands   CommandSource
	classifier Classifier
	registry   *action.Registry
	actionCtx  *action.Context

	synthesizer speech.Synthesizer
	player      speech.Player

	telemetry *telemetry.Provider
	sessionID string

	// history is append-only for the session and discarded at exit
	history []llm.Turn
}

// New creates an Assistant
func New(
	commands CommandSource,
	classifier Classifier,
	registry *action.Registry,
	actionCtx *action.Context,
	synthesizer speech.Synthesizer,
	player speech.Player,
	tel *telemetry.Provider,
) *Assistant {
	return &Assistant{
		commands:    commands,
		classifier:  classifier,
		registry:    registry,
		actionCtx:   actionCtx,
		synthesizer: synthesizer,
		player:      player,
		telemetry:   tel,
		sessionID:   telemetry.NewSessionID(),
	}
}

// Run processes turns until the exit intent is recognized or the context is
// cancelled. Per-turn failures are converted into spoken responses; only a
// broken audio device or cancellation end the loop with an error.
func (a *Assistant) Run(ctx context.Context) error {
	log.Printf("Assistant ready, session %s", a.sessionID)

	for turnIndex := 0; ; turnIndex++ {
		command, err := a.commands.NextCommand(ctx)
		if err != nil {
			return err
		}
		if command == "" {
			// Wake word alone; wait for a real command without consuming a turn
			continue
		}

		turnStart := time.Now()
		turnCtx, span := a.telemetry.StartTurn(ctx, a.sessionID, turnIndex)

		done, err := a.processTurn(turnCtx, command)
		span.End()
		log.Printf("Interaction time: %.1fs", time.Since(turnStart).Seconds())

		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// processTurn handles one classified command. It returns done=true when the
// exit intent ends the session.
func (a *Assistant) processTurn(ctx context.Context, command string) (bool, error) {
	classifyCtx, span := a.telemetry.StartStep(ctx, "classify")
	it := a.classifier.Classify(classifyCtx, command)
	span.End()
	log.Printf("Classified %q as %s", command, it)

	a.appendTurn(llm.SpeakerUser, command)

	if it == intent.Exit {
		a.say(ctx, a.farewell(ctx, command))
		return true, nil
	}

	reply := a.executeIntent(ctx, it, command)
	a.say(ctx, reply)
	a.appendTurn(llm.SpeakerAssistant, reply)
	return false, nil
}

func (a *Assistant) executeIntent(ctx context.Context, it intent.Intent, command string) string {
	if it == intent.Unknown || !a.registry.Handles(it) {
		return "Sorry, I'm not sure what you'd like me to do. You can ask a question, run a shell command, generate example code, build a component from an image, or configure me."
	}

	dispatchCtx, span := a.telemetry.StartStep(ctx, "dispatch")
	defer span.End()

	reply, err := a.registry.Dispatch(dispatchCtx, it, command, a.history, a.actionCtx)
	if err != nil {
		// Exactly one spoken response per failed turn
		return spokenError(err)
	}
	return reply
}

// spokenError converts a per-turn failure into the single spoken response
// for that turn
func spokenError(err error) string {
	var providerErr *llm.ProviderError
	var parseErr *parse.ParseError
	var handlerErr *action.HandlerError
	switch {
	case errors.As(err, &providerErr):
		log.Printf("Provider failure: %v", providerErr)
		return "I'm sorry, I couldn't reach the language model. Let's try that again in a moment."
	case errors.As(err, &parseErr):
		log.Printf("Parse failure: %v", parseErr)
		return "I'm sorry, the model's reply wasn't in a shape I could use. Could you rephrase the request?"
	case errors.As(err, &handlerErr):
		return fmt.Sprintf("I hit a problem carrying that out: %s", handlerErr.Error())
	default:
		log.Printf("Unexpected turn failure: %v", err)
		return "I'm sorry, something went wrong with that request."
	}
}

func (a *Assistant) farewell(ctx context.Context, command string) string {
	prompt := fmt.Sprintf(`We're wrapping up our work for the day. You're a great engineering partner.
Respond briefly to your human companion's closing thoughts: %s`, command)
	reply, err := a.actionCtx.Text.Generate(ctx, prompt, a.history)
	if err != nil {
		return "Goodbye."
	}
	return reply
}

// say synthesizes and plays the reply, blocking until playback completes.
// Speech output failures are logged and the text falls through to the log,
// keeping the loop alive.
func (a *Assistant) say(ctx context.Context, text string) {
	if text == "" {
		return
	}
	speakCtx, span := a.telemetry.StartStep(ctx, "speak")
	defer span.End()

	audio, err := a.synthesizer.Synthesize(speakCtx, text)
	if err != nil {
		log.Printf("Speech synthesis failed: %v; reply was: %s", err, text)
		return
	}
	if err := a.player.Play(audio); err != nil {
		log.Printf("Playback failed: %v; reply was: %s", err, text)
	}
}

func (a *Assistant) appendTurn(speaker llm.Speaker, text string) {
	a.history = append(a.history, llm.Turn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// History returns the session's conversation turns
func (a *Assistant) History() []llm.Turn {
	return a.history
}
