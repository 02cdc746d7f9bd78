package assistant

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ravix/ada/internal/action"
	"github.com/ravix/ada/internal/config"
	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
	"github.com/ravix/ada/internal/telemetry"
)

// scriptedCommands yields a fixed list of commands, then reports the context
// as done the way a real listener does on shutdown
type scriptedCommands struct {
	commands []string
	next     int
}

func (s *scriptedCommands) NextCommand(ctx context.Context) (string, error) {
	if s.next >= len(s.commands) {
		return "", context.Canceled
	}
	command := s.commands[s.next]
	s.next++
	return command, nil
}

// mapClassifier classifies by exact lookup, defaulting to Unknown
type mapClassifier map[string]intent.Intent

func (m mapClassifier) Classify(_ context.Context, prompt string) intent.Intent {
	if it, ok := m[prompt]; ok {
		return it
	}
	return intent.Unknown
}

// recordingSpeech captures everything the assistant speaks
type recordingSpeech struct {
	spoken   []string
	synthErr error
}

func (r *recordingSpeech) Synthesize(_ context.Context, text string) ([]byte, error) {
	if r.synthErr != nil {
		return nil, r.synthErr
	}
	r.spoken = append(r.spoken, text)
	return []byte("audio:" + text), nil
}

func (r *recordingSpeech) Play([]byte) error { return nil }

// stubHandler returns a fixed reply or error for one intent
type stubHandler struct {
	intent intent.Intent
	reply  string
	err    error
	calls  int
}

func (h *stubHandler) Intent() intent.Intent { return h.intent }

func (h *stubHandler) Handle(context.Context, string, []llm.Turn, *action.Context) (string, error) {
	h.calls++
	return h.reply, h.err
}

type stubText struct {
	response string
	err      error
}

func (s *stubText) Generate(context.Context, string, []llm.Turn) (string, error) {
	return s.response, s.err
}

func newTestAssistant(t *testing.T, commands []string, classes mapClassifier, handlers ...action.Handler) (*Assistant, *recordingSpeech) {
	t.Helper()

	tel, err := telemetry.NewProvider(context.Background(), telemetry.Config{})
	require.NoError(t, err)

	speech := &recordingSpeech{}
	actx := &action.Context{
		Text:          &stubText{response: "See you tomorrow!"},
		Settings:      &config.Settings{WorkingDirectory: t.TempDir()},
		AssistantName: "Ada",
		CompanionName: "Sam",
		ShellTimeout:  5 * time.Second,
	}

	a := New(
		&scriptedCommands{commands: commands},
		classes,
		action.NewRegistry(handlers...),
		actx,
		speech,
		speech,
		tel,
	)
	return a, speech
}

func TestRun_ExitEndsSessionWithFarewell(t *testing.T) {
	a, speech := newTestAssistant(t,
		[]string{"goodbye for now"},
		mapClassifier{"goodbye for now": intent.Exit},
	)

	err := a.Run(context.Background())
	require.NoError(t, err, "exit should end the loop cleanly, not via the command source")
	require.Equal(t, []string{"See you tomorrow!"}, speech.spoken)
}

func TestRun_FarewellFallsBackWhenModelFails(t *testing.T) {
	a, speech := newTestAssistant(t,
		[]string{"exit"},
		mapClassifier{"exit": intent.Exit},
	)
	a.actionCtx.Text = &stubText{err: errors.New("model down")}

	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, []string{"Goodbye."}, speech.spoken)
}

func TestRun_DispatchesAndSpeaksReply(t *testing.T) {
	h := &stubHandler{intent: intent.Question, reply: "It's 42."}
	a, speech := newTestAssistant(t,
		[]string{"what is the answer", "bye"},
		mapClassifier{"what is the answer": intent.Question, "bye": intent.Exit},
		h,
	)

	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, 1, h.calls)
	require.Equal(t, "It's 42.", speech.spoken[0])
}

func TestRun_ProviderErrorSpeaksExactlyOnceAndResumes(t *testing.T) {
	h := &stubHandler{
		intent: intent.Question,
		err:    &llm.ProviderError{Provider: "openai", Err: errors.New("429")},
	}
	a, speech := newTestAssistant(t,
		[]string{"first question", "bye"},
		mapClassifier{"first question": intent.Question, "bye": intent.Exit},
		h,
	)

	require.NoError(t, a.Run(context.Background()))

	// One spoken apology for the failed turn, then the farewell: the failure
	// must not end the session or produce a second response
	require.Len(t, speech.spoken, 2)
	require.Contains(t, speech.spoken[0], "couldn't reach the language model")
}

func TestRun_HandlerErrorIsSpokenVerbatim(t *testing.T) {
	h := &stubHandler{
		intent: intent.ShellCommand,
		err:    &action.HandlerError{Op: `command "ls /missing"`, ExitCode: 2, Output: "No such file or directory"},
	}
	a, speech := newTestAssistant(t,
		[]string{"list the missing dir", "bye"},
		mapClassifier{"list the missing dir": intent.ShellCommand, "bye": intent.Exit},
		h,
	)

	require.NoError(t, a.Run(context.Background()))
	require.Contains(t, speech.spoken[0], "No such file or directory")
}

func TestRun_UnknownIntentGetsHelpMessage(t *testing.T) {
	a, speech := newTestAssistant(t,
		[]string{"gibberish", "bye"},
		mapClassifier{"bye": intent.Exit},
	)

	require.NoError(t, a.Run(context.Background()))
	require.Contains(t, speech.spoken[0], "not sure what you'd like me to do")
}

func TestRun_EmptyCommandDoesNotConsumeATurn(t *testing.T) {
	a, _ := newTestAssistant(t,
		[]string{"", "", "bye"},
		mapClassifier{"bye": intent.Exit},
	)

	require.NoError(t, a.Run(context.Background()))

	// Only the exit command should appear in history
	history := a.History()
	require.Len(t, history, 1)
	require.Equal(t, llm.SpeakerUser, history[0].Speaker)
	require.Equal(t, "bye", history[0].Text)
}

func TestRun_HistoryRecordsBothSpeakers(t *testing.T) {
	h := &stubHandler{intent: intent.Question, reply: "It's 42."}
	a, _ := newTestAssistant(t,
		[]string{"what is the answer", "bye"},
		mapClassifier{"what is the answer": intent.Question, "bye": intent.Exit},
		h,
	)

	require.NoError(t, a.Run(context.Background()))

	history := a.History()
	require.Len(t, history, 3) // question, answer, exit command
	require.Equal(t, llm.SpeakerUser, history[0].Speaker)
	require.Equal(t, "what is the answer", history[0].Text)
	require.Equal(t, llm.SpeakerAssistant, history[1].Speaker)
	require.Equal(t, "It's 42.", history[1].Text)
}

func TestRun_SynthesisFailureKeepsLoopAlive(t *testing.T) {
	h := &stubHandler{intent: intent.Question, reply: "It's 42."}
	a, speech := newTestAssistant(t,
		[]string{"what is the answer", "bye"},
		mapClassifier{"what is the answer": intent.Question, "bye": intent.Exit},
		h,
	)
	speech.synthErr = io.ErrUnexpectedEOF

	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, 1, h.calls)
}

func TestRun_CommandSourceErrorEndsLoop(t *testing.T) {
	a, _ := newTestAssistant(t, nil, mapClassifier{})

	err := a.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}
