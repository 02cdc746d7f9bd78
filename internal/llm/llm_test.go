package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeProvider struct {
	name     string
	response string
	err      error

	calls     int
	lastWin   []Turn
	sawCancel bool
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	f.calls++
	f.lastWin = history
	if _, ok := ctx.Deadline(); ok {
		f.sawCancel = true
	}
	return f.response, f.err
}

func makeHistory(n int) []Turn {
	history := make([]Turn, n)
	for i := range history {
		speaker := SpeakerUser
		if i%2 == 1 {
			speaker = SpeakerAssistant
		}
		history[i] = Turn{Speaker: speaker, Text: fmt.Sprintf("turn %d", i), Timestamp: time.Now()}
	}
	return history
}

func TestGateway_RoutesByModelPrefix(t *testing.T) {
	openai := &fakeProvider{name: "openai", response: "from openai"}
	gemini := &fakeProvider{name: "gemini", response: "from gemini"}
	anthropic := &fakeProvider{name: "anthropic", response: "from anthropic"}
	g := NewGateway("gpt-4o", time.Minute, openai, gemini, anthropic)

	cases := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "from openai"},
		{"gemini-1.5-pro", "from gemini"},
		{"claude-3-5-sonnet-20241022", "from anthropic"},
	}
	for _, tc := range cases {
		got, err := g.GenerateWith(context.Background(), tc.model, "hi", nil)
		if err != nil {
			t.Fatalf("GenerateWith(%q): %v", tc.model, err)
		}
		if got != tc.want {
			t.Errorf("GenerateWith(%q) = %q, want %q", tc.model, got, tc.want)
		}
	}
}

func TestGateway_HistoryWindowBound(t *testing.T) {
	provider := &fakeProvider{name: "openai", response: "ok"}
	g := NewGateway("gpt-4o", time.Minute, provider)

	if _, err := g.Generate(context.Background(), "hi", makeHistory(HistoryWindow*3)); err != nil {
		t.Fatal(err)
	}
	if len(provider.lastWin) != HistoryWindow {
		t.Fatalf("provider received %d turns, want %d", len(provider.lastWin), HistoryWindow)
	}
	// The window keeps the most recent turns
	last := provider.lastWin[len(provider.lastWin)-1]
	if last.Text != fmt.Sprintf("turn %d", HistoryWindow*3-1) {
		t.Errorf("window dropped the newest turn, got %q", last.Text)
	}
}

func TestGateway_ShortHistoryPassedWhole(t *testing.T) {
	provider := &fakeProvider{name: "openai", response: "ok"}
	g := NewGateway("gpt-4o", time.Minute, provider)

	if _, err := g.Generate(context.Background(), "hi", makeHistory(3)); err != nil {
		t.Fatal(err)
	}
	if len(provider.lastWin) != 3 {
		t.Fatalf("provider received %d turns, want 3", len(provider.lastWin))
	}
}

func TestGateway_WrapsFailuresInProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	provider := &fakeProvider{name: "openai", err: cause}
	g := NewGateway("gpt-4o", time.Minute, provider)

	_, err := g.Generate(context.Background(), "hi", nil)

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if providerErr.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", providerErr.Provider)
	}
	if !errors.Is(err, cause) {
		t.Error("ProviderError should unwrap to the underlying cause")
	}
}

func TestGateway_UnknownModelChoice(t *testing.T) {
	g := NewGateway("gpt-4o", time.Minute, &fakeProvider{name: "openai"})

	_, err := g.GenerateWith(context.Background(), "llama-3", "hi", nil)
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
}

func TestGateway_UnconfiguredProvider(t *testing.T) {
	g := NewGateway("gpt-4o", time.Minute, &fakeProvider{name: "openai"})

	_, err := g.GenerateWith(context.Background(), "claude-3-5-sonnet-20241022", "hi", nil)
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
}

func TestGateway_SetModelSwitchesRouting(t *testing.T) {
	openai := &fakeProvider{name: "openai", response: "from openai"}
	gemini := &fakeProvider{name: "gemini", response: "from gemini"}
	g := NewGateway("gpt-4o", time.Minute, openai, gemini)

	g.SetModel("gemini-1.5-pro")
	got, err := g.Generate(context.Background(), "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "from gemini" {
		t.Errorf("Generate after SetModel = %q, want from gemini", got)
	}
	if g.Model() != "gemini-1.5-pro" {
		t.Errorf("Model() = %q", g.Model())
	}
}

func TestGateway_AppliesTimeout(t *testing.T) {
	provider := &fakeProvider{name: "openai", response: "ok"}
	g := NewGateway("gpt-4o", time.Minute, provider)

	if _, err := g.Generate(context.Background(), "hi", nil); err != nil {
		t.Fatal(err)
	}
	if !provider.sawCancel {
		t.Error("provider context should carry a deadline")
	}
}
