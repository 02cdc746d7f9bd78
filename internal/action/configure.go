package action

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ravix/ada/internal/config"
	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
)

// ConfigureHandler opens the settings file in the user's editor, waits for
// it to close, reloads the settings, and reports what changed. This is the
// only handler that mutates the shared configuration.
type ConfigureHandler struct {
	// editor overrides $EDITOR, for tests
	editor string
}

func NewConfigureHandler() *ConfigureHandler { return &ConfigureHandler{} }

func (h *ConfigureHandler) Intent() intent.Intent { return intent.Configure }

func (h *ConfigureHandler) Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error) {
	previous := *actx.Settings

	if err := h.editSettings(ctx, actx.SettingsPath); err != nil {
		return "", err
	}

	updated, err := config.LoadSettings(actx.SettingsPath)
	if err != nil {
		return "", &HandlerError{Op: "reloading settings", Err: err}
	}
	*actx.Settings = *updated

	if actx.OnSettingsChanged != nil {
		actx.OnSettingsChanged(actx.Settings)
	}

	changes := describeChanges(previous, *updated)
	if changes == "" {
		return actx.Feedback(ctx, "No settings were changed."), nil
	}
	return actx.Feedback(ctx, "Settings updated: "+changes), nil
}

func (h *ConfigureHandler) editSettings(ctx context.Context, path string) error {
	if err := openInEditor(ctx, h.editor, path); err != nil {
		return &HandlerError{Op: "opening settings editor", Err: err}
	}
	return nil
}

// openInEditor opens the file in the user's editor and blocks until the
// editor exits. An empty editor argument falls back to $EDITOR, then vi.
func openInEditor(ctx context.Context, editor string, path string) error {
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func describeChanges(before config.Settings, after config.Settings) string {
	var changes []string
	if before.WorkingDirectory != after.WorkingDirectory {
		changes = append(changes, fmt.Sprintf("working directory is now %s", after.WorkingDirectory))
	}
	if before.Model != after.Model {
		changes = append(changes, fmt.Sprintf("model is now %s", after.Model))
	}
	if before.VoiceID != after.VoiceID {
		changes = append(changes, "the voice changed")
	}
	return strings.Join(changes, ", ")
}
