package action

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
	"github.com/ravix/ada/internal/parse"
)

// ShellCommandHandler turns a spoken request into a shell command, runs it,
// and reports the captured output. The model's command is executed verbatim;
// there is no sandboxing, which is a stated trust boundary of the system.
type ShellCommandHandler struct{}

func NewShellCommandHandler() *ShellCommandHandler { return &ShellCommandHandler{} }

func (h *ShellCommandHandler) Intent() intent.Intent { return intent.ShellCommand }

const shellInstructions = `You translate a spoken request into a single shell command for a POSIX shell.
Respond in this JSON format exclusively: {"bash_command_to_run": ""}.
Exclude any new lines or code blocks from the command. Respond with exclusively JSON.
Your command will be immediately run and the output will be returned to the user.`

type shellCommandResponse struct {
	BashCommandToRun string `json:"bash_command_to_run"`
}

func (h *ShellCommandHandler) Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error) {
	raw, err := actx.JSON.GenerateJSON(ctx, shellInstructions, utterance)
	if err != nil {
		return "", err
	}

	var response shellCommandResponse
	if err := parse.ExtractObject(raw, &response); err != nil {
		return "", err
	}
	if response.BashCommandToRun == "" {
		return "", &parse.ParseError{Reason: "model proposed no command", Raw: raw}
	}

	log.Printf("Running command: %s", response.BashCommandToRun)
	output, err := runShell(ctx, response.BashCommandToRun, actx)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(output) == "" {
		return actx.Feedback(ctx, fmt.Sprintf("I ran '%s'. It finished without output.", response.BashCommandToRun)), nil
	}
	// Forward captured output verbatim
	return output, nil
}

// runShell executes the command with a timeout, capturing combined output.
// A long-running command must not block the assistant indefinitely.
func runShell(ctx context.Context, command string, actx *Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, actx.ShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &HandlerError{
			Op:       fmt.Sprintf("command %q", command),
			ExitCode: -1,
			Output:   string(output),
			Err:      fmt.Errorf("timed out after %s", actx.ShellTimeout),
		}
	}
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", &HandlerError{
			Op:       fmt.Sprintf("command %q", command),
			ExitCode: exitCode,
			Output:   strings.TrimSpace(string(output)),
			Err:      err,
		}
	}
	return string(output), nil
}
