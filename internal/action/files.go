package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
	"github.com/ravix/ada/internal/parse"
)

type fileNameResponse struct {
	FileName string `json:"file_name"`
}

const fileNameInstructions = `You name files for generated code.
Create a concise and descriptive file name, including an appropriate extension.
Respond exclusively with the file name in the following JSON format: {"file_name": ""}.`

// nameFile asks the model for a descriptive file name for the content
func nameFile(ctx context.Context, actx *Context, description string, content string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nCONTENT:\n%s", description, content)
	raw, err := actx.JSON.GenerateJSON(ctx, fileNameInstructions, prompt)
	if err != nil {
		return "", err
	}
	var response fileNameResponse
	if err := parse.ExtractObject(raw, &response); err != nil {
		return "", err
	}
	name := filepath.Base(strings.TrimSpace(response.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", &parse.ParseError{Reason: "model proposed no file name", Raw: raw}
	}
	return name, nil
}

// writeToWorkingDir writes content into the configured working directory
func writeToWorkingDir(actx *Context, name string, content string) (string, error) {
	dir := actx.Settings.WorkingDirectory
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", &HandlerError{Op: fmt.Sprintf("writing %s", path), Err: err}
	}
	return path, nil
}

// EditFileHandler overwrites a file in the working directory with content
// the model produces from the spoken request
type EditFileHandler struct{}

func NewEditFileHandler() *EditFileHandler { return &EditFileHandler{} }

func (h *EditFileHandler) Intent() intent.Intent { return intent.EditFile }

const editFileInstructions = `You turn a spoken request into a file edit.
Determine the file name being referred to and produce the complete new content for that file.
Respond in this JSON format exclusively: {"file_name": "", "file_content": ""}.`

type editFileResponse struct {
	FileName    string `json:"file_name"`
	FileContent string `json:"file_content"`
}

func (h *EditFileHandler) Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error) {
	raw, err := actx.JSON.GenerateJSON(ctx, editFileInstructions, utterance)
	if err != nil {
		return "", err
	}

	var response editFileResponse
	if err := parse.ExtractObject(raw, &response); err != nil {
		return "", err
	}
	if response.FileName == "" {
		return "", &parse.ParseError{Reason: "model proposed no file name", Raw: raw}
	}

	path, err := writeToWorkingDir(actx, filepath.Base(response.FileName), response.FileContent)
	if err != nil {
		return "", err
	}
	return actx.Feedback(ctx, fmt.Sprintf("I've written the new contents of %s. Let me know what's next.", path)), nil
}
