// Package intent classifies transcribed utterances into the closed set of
// actions the assistant supports.
package intent

import (
	"context"
	"log"
	"strings"

	"github.com/ravix/ada/internal/parse"
)

// Intent is the classified category of a user request. Each intent maps to
// exactly one action handler; Unknown is explicit so handlers never receive
// an intent they don't expect.
type Intent string

const (
	ShellCommand       Intent = "shell_command"
	EditFile           Intent = "edit_file"
	ExampleCode        Intent = "example_code"
	ComponentFromImage Intent = "component_from_image"
	Configure          Intent = "configure"
	Question           Intent = "question"
	SmallTalk          Intent = "small_talk"
	Exit               Intent = "exit"
	Unknown            Intent = "unknown"
)

// keywordRoutes maps trigger keywords to intents, checked in order. This is
// the fast path; free-form utterances that match nothing fall through to the
// model-based classifier.
var keywordRoutes = []struct {
	keywords []string
	intent   Intent
}{
	{[]string{"configure", "configuration"}, Configure},
	{[]string{"example code"}, ExampleCode},
	{[]string{"view component"}, ComponentFromImage},
	{[]string{"edit file", "edit the file"}, EditFile},
	{[]string{"shell", "bash", "browser"}, ShellCommand},
	{[]string{"question"}, Question},
	{[]string{"hello", "hey", "hi"}, SmallTalk},
	{[]string{"exit"}, Exit},
}

// ClassifyKeywords returns the intent for the first route keyword found in
// the prompt, or Unknown
func ClassifyKeywords(prompt string) Intent {
	lowered := strings.ToLower(prompt)
	for _, route := range keywordRoutes {
		for _, keyword := range route.keywords {
			if strings.Contains(lowered, keyword) {
				return route.intent
			}
		}
	}
	return Unknown
}

const classifierInstructions = `You classify a voice assistant user request into exactly one intent.
Do NOT converse. Do NOT answer the request. Output ONLY JSON, no markdown.

OUTPUT FORMAT:
{"intent": "<string>", "query": "<original user text>"}

INTENTS (canonical, snake_case):
- "shell_command"        run a shell command on the user's machine
- "edit_file"            overwrite a file with new content
- "example_code"         generate runnable example code from documentation
- "component_from_image" build a UI component from an image
- "configure"            change the assistant's settings
- "question"             a free-form question to answer
- "small_talk"           greeting or chit-chat
- "exit"                 end the conversation
- "unknown"              none of the above

If the meaning is unclear, use "unknown". Be strict and minimal.`

// JSONClassifier produces a JSON-constrained model response. Satisfied by
// the OpenAI provider's GenerateJSON.
type JSONClassifier interface {
	GenerateJSON(ctx context.Context, instructions string, prompt string) (string, error)
}

// Classifier resolves an utterance to an intent: keyword routes first, then
// a model-based fallback for free-form phrasing
type Classifier struct {
	model JSONClassifier
}

func NewClassifier(model JSONClassifier) *Classifier {
	return &Classifier{model: model}
}

type classification struct {
	Intent string `json:"intent"`
	Query  string `json:"query"`
}

// Classify returns the intent for the prompt. Classification is best-effort:
// a failed model call degrades to Unknown rather than failing the turn.
func (c *Classifier) Classify(ctx context.Context, prompt string) Intent {
	if it := ClassifyKeywords(prompt); it != Unknown {
		return it
	}
	if c.model == nil {
		return Unknown
	}

	raw, err := c.model.GenerateJSON(ctx, classifierInstructions, prompt)
	if err != nil {
		log.Printf("Intent classification failed, treating as unknown: %v", err)
		return Unknown
	}

	var result classification
	if err := parse.ExtractObject(raw, &result); err != nil {
		log.Printf("Unparseable classification %q, treating as unknown", raw)
		return Unknown
	}

	switch it := Intent(result.Intent); it {
	case ShellCommand, EditFile, ExampleCode, ComponentFromImage, Configure, Question, SmallTalk, Exit:
		return it
	default:
		return Unknown
	}
}
