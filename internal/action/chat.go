package action

import (
	"context"
	"fmt"

	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
)

// QuestionHandler answers a free-form question through the language model
// gateway with the persona prompt and recent conversation context
type QuestionHandler struct{}

func NewQuestionHandler() *QuestionHandler { return &QuestionHandler{} }

func (h *QuestionHandler) Intent() intent.Intent { return intent.Question }

func (h *QuestionHandler) Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error) {
	prompt := fmt.Sprintf(`%s
We don't like small talk so we always steer our conversation back toward creating, building, product development, designing, and coding.
We like to discuss in high level details without getting too technical.
Respond to the following question: %s`, actx.personaHead(), utterance)

	return actx.Text.Generate(ctx, prompt, history)
}

// SmallTalkHandler responds to greetings and chit-chat in the assistant's
// voice, steering back toward work
type SmallTalkHandler struct{}

func NewSmallTalkHandler() *SmallTalkHandler { return &SmallTalkHandler{} }

func (h *SmallTalkHandler) Intent() intent.Intent { return intent.SmallTalk }

func (h *SmallTalkHandler) Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error) {
	prompt := fmt.Sprintf(`%s
We don't like small talk so we always steer our conversation back toward creating, building, product development, designing, and coding.
Respond to the following prompt: %s`, actx.personaHead(), utterance)

	return actx.Text.Generate(ctx, prompt, history)
}
