package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicProvider generates text through the Anthropic messages API using
// the streaming endpoint, accumulating events into a complete message.
type AnthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model

	maxOutputTokens int64
}

func NewAnthropicProvider(client anthropic.Client, model anthropic.Model) *AnthropicProvider {
	if model == "" {
		model = anthropic.ModelClaude3_5Sonnet20241022
	}
	return &AnthropicProvider{
		client:          client,
		model:           model,
		maxOutputTokens: 4096,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, turn := range history {
		if turn.Speaker == SpeakerAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: p.maxOutputTokens,
		Messages:  messages,
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	response := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		err := response.Accumulate(event)
		if err != nil {
			return "", fmt.Errorf("failed to accumulate response content stream: %w", err)
		}
	}
	if stream.Err() != nil {
		return "", fmt.Errorf("failed to stream response: %w", stream.Err())
	}
	if response.StopReason == "" {
		b, err := json.Marshal(response)
		if err != nil {
			log.Printf("error while marshalling corrupt message for inspection: %v", err)
		}
		return "", fmt.Errorf("malformed message: %v", string(b))
	}

	var text string
	for _, content := range response.Content {
		if block, ok := content.AsAny().(anthropic.TextBlock); ok {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return text, nil
}
