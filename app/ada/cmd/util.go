package cmd

import (
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	anthropt "github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ravix/ada/internal/config"
	"github.com/ravix/ada/internal/llm"
	"github.com/ravix/ada/internal/transport"
)

func createOpenAIProvider(apiKey string) *llm.OpenAIProvider {
	rateLimitedHTTPClient := &http.Client{
		Transport: transport.WithRateLimiting(nil),
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(rateLimitedHTTPClient),
	)
	return llm.NewOpenAIProvider(client, "")
}

func createAnthropicProvider(apiKey string) *llm.AnthropicProvider {
	rateLimitedHTTPClient := &http.Client{
		Transport: transport.WithRateLimiting(nil),
	}
	client := anthropic.NewClient(
		anthropt.WithHTTPClient(rateLimitedHTTPClient),
		anthropt.WithAPIKey(apiKey),
	)
	return llm.NewAnthropicProvider(client, "")
}

// loadSettingsOverrides reads the settings file and applies its model and
// voice overrides to the global config, so one-shot commands honor choices
// made through the configure workflow
func loadSettingsOverrides() (*config.Settings, error) {
	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return nil, err
	}
	if settings.Model != "" {
		cfg.Model = settings.Model
	}
	if settings.VoiceID != "" {
		cfg.VoiceID = settings.VoiceID
	}
	return settings, nil
}

// createGateway wires a provider for every API key present; the model
// choice picks among them at call time
func createGateway(cfg config.Config, openaiProvider *llm.OpenAIProvider) *llm.Gateway {
	providers := []llm.Provider{}
	if openaiProvider != nil {
		providers = append(providers, openaiProvider)
	}
	if cfg.GoogleAPIKey != "" {
		geminiClient := &http.Client{
			Transport: transport.WithRateLimiting(nil),
			Timeout:   cfg.RequestTimeout,
		}
		providers = append(providers, llm.NewGeminiProvider(geminiClient, cfg.GoogleAPIKey, ""))
	}
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, createAnthropicProvider(cfg.AnthropicAPIKey))
	}
	return llm.NewGateway(cfg.Model, cfg.RequestTimeout, providers...)
}
