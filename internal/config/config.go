// Package config provides configuration management for the Ada assistant.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Error indicates missing or invalid configuration. It is the only fatal
// error kind in the system: it is raised at startup, before the assistant
// loop begins.
type Error struct {
	Variable string
	Reason   string
}

func (e *Error) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("missing required environment variable: %s", e.Variable)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// Config holds the configuration for the assistant
type Config struct {
	OpenAIAPIKey    string
	GoogleAPIKey    string
	AnthropicAPIKey string
	ElevenAPIKey    string
	DeepgramAPIKey  string

	AssistantName string
	CompanionName string
	WakeWord      string
	Model         string
	VoiceID       string

	SettingsFile   string
	RequestTimeout time.Duration
	ShellTimeout   time.Duration

	TelemetryEndpoint string
}

// Load loads configuration from environment variables
func Load() Config {
	config := Config{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		ElevenAPIKey:    os.Getenv("ELEVEN_API_KEY"),
		DeepgramAPIKey:  os.Getenv("DEEPGRAM_API_KEY"),

		AssistantName: "Ada",
		WakeWord:      "Ada",
		CompanionName: "friend",
		Model:         "gpt-4o",
		VoiceID:       os.Getenv("ELEVENLABS_VOICE_ID"),

		SettingsFile:   "./config.json",
		RequestTimeout: 60 * time.Second, // Default
		ShellTimeout:   30 * time.Second, // Default

		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if v := os.Getenv("ADA_NAME"); v != "" {
		config.AssistantName = v
	}
	if v := os.Getenv("ADA_WAKE_WORD"); v != "" {
		config.WakeWord = v
	}
	if v := os.Getenv("ADA_COMPANION"); v != "" {
		config.CompanionName = v
	}
	if v := os.Getenv("ADA_MODEL"); v != "" {
		config.Model = v
	}
	if v := os.Getenv("ADA_SETTINGS_FILE"); v != "" {
		config.SettingsFile = v
	}

	// Parse timeouts if provided
	if timeout := os.Getenv("ADA_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.RequestTimeout = d
		}
	}
	if timeout := os.Getenv("ADA_SHELL_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.ShellTimeout = d
		}
	}

	return config
}

// ValidateText checks the configuration needed for text-only operation: the
// API key required by the selected model plus the classifier's OpenAI key
func (c Config) ValidateText() error {
	switch {
	case strings.HasPrefix(c.Model, "gpt"):
		if c.OpenAIAPIKey == "" {
			return &Error{Variable: "OPENAI_API_KEY"}
		}
	case strings.HasPrefix(c.Model, "gemini"):
		if c.GoogleAPIKey == "" {
			return &Error{Variable: "GOOGLE_API_KEY"}
		}
	case strings.HasPrefix(c.Model, "claude"):
		if c.AnthropicAPIKey == "" {
			return &Error{Variable: "ANTHROPIC_API_KEY"}
		}
	default:
		return &Error{Reason: fmt.Sprintf("unknown model choice %q", c.Model)}
	}

	// The intent classifier and the vision workflow always go through OpenAI
	if c.OpenAIAPIKey == "" {
		return &Error{Variable: "OPENAI_API_KEY"}
	}

	return nil
}

// Validate checks if the full voice-mode configuration is present
func (c Config) Validate() error {
	if err := c.ValidateText(); err != nil {
		return err
	}
	if c.DeepgramAPIKey == "" {
		return &Error{Variable: "DEEPGRAM_API_KEY"}
	}
	if c.ElevenAPIKey == "" {
		return &Error{Variable: "ELEVEN_API_KEY"}
	}
	if c.VoiceID == "" {
		return &Error{Variable: "ELEVENLABS_VOICE_ID"}
	}
	return nil
}

// Settings is the user-editable part of the configuration, persisted as a
// JSON file. The configure workflow mutates it mid-session.
type Settings struct {
	WorkingDirectory string `json:"working_directory"`
	Model            string `json:"model,omitempty"`
	VoiceID          string `json:"voice_id,omitempty"`
}

// LoadSettings reads the settings file, creating it with defaults when it
// does not exist yet
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		settings := &Settings{WorkingDirectory: "."}
		if err := settings.Save(path); err != nil {
			return nil, err
		}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return &settings, nil
}

// Save writes the settings back to disk
func (s *Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
