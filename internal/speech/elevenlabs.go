package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultElevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// ElevenLabsSynthesizer converts reply text to speech through the
// ElevenLabs text-to-speech API, returning MP3 audio
type ElevenLabsSynthesizer struct {
	httpClient *http.Client
	voiceID    string
	model      string
	baseURL    string
}

func NewElevenLabsSynthesizer(httpClient *http.Client, voiceID string) *ElevenLabsSynthesizer {
	return &ElevenLabsSynthesizer{
		httpClient: httpClient,
		voiceID:    voiceID,
		model:      "eleven_turbo_v2",
		baseURL:    defaultElevenLabsBaseURL,
	}
}

// SetBaseURL overrides the API endpoint, for tests
func (s *ElevenLabsSynthesizer) SetBaseURL(u string) { s.baseURL = u }

// SetVoice switches the voice used for synthesis. Called by the configure
// workflow when the settings file changes.
func (s *ElevenLabsSynthesizer) SetVoice(voiceID string) { s.voiceID = voiceID }

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": s.model,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("text-to-speech request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text-to-speech returned %d: %s", resp.StatusCode, string(audio))
	}
	return audio, nil
}
