package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

const defaultDeepgramBaseURL = "https://api.deepgram.com/v1"

// minConfidence is the floor below which a transcript is treated as noise
const minConfidence = 0.5

// DeepgramTranscriber transcribes recorded audio through Deepgram's
// prerecorded listen API
type DeepgramTranscriber struct {
	httpClient *http.Client
	model      string
	baseURL    string
}

func NewDeepgramTranscriber(httpClient *http.Client, model string) *DeepgramTranscriber {
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramTranscriber{
		httpClient: httpClient,
		model:      model,
		baseURL:    defaultDeepgramBaseURL,
	}
}

// SetBaseURL overrides the API endpoint, for tests
func (t *DeepgramTranscriber) SetBaseURL(u string) { t.baseURL = u }

func (t *DeepgramTranscriber) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	url := fmt.Sprintf("%s/listen?model=%s&smart_format=true", t.baseURL, t.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(wavData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("listen request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listen returned %d: %s", resp.StatusCode, string(body))
	}

	alternative := gjson.GetBytes(body, "results.channels.0.alternatives.0")
	transcript := alternative.Get("transcript").String()
	if transcript == "" {
		return "", &TranscriptionError{Reason: "empty transcript"}
	}
	if conf := alternative.Get("confidence"); conf.Exists() && conf.Float() < minConfidence {
		return "", &TranscriptionError{Reason: fmt.Sprintf("low confidence %.2f", conf.Float())}
	}
	return transcript, nil
}
