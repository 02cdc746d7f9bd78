// Package speech provides the audio input and output services: microphone
// capture, hosted speech-to-text, hosted speech synthesis, and playback.
package speech

import (
	"context"
	"fmt"
)

// TranscriptionError indicates that no usable text could be produced from
// captured audio: silence, noise, or a low-confidence result. It is
// recoverable: the assistant re-enters listening without consuming a turn.
type TranscriptionError struct {
	Reason string
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %s", e.Reason)
}

// Source captures one utterance worth of audio from the microphone as
// 16 kHz mono PCM samples
type Source interface {
	Record(ctx context.Context) ([]float32, error)
}

// Transcriber converts recorded audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}

// Synthesizer converts a text reply into encoded audio (MP3)
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays encoded audio, blocking until playback completes. Playback
// never overlaps the next listen cycle.
type Player interface {
	Play(audio []byte) error
}
