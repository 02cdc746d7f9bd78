package speech

import (
	"context"
	"errors"
	"log"
	"strings"
)

// Listener produces the lazy, infinite sequence of user commands: capture an
// utterance, transcribe it, and yield the text following the wake word.
// Transcripts without the wake word are discarded.
type Listener struct {
	source      Source
	transcriber Transcriber
	wakeWord    string
}

func NewListener(source Source, transcriber Transcriber, wakeWord string) *Listener {
	return &Listener{
		source:      source,
		transcriber: transcriber,
		wakeWord:    wakeWord,
	}
}

// NextCommand blocks until a wake-word-prefixed utterance has been captured
// and returns the text after the wake word. Silence and low-confidence audio
// re-enter listening without surfacing an error.
func (l *Listener) NextCommand(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		samples, err := l.source.Record(ctx)
		var te *TranscriptionError
		if errors.As(err, &te) {
			continue
		}
		if err != nil {
			return "", err
		}

		wavData, err := EncodeWAV(samples)
		if err != nil {
			return "", err
		}

		transcript, err := l.transcriber.Transcribe(ctx, wavData)
		if errors.As(err, &te) {
			log.Printf("Re-listening: %v", te)
			continue
		}
		if err != nil {
			return "", err
		}

		command, ok := textAfterWakeWord(transcript, l.wakeWord)
		if !ok {
			log.Printf("No wake word in transcript: %q", transcript)
			continue
		}
		log.Printf("Wake word detected, command: %q", command)
		return command, nil
	}
}

func textAfterWakeWord(transcript string, wakeWord string) (string, bool) {
	pos := strings.Index(strings.ToLower(transcript), strings.ToLower(wakeWord))
	if pos < 0 {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(transcript[pos+len(wakeWord):], ",.!? ")), true
}
