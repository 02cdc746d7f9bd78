package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const defaultDeepgramLiveURL = "wss://api.deepgram.com/v1/listen"

// LiveTranscriber streams microphone frames to Deepgram's live websocket
// API and yields finalized transcripts as they arrive. Capture keeps running
// while the rest of the loop is busy; the channel buffers in between. There
// is a single consumer, so no locking is needed.
type LiveTranscriber struct {
	dialer *websocket.Dialer
	url    string
	header http.Header
	model  string
}

func NewLiveTranscriber(apiKey string, model string) *LiveTranscriber {
	if model == "" {
		model = "nova-2"
	}
	header := http.Header{}
	header.Set("Authorization", "Token "+apiKey)
	return &LiveTranscriber{
		dialer: websocket.DefaultDialer,
		url:    defaultDeepgramLiveURL,
		header: header,
		model:  model,
	}
}

// SetURL overrides the websocket endpoint, for tests
func (lt *LiveTranscriber) SetURL(u string) { lt.url = u }

// Stream connects to the live API, pumps frames from the capture channel in
// the background, and returns a channel of finalized transcripts. Both
// returned channels close when the frames channel closes, the context is
// cancelled, or the connection fails.
func (lt *LiveTranscriber) Stream(ctx context.Context, frames <-chan []float32) (<-chan string, <-chan error) {
	transcripts := make(chan string, 4)
	errs := make(chan error, 1)

	url := fmt.Sprintf("%s?encoding=linear16&sample_rate=%d&channels=1&model=%s&interim_results=false",
		lt.url, sampleRate, lt.model)

	conn, _, err := lt.dialer.DialContext(ctx, url, lt.header)
	if err != nil {
		errs <- fmt.Errorf("failed to connect to live transcription: %w", err)
		close(transcripts)
		close(errs)
		return transcripts, errs
	}

	// Writer: background capture task feeding audio to the socket
	go func() {
		defer conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.BinaryMessage, pcm16Bytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	// Reader: single producer of transcripts
	go func() {
		defer close(transcripts)
		defer close(errs)
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("live transcription read: %w", err)
				}
				return
			}
			result := gjson.GetBytes(msg, "channel.alternatives.0.transcript")
			if result.String() != "" && gjson.GetBytes(msg, "is_final").Bool() {
				select {
				case transcripts <- result.String():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return transcripts, errs
}

// LiveListener yields wake-word-prefixed commands from a continuous live
// transcription stream. Unlike Listener it never stops capturing: audio
// buffers in the frame channel while a turn is being processed.
type LiveListener struct {
	start       func(ctx context.Context) (<-chan []float32, error)
	transcriber *LiveTranscriber
	wakeWord    string

	transcripts <-chan string
	errs        <-chan error
}

// FrameSource starts continuous capture and returns a channel of PCM
// frames. Satisfied by (*Recorder).StreamFrames.
type FrameSource func(ctx context.Context) (<-chan []float32, error)

func NewLiveListener(frames FrameSource, transcriber *LiveTranscriber, wakeWord string) *LiveListener {
	return &LiveListener{
		start:       frames,
		transcriber: transcriber,
		wakeWord:    wakeWord,
	}
}

// NextCommand blocks until a transcript containing the wake word arrives
// and returns the text after it
func (l *LiveListener) NextCommand(ctx context.Context) (string, error) {
	if l.transcripts == nil {
		frames, err := l.start(ctx)
		if err != nil {
			return "", err
		}
		l.transcripts, l.errs = l.transcriber.Stream(ctx, frames)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err, ok := <-l.errs:
			if !ok {
				// Closed error channel would otherwise win the select forever
				l.errs = nil
				continue
			}
			return "", err
		case transcript, ok := <-l.transcripts:
			if !ok {
				return "", fmt.Errorf("live transcription stream ended")
			}
			command, found := textAfterWakeWord(transcript, l.wakeWord)
			if !found {
				continue
			}
			return command, nil
		}
	}
}

func pcm16Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*32767)))
	}
	return out
}
