package speech

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// BeepPlayer plays MP3 audio through the default output device, blocking
// until playback completes
type BeepPlayer struct {
	initOnce sync.Once
	initErr  error
}

func NewBeepPlayer() *BeepPlayer { return &BeepPlayer{} }

func (p *BeepPlayer) Play(audio []byte) error {
	streamer, format, err := mp3.Decode(nopReadCloser{bytes.NewReader(audio)})
	if err != nil {
		return fmt.Errorf("failed to decode mp3: %w", err)
	}
	defer streamer.Close()

	// ElevenLabs returns a fixed sample rate, so one speaker init suffices
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if p.initErr != nil {
		return fmt.Errorf("failed to init speaker: %w", p.initErr)
	}

	done := make(chan bool)
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		done <- true
	})))
	<-done
	return nil
}

type nopReadCloser struct{ io.Reader }

func (nopReadCloser) Close() error { return nil }
