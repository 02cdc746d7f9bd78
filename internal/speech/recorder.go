package speech

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate = 16000
	frameSize  = 320 // 20ms

	silenceThreshRMS = 0.015 // tune if needed
	silenceDuration  = 600 * time.Millisecond
	maxUtteranceSecs = 15
)

// Recorder captures microphone audio through portaudio. Recording starts on
// the first frame above the RMS threshold and stops after a stretch of
// silence or the maximum utterance length.
type Recorder struct{}

func NewRecorder() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Recorder{}, nil
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record blocks until an utterance has been captured and returns it as
// 16 kHz mono PCM
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		speaking      bool
		silenceFrames int
	)

	maxFrames := maxUtteranceSecs * sampleRate / frameSize
	silenceFrameLimit := int(silenceDuration / (20 * time.Millisecond))

	for i := 0; i < maxFrames; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		rms := frameRMS(buf)

		if rms > silenceThreshRMS {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
		} else if speaking {
			silenceFrames++
			if silenceFrames >= silenceFrameLimit {
				break
			}
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return nil, &TranscriptionError{Reason: "no audio above detection threshold"}
	}
	return out, nil
}

// StreamFrames continuously captures 20ms frames and delivers them on the
// returned channel until the context is cancelled. Used by the live
// transcription path.
func (r *Recorder) StreamFrames(ctx context.Context) (<-chan []float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	frames := make(chan []float32, 64)
	go func() {
		defer close(frames)
		defer stream.Close()
		defer stream.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := stream.Read(); err != nil {
				return
			}
			frame := make([]float32, len(buf))
			copy(frame, buf)
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
