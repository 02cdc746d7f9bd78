package speech

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV encodes 16 kHz mono PCM samples into a 16-bit WAV payload for
// the prerecorded transcription API
func EncodeWAV(samples []float32) ([]byte, error) {
	ints := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		ints[i] = int(s * 32767)
	}

	var ws seekableBuffer
	enc := wav.NewEncoder(&ws, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           ints,
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	return ws.Bytes(), nil
}

// seekableBuffer is an in-memory io.WriteSeeker. The wav encoder needs to
// seek back to patch the RIFF header sizes on Close.
type seekableBuffer struct {
	buf bytes.Buffer
	pos int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if b.pos < b.buf.Len() {
		n := copy(b.buf.Bytes()[b.pos:], p)
		if n < len(p) {
			b.buf.Write(p[n:])
		}
	} else {
		b.buf.Write(p)
	}
	b.pos += len(p)
	return len(p), nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int
	switch whence {
	case io.SeekStart:
		pos = int(offset)
	case io.SeekCurrent:
		pos = b.pos + int(offset)
	case io.SeekEnd:
		pos = b.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position")
	}
	b.pos = pos
	return int64(pos), nil
}

func (b *seekableBuffer) Bytes() []byte { return b.buf.Bytes() }
