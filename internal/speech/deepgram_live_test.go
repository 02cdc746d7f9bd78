package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// liveServer fakes the live transcription endpoint: it echoes a finalized
// transcript for each binary audio frame it receives
func liveServer(t *testing.T, transcripts []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "linear16", r.URL.Query().Get("encoding"))
		require.Equal(t, "16000", r.URL.Query().Get("sample_rate"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		sent := 0
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && strings.Contains(string(msg), "CloseStream") {
				return
			}
			if msgType == websocket.BinaryMessage && sent < len(transcripts) {
				reply := `{"is_final": true, "channel": {"alternatives": [{"transcript": "` + transcripts[sent] + `"}]}}`
				if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
					return
				}
				sent++
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestLiveTranscriber_StreamsFinalizedTranscripts(t *testing.T) {
	server := liveServer(t, []string{"Ada, hello"})
	defer server.Close()

	lt := NewLiveTranscriber("key", "")
	lt.SetURL(wsURL(server))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames := make(chan []float32, 1)
	frames <- []float32{0.1, 0.2, 0.3}

	transcripts, errs := lt.Stream(ctx, frames)

	select {
	case got := <-transcripts:
		require.Equal(t, "Ada, hello", got)
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for transcript")
	}
	close(frames)
}

func TestLiveTranscriber_DialFailure(t *testing.T) {
	lt := NewLiveTranscriber("key", "")
	lt.SetURL("ws://127.0.0.1:1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frames := make(chan []float32)
	close(frames)

	transcripts, errs := lt.Stream(ctx, frames)
	require.Error(t, <-errs)

	_, open := <-transcripts
	require.False(t, open)
}

func TestLiveListener_NextCommand(t *testing.T) {
	server := liveServer(t, []string{"background chatter", "Ada, run the build"})
	defer server.Close()

	lt := NewLiveTranscriber("key", "")
	lt.SetURL(wsURL(server))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames := make(chan []float32, 2)
	frames <- []float32{0.1}
	frames <- []float32{0.2}

	source := func(context.Context) (<-chan []float32, error) { return frames, nil }
	l := NewLiveListener(source, lt, "Ada")

	got, err := l.NextCommand(ctx)
	require.NoError(t, err)
	require.Equal(t, "run the build", got)
	close(frames)
}

func TestPCM16Bytes(t *testing.T) {
	out := pcm16Bytes([]float32{0, 1, -1})
	require.Len(t, out, 6)
	require.Equal(t, []byte{0x00, 0x00}, out[0:2])
	require.Equal(t, []byte{0xFF, 0x7F}, out[2:4]) // 32767
	require.Equal(t, []byte{0x01, 0x80}, out[4:6]) // -32767
}
