package action

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// sequencedJSONGenerator returns a different canned response per call
type sequencedJSONGenerator struct {
	responses []string
	prompts   []string
}

func (f *sequencedJSONGenerator) GenerateJSON(_ context.Context, _ string, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		return "", errors.New("no more scripted responses")
	}
	return f.responses[i], nil
}

func TestExampleCodeHandler_ScrapesRefinesAndWrites(t *testing.T) {
	page := `<html><head><style>body { color: red }</style><script>alert(1)</script></head>
<body><h1>Widget API</h1><p>Call widget.spin() to spin the widget.</p></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, page)
	}))
	defer server.Close()

	gen := &sequencedJSONGenerator{responses: []string{
		mustJSON(t, map[string]string{"code": "widget.spin()  # draft"}),
		mustJSON(t, map[string]string{"code": "widget.spin()  # pass 1"}),
		mustJSON(t, map[string]string{"code": "widget.spin()"}),
		mustJSON(t, map[string]string{"file_name": "spin_widget.py"}),
	}}

	actx := testContext(t)
	actx.JSON = gen

	h := NewExampleCodeHandler(server.Client())
	out, err := h.Handle(context.Background(), "example code for "+server.URL, nil, actx)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	written, err := os.ReadFile(filepath.Join(actx.Settings.WorkingDirectory, "spin_widget.py"))
	require.NoError(t, err)
	require.Equal(t, "widget.spin()", string(written))

	// One draft, two cleanup passes, one naming call
	require.Len(t, gen.prompts, 4)
	require.Contains(t, gen.prompts[0], "Call widget.spin() to spin the widget.")
	require.NotContains(t, gen.prompts[0], "alert(1)")
	require.NotContains(t, gen.prompts[0], "color: red")
	require.Contains(t, gen.prompts[1], "widget.spin()  # draft")
	require.Contains(t, gen.prompts[2], "widget.spin()  # pass 1")
}

func TestExampleCodeHandler_NoURLInRequest(t *testing.T) {
	actx := testContext(t)

	h := NewExampleCodeHandler(nil)
	_, err := h.Handle(context.Background(), "example code for the widget docs", nil, actx)

	var handlerErr *HandlerError
	require.ErrorAs(t, err, &handlerErr)
	require.Contains(t, handlerErr.Error(), "no URL")
}

func TestExampleCodeHandler_ScrapeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	actx := testContext(t)
	h := NewExampleCodeHandler(server.Client())
	_, err := h.Handle(context.Background(), "example code for "+server.URL, nil, actx)

	var handlerErr *HandlerError
	require.ErrorAs(t, err, &handlerErr)
	require.Contains(t, handlerErr.Error(), "404")
}

func TestHTMLToText_SkipsScriptAndStyle(t *testing.T) {
	text := htmlToText(`<html><body><script>var x = 1;</script><p>visible</p><style>.a{}</style></body></html>`)
	require.Contains(t, text, "visible")
	require.NotContains(t, text, "var x")
	require.NotContains(t, text, ".a{}")
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
