package action

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
	"github.com/ravix/ada/internal/parse"
)

var urlRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

// maxScrapedChars bounds how much page text is fed into the prompt
const maxScrapedChars = 24000

// ExampleCodeHandler scrapes a documentation URL mentioned in the request
// and turns it into runnable example code through a multi-pass refinement
// chain, then writes the result into the working directory.
type ExampleCodeHandler struct {
	httpClient *http.Client
}

func NewExampleCodeHandler(httpClient *http.Client) *ExampleCodeHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ExampleCodeHandler{httpClient: httpClient}
}

func (h *ExampleCodeHandler) Intent() intent.Intent { return intent.ExampleCode }

type exampleCodeResponse struct {
	Code string `json:"code"`
}

const draftInstructions = `You're a professional software developer advocate that takes pride in writing good code.
You take documentation and convert it into runnable code.
Given the scraped WEBSITE_CONTENT, generate working code to showcase how to run it.
Focus on the code. Use detailed variable and function names.
Respond in this JSON format exclusively: {"code": ""}`

const cleanupInstructions = `You are an elite level, principle software engineer.
You've just received a draft of EXAMPLE_CODE. Take a pass to clean it up:
- Make sure it's immediately runnable and functional.
- Remove anything that isn't runnable code.
- This code will be immediately placed into a file and run.
- Pay close attention to indentation.
Respond in this JSON format exclusively: {"code": ""}`

func (h *ExampleCodeHandler) Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error) {
	url := urlRe.FindString(utterance)
	if url == "" {
		return "", &HandlerError{Op: "example code", Err: fmt.Errorf("no URL in the request to scrape")}
	}

	pageText, err := h.scrapeToText(ctx, url)
	if err != nil {
		return "", err
	}

	// First draft from the scraped documentation
	raw, err := actx.JSON.GenerateJSON(ctx, draftInstructions,
		fmt.Sprintf("Generate example code for the url %s with a focus on: %s\n\nWEBSITE_CONTENT:\n%s", url, utterance, pageText))
	if err != nil {
		return "", err
	}
	var draft exampleCodeResponse
	if err := parse.ExtractObject(raw, &draft); err != nil {
		return "", err
	}

	// Two cleanup passes; models reliably leave prose in the first draft
	code := draft.Code
	for i := 0; i < 2; i++ {
		raw, err := actx.JSON.GenerateJSON(ctx, cleanupInstructions, "EXAMPLE_CODE:\n"+code)
		if err != nil {
			return "", err
		}
		var cleaned exampleCodeResponse
		if err := parse.ExtractObject(raw, &cleaned); err != nil {
			return "", err
		}
		if cleaned.Code != "" {
			code = cleaned.Code
		}
	}

	name, err := nameFile(ctx, actx, "You've just generated the following example code.", code)
	if err != nil {
		return "", err
	}
	path, err := writeToWorkingDir(actx, name, code)
	if err != nil {
		return "", err
	}

	return actx.Feedback(ctx, fmt.Sprintf("Code has been written to %s. Let me know if you need anything else.", path)), nil
}

// scrapeToText fetches the URL and strips it down to visible text
func (h *ExampleCodeHandler) scrapeToText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &HandlerError{Op: "scraping " + url, Err: err}
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", &HandlerError{Op: "scraping " + url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &HandlerError{Op: "scraping " + url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &HandlerError{Op: "scraping " + url, Err: err}
	}

	text := htmlToText(string(body))
	if len(text) > maxScrapedChars {
		text = text[:maxScrapedChars]
	}
	return text, nil
}

// htmlToText extracts the text content of an HTML document, skipping script
// and style elements
func htmlToText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return page
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				b.WriteString(trimmed)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}
