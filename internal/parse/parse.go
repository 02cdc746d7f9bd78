// Package parse extracts structured payloads from free-form model output.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ParseError indicates that no well-formed payload of the expected shape was
// found in the model output. It is recoverable: the assistant reports it to
// the user instead of crashing.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		// Back up to a rune boundary so the cut never splits a multi-byte rune
		cut := 200
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut] + "..."
	}
	return fmt.Sprintf("parse error: %s (raw: %s)", e.Reason, raw)
}

var (
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	codeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\n(.*?)\\n?```")
)

// ExtractJSON locates a JSON object in raw text, tolerating surrounding
// commentary and markdown-style fences, and returns the object's bytes
func ExtractJSON(raw string) (json.RawMessage, error) {
	candidate := strings.TrimSpace(raw)

	// Prefer the contents of a ```json fence if one is present
	if m := jsonFenceRe.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	} else if i := strings.IndexByte(candidate, '{'); i >= 0 {
		// Fall back to the first balanced object in the text
		if obj, ok := balancedObject(candidate[i:]); ok {
			candidate = obj
		}
	}

	if !json.Valid([]byte(candidate)) || !strings.HasPrefix(strings.TrimSpace(candidate), "{") {
		return nil, &ParseError{Reason: "no well-formed JSON object found", Raw: raw}
	}
	return json.RawMessage(candidate), nil
}

// ExtractObject decodes a JSON object embedded in raw text into target
func ExtractObject(raw string, target any) error {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, target); err != nil {
		return &ParseError{Reason: fmt.Sprintf("payload does not match expected shape: %v", err), Raw: raw}
	}
	return nil
}

// ExtractCodeBlock returns the contents of the first fenced code block in raw
// text. When the text has no fence at all it is returned as-is, since models
// sometimes answer with bare code.
func ExtractCodeBlock(raw string) (string, error) {
	if m := codeFenceRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	if strings.Contains(raw, "```") {
		return "", &ParseError{Reason: "unterminated code fence", Raw: raw}
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ParseError{Reason: "empty response", Raw: raw}
	}
	return trimmed, nil
}

// balancedObject returns the prefix of s that forms a brace-balanced object,
// skipping braces inside string literals
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
