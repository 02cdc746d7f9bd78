// Package transport provides HTTP round trippers shared by the hosted
// speech and language providers.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// RateLimitedTransport retries requests that are rejected with 429,
// honoring the retry-after header. Hosted speech and model APIs rate limit
// aggressively on free tiers.
type RateLimitedTransport struct {
	base http.RoundTripper
}

func WithRateLimiting(base http.RoundTripper) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitedTransport{base: base}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for {
		// Restore the request body for each attempt
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfterStr := resp.Header.Get("retry-after")
			if retryAfterStr != "" {
				var waitDuration time.Duration

				// Try parsing as seconds, then as an HTTP date
				if seconds, err := strconv.Atoi(retryAfterStr); err == nil {
					waitDuration = time.Duration(seconds) * time.Second
				} else if retryTime, err := time.Parse(time.RFC1123, retryAfterStr); err == nil {
					waitDuration = time.Until(retryTime)
				}

				if waitDuration > 0 {
					err = resp.Body.Close()
					if err != nil {
						return nil, fmt.Errorf("failed to close response body: %w", err)
					}

					log.Printf("Rate limited, waiting %s", waitDuration)
					select {
					case <-req.Context().Done():
						return nil, req.Context().Err()
					case <-time.After(waitDuration):
						continue
					}
				}
			}
		}

		return resp, err
	}
}

// AuthTransport attaches a fixed set of headers to every request. Deepgram
// and ElevenLabs authenticate with per-request API key headers rather than
// OAuth flows.
type AuthTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func WithHeaders(base http.RoundTripper, headers map[string]string) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{base: base, headers: headers}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}

// NewClient builds an http.Client with rate limiting and the given auth
// headers, suitable for the hosted provider REST APIs
func NewClient(headers map[string]string, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: WithRateLimiting(WithHeaders(nil, headers)),
		Timeout:   timeout,
	}
}
