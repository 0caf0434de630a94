// Package httpcapture wraps an http.RoundTripper so callers that go through
// an SDK can still see the raw upstream response body.
package httpcapture

import (
	"bytes"
	"io"
	"net/http"
)

// Transport records the last response status and body that passed through it.
// Use one Transport per upstream call.
type Transport struct {
	// Base is the underlying transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// MaxBody caps the number of response bytes retained. Zero means no cap.
	MaxBody int64

	StatusCode   int
	ResponseBody []byte
}

// New creates a capturing transport over base.
func New(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

// RoundTrip implements http.RoundTripper. The response body is read fully and
// replaced with an in-memory copy so the caller can still consume it.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.StatusCode = resp.StatusCode

	if resp.Body != nil {
		var r io.Reader = resp.Body
		if t.MaxBody > 0 {
			r = io.LimitReader(resp.Body, t.MaxBody)
		}
		body, err := io.ReadAll(r)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
		t.ResponseBody = body
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	return resp, nil
}

// Client returns an *http.Client that routes through t.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}
