package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"llm-bridge/internal/domain"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash-lite"

	maxResponseBytes = 1 << 20
)

// Part is a single text part of a content entry.
type Part struct {
	Text string `json:"text"`
}

// Content is one turn in the Generative Language API contents array.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Request is the generateContent payload.
type Request struct {
	Contents          []Content        `json:"contents"`
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

// BuildRequest translates a normalized request into a generateContent payload.
//
// System-role messages are lifted out of the turn sequence; when several are
// present the last one wins, and a non-empty top-level System overrides them
// all. Assistant turns become "model" turns. When no turn remains the prompt
// is used as a single user turn. It returns domain.ErrMissingContent when
// neither yields a turn.
func BuildRequest(in domain.ChatRequest) (Request, error) {
	var (
		contents []Content
		system   string
	)
	for _, m := range in.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = m.Content
			continue
		case domain.RoleAssistant:
			contents = append(contents, textContent("model", m.Content))
		default:
			contents = append(contents, textContent("user", m.Content))
		}
	}
	if len(contents) == 0 && in.Prompt != "" {
		contents = append(contents, textContent("user", in.Prompt))
	}
	if len(contents) == 0 {
		return Request{}, domain.ErrMissingContent
	}
	if in.System != "" {
		system = in.System
	}

	req := Request{
		Contents: contents,
		GenerationConfig: GenerationConfig{
			Temperature:     in.ResolvedTemperature(),
			MaxOutputTokens: in.ResolvedMaxTokens(),
		},
	}
	if system != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: system}}}
	}
	return req, nil
}

func textContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// HTTPStatusError captures non-2xx responses from the Generative Language API.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("google: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the generateContent endpoint. It holds no per-request state.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. No timeout is set on the default HTTP client;
// the invocation context bounds each call.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

func generateContentURL(baseURL, model, apiKey string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/models/" + url.PathEscape(model) + ":generateContent?key=" + url.QueryEscape(apiKey)
}

// GenerateContent posts payload for model and returns the first candidate's
// first text part. A missing candidate, content or part yields empty text.
func (c *Client) GenerateContent(ctx context.Context, apiKey, model string, payload Request) (domain.ChatResponse, error) {
	if model == "" {
		return domain.ChatResponse{}, errors.New("google: model must not be empty")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("google: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, generateContentURL(c.baseURL, model, apiKey), bytes.NewReader(body))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("google: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		// The URL carries the key; report only the transport cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return domain.ChatResponse{}, fmt.Errorf("google: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("google: read response body: %w", err)
	}
	slog.DebugContext(ctx, "google upstream response", "model", model, "status", res.StatusCode, "bytes", len(raw))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.ChatResponse{}, &HTTPStatusError{StatusCode: res.StatusCode, Body: string(raw)}
	}
	if !gjson.ValidBytes(raw) {
		return domain.ChatResponse{}, errors.New("google: decode response: invalid JSON")
	}

	return domain.ChatResponse{
		Text: gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String(),
		Raw:  json.RawMessage(raw),
	}, nil
}
