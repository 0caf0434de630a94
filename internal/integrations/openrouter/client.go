// Package openrouter calls OpenRouter's OpenAI-compatible chat-completions API.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"llm-bridge/internal/domain"
	"llm-bridge/internal/integrations/httpcapture"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-oss-20b:free"

	maxResponseBytes = 1 << 20
)

// Params is a fully resolved chat-completions call.
type Params struct {
	Model       string
	Messages    []domain.ChatMessage
	Temperature float64
	MaxTokens   int

	// Referer and Title populate OpenRouter's attribution headers.
	// An empty value omits the header.
	Referer string
	Title   string
}

// BuildMessages flattens a normalized request into the ordered message list:
// the top-level system prompt first, then every message unchanged, or a single
// user turn from the prompt when there are no messages.
func BuildMessages(in domain.ChatRequest) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	if in.System != "" {
		msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: in.System})
	}
	switch {
	case len(in.Messages) > 0:
		msgs = append(msgs, in.Messages...)
	case in.Prompt != "":
		msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: in.Prompt})
	default:
		return nil, domain.ErrMissingContent
	}
	return msgs, nil
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openrouter: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a chat-completions client for OpenRouter. A fresh SDK client is
// built per call because the API key and attribution headers are per request.
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

// WithHTTPClient sets the client whose transport and timeout upstream calls use.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func baseURL(raw string) string {
	base := strings.TrimRight(raw, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/"
}

func (c *Client) captureClient() (*httpcapture.Transport, *http.Client) {
	capture := httpcapture.New(nil)
	capture.MaxBody = maxResponseBytes
	hc := &http.Client{Transport: capture}
	if c.httpClient != nil {
		capture.Base = c.httpClient.Transport
		hc.Timeout = c.httpClient.Timeout
	}
	return capture, hc
}

// ChatCompletion performs one call with retries disabled and returns the first
// choice's message content. No choices yields empty text.
func (c *Client) ChatCompletion(ctx context.Context, apiKey string, p Params) (domain.ChatResponse, error) {
	if p.Model == "" {
		return domain.ChatResponse{}, errors.New("openrouter: model must not be empty")
	}

	capture, hc := c.captureClient()
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL(c.baseURL)),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	}
	if p.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", p.Referer))
	}
	if p.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", p.Title))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       p.Model,
		Messages:    toMessageParams(p.Messages),
		Temperature: openai.Float(p.Temperature),
		MaxTokens:   openai.Int(int64(p.MaxTokens)),
	})
	slog.DebugContext(ctx, "openrouter upstream response", "model", p.Model, "status", capture.StatusCode, "bytes", len(capture.ResponseBody))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return domain.ChatResponse{}, &HTTPStatusError{
				StatusCode: apiErr.StatusCode,
				Body:       string(capture.ResponseBody),
			}
		}
		return domain.ChatResponse{}, fmt.Errorf("openrouter: request failed: %w", err)
	}
	if !gjson.ValidBytes(capture.ResponseBody) {
		return domain.ChatResponse{}, errors.New("openrouter: decode response: invalid JSON")
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	return domain.ChatResponse{
		Text: text,
		Raw:  append([]byte(nil), capture.ResponseBody...),
	}, nil
}

func toMessageParams(msgs []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
