package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"llm-bridge/internal/domain"
)

// ---------------------------------------------------------------------------
// BuildMessages
// ---------------------------------------------------------------------------

func TestBuildMessages_SystemPrependedThenMessages(t *testing.T) {
	msgs, err := BuildMessages(domain.ChatRequest{
		System:   "be terse",
		Messages: []domain.ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, []domain.ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
	}, msgs)
}

func TestBuildMessages_PreservesOrderAndRoles(t *testing.T) {
	in := []domain.ChatMessage{
		{Role: "system", Content: "tutor"},
		{Role: "user", Content: "¿qué tal?"},
		{Role: "assistant", Content: "bien"},
		{Role: "user", Content: "y tú?"},
	}
	msgs, err := BuildMessages(domain.ChatRequest{Messages: in, Prompt: "ignored"})
	require.NoError(t, err)
	require.Equal(t, in, msgs)
}

func TestBuildMessages_PromptFallback(t *testing.T) {
	msgs, err := BuildMessages(domain.ChatRequest{Prompt: "hello"})
	require.NoError(t, err)
	require.Equal(t, []domain.ChatMessage{{Role: "user", Content: "hello"}}, msgs)
}

func TestBuildMessages_MissingContent(t *testing.T) {
	_, err := BuildMessages(domain.ChatRequest{System: "only system"})
	require.ErrorIs(t, err, domain.ErrMissingContent)

	_, err = BuildMessages(domain.ChatRequest{Messages: []domain.ChatMessage{}})
	require.ErrorIs(t, err, domain.ErrMissingContent)
}

// ---------------------------------------------------------------------------
// Client.ChatCompletion
// ---------------------------------------------------------------------------

type capturedRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(
		WithBaseURL(srv.URL+"/api/v1"),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
}

const okBody = `{"id":"gen-1","object":"chat.completion","created":1700000000,"model":"openai/gpt-oss-20b:free","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Bonjour"}}]}`

func TestClient_ChatCompletion_HappyPath(t *testing.T) {
	var got capturedRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		headers = r.Header.Clone()
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	out, err := newTestClient(srv).ChatCompletion(context.Background(), "sk-or-test", Params{
		Model:       DefaultModel,
		Messages:    []domain.ChatMessage{{Role: "system", Content: "be terse"}, {Role: "user", Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   1024,
		Referer:     "https://app.example.com",
		Title:       "Lingo",
	})
	require.NoError(t, err)
	require.Equal(t, "Bonjour", out.Text)
	require.JSONEq(t, okBody, string(out.Raw))

	require.Equal(t, capturedRequest{
		Model:       DefaultModel,
		Messages:    []domain.ChatMessage{{Role: "system", Content: "be terse"}, {Role: "user", Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   1024,
	}, got)
	require.Equal(t, "Bearer sk-or-test", headers.Get("Authorization"))
	require.Equal(t, "https://app.example.com", headers.Get("HTTP-Referer"))
	require.Equal(t, "Lingo", headers.Get("X-Title"))
}

func TestClient_ChatCompletion_OmitsEmptyReferer(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ChatCompletion(context.Background(), "k", Params{
		Model:    "m",
		Messages: []domain.ChatMessage{{Role: "user", Content: "hi"}},
		Title:    "LLM Bridge",
	})
	require.NoError(t, err)
	require.Empty(t, headers.Get("HTTP-Referer"))
	require.Equal(t, "LLM Bridge", headers.Get("X-Title"))
}

func TestClient_ChatCompletion_NoChoicesYieldsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-2","choices":[]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv).ChatCompletion(context.Background(), "k", Params{Model: "m"})
	require.NoError(t, err)
	require.Equal(t, "", out.Text)
	require.JSONEq(t, `{"id":"gen-2","choices":[]}`, string(out.Raw))
}

func TestClient_ChatCompletion_Non2xxPropagatesStatusAndBody(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusPaymentRequired, http.StatusTooManyRequests, http.StatusBadGateway} {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream says no"}}`))
		}))

		_, err := newTestClient(srv).ChatCompletion(context.Background(), "k", Params{Model: "m"})
		srv.Close()

		var statusErr *HTTPStatusError
		require.True(t, errors.As(err, &statusErr), "status=%d", status)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Equal(t, `{"error":{"message":"upstream says no"}}`, statusErr.Body)
		require.Equal(t, 1, calls, "no retries expected")
	}
}

func TestClient_ChatCompletion_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ChatCompletion(context.Background(), "k", Params{Model: "m"})
	require.Error(t, err)
	var statusErr *HTTPStatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestClient_ChatCompletion_NetworkError(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	_, err := c.ChatCompletion(context.Background(), "k", Params{Model: "m"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_ChatCompletion_EmptyModel(t *testing.T) {
	_, err := NewClient().ChatCompletion(context.Background(), "k", Params{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

func TestBaseURL(t *testing.T) {
	require.Equal(t, "https://openrouter.ai/api/v1/", baseURL(""))
	require.Equal(t, "http://localhost:1234/api/v1/", baseURL("http://localhost:1234/api/v1/"))
	require.Equal(t, "http://localhost:1234/api/v1/", baseURL("http://localhost:1234/api/v1"))
}
