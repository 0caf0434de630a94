package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"llm-bridge/internal/config"
	"llm-bridge/internal/secrets"
)

func TestNewHandler_WiresBothProviders(t *testing.T) {
	var paths []string
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		paths = append(paths, r.URL.Path)
		queries = append(queries, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":generateContent") {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"from google"}]}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"from openrouter"}}]}`))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		SecretsSource:     config.SecretsFromEnv,
		GoogleBaseURL:     srv.URL + "/v1beta",
		OpenRouterBaseURL: srv.URL + "/api/v1",
		LogLevel:          "info",
	}
	h, err := NewHandler(context.Background(), cfg, Options{
		Secrets:    secrets.Static{secrets.GeminiAPIKey: "gm", secrets.OpenRouterAPIKey: "or"},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"provider":"google","prompt":"hi"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Body, `"text":"from google"`)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"provider":"openrouter","prompt":"hi"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Body, `"text":"from openrouter"`)

	require.Equal(t, []string{"/v1beta/models/gemini-2.5-flash-lite:generateContent", "/api/v1/chat/completions"}, paths)
	require.Equal(t, "key=gm", queries[0])
}

func TestNewHandler_EnvSecretsByDefault(t *testing.T) {
	t.Setenv(secrets.GeminiAPIKey, "")
	cfg := &config.Config{
		SecretsSource:     config.SecretsFromEnv,
		GoogleBaseURL:     "http://127.0.0.1:1/v1beta",
		OpenRouterBaseURL: "http://127.0.0.1:1/api/v1",
	}
	h, err := NewHandler(context.Background(), cfg, Options{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"provider":"google","prompt":"hi"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.JSONEq(t, `{"error":"Missing GEMINI_API_KEY server secret"}`, resp.Body)
}
