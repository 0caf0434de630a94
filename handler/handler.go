package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"llm-bridge/internal/domain"
	"llm-bridge/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	allowHeaders      = "authorization, x-client-info, apikey, content-type"
	allowMethods      = "POST,OPTIONS"
)

type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (domain.ChatResponse, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler is the API Gateway proxy entry point. Every response it returns,
// including failures, carries the CORS headers.
type Handler struct {
	chat ChatUseCase
}

func NewHandler(chat ChatUseCase) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{chat: chat}, nil
}

// Handle never returns a non-nil error; failures are encoded in the response.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = newCorrelationID()
	}
	logger := slog.With("correlation_id", correlationID, "method", event.HTTPMethod)

	resp, code := h.route(ctx, event)
	for k, v := range corsHeaders() {
		resp.Headers[k] = v
	}
	resp.Headers[correlationHeader] = correlationID

	attrs := []any{"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds()}
	if code != "" {
		attrs = append(attrs, "error_code", string(code))
	}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		logger.ErrorContext(ctx, "request failed", attrs...)
	case resp.StatusCode >= http.StatusBadRequest:
		logger.WarnContext(ctx, "request rejected", attrs...)
	default:
		logger.InfoContext(ctx, "request handled", attrs...)
	}
	return resp, nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, usecase.ErrorCode) {
	switch strings.ToUpper(event.HTTPMethod) {
	case http.MethodOptions:
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"Content-Type": "text/plain"},
			Body:       "ok",
		}, ""
	case http.MethodPost:
	default:
		return errorJSON(http.StatusMethodNotAllowed, "Method not allowed"), ""
	}

	body, err := requestBody(event)
	if err != nil {
		return errorJSON(http.StatusBadRequest, "Invalid JSON: "+err.Error()), usecase.ErrorInvalidBody
	}

	out, err := h.chat.Chat(ctx, usecase.ChatInput{Body: body, Origin: requestOrigin(event)})
	if err != nil {
		var usecaseErr *usecase.Error
		if errors.As(err, &usecaseErr) {
			return errorJSON(usecaseErr.Status, usecaseErr.Message), usecaseErr.Code
		}
		return errorJSON(http.StatusInternalServerError, err.Error()), usecase.ErrorInternal
	}

	b, err := json.Marshal(out)
	if err != nil {
		return errorJSON(http.StatusInternalServerError, err.Error()), usecase.ErrorInternal
	}
	return jsonResponse(http.StatusOK, string(b)), ""
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": allowHeaders,
		"Access-Control-Allow-Methods": allowMethods,
	}
}

func jsonResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func errorJSON(status int, message string) events.APIGatewayProxyResponse {
	b, _ := json.Marshal(errorResponse{Error: message})
	return jsonResponse(status, string(b))
}

func requestBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	return base64.StdEncoding.DecodeString(event.Body)
}

// requestOrigin is the scheme and host the bridge itself was invoked on.
func requestOrigin(event events.APIGatewayProxyRequest) string {
	host := event.RequestContext.DomainName
	if host == "" {
		host = headerValue(event.Headers, "Host")
	}
	if host == "" {
		return ""
	}
	proto := headerValue(event.Headers, "X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	return proto + "://" + host
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
