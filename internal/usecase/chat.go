package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"llm-bridge/internal/domain"
)

// ChatInput is one inbound bridge invocation.
type ChatInput struct {
	Body   []byte
	Origin string
}

// ChatService validates a request, routes it to the provider's adapter and
// normalizes every failure into an *Error. It holds no per-request state.
type ChatService struct {
	validator  *RequestValidator
	google     Adapter
	openRouter Adapter
}

func NewChatService(google, openRouter Adapter) (*ChatService, error) {
	if google == nil {
		return nil, errors.New("usecase: google adapter must not be nil")
	}
	if openRouter == nil {
		return nil, errors.New("usecase: openrouter adapter must not be nil")
	}
	return &ChatService{
		validator:  NewRequestValidator(),
		google:     google,
		openRouter: openRouter,
	}, nil
}

// Chat handles one invocation. On failure the returned error is always an *Error.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (domain.ChatResponse, error) {
	req, err := s.validator.Parse(in.Body)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	return s.dispatch(ctx, req, Call{Origin: in.Origin})
}

func (s *ChatService) adapterFor(p domain.Provider) (Adapter, bool) {
	switch p {
	case domain.ProviderGoogle:
		return s.google, true
	case domain.ProviderOpenRouter:
		return s.openRouter, true
	default:
		return nil, false
	}
}

func (s *ChatService) dispatch(ctx context.Context, req domain.ChatRequest, call Call) (out domain.ChatResponse, err error) {
	adapter, ok := s.adapterFor(req.Provider)
	if !ok {
		return domain.ChatResponse{}, newError(ErrorUnsupportedProvider, http.StatusBadRequest, "Unsupported provider", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "adapter panic", "provider", string(req.Provider), "panic", r, "stack", string(debug.Stack()))
			out, err = domain.ChatResponse{}, internalError(fmt.Errorf("panic: %v", r))
		}
	}()

	out, err = adapter.Complete(ctx, req, call)
	if err != nil {
		normalized := normalizeError(err)
		slog.DebugContext(ctx, "adapter failed", "provider", string(req.Provider), "error_code", string(normalized.Code), "status", normalized.Status)
		return domain.ChatResponse{}, normalized
	}
	slog.DebugContext(ctx, "adapter completed", "provider", string(req.Provider), "text_bytes", len(out.Text))
	return out, nil
}

// normalizeError keeps classified failures and folds everything else into
// INTERNAL_ERROR carrying the error text.
func normalizeError(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return internalError(err)
}
