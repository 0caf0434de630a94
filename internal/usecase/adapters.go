package usecase

import (
	"context"
	"errors"
	"net/http"

	"llm-bridge/internal/domain"
	"llm-bridge/internal/integrations/google"
	"llm-bridge/internal/integrations/openrouter"
	"llm-bridge/internal/secrets"
)

// DefaultAppTitle is the X-Title sent to OpenRouter when neither the request
// nor the APP_NAME secret provides one.
const DefaultAppTitle = "LLM Bridge"

// Call carries per-invocation facts an adapter may need beyond the request.
type Call struct {
	// Origin is the scheme and host the bridge was invoked on.
	Origin string
}

// Adapter translates a normalized request into one upstream provider call and
// parses the reply. Expected failures are returned as *Error.
type Adapter interface {
	Complete(ctx context.Context, req domain.ChatRequest, call Call) (domain.ChatResponse, error)
}

type GoogleAPI interface {
	GenerateContent(ctx context.Context, apiKey, model string, payload google.Request) (domain.ChatResponse, error)
}

type OpenRouterAPI interface {
	ChatCompletion(ctx context.Context, apiKey string, p openrouter.Params) (domain.ChatResponse, error)
}

// GoogleAdapter binds the Generative Language API client to the Adapter contract.
type GoogleAdapter struct {
	api     GoogleAPI
	secrets secrets.Source
}

func NewGoogleAdapter(api GoogleAPI, src secrets.Source) (*GoogleAdapter, error) {
	if api == nil {
		return nil, errors.New("usecase: google api must not be nil")
	}
	if src == nil {
		return nil, errors.New("usecase: secret source must not be nil")
	}
	return &GoogleAdapter{api: api, secrets: src}, nil
}

func (a *GoogleAdapter) Complete(ctx context.Context, req domain.ChatRequest, _ Call) (domain.ChatResponse, error) {
	payload, err := google.BuildRequest(req)
	if err != nil {
		return domain.ChatResponse{}, contentError(err)
	}
	apiKey, err := requireSecret(ctx, a.secrets, secrets.GeminiAPIKey)
	if err != nil {
		return domain.ChatResponse{}, err
	}

	out, err := a.api.GenerateContent(ctx, apiKey, req.ResolvedModel(google.DefaultModel), payload)
	if err != nil {
		var statusErr *google.HTTPStatusError
		if errors.As(err, &statusErr) {
			return domain.ChatResponse{}, upstreamError("Google", statusErr.StatusCode, statusErr.Body, err)
		}
		return domain.ChatResponse{}, err
	}
	return out, nil
}

// OpenRouterAdapter binds the OpenRouter client to the Adapter contract.
type OpenRouterAdapter struct {
	api     OpenRouterAPI
	secrets secrets.Source
}

func NewOpenRouterAdapter(api OpenRouterAPI, src secrets.Source) (*OpenRouterAdapter, error) {
	if api == nil {
		return nil, errors.New("usecase: openrouter api must not be nil")
	}
	if src == nil {
		return nil, errors.New("usecase: secret source must not be nil")
	}
	return &OpenRouterAdapter{api: api, secrets: src}, nil
}

func (a *OpenRouterAdapter) Complete(ctx context.Context, req domain.ChatRequest, call Call) (domain.ChatResponse, error) {
	msgs, err := openrouter.BuildMessages(req)
	if err != nil {
		return domain.ChatResponse{}, contentError(err)
	}
	apiKey, err := requireSecret(ctx, a.secrets, secrets.OpenRouterAPIKey)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	title, err := a.title(ctx, req)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	referer := req.Referer
	if referer == "" {
		referer = call.Origin
	}

	out, err := a.api.ChatCompletion(ctx, apiKey, openrouter.Params{
		Model:       req.ResolvedModel(openrouter.DefaultModel),
		Messages:    msgs,
		Temperature: req.ResolvedTemperature(),
		MaxTokens:   req.ResolvedMaxTokens(),
		Referer:     referer,
		Title:       title,
	})
	if err != nil {
		var statusErr *openrouter.HTTPStatusError
		if errors.As(err, &statusErr) {
			return domain.ChatResponse{}, upstreamError("OpenRouter", statusErr.StatusCode, statusErr.Body, err)
		}
		return domain.ChatResponse{}, err
	}
	return out, nil
}

func (a *OpenRouterAdapter) title(ctx context.Context, req domain.ChatRequest) (string, error) {
	if req.AppName != "" {
		return req.AppName, nil
	}
	name, err := a.secrets.GetSecret(ctx, secrets.AppName)
	if err != nil {
		return "", err
	}
	if name != "" {
		return name, nil
	}
	return DefaultAppTitle, nil
}

func contentError(err error) error {
	if errors.Is(err, domain.ErrMissingContent) {
		return newError(ErrorMissingContent, http.StatusBadRequest, "Missing prompt or messages", err)
	}
	return err
}

// requireSecret returns the named secret or a MissingCredential error when it
// is absent. Source failures pass through unclassified.
func requireSecret(ctx context.Context, src secrets.Source, name string) (string, error) {
	v, err := src.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", missingCredential(name)
	}
	return v, nil
}
