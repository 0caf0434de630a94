// Package app wires the bridge's dependencies from a loaded Config. Both the
// Lambda entry point and the local dev server build their handler here.
package app

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"llm-bridge/handler"
	"llm-bridge/internal/config"
	"llm-bridge/internal/integrations/google"
	"llm-bridge/internal/integrations/openrouter"
	"llm-bridge/internal/secrets"
	"llm-bridge/internal/usecase"
)

// Options overrides pieces of the wiring. Zero values use the defaults.
type Options struct {
	Secrets    secrets.Source
	HTTPClient *http.Client
}

// NewHandler builds the request handler for cfg.
func NewHandler(ctx context.Context, cfg *config.Config, opts Options) (*handler.Handler, error) {
	src := opts.Secrets
	if src == nil {
		var err error
		src, err = secretSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	googleOpts := []google.Option{google.WithBaseURL(cfg.GoogleBaseURL)}
	openRouterOpts := []openrouter.Option{openrouter.WithBaseURL(cfg.OpenRouterBaseURL)}
	if opts.HTTPClient != nil {
		googleOpts = append(googleOpts, google.WithHTTPClient(opts.HTTPClient))
		openRouterOpts = append(openRouterOpts, openrouter.WithHTTPClient(opts.HTTPClient))
	}

	googleAdapter, err := usecase.NewGoogleAdapter(google.NewClient(googleOpts...), src)
	if err != nil {
		return nil, fmt.Errorf("app: google adapter: %w", err)
	}
	openRouterAdapter, err := usecase.NewOpenRouterAdapter(openrouter.NewClient(openRouterOpts...), src)
	if err != nil {
		return nil, fmt.Errorf("app: openrouter adapter: %w", err)
	}
	chat, err := usecase.NewChatService(googleAdapter, openRouterAdapter)
	if err != nil {
		return nil, fmt.Errorf("app: chat service: %w", err)
	}
	return handler.NewHandler(chat)
}

func secretSource(ctx context.Context, cfg *config.Config) (secrets.Source, error) {
	if cfg.SecretsSource != config.SecretsFromSSM {
		return secrets.Env{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load AWS config: %w", err)
	}
	src, err := secrets.NewSSM(awsssm.NewFromConfig(awsCfg), cfg.ParamPrefix)
	if err != nil {
		return nil, fmt.Errorf("app: ssm secrets: %w", err)
	}
	return src, nil
}
