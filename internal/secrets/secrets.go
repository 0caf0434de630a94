// Package secrets resolves provider credentials at request time.
//
// A Source is consulted on every invocation and never caches, so rotating a
// key or configuring a second provider takes effect without a redeploy.
// An absent secret is reported as an empty string with a nil error.
package secrets

import (
	"context"
	"os"
)

const (
	GeminiAPIKey     = "GEMINI_API_KEY"
	OpenRouterAPIKey = "OPENROUTER_API_KEY"
	AppName          = "APP_NAME"
)

// Source looks up a named secret.
type Source interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Env reads secrets from the process environment.
type Env struct{}

func (Env) GetSecret(_ context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// Static serves secrets from a fixed map.
type Static map[string]string

func (s Static) GetSecret(_ context.Context, name string) (string, error) {
	return s[name], nil
}
