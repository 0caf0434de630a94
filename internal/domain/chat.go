package domain

import (
	"encoding/json"
	"errors"
)

// Provider identifies the upstream LLM API a request is routed to.
type Provider string

const (
	ProviderGoogle     Provider = "google"
	ProviderOpenRouter Provider = "openrouter"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// ErrMissingContent is returned by adapters when a request yields no user turn.
var ErrMissingContent = errors.New("missing prompt or messages")

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role" validate:"oneof=system user assistant"`
	Content string `json:"content"`
}

// ChatRequest is the normalized request accepted by the bridge.
type ChatRequest struct {
	Provider    Provider      `json:"provider"`
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages,omitempty" validate:"omitempty,dive"`
	Prompt      string        `json:"prompt,omitempty"`
	System      string        `json:"system,omitempty"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int          `json:"maxTokens,omitempty" validate:"omitempty,gt=0"`
	AppName     string        `json:"appName,omitempty"`
	Referer     string        `json:"referer,omitempty"`
}

// ResolvedTemperature returns the requested temperature or the default.
// An explicit zero is kept.
func (r ChatRequest) ResolvedTemperature() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

func (r ChatRequest) ResolvedMaxTokens() int {
	if r.MaxTokens == nil {
		return DefaultMaxTokens
	}
	return *r.MaxTokens
}

// ResolvedModel returns the requested model, or def when none was given.
func (r ChatRequest) ResolvedModel(def string) string {
	if r.Model == "" {
		return def
	}
	return r.Model
}

// ChatResponse is the normalized reply. Raw carries the provider's response
// body untouched.
type ChatResponse struct {
	Text string          `json:"text"`
	Raw  json.RawMessage `json:"raw"`
}
