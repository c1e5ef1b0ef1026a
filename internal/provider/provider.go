// Package provider defines the LLM backend interface and implementations.
// Every backend maps its native reply onto GenerateResponse so the suggestion
// pipeline never imports backend-specific types.
package provider

import (
	"context"
	"strings"
)

// GenerateRequest is a single-shot generation request. Callers build a fresh
// value per attempt.
type GenerateRequest struct {
	// Instructions is the fixed system text.
	Instructions string
	// Input is the user-side prompt.
	Input string
	// Model overrides the provider's default model when non-empty.
	Model string
	// MaxOutputTokens is the output-size budget.
	MaxOutputTokens int
	// ReasoningEffort is a decoding hint ("minimal", "low", ...). Providers
	// without reasoning support ignore it.
	ReasoningEffort string
}

// Usage represents token usage metadata when available.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Capabilities describes optional provider features.
type Capabilities struct {
	Reasoning        bool
	Usage            bool
	TruncationReason bool
}

// Provider sends generation requests to an LLM backend.
type Provider interface {
	// Generate sends the request and returns a normalized response. A reply
	// that carries no text is not an error; callers inspect the response.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

	// Name returns the provider name (e.g., "openai").
	Name() string

	// Capabilities returns feature support for the provider backend.
	Capabilities() Capabilities

	// Available checks if this provider is ready to use.
	Available(ctx context.Context) error
}

// resolveModel returns requestModel when non-empty, otherwise defaultModel.
func resolveModel(requestModel, defaultModel string) string {
	if m := strings.TrimSpace(requestModel); m != "" {
		return m
	}
	return defaultModel
}
