// Package suggest turns a natural-language request into one sanitized shell
// command by calling a provider. A response that ran out of output budget
// before producing text is retried once with a larger budget.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpkotak/askcmd/internal/prompt"
	"github.com/hpkotak/askcmd/internal/provider"
)

const (
	// InitialBudget is the output-token budget of the first attempt.
	InitialBudget = 200
	// EscalatedBudget is the budget of the single retry.
	EscalatedBudget = 500
	// ReasoningEffort keeps reasoning models from spending the budget thinking.
	ReasoningEffort = "minimal"
)

// ErrNoSuggestion means no usable command could be produced.
var ErrNoSuggestion = errors.New("no suggestion found")

// Fetcher requests command suggestions from a provider.
type Fetcher struct {
	Provider provider.Provider
	// Model overrides the provider's configured model when non-empty.
	Model string
	// Timeout bounds each generation call when positive.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Fetch returns one command for query that avoids every entry in rejected.
func (f *Fetcher) Fetch(ctx context.Context, query string, rejected []string) (string, error) {
	input := prompt.Build(query, rejected)

	text, resp, err := f.attempt(ctx, input, InitialBudget)
	if err != nil {
		return "", err
	}
	if text == "" && resp.TruncatedByBudget() {
		f.logger().Debug("escalating output budget",
			zap.Int("from", InitialBudget),
			zap.Int("to", EscalatedBudget))
		text, _, err = f.attempt(ctx, input, EscalatedBudget)
		if err != nil {
			return "", err
		}
	}
	if text == "" {
		return "", ErrNoSuggestion
	}

	text = strings.TrimSpace(strings.TrimPrefix(text, "!"))
	if text == "" {
		return "", ErrNoSuggestion
	}
	return text, nil
}

// attempt runs one generation call and returns the sanitized text. A reply
// without any text yields "" rather than an error.
func (f *Fetcher) attempt(ctx context.Context, input string, budget int) (string, provider.GenerateResponse, error) {
	caps := f.Provider.Capabilities()
	req := provider.GenerateRequest{
		Instructions:    prompt.Instructions,
		Input:           input,
		Model:           f.Model,
		MaxOutputTokens: budget,
	}
	if caps.Reasoning {
		req.ReasoningEffort = ReasoningEffort
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	resp, err := f.Provider.Generate(ctx, req)
	if err != nil {
		return "", provider.GenerateResponse{}, fmt.Errorf("requesting suggestion from %s: %w", f.Provider.Name(), err)
	}

	raw, err := resp.Text()
	if err != nil && !errors.Is(err, provider.ErrNoText) {
		return "", resp, err
	}
	text := prompt.Sanitize(raw)

	fields := []zap.Field{
		zap.String("provider", f.Provider.Name()),
		zap.Int("budget", budget),
		zap.String("status", resp.Status),
		zap.Bool("empty", text == ""),
	}
	// Fields the backend cannot report are left out.
	if caps.TruncationReason {
		fields = append(fields, zap.String("incomplete_reason", resp.IncompleteReason))
	}
	if caps.Usage {
		fields = append(fields,
			zap.Int("input_tokens", resp.Usage.InputTokens),
			zap.Int("output_tokens", resp.Usage.OutputTokens))
	}
	f.logger().Debug("generation finished", fields...)

	return text, resp, nil
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
