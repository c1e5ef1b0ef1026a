package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaProvider implements Provider using a local Ollama instance.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllama creates an OllamaProvider connected to the given host and model.
func NewOllama(host, model string, timeout time.Duration) (*OllamaProvider, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama host URL: %w", err)
	}
	httpClient := &http.Client{Timeout: timeout}
	client := api.NewClient(base, httpClient)
	return &OllamaProvider{client: client, model: model}, nil
}

func (o *OllamaProvider) Name() string { return "ollama" }

func (o *OllamaProvider) Capabilities() Capabilities {
	return Capabilities{
		Reasoning:        false,
		Usage:            true,
		TruncationReason: true,
	}
}

// Available checks if Ollama is reachable and the configured model exists.
func (o *OllamaProvider) Available(ctx context.Context) error {
	models, err := o.client.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach Ollama at configured host: %w", err)
	}

	for _, m := range models.Models {
		if m.Name == o.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found in Ollama", o.model)
}

// Generate sends a system+user exchange to Ollama. The output budget maps to
// num_predict; done_reason "length" is reported as budget truncation.
func (o *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	var messages []api.Message
	if req.Instructions != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.Instructions})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Input})

	stream := false
	ollamaReq := &api.ChatRequest{
		Model:    resolveModel(req.Model, o.model),
		Messages: messages,
		Stream:   &stream,
	}
	if req.MaxOutputTokens > 0 {
		ollamaReq.Options = map[string]any{"num_predict": req.MaxOutputTokens}
	}

	var finalResp api.ChatResponse
	err := o.client.Chat(ctx, ollamaReq, func(resp api.ChatResponse) error {
		finalResp = resp
		return nil
	})
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("ollama chat: %w", err)
	}

	usage := Usage{
		InputTokens:  finalResp.PromptEvalCount,
		OutputTokens: finalResp.EvalCount,
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return textResponse(finalResp.Message.Content, finalResp.DoneReason, usage), nil
}
