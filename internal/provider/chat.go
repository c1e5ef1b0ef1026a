package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChatProvider implements Provider on top of an OpenAI-compatible Chat
// Completions endpoint (LiteLLM, vLLM, Azure-style gateways, ...).
type ChatProvider struct {
	client *openai.Client
	model  string
}

// NewChat creates a ChatProvider for the given base URL and model.
func NewChat(host, model, apiKey string, timeout time.Duration) (*ChatProvider, error) {
	base := strings.TrimSpace(host)
	if base == "" {
		return nil, fmt.Errorf("openai host cannot be empty")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parsing openai host URL: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required (set OPENAI_API_KEY)")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(base, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &ChatProvider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *ChatProvider) Name() string { return "openai-chat" }

func (c *ChatProvider) Capabilities() Capabilities {
	return Capabilities{
		Reasoning:        false,
		Usage:            true,
		TruncationReason: true,
	}
}

// Available checks if the endpoint is reachable and lists the configured model.
func (c *ChatProvider) Available(ctx context.Context) error {
	models, err := c.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("checking openai-chat availability: %w", err)
	}
	for _, m := range models.Models {
		if m.ID == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found in models list", c.model)
}

// Generate sends instructions as the system message and input as the user
// message. A "length" finish reason is reported as budget truncation.
func (c *ChatProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	var messages []openai.ChatCompletionMessage
	if req.Instructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.Instructions,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Input,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     resolveModel(req.Model, c.model),
		Messages:  messages,
		MaxTokens: req.MaxOutputTokens,
	})
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("openai-chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return GenerateResponse{}, fmt.Errorf("empty response from model")
	}

	choice := resp.Choices[0]
	usage := Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	return textResponse(choice.Message.Content, string(choice.FinishReason), usage), nil
}
