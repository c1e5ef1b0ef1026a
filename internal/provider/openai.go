package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const openAIErrorBodyLimit = 512

// OpenAIProvider implements Provider using the OpenAI Responses API.
type OpenAIProvider struct {
	client *http.Client
	host   string
	model  string
	apiKey string
}

// NewOpenAI creates an OpenAIProvider connected to the given host and model.
func NewOpenAI(host, model, apiKey string, timeout time.Duration) (*OpenAIProvider, error) {
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

	return &OpenAIProvider{
		client: &http.Client{Timeout: timeout},
		host:   strings.TrimRight(base, "/"),
		model:  model,
		apiKey: apiKey,
	}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Capabilities() Capabilities {
	return Capabilities{
		Reasoning:        true,
		Usage:            true,
		TruncationReason: true,
	}
}

// Available checks if OpenAI is reachable and the configured model exists.
func (o *OpenAIProvider) Available(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.host+"/models", nil)
	if err != nil {
		return fmt.Errorf("building openai availability request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("checking openai availability: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("openai availability check failed: %s", readErrorBody(resp.Body))
	}

	var decoded struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decoding openai models response: %w", err)
	}

	for _, m := range decoded.Data {
		if m.ID == o.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found in OpenAI models list", o.model)
}

// Generate posts a single-turn request to /responses.
func (o *OpenAIProvider) Generate(ctx context.Context, genReq GenerateRequest) (GenerateResponse, error) {
	type reasoning struct {
		Effort string `json:"effort"`
	}

	type responsesRequest struct {
		Model           string     `json:"model"`
		Instructions    string     `json:"instructions,omitempty"`
		Input           string     `json:"input"`
		MaxOutputTokens int        `json:"max_output_tokens,omitempty"`
		Reasoning       *reasoning `json:"reasoning,omitempty"`
		Store           bool       `json:"store"`
	}

	reqBody := responsesRequest{
		Model:           resolveModel(genReq.Model, o.model),
		Instructions:    genReq.Instructions,
		Input:           genReq.Input,
		MaxOutputTokens: genReq.MaxOutputTokens,
	}
	if genReq.ReasoningEffort != "" {
		reqBody.Reasoning = &reasoning{Effort: genReq.ReasoningEffort}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("encoding openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		o.host+"/responses",
		bytes.NewReader(body),
	)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("building openai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("openai request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return GenerateResponse{}, fmt.Errorf("openai request failed (%d): %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded struct {
		Status            string `json:"status"`
		OutputText        string `json:"output_text"`
		IncompleteDetails *struct {
			Reason string `json:"reason"`
		} `json:"incomplete_details"`
		Output []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
			TotalTokens  int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return GenerateResponse{}, fmt.Errorf("decoding openai response: %w", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return GenerateResponse{}, fmt.Errorf("openai error: %s", decoded.Error.Message)
	}

	out := GenerateResponse{
		OutputText: decoded.OutputText,
		Status:     decoded.Status,
		Usage: Usage{
			InputTokens:  decoded.Usage.InputTokens,
			OutputTokens: decoded.Usage.OutputTokens,
			TotalTokens:  decoded.Usage.TotalTokens,
		},
	}
	if out.Usage.TotalTokens == 0 {
		out.Usage.TotalTokens = out.Usage.InputTokens + out.Usage.OutputTokens
	}
	if decoded.IncompleteDetails != nil {
		out.IncompleteReason = decoded.IncompleteDetails.Reason
	}
	for _, item := range decoded.Output {
		oi := OutputItem{Type: item.Type}
		for _, c := range item.Content {
			oi.Content = append(oi.Content, ContentPart{Type: c.Type, Text: c.Text})
		}
		out.Output = append(out.Output, oi)
	}
	return out, nil
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, openAIErrorBodyLimit))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "unknown error"
	}
	return text
}
