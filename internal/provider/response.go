package provider

import (
	"errors"
	"strings"
)

// IncompleteMaxOutputTokens is the normalized incomplete reason for a reply
// cut off by the output-size budget. Backends map their native "length" stop
// reasons onto it.
const IncompleteMaxOutputTokens = "max_output_tokens"

// ErrNoText is returned by GenerateResponse.Text when neither response shape
// carries any text.
var ErrNoText = errors.New("response carried no text")

// ContentPart is one text fragment inside an output item.
type ContentPart struct {
	Type string
	Text string
}

// OutputItem is one structured output entry (message, reasoning, ...).
type OutputItem struct {
	Type    string
	Content []ContentPart
}

// GenerateResponse is a normalized provider response. Text lives in one of
// two shapes: the direct OutputText field, or fragments nested in Output.
type GenerateResponse struct {
	OutputText string
	Output     []OutputItem
	// Status is "completed" or "incomplete" when the backend reports it.
	Status string
	// IncompleteReason explains an incomplete reply, e.g. IncompleteMaxOutputTokens.
	IncompleteReason string
	Usage            Usage
}

// Text extracts the reply text. OutputText wins when present; otherwise all
// nested fragments are concatenated in order.
func (r GenerateResponse) Text() (string, error) {
	if strings.TrimSpace(r.OutputText) != "" {
		return r.OutputText, nil
	}

	var b strings.Builder
	for _, item := range r.Output {
		for _, part := range item.Content {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}
	return b.String(), nil
}

// TruncatedByBudget reports whether the reply hit the output-size budget.
func (r GenerateResponse) TruncatedByBudget() bool {
	return r.IncompleteReason == IncompleteMaxOutputTokens
}

// textResponse wraps plain reply text in the direct shape.
func textResponse(text, stopReason string, usage Usage) GenerateResponse {
	resp := GenerateResponse{
		OutputText: text,
		Status:     "completed",
		Usage:      usage,
	}
	if stopReason == "length" || stopReason == IncompleteMaxOutputTokens {
		resp.Status = "incomplete"
		resp.IncompleteReason = IncompleteMaxOutputTokens
	}
	return resp
}
