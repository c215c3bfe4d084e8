package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khalid307-hue/speakcoach/pkg/core"
)

// GenerateResponse is the parsed result of a generateContent call.
type GenerateResponse struct {
	// Text is the concatenated text of the first candidate.
	Text string

	// FinishReason is the raw Gemini finish reason (e.g. "STOP").
	FinishReason string

	// Model is the model that produced the response.
	Model string

	// Usage reports token accounting when the API returns it.
	Usage Usage
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// DecodeJSON unmarshals the candidate text into v. It is meant for
// schema-constrained responses; malformed output yields a parse error so
// callers can fall back to a deterministic placeholder.
func (r *GenerateResponse) DecodeJSON(v any) error {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return core.NewParseError("empty structured response")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return core.NewParseError(fmt.Sprintf("decode structured response: %v", err))
	}
	return nil
}

// geminiResponse is the Gemini API response format.
type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
}

// geminiCandidate represents a single candidate response.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

// geminiUsage contains token usage information.
type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// parseResponse parses a Gemini response body.
func parseResponse(body []byte, model string) (*GenerateResponse, error) {
	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := geminiResp.Candidates[0]

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	resp := &GenerateResponse{
		Text:         text.String(),
		FinishReason: candidate.FinishReason,
		Model:        model,
	}
	if geminiResp.UsageMetadata != nil {
		resp.Usage = Usage{
			InputTokens:  geminiResp.UsageMetadata.PromptTokenCount,
			OutputTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  geminiResp.UsageMetadata.TotalTokenCount,
		}
	}
	return resp, nil
}
