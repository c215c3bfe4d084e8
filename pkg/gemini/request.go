package gemini

import (
	"encoding/json"
)

// GenerateRequest describes a single generateContent round trip.
type GenerateRequest struct {
	// System is the instruction text for this turn.
	System string

	// Input is the user text for this turn.
	Input string

	// Temperature controls response randomness.
	Temperature *float64

	// MaxTokens limits the response length. Zero uses DefaultMaxTokens.
	MaxTokens int

	// ResponseSchema, when set, constrains the response to JSON matching
	// the schema. The raw candidate text is then a JSON document.
	ResponseSchema *JSONSchema
}

// geminiRequest is the Gemini API request format.
// Note: Gemini API uses camelCase for JSON field names.
type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

// geminiContent represents a content object in Gemini format.
type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

// geminiPart represents a single part within content.
type geminiPart struct {
	Text string `json:"text,omitempty"`
}

// geminiGenConfig contains generation configuration.
type geminiGenConfig struct {
	Temperature        *float64        `json:"temperature,omitempty"`
	MaxOutputTokens    *int            `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType   string          `json:"responseMimeType,omitempty"`
	ResponseJSONSchema json.RawMessage `json:"responseJsonSchema,omitempty"`
}

// buildRequest converts a GenerateRequest to the Gemini wire format.
func buildRequest(req *GenerateRequest) *geminiRequest {
	geminiReq := &geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Input}},
		}},
	}

	if req.System != "" {
		geminiReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.System}},
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	config := &geminiGenConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: &maxTokens,
	}

	if req.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		if raw, err := json.Marshal(req.ResponseSchema); err == nil {
			config.ResponseJSONSchema = raw
		}
	}
	geminiReq.GenerationConfig = config

	return geminiReq
}
