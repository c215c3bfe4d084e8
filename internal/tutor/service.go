package tutor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/khalid307-hue/speakcoach/pkg/gemini"
)

// FallbackReply is returned by Respond when the remote call fails.
const FallbackReply = "Sorry, I couldn't process that right now. Please try again."

// FallbackScoreFeedback is the placeholder feedback for a failed scoring
// call.
const FallbackScoreFeedback = "Scoring is unavailable right now. Try the sentence again in a moment."

// Correction is the structured grammar_fix result.
type Correction struct {
	CorrectedText string `json:"correctedText" desc:"The learner's sentence rewritten with correct grammar."`
	Explanation   string `json:"explanation" desc:"A short explanation of the most important correction."`
}

// PronunciationScore is the structured scoring result. Score is clamped to
// 0..100.
type PronunciationScore struct {
	Score    int      `json:"score" desc:"Overall pronunciation score from 0 to 100."`
	Feedback []string `json:"feedback" desc:"Ordered, specific feedback points for the learner."`
}

// Generator is the one-shot generation capability. *gemini.Provider
// satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}

// Service runs the stateless one-shot helpers. Every helper fails closed:
// a transport or parse failure yields a deterministic fallback value, never
// an error. These are advisory features; the caller has nothing useful to
// do with the failure.
type Service struct {
	gen   Generator
	model string
	log   *slog.Logger
}

// NewService creates a helper service against the given one-shot model.
func NewService(gen Generator, model string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{gen: gen, model: model, log: log}
}

// Respond runs one tutoring turn. Free modes return reply text, falling
// back to FallbackReply on any failure. grammar_fix instead returns a
// schema-constrained Correction; use FixGrammar for the typed result.
func (s *Service) Respond(ctx context.Context, mode Mode, text string) string {
	if mode.Structured() {
		c := s.FixGrammar(ctx, text)
		if c.CorrectedText == "" {
			return FallbackReply
		}
		return c.CorrectedText + "\n" + c.Explanation
	}

	resp, err := s.gen.GenerateContent(ctx, s.model, &gemini.GenerateRequest{
		System: mode.Instruction(),
		Input:  text,
	})
	if err != nil {
		s.log.Warn("tutor reply failed", "mode", mode, "error", err)
		return FallbackReply
	}
	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return FallbackReply
	}
	return reply
}

// FixGrammar corrects one sentence, constraining the response to the
// Correction schema. Any failure returns the zero value.
func (s *Service) FixGrammar(ctx context.Context, text string) Correction {
	resp, err := s.gen.GenerateContent(ctx, s.model, &gemini.GenerateRequest{
		System:         ModeGrammarFix.Instruction(),
		Input:          text,
		ResponseSchema: gemini.SchemaFromStruct[Correction](),
	})
	if err != nil {
		s.log.Warn("grammar fix failed", "error", err)
		return Correction{}
	}

	var c Correction
	if err := resp.DecodeJSON(&c); err != nil {
		s.log.Warn("grammar fix returned malformed JSON", "error", err)
		return Correction{}
	}
	return c
}

// ScorePronunciation scores a spoken attempt against a target sentence.
// The score is clamped to 0..100; failures return {0, [placeholder]}.
func (s *Service) ScorePronunciation(ctx context.Context, target, spoken string) PronunciationScore {
	fallback := PronunciationScore{Score: 0, Feedback: []string{FallbackScoreFeedback}}

	resp, err := s.gen.GenerateContent(ctx, s.model, &gemini.GenerateRequest{
		System:         "Score how well the spoken attempt matches the target sentence's pronunciation and wording. Be specific about which words or sounds need work.",
		Input:          "Target: " + target + "\nSpoken: " + spoken,
		ResponseSchema: gemini.SchemaFromStruct[PronunciationScore](),
	})
	if err != nil {
		s.log.Warn("pronunciation scoring failed", "error", err)
		return fallback
	}

	var score PronunciationScore
	if err := resp.DecodeJSON(&score); err != nil {
		s.log.Warn("pronunciation scoring returned malformed JSON", "error", err)
		return fallback
	}
	if score.Score < 0 {
		score.Score = 0
	}
	if score.Score > 100 {
		score.Score = 100
	}
	if len(score.Feedback) == 0 {
		score.Feedback = []string{FallbackScoreFeedback}
	}
	return score
}
