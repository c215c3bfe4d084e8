package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/khalid307-hue/speakcoach/pkg/gemini"
)

// candidateBody wraps text in the generateContent response envelope.
func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]string{{"text": text}},
			},
			"finishReason": "STOP",
		}},
	})
	return string(b)
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	provider := gemini.New("test-key", gemini.WithBaseURL(srv.URL))
	return NewService(provider, "test-model", nil), srv
}

func TestRespond_ReturnsReplyText(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody("Great sentence! What did you do next?"))
	})

	got := svc.Respond(context.Background(), ModeFreeTalk, "I visited the museum.")
	if got != "Great sentence! What did you do next?" {
		t.Fatalf("Respond = %q", got)
	}
}

func TestRespond_TransportFailureFallsBack(t *testing.T) {
	svc, srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close() // connection refused from here on

	got := svc.Respond(context.Background(), ModeFreeTalk, "hello")
	if got != FallbackReply {
		t.Fatalf("Respond = %q, want fallback", got)
	}
}

func TestRespond_ServerErrorFallsBack(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
	})

	got := svc.Respond(context.Background(), ModeFreeTalk, "hello")
	if got != FallbackReply {
		t.Fatalf("Respond = %q, want fallback", got)
	}
}

func TestFixGrammar_DecodesStructuredResult(t *testing.T) {
	var sawSchema bool
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GenerationConfig struct {
				ResponseMIMEType   string          `json:"responseMimeType"`
				ResponseJSONSchema json.RawMessage `json:"responseJsonSchema"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		sawSchema = req.GenerationConfig.ResponseMIMEType == "application/json" &&
			len(req.GenerationConfig.ResponseJSONSchema) > 0
		fmt.Fprint(w, candidateBody(`{"correctedText":"I went to school.","explanation":"Past tense of go is went."}`))
	})

	c := svc.FixGrammar(context.Background(), "I goed to school.")
	if c.CorrectedText != "I went to school." {
		t.Fatalf("CorrectedText = %q", c.CorrectedText)
	}
	if c.Explanation == "" {
		t.Fatalf("Explanation is empty")
	}
	if !sawSchema {
		t.Fatalf("request did not constrain the response schema")
	}
}

func TestFixGrammar_MalformedJSONFallsBackToZeroValue(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody(`not json at all`))
	})

	c := svc.FixGrammar(context.Background(), "I goed to school.")
	if c != (Correction{}) {
		t.Fatalf("FixGrammar = %+v, want zero value", c)
	}
}

func TestScorePronunciation_ClampsScore(t *testing.T) {
	for _, tc := range []struct {
		raw  int
		want int
	}{
		{150, 100},
		{-20, 0},
		{85, 85},
	} {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, candidateBody(fmt.Sprintf(`{"score":%d,"feedback":["good rhythm"]}`, tc.raw)))
		})
		got := svc.ScorePronunciation(context.Background(), "The weather is nice.", "Ze wezer is nice.")
		if got.Score != tc.want {
			t.Fatalf("score %d clamped to %d, want %d", tc.raw, got.Score, tc.want)
		}
	}
}

func TestScorePronunciation_FailureReturnsZeroScoreWithFeedback(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody(`{broken`))
	})

	got := svc.ScorePronunciation(context.Background(), "target", "spoken")
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0", got.Score)
	}
	if len(got.Feedback) == 0 || got.Feedback[0] == "" {
		t.Fatalf("feedback = %v, want non-empty placeholder", got.Feedback)
	}
}

func TestScorePronunciation_EmptyFeedbackGetsPlaceholder(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody(`{"score":70,"feedback":[]}`))
	})

	got := svc.ScorePronunciation(context.Background(), "target", "spoken")
	if got.Score != 70 {
		t.Fatalf("score = %d, want 70", got.Score)
	}
	if len(got.Feedback) != 1 || got.Feedback[0] != FallbackScoreFeedback {
		t.Fatalf("feedback = %v, want placeholder", got.Feedback)
	}
}

func TestModeByName(t *testing.T) {
	for _, m := range AllModes {
		got, err := ModeByName(string(m))
		if err != nil || got != m {
			t.Fatalf("ModeByName(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ModeByName("mind_reading"); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}

func TestPersonaByName_CaseInsensitive(t *testing.T) {
	p, err := PersonaByName("emma")
	if err != nil {
		t.Fatalf("PersonaByName: %v", err)
	}
	if p.Voice != "Aoede" {
		t.Fatalf("voice = %q, want Aoede", p.Voice)
	}
	if _, err := PersonaByName("Zoe"); err == nil {
		t.Fatalf("unknown persona accepted")
	}
}

func TestLivePersona_CombinesIdentityAndMode(t *testing.T) {
	p, _ := PersonaByName("Max")
	lp := LivePersona(p, ModeExamPrep)
	if lp.Voice != "Puck" {
		t.Fatalf("voice = %q, want Puck", lp.Voice)
	}
	if lp.Instruction == p.Instruction {
		t.Fatalf("mode instruction not appended")
	}
}
