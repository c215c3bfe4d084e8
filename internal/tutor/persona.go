package tutor

import (
	"fmt"
	"strings"

	"github.com/khalid307-hue/speakcoach/internal/session"
)

// Personas is the fixed set of tutor identities. Each pairs a prebuilt
// voice with a coaching style.
var Personas = []session.Persona{
	{
		Name:        "Emma",
		Voice:       "Aoede",
		Instruction: "You are Emma, a warm and patient English tutor. Encourage the learner, celebrate small wins, and never overwhelm them with corrections.",
	},
	{
		Name:        "Max",
		Voice:       "Puck",
		Instruction: "You are Max, a focused exam coach. Be direct and structured, push the learner toward precise, exam-ready answers.",
	},
	{
		Name:        "Lily",
		Voice:       "Kore",
		Instruction: "You are Lily, a casual conversation partner. Chat like a friend, use everyday expressions, and keep the conversation flowing.",
	},
}

// PersonaByName resolves a persona case-insensitively.
func PersonaByName(name string) (session.Persona, error) {
	for _, p := range Personas {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return session.Persona{}, fmt.Errorf("unknown persona %q", name)
}

// LivePersona combines a persona with a mode into the session persona used
// for a voice session: the persona's identity plus the mode's tutoring
// instruction.
func LivePersona(p session.Persona, m Mode) session.Persona {
	out := p
	out.Instruction = p.Instruction + "\n\n" + m.Instruction() +
		"\n\nAlways speak English. Keep spoken replies under three sentences."
	return out
}
