package tutor

import "fmt"

// Mode is a fixed tutoring mode. The set is closed; modes are selected by
// name from the CLI.
type Mode string

const (
	ModeFreeTalk      Mode = "free_talk"
	ModeGrammarFix    Mode = "grammar_fix"
	ModePronunciation Mode = "pronunciation"
	ModeVocabulary    Mode = "vocabulary"
	ModeRoleplay      Mode = "roleplay"
	ModeDailySentence Mode = "daily_sentence"
	ModeExamPrep      Mode = "exam_prep"
	ModeStoryRetell   Mode = "story_retell"
)

// AllModes lists every mode in display order.
var AllModes = []Mode{
	ModeFreeTalk,
	ModeGrammarFix,
	ModePronunciation,
	ModeVocabulary,
	ModeRoleplay,
	ModeDailySentence,
	ModeExamPrep,
	ModeStoryRetell,
}

var modeInstructions = map[Mode]string{
	ModeFreeTalk:      "Have a natural, encouraging conversation in English. Keep replies short and ask a follow-up question.",
	ModeGrammarFix:    "Correct the grammar of the learner's sentence and explain the most important fix in one or two sentences.",
	ModePronunciation: "Coach the learner's pronunciation. Point out sounds that English learners commonly struggle with.",
	ModeVocabulary:    "Teach vocabulary in context. Introduce one or two useful words or phrases related to what the learner said, with a short example sentence each.",
	ModeRoleplay:      "Role-play an everyday scenario (ordering food, a job interview, asking for directions). Stay in character and keep the learner talking.",
	ModeDailySentence: "Give the learner one useful everyday English sentence to practice, explain when to use it, and ask them to try it.",
	ModeExamPrep:      "Act as a speaking-exam examiner. Ask one exam-style question at a time and give brief, constructive feedback on each answer.",
	ModeStoryRetell:   "Tell a very short story, then ask the learner to retell it in their own words. Gently correct the retelling.",
}

// ModeByName resolves a mode name, rejecting anything outside the fixed
// set.
func ModeByName(name string) (Mode, error) {
	m := Mode(name)
	if _, ok := modeInstructions[m]; !ok {
		return "", fmt.Errorf("unknown mode %q", name)
	}
	return m, nil
}

// Instruction returns the mode's tutoring instruction.
func (m Mode) Instruction() string {
	return modeInstructions[m]
}

// Structured reports whether replies in this mode are schema-constrained
// JSON rather than free text.
func (m Mode) Structured() bool {
	return m == ModeGrammarFix
}
