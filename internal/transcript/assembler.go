// Package transcript assembles streamed partial transcripts into finalized
// conversation messages at turn boundaries.
package transcript

import (
	"strings"
	"sync"
	"time"
)

// Role identifies the speaker of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is an immutable finalized conversation entry.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Assembler accumulates per-turn transcript deltas for both directions and
// flushes them into a message pair at each turn boundary. It never holds
// content across a completed turn.
//
// Deltas arrive from stream callbacks; the mutex keeps the buffers safe on
// multi-threaded runtimes where append and flush could otherwise race.
type Assembler struct {
	mu     sync.Mutex
	input  strings.Builder
	output strings.Builder
	now    func() time.Time
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// AppendInput concatenates a user-side transcript delta in arrival order.
func (a *Assembler) AppendInput(delta string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.input.WriteString(delta)
}

// AppendOutput concatenates a model-side transcript delta in arrival order.
func (a *Assembler) AppendOutput(delta string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.output.WriteString(delta)
}

// TurnComplete finalizes the current turn. With any buffered content it
// emits the user message followed by the model message, timestamped now,
// and clears both buffers. A silent turn emits nothing.
func (a *Assembler) TurnComplete() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.input.Len() == 0 && a.output.Len() == 0 {
		return nil
	}

	ts := a.now()
	messages := make([]Message, 0, 2)
	if a.input.Len() > 0 {
		messages = append(messages, Message{Role: RoleUser, Text: a.input.String(), Timestamp: ts})
	}
	if a.output.Len() > 0 {
		messages = append(messages, Message{Role: RoleModel, Text: a.output.String(), Timestamp: ts})
	}
	a.input.Reset()
	a.output.Reset()
	return messages
}

// Reset discards both buffers without emitting anything. Used on teardown:
// a session dropped mid-turn fails to empty, not to a partial message.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.input.Reset()
	a.output.Reset()
}
