// Package session owns the realtime voice session lifecycle: it wires the
// capture pipeline into the live stream, routes inbound events to the
// playback scheduler and the transcript assembler, and guarantees that
// explicit stop, remote error and remote close all run the same teardown.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khalid307-hue/speakcoach/internal/audio"
	"github.com/khalid307-hue/speakcoach/internal/transcript"
	"github.com/khalid307-hue/speakcoach/pkg/live"
)

// State is the session lifecycle state.
type State int

const (
	// StateIdle means no session exists.
	StateIdle State = iota
	// StateConnecting covers device acquisition and the stream handshake.
	StateConnecting
	// StateLive means audio is flowing in both directions.
	StateLive
	// StateClosed is the transient teardown state before returning to idle.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateLive:
		return "LIVE"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Persona is a named tutor configuration: a voice identity plus behavioral
// instruction text.
type Persona struct {
	Name        string
	Voice       string
	Instruction string
}

// Capture is the microphone pipeline.
type Capture interface {
	Start(sink func(audio.Chunk)) error
	Stop()
}

// Playback is the inbound audio scheduler.
type Playback interface {
	Enqueue(chunk audio.Chunk) time.Duration
	StopAll()
}

// RemoteSession is a live bidirectional stream. pkg/live.Session satisfies
// it; tests substitute fakes.
type RemoteSession interface {
	Events() <-chan live.Event
	SendAudioChunk(pcm []byte) error
	Close() error
	Err() error
}

// Dialer opens a remote session. The call suspends until the handshake
// completes or fails.
type Dialer func(ctx context.Context, cfg live.Config) (RemoteSession, error)

// Config wires a Controller.
type Config struct {
	// Model is the realtime model name passed to the dialer.
	Model string

	// Dial opens the remote stream.
	Dial Dialer

	// Capture is the microphone pipeline.
	Capture Capture

	// Playback is the inbound audio scheduler.
	Playback Playback

	// OnMessages receives each finalized message pair at turn boundaries.
	OnMessages func([]transcript.Message)

	// OnPartial receives each transcript delta as it arrives, before the
	// turn is finalized. Deltas are display hints only; the finalized
	// messages come through OnMessages.
	OnPartial func(role transcript.Role, delta string)

	// OnStateChange observes lifecycle transitions.
	OnStateChange func(State)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Controller owns one voice session at a time.
type Controller struct {
	cfg Config
	asm *transcript.Assembler
	log *slog.Logger

	mu     sync.Mutex
	state  State
	remote RemoteSession
	id     string
}

// NewController creates an idle controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Dial == nil {
		return nil, fmt.Errorf("session: Dial is required")
	}
	if cfg.Capture == nil {
		return nil, fmt.Errorf("session: Capture is required")
	}
	if cfg.Playback == nil {
		return nil, fmt.Errorf("session: Playback is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		cfg:   cfg,
		asm:   transcript.NewAssembler(),
		log:   log,
		state: StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ID returns the current session ID, or "" when idle.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Start acquires the microphone, opens the realtime stream configured with
// the persona's voice and instruction plus transcription of both
// directions, and begins streaming. A microphone failure surfaces as a
// DeviceAccessError with no partial session left behind; a connect failure
// releases the microphone before returning.
func (c *Controller) Start(ctx context.Context, persona Persona) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("session already active (state %s)", c.state)
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.notify(StateConnecting)

	// Microphone first: a denied device must not leave any session state.
	if err := c.cfg.Capture.Start(c.forwardFrame); err != nil {
		c.setState(StateIdle)
		return err
	}

	remote, err := c.cfg.Dial(ctx, live.Config{
		Model:               c.cfg.Model,
		Voice:               persona.Voice,
		System:              persona.Instruction,
		InputTranscription:  true,
		OutputTranscription: true,
	})
	if err != nil {
		c.cfg.Capture.Stop()
		c.setState(StateIdle)
		return err
	}

	c.mu.Lock()
	c.remote = remote
	c.id = uuid.NewString()
	c.state = StateLive
	c.mu.Unlock()
	c.notify(StateLive)

	c.log.Info("voice session started", "session_id", c.ID(), "persona", persona.Name)
	go c.eventLoop(remote)
	return nil
}

// Stop tears the session down: close the remote stream, release the
// microphone, stop all scheduled playback and discard unflushed transcript
// buffers. Idempotent; safe from any state.
func (c *Controller) Stop() {
	c.shutdown(nil)
}

// forwardFrame sends one captured chunk to the remote stream in submission
// order, fire-and-forget. Frames arriving outside a live session are
// ignored.
func (c *Controller) forwardFrame(chunk audio.Chunk) {
	c.mu.Lock()
	remote := c.remote
	ok := c.state == StateLive
	c.mu.Unlock()
	if !ok || remote == nil {
		return
	}
	if err := remote.SendAudioChunk(chunk.Data); err != nil {
		c.log.Debug("drop outbound frame", "error", err)
	}
}

// eventLoop dispatches inbound events until the stream ends, then runs the
// shared teardown. Audio and transcript events are independent channels
// over one connection; dispatch never blocks one on the other.
func (c *Controller) eventLoop(remote RemoteSession) {
	for event := range remote.Events() {
		switch e := event.(type) {
		case live.AudioChunkEvent:
			c.cfg.Playback.Enqueue(audio.Chunk{
				Data:       e.Data,
				SampleRate: e.SampleRate,
				Channels:   e.Channels,
			})
		case live.InputTranscriptEvent:
			c.asm.AppendInput(e.Text)
			if c.cfg.OnPartial != nil {
				c.cfg.OnPartial(transcript.RoleUser, e.Text)
			}
		case live.OutputTranscriptEvent:
			c.asm.AppendOutput(e.Text)
			if c.cfg.OnPartial != nil {
				c.cfg.OnPartial(transcript.RoleModel, e.Text)
			}
		case live.TurnCompleteEvent:
			if messages := c.asm.TurnComplete(); len(messages) > 0 && c.cfg.OnMessages != nil {
				c.cfg.OnMessages(messages)
			}
		case live.InterruptedEvent:
			c.log.Debug("model speech interrupted")
		case live.GoAwayEvent:
			c.log.Warn("server closing connection", "time_left", e.TimeLeft)
		}
	}

	if err := remote.Err(); err != nil {
		c.log.Error("voice session failed", "error", err)
	} else {
		c.log.Info("voice session closed by server")
	}
	// A dropped realtime session is not reconnected; teardown is the sole
	// recovery, identical to an explicit stop.
	c.shutdown(remote)
}

// shutdown is the single teardown path for explicit stop (from == nil),
// remote error, and remote close. A stale remote handle (already torn
// down, or superseded by a newer session) is a no-op.
func (c *Controller) shutdown(from RemoteSession) {
	c.mu.Lock()
	if from != nil && c.remote != from {
		c.mu.Unlock()
		return
	}
	remote := c.remote
	c.remote = nil
	c.id = ""
	active := c.state != StateIdle
	if active {
		c.state = StateClosed
	}
	c.mu.Unlock()
	if active {
		c.notify(StateClosed)
	}

	if remote != nil {
		_ = remote.Close()
	}
	c.cfg.Capture.Stop()
	c.cfg.Playback.StopAll()
	// Unflushed transcript buffers are discarded, never promoted to
	// messages.
	c.asm.Reset()

	if active {
		c.setState(StateIdle)
	} else {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}
}

// setState transitions the state and notifies the observer outside the
// lock, so callbacks may call back into the controller.
func (c *Controller) setState(next State) {
	c.mu.Lock()
	changed := c.state != next
	c.state = next
	c.mu.Unlock()
	if changed {
		c.notify(next)
	}
}

func (c *Controller) notify(s State) {
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(s)
	}
}
