package live

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// InputMIMEType tags outbound audio chunks: 16-bit signed PCM, 16kHz mono.
const InputMIMEType = "audio/pcm;rate=16000"

const (
	// InputSampleRate is the required sample rate for outbound audio.
	InputSampleRate = 16000
	// OutputSampleRate is the sample rate of model audio, unless the chunk's
	// MIME descriptor says otherwise.
	OutputSampleRate = 24000
)

// Session is a live bidirectional audio session.
type Session struct {
	conn *websocket.Conn

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// Events yields decoded server events. The channel is closed when the
// connection ends, cleanly or not; check Err afterwards.
func (s *Session) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.events
}

// SendAudioChunk sends one chunk of 16-bit PCM microphone audio
// (16kHz mono) to the model. Chunks are forwarded in submission order.
func (s *Session) SendAudioChunk(pcm []byte) error {
	if s == nil {
		return fmt.Errorf("session must not be nil")
	}
	frame := clientRealtimeInput{
		RealtimeInput: realtimeInputPayload{
			MediaChunks: []mediaChunk{{
				MIMEType: InputMIMEType,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	}
	return s.sendJSON(frame)
}

func (s *Session) sendJSON(v any) error {
	if s == nil {
		return fmt.Errorf("session must not be nil")
	}
	if s.closed.Load() {
		return fmt.Errorf("live session is closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close closes the websocket session and waits for the read loop to exit.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns the terminal session error (if any).
func (s *Session) Err() error {
	if s == nil {
		return nil
	}
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			if s.closed.Load() {
				// Local Close raced the read; not a transport failure.
				return
			}
			s.setErr(err)
			return
		}

		// The server sends JSON in both text and binary frames.
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		events, frameErr := decodeServerFrame(data)
		if frameErr != nil {
			s.setErr(frameErr)
			return
		}
		for _, event := range events {
			s.emitEvent(event)
		}
	}
}

func (s *Session) emitEvent(event Event) {
	if event == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		// Avoid deadlocking read loop if caller stops consuming.
	}
}

// decodeServerFrame decodes one inbound frame into zero or more events.
// A single serverContent frame may carry transcript deltas, audio chunks and
// the turn-complete marker together; events are emitted in that order.
func decodeServerFrame(data []byte) ([]Event, error) {
	var frame serverFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode live frame: %w", err)
	}

	if frame.SetupComplete != nil {
		return []Event{SetupCompleteEvent{}}, nil
	}
	if frame.GoAway != nil {
		return []Event{GoAwayEvent{TimeLeft: frame.GoAway.TimeLeft}}, nil
	}
	content := frame.ServerContent
	if content == nil {
		return []Event{UnknownEvent{Raw: append(json.RawMessage(nil), data...)}}, nil
	}

	var events []Event
	if content.InputTranscription != nil && content.InputTranscription.Text != "" {
		events = append(events, InputTranscriptEvent{Text: content.InputTranscription.Text})
	}
	if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
		events = append(events, OutputTranscriptEvent{Text: content.OutputTranscription.Text})
	}
	if content.Interrupted {
		events = append(events, InterruptedEvent{})
	}
	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part.InlineData == nil {
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode audio chunk: %w", err)
			}
			events = append(events, AudioChunkEvent{
				Data:       audio,
				SampleRate: rateFromMIME(part.InlineData.MIMEType),
				Channels:   1,
			})
		}
	}
	if content.TurnComplete {
		events = append(events, TurnCompleteEvent{})
	}
	return events, nil
}

// rateFromMIME extracts the sample rate from a descriptor like
// "audio/pcm;rate=24000". Unparseable descriptors fall back to the
// protocol's output rate.
func rateFromMIME(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		param = strings.TrimSpace(param)
		if value, ok := strings.CutPrefix(param, "rate="); ok {
			if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return OutputSampleRate
}
