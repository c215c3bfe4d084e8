package live

import "encoding/json"

// Event is a typed event emitted by Session.Events().
//
// The transcript events and AudioChunkEvent arrive on independent server
// channels multiplexed over one connection; consumers must not assume any
// ordering between text deltas and audio chunks.
type Event interface {
	eventType() string
}

// SetupCompleteEvent confirms the setup handshake.
type SetupCompleteEvent struct{}

func (e SetupCompleteEvent) eventType() string { return "setup_complete" }

// AudioChunkEvent carries one inbound chunk of model audio
// (16-bit signed little-endian PCM).
type AudioChunkEvent struct {
	Data       []byte
	SampleRate int
	Channels   int
}

func (e AudioChunkEvent) eventType() string { return "audio_chunk" }

// InputTranscriptEvent carries a partial transcript of the user's speech.
type InputTranscriptEvent struct {
	Text string
}

func (e InputTranscriptEvent) eventType() string { return "input_transcript" }

// OutputTranscriptEvent carries a partial transcript of the model's speech.
type OutputTranscriptEvent struct {
	Text string
}

func (e OutputTranscriptEvent) eventType() string { return "output_transcript" }

// TurnCompleteEvent marks a turn boundary: one user utterance plus the model
// reply is finished.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) eventType() string { return "turn_complete" }

// InterruptedEvent signals that model playback was cut off by new user speech.
type InterruptedEvent struct{}

func (e InterruptedEvent) eventType() string { return "interrupted" }

// GoAwayEvent is a server-initiated drain notice; the connection will close
// shortly after.
type GoAwayEvent struct {
	TimeLeft string
}

func (e GoAwayEvent) eventType() string { return "go_away" }

// UnknownEvent carries a frame this client does not recognize.
type UnknownEvent struct {
	Raw json.RawMessage
}

func (e UnknownEvent) eventType() string { return "unknown" }
