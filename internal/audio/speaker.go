package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/khalid307-hue/speakcoach/pkg/core"
)

// Speaker plays float32 little-endian samples through the default output
// device and exposes the output clock (time consumed by the player so
// far). It implements the scheduler's Output.
type Speaker struct {
	otoCtx     *oto.Context
	sampleRate int
	channels   int

	mu       sync.Mutex
	player   *oto.Player
	buf      []byte
	consumed int64
	closed   bool
}

// NewSpeaker opens the output device at the given rate. The constructor
// suspends until the audio context is ready. The output device can only be
// opened once per process; keep the Speaker for the process lifetime.
func NewSpeaker(sampleRate, channels int) (*Speaker, error) {
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	if channels <= 0 {
		channels = 1
	}
	// At 24kHz mono float32: 9600 bytes = 100ms. Small buffer keeps
	// scheduling latency low without starving the device.
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   sampleRate * channels * 4 / 10,
	})
	if err != nil {
		return nil, core.NewDeviceAccessError(fmt.Sprintf("open speaker: %v", err))
	}
	<-ready

	s := &Speaker{
		otoCtx:     otoCtx,
		sampleRate: sampleRate,
		channels:   channels,
	}
	player := otoCtx.NewPlayer(s)
	player.Play()
	s.mu.Lock()
	s.player = player
	s.mu.Unlock()
	return s, nil
}

// Write appends samples to the playback queue. Queued audio plays back to
// back in write order.
func (s *Speaker) Write(data []byte) {
	if len(data) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.buf = append(s.buf, data...)
}

// Read implements io.Reader for oto.Player; the player pulls audio here.
// An empty queue yields silence so the pull loop never blocks, and silence
// counts toward the output clock the same as audio: the device consumed
// that time either way.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	s.consumed += int64(len(p))
	return len(p), nil
}

// Position returns the output clock: the duration of output the player has
// consumed so far. Monotonic.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	bytesPerSecond := int64(s.sampleRate * s.channels * 4)
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(s.consumed * int64(time.Second) / bytesPerSecond)
}

// Flush discards all queued audio so nothing stale plays afterwards. Used
// only during session teardown; the player keeps running on silence.
func (s *Speaker) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = s.buf[:0]
}

// Close releases the output endpoint.
func (s *Speaker) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.buf = nil
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player != nil {
		player.Close()
	}
}
