package audio

import (
	"sync"
	"time"
)

// Output is the playback endpoint the scheduler drives. Written samples
// (float32 little-endian) play back to back in write order; Position is the
// output clock.
type Output interface {
	Position() time.Duration
	Write(data []byte)
	Flush()
}

// Scheduler turns bursty inbound audio chunks into gapless sequential
// playback. Each chunk is decoded to float samples and scheduled at
// max(cursor, output clock); the cursor then advances by the chunk's
// duration, so scheduled chunks never overlap and leave no avoidable gap.
//
// All mutation happens under one mutex: chunks arrive from the stream read
// loop while completion timers fire on their own goroutines.
type Scheduler struct {
	out Output

	mu     sync.Mutex
	cursor time.Duration
	active map[uint64]*time.Timer
	nextID uint64
}

// NewScheduler creates a scheduler over the given output.
func NewScheduler(out Output) *Scheduler {
	return &Scheduler{
		out:    out,
		active: make(map[uint64]*time.Timer),
	}
}

// Enqueue decodes one inbound chunk and schedules it for playback,
// returning the scheduled start on the output clock. The playback handle is
// tracked until the chunk finishes, then removed automatically.
func (s *Scheduler) Enqueue(chunk Chunk) time.Duration {
	samples := DecodePCM16(chunk.Data)
	dur := SamplesDuration(len(samples), chunk.SampleRate, chunk.Channels)

	s.mu.Lock()
	start := s.cursor
	if now := s.out.Position(); now > start {
		start = now
	}
	s.cursor = start + dur

	id := s.nextID
	s.nextID++
	// The output consumes in real time once playing, so the wall clock is a
	// faithful stand-in for the output clock when arming completion.
	remaining := s.cursor - s.out.Position()
	s.active[id] = time.AfterFunc(remaining, func() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	})
	s.mu.Unlock()

	if dur > 0 {
		s.out.Write(Float32LEBytes(samples))
	}
	return start
}

// Cursor returns the next available start time on the output clock.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Active returns the number of currently tracked playback handles.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// StopAll forcibly stops every tracked handle, clears the set, discards
// queued output and resets the cursor. Teardown only; never called during
// normal playback.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for id, timer := range s.active {
		timer.Stop()
		delete(s.active, id)
	}
	s.cursor = 0
	s.mu.Unlock()

	s.out.Flush()
}
