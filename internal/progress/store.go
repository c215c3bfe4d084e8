// Package progress persists learner state as a single JSON blob: read once
// at startup, rewritten whole on every change. Persistence is best-effort;
// a failed write is reported but the in-memory state stays authoritative
// and is overwritten on the next successful write.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one practice attempt in the history.
type Entry struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Score     *int      `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Synced    bool      `json:"synced"`
}

// State is the persisted blob.
type State struct {
	TotalAttempts int     `json:"totalAttempts"`
	CurrentDay    int     `json:"currentDay"`
	Scores        []int   `json:"scores"`
	History       []Entry `json:"history"`
}

// Store owns the state file.
type Store struct {
	path string

	mu    sync.Mutex
	state State
	now   func() time.Time
}

// Open loads the state at path. A missing file is first run, not an
// error: the store starts from zero state with CurrentDay 1.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		now:  time.Now,
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.state = State{CurrentDay: 1}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		// A corrupt blob is recoverable: start from zero state and let the
		// next successful write replace it. The error tells the caller the
		// old state was lost.
		s.state = State{CurrentDay: 1}
		return s, fmt.Errorf("parse progress file %s: %w", path, err)
	}
	if s.state.CurrentDay < 1 {
		s.state.CurrentDay = 1
	}
	return s, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Scores = append([]int(nil), s.state.Scores...)
	out.History = append([]Entry(nil), s.state.History...)
	return out
}

// RecordAttempt appends a history entry for one practice attempt and saves.
func (s *Store) RecordAttempt(mode string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entry{
		ID:        uuid.NewString(),
		Mode:      mode,
		Timestamp: s.now(),
	}
	s.state.TotalAttempts++
	s.state.History = append(s.state.History, e)
	return e, s.saveLocked()
}

// RecordScore appends a scored attempt and saves.
func (s *Store) RecordScore(mode string, score int) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entry{
		ID:        uuid.NewString(),
		Mode:      mode,
		Score:     &score,
		Timestamp: s.now(),
	}
	s.state.TotalAttempts++
	s.state.Scores = append(s.state.Scores, score)
	s.state.History = append(s.state.History, e)
	return e, s.saveLocked()
}

// AdvanceDay moves to the next study day and saves.
func (s *Store) AdvanceDay() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentDay++
	return s.state.CurrentDay, s.saveLocked()
}

// MedianScore returns the median of all recorded scores, or 0 when none
// exist.
func (s *Store) MedianScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.state.Scores)
	if n == 0 {
		return 0
	}
	sorted := append([]int(nil), s.state.Scores...)
	sort.Ints(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// saveLocked writes the whole blob via a temp file and rename, so a crash
// mid-write never corrupts the previous state. Callers hold s.mu.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".progress-*.json")
	if err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write progress: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write progress: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}
