package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_FirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st := s.State()
	if st.TotalAttempts != 0 || st.CurrentDay != 1 || len(st.History) != 0 {
		t.Fatalf("first-run state = %+v, want zero state on day 1", st)
	}
	// First run must not create the file until something is recorded.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("progress file created before any mutation")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.RecordAttempt("free_talk"); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if _, err := s.RecordScore("pronunciation", 82); err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	if _, err := s.AdvanceDay(); err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	st := reopened.State()
	if st.TotalAttempts != 2 {
		t.Fatalf("TotalAttempts = %d, want 2", st.TotalAttempts)
	}
	if st.CurrentDay != 2 {
		t.Fatalf("CurrentDay = %d, want 2", st.CurrentDay)
	}
	if len(st.Scores) != 1 || st.Scores[0] != 82 {
		t.Fatalf("Scores = %v, want [82]", st.Scores)
	}
	if len(st.History) != 2 {
		t.Fatalf("History = %d entries, want 2", len(st.History))
	}
	if st.History[0].ID == "" || st.History[0].ID == st.History[1].ID {
		t.Fatalf("history entries need distinct non-empty IDs: %+v", st.History)
	}
	if st.History[1].Score == nil || *st.History[1].Score != 82 {
		t.Fatalf("scored entry = %+v", st.History[1])
	}
	if st.History[0].Score != nil {
		t.Fatalf("unscored entry carries a score: %+v", st.History[0])
	}
}

func TestStore_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	s, _ := Open(path)
	if _, err := s.RecordAttempt("free_talk"); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Fatalf("mode = %o, want 0600", got)
	}
}

func TestOpen_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Open(path)
	if err == nil {
		t.Fatalf("corrupt file accepted silently")
	}
	if s == nil {
		t.Fatalf("corrupt file must still yield a usable store")
	}
	if st := s.State(); st.TotalAttempts != 0 || st.CurrentDay != 1 {
		t.Fatalf("state after corrupt load = %+v, want zero state", st)
	}

	// The next write replaces the corrupt blob.
	if _, err := s.RecordAttempt("free_talk"); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("rewritten blob is not valid JSON: %v", err)
	}
	if st.TotalAttempts != 1 {
		t.Fatalf("TotalAttempts = %d, want 1", st.TotalAttempts)
	}
}

func TestStore_MedianScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	s, _ := Open(path)

	if got := s.MedianScore(); got != 0 {
		t.Fatalf("median with no scores = %d, want 0", got)
	}
	for _, v := range []int{90, 50, 70} {
		if _, err := s.RecordScore("pronunciation", v); err != nil {
			t.Fatalf("RecordScore: %v", err)
		}
	}
	if got := s.MedianScore(); got != 70 {
		t.Fatalf("median = %d, want 70", got)
	}
	if _, err := s.RecordScore("pronunciation", 80); err != nil {
		t.Fatalf("RecordScore: %v", err)
	}
	if got := s.MedianScore(); got != 75 {
		t.Fatalf("even median = %d, want 75", got)
	}
}

func TestStore_EntriesAreTimestamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	s, _ := Open(path)
	fixed := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	e, err := s.RecordAttempt("roleplay")
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if !e.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp = %v, want %v", e.Timestamp, fixed)
	}
}
