package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *TranscriptStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	entries := []string{"first take", "second take", "third take"}
	for i, text := range entries {
		if err := s.Append(text, base.Add(time.Duration(i)*time.Minute), float64(i+1)); err != nil {
			t.Fatalf("Append(%q): %v", text, err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transcripts, want 2", len(got))
	}

	// Newest first.
	if got[0].Text != "third take" || got[1].Text != "second take" {
		t.Errorf("Recent order = [%q, %q], want newest first", got[0].Text, got[1].Text)
	}
	if got[0].Duration != 3 {
		t.Errorf("Duration = %g, want 3", got[0].Duration)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, base.Add(2*time.Minute))
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d transcripts, want 0", len(got))
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Append("persisted", time.Now(), 1.5); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Text != "persisted" {
		t.Errorf("Recent after reopen = %v, want the persisted row", got)
	}
}
