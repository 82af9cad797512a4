package transcribe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadVocabulary(t *testing.T) {
	vocabJSON := `{"0": "▁the", "1": "▁a", "2": "s", "1024": "<blank>"}`
	tmpDir := t.TempDir()
	vocabPath := filepath.Join(tmpDir, "parakeet_vocab.json")
	os.WriteFile(vocabPath, []byte(vocabJSON), 0644)

	vocab, err := loadVocabulary(vocabPath)
	if err != nil {
		t.Fatalf("loadVocabulary: %v", err)
	}
	if len(vocab) != 1025 {
		t.Errorf("len(vocab) = %d, want 1025", len(vocab))
	}
	if vocab[0] != "▁the" {
		t.Errorf("vocab[0] = %q, want %q", vocab[0], "▁the")
	}
	if vocab[1024] != "<blank>" {
		t.Errorf("vocab[1024] = %q, want %q", vocab[1024], "<blank>")
	}
}

func TestLoadVocabularyBadPath(t *testing.T) {
	_, err := loadVocabulary("/nonexistent/vocab.json")
	if err == nil {
		t.Error("loadVocabulary should fail for nonexistent file")
	}
}

func TestLoadVocabularyBadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	vocabPath := filepath.Join(tmpDir, "bad.json")
	os.WriteFile(vocabPath, []byte("not json"), 0644)

	_, err := loadVocabulary(vocabPath)
	if err == nil {
		t.Error("loadVocabulary should fail for invalid JSON")
	}
}

func TestTokenText(t *testing.T) {
	p := &ParakeetAdapter{vocab: []string{"▁the", "▁a", "s", "k"}}

	if got := p.tokenText(0); got != " the" {
		t.Errorf("tokenText(0) = %q, want %q", got, " the")
	}
	if got := p.tokenText(2); got != "s" {
		t.Errorf("tokenText(2) = %q, want %q", got, "s")
	}
	// Out-of-range IDs map to nothing.
	if got := p.tokenText(999); got != "" {
		t.Errorf("tokenText(999) = %q, want empty", got)
	}
}
