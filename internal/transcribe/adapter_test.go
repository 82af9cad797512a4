package transcribe

import "testing"

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("vosk", "model"); err == nil {
		t.Error("New should reject unknown backends")
	}
}

func TestAbortFlag(t *testing.T) {
	var f AbortFlag
	if f.IsSet() {
		t.Error("new flag should not be set")
	}
	f.Set()
	if !f.IsSet() {
		t.Error("flag should be set after Set")
	}
	f.Set() // idempotent
	if !f.IsSet() {
		t.Error("flag should stay set")
	}
}
