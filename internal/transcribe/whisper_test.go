//go:build whisper

package transcribe

import (
	"testing"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

func TestSegmentBelowThreshold(t *testing.T) {
	seg := whisper.Segment{Tokens: []whisper.Token{{P: 0.2}, {P: 0.4}}}

	if !segmentBelowThreshold(seg, 0.6) {
		t.Error("mean 0.3 should fall below threshold 0.6")
	}
	if segmentBelowThreshold(seg, 0.2) {
		t.Error("mean 0.3 should pass threshold 0.2")
	}

	// Disabled threshold or no tokens: never filtered.
	if segmentBelowThreshold(seg, 0) {
		t.Error("zero threshold must not filter")
	}
	if segmentBelowThreshold(whisper.Segment{}, 0.6) {
		t.Error("empty segment must not filter")
	}
}
