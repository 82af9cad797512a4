package postproc

import (
	"strings"
	"testing"

	"github.com/qazi0/OpenSuperWhisper/internal/transcribe"
)

func TestProcessTrimsAndStrips(t *testing.T) {
	p := New(nil)

	cases := []struct {
		in, want string
	}{
		{"  hello world  ", "hello world"},
		{"[BLANK_AUDIO] hello", "hello"},
		{"hello [MUSIC]", "hello"},
		{"♪ hum ♪", "hum"},
	}
	for _, c := range cases {
		if got := p.Process(c.in, transcribe.Settings{}); got != c.want {
			t.Errorf("Process(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestProcessNoSpeechSentinel(t *testing.T) {
	p := New(nil)

	for _, in := range []string{"", "   ", "[BLANK_AUDIO]", " [SILENCE] "} {
		if got := p.Process(in, transcribe.Settings{}); got != NoSpeechSentinel {
			t.Errorf("Process(%q) = %q, want sentinel", in, got)
		}
	}
}

// upperAutocorrector marks that the autocorrection pass ran.
type upperAutocorrector struct{}

func (upperAutocorrector) Format(text string) string { return strings.ToUpper(text) }

func TestProcessAutocorrectOnlyForCJK(t *testing.T) {
	p := New(upperAutocorrector{})

	settings := transcribe.Settings{AutocorrectCJK: true, Language: "zh"}
	if got := p.Process("hi", settings); got != "HI" {
		t.Errorf("Process with zh = %q, want autocorrected", got)
	}

	// Non-CJK language: pass skipped even when enabled.
	settings.Language = "en"
	if got := p.Process("hi", settings); got != "hi" {
		t.Errorf("Process with en = %q, want untouched", got)
	}

	// Disabled: pass skipped regardless of language.
	settings = transcribe.Settings{AutocorrectCJK: false, Language: "ja"}
	if got := p.Process("hi", settings); got != "hi" {
		t.Errorf("Process with disabled autocorrect = %q, want untouched", got)
	}
}

func TestPanguSpacing(t *testing.T) {
	got := PanguAutocorrector{}.Format("今天work很忙")
	if got != "今天 work 很忙" {
		t.Errorf("Format = %q, want %q", got, "今天 work 很忙")
	}
}
