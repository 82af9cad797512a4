package transcribe

import "testing"

func TestStripNonSpeech(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"[BLANK_AUDIO]", ""},
		{"hello [MUSIC] world", "hello  world"},
		{"♪ la la ♪", " la la "},
		{"plain text", "plain text"},
		{"[ Silence ](music)", ""},
	}
	for _, c := range cases {
		if got := StripNonSpeech(c.in); got != c.want {
			t.Errorf("StripNonSpeech(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(1.25, 2.0); got != "[1.2->2.0]" {
		t.Errorf("FormatTimestamp(1.25, 2.0) = %q, want %q", got, "[1.2->2.0]")
	}
	if got := FormatTimestamp(0, 0.5); got != "[0.0->0.5]" {
		t.Errorf("FormatTimestamp(0, 0.5) = %q, want %q", got, "[0.0->0.5]")
	}
}

func TestGroupSentences(t *testing.T) {
	tokens := []Token{
		{Text: " Hello", Start: 0.0, End: 0.4},
		{Text: " world.", Start: 0.4, End: 0.8},
		{Text: " How", Start: 1.0, End: 1.2},
		{Text: " are", Start: 1.2, End: 1.4},
		{Text: " you?", Start: 1.4, End: 1.6},
		{Text: " Trailing", Start: 2.0, End: 2.4},
	}

	sentences := GroupSentences(tokens)
	if len(sentences) != 3 {
		t.Fatalf("got %d sentences, want 3", len(sentences))
	}

	if got := sentences[0].Text(); got != "Hello world." {
		t.Errorf("sentence 0 = %q, want %q", got, "Hello world.")
	}
	if got := sentences[1].Text(); got != "How are you?" {
		t.Errorf("sentence 1 = %q, want %q", got, "How are you?")
	}
	// The open run at end-of-stream still forms a sentence.
	if got := sentences[2].Text(); got != "Trailing" {
		t.Errorf("sentence 2 = %q, want %q", got, "Trailing")
	}

	if sentences[1].Start() != 1.0 || sentences[1].End() != 1.6 {
		t.Errorf("sentence 1 span = [%g, %g], want [1.0, 1.6]",
			sentences[1].Start(), sentences[1].End())
	}
}

func TestGroupSentencesEmpty(t *testing.T) {
	if got := GroupSentences(nil); len(got) != 0 {
		t.Errorf("GroupSentences(nil) = %v, want empty", got)
	}
}

func TestRenderSentences(t *testing.T) {
	sentences := GroupSentences([]Token{
		{Text: " Hello.", Start: 0.0, End: 0.5},
		{Text: " Bye.", Start: 1.0, End: 1.5},
	})

	if got := RenderSentences(sentences, false); got != "Hello. Bye." {
		t.Errorf("plain render = %q, want %q", got, "Hello. Bye.")
	}

	want := "[0.0->0.5] Hello.\n[1.0->1.5] Bye."
	if got := RenderSentences(sentences, true); got != want {
		t.Errorf("timestamp render = %q, want %q", got, want)
	}
}

func TestRenderSegments(t *testing.T) {
	segments := []Segment{
		{Text: "first line", Start: 0, End: 2.5},
		{Text: "second line", Start: 2.5, End: 4.0},
	}

	if got := RenderSegments(segments, false); got != "first line\nsecond line" {
		t.Errorf("plain render = %q", got)
	}

	want := "[0.0->2.5] first line\n[2.5->4.0] second line"
	if got := RenderSegments(segments, true); got != want {
		t.Errorf("timestamp render = %q, want %q", got, want)
	}
}
