package transcribe

import (
	"fmt"
	"strings"
)

// nonSpeechMarkers are placeholder strings the backends emit for music, noise
// and silence. They are stripped from adapter output before rendering.
var nonSpeechMarkers = []string{
	"[BLANK_AUDIO]",
	"[MUSIC]",
	"[NOISE]",
	"[SILENCE]",
	"[ Silence ]",
	"(music)",
	"(Music)",
	"♪",
}

// StripNonSpeech removes known non-speech placeholder markers from text.
func StripNonSpeech(text string) string {
	for _, m := range nonSpeechMarkers {
		text = strings.ReplaceAll(text, m, "")
	}
	return text
}

// Sentence is an ordered run of tokens closed by a sentence-terminal mark
// (".", "!", "?") or end-of-stream.
type Sentence struct {
	Tokens []Token
}

// Text returns the concatenated, trimmed sentence text.
func (s Sentence) Text() string {
	var b strings.Builder
	for _, t := range s.Tokens {
		b.WriteString(t.Text)
	}
	return strings.TrimSpace(b.String())
}

// Start returns the start time of the first token, in seconds.
func (s Sentence) Start() float64 {
	if len(s.Tokens) == 0 {
		return 0
	}
	return s.Tokens[0].Start
}

// End returns the end time of the last token, in seconds.
func (s Sentence) End() float64 {
	if len(s.Tokens) == 0 {
		return 0
	}
	return s.Tokens[len(s.Tokens)-1].End
}

// endsSentence reports whether the token text contains a sentence-terminal mark.
func endsSentence(text string) bool {
	return strings.ContainsAny(text, ".!?")
}

// GroupSentences splits an ordered token sequence into sentences. A sentence
// closes when a token's text contains ".", "!" or "?", or at end-of-stream.
func GroupSentences(tokens []Token) []Sentence {
	var sentences []Sentence
	var current []Token
	for _, tok := range tokens {
		current = append(current, tok)
		if endsSentence(tok.Text) {
			sentences = append(sentences, Sentence{Tokens: current})
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, Sentence{Tokens: current})
	}
	return sentences
}

// FormatTimestamp renders a time span prefix with one decimal place and a
// literal "->" separator, e.g. "[1.2->2.0]".
func FormatTimestamp(start, end float64) string {
	return fmt.Sprintf("[%.1f->%.1f]", start, end)
}

// RenderSegments joins finalized streaming segment texts with newlines,
// prefixing each with its time span when timestamps are requested.
func RenderSegments(segments []Segment, showTimestamps bool) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		if showTimestamps {
			lines = append(lines, FormatTimestamp(seg.Start, seg.End)+" "+seg.Text)
		} else {
			lines = append(lines, seg.Text)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// RenderSentences renders grouped sentences to final text. With timestamps
// each sentence becomes one "[start->end] text" line; otherwise sentence
// texts are joined with single spaces.
func RenderSentences(sentences []Sentence, showTimestamps bool) string {
	parts := make([]string, 0, len(sentences))
	for _, s := range sentences {
		text := s.Text()
		if text == "" {
			continue
		}
		if showTimestamps {
			parts = append(parts, FormatTimestamp(s.Start(), s.End())+" "+text)
		} else {
			parts = append(parts, text)
		}
	}
	if showTimestamps {
		return strings.Join(parts, "\n")
	}
	return strings.Join(parts, " ")
}
