// Package postproc applies the final text cleanup shared by both backends.
package postproc

import (
	"strings"

	"github.com/vinta/pangu"

	"github.com/qazi0/OpenSuperWhisper/internal/transcribe"
)

// NoSpeechSentinel is substituted when a transcription produces no text.
const NoSpeechSentinel = "No speech detected in the audio"

// cjkLanguages are the language codes that get the script-aware spacing pass
// when autocorrection is enabled.
var cjkLanguages = map[string]bool{
	"zh":  true,
	"ja":  true,
	"ko":  true,
	"yue": true,
}

// Autocorrector reformats text for a specific script. Pure function.
type Autocorrector interface {
	Format(text string) string
}

// PanguAutocorrector inserts spacing between CJK and Latin characters.
type PanguAutocorrector struct{}

// Format applies CJK spacing rules.
func (PanguAutocorrector) Format(text string) string {
	return pangu.SpacingText(text)
}

// Processor cleans up raw adapter output into the final user-visible text.
type Processor struct {
	autocorrect Autocorrector
}

// New returns a Processor using the given autocorrector. A nil autocorrector
// falls back to the pangu spacing pass.
func New(autocorrect Autocorrector) *Processor {
	if autocorrect == nil {
		autocorrect = PanguAutocorrector{}
	}
	return &Processor{autocorrect: autocorrect}
}

// Process strips backend noise markers, trims whitespace, optionally applies
// the script-aware autocorrection pass, and substitutes the no-speech
// sentinel when nothing remains.
func (p *Processor) Process(text string, settings transcribe.Settings) string {
	text = transcribe.StripNonSpeech(text)
	text = strings.TrimSpace(text)

	if settings.AutocorrectCJK && text != "" && cjkLanguages[settings.Language] {
		text = p.autocorrect.Format(text)
	}

	if text == "" {
		return NoSpeechSentinel
	}
	return text
}
