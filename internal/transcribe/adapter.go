// Package transcribe provides the vendor-specific speech-to-text adapters.
//
// Supported backends:
//   - whisper: whisper.cpp via Go bindings, incremental segment decode
//     (requires the "whisper" build tag)
//   - parakeet: Parakeet TDT, batch token-alignment decode
//     (native runners require the "coreml" build tag on darwin)
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// SampleRate is the PCM sample rate every adapter expects.
const SampleRate = 16000

// ErrAborted is returned by an adapter when the out-of-band abort flag was
// observed during decode.
var ErrAborted = errors.New("transcribe: aborted")

// Settings configures decoding for a single transcription request.
// No field may be mutated after the request starts.
type Settings struct {
	Language           string // ISO 639-1 code or "auto"
	TranslateToEnglish bool
	ShowTimestamps     bool
	SuppressBlankAudio bool
	Temperature        float64 // 0.0–1.0
	NoSpeechThreshold  float64 // 0.0–1.0
	InitialPrompt      string
	UseBeamSearch      bool
	BeamSize           int // 1–10
	AutocorrectCJK     bool
}

// Token is a single decoded unit with its time span in seconds.
type Token struct {
	Text  string
	Start float64
	End   float64
}

// Segment is a finalized span of streaming output.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Result is the raw output of one adapter pass, before post-processing.
// The whisper adapter fills Text and Segments; the parakeet adapter fills
// Tokens and leaves rendering to the caller (chunked requests shift and merge
// tokens from several passes first).
type Result struct {
	Text     string
	Segments []Segment
	Tokens   []Token
}

// AbortFlag is an out-of-band cancellation signal shared by reference between
// the orchestrator and the adapter. The native decode loop polls it at safe
// points, which is the only way to interrupt an otherwise opaque synchronous
// inference call.
type AbortFlag struct {
	set atomic.Bool
}

// Set raises the flag. Safe to call from any goroutine, any number of times.
func (a *AbortFlag) Set() { a.set.Store(true) }

// IsSet reports whether the flag has been raised.
func (a *AbortFlag) IsSet() bool { return a.set.Load() }

// Request carries the input of one adapter pass.
type Request struct {
	// Samples is mono 16kHz float32 PCM.
	Samples []float32
	// Settings for this request.
	Settings Settings
	// Abort may be nil; when non-nil it is polled inside the decode loop.
	Abort *AbortFlag
	// OnSegment, when non-nil, receives finalized streaming segments in order.
	OnSegment func(Segment)
	// OnProgress, when non-nil, receives fractional progress in [0, 1].
	OnProgress func(float64)
}

// Adapter converts PCM audio to text for one loaded model.
type Adapter interface {
	// Transcribe runs one decode pass over req.Samples.
	Transcribe(ctx context.Context, req Request) (*Result, error)
	// Backend returns the backend name ("whisper" or "parakeet").
	Backend() string
	// Close releases backend resources. The session manager calls this once
	// the last in-flight reader of the model handle has released it.
	Close() error
}

// New creates an Adapter for the given backend. path is the ggml model file
// for whisper and the model directory for parakeet.
func New(backend, path string) (Adapter, error) {
	switch backend {
	case "parakeet":
		a, err := NewParakeetAdapter(path)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "whisper", "":
		a, err := NewWhisperAdapter(path)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: whisper, parakeet)", backend)
	}
}
