//go:build whisper

package transcribe

import (
	"context"
	"fmt"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperAdapter wraps a whisper.cpp model for incremental segment decode.
type WhisperAdapter struct {
	model     whisper.Model
	modelPath string
}

// NewWhisperAdapter loads a whisper ggml model from the given path.
// The caller must call Close() when done.
func NewWhisperAdapter(modelPath string) (*WhisperAdapter, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperAdapter{model: model, modelPath: modelPath}, nil
}

// Backend returns "whisper".
func (t *WhisperAdapter) Backend() string { return "whisper" }

// Close releases the whisper model resources.
func (t *WhisperAdapter) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Transcribe runs a full encode/decode pass over req.Samples, emitting
// finalized segments through req.OnSegment as they become available.
//
// Cancellation: the context is checked before encode and after decode; the
// abort flag is additionally polled by the native loop itself through the
// encoder-begin callback, since Process is an opaque synchronous call from
// this layer's perspective.
func (t *WhisperAdapter) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("transcribe: create whisper context: %w", err)
	}

	st := req.Settings
	if st.Language != "" {
		if err := wctx.SetLanguage(st.Language); err != nil {
			return nil, fmt.Errorf("transcribe: set language %q: %w", st.Language, err)
		}
	}
	wctx.SetTranslate(st.TranslateToEnglish)
	wctx.SetTokenTimestamps(true)
	wctx.SetTemperature(float32(st.Temperature))
	if st.UseBeamSearch && st.BeamSize > 0 {
		wctx.SetBeamSize(st.BeamSize)
	}
	if st.InitialPrompt != "" {
		wctx.SetInitialPrompt(st.InitialPrompt)
	}

	totalSeconds := float64(len(req.Samples)) / SampleRate

	aborted := func() bool {
		if req.Abort != nil && req.Abort.IsSet() {
			return true
		}
		return ctx.Err() != nil
	}

	// Polled by the native loop before each encoder window. Returning false
	// aborts the run from inside the otherwise opaque Process call.
	encoderBegin := func() bool {
		return !aborted()
	}

	var segments []Segment
	onSegment := func(s whisper.Segment) {
		if aborted() {
			return
		}
		seg := Segment{
			Text:  strings.TrimSpace(StripNonSpeech(s.Text)),
			Start: s.Start.Seconds(),
			End:   s.End.Seconds(),
		}
		if seg.Text == "" {
			return
		}
		if st.SuppressBlankAudio && segmentBelowThreshold(s, st.NoSpeechThreshold) {
			return
		}
		segments = append(segments, seg)
		if req.OnSegment != nil {
			req.OnSegment(seg)
		}
		if req.OnProgress != nil && totalSeconds > 0 {
			p := seg.End / totalSeconds
			if p > 1 {
				p = 1
			}
			req.OnProgress(p)
		}
	}

	if err := wctx.Process(req.Samples, encoderBegin, onSegment, nil); err != nil {
		if aborted() {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("transcribe: whisper process: %w", err)
	}
	if aborted() {
		return nil, ErrAborted
	}

	return &Result{
		Text:     RenderSegments(segments, st.ShowTimestamps),
		Segments: segments,
	}, nil
}

// segmentBelowThreshold reports whether the mean token probability of a
// segment falls below the configured no-speech threshold. The Go bindings do
// not expose the per-segment no-speech probability directly, so the token
// probabilities stand in for it.
func segmentBelowThreshold(s whisper.Segment, threshold float64) bool {
	if threshold <= 0 || len(s.Tokens) == 0 {
		return false
	}
	var sum float64
	for _, tok := range s.Tokens {
		sum += float64(tok.P)
	}
	return sum/float64(len(s.Tokens)) < threshold
}
