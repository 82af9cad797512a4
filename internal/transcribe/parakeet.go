package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	parakeetBlankID        = 1024 // blank token index for the TDT v2 model conversion
	parakeetMaxSymsPerStep = 10
	parakeetEncoderHidden  = 1024
	parakeetDecoderHidden  = 640
	parakeetLSTMLayers     = 2

	// parakeetFrameSeconds is the audio span of one encoder frame: 10ms mel
	// hop with 8x encoder subsampling.
	parakeetFrameSeconds = 0.08
)

var parakeetDurationBins = []int32{0, 1, 2, 3, 4}

// encodeRunner converts raw audio to flattened encoder hidden states
// [frames, parakeetEncoderHidden].
type encodeRunner interface {
	runEncode(audio []float32) (encoderOut []float32, frames int, err error)
}

// decoderRunner runs the prediction-network LSTM for one step.
type decoderRunner interface {
	runDecoder(targetID int32, hIn, cIn []float32) (decoderOut, hOut, cOut []float32, err error)
}

// jointRunner runs the joint decision network for one (frame, decoder) step
// and returns the argmax token plus a duration-bin index.
type jointRunner interface {
	runJoint(encoderStep, decoderStep []float32) (tokenID, durIdx int32, err error)
}

// ParakeetAdapter uses a Parakeet TDT model chain for batch token-alignment
// decode. The numerical kernels sit behind the runner interfaces; the real
// implementation is selected at build time (darwin + coreml tag).
type ParakeetAdapter struct {
	enc   encodeRunner
	dec   decoderRunner
	joint jointRunner
	vocab []string
	close func() error
}

// NewParakeetAdapter loads the model chain and vocabulary from modelDir.
// The caller must call Close() when done.
func NewParakeetAdapter(modelDir string) (*ParakeetAdapter, error) {
	vocab, err := loadVocabulary(modelDir + "/parakeet_vocab.json")
	if err != nil {
		return nil, fmt.Errorf("transcribe: parakeet: %w", err)
	}

	enc, dec, joint, closeFn, err := newParakeetRunners(modelDir)
	if err != nil {
		return nil, fmt.Errorf("transcribe: parakeet: %w", err)
	}

	return &ParakeetAdapter{
		enc:   enc,
		dec:   dec,
		joint: joint,
		vocab: vocab,
		close: closeFn,
	}, nil
}

// Backend returns "parakeet".
func (p *ParakeetAdapter) Backend() string { return "parakeet" }

// Close releases the model chain resources.
func (p *ParakeetAdapter) Close() error {
	if p.close != nil {
		return p.close()
	}
	return nil
}

// Transcribe runs one alignment decode pass over req.Samples and returns the
// time-aligned token sequence. Rendering (sentence grouping, timestamp lines)
// is left to the caller so that chunked requests can merge tokens from
// several passes first.
func (p *ParakeetAdapter) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Abort != nil && req.Abort.IsSet() {
		return nil, ErrAborted
	}

	encoderOut, frames, err := p.enc.runEncode(req.Samples)
	if err != nil {
		return nil, fmt.Errorf("transcribe: parakeet encode: %w", err)
	}
	slog.Debug("parakeet encoder", "frames", frames, "samples", len(req.Samples))

	if req.Abort != nil && req.Abort.IsSet() {
		return nil, ErrAborted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoded, err := tdtDecode(encoderOut, frames, p.dec, p.joint, req.Abort, req.OnProgress)
	if err != nil {
		return nil, err
	}

	tokens := make([]Token, 0, len(decoded))
	for _, d := range decoded {
		text := p.tokenText(d.id)
		if text == "" {
			continue
		}
		tokens = append(tokens, Token{Text: text, Start: d.start, End: d.end})
	}

	return &Result{Tokens: tokens}, nil
}

// tokenText maps a token ID to its text piece, converting SentencePiece
// word-boundary markers to leading spaces.
func (p *ParakeetAdapter) tokenText(id int32) string {
	if int(id) >= len(p.vocab) {
		return ""
	}
	return strings.ReplaceAll(p.vocab[id], "▁", " ")
}
