// Package engine coordinates a transcription request end to end: audio
// ingestion, chunk planning, vendor dispatch, progress and cancellation
// tracking, post-processing, and side effects.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qazi0/OpenSuperWhisper/internal/audio"
	"github.com/qazi0/OpenSuperWhisper/internal/postproc"
	"github.com/qazi0/OpenSuperWhisper/internal/session"
	"github.com/qazi0/OpenSuperWhisper/internal/transcribe"
)

// TranscriptSink persists completed transcriptions. Failures are logged and
// never fail the transcription itself.
type TranscriptSink interface {
	Append(text string, createdAt time.Time, durationSeconds float64) error
}

// ClipboardSink receives the final text once, after success.
type ClipboardSink interface {
	Insert(text string) error
}

// State is a snapshot of the engine's externally observable state.
type State struct {
	IsLoading      bool
	IsTranscribing bool
	Progress       float64 // 0.0–1.0, non-decreasing within one request
	PartialSegment string
	LastText       string
}

// Options configures optional engine collaborators.
type Options struct {
	History   TranscriptSink
	Clipboard ClipboardSink
	Logger    *slog.Logger
}

// Engine is the transcription orchestrator. At most one transcription is
// active per Engine; model reloads may run concurrently with an active
// transcription.
type Engine struct {
	sessions *session.Manager
	post     *postproc.Processor
	history  TranscriptSink
	clip     ClipboardSink
	log      *slog.Logger

	mu      sync.Mutex
	state   State
	active  bool
	token   uuid.UUID // request token of the active transcription
	abort   *transcribe.AbortFlag
	cancel  context.CancelFunc
	loading int // in-flight load count
}

// New creates an Engine using the given session manager.
func New(sessions *session.Manager, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions: sessions,
		post:     postproc.New(nil),
		history:  opts.History,
		clip:     opts.Clipboard,
		log:      logger,
	}
}

// State returns a snapshot of the observable engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.IsLoading = e.loading > 0
	return s
}

// LoadModel begins an asynchronous model load or reload. While loading, the
// previously ready session stays usable for in-flight requests; on success
// the session handle is swapped atomically, on failure the previous session
// is left untouched and the error is recorded on the session manager.
func (e *Engine) LoadModel(path string, vendor session.Vendor) {
	go func() {
		if err := e.LoadModelSync(path, vendor); err != nil {
			e.log.Error("model load failed", "path", path, "vendor", string(vendor), "error", err)
		}
	}()
}

// LoadModelSync loads a model and waits for the result.
func (e *Engine) LoadModelSync(path string, vendor session.Vendor) error {
	e.mu.Lock()
	e.loading++
	e.mu.Unlock()

	start := time.Now()
	err := e.sessions.Load(path, vendor)

	e.mu.Lock()
	e.loading--
	e.mu.Unlock()

	if err == nil {
		e.log.Info("model loaded", "path", path, "vendor", string(vendor),
			"elapsed", time.Since(start).Round(time.Millisecond))
	}
	return err
}

// Cancel requests cancellation of the active transcription: it raises the
// out-of-band abort flag polled by the native decode loop and cancels the
// request context. Observable state is reset once the request teardown
// completes. Cancelling with no active request is a no-op.
func (e *Engine) Cancel() {
	e.mu.Lock()
	abort, cancel := e.abort, e.cancel
	e.mu.Unlock()

	if abort != nil {
		abort.Set()
	}
	if cancel != nil {
		cancel()
	}
}

// Transcribe converts the audio file at audioPath to text using the current
// model session. Only one transcription may be active per engine; a second
// call returns ErrBusy. Requires a loaded session (ErrNoSession otherwise).
func (e *Engine) Transcribe(ctx context.Context, audioPath string, settings transcribe.Settings) (string, error) {
	return e.transcribe(ctx, audioPath, settings, func() ([]float32, error) {
		return audio.ConvertFile(audioPath)
	})
}

// TranscribeSamples transcribes already-captured PCM, resampling to the model
// rate if needed. Used by live microphone capture.
func (e *Engine) TranscribeSamples(ctx context.Context, samples []float32, sampleRate int, settings transcribe.Settings) (string, error) {
	return e.transcribe(ctx, "(captured audio)", settings, func() ([]float32, error) {
		if sampleRate != audio.TargetSampleRate {
			return audio.Resample(samples, sampleRate, audio.TargetSampleRate), nil
		}
		return samples, nil
	})
}

func (e *Engine) transcribe(ctx context.Context, label string, settings transcribe.Settings, load func() ([]float32, error)) (string, error) {
	handle := e.sessions.Acquire()
	if handle == nil {
		return "", fmt.Errorf("%w (load a model first)", ErrNoSession)
	}

	token := uuid.New()
	abort := &transcribe.AbortFlag{}
	cctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		cancel()
		handle.Release()
		return "", ErrBusy
	}
	e.active = true
	e.token = token
	e.abort = abort
	e.cancel = cancel
	e.state.IsTranscribing = true
	e.state.Progress = 0
	e.state.PartialSegment = ""
	e.state.LastText = ""
	e.mu.Unlock()

	defer handle.Release()
	defer cancel()

	e.log.Info("transcription started", "source", label, "vendor", string(handle.Vendor()))
	start := time.Now()

	text, duration, err := e.run(cctx, handle, load, settings, token, abort)

	e.mu.Lock()
	e.active = false
	e.abort = nil
	e.cancel = nil
	e.state.IsTranscribing = false
	if err == nil {
		e.state.Progress = 1.0
		e.state.PartialSegment = ""
		e.state.LastText = text
	} else if errors.Is(err, ErrCancelled) {
		// Teardown after cancellation resets published state.
		e.state.Progress = 0
		e.state.PartialSegment = ""
	}
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("transcription finished without result", "error", err,
			"elapsed", time.Since(start).Round(time.Millisecond))
		return "", err
	}

	e.log.Info("transcription complete", "chars", len(text),
		"elapsed", time.Since(start).Round(time.Millisecond))

	// Side effects are best-effort and never fail the request.
	if e.history != nil {
		if herr := e.history.Append(text, time.Now(), duration); herr != nil {
			e.log.Warn("history append failed", "error", herr)
		}
	}
	if e.clip != nil {
		if cerr := e.clip.Insert(text); cerr != nil {
			e.log.Warn("clipboard insert failed", "error", cerr)
		}
	}

	return text, nil
}

// run executes the request body: ingest, dispatch, post-process. It returns
// the final text and the source audio duration in seconds.
func (e *Engine) run(
	ctx context.Context,
	handle *session.Handle,
	load func() ([]float32, error),
	settings transcribe.Settings,
	token uuid.UUID,
	abort *transcribe.AbortFlag,
) (string, float64, error) {
	samples, err := load()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAudioConversion, err)
	}
	if len(samples) == 0 {
		return "", 0, fmt.Errorf("%w: empty audio buffer", ErrAudioConversion)
	}
	duration := audio.Duration(samples)

	if err := requestErr(ctx, abort); err != nil {
		return "", duration, err
	}

	// Updates flow through a channel so ordering is preserved and all
	// observable mutation happens on one consumer, token-checked.
	updates := make(chan update, 32)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for u := range updates {
			e.apply(token, u)
		}
	}()

	var raw string
	switch handle.Vendor() {
	case session.VendorParakeet:
		raw, err = e.runAlignment(ctx, handle.Adapter(), samples, settings, abort, updates)
	default:
		raw, err = e.runStreaming(ctx, handle.Adapter(), samples, settings, abort, updates)
	}
	close(updates)
	<-consumed

	if err != nil {
		return "", duration, classify(ctx, abort, err)
	}

	return e.post.Process(raw, settings), duration, nil
}

// runStreaming processes the full buffer in one pass, forwarding finalized
// segments and timestamp-derived progress as they arrive.
func (e *Engine) runStreaming(
	ctx context.Context,
	adapter transcribe.Adapter,
	samples []float32,
	settings transcribe.Settings,
	abort *transcribe.AbortFlag,
	updates chan<- update,
) (string, error) {
	res, err := adapter.Transcribe(ctx, transcribe.Request{
		Samples:  samples,
		Settings: settings,
		Abort:    abort,
		OnSegment: func(seg transcribe.Segment) {
			updates <- update{partial: seg.Text, hasPartial: true}
		},
		OnProgress: func(p float64) {
			updates <- update{progress: p, hasProgress: true}
		},
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// runAlignment dispatches to the token-alignment backend, windowing audio
// longer than the chunk threshold. Tokens from overlapped regions are kept
// as-is, duplicates included; windows shift their token times by the window
// offset before merging.
func (e *Engine) runAlignment(
	ctx context.Context,
	adapter transcribe.Adapter,
	samples []float32,
	settings transcribe.Settings,
	abort *transcribe.AbortFlag,
	updates chan<- update,
) (string, error) {
	var tokens []transcribe.Token

	if audio.Duration(samples) > chunkThresholdSeconds {
		windows := planWindows(len(samples), audio.TargetSampleRate)
		e.log.Debug("chunked transcription", "windows", len(windows), "samples", len(samples))

		for _, w := range windows {
			if err := requestErr(ctx, abort); err != nil {
				return "", err
			}

			res, err := adapter.Transcribe(ctx, transcribe.Request{
				Samples:  samples[w.start:w.end],
				Settings: settings,
				Abort:    abort,
			})
			if err != nil {
				return "", err
			}
			for _, tok := range res.Tokens {
				tok.Start += w.offsetSeconds
				tok.End += w.offsetSeconds
				tokens = append(tokens, tok)
			}

			p := float64(w.end) / float64(len(samples))
			if p > 1 {
				p = 1
			}
			updates <- update{progress: p, hasProgress: true}
		}
	} else {
		res, err := adapter.Transcribe(ctx, transcribe.Request{
			Samples:  samples,
			Settings: settings,
			Abort:    abort,
			OnProgress: func(p float64) {
				updates <- update{progress: p, hasProgress: true}
			},
		})
		if err != nil {
			return "", err
		}
		tokens = res.Tokens
	}

	sentences := transcribe.GroupSentences(tokens)
	return transcribe.RenderSentences(sentences, settings.ShowTimestamps), nil
}

// update is one observable-state mutation computed off the coordination path.
type update struct {
	progress    float64
	hasProgress bool
	partial     string
	hasPartial  bool
}

// apply publishes an update unless its request token has been superseded.
// Progress is clamped monotonic within the request.
func (e *Engine) apply(token uuid.UUID, u update) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token != token || !e.active {
		return // stale callback from a superseded request
	}
	if u.hasProgress && u.progress > e.state.Progress {
		p := u.progress
		if p > 1 {
			p = 1
		}
		e.state.Progress = p
	}
	if u.hasPartial {
		e.state.PartialSegment = u.partial
	}
}

// requestErr reports cancellation observed between pipeline stages.
func requestErr(ctx context.Context, abort *transcribe.AbortFlag) error {
	if abort.IsSet() {
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return nil
}

// classify maps an adapter error onto the engine taxonomy. A failure that
// surfaces while the abort flag is raised counts as a cancellation, not a
// processing failure.
func classify(ctx context.Context, abort *transcribe.AbortFlag, err error) error {
	switch {
	case errors.Is(err, ErrCancelled):
		return err
	case errors.Is(err, transcribe.ErrAborted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	case abort.IsSet() || ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	default:
		return fmt.Errorf("%w: %v", ErrProcessing, err)
	}
}
