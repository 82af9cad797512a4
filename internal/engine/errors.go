package engine

import "errors"

// Error taxonomy of the transcription engine. Callers test with errors.Is;
// wrapped causes carry the underlying detail.
var (
	// ErrNoSession is returned when no model session is loaded.
	ErrNoSession = errors.New("engine: no model session loaded")

	// ErrAudioConversion is returned when ingestion could not produce PCM.
	ErrAudioConversion = errors.New("engine: audio conversion failed")

	// ErrProcessing is returned when an encode or decode step fails.
	ErrProcessing = errors.New("engine: processing failed")

	// ErrCancelled is returned when the request was cancelled, whether the
	// cancellation was observed cooperatively or as an abort surfacing from
	// inside the native decode call.
	ErrCancelled = errors.New("engine: transcription cancelled")

	// ErrBusy is returned when a transcription is already active on this
	// engine. The active request is never cancelled implicitly.
	ErrBusy = errors.New("engine: transcription already in progress")
)
