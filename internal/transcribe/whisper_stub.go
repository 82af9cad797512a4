//go:build !whisper

package transcribe

import "fmt"

// NewWhisperAdapter requires the whisper build tag; without it the native
// whisper.cpp bindings are not compiled in.
func NewWhisperAdapter(modelPath string) (Adapter, error) {
	return nil, fmt.Errorf("transcribe: whisper backend not compiled in (build with -tags whisper); model path: %s", modelPath)
}
