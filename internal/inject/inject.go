// Package inject delivers the final transcription to the active application
// using robotgo, either by pasting via the clipboard or by simulating
// keystrokes.
package inject

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// Inserter places transcribed text into the active application.
type Inserter struct {
	method string // "paste" or "type"
}

// NewInserter creates an Inserter with the given method.
// method must be "paste" (clipboard) or "type" (keystroke simulation).
func NewInserter(method string) *Inserter {
	return &Inserter{method: method}
}

// Insert delivers text using the configured method. Empty text is a no-op.
func (ins *Inserter) Insert(text string) error {
	if text == "" {
		return nil
	}

	switch ins.method {
	case "type":
		return ins.typeText(text)
	default: // "paste"
		return ins.paste(text)
	}
}

// typeText simulates individual keystrokes. Preserves clipboard contents
// but is slower for long text.
func (ins *Inserter) typeText(text string) error {
	robotgo.Type(text)
	return nil
}

// paste copies text to the clipboard and pastes it with Cmd+V, then restores
// the previous clipboard contents best-effort.
func (ins *Inserter) paste(text string) error {
	prev, _ := robotgo.ReadAll()

	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}
	if err := robotgo.KeyTap("v", "cmd"); err != nil {
		return fmt.Errorf("inject: key tap cmd+v: %w", err)
	}

	_ = robotgo.WriteAll(prev)
	return nil
}
