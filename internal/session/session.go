// Package session owns the currently loaded model: which backend it belongs
// to and the adapter handle for it. Exactly one session is current at a time;
// reloads swap the handle atomically and the old handle stays alive until the
// last in-flight transcription using it releases its reference.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qazi0/OpenSuperWhisper/internal/transcribe"
)

// Vendor identifies the inference backend of a session.
type Vendor string

const (
	VendorWhisper  Vendor = "whisper"  // incremental segment decode
	VendorParakeet Vendor = "parakeet" // batch token-alignment decode
)

// Handle is a reference-counted loaded model. Transcriptions acquire a
// reference for their whole duration, so a reload finishing mid-flight can
// never free the model they are using.
type Handle struct {
	vendor   Vendor
	path     string
	adapter  transcribe.Adapter
	loadedAt time.Time
	refs     atomic.Int64
}

// Vendor returns the backend this handle belongs to.
func (h *Handle) Vendor() Vendor { return h.vendor }

// Path returns the model path the handle was loaded from.
func (h *Handle) Path() string { return h.path }

// Adapter returns the vendor adapter bound to this handle.
func (h *Handle) Adapter() transcribe.Adapter { return h.adapter }

// LoadedAt returns the time the handle finished loading.
func (h *Handle) LoadedAt() time.Time { return h.loadedAt }

// Release drops one reference. The underlying adapter is closed when the last
// reference goes away.
func (h *Handle) Release() {
	if h.refs.Add(-1) == 0 {
		_ = h.adapter.Close()
	}
}

// Manager holds the current session and serializes swaps.
type Manager struct {
	mu      sync.Mutex
	current *Handle
	lastErr error
}

// NewManager returns a Manager with no session loaded.
func NewManager() *Manager {
	return &Manager{}
}

// Load synchronously loads a model for the given vendor and, on success,
// atomically swaps it in as the current session. On failure the previous
// session (or the absence of one) is left untouched and the error is
// recorded for observability.
//
// Concurrent loads are permitted; whichever finishes last wins. The swap
// itself is atomic either way.
func (m *Manager) Load(path string, vendor Vendor) error {
	adapter, err := transcribe.New(string(vendor), path)
	if err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return fmt.Errorf("session: load %s model: %w", vendor, err)
	}

	m.Install(path, vendor, adapter)
	return nil
}

// Install swaps an already-constructed adapter in as the current session.
// The previous session's reference is released; it is freed once its last
// in-flight transcription finishes.
func (m *Manager) Install(path string, vendor Vendor, adapter transcribe.Adapter) {
	h := &Handle{
		vendor:   vendor,
		path:     path,
		adapter:  adapter,
		loadedAt: time.Now(),
	}
	h.refs.Store(1) // manager's own reference

	m.mu.Lock()
	old := m.current
	m.current = h
	m.lastErr = nil
	m.mu.Unlock()

	if old != nil {
		old.Release()
	}
}

// Acquire returns the current session with an extra reference, or nil when no
// session is loaded. The caller must Release the handle when done.
func (m *Manager) Acquire() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	m.current.refs.Add(1)
	return m.current
}

// Vendor returns the current session's vendor, or "" when none is loaded.
func (m *Manager) Vendor() Vendor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.vendor
}

// LastError returns the error recorded by the most recent failed load, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Close releases the manager's reference to the current session, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	old := m.current
	m.current = nil
	m.mu.Unlock()
	if old != nil {
		old.Release()
	}
}
