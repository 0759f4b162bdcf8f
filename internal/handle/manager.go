// Package handle owns the process-local reference the viewer uses to
// address the uploaded document's bytes. The manager is an arena of
// one: acquiring a new handle always revokes the previous one first,
// so at most one handle is ever live.
package handle

import (
	"sync"

	"subtext/internal/util"
)

// Manager holds the single live renderable handle. Handles do not
// survive a restart and are meaningless after Release; dereferencing a
// stale id yields "unavailable", never an error.
type Manager struct {
	mu   sync.Mutex
	id   string
	data []byte
}

func NewManager() *Manager {
	return &Manager{}
}

// Acquire revokes any previous handle and returns a fresh opaque id
// for the given bytes. The bytes are copied so later mutation by the
// caller cannot reach viewer reads.
func (m *Manager) Acquire(data []byte) string {
	owned := make([]byte, len(data))
	copy(owned, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = util.NewID("doc")
	m.data = owned
	return m.id
}

// Release revokes the current handle. Idempotent; called on session
// reset and process shutdown.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = ""
	m.data = nil
}

// Deref returns the bytes for id, or false when id is not the live
// handle — stale, already released, or never issued.
func (m *Manager) Deref(id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" || id != m.id {
		return nil, false
	}
	return m.data, true
}

// Current returns the live handle id, if any.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, m.id != ""
}
