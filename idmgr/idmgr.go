// Package idmgr implements the Wayland object identifier manager: the
// id-map and free list described by the wire protocol's object lifecycle.
package idmgr

import "github.com/nuclearcodecat/waytinier-go/waterr"

// DisplayID is the permanently assigned id of the wl_display singleton.
const DisplayID uint32 = 1

// Entry is what the id-map stores for a live object: its interface name
// (used for debugging and InvalidOpCode reporting) and an opaque handle the
// caller chooses to mean "the object".
type Entry struct {
	Interface string
	Object    any
}

// Manager owns the id-map and free list. It is not safe for concurrent use;
// the event loop is single-threaded and is the only intended caller.
type Manager struct {
	top     uint32
	entries map[uint32]Entry
	free    []uint32
}

// New returns a Manager with id 1 already reserved for wl_display.
func New(displayObject any) *Manager {
	m := &Manager{
		top:     1,
		entries: make(map[uint32]Entry),
	}
	m.entries[DisplayID] = Entry{Interface: "wl_display", Object: displayObject}
	return m
}

// Allocate reserves the next id for a newly created object, preferring a
// recycled id from the free list (FIFO) over incrementing the counter.
func (m *Manager) Allocate(iface string, object any) uint32 {
	var id uint32
	if len(m.free) > 0 {
		id = m.free[0]
		m.free = m.free[1:]
	} else {
		m.top++
		id = m.top
	}
	m.entries[id] = Entry{Interface: iface, Object: object}
	return id
}

// Set updates the object stored for an already-allocated id. Protocol
// objects are constructed with their own id as a field, so the usual
// sequence is Allocate(iface, nil) to learn the id, construct the object
// with it, then Set(id, object) to install it.
func (m *Manager) Set(id uint32, object any) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	e.Object = object
	m.entries[id] = e
}

// Free releases id back to the free list. It is idempotent: freeing an
// already-freed or never-allocated id is a no-op.
func (m *Manager) Free(id uint32) {
	if _, ok := m.entries[id]; !ok {
		return
	}
	delete(m.entries, id)
	m.free = append(m.free, id)
}

// Lookup returns the live entry for id, or waterr.ErrObjectNonExistent.
func (m *Manager) Lookup(id uint32) (Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, waterr.ErrObjectNonExistent
	}
	return e, nil
}

// Len reports how many objects are currently live.
func (m *Manager) Len() int { return len(m.entries) }

// Clear removes every entry without touching the free list, used at
// connection teardown so any in-flight destructor requests still observe
// the about-to-close socket rather than a crashed state.
func (m *Manager) Clear() {
	m.entries = make(map[uint32]Entry)
}
