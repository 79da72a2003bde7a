package shell

import (
	"sort"

	"github.com/kestrelbrowser/kestrel/internal/auth"
)

// Entry pairs one window's manager with its shared auth bridge.
type Entry struct {
	Manager *Manager
	Auth    *auth.Bridge
}

// Registry maps window identities to their shell entries so requests from
// multiple windows do not interfere. It is mutated only on the dispatch loop
// that also runs the managers.
type Registry struct {
	entries map[uint32]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint32]*Entry)}
}

// Add registers a window's entry under its identity.
func (r *Registry) Add(windowID uint32, e *Entry) {
	r.entries[windowID] = e
}

// Remove drops a window's entry.
func (r *Registry) Remove(windowID uint32) {
	delete(r.entries, windowID)
}

// Get resolves a window identity. Window ID 0 is a client convenience
// meaning "the only window" and resolves when exactly one is registered.
func (r *Registry) Get(windowID uint32) (*Entry, bool) {
	if windowID == 0 && len(r.entries) == 1 {
		for _, e := range r.entries {
			return e, true
		}
	}
	e, ok := r.entries[windowID]
	return e, ok
}

// WindowIDs returns registered window identities in ascending order.
func (r *Registry) WindowIDs() []uint32 {
	out := make([]uint32, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WindowCount returns the number of registered windows.
func (r *Registry) WindowCount() int { return len(r.entries) }

// ViewCount returns the number of live views across all windows.
func (r *Registry) ViewCount() int {
	n := 0
	for _, e := range r.entries {
		n += e.Manager.ViewCount()
	}
	return n
}

// ApplyConfig pushes a reloaded layout/zoom policy to every manager.
func (r *Registry) ApplyConfig(cfg Config) {
	for _, e := range r.entries {
		e.Manager.UpdateConfig(cfg)
	}
}

// SweepDead removes views with dead surfaces across all windows, returning
// how many were dropped.
func (r *Registry) SweepDead() int {
	n := 0
	for _, e := range r.entries {
		n += e.Manager.SweepDead()
	}
	return n
}
