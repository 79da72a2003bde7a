// Package shell implements the tab orchestration core: it owns the live
// views of one window, runs the selection state machine, recomputes view
// bounds, and keeps the dialog set consistent with the active tab.
package shell

import (
	"log"
	"log/slog"
	"math"
	"sort"

	"github.com/kestrelbrowser/kestrel/internal/dialog"
	"github.com/kestrelbrowser/kestrel/internal/geom"
	"github.com/kestrelbrowser/kestrel/internal/view"
)

// noSelection is the manager's empty-selection sentinel. Real view IDs are
// assigned starting at 1, and every selected-view read goes through a map
// membership check anyway.
const noSelection = 0

// CreateDetails carries the inputs of a create request.
type CreateDetails struct {
	URL string
}

// ZoomDirection names the two zoom adjustment commands.
type ZoomDirection string

const (
	ZoomIn  ZoomDirection = "in"
	ZoomOut ZoomDirection = "out"
)

// Window is the host windowing collaborator: one top-level window with a
// toolbar, a title, a display stack showing at most one surface, and the
// outbound notification channel to its listeners.
type Window interface {
	// ContentSize returns the current content area in pixels.
	ContentSize() (width, height int)

	// AttachSurface pushes a surface onto the display stack; DetachSurface
	// removes it. The manager guarantees at most one surface is attached.
	AttachSurface(s view.Surface) error
	DetachSurface(s view.Surface) error

	// FocusChrome gives keyboard focus back to the window chrome, used for
	// programmatic switches where the toolbar should keep focus.
	FocusChrome()

	SetTitle(title string)

	// RefreshBookmark updates the bookmark-state indicator for the given URL.
	RefreshBookmark(url string)

	// RefreshNavState updates back/forward/reload availability indicators.
	RefreshNavState(id int, state view.NavState)

	// NotifyTabCreated announces a new tab with its placement hint.
	NotifyTabCreated(id int, details CreateDetails, isNext bool)

	// NotifyZoomUpdated is the per-view informational "zoom updated" signal.
	NotifyZoomUpdated(id int, factor float64)

	// EmitZoomFactor broadcasts the window-wide zoom factor. showDialog tells
	// receivers whether surfacing a transient zoom indicator is appropriate.
	EmitZoomFactor(factor float64, showDialog bool)
}

// SurfaceFactory creates rendering surfaces for new views.
type SurfaceFactory interface {
	NewSurface(url string, incognito bool) (view.Surface, error)
}

// Config holds the manager's layout and zoom policy.
type Config struct {
	ToolbarHeight int
	ZoomMin       float64
	ZoomMax       float64
	ZoomStep      float64
	Incognito     bool
}

// Manager owns the views of one window. It is not internally synchronized:
// all mutation must happen on the owner's dispatch loop, which is what keeps
// the selection and dialog invariants consistent after every operation.
type Manager struct {
	win     Window
	dialogs *dialog.Set
	factory SurfaceFactory
	cfg     Config

	views      map[int]*view.View
	selected   int
	fullscreen bool
	nextID     int

	// registerSurface hands new surfaces to the extension-activation
	// subsystem. Optional.
	registerSurface func(view.Surface)
}

// NewManager creates a manager bound to one window. The incognito flag in
// cfg is fixed for the manager's lifetime and propagated to every view it
// creates.
func NewManager(win Window, dialogs *dialog.Set, factory SurfaceFactory, cfg Config) *Manager {
	if dialogs == nil {
		dialogs = dialog.NewSet(nil, nil, nil)
	}
	return &Manager{
		win:     win,
		dialogs: dialogs,
		factory: factory,
		cfg:     cfg,
		views:   make(map[int]*view.View),
		nextID:  1,
	}
}

// SetSurfaceRegistrar installs the extension-activation hook invoked for
// every surface a create request produces.
func (m *Manager) SetSurfaceRegistrar(fn func(view.Surface)) {
	m.registerSurface = fn
}

// UpdateConfig swaps the layout/zoom policy (config reload) and recomputes
// bounds for the current selection. The incognito flag is immutable and kept.
func (m *Manager) UpdateConfig(cfg Config) {
	cfg.Incognito = m.cfg.Incognito
	m.cfg = cfg
	m.FixBounds()
}

// Create instantiates a new view for the given details, registers it under a
// fresh ID and installs the teardown hook that removes the map entry when the
// surface reports its own destruction. The returned view's ID is immediately
// valid for Select and Destroy.
func (m *Manager) Create(details CreateDetails, isNext, notify bool) (*view.View, error) {
	surface, err := m.factory.NewSurface(details.URL, m.cfg.Incognito)
	if err != nil {
		return nil, err
	}

	id := m.nextID
	m.nextID++

	v := view.New(id, surface, details.URL, m.cfg.Incognito)
	m.views[id] = v

	if m.registerSurface != nil {
		m.registerSurface(surface)
	}
	surface.OnDestroyed(func() {
		m.handleSurfaceDestroyed(id)
	})

	if notify {
		m.win.NotifyTabCreated(id, details, isNext)
	}
	return v, nil
}

// Select runs the full tab-switch synchronization protocol. Selecting an
// absent or already-destroyed ID is a silent no-op; re-selecting the current
// ID reruns the whole sequence since dialog relevance or bounds may have
// changed since the last switch.
func (m *Manager) Select(id int, focus bool) {
	v, ok := m.views[id]
	if !ok {
		return
	}

	if prev, ok := m.views[m.selected]; ok {
		if err := m.win.DetachSurface(prev.Surface()); err != nil {
			log.Printf("shell: detach view %d: %v", prev.ID(), err)
		}
	}

	m.selected = id
	if err := m.win.AttachSurface(v.Surface()); err != nil {
		log.Printf("shell: attach view %d: %v", id, err)
	}

	if focus {
		if err := v.Surface().Focus(); err != nil {
			log.Printf("shell: focus view %d: %v", id, err)
		}
	} else {
		m.win.FocusChrome()
	}

	m.dialogs.HidePreview()
	m.dialogs.SyncTo(id)

	m.win.SetTitle(v.Title())
	m.win.RefreshBookmark(v.URL())

	m.FixBounds()

	m.win.RefreshNavState(id, v.Surface().NavState())

	m.EmitZoomUpdate(false)
}

// FixBounds recomputes and applies the selected view's rectangle from the
// window's current content area. No-op without a live selection. The window
// calls this on every content-bounds change; Select and SetFullscreen call
// it internally.
func (m *Manager) FixBounds() {
	v, ok := m.views[m.selected]
	if !ok {
		return
	}
	w, h := m.win.ContentSize()
	v.ApplyBounds(geom.ViewBounds(w, h, m.cfg.ToolbarHeight, m.fullscreen))
}

// SetFullscreen toggles fullscreen and immediately recomputes bounds.
func (m *Manager) SetFullscreen(fullscreen bool) {
	m.fullscreen = fullscreen
	m.FixBounds()
}

func (m *Manager) Fullscreen() bool { return m.fullscreen }
func (m *Manager) Incognito() bool  { return m.cfg.Incognito }

// ChangeZoom adjusts the selected view's zoom factor by one step in the given
// direction. Returns false when the candidate falls outside [min, max] (the
// caller should not apply its default action) or when nothing is selected.
// Both branches re-broadcast the current factor.
func (m *Manager) ChangeZoom(dir ZoomDirection) bool {
	v, ok := m.views[m.selected]
	if !ok {
		return false
	}

	step := m.cfg.ZoomStep
	if dir == ZoomOut {
		step = -step
	}
	// Round to the step grid so repeated float adds cannot drift past the
	// inclusive bounds (2.9 + 0.1 must land exactly on 3.0).
	candidate := math.Round((v.ZoomFactor()+step)*100) / 100

	if candidate < m.cfg.ZoomMin || candidate > m.cfg.ZoomMax {
		m.EmitZoomUpdate(true)
		return false
	}

	v.SetZoomFactor(candidate)
	m.win.NotifyZoomUpdated(v.ID(), candidate)
	m.EmitZoomUpdate(true)
	return true
}

// ResetZoom unconditionally returns the selected view to the default factor.
func (m *Manager) ResetZoom() {
	v, ok := m.views[m.selected]
	if !ok {
		return
	}
	v.SetZoomFactor(view.DefaultZoomFactor)
	m.win.NotifyZoomUpdated(v.ID(), view.DefaultZoomFactor)
	m.EmitZoomUpdate(true)
}

// EmitZoomUpdate sends the selected view's zoom factor to the zoom indicator
// and broadcasts it to window listeners together with the showDialog flag.
// Silent no-op without a live selection.
func (m *Manager) EmitZoomUpdate(showDialog bool) {
	v, ok := m.views[m.selected]
	if !ok {
		slog.Debug("zoom broadcast skipped, no selection")
		return
	}
	m.dialogs.SetZoomFactor(v.ZoomFactor())
	m.win.EmitZoomFactor(v.ZoomFactor(), showDialog)
}

// Destroy tears down a view. No-op if the ID is absent or the surface is
// already dead. The map entry is removed by the teardown hook installed at
// creation, not here, which makes destruction idempotent regardless of
// whether it was requested explicitly or reported by the surface itself.
func (m *Manager) Destroy(id int) {
	v, ok := m.views[id]
	if !ok {
		return
	}
	if !v.Surface().Alive() {
		return
	}

	if m.selected == id {
		if err := m.win.DetachSurface(v.Surface()); err != nil {
			log.Printf("shell: detach view %d: %v", id, err)
		}
		m.selected = noSelection
	}

	if err := v.Surface().Close(); err != nil {
		log.Printf("shell: close view %d: %v", id, err)
	}
}

// handleSurfaceDestroyed is the teardown hook: drop the map entry on the
// surface's destruction signal, independent of whether Destroy was called.
func (m *Manager) handleSurfaceDestroyed(id int) {
	if _, ok := m.views[id]; !ok {
		return
	}
	delete(m.views, id)
	if m.selected == id {
		m.selected = noSelection
	}
}

// Clear detaches whatever is on the display stack and tears down every
// tracked view. Used for bulk teardown, e.g. leaving incognito mode or
// closing the window.
func (m *Manager) Clear() {
	if v, ok := m.views[m.selected]; ok {
		if err := m.win.DetachSurface(v.Surface()); err != nil {
			log.Printf("shell: detach view %d: %v", v.ID(), err)
		}
	}
	for _, v := range m.views {
		if err := v.Surface().Close(); err != nil {
			log.Printf("shell: close view %d: %v", v.ID(), err)
		}
	}
	m.views = make(map[int]*view.View)
	m.selected = noSelection
}

// SetMuted sets the audio-mute flag on a view's surface. Stale IDs are an
// expected race; absent entries are ignored.
func (m *Manager) SetMuted(id int, muted bool) {
	v, ok := m.views[id]
	if !ok {
		return
	}
	v.SetMuted(muted)
}

// Print invokes print on the selected view. Silent no-op without a live
// selection.
func (m *Manager) Print() {
	v, ok := m.views[m.selected]
	if !ok {
		return
	}
	if err := v.Surface().Print(); err != nil {
		log.Printf("shell: print view %d: %v", v.ID(), err)
	}
}

// SelectedID returns the currently selected view ID, or 0 when none.
func (m *Manager) SelectedID() int {
	if _, ok := m.views[m.selected]; !ok {
		return noSelection
	}
	return m.selected
}

// View returns the view registered under id.
func (m *Manager) View(id int) (*view.View, bool) {
	v, ok := m.views[id]
	return v, ok
}

// Views returns all live views ordered by ID.
func (m *Manager) Views() []*view.View {
	out := make([]*view.View, 0, len(m.views))
	for _, v := range m.views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ViewCount returns the number of live views.
func (m *Manager) ViewCount() int { return len(m.views) }

// SweepDead removes views whose surfaces died without delivering a destroy
// event. Called by the reconciler on the dispatch loop.
func (m *Manager) SweepDead() int {
	var dead []int
	for id, v := range m.views {
		if !v.Surface().Alive() {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		m.handleSurfaceDestroyed(id)
	}
	return len(dead)
}
