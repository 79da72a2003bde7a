package view

import "github.com/kestrelbrowser/kestrel/internal/geom"

// NavState describes the navigation controls a surface can currently honor.
type NavState struct {
	CanGoBack    bool
	CanGoForward bool
	Loading      bool
}

// Surface is the opaque rendering primitive behind a view: it paints a
// document and exposes placement, focus, audio, zoom and print controls.
// Implementations live at the platform boundary (see internal/x11); the shell
// core only talks to this interface.
type Surface interface {
	// SetBounds places the surface at the given rectangle within the shell
	// window's content area.
	SetBounds(r geom.Rect) error

	// Show and Hide implement the display stack: exactly one surface per
	// window is shown at a time.
	Show() error
	Hide() error

	// Focus grants the surface input focus.
	Focus() error

	SetAudioMuted(muted bool) error
	SetZoomFactor(factor float64) error
	Print() error

	// NavState reports back/forward/reload availability for toolbar
	// indicators. Surfaces that cannot know return the zero value.
	NavState() NavState

	// Alive reports whether the underlying surface still exists. Destroy
	// paths must check this to tolerate a surface that died between an
	// external request being queued and processed.
	Alive() bool

	// OnDestroyed registers a one-time hook invoked when the surface reports
	// its own destruction. The shell uses it to drop its map entry even when
	// Destroy was never called.
	OnDestroyed(fn func())

	// Close tears the surface down. Idempotent; a dead surface ignores it.
	Close() error
}
