// Package dialog defines the fixed set of modal/overlay controllers whose
// visibility is synchronized to the active tab on every selection change.
package dialog

// Kind names one dialog in the fixed set.
type Kind int

const (
	Find Kind = iota
	Auth
	Permissions
	FormFill
	Credentials
)

// Kinds returns the fixed dialog set in its canonical iteration order.
func Kinds() []Kind {
	return []Kind{Find, Auth, Permissions, FormFill, Credentials}
}

func (k Kind) String() string {
	switch k {
	case Find:
		return "find"
	case Auth:
		return "auth"
	case Permissions:
		return "permissions"
	case FormFill:
		return "formfill"
	case Credentials:
		return "credentials"
	default:
		return "unknown"
	}
}

// Controller is the uniform interface every dialog implementation exposes to
// the shell. The shell only decides when a dialog shows or hides; rendering
// is the implementation's concern.
type Controller interface {
	Show()
	Hide()
	BringToTop()

	// HasTab reports whether the dialog is relevant to the given tab ID.
	HasTab(id int) bool
}

// ZoomIndicator receives the selected view's zoom factor. The indicator
// decides on its own whether to surface a transient popup; selection changes
// pass the factor silently through the window broadcast instead.
type ZoomIndicator interface {
	SetZoomFactor(factor float64)
}

// Set is the per-window collection the shell iterates on every selection
// change: the five tab-synchronized dialogs, the hover preview (hidden
// unconditionally on every switch) and the zoom indicator.
type Set struct {
	controllers map[Kind]Controller
	preview     Controller
	zoom        ZoomIndicator
}

// NewSet builds a dialog set. Nil entries are tolerated: a window without a
// given dialog simply skips it during synchronization.
func NewSet(controllers map[Kind]Controller, preview Controller, zoom ZoomIndicator) *Set {
	if controllers == nil {
		controllers = map[Kind]Controller{}
	}
	return &Set{controllers: controllers, preview: preview, zoom: zoom}
}

// Controller returns the controller registered for k, if any.
func (s *Set) Controller(k Kind) (Controller, bool) {
	c, ok := s.controllers[k]
	return c, ok
}

// HidePreview hides the hover preview dialog.
func (s *Set) HidePreview() {
	if s.preview != nil {
		s.preview.Hide()
	}
}

// SyncTo makes every dialog's visibility a pure function of the current
// selection: shown and raised when the dialog claims the tab, hidden
// otherwise. Recomputed on every selection change so nothing stays stale
// from a prior tab.
func (s *Set) SyncTo(id int) {
	for _, k := range Kinds() {
		c, ok := s.controllers[k]
		if !ok || c == nil {
			continue
		}
		if c.HasTab(id) {
			c.Show()
			c.BringToTop()
		} else {
			c.Hide()
		}
	}
}

// SetZoomFactor forwards the factor to the zoom indicator.
func (s *Set) SetZoomFactor(factor float64) {
	if s.zoom != nil {
		s.zoom.SetZoomFactor(factor)
	}
}
