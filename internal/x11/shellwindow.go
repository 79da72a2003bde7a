package x11

import (
	"fmt"
	"log"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/kestrelbrowser/kestrel/internal/shell"
	"github.com/kestrelbrowser/kestrel/internal/view"
)

// Property names external toolbars and indicators can watch on the shell
// window. Zoom factors are published as percent so they fit a CARDINAL.
const (
	propNavState      = "_KESTREL_NAV_STATE"
	propViewZoom      = "_KESTREL_VIEW_ZOOM"
	propZoomFactor    = "_KESTREL_ZOOM_FACTOR"
	propZoomIndicator = "_KESTREL_ZOOM_INDICATOR"
	propBookmark      = "_KESTREL_BOOKMARK_URL"
	propTabNotice     = "_KESTREL_TAB_CREATED"
)

// ShellWindow is the top-level browser window. It owns the toolbar strip at
// the top and hosts one renderer surface at a time in the area below it.
type ShellWindow struct {
	conn    *Connection
	win     *xwindow.Window
	toolbar int
}

// CreateShellWindow creates and maps the top-level window.
func CreateShellWindow(conn *Connection, title string, width, height, toolbarHeight int) (*ShellWindow, error) {
	win, err := xwindow.Generate(conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	if err := win.CreateChecked(conn.Root, 0, 0, width, height,
		xproto.CwBackPixel|xproto.CwEventMask,
		0xffffff,
		uint32(xproto.EventMaskStructureNotify|xproto.EventMaskSubstructureNotify)); err != nil {
		return nil, fmt.Errorf("failed to create shell window: %w", err)
	}

	if err := ewmh.WmNameSet(conn.XUtil, win.Id, title); err != nil {
		log.Printf("Warning: failed to set window title: %v", err)
	}
	win.Map()

	return &ShellWindow{
		conn:    conn,
		win:     win,
		toolbar: toolbarHeight,
	}, nil
}

// ID returns the X window ID.
func (w *ShellWindow) ID() uint32 { return uint32(w.win.Id) }

// OnResize registers a callback invoked whenever the window geometry
// changes. Must be called before the event loop starts.
func (w *ShellWindow) OnResize(fn func()) {
	w.win.Listen(xproto.EventMaskStructureNotify)
	xevent.ConfigureNotifyFun(
		func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
			fn()
		}).Connect(w.conn.XUtil, w.win.Id)
}

// ContentSize returns the live content area of the window in pixels.
func (w *ShellWindow) ContentSize() (int, int) {
	geom, err := w.win.Geometry()
	if err != nil {
		log.Printf("Warning: failed to read window geometry: %v", err)
		return 0, 0
	}
	return geom.Width(), geom.Height()
}

// AttachSurface reparents the renderer window into the shell window and
// shows it.
func (w *ShellWindow) AttachSurface(s view.Surface) error {
	sf, ok := s.(*Surface)
	if !ok {
		return s.Show()
	}

	if err := xproto.ReparentWindowChecked(w.conn.XUtil.Conn(),
		sf.win.Id, w.win.Id, 0, int16(w.toolbar)).Check(); err != nil {
		return fmt.Errorf("failed to reparent surface: %w", err)
	}
	if err := sf.Show(); err != nil {
		return err
	}
	sf.win.Stack(xproto.StackModeAbove)
	return nil
}

// DetachSurface hides the surface. The window stays reparented; attaching
// the next surface stacks it above.
func (w *ShellWindow) DetachSurface(s view.Surface) error {
	return s.Hide()
}

// FocusChrome returns keyboard focus to the shell window itself so the
// toolbar keeps receiving input during programmatic tab switches.
func (w *ShellWindow) FocusChrome() {
	if err := w.conn.FocusWindow(uint32(w.win.Id)); err != nil {
		log.Printf("Warning: failed to focus chrome: %v", err)
	}
}

// SetTitle updates the window title.
func (w *ShellWindow) SetTitle(title string) {
	if err := ewmh.WmNameSet(w.conn.XUtil, w.win.Id, title); err != nil {
		log.Printf("Warning: failed to set window title: %v", err)
	}
}

// RefreshBookmark publishes the active URL so a bookmark indicator can
// re-evaluate its state.
func (w *ShellWindow) RefreshBookmark(url string) {
	w.setStringProp(propBookmark, url)
}

// RefreshNavState publishes back/forward/loading availability as a bitmask.
func (w *ShellWindow) RefreshNavState(id int, state view.NavState) {
	var mask uint32
	if state.CanGoBack {
		mask |= 1
	}
	if state.CanGoForward {
		mask |= 2
	}
	if state.Loading {
		mask |= 4
	}
	w.setCardinalProp(propNavState, uint32(id), mask)
}

// NotifyTabCreated announces a new tab with its placement hint.
func (w *ShellWindow) NotifyTabCreated(id int, details shell.CreateDetails, isNext bool) {
	next := uint32(0)
	if isNext {
		next = 1
	}
	w.setCardinalProp(propTabNotice, uint32(id), next)
	log.Printf("Tab %d created (url=%s, next=%v)", id, details.URL, isNext)
}

// NotifyZoomUpdated publishes the per-view zoom change as (view-id, percent).
func (w *ShellWindow) NotifyZoomUpdated(id int, factor float64) {
	w.setCardinalProp(propViewZoom, uint32(id), uint32(factor*100))
}

// EmitZoomFactor broadcasts the window-wide zoom factor as (percent, flag);
// the flag tells listeners whether a transient popup is appropriate.
func (w *ShellWindow) EmitZoomFactor(factor float64, showDialog bool) {
	dialog := uint32(0)
	if showDialog {
		dialog = 1
	}
	w.setCardinalProp(propZoomFactor, uint32(factor*100), dialog)
}

// SetZoomFactor publishes the zoom indicator value as a percent. The shell
// window fills the indicator slot of its own dialog set; whether a popup is
// shown is decided by the EmitZoomFactor flag, never here.
func (w *ShellWindow) SetZoomFactor(factor float64) {
	w.setCardinalProp(propZoomIndicator, uint32(factor*100))
}

// Destroy unmaps and destroys the window.
func (w *ShellWindow) Destroy() {
	w.win.Destroy()
}

func (w *ShellWindow) setStringProp(name, value string) {
	atom, err := w.conn.internAtom(name)
	if err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	utf8, err := w.conn.internAtom("UTF8_STRING")
	if err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	if err := xproto.ChangePropertyChecked(w.conn.XUtil.Conn(),
		xproto.PropModeReplace, w.win.Id, atom, utf8, 8,
		uint32(len(value)), []byte(value)).Check(); err != nil {
		log.Printf("Warning: failed to set %s: %v", name, err)
	}
}

func (w *ShellWindow) setCardinalProp(name string, values ...uint32) {
	atom, err := w.conn.internAtom(name)
	if err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	data := make([]byte, 4*len(values))
	for i, v := range values {
		data[4*i] = byte(v)
		data[4*i+1] = byte(v >> 8)
		data[4*i+2] = byte(v >> 16)
		data[4*i+3] = byte(v >> 24)
	}
	if err := xproto.ChangePropertyChecked(w.conn.XUtil.Conn(),
		xproto.PropModeReplace, w.win.Id, atom, xproto.AtomCardinal, 32,
		uint32(len(values)), data).Check(); err != nil {
		log.Printf("Warning: failed to set %s: %v", name, err)
	}
}
