package x11

import (
	"fmt"
	"log"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/kestrelbrowser/kestrel/internal/geom"
	"github.com/kestrelbrowser/kestrel/internal/view"
)

// Control atoms the renderer process listens for as client messages, and the
// property it publishes its navigation state on.
const (
	atomSetZoom  = "_KESTREL_SET_ZOOM"
	atomSetMuted = "_KESTREL_SET_MUTED"
	atomPrint    = "_KESTREL_PRINT"
	atomNavState = "_KESTREL_NAV_STATE"
)

// Surface wraps an adopted renderer window as a rendering surface. The
// renderer runs in its own process; placement is direct X geometry and the
// richer controls go over private client messages.
type Surface struct {
	conn        *Connection
	win         *xwindow.Window
	alive       bool
	onDestroyed func()
}

// AdoptSurface wraps an existing renderer window and starts watching for its
// destruction.
func AdoptSurface(conn *Connection, windowID uint32) (*Surface, error) {
	s := &Surface{
		conn:  conn,
		win:   xwindow.New(conn.XUtil, xproto.Window(windowID)),
		alive: true,
	}

	// A DestroyNotify for the renderer window is the single source of truth
	// for surface death.
	s.win.Listen(xproto.EventMaskStructureNotify)
	xevent.DestroyNotifyFun(
		func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
			s.markDestroyed()
		}).Connect(conn.XUtil, s.win.Id)

	return s, nil
}

// SetBounds places the surface within the shell window. Surfaces are
// reparented children, so geometry is applied directly instead of going
// through the window manager.
func (s *Surface) SetBounds(r geom.Rect) error {
	err := xproto.ConfigureWindowChecked(s.conn.XUtil.Conn(), s.win.Id,
		xproto.ConfigWindowX|xproto.ConfigWindowY|
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(r.X), uint32(r.Y), uint32(r.Width), uint32(r.Height)}).Check()
	if err != nil {
		return fmt.Errorf("failed to place surface: %w", err)
	}
	return nil
}

// Show maps the surface window.
func (s *Surface) Show() error {
	if err := xproto.MapWindowChecked(s.conn.XUtil.Conn(), s.win.Id).Check(); err != nil {
		return fmt.Errorf("failed to map surface: %w", err)
	}
	return nil
}

// Hide unmaps the surface window.
func (s *Surface) Hide() error {
	if err := xproto.UnmapWindowChecked(s.conn.XUtil.Conn(), s.win.Id).Check(); err != nil {
		return fmt.Errorf("failed to unmap surface: %w", err)
	}
	return nil
}

// Focus grants the surface keyboard focus.
func (s *Surface) Focus() error {
	err := xproto.SetInputFocusChecked(s.conn.XUtil.Conn(),
		xproto.InputFocusPointerRoot, s.win.Id, xproto.TimeCurrentTime).Check()
	if err != nil {
		return fmt.Errorf("failed to focus surface: %w", err)
	}
	return nil
}

// SetAudioMuted toggles audio on the renderer.
func (s *Surface) SetAudioMuted(muted bool) error {
	val := uint32(0)
	if muted {
		val = 1
	}
	return s.sendControl(atomSetMuted, val)
}

// SetZoomFactor pushes a zoom factor to the renderer, encoded as percent.
func (s *Surface) SetZoomFactor(factor float64) error {
	return s.sendControl(atomSetZoom, uint32(factor*100))
}

// Print asks the renderer to open its print flow.
func (s *Surface) Print() error {
	return s.sendControl(atomPrint, 0)
}

// NavState reads the navigation bitmask the renderer publishes. Missing or
// unreadable property means the zero value.
func (s *Surface) NavState() view.NavState {
	prop, err := xprop.GetProperty(s.conn.XUtil, s.win.Id, atomNavState)
	num, err := xprop.PropValNum(prop, err)
	if err != nil {
		return view.NavState{}
	}
	return view.NavState{
		CanGoBack:    num&1 != 0,
		CanGoForward: num&2 != 0,
		Loading:      num&4 != 0,
	}
}

// Alive reports whether the renderer window still exists.
func (s *Surface) Alive() bool { return s.alive }

// OnDestroyed registers the teardown hook fired when the renderer window is
// destroyed.
func (s *Surface) OnDestroyed(fn func()) { s.onDestroyed = fn }

// Close asks the renderer window to close, falling back to destroying it.
func (s *Surface) Close() error {
	if !s.alive {
		return nil
	}
	if err := ewmh.CloseWindow(s.conn.XUtil, s.win.Id); err != nil {
		log.Printf("Close request failed for window %d, destroying: %v", s.win.Id, err)
		s.win.Destroy()
	}
	return nil
}

func (s *Surface) markDestroyed() {
	if !s.alive {
		return
	}
	s.alive = false
	if s.onDestroyed != nil {
		s.onDestroyed()
	}
}

func (s *Surface) sendControl(name string, value uint32) error {
	if !s.alive {
		return fmt.Errorf("surface window %d is gone", s.win.Id)
	}
	atom, err := s.conn.internAtom(name)
	if err != nil {
		return err
	}
	return s.conn.sendWindowMessage(s.win.Id, atom, [5]uint32{value, 0, 0, 0, 0})
}
