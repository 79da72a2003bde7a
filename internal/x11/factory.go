package x11

import (
	"fmt"
	"log"
	"math/rand"
	"os/exec"
	"time"

	"github.com/kestrelbrowser/kestrel/internal/view"
)

// RendererFactory spawns renderer processes and adopts their windows as
// surfaces. Each renderer is launched with a unique window title so the
// new window can be identified in the client list.
type RendererFactory struct {
	conn         *Connection
	command      string
	args         []string
	adoptTimeout time.Duration
}

// NewRendererFactory builds a factory around the configured renderer command.
func NewRendererFactory(conn *Connection, command string, args []string, adoptTimeout time.Duration) *RendererFactory {
	if adoptTimeout <= 0 {
		adoptTimeout = 5 * time.Second
	}
	return &RendererFactory{
		conn:         conn,
		command:      command,
		args:         args,
		adoptTimeout: adoptTimeout,
	}
}

// NewSurface launches a renderer for the URL and waits for its window to
// appear, then adopts it.
func (f *RendererFactory) NewSurface(url string, incognito bool) (view.Surface, error) {
	marker := fmt.Sprintf("kestrel-view-%08x", rand.Uint32())

	args := append([]string{}, f.args...)
	args = append(args, "--name", marker)
	if incognito {
		args = append(args, "--incognito")
	}
	if url != "" {
		args = append(args, url)
	}

	cmd := exec.Command(f.command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch renderer: %w", err)
	}
	// Reap the renderer when it exits; its lifetime is tracked through the
	// window, not the process.
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("Renderer %s exited: %v", marker, err)
		}
	}()

	windowID, err := f.waitForWindow(marker)
	if err != nil {
		return nil, err
	}

	return AdoptSurface(f.conn, windowID)
}

// waitForWindow polls the client list until the marker title appears or the
// adopt timeout expires.
func (f *RendererFactory) waitForWindow(marker string) (uint32, error) {
	deadline := time.Now().Add(f.adoptTimeout)
	for {
		windowID, err := f.conn.FindWindowByTitle(marker)
		if err == nil {
			return windowID, nil
		}
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("timeout waiting for renderer window %q after %s", marker, f.adoptTimeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
