package ipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrelbrowser/kestrel/internal/auth"
	"github.com/kestrelbrowser/kestrel/internal/config"
	"github.com/kestrelbrowser/kestrel/internal/dialog"
	"github.com/kestrelbrowser/kestrel/internal/geom"
	"github.com/kestrelbrowser/kestrel/internal/shell"
	"github.com/kestrelbrowser/kestrel/internal/view"
)

type stubSurface struct {
	alive       bool
	onDestroyed func()
}

func (s *stubSurface) SetBounds(geom.Rect) error     { return nil }
func (s *stubSurface) Show() error                   { return nil }
func (s *stubSurface) Hide() error                   { return nil }
func (s *stubSurface) Focus() error                  { return nil }
func (s *stubSurface) SetAudioMuted(bool) error      { return nil }
func (s *stubSurface) SetZoomFactor(float64) error   { return nil }
func (s *stubSurface) Print() error                  { return nil }
func (s *stubSurface) NavState() view.NavState       { return view.NavState{} }
func (s *stubSurface) Alive() bool                   { return s.alive }
func (s *stubSurface) OnDestroyed(fn func())         { s.onDestroyed = fn }
func (s *stubSurface) Close() error {
	if s.alive {
		s.alive = false
		if s.onDestroyed != nil {
			s.onDestroyed()
		}
	}
	return nil
}

type stubWindow struct{}

func (stubWindow) ContentSize() (int, int)                         { return 800, 600 }
func (stubWindow) AttachSurface(s view.Surface) error              { return s.Show() }
func (stubWindow) DetachSurface(s view.Surface) error              { return s.Hide() }
func (stubWindow) FocusChrome()                                    {}
func (stubWindow) SetTitle(string)                                 {}
func (stubWindow) RefreshBookmark(string)                          {}
func (stubWindow) RefreshNavState(int, view.NavState)              {}
func (stubWindow) NotifyTabCreated(int, shell.CreateDetails, bool) {}
func (stubWindow) NotifyZoomUpdated(int, float64)                  {}
func (stubWindow) EmitZoomFactor(float64, bool)                    {}

type stubFactory struct{}

func (stubFactory) NewSurface(url string, incognito bool) (view.Surface, error) {
	return &stubSurface{alive: true}, nil
}

const testWindowID = 7

// startTestServer brings up a full server on a per-test socket and returns a
// connected client scoped to the test window.
func startTestServer(t *testing.T) *Client {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "kestrel-test.sock")
	cfg := config.DefaultConfig()
	cfg.SocketPath = socketPath

	manager := shell.NewManager(stubWindow{}, dialog.NewSet(nil, nil, nil), stubFactory{}, shell.Config{
		ToolbarHeight: cfg.ToolbarHeight,
		ZoomMin:       cfg.Zoom.Min,
		ZoomMax:       cfg.Zoom.Max,
		ZoomStep:      cfg.Zoom.Step,
	})
	bridge := auth.NewBridge(nil)

	registry := shell.NewRegistry()
	registry.Add(testWindowID, &shell.Entry{Manager: manager, Auth: bridge})

	srv, err := NewServer(cfg, registry, make(chan struct{}, 1))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Stop()
	})

	client := NewClientForSocket(socketPath)
	client.SetWindow(testWindowID)
	return client
}

func TestTabLifecycleOverSocket(t *testing.T) {
	client := startTestServer(t)

	id, err := client.AddTab("https://example.com")
	if err != nil {
		t.Fatalf("add tab: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first tab ID 1, got %d", id)
	}

	state, err := client.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Selected != id {
		t.Fatalf("expected tab %d selected, got %d", id, state.Selected)
	}
	if len(state.Views) != 1 || state.Views[0].URL != "https://example.com" {
		t.Fatalf("unexpected state views: %+v", state.Views)
	}

	if err := client.DestroyView(id); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	state, err = client.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(state.Views) != 0 || state.Selected != 0 {
		t.Fatalf("expected empty state after destroy, got %+v", state)
	}
}

func TestBackgroundCreateDoesNotSelect(t *testing.T) {
	client := startTestServer(t)

	if _, err := client.AddTab("https://a.example"); err != nil {
		t.Fatalf("add tab: %v", err)
	}
	id, err := client.CreateView("https://b.example", false)
	if err != nil {
		t.Fatalf("create view: %v", err)
	}

	state, err := client.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Selected == id {
		t.Fatal("background create must not steal the selection")
	}
	if len(state.Views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(state.Views))
	}
}

func TestCreateViewsReturnsIDsInOrder(t *testing.T) {
	client := startTestServer(t)

	ids, err := client.CreateViews([]string{"https://a.example", "https://b.example", "https://c.example"})
	if err != nil {
		t.Fatalf("create views: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 IDs, got %d", len(ids))
	}
	for i, id := range ids {
		if id != i+1 {
			t.Fatalf("expected ID %d at position %d, got %d", i+1, i, id)
		}
	}
}

func TestChangeZoomOverSocket(t *testing.T) {
	client := startTestServer(t)

	if _, err := client.AddTab("https://example.com"); err != nil {
		t.Fatalf("add tab: %v", err)
	}

	data, err := client.ChangeZoom("in")
	if err != nil {
		t.Fatalf("zoom in: %v", err)
	}
	if !data.Applied || data.Factor != 1.1 {
		t.Fatalf("expected applied factor 1.1, got %+v", data)
	}

	reset, err := client.ResetZoom()
	if err != nil {
		t.Fatalf("reset zoom: %v", err)
	}
	if reset.Factor != 1.0 {
		t.Fatalf("expected factor 1.0 after reset, got %v", reset.Factor)
	}
}

func TestZoomClampReportsNotApplied(t *testing.T) {
	client := startTestServer(t)

	if _, err := client.AddTab("https://example.com"); err != nil {
		t.Fatalf("add tab: %v", err)
	}

	// Default range tops out at 3.0; walk up until the clamp hits.
	var last *ZoomData
	for i := 0; i < 30; i++ {
		data, err := client.ChangeZoom("in")
		if err != nil {
			t.Fatalf("zoom in: %v", err)
		}
		last = data
		if !data.Applied {
			break
		}
	}
	if last.Applied {
		t.Fatal("expected the clamp to reject a step eventually")
	}
	if last.Factor != 3.0 {
		t.Fatalf("expected factor pinned at 3.0, got %v", last.Factor)
	}
}

func TestUnknownWindowIsRejected(t *testing.T) {
	client := startTestServer(t)
	client.SetWindow(99)

	if _, err := client.GetState(); err == nil {
		t.Fatal("expected an error for an unknown window")
	}
}

func TestZeroWindowIDTargetsOnlyWindow(t *testing.T) {
	client := startTestServer(t)
	client.SetWindow(0)

	if _, err := client.GetState(); err != nil {
		t.Fatalf("window 0 must resolve to the only window: %v", err)
	}
}

func TestGetStatus(t *testing.T) {
	client := startTestServer(t)

	if _, err := client.AddTab("https://example.com"); err != nil {
		t.Fatalf("add tab: %v", err)
	}

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if !status.DaemonRunning {
		t.Fatal("expected daemon running")
	}
	if status.WindowCount != 1 || status.ViewCount != 1 {
		t.Fatalf("unexpected counts: %+v", status)
	}
}

func TestAuthRoundTrip(t *testing.T) {
	client := startTestServer(t)

	type authResult struct {
		data *AuthData
		err  error
	}
	done := make(chan authResult, 1)
	go func() {
		requester := NewClientForSocket(clientSocket(client))
		requester.SetWindow(testWindowID)
		data, err := requester.RequestAuth("https://example.com/protected")
		done <- authResult{data, err}
	}()

	// Wait for the request to land before resolving.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := client.ResolveAuth("user", "secret"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out resolving auth")
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("request auth: %v", res.err)
		}
		if res.data.Canceled {
			t.Fatal("expected resolved credentials, got canceled")
		}
		if res.data.Username != "user" || res.data.Password != "secret" {
			t.Fatalf("unexpected credentials: %+v", res.data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth response")
	}
}

// clientSocket exposes the socket path for spawning extra connections.
func clientSocket(c *Client) string { return c.socketPath }
