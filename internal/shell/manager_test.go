package shell

import (
	"fmt"
	"testing"

	"github.com/kestrelbrowser/kestrel/internal/dialog"
	"github.com/kestrelbrowser/kestrel/internal/geom"
	"github.com/kestrelbrowser/kestrel/internal/view"
)

// fakeSurface records every control call. Close simulates a renderer that
// destroys its window promptly: it flips Alive and fires the teardown hook,
// the same path a DestroyNotify takes in production.
type fakeSurface struct {
	bounds      geom.Rect
	shown       bool
	focused     int
	muted       bool
	zoom        float64
	printed     int
	alive       bool
	closed      int
	nav         view.NavState
	onDestroyed func()
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{alive: true}
}

func (s *fakeSurface) SetBounds(r geom.Rect) error { s.bounds = r; return nil }
func (s *fakeSurface) Show() error                 { s.shown = true; return nil }
func (s *fakeSurface) Hide() error                 { s.shown = false; return nil }
func (s *fakeSurface) Focus() error                { s.focused++; return nil }
func (s *fakeSurface) SetAudioMuted(m bool) error  { s.muted = m; return nil }
func (s *fakeSurface) SetZoomFactor(f float64) error {
	s.zoom = f
	return nil
}
func (s *fakeSurface) Print() error             { s.printed++; return nil }
func (s *fakeSurface) NavState() view.NavState  { return s.nav }
func (s *fakeSurface) Alive() bool              { return s.alive }
func (s *fakeSurface) OnDestroyed(fn func())    { s.onDestroyed = fn }
func (s *fakeSurface) Close() error {
	s.closed++
	s.die()
	return nil
}

// die simulates the renderer window disappearing.
func (s *fakeSurface) die() {
	if !s.alive {
		return
	}
	s.alive = false
	if s.onDestroyed != nil {
		s.onDestroyed()
	}
}

type zoomEmit struct {
	factor     float64
	showDialog bool
}

type fakeWindow struct {
	width, height int
	attached      view.Surface
	chromeFocus   int
	title         string
	bookmarkURL   string
	navRefreshes  int
	tabsCreated   []int
	zoomNotices   []zoomEmit
	zoomEmits     []zoomEmit
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{width: 800, height: 600}
}

func (w *fakeWindow) ContentSize() (int, int) { return w.width, w.height }
func (w *fakeWindow) AttachSurface(s view.Surface) error {
	w.attached = s
	return s.Show()
}
func (w *fakeWindow) DetachSurface(s view.Surface) error {
	if w.attached == s {
		w.attached = nil
	}
	return s.Hide()
}
func (w *fakeWindow) FocusChrome()       { w.chromeFocus++ }
func (w *fakeWindow) SetTitle(t string)  { w.title = t }
func (w *fakeWindow) RefreshBookmark(url string) { w.bookmarkURL = url }
func (w *fakeWindow) RefreshNavState(id int, state view.NavState) {
	w.navRefreshes++
}
func (w *fakeWindow) NotifyTabCreated(id int, details CreateDetails, isNext bool) {
	w.tabsCreated = append(w.tabsCreated, id)
}
func (w *fakeWindow) NotifyZoomUpdated(id int, factor float64) {
	w.zoomNotices = append(w.zoomNotices, zoomEmit{factor: factor})
}
func (w *fakeWindow) EmitZoomFactor(factor float64, showDialog bool) {
	w.zoomEmits = append(w.zoomEmits, zoomEmit{factor: factor, showDialog: showDialog})
}

type fakeFactory struct {
	surfaces []*fakeSurface
	err      error
}

func (f *fakeFactory) NewSurface(url string, incognito bool) (view.Surface, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := newFakeSurface()
	f.surfaces = append(f.surfaces, s)
	return s, nil
}

func testConfig() Config {
	return Config{
		ToolbarHeight: 36,
		ZoomMin:       0.25,
		ZoomMax:       3.0,
		ZoomStep:      0.1,
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeWindow, *fakeFactory, *dialog.Set) {
	t.Helper()
	win := newFakeWindow()
	factory := &fakeFactory{}
	controllers := make(map[dialog.Kind]dialog.Controller)
	for _, k := range dialog.Kinds() {
		controllers[k] = dialog.NewTracked()
	}
	dialogs := dialog.NewSet(controllers, dialog.NewTracked(), nil)
	m := NewManager(win, dialogs, factory, testConfig())
	return m, win, factory, dialogs
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	for i := 1; i <= 3; i++ {
		v, err := m.Create(CreateDetails{URL: fmt.Sprintf("https://example.com/%d", i)}, false, true)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if v.ID() != i {
			t.Fatalf("expected ID %d, got %d", i, v.ID())
		}
	}
	if m.ViewCount() != 3 {
		t.Fatalf("expected 3 views, got %d", m.ViewCount())
	}
	if len(win.tabsCreated) != 3 {
		t.Fatalf("expected 3 create notifications, got %d", len(win.tabsCreated))
	}
}

func TestCreateWithoutNotifyIsSilent(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	if _, err := m.Create(CreateDetails{URL: "https://example.com"}, false, false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(win.tabsCreated) != 0 {
		t.Fatalf("expected no notifications, got %d", len(win.tabsCreated))
	}
}

func TestCreateRunsSurfaceRegistrar(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	registered := 0
	m.SetSurfaceRegistrar(func(s view.Surface) { registered++ })

	if _, err := m.Create(CreateDetails{URL: "https://example.com"}, false, false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if registered != 1 {
		t.Fatalf("expected registrar to run once, got %d", registered)
	}
}

func TestSelectSwitchesDisplayStack(t *testing.T) {
	m, win, factory, _ := newTestManager(t)

	a, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	b, _ := m.Create(CreateDetails{URL: "https://b.example"}, false, false)

	m.Select(a.ID(), true)
	if win.attached != factory.surfaces[0] {
		t.Fatal("expected surface A attached after first select")
	}
	if factory.surfaces[0].focused != 1 {
		t.Fatalf("expected surface A focused once, got %d", factory.surfaces[0].focused)
	}

	m.Select(b.ID(), true)
	if win.attached != factory.surfaces[1] {
		t.Fatal("expected surface B attached after second select")
	}
	if factory.surfaces[0].shown {
		t.Fatal("expected surface A hidden after switching away")
	}
	if m.SelectedID() != b.ID() {
		t.Fatalf("expected selection %d, got %d", b.ID(), m.SelectedID())
	}
}

func TestSelectWithoutFocusKeepsChrome(t *testing.T) {
	m, win, factory, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), false)

	if factory.surfaces[0].focused != 0 {
		t.Fatal("surface must not take focus on a chrome-focused select")
	}
	if win.chromeFocus != 1 {
		t.Fatalf("expected chrome focus once, got %d", win.chromeFocus)
	}
}

func TestSelectUpdatesTitleBookmarkAndBounds(t *testing.T) {
	m, win, factory, _ := newTestManager(t)
	win.width, win.height = 1024, 768

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	v.SetTitle("Example A")
	m.Select(v.ID(), true)

	if win.title != "Example A" {
		t.Fatalf("expected window title %q, got %q", "Example A", win.title)
	}
	if win.bookmarkURL != "https://a.example" {
		t.Fatalf("expected bookmark refresh for the URL, got %q", win.bookmarkURL)
	}
	want := geom.Rect{X: 0, Y: 36, Width: 1024, Height: 732}
	if factory.surfaces[0].bounds != want {
		t.Fatalf("expected bounds %+v, got %+v", want, factory.surfaces[0].bounds)
	}
	if win.navRefreshes != 1 {
		t.Fatalf("expected one nav-state refresh, got %d", win.navRefreshes)
	}
}

func TestSelectEmitsZoomSilently(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)

	if len(win.zoomEmits) != 1 {
		t.Fatalf("expected one zoom broadcast, got %d", len(win.zoomEmits))
	}
	if win.zoomEmits[0].showDialog {
		t.Fatal("zoom broadcast on select must not surface the indicator")
	}
	if win.zoomEmits[0].factor != view.DefaultZoomFactor {
		t.Fatalf("expected default factor, got %v", win.zoomEmits[0].factor)
	}
}

func TestSelectMissingIDIsNoOp(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)

	m.Select(99, true)

	if m.SelectedID() != v.ID() {
		t.Fatalf("selection must survive a select of an absent ID, got %d", m.SelectedID())
	}
	if win.attached == nil {
		t.Fatal("attached surface must survive a select of an absent ID")
	}
}

func TestReselectRerunsProtocol(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)
	m.Select(v.ID(), true)

	if len(win.zoomEmits) != 2 {
		t.Fatalf("reselecting must rerun the full protocol, got %d zoom broadcasts", len(win.zoomEmits))
	}
	if win.navRefreshes != 2 {
		t.Fatalf("expected 2 nav refreshes, got %d", win.navRefreshes)
	}
}

func TestSyncToShowsDialogsForActiveTabOnly(t *testing.T) {
	m, _, _, dialogs := newTestManager(t)

	a, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	b, _ := m.Create(CreateDetails{URL: "https://b.example"}, false, false)

	find, _ := dialogs.Controller(dialog.Find)
	find.(*dialog.Tracked).AttachTab(a.ID())

	m.Select(a.ID(), true)
	if !find.(*dialog.Tracked).Visible() {
		t.Fatal("find dialog must show for its attached tab")
	}

	m.Select(b.ID(), true)
	if find.(*dialog.Tracked).Visible() {
		t.Fatal("find dialog must hide when switching to an unrelated tab")
	}
}

func TestFixBoundsFullscreenIgnoresToolbar(t *testing.T) {
	m, win, factory, _ := newTestManager(t)
	win.width, win.height = 1024, 768

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)

	m.SetFullscreen(true)
	want := geom.Rect{X: 0, Y: 0, Width: 1024, Height: 768}
	if factory.surfaces[0].bounds != want {
		t.Fatalf("expected fullscreen bounds %+v, got %+v", want, factory.surfaces[0].bounds)
	}

	m.SetFullscreen(false)
	want = geom.Rect{X: 0, Y: 36, Width: 1024, Height: 732}
	if factory.surfaces[0].bounds != want {
		t.Fatalf("expected windowed bounds %+v, got %+v", want, factory.surfaces[0].bounds)
	}
}

func TestFixBoundsWithoutSelectionIsNoOp(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	m.FixBounds()
}

func TestChangeZoomStepsAndClamps(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)

	if !m.ChangeZoom(ZoomIn) {
		t.Fatal("zoom in from 1.0 must apply")
	}
	if v.ZoomFactor() != 1.1 {
		t.Fatalf("expected factor 1.1, got %v", v.ZoomFactor())
	}

	// Walk to the max; each step must land exactly on the grid.
	v.SetZoomFactor(2.9)
	if !m.ChangeZoom(ZoomIn) {
		t.Fatal("2.9 + 0.1 lands exactly on the inclusive max and must apply")
	}
	if v.ZoomFactor() != 3.0 {
		t.Fatalf("expected factor 3.0, got %v", v.ZoomFactor())
	}

	// One past the max: rejected, factor unchanged, broadcast still fires.
	emits := len(win.zoomEmits)
	if m.ChangeZoom(ZoomIn) {
		t.Fatal("zoom past max must not apply")
	}
	if v.ZoomFactor() != 3.0 {
		t.Fatalf("rejected zoom must leave the factor at 3.0, got %v", v.ZoomFactor())
	}
	if len(win.zoomEmits) != emits+1 {
		t.Fatal("rejected zoom must still rebroadcast the current factor")
	}
	if !win.zoomEmits[len(win.zoomEmits)-1].showDialog {
		t.Fatal("zoom command broadcasts must surface the indicator")
	}
}

func TestChangeZoomOutClampsAtMin(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)
	v.SetZoomFactor(0.25)

	if m.ChangeZoom(ZoomOut) {
		t.Fatal("zoom below min must not apply")
	}
	if v.ZoomFactor() != 0.25 {
		t.Fatalf("expected factor pinned at 0.25, got %v", v.ZoomFactor())
	}
}

func TestChangeZoomWithoutSelection(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	if m.ChangeZoom(ZoomIn) {
		t.Fatal("zoom without a selection must report not applied")
	}
	if len(win.zoomEmits) != 0 {
		t.Fatal("zoom without a selection must not broadcast")
	}
}

func TestEmitZoomUpdateWithoutSelection(t *testing.T) {
	m, win, _, _ := newTestManager(t)

	m.EmitZoomUpdate(true)
	if len(win.zoomEmits) != 0 {
		t.Fatal("broadcast without a selection must be a no-op")
	}
}

func TestResetZoom(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)
	v.SetZoomFactor(2.0)

	m.ResetZoom()
	if v.ZoomFactor() != view.DefaultZoomFactor {
		t.Fatalf("expected default factor after reset, got %v", v.ZoomFactor())
	}
}

func TestDestroySelectedClearsSelection(t *testing.T) {
	m, win, factory, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)

	m.Destroy(v.ID())

	if m.SelectedID() != 0 {
		t.Fatalf("expected empty selection after destroy, got %d", m.SelectedID())
	}
	if win.attached != nil {
		t.Fatal("expected display stack empty after destroying the selected view")
	}
	if factory.surfaces[0].closed != 1 {
		t.Fatalf("expected one close call, got %d", factory.surfaces[0].closed)
	}
	if m.ViewCount() != 0 {
		t.Fatalf("expected view removed via teardown hook, got %d views", m.ViewCount())
	}
}

func TestDestroyAbsentIDIsNoOp(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	m.Destroy(42)
}

func TestDestroyIsIdempotent(t *testing.T) {
	m, _, factory, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Destroy(v.ID())
	m.Destroy(v.ID())

	if factory.surfaces[0].closed != 1 {
		t.Fatalf("expected exactly one close call, got %d", factory.surfaces[0].closed)
	}
}

func TestDestroyDeadSurfaceIsNoOp(t *testing.T) {
	m, _, factory, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	factory.surfaces[0].die()

	// The teardown hook already removed the entry; a queued destroy request
	// arriving afterwards must be harmless.
	m.Destroy(v.ID())
	if factory.surfaces[0].closed != 0 {
		t.Fatal("destroying a dead surface must not close it again")
	}
}

func TestSurfaceDeathClearsSelection(t *testing.T) {
	m, _, factory, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)

	factory.surfaces[0].die()

	if m.SelectedID() != 0 {
		t.Fatalf("expected empty selection after surface death, got %d", m.SelectedID())
	}
	if m.ViewCount() != 0 {
		t.Fatalf("expected 0 views after surface death, got %d", m.ViewCount())
	}
}

func TestClearTearsDownEverything(t *testing.T) {
	m, win, factory, _ := newTestManager(t)

	a, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Create(CreateDetails{URL: "https://b.example"}, false, false)
	m.Select(a.ID(), true)

	m.Clear()

	if m.ViewCount() != 0 {
		t.Fatalf("expected no views after clear, got %d", m.ViewCount())
	}
	if m.SelectedID() != 0 {
		t.Fatalf("expected empty selection after clear, got %d", m.SelectedID())
	}
	if win.attached != nil {
		t.Fatal("expected display stack empty after clear")
	}
	for i, s := range factory.surfaces {
		if s.closed != 1 {
			t.Fatalf("expected surface %d closed once, got %d", i, s.closed)
		}
	}
}

func TestSetMutedStaleIDIsNoOp(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	m.SetMuted(7, true)
}

func TestSetMutedForwardsToSurface(t *testing.T) {
	m, _, factory, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.SetMuted(v.ID(), true)

	if !factory.surfaces[0].muted {
		t.Fatal("expected surface muted")
	}
	if !v.Muted() {
		t.Fatal("expected view mute flag cached")
	}
}

func TestPrintWithoutSelectionIsNoOp(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	m.Print()
}

func TestPrintSelectedView(t *testing.T) {
	m, _, factory, _ := newTestManager(t)

	v, _ := m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Select(v.ID(), true)
	m.Print()

	if factory.surfaces[0].printed != 1 {
		t.Fatalf("expected one print call, got %d", factory.surfaces[0].printed)
	}
}

func TestSweepDeadRemovesOnlyDeadViews(t *testing.T) {
	m, _, factory, _ := newTestManager(t)

	m.Create(CreateDetails{URL: "https://a.example"}, false, false)
	m.Create(CreateDetails{URL: "https://b.example"}, false, false)

	// Kill surface A without firing its hook, as if the destroy event was
	// lost.
	factory.surfaces[0].alive = false

	if n := m.SweepDead(); n != 1 {
		t.Fatalf("expected 1 swept view, got %d", n)
	}
	if m.ViewCount() != 1 {
		t.Fatalf("expected 1 view left, got %d", m.ViewCount())
	}
}

func TestUpdateConfigKeepsIncognito(t *testing.T) {
	win := newFakeWindow()
	factory := &fakeFactory{}
	cfg := testConfig()
	cfg.Incognito = true
	m := NewManager(win, dialog.NewSet(nil, nil, nil), factory, cfg)

	next := testConfig()
	next.ToolbarHeight = 48
	m.UpdateConfig(next)

	if !m.Incognito() {
		t.Fatal("config reload must not change the incognito flag")
	}
}

func TestViewsOrderedByID(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	for i := 0; i < 5; i++ {
		m.Create(CreateDetails{URL: "https://example.com"}, false, false)
	}
	views := m.Views()
	for i, v := range views {
		if v.ID() != i+1 {
			t.Fatalf("expected ID %d at position %d, got %d", i+1, i, v.ID())
		}
	}
}
