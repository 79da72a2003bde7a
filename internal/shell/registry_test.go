package shell

import "testing"

func newRegistryWithWindows(t *testing.T, ids ...uint32) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, id := range ids {
		m, _, _, _ := newTestManager(t)
		r.Add(id, &Entry{Manager: m})
	}
	return r
}

func TestZeroIDResolvesOnlyWindow(t *testing.T) {
	r := newRegistryWithWindows(t, 42)

	e, ok := r.Get(0)
	if !ok || e == nil {
		t.Fatal("window 0 must resolve when exactly one window is registered")
	}
}

func TestZeroIDAmbiguousWithTwoWindows(t *testing.T) {
	r := newRegistryWithWindows(t, 1, 2)

	if _, ok := r.Get(0); ok {
		t.Fatal("window 0 must not resolve when several windows are registered")
	}
}

func TestGetUnknownWindow(t *testing.T) {
	r := newRegistryWithWindows(t, 1)

	if _, ok := r.Get(9); ok {
		t.Fatal("expected lookup miss for an unregistered window")
	}
}

func TestWindowIDsSorted(t *testing.T) {
	r := newRegistryWithWindows(t, 30, 10, 20)

	ids := r.WindowIDs()
	want := []uint32{10, 20, 30}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("expected IDs %v, got %v", want, ids)
		}
	}
}

func TestViewCountSpansWindows(t *testing.T) {
	r := NewRegistry()
	for _, id := range []uint32{1, 2} {
		m, _, _, _ := newTestManager(t)
		m.Create(CreateDetails{URL: "https://example.com"}, false, false)
		r.Add(id, &Entry{Manager: m})
	}

	if n := r.ViewCount(); n != 2 {
		t.Fatalf("expected 2 views across windows, got %d", n)
	}
}

func TestRegistrySweepDead(t *testing.T) {
	r := NewRegistry()
	m, _, factory, _ := newTestManager(t)
	m.Create(CreateDetails{URL: "https://example.com"}, false, false)
	r.Add(1, &Entry{Manager: m})

	factory.surfaces[0].alive = false
	if n := r.SweepDead(); n != 1 {
		t.Fatalf("expected 1 swept view, got %d", n)
	}
}
