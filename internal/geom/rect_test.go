package geom

import "testing"

func TestViewBounds_ToolbarOffset(t *testing.T) {
	r := ViewBounds(800, 600, 36, false)
	want := Rect{X: 0, Y: 36, Width: 800, Height: 564}
	if r != want {
		t.Fatalf("expected %+v, got %+v", want, r)
	}
}

func TestViewBounds_Fullscreen(t *testing.T) {
	r := ViewBounds(800, 600, 36, true)
	want := Rect{X: 0, Y: 0, Width: 800, Height: 600}
	if r != want {
		t.Fatalf("expected %+v, got %+v", want, r)
	}
}

func TestViewBounds_ToolbarTallerThanWindowClampsHeight(t *testing.T) {
	r := ViewBounds(400, 20, 36, false)
	if r.Height != 0 {
		t.Fatalf("expected clamped height 0, got %d", r.Height)
	}
}
