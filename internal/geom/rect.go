package geom

// Rect represents a view position and size within the shell window.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// IsZero reports whether the rectangle is the zero value.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// ViewBounds computes the rectangle a selected view occupies inside a shell
// window with the given content size. In fullscreen the view covers the whole
// content area; otherwise it is pushed down by the toolbar height and shrunk
// by the same amount.
func ViewBounds(contentWidth, contentHeight, toolbarHeight int, fullscreen bool) Rect {
	if fullscreen {
		return Rect{X: 0, Y: 0, Width: contentWidth, Height: contentHeight}
	}

	height := contentHeight - toolbarHeight
	if height < 0 {
		height = 0
	}

	return Rect{
		X:      0,
		Y:      toolbarHeight,
		Width:  contentWidth,
		Height: height,
	}
}
