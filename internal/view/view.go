// Package view holds the logical browser tab: one rendering surface plus its
// navigation, zoom and title metadata.
package view

import (
	"log"

	"github.com/kestrelbrowser/kestrel/internal/geom"
)

// DefaultZoomFactor is the zoom every new view starts at and ResetZoom
// returns to.
const DefaultZoomFactor = 1.0

// View is a logical browser tab. It is owned by exactly one shell manager;
// dialogs reference it only by ID. The ID is assigned at creation and stays
// stable until the view is destroyed.
type View struct {
	id        int
	surface   Surface
	url       string
	title     string
	zoom      float64
	muted     bool
	bounds    geom.Rect
	incognito bool
}

// New creates a view wrapping the given surface. The incognito flag is
// inherited from the owning manager and never changes afterwards.
func New(id int, surface Surface, url string, incognito bool) *View {
	return &View{
		id:        id,
		surface:   surface,
		url:       url,
		zoom:      DefaultZoomFactor,
		incognito: incognito,
	}
}

func (v *View) ID() int          { return v.id }
func (v *View) Surface() Surface { return v.surface }
func (v *View) URL() string      { return v.url }
func (v *View) Title() string    { return v.title }
func (v *View) Incognito() bool  { return v.incognito }
func (v *View) Muted() bool      { return v.muted }

// ZoomFactor returns the view's current zoom multiplier.
func (v *View) ZoomFactor() float64 { return v.zoom }

// Bounds returns the last rectangle applied to the surface.
func (v *View) Bounds() geom.Rect { return v.bounds }

// SetURL records a navigation. Title is cleared until the surface reports a
// new one.
func (v *View) SetURL(url string) {
	v.url = url
	v.title = ""
}

func (v *View) SetTitle(title string) { v.title = title }

// SetZoomFactor applies the factor to the surface and caches it.
func (v *View) SetZoomFactor(factor float64) {
	v.zoom = factor
	if err := v.surface.SetZoomFactor(factor); err != nil {
		log.Printf("view %d: failed to apply zoom factor %.2f: %v", v.id, factor, err)
	}
}

// SetMuted applies the audio-mute flag to the surface and caches it.
func (v *View) SetMuted(muted bool) {
	v.muted = muted
	if err := v.surface.SetAudioMuted(muted); err != nil {
		log.Printf("view %d: failed to set muted=%v: %v", v.id, muted, err)
	}
}

// ApplyBounds places the surface at r and caches the rectangle so the view's
// layout always reflects the most recent bounds computation.
func (v *View) ApplyBounds(r geom.Rect) {
	v.bounds = r
	if err := v.surface.SetBounds(r); err != nil {
		log.Printf("view %d: failed to apply bounds %+v: %v", v.id, r, err)
	}
}
