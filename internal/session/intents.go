package session

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-drilldown/internal/editor"
	"github.com/fpang/photo-drilldown/internal/geometry"
	"github.com/fpang/photo-drilldown/internal/imagefile"
	"github.com/fpang/photo-drilldown/internal/raster"
)

// ErrNoSelection is returned by CaptureSource when the selection is not a
// closed, committable path.
var ErrNoSelection = errors.New("no closed selection to capture")

// PointerEvent is a pointer position in client coordinates together with the
// on-screen rectangle of the image container at the moment of the event. The
// container rectangle is what lets the server-side mapper undo the browser's
// layout without knowing anything else about it.
type PointerEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`

	ContainerX      float64 `json:"containerX"`
	ContainerY      float64 `json:"containerY"`
	ContainerWidth  float64 `json:"containerWidth"`
	ContainerHeight float64 `json:"containerHeight"`
}

// mapperLocked builds the coordinate mapper for the current image and view.
func (c *Controller) mapperLocked(ev PointerEvent) geometry.Mapper {
	return geometry.Mapper{
		ContainerOrigin: geometry.Point{X: ev.ContainerX, Y: ev.ContainerY},
		ContainerWidth:  ev.ContainerWidth,
		ContainerHeight: ev.ContainerHeight,
		NaturalWidth:    float64(c.naturalWidth),
		NaturalHeight:   float64(c.naturalHeight),
		View:            c.view,
	}
}

// deriveScopeLocked recomputes the apply scope when the selection's point
// count changes: more than two points means the edit targets the selection,
// otherwise the whole image. A manual scope override lasts only until the
// next count change.
func (c *Controller) deriveScopeLocked() {
	n := c.sel.Len()
	if n == c.prevSelLen {
		return
	}
	c.prevSelLen = n
	if n > geometry.MinClosedPoints-1 {
		c.scope = editor.ScopeSelection
	} else {
		c.scope = editor.ScopeImage
	}
}

// Click adds a polygon vertex at the pointer position. Clicks on the
// letterbox padding or outside the image are ignored.
func (c *Controller) Click(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.original == nil {
		return
	}
	p, ok := c.mapperLocked(ev).ToImage(ev.ClientX, ev.ClientY)
	if !ok {
		return
	}
	c.sel.Click(p)
	c.deriveScopeLocked()
}

// DoubleClick closes the polygon when it has enough vertices.
func (c *Controller) DoubleClick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.DoubleClick()
	c.deriveScopeLocked()
}

// BeginDrag anchors a rectangle selection at the pointer position.
func (c *Controller) BeginDrag(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.original == nil {
		return
	}
	p, ok := c.mapperLocked(ev).ToImage(ev.ClientX, ev.ClientY)
	if !ok {
		return
	}
	c.sel.BeginDrag(p)
	c.deriveScopeLocked()
}

// UpdateDrag moves the rectangle's live corner. Positions outside the image
// are ignored, freezing the preview at the last valid corner.
func (c *Controller) UpdateDrag(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.mapperLocked(ev).ToImage(ev.ClientX, ev.ClientY)
	if !ok {
		return
	}
	c.sel.UpdateDrag(p)
}

// EndDrag commits the dragged rectangle as a closed four-corner path.
func (c *Controller) EndDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.EndDrag()
	c.deriveScopeLocked()
}

// SwitchMode changes the selection tool, discarding any in-progress path.
func (c *Controller) SwitchMode(m geometry.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.SwitchMode(m)
	c.deriveScopeLocked()
}

// ClearSelection discards the current path.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.Clear()
	c.deriveScopeLocked()
}

// CaptureSource crops the closed selection out of the original image and
// stores the cutout as the source patch for subsequent edits. The selection
// is cleared afterwards.
func (c *Controller) CaptureSource() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.original == nil {
		return editor.ErrNoImage
	}
	if !c.sel.Committable() {
		return ErrNoSelection
	}
	img, err := imagefile.Decode(c.original.Data)
	if err != nil {
		return err
	}
	patch, err := raster.Crop(img, c.sel.Points())
	if err != nil {
		return err
	}
	c.sourcePatch = patch
	c.sel.Clear()
	c.deriveScopeLocked()
	log.Info().Int("bytes", len(patch)).Msg("Source patch captured")
	return nil
}

// Zoom applies a wheel zoom step anchored at the pointer position. A positive
// delta zooms out, a negative one zooms in, matching wheel deltaY semantics.
func (c *Controller) Zoom(delta float64, ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	factor := geometry.ZoomSpeed
	if delta > 0 {
		factor = 1 / geometry.ZoomSpeed
	}
	mouseX := ev.ClientX - ev.ContainerX
	mouseY := ev.ClientY - ev.ContainerY
	c.view = c.view.ZoomAt(factor, mouseX, mouseY)
}

// SetZoom sets the zoom level directly, clamped, without pan compensation.
func (c *Controller) SetZoom(z float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.view.WithZoom(z)
}

// PanBy shifts the view by a screen-space delta.
func (c *Controller) PanBy(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Pan.X += dx
	c.view.Pan.Y += dy
}

// ResetView restores the identity transform.
func (c *Controller) ResetView() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = geometry.DefaultViewport()
}
