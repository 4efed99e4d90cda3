package geometry

// Zoom limits and wheel step, matching the editor UI.
const (
	MinZoom   = 0.5
	MaxZoom   = 8.0
	ZoomSpeed = 1.2
)

// Viewport is the pan/zoom transform applied to the image container.
// Pan is a screen-space pixel offset; Zoom is a scale factor in [MinZoom, MaxZoom].
type Viewport struct {
	Zoom float64 `json:"zoom"`
	Pan  Point   `json:"pan"`
}

// DefaultViewport returns the identity transform used whenever the active
// image changes.
func DefaultViewport() Viewport {
	return Viewport{Zoom: 1, Pan: Point{}}
}

// ClampZoom restricts z to the supported zoom range.
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// ZoomAt returns the viewport after zooming by factor with the cursor at
// (mouseX, mouseY) in container-local screen coordinates. The pan is adjusted
// so the image point under the cursor stays fixed.
func (v Viewport) ZoomAt(factor, mouseX, mouseY float64) Viewport {
	newZoom := ClampZoom(v.Zoom * factor)
	scale := newZoom / v.Zoom
	return Viewport{
		Zoom: newZoom,
		Pan: Point{
			X: mouseX - (mouseX-v.Pan.X)*scale,
			Y: mouseY - (mouseY-v.Pan.Y)*scale,
		},
	}
}

// WithZoom returns the viewport with zoom set (clamped) and pan unchanged.
// Used by the explicit zoom in/out buttons, which zoom about the pan origin.
func (v Viewport) WithZoom(z float64) Viewport {
	v.Zoom = ClampZoom(z)
	return v
}
