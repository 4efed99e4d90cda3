package geometry

// Mapper converts pointer positions in screen space into image-pixel
// coordinates, accounting for the viewport pan/zoom and the letterboxing that
// an aspect-ratio-preserving fit introduces inside the container.
//
// All fields are plain values; a Mapper is cheap to construct per event and
// both mapping directions are pure.
type Mapper struct {
	// ContainerOrigin is the on-screen position of the container's top-left corner.
	ContainerOrigin Point
	// ContainerWidth and ContainerHeight are the container's on-screen dimensions.
	ContainerWidth  float64
	ContainerHeight float64
	// NaturalWidth and NaturalHeight are the source image's pixel dimensions.
	NaturalWidth  float64
	NaturalHeight float64
	// View is the current pan/zoom transform.
	View Viewport
}

// fit returns the aspect-fit scale ratio and the centered letterbox offsets.
func (m Mapper) fit() (ratio, offsetX, offsetY float64) {
	ratio = m.ContainerWidth / m.NaturalWidth
	if r := m.ContainerHeight / m.NaturalHeight; r < ratio {
		ratio = r
	}
	offsetX = (m.ContainerWidth - m.NaturalWidth*ratio) / 2
	offsetY = (m.ContainerHeight - m.NaturalHeight*ratio) / 2
	return ratio, offsetX, offsetY
}

// ToImage maps a pointer event's client coordinates to image-pixel space.
// Returns ok=false when the position falls on the letterbox padding or outside
// the image entirely; such positions are rejected, not clamped.
func (m Mapper) ToImage(clientX, clientY float64) (Point, bool) {
	if m.NaturalWidth <= 0 || m.NaturalHeight <= 0 || m.View.Zoom <= 0 {
		return Point{}, false
	}

	mouseX := clientX - m.ContainerOrigin.X
	mouseY := clientY - m.ContainerOrigin.Y

	// Undo pan, then zoom, recovering the unscaled container frame.
	unzoomedX := (mouseX - m.View.Pan.X) / m.View.Zoom
	unzoomedY := (mouseY - m.View.Pan.Y) / m.View.Zoom

	ratio, offsetX, offsetY := m.fit()

	naturalX := (unzoomedX - offsetX) / ratio
	naturalY := (unzoomedY - offsetY) / ratio

	if naturalX < 0 || naturalX > m.NaturalWidth || naturalY < 0 || naturalY > m.NaturalHeight {
		return Point{}, false
	}
	return Point{X: naturalX, Y: naturalY}, true
}

// ToScreen is the inverse of ToImage: it projects an image-pixel point back to
// client coordinates under the same transform.
func (m Mapper) ToScreen(p Point) (clientX, clientY float64) {
	ratio, offsetX, offsetY := m.fit()
	unzoomedX := p.X*ratio + offsetX
	unzoomedY := p.Y*ratio + offsetY
	clientX = unzoomedX*m.View.Zoom + m.View.Pan.X + m.ContainerOrigin.X
	clientY = unzoomedY*m.View.Zoom + m.View.Pan.Y + m.ContainerOrigin.Y
	return clientX, clientY
}
