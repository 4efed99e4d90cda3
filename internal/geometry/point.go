// Package geometry implements the pointer-to-image coordinate mapping and the
// polygon/rectangle selection state machine for the photo editor. All exported
// operations work in image-pixel space ("natural" coordinates of the source
// image); screen-space values only appear as inputs to the Mapper.
package geometry

// Point is a position in image-pixel space unless stated otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox returns the axis-aligned bounding box of a set of points as
// (minX, minY, maxX, maxY). ok is false for an empty slice.
func BoundingBox(points []Point) (minX, minY, maxX, maxY float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = points[0].X, points[0].Y
	maxX, maxY = points[0].X, points[0].Y
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY, true
}
