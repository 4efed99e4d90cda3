package geometry

// Mode selects how the user draws a selection path.
type Mode int

const (
	ModePolygon Mode = iota
	ModeRectangle
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	if m == ModeRectangle {
		return "rectangle"
	}
	return "polygon"
}

// ParseMode maps a wire name back to a Mode. Unknown names default to polygon.
func ParseMode(s string) Mode {
	if s == "rectangle" {
		return ModeRectangle
	}
	return ModePolygon
}

// State is the lifecycle of a selection path.
type State int

const (
	StateEmpty State = iota
	StateDrawing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDrawing:
		return "drawing"
	case StateClosed:
		return "closed"
	default:
		return "empty"
	}
}

// MinClosedPoints is the minimum point count for a path that can be committed
// as a mask or crop region.
const MinClosedPoints = 3

// Selection accumulates a polygon or rectangle path in image-pixel
// coordinates. It is a plain state machine with no locking; the session
// controller is its single writer.
type Selection struct {
	mode   Mode
	points []Point
	closed bool

	// rectangle drag session
	dragging  bool
	dragStart Point
	dragEnd   Point
}

// NewSelection returns an empty polygon-mode selection.
func NewSelection() *Selection {
	return &Selection{mode: ModePolygon}
}

// Mode returns the active drawing mode.
func (s *Selection) Mode() Mode { return s.mode }

// State derives the lifecycle state from the accumulated path.
func (s *Selection) State() State {
	switch {
	case s.closed:
		return StateClosed
	case len(s.points) > 0 || s.dragging:
		return StateDrawing
	default:
		return StateEmpty
	}
}

// Points returns a copy of the accumulated path.
func (s *Selection) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of committed points.
func (s *Selection) Len() int { return len(s.points) }

// Closed reports whether the path has been closed.
func (s *Selection) Closed() bool { return s.closed }

// Committable reports whether the path is valid for mask/crop generation:
// closed with at least MinClosedPoints points.
func (s *Selection) Committable() bool {
	return s.closed && len(s.points) >= MinClosedPoints
}

// Click appends a point in polygon mode. Ignored once the path is closed,
// while a rectangle drag is live, or in rectangle mode.
func (s *Selection) Click(p Point) {
	if s.mode != ModePolygon || s.closed || s.dragging {
		return
	}
	s.points = append(s.points, p)
}

// DoubleClick closes a polygon path with at least MinClosedPoints points.
// With fewer points it is a no-op and the path stays open.
func (s *Selection) DoubleClick() {
	if s.mode != ModePolygon || s.closed {
		return
	}
	if len(s.points) >= MinClosedPoints {
		s.closed = true
	}
}

// BeginDrag starts a rectangle drag session at p. Ignored in polygon mode or
// once the path is closed.
func (s *Selection) BeginDrag(p Point) {
	if s.mode != ModeRectangle || s.closed {
		return
	}
	s.dragging = true
	s.dragStart = p
	s.dragEnd = p
}

// UpdateDrag moves the live end point of a rectangle drag. The committed
// points list is not touched; this only feeds the preview.
func (s *Selection) UpdateDrag(p Point) {
	if !s.dragging {
		return
	}
	s.dragEnd = p
}

// DragPreview returns the live drag corners while a rectangle drag is active.
func (s *Selection) DragPreview() (start, end Point, ok bool) {
	if !s.dragging {
		return Point{}, Point{}, false
	}
	return s.dragStart, s.dragEnd, true
}

// EndDrag completes a rectangle drag, synthesizing the four corners
// (x1,y1),(x2,y1),(x2,y2),(x1,y2) directly from the drag's start and end
// points. No min/max normalization is applied; the path is an axis-aligned
// rectangle regardless of drag direction.
func (s *Selection) EndDrag() {
	if !s.dragging {
		return
	}
	s.dragging = false
	p1 := s.dragStart
	p3 := s.dragEnd
	s.points = []Point{
		p1,
		{X: p3.X, Y: p1.Y},
		p3,
		{X: p1.X, Y: p3.Y},
	}
	s.closed = true
}

// SwitchMode changes the drawing mode. Switching while any selection state
// exists resets to empty first; no partial state carries across modes.
func (s *Selection) SwitchMode(m Mode) {
	if m == s.mode {
		return
	}
	s.Clear()
	s.mode = m
}

// Clear discards all points and any pending drag, returning to empty.
func (s *Selection) Clear() {
	s.points = nil
	s.closed = false
	s.dragging = false
	s.dragStart = Point{}
	s.dragEnd = Point{}
}
