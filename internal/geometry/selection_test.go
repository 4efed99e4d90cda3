package geometry

import (
	"reflect"
	"testing"
)

func TestPolygonLifecycle(t *testing.T) {
	s := NewSelection()
	if s.State() != StateEmpty {
		t.Fatalf("new selection state = %v, want empty", s.State())
	}

	s.Click(Point{X: 10, Y: 10})
	if s.State() != StateDrawing {
		t.Errorf("state after first click = %v, want drawing", s.State())
	}

	s.Click(Point{X: 20, Y: 10})

	// Double-click with only 2 points must not close the path.
	s.DoubleClick()
	if s.Closed() {
		t.Error("path closed with fewer than 3 points")
	}

	s.Click(Point{X: 15, Y: 25})
	s.DoubleClick()
	if !s.Closed() || s.State() != StateClosed {
		t.Error("path did not close with 3 points")
	}
	if !s.Committable() {
		t.Error("closed 3-point path should be committable")
	}

	// Further clicks are ignored once closed.
	s.Click(Point{X: 99, Y: 99})
	if s.Len() != 3 {
		t.Errorf("point added to closed path, len = %d", s.Len())
	}
}

func TestRectangleSynthesis(t *testing.T) {
	drags := []struct {
		name       string
		start, end Point
	}{
		{"down-right", Point{X: 10, Y: 20}, Point{X: 110, Y: 70}},
		{"up-left", Point{X: 110, Y: 70}, Point{X: 10, Y: 20}},
		{"down-left", Point{X: 110, Y: 20}, Point{X: 10, Y: 70}},
		{"up-right", Point{X: 10, Y: 70}, Point{X: 110, Y: 20}},
	}

	for _, d := range drags {
		t.Run(d.name, func(t *testing.T) {
			s := NewSelection()
			s.SwitchMode(ModeRectangle)
			s.BeginDrag(d.start)
			s.UpdateDrag(d.end)
			s.EndDrag()

			if !s.Closed() {
				t.Fatal("rectangle drag did not close the path")
			}
			pts := s.Points()
			if len(pts) != 4 {
				t.Fatalf("rectangle has %d points, want 4", len(pts))
			}

			// Corner order is start-derived, not normalized.
			want := []Point{
				d.start,
				{X: d.end.X, Y: d.start.Y},
				d.end,
				{X: d.start.X, Y: d.end.Y},
			}
			if !reflect.DeepEqual(pts, want) {
				t.Errorf("corners = %v, want %v", pts, want)
			}

			// The bounding box is drag-direction independent.
			minX, minY, maxX, maxY, _ := BoundingBox(pts)
			if minX != 10 || minY != 20 || maxX != 110 || maxY != 70 {
				t.Errorf("bbox = (%v,%v)-(%v,%v), want (10,20)-(110,70)", minX, minY, maxX, maxY)
			}
		})
	}
}

func TestRectangleDragPreviewDoesNotMutatePoints(t *testing.T) {
	s := NewSelection()
	s.SwitchMode(ModeRectangle)
	s.BeginDrag(Point{X: 1, Y: 1})
	s.UpdateDrag(Point{X: 5, Y: 5})
	s.UpdateDrag(Point{X: 9, Y: 9})

	if s.Len() != 0 {
		t.Errorf("live drag mutated the points list, len = %d", s.Len())
	}
	start, end, ok := s.DragPreview()
	if !ok {
		t.Fatal("expected a live drag preview")
	}
	if start != (Point{X: 1, Y: 1}) || end != (Point{X: 9, Y: 9}) {
		t.Errorf("preview = %v..%v", start, end)
	}
}

func TestClickIgnoredInRectangleMode(t *testing.T) {
	s := NewSelection()
	s.SwitchMode(ModeRectangle)
	s.Click(Point{X: 1, Y: 1})
	if s.Len() != 0 {
		t.Error("polygon click accepted in rectangle mode")
	}
}

func TestSwitchModeResetsState(t *testing.T) {
	s := NewSelection()
	s.Click(Point{X: 1, Y: 1})
	s.Click(Point{X: 2, Y: 2})

	s.SwitchMode(ModeRectangle)
	if s.State() != StateEmpty || s.Len() != 0 {
		t.Error("mode switch did not reset partial polygon state")
	}

	s.BeginDrag(Point{X: 0, Y: 0})
	s.SwitchMode(ModePolygon)
	if s.State() != StateEmpty {
		t.Error("mode switch did not reset pending drag")
	}

	// Switching to the current mode is a no-op and must not clear anything.
	s.Click(Point{X: 3, Y: 3})
	s.SwitchMode(ModePolygon)
	if s.Len() != 1 {
		t.Error("redundant mode switch cleared state")
	}
}

func TestClearFromAnyState(t *testing.T) {
	s := NewSelection()
	s.Click(Point{X: 1, Y: 1})
	s.Click(Point{X: 2, Y: 1})
	s.Click(Point{X: 2, Y: 2})
	s.DoubleClick()

	s.Clear()
	if s.State() != StateEmpty || s.Len() != 0 || s.Closed() {
		t.Error("clear did not return selection to empty")
	}

	// Drawing works again after clear.
	s.Click(Point{X: 5, Y: 5})
	if s.Len() != 1 {
		t.Error("selection unusable after clear")
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("rectangle") != ModeRectangle {
		t.Error("rectangle not parsed")
	}
	if ParseMode("polygon") != ModePolygon {
		t.Error("polygon not parsed")
	}
	if ParseMode("bogus") != ModePolygon {
		t.Error("unknown mode should default to polygon")
	}
}
