package geometry

import (
	"math"
	"testing"
)

func testMapper() Mapper {
	return Mapper{
		ContainerOrigin: Point{X: 40, Y: 60},
		ContainerWidth:  400,
		ContainerHeight: 400,
		NaturalWidth:    800,
		NaturalHeight:   600,
		View:            Viewport{Zoom: 2, Pan: Point{X: -35, Y: 12}},
	}
}

func TestToImageRoundTrip(t *testing.T) {
	m := testMapper()
	points := []Point{
		{X: 0, Y: 0},
		{X: 800, Y: 600},
		{X: 123.5, Y: 456.25},
		{X: 400, Y: 300},
	}

	for _, want := range points {
		sx, sy := m.ToScreen(want)
		got, ok := m.ToImage(sx, sy)
		if !ok {
			t.Fatalf("ToImage rejected projected point %+v (screen %.2f,%.2f)", want, sx, sy)
		}
		if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
			t.Errorf("round trip of %+v gave %+v", want, got)
		}
	}
}

func TestToImageRejectsLetterbox(t *testing.T) {
	// 800x600 image in a 400x400 container letterboxes vertically:
	// ratio is 0.5, so the image occupies y in [50, 350] when unzoomed.
	m := testMapper()
	m.View = Viewport{Zoom: 1}

	// Top letterbox band, horizontally centered.
	if _, ok := m.ToImage(40+200, 60+10); ok {
		t.Error("expected click on letterbox padding to be rejected")
	}
	// Same x inside the image area.
	if _, ok := m.ToImage(40+200, 60+200); !ok {
		t.Error("expected click inside image area to be accepted")
	}
}

func TestToImageRejectsOutsideImage(t *testing.T) {
	m := testMapper()
	// Far away from the container entirely.
	if _, ok := m.ToImage(-5000, -5000); ok {
		t.Error("expected far off-screen click to be rejected")
	}
}

func TestToImageDegenerateInputs(t *testing.T) {
	m := testMapper()
	m.NaturalWidth = 0
	if _, ok := m.ToImage(100, 100); ok {
		t.Error("expected rejection with zero natural width")
	}

	m = testMapper()
	m.View.Zoom = 0
	if _, ok := m.ToImage(100, 100); ok {
		t.Error("expected rejection with zero zoom")
	}
}

func TestZoomAtKeepsCursorAnchored(t *testing.T) {
	m := testMapper()
	const mouseX, mouseY = 150.0, 220.0

	// The image point under the cursor before zooming...
	before, ok := m.ToImage(m.ContainerOrigin.X+mouseX, m.ContainerOrigin.Y+mouseY)
	if !ok {
		t.Fatal("cursor position not on image")
	}

	m.View = m.View.ZoomAt(ZoomSpeed, mouseX, mouseY)

	// ...must be the same image point after.
	after, ok := m.ToImage(m.ContainerOrigin.X+mouseX, m.ContainerOrigin.Y+mouseY)
	if !ok {
		t.Fatal("cursor position left image after zoom")
	}
	if math.Abs(after.X-before.X) > 1e-9 || math.Abs(after.Y-before.Y) > 1e-9 {
		t.Errorf("anchored point moved: before %+v after %+v", before, after)
	}
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.1, MinZoom},
		{0.5, 0.5},
		{1, 1},
		{8, 8},
		{20, MaxZoom},
	}
	for _, tt := range tests {
		if got := ClampZoom(tt.in); got != tt.want {
			t.Errorf("ClampZoom(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZoomAtStopsAtLimits(t *testing.T) {
	v := Viewport{Zoom: MaxZoom, Pan: Point{X: 10, Y: 10}}
	zoomed := v.ZoomAt(ZoomSpeed, 100, 100)
	if zoomed.Zoom != MaxZoom {
		t.Errorf("zoom exceeded max: %v", zoomed.Zoom)
	}
	// With the zoom unchanged the pan must not drift either.
	if zoomed.Pan != v.Pan {
		t.Errorf("pan drifted at zoom limit: %+v", zoomed.Pan)
	}
}
