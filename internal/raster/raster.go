// Package raster renders a closed selection path into the two artifacts the
// edit pipeline needs: a cropped cutout of the source image and a full-frame
// black/white mask. Rendering uses fogleman/gg, whose path API mirrors the
// canvas-2D clip/fill semantics the selection geometry was designed for.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-drilldown/internal/geometry"
)

// ErrEmptyRegion is returned when the path's bounding box has no area.
var ErrEmptyRegion = errors.New("selection region has no area")

// ErrShortPath is returned when the path has fewer than three points.
var ErrShortPath = errors.New("selection path needs at least 3 points")

// Crop renders the portion of src inside path, clipped to the path's axis-
// aligned bounding box, and returns it PNG-encoded. Pixels inside the box but
// outside the path are fully transparent.
func Crop(src image.Image, path []geometry.Point) ([]byte, error) {
	if len(path) < geometry.MinClosedPoints {
		return nil, ErrShortPath
	}

	minX, minY, maxX, maxY, _ := geometry.BoundingBox(path)
	bw := maxX - minX
	bh := maxY - minY
	if bw <= 0 || bh <= 0 {
		return nil, ErrEmptyRegion
	}

	w := int(math.Ceil(bw))
	h := int(math.Ceil(bh))

	dc := gg.NewContext(w, h)

	// Clip region: the path translated so its bounding-box origin is (0,0).
	dc.MoveTo(path[0].X-minX, path[0].Y-minY)
	for _, p := range path[1:] {
		dc.LineTo(p.X-minX, p.Y-minY)
	}
	dc.ClosePath()
	dc.Clip()

	dc.DrawImage(src, -int(math.Round(minX)), -int(math.Round(minY)))

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}

	log.Debug().
		Int("width", w).
		Int("height", h).
		Int("points", len(path)).
		Msg("Cropped selection region")

	return buf.Bytes(), nil
}

// Mask renders a black image of the given source bounds with the path region
// filled solid white, PNG-encoded. The white area tells the remote edit
// service which pixels are editable.
func Mask(bounds image.Rectangle, path []geometry.Point) ([]byte, error) {
	if len(path) < geometry.MinClosedPoints {
		return nil, ErrShortPath
	}

	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyRegion
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	dc.SetRGB(1, 1, 1)
	dc.MoveTo(path[0].X, path[0].Y)
	for _, p := range path[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}

	log.Debug().
		Int("width", w).
		Int("height", h).
		Int("points", len(path)).
		Msg("Generated selection mask")

	return buf.Bytes(), nil
}
