package imagefile

import (
	"image"

	"golang.org/x/image/draw"
)

// DefaultPreviewMaxDimension bounds the longest side of preview images used in
// the history filmstrip and state snapshots.
const DefaultPreviewMaxDimension = 512

// Preview downscales img so its longest side is at most maxDimension and
// returns it as a PNG data URL. Images already within bounds are re-encoded
// without scaling.
func Preview(img image.Image, maxDimension int) (string, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w > maxDimension || h > maxDimension {
		if w >= h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Over, nil)
		img = scaled
	}

	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return EncodeDataURL("image/png", data), nil
}
