package imagefile

import (
	"bytes"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ExifSummary holds the metadata captured from an uploaded image. All fields
// are best effort; PNG and WEBP files usually carry none.
type ExifSummary struct {
	CameraMake  string    `json:"cameraMake,omitempty"`
	CameraModel string    `json:"cameraModel,omitempty"`
	DateTaken   time.Time `json:"dateTaken,omitempty"`
	HasDate     bool      `json:"hasDate"`
	HasGPS      bool      `json:"hasGPS"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
}

// ExtractExif reads EXIF metadata from image bytes. It never fails the
// caller: images without metadata (or with unparseable metadata) yield an
// empty summary.
func ExtractExif(data []byte) ExifSummary {
	var summary ExifSummary

	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("No EXIF metadata in upload")
		return summary
	}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		summary.Latitude = gps.Latitude()
		summary.Longitude = gps.Longitude()
		summary.HasGPS = true
	}

	// Priority: DateTimeOriginal > CreateDate > ModifyDate
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		summary.DateTaken = exifData.DateTimeOriginal()
		summary.HasDate = true
	case !exifData.CreateDate().IsZero():
		summary.DateTaken = exifData.CreateDate()
		summary.HasDate = true
	case !exifData.ModifyDate().IsZero():
		summary.DateTaken = exifData.ModifyDate()
		summary.HasDate = true
	}

	summary.CameraMake = strings.TrimSpace(exifData.Make)
	summary.CameraModel = strings.TrimSpace(exifData.Model)

	log.Debug().
		Bool("has_gps", summary.HasGPS).
		Bool("has_date", summary.HasDate).
		Str("camera", strings.TrimSpace(summary.CameraMake+" "+summary.CameraModel)).
		Msg("EXIF metadata extracted")

	return summary
}
