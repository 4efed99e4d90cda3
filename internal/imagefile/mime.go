// Package imagefile handles the byte-level concerns of the editor: MIME
// sniffing and validation of uploads, decoding and PNG encoding, data-URL
// conversion, preview downscaling, EXIF capture, and export packaging.
package imagefile

import (
	"fmt"
	"net/http"
	"strings"
)

// SupportedImageExtensions defines the file extensions accepted for upload.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// supportedMIMETypes is the set of MIME types the upload surface accepts.
var supportedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// SniffMIME detects the MIME type of data from its leading bytes.
func SniffMIME(data []byte) string {
	return http.DetectContentType(data)
}

// ValidateUpload sniffs data and returns its MIME type, or an error when the
// content is not a supported image format.
func ValidateUpload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	mime := SniffMIME(data)
	if !supportedMIMETypes[mime] {
		if strings.HasPrefix(mime, "image/") {
			return "", fmt.Errorf("unsupported image format %s (PNG, JPEG, or WEBP required)", mime)
		}
		return "", fmt.Errorf("file is not an image (detected %s)", mime)
	}
	return mime, nil
}

// MIMEForExtension returns the MIME type for a supported file extension
// (with leading dot, case-insensitive), or "" if unsupported.
func MIMEForExtension(ext string) string {
	return SupportedImageExtensions[strings.ToLower(ext)]
}
