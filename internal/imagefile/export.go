package imagefile

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// Export filename patterns. Every history step and the current result are
// individually downloadable under deterministic names.
const (
	EditedFilename         = "edited-photo.png"
	historyStepPattern     = "history-step-%d.png"
	sessionArchiveBasename = "photo-session"
)

// zipMethodZstd is the ZIP method ID for Zstandard compression (APPNOTE 6.3.8).
const zipMethodZstd = 93

func init() {
	// Register Zstandard as a ZIP compressor so session archives compress
	// better than Deflate on the already-encoded PNG payloads' metadata.
	zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
}

// HistoryStepFilename returns the download name for history step n (0-based).
func HistoryStepFilename(n int) string {
	return fmt.Sprintf(historyStepPattern, n)
}

// SessionArchiveFilename returns the download name for a session archive.
func SessionArchiveFilename() string {
	return sessionArchiveBasename + ".zip"
}

// ArchiveItem is one file placed into a session archive.
type ArchiveItem struct {
	Name string
	Data []byte
}

// SessionArchive packs items into a zstd-compressed ZIP archive in memory.
func SessionArchive(items []ArchiveItem) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	now := time.Now()
	for _, item := range items {
		header := &zip.FileHeader{
			Name:     item.Name,
			Method:   zipMethodZstd,
			Modified: now,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", item.Name, err)
		}
		if _, err := w.Write(item.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", item.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	log.Debug().
		Int("files", len(items)).
		Int("bytes", buf.Len()).
		Msg("Session archive created")

	return buf.Bytes(), nil
}
