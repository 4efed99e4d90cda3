package session

import (
	"errors"
	"fmt"

	"github.com/fpang/photo-drilldown/internal/imagefile"
)

// ErrNoSuchEntry is returned for exports of history indices that do not exist.
var ErrNoSuchEntry = errors.New("no such history entry")

// toPNG returns data as-is when it is already PNG, otherwise transcodes.
// History can hold JPEG or WebP uploads but every export is a PNG.
func toPNG(data []byte, mime string) ([]byte, error) {
	if mime == "image/png" {
		return data, nil
	}
	img, err := imagefile.Decode(data)
	if err != nil {
		return nil, err
	}
	return imagefile.EncodePNG(img)
}

// ResultPNG returns the last successful edit result as PNG bytes together
// with its download filename.
func (c *Controller) ResultPNG() ([]byte, string, error) {
	c.mu.Lock()
	data, mime := c.result, c.resultMIME
	c.mu.Unlock()
	if len(data) == 0 {
		return nil, "", ErrNoResult
	}
	png, err := toPNG(data, mime)
	if err != nil {
		return nil, "", err
	}
	return png, imagefile.EditedFilename, nil
}

// HistoryEntryPNG returns history step i as PNG bytes and its download name.
func (c *Controller) HistoryEntryPNG(i int) ([]byte, string, error) {
	c.mu.Lock()
	entry, ok := c.hist.Entry(i)
	c.mu.Unlock()
	if !ok {
		return nil, "", ErrNoSuchEntry
	}
	png, err := toPNG(entry.Data, entry.MIME)
	if err != nil {
		return nil, "", err
	}
	return png, imagefile.HistoryStepFilename(i), nil
}

// ExportArchive packs every history step, plus the current result if one
// exists, into a single ZIP for download.
func (c *Controller) ExportArchive() ([]byte, string, error) {
	c.mu.Lock()
	entries := c.hist.Entries()
	result, resultMIME := c.result, c.resultMIME
	c.mu.Unlock()

	if len(entries) == 0 && len(result) == 0 {
		return nil, "", ErrNoSuchEntry
	}

	items := make([]imagefile.ArchiveItem, 0, len(entries)+1)
	for i, e := range entries {
		png, err := toPNG(e.Data, e.MIME)
		if err != nil {
			return nil, "", fmt.Errorf("failed to export history step %d: %w", i, err)
		}
		items = append(items, imagefile.ArchiveItem{Name: imagefile.HistoryStepFilename(i), Data: png})
	}
	if len(result) > 0 {
		png, err := toPNG(result, resultMIME)
		if err != nil {
			return nil, "", fmt.Errorf("failed to export edit result: %w", err)
		}
		items = append(items, imagefile.ArchiveItem{Name: imagefile.EditedFilename, Data: png})
	}

	data, err := imagefile.SessionArchive(items)
	if err != nil {
		return nil, "", err
	}
	return data, imagefile.SessionArchiveFilename(), nil
}
