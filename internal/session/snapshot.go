package session

import (
	"time"

	"github.com/fpang/photo-drilldown/internal/geometry"
	"github.com/fpang/photo-drilldown/internal/history"
	"github.com/fpang/photo-drilldown/internal/imagefile"
)

// HistoryItem is one history entry as shown in the filmstrip.
type HistoryItem struct {
	ID        string                `json:"id"`
	Preview   string                `json:"preview"`
	Exif      imagefile.ExifSummary `json:"exif"`
	CreatedAt string                `json:"createdAt"`
	Active    bool                  `json:"active"`
}

// DragRect is the live rectangle preview during a drag.
type DragRect struct {
	Start geometry.Point `json:"start"`
	End   geometry.Point `json:"end"`
}

// State is a consistent read-only projection of the session, shaped for JSON.
type State struct {
	HasImage        bool   `json:"hasImage"`
	OriginalMIME    string `json:"originalMime,omitempty"`
	OriginalPreview string `json:"originalPreview,omitempty"`
	NaturalWidth    int    `json:"naturalWidth"`
	NaturalHeight   int    `json:"naturalHeight"`

	SelectionMode   string           `json:"selectionMode"`
	SelectionState  string           `json:"selectionState"`
	SelectionPoints []geometry.Point `json:"selectionPoints"`
	DragPreview     *DragRect        `json:"dragPreview,omitempty"`

	HasSourcePatch   bool   `json:"hasSourcePatch"`
	SourcePatchURL   string `json:"sourcePatchUrl,omitempty"`
	HasReference     bool   `json:"hasReference"`
	ReferencePreview string `json:"referencePreview,omitempty"`

	Prompt string `json:"prompt"`
	Scope  string `json:"scope"`

	View geometry.Viewport `json:"view"`

	Phase      Phase  `json:"phase"`
	Error      string `json:"error,omitempty"`
	HasResult  bool   `json:"hasResult"`
	ResultURL  string `json:"resultUrl,omitempty"`
	ResultMIME string `json:"resultMime,omitempty"`
	Busy       bool   `json:"busy"`

	History    []HistoryItem `json:"history"`
	HistoryIdx int           `json:"historyIndex"`
}

// Snapshot returns the current state under the lock.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		HasImage:         c.original != nil,
		OriginalPreview:  c.originalPreview,
		NaturalWidth:     c.naturalWidth,
		NaturalHeight:    c.naturalHeight,
		SelectionMode:    c.sel.Mode().String(),
		SelectionState:   c.sel.State().String(),
		SelectionPoints:  c.sel.Points(),
		HasSourcePatch:   len(c.sourcePatch) > 0,
		HasReference:     c.reference != nil,
		ReferencePreview: c.referencePreview,
		Prompt:           c.prompt,
		Scope:            string(c.scope),
		View:             c.view,
		Phase:            c.phase,
		Error:            c.errMsg,
		HasResult:        len(c.result) > 0,
		ResultMIME:       c.resultMIME,
		Busy:             c.inFlight,
		HistoryIdx:       c.hist.Index(),
	}
	if c.original != nil {
		st.OriginalMIME = c.original.MIME
	}
	if start, end, ok := c.sel.DragPreview(); ok {
		st.DragPreview = &DragRect{Start: start, End: end}
	}
	if len(c.sourcePatch) > 0 {
		st.SourcePatchURL = imagefile.EncodeDataURL("image/png", c.sourcePatch)
	}
	if len(c.result) > 0 {
		st.ResultURL = imagefile.EncodeDataURL(c.resultMIME, c.result)
	}

	entries := c.hist.Entries()
	st.History = make([]HistoryItem, len(entries))
	for i, e := range entries {
		st.History[i] = HistoryItem{
			ID:        e.ID,
			Preview:   e.Preview,
			Exif:      e.Exif,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
			Active:    i == c.hist.Index(),
		}
	}
	return st
}

// HistoryEntries returns a copy of the history entries, for export.
func (c *Controller) HistoryEntries() []history.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hist.Entries()
}
