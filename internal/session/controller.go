// Package session owns the whole editor state: the active original image,
// the selection, the source patch and reference image, the prompt and scope,
// the view transform, the edit history, and the lifecycle of the one
// outstanding edit request. All mutations go through the Controller, which
// applies each intent as a single atomic transition under its mutex; reads
// are projections via Snapshot.
package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-drilldown/internal/editor"
	"github.com/fpang/photo-drilldown/internal/geometry"
	"github.com/fpang/photo-drilldown/internal/history"
	"github.com/fpang/photo-drilldown/internal/imagefile"
)

// Phase is the lifecycle of the current edit attempt.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Controller is the single writer for all session state.
type Controller struct {
	mu   sync.Mutex
	orch *editor.Orchestrator

	// active original image
	original        *editor.Payload
	originalPreview string
	naturalWidth    int
	naturalHeight   int

	sel *geometry.Selection
	// prevSelLen tracks point-count threshold crossings for scope derivation.
	prevSelLen int

	sourcePatch      []byte
	reference        *editor.Payload
	referencePreview string

	prompt string
	scope  editor.Scope

	view geometry.Viewport

	phase      Phase
	errMsg     string
	result     []byte
	resultMIME string

	hist *history.Store

	// generation increments whenever the active image context changes. An
	// edit response whose generation no longer matches is dropped.
	generation uint64
	inFlight   bool
}

// NewController creates an empty session backed by orch.
func NewController(orch *editor.Orchestrator) *Controller {
	return &Controller{
		orch:  orch,
		sel:   geometry.NewSelection(),
		scope: editor.ScopeImage,
		view:  geometry.DefaultViewport(),
		phase: PhaseIdle,
		hist:  history.NewStore(),
	}
}

// Upload replaces the whole session with a freshly uploaded image: the
// previous state (including history and reference image) is discarded and the
// new image seeds history at index 0.
func (c *Controller) Upload(data []byte) error {
	mime, err := imagefile.ValidateUpload(data)
	if err != nil {
		return err
	}
	img, err := imagefile.Decode(data)
	if err != nil {
		return err
	}
	preview, err := imagefile.Preview(img, imagefile.DefaultPreviewMaxDimension)
	if err != nil {
		return err
	}
	exif := imagefile.ExtractExif(data)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearAllLocked()

	c.original = &editor.Payload{Data: data, MIME: mime}
	c.originalPreview = preview
	c.naturalWidth = img.Bounds().Dx()
	c.naturalHeight = img.Bounds().Dy()

	entry := history.NewEntry(data, mime, preview, exif)
	c.hist.Seed(entry)

	log.Info().
		Str("mime", mime).
		Int("width", c.naturalWidth).
		Int("height", c.naturalHeight).
		Int("bytes", len(data)).
		Msg("Image uploaded")
	return nil
}

// SetReference attaches a style/content reference image.
func (c *Controller) SetReference(data []byte) error {
	mime, err := imagefile.ValidateUpload(data)
	if err != nil {
		return err
	}
	img, err := imagefile.Decode(data)
	if err != nil {
		return err
	}
	preview, err := imagefile.Preview(img, imagefile.DefaultPreviewMaxDimension)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reference = &editor.Payload{Data: data, MIME: mime}
	c.referencePreview = preview
	log.Info().Str("mime", mime).Int("bytes", len(data)).Msg("Reference image set")
	return nil
}

// ClearReference removes the reference image.
func (c *Controller) ClearReference() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reference = nil
	c.referencePreview = ""
}

// ClearSourcePatch removes the captured source patch.
func (c *Controller) ClearSourcePatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourcePatch = nil
}

// SetPrompt updates the edit instruction text.
func (c *Controller) SetPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
}

// SetScope manually overrides the apply scope. The override holds until the
// selection's point count next crosses the derivation threshold.
func (c *Controller) SetScope(scope editor.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if scope != editor.ScopeImage && scope != editor.ScopeSelection {
		return
	}
	c.scope = scope
}

// ClearAll resets the session to its initial, no-image state.
func (c *Controller) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearAllLocked()
	log.Info().Msg("Session cleared")
}

// clearAllLocked discards everything including history and reference image.
func (c *Controller) clearAllLocked() {
	c.original = nil
	c.originalPreview = ""
	c.naturalWidth = 0
	c.naturalHeight = 0
	c.reference = nil
	c.referencePreview = ""
	c.hist.Reset()
	c.resetContextLocked()
}

// resetContextLocked applies the per-image resets: selection, source patch,
// prompt, result, error, phase, and view transform, and invalidates any
// outstanding edit request. The reference image and history survive.
func (c *Controller) resetContextLocked() {
	c.sel.Clear()
	c.prevSelLen = 0
	c.scope = editor.ScopeImage
	c.sourcePatch = nil
	c.prompt = ""
	c.result = nil
	c.resultMIME = ""
	c.errMsg = ""
	c.phase = PhaseIdle
	c.view = geometry.DefaultViewport()
	c.generation++
	c.inFlight = false
}

// setOriginalFromEntryLocked makes a history entry the displayed original.
func (c *Controller) setOriginalFromEntryLocked(entry history.Entry) error {
	img, err := imagefile.Decode(entry.Data)
	if err != nil {
		return err
	}
	c.original = &editor.Payload{Data: entry.Data, MIME: entry.MIME}
	c.originalPreview = entry.Preview
	c.naturalWidth = img.Bounds().Dx()
	c.naturalHeight = img.Bounds().Dy()
	return nil
}
