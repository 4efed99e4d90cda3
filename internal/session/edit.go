package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-drilldown/internal/editor"
	"github.com/fpang/photo-drilldown/internal/history"
	"github.com/fpang/photo-drilldown/internal/imagefile"
)

var (
	// ErrEditInFlight is returned when an edit is submitted while another is
	// still processing.
	ErrEditInFlight = errors.New("an edit is already in progress")
	// ErrNoResult is returned by PromoteResult when there is no successful
	// edit to promote.
	ErrNoResult = errors.New("no edit result to use as the new original")
)

// ApplyEdit validates the current state and runs one edit request against the
// remote model. The network call happens outside the session lock; only one
// request may be in flight at a time. If the active image context changes
// while the call is pending (a new upload, a history jump, a promote), the
// response is dropped on arrival instead of clobbering the new context.
func (c *Controller) ApplyEdit(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrEditInFlight
	}

	in := editor.Input{
		Prompt:      c.prompt,
		Scope:       c.scope,
		SourcePatch: c.sourcePatch,
	}
	if c.original != nil {
		in.Original = *c.original
	}
	if c.sel.Len() > 0 {
		in.Selection = c.sel.Points()
	}
	if c.reference != nil {
		ref := *c.reference
		in.Reference = &ref
	}
	if err := editor.Validate(in); err != nil {
		c.mu.Unlock()
		return err
	}

	gen := c.generation
	c.inFlight = true
	c.phase = PhaseProcessing
	c.errMsg = ""
	c.result = nil
	c.resultMIME = ""
	c.mu.Unlock()

	res, err := c.orch.Apply(ctx, in)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		log.Warn().
			Uint64("requestGeneration", gen).
			Uint64("currentGeneration", c.generation).
			Msg("Dropping edit response for a superseded image context")
		return nil
	}
	c.inFlight = false
	if err != nil {
		c.phase = PhaseError
		c.errMsg = err.Error()
		return nil
	}
	c.phase = PhaseSuccess
	c.result = res.ImageData
	c.resultMIME = res.MIMEType
	return nil
}

// PromoteResult makes the last successful edit the new original: the result
// is committed to history (truncating any redo tail past the active entry)
// and becomes the displayed image. Selection, source patch, prompt, result,
// and view transform reset; the reference image survives.
func (c *Controller) PromoteResult() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseSuccess || len(c.result) == 0 {
		return ErrNoResult
	}

	img, err := imagefile.Decode(c.result)
	if err != nil {
		return err
	}
	preview, err := imagefile.Preview(img, imagefile.DefaultPreviewMaxDimension)
	if err != nil {
		return err
	}
	mime := c.resultMIME
	if mime == "" {
		mime = imagefile.SniffMIME(c.result)
	}
	entry := history.NewEntry(c.result, mime, preview, imagefile.ExtractExif(c.result))
	c.hist.Commit(entry)

	c.original = &editor.Payload{Data: entry.Data, MIME: entry.MIME}
	c.originalPreview = entry.Preview
	c.naturalWidth = img.Bounds().Dx()
	c.naturalHeight = img.Bounds().Dy()
	c.resetContextLocked()

	log.Info().
		Str("entryID", entry.ID).
		Int("historyLen", c.hist.Len()).
		Int("historyIndex", c.hist.Index()).
		Msg("Edit result promoted to original")
	return nil
}

// SelectHistory jumps the session to history entry i. Out-of-range indices
// are a no-op. Jumping resets the per-image context the same way a promote
// does.
func (c *Controller) SelectHistory(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.hist.Select(i)
	if !ok {
		return nil
	}
	if err := c.setOriginalFromEntryLocked(entry); err != nil {
		return err
	}
	c.resetContextLocked()
	log.Info().Int("index", i).Str("entryID", entry.ID).Msg("History entry selected")
	return nil
}

// DeleteHistory removes history entry i. Deleting the active entry moves the
// session to the previous one; deleting the last remaining entry clears the
// whole session.
func (c *Controller) DeleteHistory(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.hist.Delete(i)
	if !res.Removed {
		return nil
	}
	if res.Emptied {
		c.clearAllLocked()
		log.Info().Msg("Last history entry deleted; session cleared")
		return nil
	}
	if res.ActiveChanged {
		entry, ok := c.hist.Active()
		if !ok {
			c.clearAllLocked()
			return nil
		}
		if err := c.setOriginalFromEntryLocked(entry); err != nil {
			return err
		}
		c.resetContextLocked()
	}
	log.Info().
		Int("index", i).
		Int("historyLen", c.hist.Len()).
		Int("historyIndex", c.hist.Index()).
		Msg("History entry deleted")
	return nil
}
