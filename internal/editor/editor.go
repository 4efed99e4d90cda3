// Package editor validates edit requests, derives the selection mask, builds
// the instruction envelope, and performs the single remote call to the
// generative image service.
package editor

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-drilldown/internal/geometry"
	"github.com/fpang/photo-drilldown/internal/imagefile"
	"github.com/fpang/photo-drilldown/internal/raster"
)

// Scope states whether an edit targets the whole image or only the masked
// selection region.
type Scope string

const (
	ScopeImage     Scope = "image"
	ScopeSelection Scope = "selection"
)

// Validation errors. These block the request before any network call.
var (
	ErrNoImage        = errors.New("no image to edit; upload an image first")
	ErrNoPrompt       = errors.New("prompt is empty; describe the edit")
	ErrShortSelection = errors.New("a selection must have at least 3 points to form a path")
)

// Payload is an image with its MIME type.
type Payload struct {
	Data []byte
	MIME string
}

// Result is the interpreted outcome of a remote edit call.
type Result struct {
	// ImageData is the raw bytes of the edited image.
	ImageData []byte
	// MIMEType is the MIME type of the output image.
	MIMEType string
	// Text is any text returned alongside (or instead of) the image.
	Text string
}

// Client performs one call to the remote image-edit service. Exactly one call
// is made per user-initiated edit; no retries.
type Client interface {
	EditImage(ctx context.Context, instruction string, images []Payload) (*Result, error)
}

// Input carries everything a single edit attempt needs.
type Input struct {
	Original Payload
	Prompt   string
	Scope    Scope
	// Selection is the closed path in image-pixel coordinates, or empty.
	Selection []geometry.Point
	// SourcePatch is an optional PNG cutout used as a texture/content donor.
	SourcePatch []byte
	// Reference is an optional style/content inspiration image.
	Reference *Payload
}

// Orchestrator assembles and issues edit requests.
type Orchestrator struct {
	client Client
}

// NewOrchestrator returns an Orchestrator that edits via client.
func NewOrchestrator(client Client) *Orchestrator {
	return &Orchestrator{client: client}
}

// Validate checks in against the request invariants without touching the
// network. It is also called by Apply.
func Validate(in Input) error {
	if len(in.Original.Data) == 0 {
		return ErrNoImage
	}
	if in.Scope == ScopeSelection && len(in.Selection) > 0 && len(in.Selection) < geometry.MinClosedPoints {
		return ErrShortSelection
	}
	if in.Prompt == "" {
		return ErrNoPrompt
	}
	return nil
}

// Apply validates in, derives the mask when the edit is scoped to a
// selection, and issues the single remote call. The attached images are sent
// in the fixed order: original, source patch, reference, mask.
func (o *Orchestrator) Apply(ctx context.Context, in Input) (*Result, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	var mask []byte
	if in.Scope == ScopeSelection && len(in.Selection) >= geometry.MinClosedPoints {
		mask = o.deriveMask(in)
	}

	instruction := BuildInstruction(in.Prompt, len(in.SourcePatch) > 0, in.Reference != nil, len(mask) > 0)

	images := []Payload{in.Original}
	if len(in.SourcePatch) > 0 {
		images = append(images, Payload{Data: in.SourcePatch, MIME: "image/png"})
	}
	if in.Reference != nil {
		images = append(images, *in.Reference)
	}
	if len(mask) > 0 {
		images = append(images, Payload{Data: mask, MIME: "image/png"})
	}

	log.Info().
		Str("scope", string(in.Scope)).
		Int("images", len(images)).
		Bool("mask", len(mask) > 0).
		Bool("source_patch", len(in.SourcePatch) > 0).
		Bool("reference", in.Reference != nil).
		Msg("Submitting edit request")

	result, err := o.client.EditImage(ctx, instruction, images)
	if err != nil {
		return nil, err
	}

	if len(result.ImageData) > 0 {
		return result, nil
	}
	if result.Text != "" {
		return nil, fmt.Errorf("the AI model responded with text instead of an image: %q", truncate(result.Text, 100))
	}
	return nil, errors.New("the AI model did not return an image; please try again")
}

// deriveMask renders the selection mask. A decode or render failure is not
// fatal to the request: the edit proceeds unmasked, matching the behavior of
// an absent selection.
func (o *Orchestrator) deriveMask(in Input) []byte {
	img, err := imagefile.Decode(in.Original.Data)
	if err != nil {
		log.Warn().Err(err).Msg("Original image did not decode; proceeding without mask")
		return nil
	}
	mask, err := raster.Mask(img.Bounds(), in.Selection)
	if err != nil {
		log.Warn().Err(err).Msg("Mask rendering failed; proceeding without mask")
		return nil
	}
	return mask
}

// truncate shortens s to at most max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
