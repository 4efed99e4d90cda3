package session

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/fpang/photo-drilldown/internal/editor"
	"github.com/fpang/photo-drilldown/internal/geometry"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

type fakeClient struct {
	res   *editor.Result
	err   error
	calls int
}

func (f *fakeClient) EditImage(_ context.Context, _ string, _ []editor.Payload) (*editor.Result, error) {
	f.calls++
	return f.res, f.err
}

// blockingClient parks every call until release is closed.
type blockingClient struct {
	started chan struct{}
	release chan struct{}
	res     *editor.Result
}

func (b *blockingClient) EditImage(_ context.Context, _ string, _ []editor.Payload) (*editor.Result, error) {
	close(b.started)
	<-b.release
	return b.res, nil
}

// event returns a pointer event over a 100x100 container at the screen origin,
// so with a 100x100 image client coordinates equal image coordinates.
func event(x, y float64) PointerEvent {
	return PointerEvent{
		ClientX:         x,
		ClientY:         y,
		ContainerWidth:  100,
		ContainerHeight: 100,
	}
}

func newUploaded(t *testing.T, client editor.Client) *Controller {
	t.Helper()
	c := NewController(editor.NewOrchestrator(client))
	if err := c.Upload(testPNG(t, 100, 100)); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return c
}

func TestUploadSeedsSession(t *testing.T) {
	c := newUploaded(t, &fakeClient{})

	st := c.Snapshot()
	if !st.HasImage {
		t.Fatal("expected an image after upload")
	}
	if st.NaturalWidth != 100 || st.NaturalHeight != 100 {
		t.Errorf("natural size = %dx%d, want 100x100", st.NaturalWidth, st.NaturalHeight)
	}
	if len(st.History) != 1 || st.HistoryIdx != 0 {
		t.Errorf("history = %d entries at index %d, want 1 at 0", len(st.History), st.HistoryIdx)
	}
	if st.Phase != PhaseIdle {
		t.Errorf("phase = %q, want idle", st.Phase)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	c := NewController(editor.NewOrchestrator(&fakeClient{}))
	if err := c.Upload([]byte("not an image")); err == nil {
		t.Fatal("expected an error for non-image data")
	}
	if c.Snapshot().HasImage {
		t.Error("failed upload must not leave an image behind")
	}
}

func TestClickOutsideImageIgnored(t *testing.T) {
	c := newUploaded(t, &fakeClient{})

	c.Click(PointerEvent{ClientX: 500, ClientY: 500, ContainerWidth: 100, ContainerHeight: 100})
	if n := len(c.Snapshot().SelectionPoints); n != 0 {
		t.Errorf("points after out-of-image click = %d, want 0", n)
	}
}

func TestScopeDerivation(t *testing.T) {
	c := newUploaded(t, &fakeClient{})

	c.Click(event(10, 10))
	c.Click(event(50, 10))
	if st := c.Snapshot(); st.Scope != "image" {
		t.Errorf("scope with 2 points = %q, want image", st.Scope)
	}

	c.Click(event(30, 50))
	if st := c.Snapshot(); st.Scope != "selection" {
		t.Errorf("scope with 3 points = %q, want selection", st.Scope)
	}

	// Manual override holds until the point count next changes.
	c.SetScope(editor.ScopeImage)
	if st := c.Snapshot(); st.Scope != "image" {
		t.Errorf("scope after manual override = %q, want image", st.Scope)
	}
	c.Click(event(10, 50))
	if st := c.Snapshot(); st.Scope != "selection" {
		t.Errorf("scope after override and new point = %q, want selection", st.Scope)
	}

	c.ClearSelection()
	if st := c.Snapshot(); st.Scope != "image" {
		t.Errorf("scope after clear = %q, want image", st.Scope)
	}
}

func TestRectangleDragSelection(t *testing.T) {
	c := newUploaded(t, &fakeClient{})
	c.SwitchMode(geometry.ModeRectangle)

	c.BeginDrag(event(20, 30))
	c.UpdateDrag(event(70, 80))

	st := c.Snapshot()
	if st.DragPreview == nil {
		t.Fatal("expected a drag preview mid-drag")
	}

	c.EndDrag()
	st = c.Snapshot()
	if len(st.SelectionPoints) != 4 {
		t.Fatalf("rectangle points = %d, want 4", len(st.SelectionPoints))
	}
	if st.SelectionState != "closed" {
		t.Errorf("selection state = %q, want closed", st.SelectionState)
	}
	if st.Scope != "selection" {
		t.Errorf("scope after rectangle = %q, want selection", st.Scope)
	}
}

func TestCaptureSource(t *testing.T) {
	c := newUploaded(t, &fakeClient{})
	c.SwitchMode(geometry.ModeRectangle)
	c.BeginDrag(event(10, 10))
	c.UpdateDrag(event(60, 60))
	c.EndDrag()

	if err := c.CaptureSource(); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	st := c.Snapshot()
	if !st.HasSourcePatch {
		t.Error("expected a source patch after capture")
	}
	if len(st.SelectionPoints) != 0 {
		t.Error("capture must clear the selection")
	}
	if st.Scope != "image" {
		t.Errorf("scope after capture = %q, want image", st.Scope)
	}
}

func TestCaptureSourceRequiresClosedSelection(t *testing.T) {
	c := newUploaded(t, &fakeClient{})
	c.Click(event(10, 10))
	if err := c.CaptureSource(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("err = %v, want ErrNoSelection", err)
	}
}

func TestApplyEditSuccess(t *testing.T) {
	edited := testPNG(t, 100, 100)
	fake := &fakeClient{res: &editor.Result{ImageData: edited, MIMEType: "image/png"}}
	c := newUploaded(t, fake)
	c.SetPrompt("make it dramatic")

	if err := c.ApplyEdit(context.Background()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	st := c.Snapshot()
	if st.Phase != PhaseSuccess {
		t.Fatalf("phase = %q, want success", st.Phase)
	}
	if !st.HasResult {
		t.Error("expected a result after a successful apply")
	}
	if fake.calls != 1 {
		t.Errorf("client calls = %d, want 1", fake.calls)
	}
}

func TestApplyEditValidation(t *testing.T) {
	c := newUploaded(t, &fakeClient{})
	if err := c.ApplyEdit(context.Background()); !errors.Is(err, editor.ErrNoPrompt) {
		t.Errorf("err = %v, want ErrNoPrompt", err)
	}
	if st := c.Snapshot(); st.Phase != PhaseIdle {
		t.Errorf("phase after rejected apply = %q, want idle", st.Phase)
	}
}

func TestApplyEditFailureSetsError(t *testing.T) {
	fake := &fakeClient{err: errors.New("model unavailable")}
	c := newUploaded(t, fake)
	c.SetPrompt("p")

	if err := c.ApplyEdit(context.Background()); err != nil {
		t.Fatalf("apply returned transport error to caller: %v", err)
	}
	st := c.Snapshot()
	if st.Phase != PhaseError {
		t.Fatalf("phase = %q, want error", st.Phase)
	}
	if st.Error == "" {
		t.Error("expected an error message")
	}
}

func TestApplyEditRejectsConcurrentSubmit(t *testing.T) {
	blocked := &blockingClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
		res:     &editor.Result{ImageData: testPNG(t, 10, 10), MIMEType: "image/png"},
	}
	c := newUploaded(t, blocked)
	c.SetPrompt("p")

	done := make(chan error, 1)
	go func() { done <- c.ApplyEdit(context.Background()) }()
	<-blocked.started

	if err := c.ApplyEdit(context.Background()); !errors.Is(err, ErrEditInFlight) {
		t.Errorf("second submit err = %v, want ErrEditInFlight", err)
	}

	close(blocked.release)
	if err := <-done; err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if st := c.Snapshot(); st.Phase != PhaseSuccess {
		t.Errorf("phase = %q, want success", st.Phase)
	}
}

func TestStaleEditResponseDropped(t *testing.T) {
	blocked := &blockingClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
		res:     &editor.Result{ImageData: testPNG(t, 10, 10), MIMEType: "image/png"},
	}
	c := newUploaded(t, blocked)
	c.SetPrompt("p")

	done := make(chan error, 1)
	go func() { done <- c.ApplyEdit(context.Background()) }()
	<-blocked.started

	// A new upload supersedes the pending request's image context.
	if err := c.Upload(testPNG(t, 40, 40)); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	close(blocked.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("apply returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("apply did not finish")
	}

	st := c.Snapshot()
	if st.HasResult {
		t.Error("stale response must not attach a result to the new image")
	}
	if st.Phase != PhaseIdle {
		t.Errorf("phase = %q, want idle", st.Phase)
	}
	if st.NaturalWidth != 40 {
		t.Errorf("natural width = %d, want the new upload's 40", st.NaturalWidth)
	}
}

func TestPromoteResultCommitsAndResets(t *testing.T) {
	edited := testPNG(t, 80, 80)
	fake := &fakeClient{res: &editor.Result{ImageData: edited, MIMEType: "image/png"}}
	c := newUploaded(t, fake)
	if err := c.SetReference(testPNG(t, 20, 20)); err != nil {
		t.Fatalf("set reference failed: %v", err)
	}
	c.SetPrompt("p")
	c.SetZoom(3)

	if err := c.ApplyEdit(context.Background()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := c.PromoteResult(); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	st := c.Snapshot()
	if len(st.History) != 2 || st.HistoryIdx != 1 {
		t.Errorf("history = %d entries at %d, want 2 at 1", len(st.History), st.HistoryIdx)
	}
	if st.NaturalWidth != 80 {
		t.Errorf("promoted natural width = %d, want 80", st.NaturalWidth)
	}
	if st.Prompt != "" || st.HasResult || st.Phase != PhaseIdle {
		t.Error("promote must reset prompt, result, and phase")
	}
	if st.View.Zoom != 1 {
		t.Errorf("zoom after promote = %v, want 1", st.View.Zoom)
	}
	if !st.HasReference {
		t.Error("reference image must survive a promote")
	}
}

func TestPromoteWithoutResult(t *testing.T) {
	c := newUploaded(t, &fakeClient{})
	if err := c.PromoteResult(); !errors.Is(err, ErrNoResult) {
		t.Errorf("err = %v, want ErrNoResult", err)
	}
}

func TestPromoteTruncatesRedoTail(t *testing.T) {
	fake := &fakeClient{res: &editor.Result{ImageData: testPNG(t, 50, 50), MIMEType: "image/png"}}
	c := newUploaded(t, fake)

	for i := 0; i < 2; i++ {
		c.SetPrompt("p")
		if err := c.ApplyEdit(context.Background()); err != nil {
			t.Fatalf("apply %d failed: %v", i, err)
		}
		if err := c.PromoteResult(); err != nil {
			t.Fatalf("promote %d failed: %v", i, err)
		}
	}
	// History is [upload, e1, e2]; jump back to the upload and promote again.
	if err := c.SelectHistory(0); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	c.SetPrompt("p")
	if err := c.ApplyEdit(context.Background()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := c.PromoteResult(); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	st := c.Snapshot()
	if len(st.History) != 2 || st.HistoryIdx != 1 {
		t.Errorf("history = %d entries at %d, want 2 at 1", len(st.History), st.HistoryIdx)
	}
}

func TestSelectHistoryResetsContext(t *testing.T) {
	fake := &fakeClient{res: &editor.Result{ImageData: testPNG(t, 60, 60), MIMEType: "image/png"}}
	c := newUploaded(t, fake)
	c.SetPrompt("p")
	if err := c.ApplyEdit(context.Background()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := c.PromoteResult(); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	c.SetPrompt("leftover")
	c.Click(event(10, 10))
	if err := c.SelectHistory(0); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	st := c.Snapshot()
	if st.HistoryIdx != 0 {
		t.Errorf("history index = %d, want 0", st.HistoryIdx)
	}
	if st.NaturalWidth != 100 {
		t.Errorf("natural width = %d, want the original's 100", st.NaturalWidth)
	}
	if st.Prompt != "" || len(st.SelectionPoints) != 0 {
		t.Error("select must reset prompt and selection")
	}
}

func TestDeleteActiveHistoryEntry(t *testing.T) {
	fake := &fakeClient{res: &editor.Result{ImageData: testPNG(t, 60, 60), MIMEType: "image/png"}}
	c := newUploaded(t, fake)
	c.SetPrompt("p")
	if err := c.ApplyEdit(context.Background()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := c.PromoteResult(); err != nil {
		t.Fatalf("promote failed: %v", err)
	}

	// Active is entry 1 (the edit). Deleting it falls back to the upload.
	if err := c.DeleteHistory(1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	st := c.Snapshot()
	if len(st.History) != 1 || st.HistoryIdx != 0 {
		t.Errorf("history = %d entries at %d, want 1 at 0", len(st.History), st.HistoryIdx)
	}
	if st.NaturalWidth != 100 {
		t.Errorf("natural width = %d, want the upload's 100", st.NaturalWidth)
	}
}

func TestDeleteLastHistoryEntryClearsSession(t *testing.T) {
	c := newUploaded(t, &fakeClient{})
	if err := c.DeleteHistory(0); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	st := c.Snapshot()
	if st.HasImage || len(st.History) != 0 {
		t.Error("deleting the only entry must clear the session")
	}
}

func TestClearAllDropsReference(t *testing.T) {
	c := newUploaded(t, &fakeClient{})
	if err := c.SetReference(testPNG(t, 20, 20)); err != nil {
		t.Fatalf("set reference failed: %v", err)
	}
	c.ClearAll()
	st := c.Snapshot()
	if st.HasImage || st.HasReference || len(st.History) != 0 {
		t.Error("clear all must drop image, reference, and history")
	}
}

func TestExportArchive(t *testing.T) {
	fake := &fakeClient{res: &editor.Result{ImageData: testPNG(t, 30, 30), MIMEType: "image/png"}}
	c := newUploaded(t, fake)
	c.SetPrompt("p")
	if err := c.ApplyEdit(context.Background()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	data, name, err := c.ExportArchive()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if name != "photo-session.zip" {
		t.Errorf("archive name = %q", name)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid archive: %v", err)
	}
	// One history step plus the unpromoted result.
	if len(zr.File) != 2 {
		t.Fatalf("archive holds %d files, want 2", len(zr.File))
	}
	if zr.File[0].Name != "history-step-0.png" || zr.File[1].Name != "edited-photo.png" {
		t.Errorf("archive names = %q, %q", zr.File[0].Name, zr.File[1].Name)
	}
}

func TestHistoryEntryPNGExport(t *testing.T) {
	c := newUploaded(t, &fakeClient{})

	data, name, err := c.HistoryEntryPNG(0)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if name != "history-step-0.png" {
		t.Errorf("name = %q", name)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("export is not a PNG: %v", err)
	}

	if _, _, err := c.HistoryEntryPNG(5); !errors.Is(err, ErrNoSuchEntry) {
		t.Errorf("err = %v, want ErrNoSuchEntry", err)
	}
}
