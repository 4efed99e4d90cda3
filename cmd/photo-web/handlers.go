package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-drilldown/internal/editor"
	"github.com/fpang/photo-drilldown/internal/geometry"
	"github.com/fpang/photo-drilldown/internal/session"
)

// maxUploadBytes caps image uploads at 25 MB.
const maxUploadBytes = 25 << 20

type server struct {
	ctrl *session.Controller
}

func newServer(ctrl *session.Controller) *server {
	return &server{ctrl: ctrl}
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/image", s.handleImage)
	mux.HandleFunc("/api/reference", s.handleReference)
	mux.HandleFunc("/api/source", s.handleSource)
	mux.HandleFunc("/api/selection/click", s.handleClick)
	mux.HandleFunc("/api/selection/dblclick", s.handleDoubleClick)
	mux.HandleFunc("/api/selection/drag/start", s.handleDragStart)
	mux.HandleFunc("/api/selection/drag/move", s.handleDragMove)
	mux.HandleFunc("/api/selection/drag/end", s.handleDragEnd)
	mux.HandleFunc("/api/selection/mode", s.handleMode)
	mux.HandleFunc("/api/selection/clear", s.handleSelectionClear)
	mux.HandleFunc("/api/selection/capture", s.handleCapture)
	mux.HandleFunc("/api/prompt", s.handlePrompt)
	mux.HandleFunc("/api/scope", s.handleScope)
	mux.HandleFunc("/api/view/zoom", s.handleZoom)
	mux.HandleFunc("/api/view/set-zoom", s.handleSetZoom)
	mux.HandleFunc("/api/view/pan", s.handlePan)
	mux.HandleFunc("/api/view/reset", s.handleViewReset)
	mux.HandleFunc("/api/edit", s.handleEdit)
	mux.HandleFunc("/api/edit/promote", s.handlePromote)
	mux.HandleFunc("/api/history/select", s.handleHistorySelect)
	mux.HandleFunc("/api/history/delete", s.handleHistoryDelete)
	mux.HandleFunc("/api/clear", s.handleClear)
	mux.HandleFunc("/api/export/result", s.handleExportResult)
	mux.HandleFunc("/api/export/history", s.handleExportHistory)
	mux.HandleFunc("/api/export/archive", s.handleExportArchive)
}

// state responds with the full session snapshot; every mutating endpoint
// returns it too so the frontend never needs a second round trip.
func (s *server) state(w http.ResponseWriter) {
	respondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// GET /api/state
func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s.state(w)
}

// readUpload extracts the image bytes from either a multipart "file" field or
// a raw request body.
func readUpload(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		f, _, err := r.FormFile("file")
		if err == nil {
			defer f.Close()
			return io.ReadAll(f)
		}
	}
	return io.ReadAll(r.Body)
}

// POST /api/image
func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	data, err := readUpload(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if err := s.ctrl.Upload(data); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.state(w)
}

// POST | DELETE /api/reference
func (s *server) handleReference(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		data, err := readUpload(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "failed to read upload")
			return
		}
		if err := s.ctrl.SetReference(data); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	case http.MethodDelete:
		s.ctrl.ClearReference()
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.state(w)
}

// DELETE /api/source
func (s *server) handleSource(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}
	s.ctrl.ClearSourcePatch()
	s.state(w)
}

func (s *server) pointerIntent(w http.ResponseWriter, r *http.Request, apply func(session.PointerEvent)) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var ev session.PointerEvent
	if err := decodeJSON(r, &ev); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	apply(ev)
	s.state(w)
}

// POST /api/selection/click
func (s *server) handleClick(w http.ResponseWriter, r *http.Request) {
	s.pointerIntent(w, r, s.ctrl.Click)
}

// POST /api/selection/dblclick
func (s *server) handleDoubleClick(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.ctrl.DoubleClick()
	s.state(w)
}

// POST /api/selection/drag/start
func (s *server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	s.pointerIntent(w, r, s.ctrl.BeginDrag)
}

// POST /api/selection/drag/move
func (s *server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	s.pointerIntent(w, r, s.ctrl.UpdateDrag)
}

// POST /api/selection/drag/end
func (s *server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.ctrl.EndDrag()
	s.state(w)
}

// POST /api/selection/mode
func (s *server) handleMode(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctrl.SwitchMode(geometry.ParseMode(req.Mode))
	s.state(w)
}

// POST /api/selection/clear
func (s *server) handleSelectionClear(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.ctrl.ClearSelection()
	s.state(w)
}

// POST /api/selection/capture
func (s *server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.ctrl.CaptureSource(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.state(w)
}

// POST /api/prompt
func (s *server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctrl.SetPrompt(req.Prompt)
	s.state(w)
}

// POST /api/scope
func (s *server) handleScope(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Scope string `json:"scope"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctrl.SetScope(editor.Scope(req.Scope))
	s.state(w)
}

// POST /api/view/zoom
func (s *server) handleZoom(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Delta float64 `json:"delta"`
		session.PointerEvent
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctrl.Zoom(req.Delta, req.PointerEvent)
	s.state(w)
}

// POST /api/view/set-zoom
func (s *server) handleSetZoom(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Zoom float64 `json:"zoom"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctrl.SetZoom(req.Zoom)
	s.state(w)
}

// POST /api/view/pan
func (s *server) handlePan(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctrl.PanBy(req.DX, req.DY)
	s.state(w)
}

// POST /api/view/reset
func (s *server) handleViewReset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.ctrl.ResetView()
	s.state(w)
}

// POST /api/edit runs one edit against the model. Validation problems come
// back as 400; a model failure lands in the session's error state, not here.
func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.ctrl.ApplyEdit(r.Context()); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.state(w)
}

// POST /api/edit/promote
func (s *server) handlePromote(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.ctrl.PromoteResult(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.state(w)
}

func (s *server) historyIntent(w http.ResponseWriter, r *http.Request, apply func(int) error) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := apply(req.Index); err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.state(w)
}

// POST /api/history/select
func (s *server) handleHistorySelect(w http.ResponseWriter, r *http.Request) {
	s.historyIntent(w, r, s.ctrl.SelectHistory)
}

// POST /api/history/delete
func (s *server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	s.historyIntent(w, r, s.ctrl.DeleteHistory)
}

// POST /api/clear
func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.ctrl.ClearAll()
	s.state(w)
}

// GET /api/export/result
func (s *server) handleExportResult(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	data, name, err := s.ctrl.ResultPNG()
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	respondAttachment(w, name, "image/png", data)
}

// GET /api/export/history?index=n
func (s *server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid index")
		return
	}
	data, name, err := s.ctrl.HistoryEntryPNG(index)
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	respondAttachment(w, name, "image/png", data)
}

// GET /api/export/archive
func (s *server) handleExportArchive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	data, name, err := s.ctrl.ExportArchive()
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Info().Int("bytes", len(data)).Msg("Session archive downloaded")
	respondAttachment(w, name, "application/zip", data)
}
