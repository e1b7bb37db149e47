package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/core/editor"
	"github.com/colonyops/proofread/internal/core/highlight"
	"github.com/colonyops/proofread/internal/core/logging"
	"github.com/colonyops/proofread/internal/markup"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// ProcessRequest is the body of /api/process and /api/highlight.
type ProcessRequest struct {
	Text    string   `json:"text"`
	Modules []string `json:"modules"`
}

// HighlightResponse is the rendered overlay returned by /api/highlight.
type HighlightResponse struct {
	HTML     string              `json:"html"`
	Segments []highlight.Segment `json:"segments"`
	Skipped  []highlight.Skipped `json:"skipped"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	infos, err := s.backend.Modules(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if infos == nil {
		infos = []analyzer.Info{}
	}
	s.writeJSON(w, r, http.StatusOK, infos)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	results, err := s.backend.Process(r.Context(), req.Text, req.Modules)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, results)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	session := editor.NewSession(s.opts.Palette(), s.log)
	session.SetText(req.Text)

	overlay, err := session.Run(r.Context(), s.backend, req.Modules)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	resp := HighlightResponse{
		HTML:     markup.HTML(overlay),
		Segments: overlay.Segments,
		Skipped:  overlay.Skipped,
	}
	if resp.Segments == nil {
		resp.Segments = []highlight.Segment{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []highlight.Skipped{}
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleSampleText(w http.ResponseWriter, r *http.Request) {
	text, err := s.opts.SampleText()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

// decode reads a ProcessRequest, answering 400 itself when the body is
// missing or malformed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (ProcessRequest, bool) {
	var req ProcessRequest

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		s.writeError(w, r, http.StatusBadRequest, errors.New("no data provided"))
		return req, false
	case err != nil:
		s.writeError(w, r, http.StatusBadRequest, errors.New("invalid JSON body"))
		return req, false
	}
	return req, true
}

// statusFor maps request validation errors to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, analyzer.ErrEmptyText),
		errors.Is(err, analyzer.ErrNoModules),
		errors.Is(err, analyzer.ErrUnknownModule),
		errors.Is(err, editor.ErrNoModules):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Str("request_id", logging.RequestID(r.Context())).Msg("write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	ev := s.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Str("request_id", logging.RequestID(r.Context())).Int("status", status).Msg("request failed")

	s.writeJSON(w, r, status, ErrorResponse{Error: err.Error()})
}
