package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/vbonduro/aushadhi/internal/analysis"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}
	lang, ok := s.language(w, r)
	if !ok {
		return
	}

	report, err := s.scans.Analyze(context.WithoutCancel(r.Context()), data, lang, nil)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report, s.logger)
}

// handleAnalyzeStream runs the sectioned analysis and streams progress as SSE.
// A "sections" event carries the full section list each time a section
// settles, then a "report" event carries the final report, then "done".
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}
	lang, ok := s.language(w, r)
	if !ok {
		return
	}

	var stream *sseStream
	observe := func(snap analysis.Snapshot) {
		if stream == nil {
			stream = startSSE(w)
		}
		// The client may be gone; the run still settles every section.
		_ = stream.send("sections", snap)
	}

	report, err := s.scans.Analyze(context.WithoutCancel(r.Context()), data, lang, observe)
	if err != nil {
		if stream == nil {
			s.writeAnalysisError(w, err)
			return
		}
		_ = stream.send("error", errorResponse{Error: err.Error()})
		return
	}

	if err := stream.send("report", report); err != nil {
		return
	}
	if err := stream.send("done", struct{}{}); err != nil {
		s.logger.Error("write done event failed", "error", err)
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	var aerr *analysis.AnalysisError
	if errors.As(err, &aerr) {
		writeError(w, http.StatusBadRequest, aerr.Message, s.logger)
		return
	}
	writeError(w, http.StatusBadRequest, "failed to analyze image", s.logger)
	s.logger.Error("analyze failed", "error", err)
}
