package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vbonduro/aushadhi/internal/chat"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/imagestore"
	"github.com/vbonduro/aushadhi/internal/service"
)

const eventsKeepAlive = 25 * time.Second

type scanView struct {
	ID             string                 `json:"id"`
	Status         domain.ScanStatus      `json:"status"`
	FileName       string                 `json:"file_name,omitempty"`
	MimeType       string                 `json:"mime_type"`
	AnalysisResult *domain.AnalysisResult `json:"analysis_result,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	ImageURL       string                 `json:"image_url"`
}

type historyView struct {
	scanView
	MedicineName string `json:"medicine_name"`
	Timestamp    int64  `json:"timestamp"`
}

type chatView struct {
	SessionID string          `json:"session_id"`
	State     string          `json:"state"`
	Language  domain.Language `json:"language"`
	Messages  []chat.Message  `json:"messages"`
}

type captureResponse struct {
	Scan scanView  `json:"scan"`
	Chat *chatView `json:"chat,omitempty"`
	// Error is the localized analysis failure, set when Chat is nil.
	Error string `json:"error,omitempty"`
}

func newScanView(scan *domain.Scan) scanView {
	return scanView{
		ID:             scan.ID,
		Status:         scan.Status,
		FileName:       scan.FileName,
		MimeType:       scan.MimeType,
		AnalysisResult: scan.AnalysisResult,
		CreatedAt:      scan.CreatedAt,
		ImageURL:       "/api/scans/" + scan.ID + "/image",
	}
}

func newChatView(session *chat.Session) *chatView {
	return &chatView{
		SessionID: session.ID(),
		State:     session.State().String(),
		Language:  session.Language(),
		Messages:  session.Messages(),
	}
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	data, fileName, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}
	lang, ok := s.language(w, r)
	if !ok {
		return
	}

	// Detached so the scan record is finalized even if the client goes away.
	scan, session, err := s.scans.Capture(context.WithoutCancel(r.Context()), userID(r), fileName, data, lang)
	var startErr *chat.StartError
	switch {
	case errors.As(err, &startErr):
		resp := captureResponse{Error: startErr.Message}
		if scan != nil {
			resp.Scan = newScanView(scan)
		}
		writeJSON(w, http.StatusBadGateway, resp, s.logger)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to process photo", s.logger)
		s.logger.Error("capture failed", "error", err)
		return
	}

	writeJSON(w, http.StatusCreated, captureResponse{Scan: newScanView(scan), Chat: newChatView(session)}, s.logger)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}

	entries, err := s.scans.History(r.Context(), userID(r), lang)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list scans", s.logger)
		s.logger.Error("list history failed", "error", err)
		return
	}

	out := make([]historyView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyView{
			scanView:     newScanView(e.Scan),
			MedicineName: e.MedicineName,
			Timestamp:    e.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

// handleScanEvents streams the user's history changes until the client
// disconnects. Each "change" event carries {"type","scan_id","user_id"}.
func (s *Server) handleScanEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ch, err := s.feed.Subscribe(ctx, userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to subscribe", s.logger)
		s.logger.Error("subscribe scan events failed", "error", err)
		return
	}

	stream := startSSE(w)
	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := stream.send("change", ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleScanImage(w http.ResponseWriter, r *http.Request) {
	reader, mimeType, err := s.scans.ScanImage(r.Context(), userID(r), r.PathValue("id"))
	if errors.Is(err, service.ErrScanNotFound) || errors.Is(err, imagestore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found", s.logger)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read image", s.logger)
		s.logger.Error("read scan image failed", "scan_id", r.PathValue("id"), "error", err)
		return
	}
	defer closeWithLog(reader, "scan image", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write scan image failed", "scan_id", r.PathValue("id"), "error", err)
	}
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	err := s.scans.DeleteScan(r.Context(), userID(r), r.PathValue("id"))
	if errors.Is(err, service.ErrScanNotFound) {
		writeError(w, http.StatusNotFound, "scan not found", s.logger)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete scan", s.logger)
		s.logger.Error("delete scan failed", "scan_id", r.PathValue("id"), "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReopen resumes the conversation of a stored scan.
func (s *Server) handleReopen(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}

	session, err := s.scans.Reopen(r.Context(), userID(r), r.PathValue("id"), lang)
	switch {
	case errors.Is(err, service.ErrScanNotFound):
		writeError(w, http.StatusNotFound, "scan not found", s.logger)
		return
	case errors.Is(err, service.ErrNoAnalysis):
		writeError(w, http.StatusConflict, err.Error(), s.logger)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to reopen scan", s.logger)
		s.logger.Error("reopen scan failed", "scan_id", r.PathValue("id"), "error", err)
		return
	}
	writeJSON(w, http.StatusCreated, newChatView(session), s.logger)
}
