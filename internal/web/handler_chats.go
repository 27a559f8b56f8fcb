package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/vbonduro/aushadhi/internal/chat"
	"github.com/vbonduro/aushadhi/internal/service"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	session, err := s.scans.Chat(userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "chat not found", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, newChatView(session), s.logger)
}

// handleSendMessage returns the assistant reply. A backend failure still
// yields 200 with the localized error text as the reply.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}

	reply, err := s.scans.SendMessage(context.WithoutCancel(r.Context()), userID(r), r.PathValue("id"), req.Content)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	case errors.Is(err, service.ErrChatNotFound), errors.Is(err, chat.ErrSessionClosed):
		writeError(w, http.StatusNotFound, "chat not found", s.logger)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to send message", s.logger)
		s.logger.Error("send message failed", "session_id", r.PathValue("id"), "error", err)
		return
	}
	writeJSON(w, http.StatusOK, reply, s.logger)
}

func (s *Server) handleCloseChat(w http.ResponseWriter, r *http.Request) {
	if err := s.scans.CloseChat(userID(r), r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "chat not found", s.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
