package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/aushadhi/internal/auth"
)

const sessionCookie = "aushadhi_session"

type ctxKey int

const userIDKey ctxKey = iota

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error(), s.logger)
		return
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error(), s.logger)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to register", s.logger)
		s.logger.Error("register failed", "error", err)
		return
	}

	writeJSON(w, http.StatusCreated, userView{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt}, s.logger)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error(), s.logger)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to log in", s.logger)
		s.logger.Error("login failed", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  userView{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt},
	}, s.logger)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// requireAuth rejects requests without a valid session token. The token is
// read from a bearer Authorization header or the session cookie.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required", s.logger)
			return
		}

		userID, err := s.auth.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error(), s.logger)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// userID returns the authenticated user. It is only valid inside requireAuth.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
