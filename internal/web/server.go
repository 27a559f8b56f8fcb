package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/aushadhi/internal/auth"
	"github.com/vbonduro/aushadhi/internal/domain"
	"github.com/vbonduro/aushadhi/internal/events"
	"github.com/vbonduro/aushadhi/internal/service"
)

// scanEvents is the subscribing half of events.Feed.
type scanEvents interface {
	Subscribe(ctx context.Context, userID string) (<-chan events.ScanEvent, error)
}

type Server struct {
	scans       *service.ScanService
	auth        *auth.Service
	feed        scanEvents
	defaultLang domain.Language
	tokenTTL    time.Duration
	mux         *http.ServeMux
	logger      *slog.Logger
}

func NewServer(scans *service.ScanService, authSvc *auth.Service, feed scanEvents, defaultLang domain.Language, tokenTTL time.Duration, logger *slog.Logger) *Server {
	s := &Server{
		scans:       scans,
		auth:        authSvc,
		feed:        feed,
		defaultLang: defaultLang,
		tokenTTL:    tokenTTL,
		mux:         http.NewServeMux(),
		logger:      logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
	})

	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	s.mux.HandleFunc("POST /api/scans", s.requireAuth(s.handleCapture))
	s.mux.HandleFunc("GET /api/scans", s.requireAuth(s.handleHistory))
	s.mux.HandleFunc("GET /api/scans/events", s.requireAuth(s.handleScanEvents))
	s.mux.HandleFunc("GET /api/scans/{id}/image", s.requireAuth(s.handleScanImage))
	s.mux.HandleFunc("DELETE /api/scans/{id}", s.requireAuth(s.handleDeleteScan))
	s.mux.HandleFunc("POST /api/scans/{id}/chat", s.requireAuth(s.handleReopen))

	s.mux.HandleFunc("GET /api/chats/{id}", s.requireAuth(s.handleGetChat))
	s.mux.HandleFunc("POST /api/chats/{id}/messages", s.requireAuth(s.handleSendMessage))
	s.mux.HandleFunc("DELETE /api/chats/{id}", s.requireAuth(s.handleCloseChat))

	s.mux.HandleFunc("POST /api/analyze", s.requireAuth(s.handleAnalyze))
	s.mux.HandleFunc("POST /api/analyze/stream", s.requireAuth(s.handleAnalyzeStream))
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer for
// flushing and deadlines.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
