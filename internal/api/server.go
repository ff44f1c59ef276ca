// Package api serves the message protocol over HTTP.
package api

import (
	"net/http"
	"strings"
	"time"

	"glossari/internal/capture"
	"glossari/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Largest accepted request: a page snapshot plus its envelope.
const maxRequestSize = 12 << 20

// Server handles the HTTP front-end. All requests act on behalf of one
// configured user and share one capture session.
type Server struct {
	extraction  *service.ExtractionService
	translation *service.TranslationService
	cards       *service.CardService
	auth        *service.AuthService
	userID      int64
	session     *capture.Machine
	logger      *zap.Logger
}

// NewServer creates a new HTTP front-end
func NewServer(
	extraction *service.ExtractionService,
	translation *service.TranslationService,
	cards *service.CardService,
	auth *service.AuthService,
	userID int64,
	logger *zap.Logger,
) *Server {
	return &Server{
		extraction:  extraction,
		translation: translation,
		cards:       cards,
		auth:        auth,
		userID:      userID,
		session:     capture.NewMachine(),
		logger:      logger,
	}
}

// Routes returns the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		// The default binary wires no translator or explainer, so
		// requestTranslation answers 503 until one is configured.
		r.Post("/v1/messages", s.handleMessage)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireToken rejects requests without the configured bearer token
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !s.auth.CheckToken(strings.TrimSpace(token)) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
