// Package web hosts the chat widget over HTTP: the page, the UI event
// endpoints, and a websocket that pushes page changes to the browser.
package web

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/dgallion1/faqdesk/internal/backend"
	"github.com/dgallion1/faqdesk/internal/config"
	"github.com/dgallion1/faqdesk/internal/session"
)

//go:embed static
var staticFiles embed.FS

// SessionCookie names the cookie carrying the widget session id.
const SessionCookie = "faqdesk_session"

// Server is the widget host.
type Server struct {
	router   chi.Router
	sessions *session.Store
	stats    *backend.Stats
	upgrader websocket.Upgrader
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Store, stats *backend.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		stats:    stats,
		log:      log,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/stats/backend", s.handleBackendStats)

	static, _ := fs.Sub(staticFiles, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handlePage)

	r.Route("/widget", func(r chi.Router) {
		r.Use(SessionMiddleware(s.sessions))
		r.Get("/view", s.handleView)
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(RequireXHR)
			r.Post("/input", s.handleInput)
			r.Post("/send", s.handleSend)
			r.Post("/key", s.handleKey)
			r.Post("/upload", s.handleUpload)
			r.Post("/faq/{itemID}/toggle", s.handleToggleFAQ)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleBackendStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "backend stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend":   s.cfg.BackendURL,
		"window":    s.cfg.StatsWindow.String(),
		"sessions":  s.sessions.Len(),
		"endpoints": s.stats.Snapshot(),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created, err := s.sessions.GetOrCreate(id)
	if err != nil {
		s.log.Error("create session", "error", err)
		jsonError(w, "could not start chat session", http.StatusInternalServerError)
		return
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(s.cfg.SessionTTL / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	page, err := sess.Controller.Page(r.Context())
	if err != nil {
		s.log.Error("render page", "session", sess.ID, "error", err)
		jsonError(w, "could not render chat", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(page))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
