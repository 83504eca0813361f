package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"bucketdrop/internal/auth"
	"bucketdrop/internal/config"
	"bucketdrop/internal/history"
	"bucketdrop/internal/upload"
)

// Server wires the upload workflow behind an HTTP UI
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	resolver *auth.Resolver
	sessions *auth.Sessions
	batcher  *upload.Batcher
	journal  history.Store // nil when history is disabled
	results  *resultStore
}

// New creates the web server
func New(
	cfg *config.Config,
	logger *zap.Logger,
	resolver *auth.Resolver,
	sessions *auth.Sessions,
	batcher *upload.Batcher,
	journal history.Store,
) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		sessions: sessions,
		batcher:  batcher,
		journal:  journal,
		results:  newResultStore(),
	}
}

// Router builds the chi router with the full route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.handleIndex)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Post("/upload", s.handleUpload)
	r.Get("/progress", s.handleProgress)
	r.Get("/urls.csv", s.handleCSV)
	r.Get("/history", s.handleHistory)

	r.Get("/hasher", s.handleHasher)
	r.Post("/hasher", s.handleHasher)

	return r
}

// currentUser resolves the authenticated username from the session
// cookie, rejecting sessions for users removed from the configuration.
func (s *Server) currentUser(r *http.Request) (string, bool) {
	username, err := s.sessions.Username(r)
	if err != nil {
		return "", false
	}
	if !s.resolver.Exists(username) {
		return "", false
	}
	return username, true
}
