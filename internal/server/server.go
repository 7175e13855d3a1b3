// Package server implements the HTTP front-end: a generate API, streaming
// variants, the static chat UI, and operational endpoints.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edgellm/ggufchat/internal/chat"
	"github.com/edgellm/ggufchat/internal/llm"
)

// Server owns the single shared model handle. The native handle cannot run
// concurrent generations, so every generation holds mu for its duration;
// overlapping requests queue behind it instead of corrupting the context.
type Server struct {
	runner    llm.Runner
	mu        sync.Mutex
	maxTokens int
	tmpl      chat.Template
	staticDir string
	log       zerolog.Logger
	started   time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithStaticDir changes where the front-end assets are served from.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithMaxTokens caps the default per-request token budget.
func WithMaxTokens(n int) Option {
	return func(s *Server) { s.maxTokens = n }
}

// WithTemplate sets the chat template applied to every API prompt.
func WithTemplate(t chat.Template) Option {
	return func(s *Server) {
		if t != nil {
			s.tmpl = t
		}
	}
}

// New builds a Server around an already-loaded model handle.
func New(runner llm.Runner, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		maxTokens: 512,
		tmpl:      chat.PlainTemplate{},
		staticDir: "web_ui",
		log:       log,
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/stream", s.handleStream)
	})
	r.Get("/ws", s.handleWebSocket)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))

	return r
}
