// Package server exposes an open family tree over a JSON HTTP API.
//
// One [session.Session] backs the server; every request goes through the
// session lock, so mutations are serialized and a request never sees a
// half-applied change. Store errors map to HTTP statuses by code family:
// NOT_FOUND_* is 404, STRUCTURAL_* and DUPLICATE_* are 409, INVALID_* is
// 400, anything else 500.
//
//	sess, _, _ := session.Open(ctx, "family.db")
//	srv := server.New(sess, server.WithLogger(logger))
//	err := srv.ListenAndServe(ctx, ":8080")
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/famtree/pkg/canvas"
	"github.com/matzehuels/famtree/pkg/pipeline"
	"github.com/matzehuels/famtree/pkg/session"
)

const (
	// DefaultAddr is the listen address used when none is given.
	DefaultAddr = "127.0.0.1:8080"

	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

// Server serves one session.
type Server struct {
	session *session.Session
	runner  *pipeline.Runner
	logger  *log.Logger
	grid    canvas.Grid
	render  pipeline.Options
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunner sets the pipeline runner used by GET /render.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithGrid sets the grid positions snap to when a move asks for it.
func WithGrid(g canvas.Grid) Option { return func(s *Server) { s.grid = g } }

// WithRenderDefaults sets theme, language and grid for GET /render when
// the query does not override them.
func WithRenderDefaults(o pipeline.Options) Option { return func(s *Server) { s.render = o } }

// New creates a server for sess.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		grid:    canvas.Grid{Size: canvas.DefaultGridSize, Enabled: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.RequestSize(maxBodyBytes))

	r.Get("/health", s.health)
	r.Get("/tree", s.getTree)
	r.Get("/render", s.renderTree)

	r.Route("/persons", func(r chi.Router) {
		r.Get("/", s.listPersons)
		r.Post("/", s.createPerson)
		r.Get("/{id}", s.getPerson)
		r.Patch("/{id}", s.updatePerson)
		r.Delete("/{id}", s.deletePerson)
	})

	r.Post("/edges", s.createEdge)
	r.Delete("/edges/{parent}/{child}", s.deleteEdge)

	r.Post("/spouses", s.createSpouse)
	r.Patch("/spouses/{a}/{b}", s.updateSpouse)
	r.Delete("/spouses/{a}/{b}", s.deleteSpouse)

	r.Route("/families", func(r chi.Router) {
		r.Post("/", s.createFamily)
		r.Patch("/{id}", s.updateFamily)
		r.Delete("/{id}", s.deleteFamily)
		r.Post("/{id}/members", s.addFamilyMember)
		r.Delete("/{id}/members/{person}", s.removeFamilyMember)
	})

	r.Route("/events", func(r chi.Router) {
		r.Post("/", s.createEvent)
		r.Delete("/{id}", s.deleteEvent)
		r.Post("/{id}/links", s.linkEvent)
		r.Delete("/{id}/links/{person}", s.unlinkEvent)
	})

	r.Post("/layout", s.layout(false))
	r.Post("/layout/reset", s.layout(true))
	r.Put("/nodes/{kind}/{id}/position", s.moveNode)
	r.Post("/save", s.save)

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr, "tree", s.session.Location)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()))
		})
	}
}
