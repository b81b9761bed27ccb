// Package debug serves a read-only HTTP inspector over the committed trees
// of a surface registry.
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-drift/shadowtree/pkg/commit"
	"github.com/go-drift/shadowtree/pkg/surface"
	"github.com/go-drift/shadowtree/pkg/tree"
)

// Server is the inspector. Handlers only read published snapshots, so they
// never block committers.
type Server struct {
	surfaces *surface.Registry
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
	router   chi.Router

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer returns an inspector over surfaces. Metrics are served from
// gatherer; nil selects prometheus.DefaultGatherer.
func NewServer(surfaces *surface.Registry, gatherer prometheus.Gatherer, opts ...Option) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		surfaces: surfaces,
		gatherer: gatherer,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	r.Route("/surfaces", func(r chi.Router) {
		r.Get("/", s.handleSurfaces)
		r.Get("/{id}/tree", s.handleTree)
		r.Get("/{id}/commits", s.handleCommits)
	})
	return r
}

// Handler returns the inspector routes.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on port and serves in the background. It returns the bound
// port, which differs from port when port is 0. Starting a running server
// returns its current port.
func (s *Server) Start(port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("debug server listen: %w", err)
	}
	server := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener
	actual := listener.Addr().(*net.TCPAddr).Port

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			if s.server == server {
				s.server = nil
				s.listener = nil
			}
			s.mu.Unlock()
			s.logger.Error().Err(err).Msg("debug server stopped")
		}
	}()

	s.logger.Info().Int("port", actual).Msg("debug server listening")
	return actual, nil
}

// Stop gracefully shuts the server down. Stopping a stopped server is a
// no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("debug request")
	})
}

// SurfaceInfo summarizes one registered surface.
type SurfaceInfo struct {
	ID            int64  `json:"id"`
	Generation    uint64 `json:"generation"`
	Nodes         int    `json:"nodes"`
	FailedCommits int    `json:"failedCommits"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "surfaces": s.surfaces.IDs()})
}

func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	infos := []SurfaceInfo{}
	s.surfaces.Range(func(c commit.Committer) bool {
		snap := c.Snapshot()
		infos = append(infos, SurfaceInfo{
			ID:            int64(c.SurfaceID()),
			Generation:    snap.Generation,
			Nodes:         snap.Root.Count(),
			FailedCommits: c.FailedCommits(),
		})
		return true
	})
	writeJSON(w, infos)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	id, ok := surfaceID(w, r)
	if !ok {
		return
	}
	var resp struct {
		Surface    int64    `json:"surface"`
		Generation uint64   `json:"generation"`
		Root       TreeNode `json:"root"`
	}
	err := s.surfaces.VisitOrErr(id, func(c commit.Committer) {
		snap := c.Snapshot()
		resp.Surface = int64(id)
		resp.Generation = snap.Generation
		resp.Root = serializeNode(snap.Root, 0)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	id, ok := surfaceID(w, r)
	if !ok {
		return
	}
	var samples []commit.Sample
	err := s.surfaces.VisitOrErr(id, func(c commit.Committer) {
		samples = c.Samples()
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if n < len(samples) {
			samples = samples[len(samples)-n:]
		}
	}
	if samples == nil {
		samples = []commit.Sample{}
	}
	writeJSON(w, struct {
		Samples []commit.Sample `json:"samples"`
	}{samples})
}

func surfaceID(w http.ResponseWriter, r *http.Request) (tree.SurfaceID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid surface id", http.StatusBadRequest)
		return 0, false
	}
	return tree.SurfaceID(id), true
}

// writeJSON encodes to a buffer first so encode errors still produce a 500.
func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
