// Package server exposes the analysis registry and the highlight engine over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/core/highlight"
)

// Backend lists and runs analysis modules.
type Backend interface {
	Modules(ctx context.Context) ([]analyzer.Info, error)
	Process(ctx context.Context, text string, modules []string) (map[string]analyzer.Result, error)
}

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Profiling    bool // mount /debug/pprof

	// Palette returns the colors used by /api/highlight. It is called per
	// request so the palette can change while serving.
	Palette func() highlight.Palette

	// SampleText returns the document served by /api/sample-text.
	SampleText func() (string, error)

	Logger zerolog.Logger
}

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	backend    Backend
	opts       Options
	log        zerolog.Logger
}

func New(backend Backend, opts Options) *Server {
	if opts.Palette == nil {
		opts.Palette = highlight.DefaultPalette
	}
	if opts.SampleText == nil {
		opts.SampleText = func() (string, error) { return "", nil }
	}

	s := &Server{
		backend: backend,
		opts:    opts,
		log:     opts.Logger,
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/modules", s.handleModules)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("POST /api/highlight", s.handleHighlight)
	mux.HandleFunc("GET /api/sample-text", s.handleSampleText)

	if s.opts.Profiling {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return s.withRequestLog(mux)
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.log.Info().Str("addr", listener.Addr().String()).Msg("starting server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
