// Package server owns the HTTP listeners and their lifecycle.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

// Option configures optional parts of a Server.
type Option func(*Server)

// WithLogger sets the lifecycle logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOps enables the ops listener on addr, serving /metrics from gatherer and
// /healthz from health (nil means always healthy). An empty addr disables it.
func WithOps(addr string, gatherer prometheus.Gatherer, health HealthFunc) Option {
	return func(s *Server) {
		if addr == "" {
			return
		}
		s.ops = &http.Server{
			Addr:              addr,
			Handler:           opsHandler(gatherer, health),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
}

// WithCloser registers c to be closed after the listeners stop, in
// registration order.
func WithCloser(c io.Closer) Option {
	return func(s *Server) {
		if c != nil {
			s.closers = append(s.closers, c)
		}
	}
}

// WithWorker runs fn in its own goroutine while the server is up. Its context is
// cancelled after the listeners stop, and Shutdown waits for fn to return before
// closing registered resources.
func WithWorker(fn func(ctx context.Context)) Option {
	return func(s *Server) {
		if fn != nil {
			s.workers = append(s.workers, fn)
		}
	}
}

// Server wraps the chat listener, the optional ops listener, background workers
// and the resources that must be released on shutdown.
type Server struct {
	config  Config
	http    *http.Server
	ops     *http.Server
	workers []func(ctx context.Context)
	closers []io.Closer
	logger  *slog.Logger

	mu           sync.Mutex
	stopped      bool
	cancelWorker context.CancelFunc
	workerWG     sync.WaitGroup
}

// NewServer creates a server that serves handler on the configured address.
func NewServer(handler http.Handler, config Config, opts ...Option) *Server {
	s := &Server{
		config: config,
		http: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves every listener and blocks until all of them stop. A listener
// that fails closes the others; a clean Shutdown makes Start return nil.
func (s *Server) Start(ctx context.Context) error {
	s.startWorkers(ctx)

	listeners := s.listeners()
	errCh := make(chan error, len(listeners))
	for name, srv := range listeners {
		go func() {
			s.logger.Info("server.listen", "listener", name, "addr", srv.Addr)
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			if err != nil {
				err = fmt.Errorf("%s listener: %w", name, err)
			}
			errCh <- err
		}()
	}

	var first error
	for range listeners {
		if err := <-errCh; err != nil && first == nil {
			first = err
			s.logger.Error("server.listen.failed", "err", err)
			for _, srv := range listeners {
				_ = srv.Close()
			}
		}
	}
	return first
}

// Shutdown gracefully stops the listeners, then the workers, then closes
// registered resources. Workers get until ctx expires to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.shutdown.start")

	var errs []error
	for name, srv := range s.listeners() {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown: %w", name, err))
		}
	}
	if err := s.stopWorkers(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("server.shutdown.failed", "err", err)
		return err
	}
	s.logger.Info("server.shutdown.complete")
	return nil
}

// startWorkers launches the workers once. Their context outlives a cancelled
// ctx; only stopWorkers ends it.
func (s *Server) startWorkers(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.cancelWorker != nil {
		return
	}
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelWorker = cancel
	for _, fn := range s.workers {
		s.workerWG.Add(1)
		go func() {
			defer s.workerWG.Done()
			fn(workerCtx)
		}()
	}
}

func (s *Server) stopWorkers(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	if s.cancelWorker != nil {
		s.cancelWorker()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("workers: %w", ctx.Err())
	}
}

func (s *Server) listeners() map[string]*http.Server {
	out := map[string]*http.Server{"chat": s.http}
	if s.ops != nil {
		out["ops"] = s.ops
	}
	return out
}

func opsHandler(gatherer prometheus.Gatherer, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if health != nil {
			if err := health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}
