package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewServer_ConfiguresAddressAndHandler(t *testing.T) {
	t.Parallel()

	cfg := Config{Host: "127.0.0.1", Port: 18080, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second}
	s := NewServer(http.NotFoundHandler(), cfg)

	if s == nil {
		t.Fatal("NewServer() returned nil")
	}
	if s.http.Addr != "127.0.0.1:18080" {
		t.Fatalf("Addr = %q; want %q", s.http.Addr, "127.0.0.1:18080")
	}
	if s.http.Handler == nil {
		t.Fatal("Handler should not be nil")
	}
	if s.http.WriteTimeout != 2*time.Second {
		t.Fatalf("WriteTimeout = %v; want 2s", s.http.WriteTimeout)
	}
	if s.ops != nil {
		t.Fatal("ops listener should be disabled without WithOps")
	}
}

func TestWithOps_EmptyAddr_Disabled(t *testing.T) {
	t.Parallel()

	s := NewServer(http.NotFoundHandler(), Config{Host: "127.0.0.1", Port: 18081}, WithOps("", prometheus.NewRegistry(), nil))
	if s.ops != nil {
		t.Fatal("expected ops listener to stay disabled")
	}
}

func TestOpsHandler_Healthz(t *testing.T) {
	t.Parallel()

	h := opsHandler(nil, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("expected healthy response, got %d %q", w.Code, w.Body.String())
	}
}

func TestOpsHandler_Healthz_Degraded(t *testing.T) {
	t.Parallel()

	h := opsHandler(nil, func(context.Context) error { return errors.New("ollama unreachable") })
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ollama unreachable") {
		t.Fatalf("expected error in body, got %q", w.Body.String())
	}
}

func TestOpsHandler_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "splunkchat_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	h := opsHandler(reg, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "splunkchat_test_total 1") {
		t.Fatalf("expected counter in exposition, got %q", w.Body.String())
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestStartShutdown_ClosesResources(t *testing.T) {
	t.Parallel()

	var order []string
	s := NewServer(http.NotFoundHandler(), Config{Host: "127.0.0.1", Port: freePort(t)},
		WithOps("127.0.0.1:"+strconv.Itoa(freePort(t)), prometheus.NewRegistry(), nil),
		WithCloser(closerFunc(func() error { order = append(order, "db"); return nil })),
		WithCloser(closerFunc(func() error { order = append(order, "mcp"); return nil })),
		WithCloser(nil),
	)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
	if strings.Join(order, ",") != "db,mcp" {
		t.Fatalf("closers ran in order %v", order)
	}
}

func TestShutdown_ReportsCloserError(t *testing.T) {
	t.Parallel()

	s := NewServer(http.NotFoundHandler(), Config{Host: "127.0.0.1", Port: 18081},
		WithCloser(closerFunc(func() error { return errors.New("boom") })))

	if err := s.Shutdown(context.Background()); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected closer error, got %v", err)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port

	s := NewServer(http.NotFoundHandler(), Config{Host: "127.0.0.1", Port: port},
		WithOps("127.0.0.1:"+strconv.Itoa(freePort(t)), nil, nil))

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "chat listener") {
			t.Fatalf("expected chat listener error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return on bind failure")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestShutdown_StopsWorkersBeforeClosers(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}

	started := make(chan struct{})
	s := NewServer(http.NotFoundHandler(), Config{Host: "127.0.0.1", Port: freePort(t)},
		WithWorker(func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond) // pending writes
			record("worker")
		}),
		WithCloser(closerFunc(func() error { record("db"); return nil })),
	)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "worker,db" {
		t.Fatalf("expected worker to finish before closers, got %v", order)
	}
}

func TestShutdown_BeforeStart_WorkersNeverRun(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 1)
	s := NewServer(http.NotFoundHandler(), Config{Host: "127.0.0.1", Port: freePort(t)},
		WithWorker(func(context.Context) { ran <- struct{}{} }))

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() after Shutdown error = %v", err)
	}
	select {
	case <-ran:
		t.Fatal("worker ran after Shutdown")
	default:
	}
}

func TestShutdown_WorkerTimeout_ReturnsError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	started := make(chan struct{})
	s := NewServer(http.NotFoundHandler(), Config{Host: "127.0.0.1", Port: freePort(t)},
		WithWorker(func(context.Context) {
			close(started)
			<-release
		}))

	go func() { _ = s.Start(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Shutdown(ctx); err == nil || !strings.Contains(err.Error(), "workers") {
		t.Fatalf("expected worker timeout error, got %v", err)
	}
}
