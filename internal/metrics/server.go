package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anstrom/portprobe/internal/logging"
)

// Server timeout constants.
const (
	serverShutdownTimeout = 5 * time.Second
	serverReadTimeout     = 10 * time.Second
)

// Server exposes the collectors of a PrometheusMetrics over HTTP.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	metrics    *PrometheusMetrics
	listener   net.Listener
	logger     *logging.Logger
}

// NewServer creates a metrics server for addr. It does not start listening.
func NewServer(addr string, pm *PrometheusMetrics) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		metrics: pm,
		logger:  logging.Default().WithComponent("metrics"),
	}

	s.router.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(s.router),
		ReadHeaderTimeout: serverReadTimeout,
	}
	return s
}

// Handler returns the HTTP handler serving the metrics routes.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	s.listener = ln

	s.logger.Info("Starting metrics server", "address", ln.Addr().String())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}
	return nil
}

// metricsHandler refreshes the process gauges before every scrape.
func (s *Server) metricsHandler() http.Handler {
	promHandler := promhttp.HandlerFor(s.metrics.GetRegistry(), promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.UpdateSystemMetrics()
		promHandler.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.metrics.UpdateSystemMetrics()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
