// Package server exposes certificate lookups over HTTP alongside the
// Prometheus metrics and a liveness probe.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/manager"
	"github.com/certwatch-app/cw-certshow/internal/metrics"
	"github.com/certwatch-app/cw-certshow/internal/output"
	"github.com/certwatch-app/cw-certshow/internal/ssl"
	"github.com/certwatch-app/cw-certshow/internal/version"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// queryOptions maps query parameters to lookup option keys
var queryOptions = map[string]string{
	"chain":                ssl.OptionChain,
	ssl.OptionChain:        ssl.OptionChain,
	"ca_issuers":           ssl.OptionCAIssuers,
	ssl.OptionCAIssuers:    ssl.OptionCAIssuers,
	ssl.OptionCryptoMethod: ssl.OptionCryptoMethod,
	ssl.OptionDER:          ssl.OptionDER,
}

// Server answers lookups with drivers resolved from a manager
type Server struct {
	mgr    *manager.Manager
	logger *zap.Logger
	mux    *http.ServeMux
}

// New creates a new Server
func New(mgr *manager.Manager, logger *zap.Logger) *Server {
	s := &Server{
		mgr:    mgr,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /show", s.handleShow)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", metrics.Handler())

	metrics.BuildInfo.WithLabelValues(version.GetVersion()).Set(1)

	return s
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var questions []ssl.Question
	if host := query.Get("host"); host != "" {
		questions = append(questions, ssl.Question{Host: host, Port: query.Get("port")})
	}
	for _, target := range query["target"] {
		questions = append(questions, ssl.ParseTarget(target))
	}
	if len(questions) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: host or target is required", ssl.ErrInvalidArgument))
		return
	}

	raw := make(map[string]any)
	for param, key := range queryOptions {
		if !query.Has(param) {
			continue
		}
		// A bare flag such as ?chain means true
		value := query.Get(param)
		if value == "" && key != ssl.OptionCryptoMethod {
			value = "true"
		}
		raw[key] = value
	}
	opts, err := ssl.OptionsFromMap(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := s.show(r.Context(), query.Get("driver"), questions, opts)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := output.JSON(w, results, query.Has("pretty")); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

// show answers with the named driver, or the manager's default when name is empty
func (s *Server) show(ctx context.Context, name string, questions []ssl.Question, opts ssl.Options) ([]ssl.Result, error) {
	if name == "" {
		return s.mgr.Show(ctx, questions, opts)
	}
	driver, err := s.mgr.Driver(name)
	if err != nil {
		return nil, err
	}
	return driver.Show(ctx, questions, opts)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("lookup failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// statusFor maps lookup errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ssl.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, manager.ErrNotDefined):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
