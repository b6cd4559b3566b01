// Package server exposes the capture pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"igprofiler/pkg/config"
	"igprofiler/pkg/logger"
	"igprofiler/pkg/scraper"
)

// Profiler is what the HTTP layer needs from the pipeline.
type Profiler interface {
	Scrape(ctx context.Context, username string, sampleSize int) (*scraper.Report, error)
}

// Server serves profile reports over HTTP.
type Server struct {
	profiler Profiler
	cfg      config.ServerConfig
	logger   logger.Logger
	http     *http.Server
}

// New builds a Server with its routes and middleware attached.
func New(profiler Profiler, cfg config.ServerConfig, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Server{
		profiler: profiler,
		cfg:      cfg,
		logger:   log,
	}

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the full middleware-wrapped router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/profile/{username}", s.handleProfile).Methods("GET")

	var handler http.Handler = r
	if s.cfg.RequestsPerMinute > 0 {
		handler = rateLimitMiddleware(s.cfg.RequestsPerMinute)(handler)
	}
	handler = s.loggingMiddleware(handler)
	return handler
}

// ListenAndServe blocks serving requests until the context is cancelled,
// then drains in-flight requests within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoWithFields("http server listening", map[string]interface{}{
			"addr": s.http.Addr,
		})
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(mux.Vars(r)["username"])
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username required"})
		return
	}

	// Absent or non-positive values fall back to the configured default
	// inside the pipeline.
	sampleSize, _ := strconv.Atoi(r.URL.Query().Get("posts"))

	report, err := s.profiler.Scrape(r.Context(), username, sampleSize)
	if err != nil {
		s.logger.ErrorWithFields("scrape failed", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// rateLimitMiddleware applies a process-wide token bucket sized for rpm
// requests per minute with a small burst allowance.
func rateLimitMiddleware(rpm int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.LogRequest(s.logger, r.Method, r.URL.Path, rec.status, time.Since(start).Milliseconds())
	})
}
