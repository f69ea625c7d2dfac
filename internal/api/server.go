// Package api exposes the HTTP interface for the job aggregation service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/aggregator"
	"github.com/careerpilot/jobscout/internal/history"
	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/metrics"
	"github.com/careerpilot/jobscout/internal/ratelimit"
)

const rateLimitedMessage = "Too many requests. Please try again later."

// Server wires HTTP handlers to the aggregator, limiter, and history store.
type Server struct {
	router     chi.Router
	aggregator *aggregator.Aggregator
	limiter    *ratelimit.Limiter
	history    history.Store
	clock      jobs.Clock
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	agg *aggregator.Aggregator,
	limiter *ratelimit.Limiter,
	hist history.Store,
	clock jobs.Clock,
	requestTimeout time.Duration,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	s := &Server{
		aggregator: agg,
		limiter:    limiter,
		history:    hist,
		clock:      clock,
		logger:     logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(metricsMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/jobs/search", s.searchJobs)
		r.Get("/platforms", s.listPlatforms)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) listPlatforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"platforms": s.aggregator.Platforms()})
}

func (s *Server) searchJobs(w http.ResponseWriter, r *http.Request) {
	identity := clientIdentity(r)
	verdict := s.limiter.Limit(identity)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(verdict.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(verdict.Remaining))
	if !verdict.Success {
		metrics.ObserveRateLimitRejection()
		writeMessage(w, http.StatusTooManyRequests, rateLimitedMessage)
		return
	}

	var req jobs.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	metrics.ObserveSearch()
	result, err := s.aggregator.Aggregate(r.Context(), req)
	if err != nil {
		if errors.Is(err, jobs.ErrValidation) {
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message": "Failed to fetch jobs. Please try again.",
			"error":   err.Error(),
			"jobs":    []jobs.Listing{},
		})
		return
	}

	s.recordSearch(req, identity, result)
	writeJSON(w, http.StatusOK, result)
}

// recordSearch persists the search asynchronously. Failures are logged, never
// surfaced to the caller.
func (s *Server) recordSearch(req jobs.SearchRequest, identity string, result jobs.SearchResult) {
	if s.history == nil {
		return
	}
	suggested := 0
	for _, stat := range result.Stats.Breakdown {
		suggested += stat.Suggested
	}
	rec := history.SearchRecord{
		ID:        uuid.NewString(),
		Role:      strings.TrimSpace(req.Role),
		Location:  req.Location,
		Platforms: req.Platforms,
		Identity:  identity,
		Total:     result.Stats.Total,
		Suggested: suggested,
		At:        s.clock.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.Record(ctx, rec); err != nil {
			s.logger.Warn("history record failed", zap.Error(err))
		}
	}()
}

// clientIdentity derives the limiter key: the first address in
// X-Forwarded-For, or "anonymous" when the header is absent.
func clientIdentity(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return "anonymous"
	}
	first, _, _ := strings.Cut(forwarded, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return "anonymous"
}

// validationMessage strips the sentinel prefix so clients see only the
// human-readable part.
func validationMessage(err error) string {
	msg := err.Error()
	if _, after, found := strings.Cut(msg, ": "); found {
		return after
	}
	return msg
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		metrics.ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeMessage(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
