// Package server provides the HTTP API for match computation, match listing
// and profile management.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/strategic-matchmaker/internal/matching"
	"github.com/jonathan/strategic-matchmaker/internal/metrics"
	"github.com/jonathan/strategic-matchmaker/internal/observability"
	"github.com/jonathan/strategic-matchmaker/internal/server/middleware"
	"github.com/jonathan/strategic-matchmaker/internal/server/ratelimit"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// MatchService is the matching surface the API exposes.
type MatchService interface {
	ComputeMatches(ctx context.Context, requesterID uuid.UUID) (*matching.Result, error)
	ListMatches(ctx context.Context, requesterID uuid.UUID) ([]types.MatchResult, error)
	RecordAction(ctx context.Context, requesterID, matchedUserID uuid.UUID, status types.ActionStatus) (*types.MatchAction, error)
}

// ProfileStore reads and writes the caller's own profile.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*types.Profile, error)
	UpsertProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
}

// Config holds server configuration
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       ratelimit.Settings
}

// Dependencies are the collaborators of a Server.
type Dependencies struct {
	Matches  MatchService
	Profiles ProfileStore
	Tokens   middleware.TokenValidator
	// Health reports whether backing stores are reachable. Nil means always healthy.
	Health  func(ctx context.Context) error
	Logger  *zap.Logger
	Metrics *metrics.Manager
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	handler         http.Handler
	matches         MatchService
	profiles        ProfileStore
	health          func(ctx context.Context) error
	rateLimiter     *ratelimit.Limiter
	corsOrigins     map[string]bool
	shutdownTimeout time.Duration
	logger          *zap.Logger
	metrics         *metrics.Manager
}

const maxBodyBytes = 1 << 20

// New creates a new server instance
func New(cfg Config, deps Dependencies) (*Server, error) {
	if deps.Matches == nil || deps.Profiles == nil || deps.Tokens == nil {
		return nil, errors.New("server: match service, profile store and token validator are required")
	}

	s := &Server{
		matches:         deps.Matches,
		profiles:        deps.Profiles,
		health:          deps.Health,
		rateLimiter:     ratelimit.NewLimiter(ratelimit.NewConfig(cfg.RateLimit)),
		corsOrigins:     make(map[string]bool, len(cfg.CORSOrigins)),
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          observability.OrNop(deps.Logger),
		metrics:         deps.Metrics,
	}
	for _, origin := range cfg.CORSOrigins {
		s.corsOrigins[origin] = true
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}

	auth := middleware.AuthMiddleware(deps.Tokens)

	mux := http.NewServeMux()
	mux.Handle("POST /v1/matches", auth(http.HandlerFunc(s.handleComputeMatches)))
	mux.Handle("GET /v1/matches", auth(http.HandlerFunc(s.handleListMatches)))
	mux.Handle("PUT /v1/matches/{matched_user_id}/action", auth(http.HandlerFunc(s.handleRecordAction)))
	mux.Handle("GET /v1/profile", auth(http.HandlerFunc(s.handleGetProfile)))
	mux.Handle("PUT /v1/profile", auth(http.HandlerFunc(s.handlePutProfile)))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	s.handler = s.withLogging(s.withCORS(s.withRateLimit(mux)))
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout, // match computation waits on the model
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging logs each request and records request metrics by route pattern.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTPRequest(route, r.Method, strconv.Itoa(rec.status), elapsed)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64(observability.FieldDurationMilli, elapsed.Milliseconds()),
			zap.String("client", clientID(r)),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", fields...)
			return
		}
		s.logger.Debug("request completed", fields...)
	})
}

// withCORS adds CORS headers for allowed origins and answers preflight requests.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case s.corsOrigins["*"]:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && s.corsOrigins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies per-client token buckets.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.metrics.RecordRateLimited(info.Scope)
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID extracts the client identifier from the request.
// X-Forwarded-For is ignored; deploy behind a proxy that rewrites RemoteAddr.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	retryAfter := max(1, int(info.RetryAfter.Seconds()+0.5))
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":       codeRateLimited,
		"message":     "Rate limit exceeded. Please try again later.",
		"limit":       info.Limit,
		"retry_after": retryAfter,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, code, message string) {
	s.jsonResponse(w, status, map[string]string{"error": code, "message": message})
}

// writeError maps err to a status and a client-safe body, logging internal causes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	code, message := errorBody(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	s.errorResponse(w, status, code, message)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: strings.TrimPrefix(err.Error(), "json: ")}
	}
	return nil
}
