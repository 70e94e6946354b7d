// Package http serves the JSON API for subscriptions, dashboards and
// exports.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"subtrack/internal/cache"
	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/services"
)

// SheetsExporter pushes a subscription snapshot to Google Sheets.
type SheetsExporter interface {
	AppendSubscriptions(ctx context.Context, subs []core.Subscription) (int, error)
}

// Verify the real client satisfies the port.
var _ SheetsExporter = (*export.SheetsClient)(nil)

type Server struct {
	http.Server
	service     *services.SubscriptionService
	sheets      SheetsExporter
	rateLimiter *rateLimiter

	// Dashboard responses are cached per user and window.
	dashboardCache *cache.LRU[core.AggregateStats]
	expiringDays   int

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Options carries the tunables the server does not own.
type Options struct {
	ExpiringSoonDays int
	CacheTTL         time.Duration
	Sheets           SheetsExporter
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, service *services.SubscriptionService, opts Options) *Server {
	if opts.ExpiringSoonDays <= 0 {
		opts.ExpiringSoonDays = 30
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:          service,
		sheets:           opts.Sheets,
		rateLimiter:      newRateLimiter(),
		dashboardCache:   cache.NewLRU[core.AggregateStats](200, opts.CacheTTL),
		expiringDays:     opts.ExpiringSoonDays,
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/subscriptions", s.secured(s.handleListSubscriptions))
	mux.HandleFunc("POST /api/subscriptions", s.secured(s.handleCreateSubscription))
	mux.HandleFunc("GET /api/subscriptions/{id}", s.secured(s.handleGetSubscription))
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.secured(s.handleUpdateSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.secured(s.handleDeleteSubscription))
	mux.HandleFunc("POST /api/subscriptions/{id}/cancel", s.secured(s.handleCancelSubscription))
	mux.HandleFunc("GET /api/categories", s.secured(s.handleListCategories))
	mux.HandleFunc("GET /api/dashboard", s.secured(s.handleDashboard))
	mux.HandleFunc("GET /api/export", s.secured(s.handleExport))
	mux.HandleFunc("POST /api/export/sheets", s.secured(s.handleExportSheets))

	return s
}

// startCacheCleanup runs periodic cleanup for the dashboard cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.dashboardCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// secured adds security headers, rate limiting, request logging and the
// user identity check to an API handler.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if userID(r) == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
