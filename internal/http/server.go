// Package http exposes the expense API: CRUD over records plus the
// filtered list and statistics views, with the operational endpoints the
// service runs behind (health, readiness, metrics).
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"spendlog/internal/cache"
	"spendlog/internal/core"
	"spendlog/internal/ledger"
	applog "spendlog/internal/log"
)

type Server struct {
	http.Server
	ledger      *ledger.Manager
	logger      *applog.Logger
	rateLimiter *rateLimiter

	// Response snapshots; cleared on every confirmed mutation so readers
	// never observe a phantom or stale record.
	listCache  *cache.LRU[[]core.Record]
	statsCache *cache.LRU[core.Statistics]

	appMetrics       metrics
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

type metrics struct {
	totalRequests   int64
	expensesCreated int64
	expensesUpdated int64
	expensesDeleted int64
	cacheHits       int64
	cacheMisses     int64
	rateLimitHits   int64
	startedAt       time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server bound to addr.
func NewServer(addr string, lm *ledger.Manager, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:           lm,
		logger:           logger,
		rateLimiter:      newRateLimiter(),
		listCache:        newListCache(),
		statsCache:       cache.NewLRU[core.Statistics](16, time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}
	s.appMetrics.startedAt = time.Now()

	go s.startCacheCleanup()

	mux.HandleFunc("/", s.withMiddleware(s.handleRoot))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/expenses", s.withMiddleware(s.handleExpenses))
	mux.HandleFunc("/expenses/", s.withMiddleware(s.handleExpenseByID))
	mux.HandleFunc("/expenses/stats", s.withMiddleware(s.handleStats))
	mux.HandleFunc("/expenses/categories", s.withMiddleware(s.handleCategories))

	return s
}

func newListCache() *cache.LRU[[]core.Record] {
	// One entry per distinct filter query
	return cache.NewLRU[[]core.Record](64, time.Minute)
}

// invalidate drops every cached response snapshot.
func (s *Server) invalidate() {
	s.listCache.Clear()
	s.statsCache.Clear()
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			listCleaned := s.listCache.CleanExpired()
			statsCleaned := s.statsCache.CleanExpired()
			if listCleaned > 0 || statsCleaned > 0 {
				s.logger.Info("Cache cleanup completed",
					"list_entries_removed", listCleaned,
					"stats_entries_removed", statsCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
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

// withMiddleware adds security headers, rate limiting, and request
// logging around a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.appMetrics.totalRequests, 1)

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := r.Context()

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			atomic.AddInt64(&s.appMetrics.rateLimitHits, 1)
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatus, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
