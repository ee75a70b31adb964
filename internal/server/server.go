// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codag/internal/common/logger"
	"codag/internal/models"
)

// Boundary limits enforced before the core pipeline is invoked.
const (
	MaxCodeSize = 5_000_000 // bytes
	MaxFiles    = 50
)

// Analyzer runs the analysis pipeline for one request.
type Analyzer interface {
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.WorkflowGraph, error)
}

// Server is the HTTP boundary of the service.
type Server struct {
	analyzer Analyzer
	logger   logger.Logger
}

func New(analyzer Analyzer, log logger.Logger) *Server {
	return &Server{
		analyzer: analyzer,
		logger: log.With(map[string]interface{}{
			"component": "http",
		}),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), s.logger.With(map[string]interface{}{
			"requestId": requestID,
		}))))

		s.logger.Info("request handled", map[string]interface{}{
			"requestId":  requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, log logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

func loggerFrom(ctx context.Context, fallback logger.Logger) logger.Logger {
	if log, ok := ctx.Value(loggerKey).(logger.Logger); ok {
		return log
	}
	return fallback
}
