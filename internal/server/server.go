// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes curation, stored resources, favorites, and
// exercise generation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/internal/curate"
	"github.com/pdiddy/resource-curator/internal/logger"
	"github.com/pdiddy/resource-curator/internal/metrics"
	"github.com/pdiddy/resource-curator/internal/store"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Curator runs one curation request. *curate.Orchestrator satisfies it.
type Curator interface {
	Curate(ctx context.Context, req curate.Request) (curate.Result, error)
}

// ExerciseGenerator produces exercises for a knowledge point.
// *exercise.Service satisfies it.
type ExerciseGenerator interface {
	Generate(ctx context.Context, knowledgePoint string) (types.ExerciseSet, error)
}

// Store is the persistence surface the handlers use. *store.Store
// satisfies it.
type Store interface {
	Create(ctx context.Context, rec types.ResourceRecord) (types.ResourceRecord, error)
	Get(ctx context.Context, id int64) (types.ResourceRecord, error)
	Update(ctx context.Context, id int64, patch types.ResourcePatch) (types.ResourceRecord, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, opts store.SearchOptions) (types.Page[types.ResourceRecord], error)
	AddFavorite(ctx context.Context, userID, resourceID int64, notes string) (types.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, resourceID int64) (bool, error)
	IsFavorite(ctx context.Context, userID, resourceID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64, page, pageSize int) (types.Page[types.Favorite], error)
	ListExercises(ctx context.Context, knowledgePoint string, page, pageSize int) (types.Page[types.Exercise], error)
}

// Server holds the handler dependencies.
type Server struct {
	curator     Curator
	exercises   ExerciseGenerator
	store       Store
	maxPageSize int
	log         *zap.Logger
}

// New returns a Server. exercises may be nil when no text generator is
// configured; the generate endpoint then answers provider_unavailable.
func New(c Curator, ex ExerciseGenerator, st Store, maxPageSize int, log *zap.Logger) *Server {
	if maxPageSize <= 0 {
		maxPageSize = types.DefaultConfig().Store.MaxPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{curator: c, exercises: ex, store: st, maxPageSize: maxPageSize, log: log}
}

// Router builds the chi router with recovery, request IDs, per-request
// logging, and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.log))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(metrics.Middleware())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/resources/search", s.curateResources)
		r.Get("/resources", s.listResources)
		r.Post("/resources", s.createResource)
		r.Get("/resources/{id}", s.getResource)
		r.Patch("/resources/{id}", s.updateResource)
		r.Put("/resources/{id}", s.updateResource)
		r.Delete("/resources/{id}", s.deleteResource)
		r.Post("/resources/{id}/favorite", s.addFavorite)
		r.Delete("/resources/{id}/favorite", s.removeFavorite)
		r.Get("/favorites", s.listFavorites)
		r.Post("/exercises/generate", s.generateExercises)
		r.Get("/exercises", s.listExercises)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, types.ReasonNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, types.ReasonValidation, "method not allowed")
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down within
// cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg types.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// jsonRecoverer turns a handler panic into a JSON 500 response.
func jsonRecoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					log.Error("panic recovered", zap.Any("panic", rvr), zap.Stack("stacktrace"))
					writeError(w, http.StatusInternalServerError, types.ReasonInternal, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger attaches a request-scoped logger to the context and emits
// one log line per request.
func requestLogger(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLog := log.With(zap.String("request_id", requestID))
			ctx := logger.WithContext(r.Context(), reqLog)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLog.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    types.Reason `json:"code"`
	Message string       `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code types.Reason, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// statusFor maps a reason code to an HTTP status.
func statusFor(reason types.Reason) int {
	switch reason {
	case types.ReasonValidation:
		return http.StatusBadRequest
	case types.ReasonNotFound:
		return http.StatusNotFound
	case types.ReasonProviderUnavailable, types.ReasonParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err as a structured error. Internal failures get a
// generic message; the detail goes to the log only.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	reason := types.ReasonOf(err)
	status := statusFor(reason)
	log := logger.FromContext(r.Context())

	msg := "internal error"
	var te *types.Error
	if errors.As(err, &te) && reason != types.ReasonInternal {
		msg = te.Detail
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("reason", string(reason)), zap.Error(err))
	} else {
		log.Warn("request rejected", zap.String("reason", string(reason)), zap.Error(err))
	}
	writeError(w, status, reason, msg)
}
