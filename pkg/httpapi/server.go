// Package httpapi is the fulfillment engine's control and status
// surface: submit a batch, inspect batch/task state, cancel a batch,
// and stream task events over a WebSocket. It is a thin shell over
// pkg/fulfillment.Engine and pkg/events.Bus — no business logic lives
// here, only request/response shaping.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nezreka/fulfillment/pkg/events"
	"github.com/nezreka/fulfillment/pkg/fulfillment"
)

// Engine is the subset of fulfillment.Engine the API surface drives.
type Engine interface {
	SubmitBatch(ctx context.Context, reqs []fulfillment.SubmitRequest, maxConcurrent int) (*fulfillment.Batch, error)
	GetBatch(batchID string) (fulfillment.BatchSnapshot, bool)
	GetTask(taskID string) (fulfillment.TaskSnapshot, bool)
	CancelBatchByID(batchID string) bool
}

// EventSource is the subset of pkg/events.Bus the WebSocket stream
// subscribes to.
type EventSource interface {
	Subscribe(bufferSize int) (<-chan events.TaskEvent, func())
}

// Server wires the HTTP/WebSocket surface to an Engine and EventSource.
type Server struct {
	engine Engine
	bus    EventSource
	router chi.Router
}

// New builds a Server with its routes registered.
func New(engine Engine, bus EventSource) *Server {
	s := &Server{engine: engine, bus: bus}
	s.router = s.routes()
	return s
}

// ListenAndServe runs an HTTP server on addr until ctx is cancelled,
// draining with a bounded grace period on shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the event stream holds its connection open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	slog.Info("httpapi: listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz)

	r.Route("/batches", func(r chi.Router) {
		r.Post("/", s.submitBatch)
		r.Get("/{batchID}", s.getBatch)
		r.Delete("/{batchID}", s.cancelBatch)
	})
	r.Get("/tasks/{taskID}", s.getTask)
	r.Get("/ws/events", s.streamEvents)

	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("httpapi: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
