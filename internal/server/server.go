package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Impact2025/impacttour/internal/oracle"
)

type Server struct {
	srv    *http.Server
	broker *Broker
	logger *slog.Logger
}

// Options carries the wiring for New. Redis is optional; without it the
// broker stays in-process.
type Options struct {
	Addr             string
	Logger           *slog.Logger
	Store            Store
	Oracle           oracle.Oracle
	DB               *sql.DB
	Redis            *redis.Client
	AccuracyCeilingM float64
	SPADir           string
}

func New(opts Options) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	broker := NewBroker()
	addRoutes(r, opts.Logger, opts.Store, broker, opts.Oracle, opts.DB, opts.Redis, opts.AccuracyCeilingM, opts.SPADir)

	return &Server{
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		broker: broker,
		logger: opts.Logger,
	}
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Broker exposes the server's event broker so main can attach the Redis
// backplane after construction.
func (s *Server) Broker() *Broker {
	return s.broker
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
