package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"packhouse/internal/config"
	"packhouse/internal/logger"
	"packhouse/internal/pipeline"
	"packhouse/internal/storage"
)

// Server exposes runs over HTTP: list and inspect past runs, download their
// artifacts, and start a new run from uploaded invoices.
type Server struct {
	db   *storage.DB
	cfg  config.Config
	runs *pipeline.RunService
}

func NewServer(db *storage.DB, cfg config.Config) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("httpapi: storage is required")
	}
	runs, err := pipeline.NewRunService(db, cfg)
	if err != nil {
		return nil, err
	}
	return &Server{db: db, cfg: cfg, runs: runs}, nil
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLog)
	if len(s.cfg.HTTPCORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.HTTPCORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Use(Compress)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Post("/runs", s.handleCreateRun)
		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRun)
			r.Get("/plan.xlsx", s.handlePlanDownload)
			r.Get("/document/{n}", s.handleDocumentDownload)
		})
	})
	return r
}

// ListenAndServe blocks until the context is canceled, then drains in-flight
// requests before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("http server listening", "addr", s.cfg.HTTPAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"ms", time.Since(start).Milliseconds(), "reqId", middleware.GetReqID(r.Context()))
	})
}
