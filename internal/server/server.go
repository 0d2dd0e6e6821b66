package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/export"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
	"github.com/joseph-ayodele/expense-ocr/internal/pipeline"
)

// Batcher runs a batch of documents to results.
type Batcher interface {
	ProcessBatch(ctx context.Context, docs []extract.Document) pipeline.ResultSet
}

// Server exposes extraction and export over HTTP. It keeps no state between requests.
type Server struct {
	batcher  Batcher
	exporter *export.Service
	cfg      common.ServerConfig
	export   export.Options
	logger   *slog.Logger
}

func NewServer(batcher Batcher, exporter *export.Service, cfg common.ServerConfig, opts export.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = common.DefaultMaxUploadBytes
	}
	return &Server{batcher: batcher, exporter: exporter, cfg: cfg, export: opts, logger: logger}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/extract", s.extract)
		r.Post("/export", s.exportXLSX)
	})
	return r
}

// HTTPServer wraps Routes with the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}
