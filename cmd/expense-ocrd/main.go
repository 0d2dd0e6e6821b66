package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/core"
	"github.com/joseph-ayodele/expense-ocr/internal/export"
	"github.com/joseph-ayodele/expense-ocr/internal/server"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("expense-ocrd")
	var (
		addr      = fs.StringLong("addr", cfg.Server.HTTPAddr, "HTTP listen address")
		workers   = fs.IntLong("workers", cfg.Batch.Workers, "documents processed concurrently per request")
		engine    = fs.StringLong("ocr-engine", cfg.OCR.Engine, "OCR engine: tesseract or vision")
		logFormat = fs.StringLong("log-format", "json", "log format: json or text")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("EXPENSE_OCR")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if *logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Server.HTTPAddr = *addr
	cfg.Batch.Workers = *workers
	cfg.OCR.Engine = *engine

	processor, cleanup, err := core.NewProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up processor", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := server.NewServer(processor, export.NewService(logger), cfg.Server,
		export.Options{IncludeStatusSheet: cfg.Export.StatusSheet}, logger).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http serving", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("http serve failed", "error", err)
		cleanup()
		os.Exit(1)
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
