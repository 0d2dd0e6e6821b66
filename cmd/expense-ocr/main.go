package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/expense-ocr/constants"
	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/core"
	"github.com/joseph-ayodele/expense-ocr/internal/export"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
	"github.com/joseph-ayodele/expense-ocr/internal/ingest"
	"github.com/joseph-ayodele/expense-ocr/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// .env is optional
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("expense-ocr")
	var (
		dir          = fs.StringLong("dir", "", "directory of expense reports to process")
		manifest     = fs.StringLong("manifest", "", "JSON manifest listing the documents to process, in order")
		out          = fs.StringLong("out", export.DefaultFilename, "output XLSX file path")
		jsonOut      = fs.StringLong("json", "", "also write results as JSON to this path")
		statusSheet  = fs.BoolLong("status-sheet", "add a Status sheet listing each file's outcome")
		debugText    = fs.BoolLong("debug-text", "print the first 2,000 characters of each document's text")
		includeDots  = fs.BoolLong("include-hidden", "include dot files when walking --dir")
		watch        = fs.BoolLong("watch", "keep running and re-export whenever files under --dir change")
		workers      = fs.IntLong("workers", cfg.Batch.Workers, "documents processed concurrently")
		nameFallback = fs.StringLong("name-fallback", cfg.Extract.NameFallback, "when to use the Report Owner / QC Name label: miss or empty")
		engine       = fs.StringLong("ocr-engine", cfg.OCR.Engine, "OCR engine: tesseract or vision")
		heic         = fs.BoolLong("heic", "decode .heic/.heif photos")
		logLevel     = fs.StringLong("log-level", "info", "log level: debug, info, warn, error")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("EXPENSE_OCR")); err != nil {
		printError("%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		printError("error: %v\n", err)
		os.Exit(1)
	}
	files := fs.GetArgs()

	sources := 0
	for _, set := range []bool{*dir != "", *manifest != "", len(files) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		printError("Error: exactly one of --dir, --manifest or file arguments is required\n")
		os.Exit(1)
	}
	if *watch && *dir == "" {
		printError("Error: --watch requires --dir\n")
		os.Exit(1)
	}

	// Setup logger
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		printError("Error: invalid --log-level: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Batch.Workers = *workers
	cfg.Extract.NameFallback = *nameFallback
	cfg.OCR.Engine = *engine
	cfg.OCR.EnableHEIC = cfg.OCR.EnableHEIC || *heic
	opts := export.Options{IncludeStatusSheet: cfg.Export.StatusSheet || *statusSheet}

	processor, cleanup, err := core.NewProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up processor", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Exports may be written inside --dir; they are never inputs.
	outputs := []string{*out, *jsonOut}
	load := func() ([]extract.Document, error) {
		switch {
		case *dir != "":
			return ingest.LoadDirectory(*dir, !*includeDots, outputs...)
		case *manifest != "":
			return ingest.LoadManifest(*manifest)
		default:
			return ingest.LoadPaths(files)
		}
	}

	job := batchJob{
		processor: processor,
		exporter:  export.NewService(logger),
		opts:      opts,
		out:       *out,
		jsonOut:   *jsonOut,
		debugText: *debugText,
		logger:    logger,
	}
	if err := job.run(ctx, load); err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
	if !*watch {
		return
	}

	events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{Root: *dir, SkipHidden: !*includeDots, Exclude: outputs}, logger)
	if err != nil {
		logger.Error("failed to watch directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("watching for changes", "dir", *dir)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case paths, ok := <-events:
			if !ok {
				return
			}
			logger.Info("changes detected", "paths", len(paths))
			if err := job.run(ctx, load); err != nil {
				logger.Error("batch failed", "error", err)
			}
		case err, ok := <-errs:
			if ok {
				logger.Warn("watch error", "error", err)
			}
		}
	}
}

type batchJob struct {
	processor *pipeline.Processor
	exporter  *export.Service
	opts      export.Options
	out       string
	jsonOut   string
	debugText bool
	logger    *slog.Logger
}

// run loads, processes and exports one batch. Only setup and export failures are
// returned; per-document failures end up in the results.
func (j batchJob) run(ctx context.Context, load func() ([]extract.Document, error)) error {
	start := time.Now()
	docs, err := load()
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	batchID := uuid.NewString()
	results := j.processor.ProcessBatch(common.WithRequestID(ctx, batchID), docs)

	data, err := j.exporter.ExportXLSX(ctx, results, j.opts)
	if err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	if err := os.WriteFile(j.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", j.out, err)
	}
	if j.jsonOut != "" {
		b, err := j.exporter.ExportJSON(results, export.Options{IncludeText: j.debugText})
		if err != nil {
			return err
		}
		if err := os.WriteFile(j.jsonOut, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", j.jsonOut, err)
		}
	}

	if j.debugText {
		printDebugText(results)
	}
	printSummary(results, j.out, time.Since(start))
	j.logger.Info("batch processing complete", "batch_id", batchID, "documents", len(results), "output_file", j.out)
	return nil
}

func printDebugText(results pipeline.ResultSet) {
	for i, r := range results {
		fmt.Printf("--- File %d: %s [%s]\n", i+1, r.Filename, r.Status)
		fmt.Println(export.DebugText(r.Text))
	}
}

func printSummary(results pipeline.ResultSet, out string, elapsed time.Duration) {
	counts := results.Counts()
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents: %d\n", len(results))
	for _, r := range results {
		fmt.Printf("  %-40s %-16s %-16s %-20s %s\n", r.Filename, r.Status, r.Fields.ReportNumber, r.Fields.ReviewerName, r.Fields.Amount)
	}
	fmt.Printf("- OK: %d, decode errors: %d, unsupported: %d, failed: %d\n",
		counts[constants.StatusOK], counts[constants.StatusDecodeError], counts[constants.StatusUnsupportedType], counts[constants.StatusFailed])
	fmt.Printf("- Elapsed: %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("- Output: %s\n", out)
}
