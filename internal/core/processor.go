package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
	"github.com/joseph-ayodele/expense-ocr/internal/ocr"
	"github.com/joseph-ayodele/expense-ocr/internal/pipeline"
)

// NewProcessor wires the text acquirer, field rules and batch processor described
// by cfg. The returned cleanup releases engine clients and is never nil.
func NewProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	mode, err := extract.ParseNameFallbackMode(cfg.Extract.NameFallback)
	if err != nil {
		return nil, noop, err
	}

	ocrCfg := OCRConfig(cfg.OCR)
	recognizer, cleanup, err := NewRecognizer(ctx, cfg.OCR.Engine, ocrCfg, logger)
	if err != nil {
		return nil, noop, err
	}

	text := ocr.NewExtractor(ocrCfg, recognizer, nil, logger)
	rules := extract.NewRules(mode)
	logger.Info("processor configured",
		"engine", cfg.OCR.Engine,
		"lang", ocrCfg.TesseractLang,
		"psm", ocrCfg.PSM,
		"name_fallback", mode.String(),
		"workers", cfg.Batch.Workers,
	)
	return pipeline.NewProcessor(text, rules, cfg.Batch.Workers, logger), cleanup, nil
}

// OCRConfig maps the application config onto the OCR package config.
func OCRConfig(c common.OCRConfig) ocr.Config {
	return ocr.Config{
		Tesseract:     c.Tesseract,
		TesseractLang: c.TesseractLang,
		TessdataDir:   c.TessdataDir,
		PSM:           c.PSM,
		OEM:           c.OEM,
		MinWidth:      c.MinWidth,
		EnableHEIC:    c.EnableHEIC,
	}
}

// NewRecognizer returns the OCR engine named by engine.
func NewRecognizer(ctx context.Context, engine string, cfg ocr.Config, logger *slog.Logger) (ocr.Recognizer, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch engine {
	case "", common.EngineTesseract:
		return ocr.NewTesseract(cfg, logger), func() {}, nil
	case common.EngineVision:
		v, err := ocr.NewVision(ctx, ocr.DefaultVisionHints, logger)
		if err != nil {
			return nil, func() {}, fmt.Errorf("vision client: %w", err)
		}
		return v, func() {
			if err := v.Close(); err != nil {
				logger.Warn("failed to close vision client", "error", err)
			}
		}, nil
	default:
		return nil, func() {}, common.InvalidInput(common.CodeConfig, fmt.Sprintf("unknown OCR engine %q", engine), nil)
	}
}
