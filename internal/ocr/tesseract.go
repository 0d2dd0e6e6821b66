package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strconv"
	"strings"
)

// Tesseract recognizes text by piping a PNG into the tesseract CLI.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	return NewTesseractWithRunner(cfg, ExecRunner{Logger: logger}, logger)
}

func NewTesseractWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// Recognize runs: tesseract stdin stdout -l <lang> --psm <psm> [--oem N] [--tessdata-dir D].
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}

	out, errb, err := t.runner.Run(ctx, Command{Name: t.cfg.Tesseract, Args: t.args(), Stdin: buf.Bytes()})
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(tail(string(errb), 1<<10)))
	}
	t.logger.Debug("tesseract ok", "lang", t.cfg.TesseractLang, "psm", t.cfg.PSM, "chars_out", len(out))
	return string(out), nil
}

func (t *Tesseract) args() []string {
	args := []string{"stdin", "stdout", "-l", t.cfg.TesseractLang, "--psm", strconv.Itoa(t.cfg.PSM)}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}
