package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/expense-ocr/constants"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng+chi_sim"
	TessdataDir   string

	PSM int // 6 = assume a uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	MinWidth   int  // images narrower than this are upscaled, default 1200
	EnableHEIC bool // route .heic/.heif to OCR
}

func (c Config) withDefaults() Config {
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "eng+chi_sim"
	}
	if c.PSM <= 0 {
		c.PSM = 6
	}
	if c.MinWidth <= 0 {
		c.MinWidth = DefaultMinWidth
	}
	return c
}

// Recognizer turns a normalized page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Extractor acquires the text of one document: text layer for PDFs, OCR for images.
type Extractor struct {
	cfg        Config
	normalizer *Normalizer
	recognizer Recognizer
	pages      PageReader
	logger     *slog.Logger
}

func NewExtractor(cfg Config, recognizer Recognizer, pages PageReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if pages == nil {
		pages = FitzPageReader{}
	}
	cfg = cfg.withDefaults()
	return &Extractor{
		cfg:        cfg,
		normalizer: NewNormalizer(cfg.MinWidth, cfg.EnableHEIC),
		recognizer: recognizer,
		pages:      pages,
		logger:     logger,
	}
}

// Extract picks a strategy based on the document's file extension.
// Unsupported types yield empty text and no error.
func (e *Extractor) Extract(ctx context.Context, doc extract.Document) (extract.TextExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(doc.Name))
	format := constants.MapExtToFormat(ext)
	if format == constants.UNSUPPORTED && e.cfg.EnableHEIC && constants.IsHEICExt(ext) {
		format = constants.IMAGE
	}
	e.logger.Debug("starting text extraction", "file", doc.Name, "ext", ext, "format", format, "bytes", len(doc.Data))

	var (
		res extract.TextExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(doc)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, doc, ext)
	default:
		e.logger.Warn("unsupported document type", "file", doc.Name, "ext", ext)
		res = extract.TextExtractionResult{SourceType: constants.UNSUPPORTED, Method: "none"}
	}
	res.Duration = time.Since(start)
	return res, err
}

func (e *Extractor) extractPDF(doc extract.Document) (extract.TextExtractionResult, error) {
	res := extract.TextExtractionResult{SourceType: constants.PDF, Method: "pdf-text"}
	pages, err := e.pages.Pages(doc.Data)
	if err != nil {
		return res, err
	}
	res.Pages = len(pages)
	res.Text = strings.Join(pages, "\n")
	return res, nil
}

func (e *Extractor) extractImage(ctx context.Context, doc extract.Document, ext string) (extract.TextExtractionResult, error) {
	res := extract.TextExtractionResult{SourceType: constants.IMAGE, Method: "image-ocr", Language: e.cfg.TesseractLang}
	if e.recognizer == nil {
		return res, fmt.Errorf("no OCR recognizer configured")
	}
	img, err := e.normalizer.Decode(doc.Data, ext)
	if err != nil {
		return res, err
	}
	txt, err := e.recognizer.Recognize(ctx, e.normalizer.Normalize(img))
	if err != nil {
		return res, err
	}
	res.Pages = 1
	res.Text = txt
	return res, nil
}
