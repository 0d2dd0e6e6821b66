package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/expense-ocr/constants"
	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
)

// Result is one row of a batch: the extracted fields plus how the document fared.
type Result struct {
	Filename string              `json:"filename"`
	Fields   extract.FieldResult `json:"fields"`
	Status   constants.DocStatus `json:"status"`
	Error    string              `json:"error,omitempty"`
	Text     string              `json:"text,omitempty"`
	Source   constants.Format    `json:"source_type"`
}

// ResultSet holds one Result per input document, in input order.
type ResultSet []Result

// Counts tallies results by status.
func (rs ResultSet) Counts() map[constants.DocStatus]int {
	out := make(map[constants.DocStatus]int, 4)
	for _, r := range rs {
		out[r.Status]++
	}
	return out
}

// Processor coordinates text acquisition then field extraction.
type Processor struct {
	logger  *slog.Logger
	text    extract.TextExtractor
	fields  extract.FieldExtractor
	workers int
}

func NewProcessor(text extract.TextExtractor, fields extract.FieldExtractor, workers int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &Processor{logger: logger, text: text, fields: fields, workers: workers}
}

// ProcessDocument runs both stages for one document. Failures are recorded in the
// returned Result, never returned.
func (p *Processor) ProcessDocument(ctx context.Context, doc extract.Document) Result {
	out := Result{Filename: doc.Name, Source: doc.Format()}
	if err := ctx.Err(); err != nil {
		out.Status = constants.StatusFailed
		out.Error = err.Error()
		return out
	}

	res, err := p.text.Extract(common.WithFilename(ctx, doc.Name), doc)
	if err == nil {
		out.Source = res.SourceType
		if res.SourceType == constants.UNSUPPORTED {
			err = common.ErrUnsupportedType
		}
	}
	if err != nil {
		out.Status = common.DocStatusOf(err)
		out.Error = err.Error()
		switch out.Status {
		case constants.StatusFailed:
			p.logger.Error("batch.document.failed", "file", doc.Name, "error", err)
		default:
			p.logger.Warn("batch.document.skipped", "file", doc.Name, "status", out.Status, "error", err)
		}
		return out
	}

	out.Text = res.Text
	out.Fields = p.fields.ExtractFields(res.Text)
	out.Status = constants.StatusOK
	p.logger.Debug("batch.document.ok",
		"file", doc.Name,
		"method", res.Method,
		"pages", res.Pages,
		"duration", res.Duration,
		"report_number", out.Fields.ReportNumber,
	)
	return out
}
