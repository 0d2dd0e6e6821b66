package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/expense-ocr/constants"
)

// Document is one uploaded file: raw bytes plus the name whose suffix decides dispatch.
type Document struct {
	Name string
	Data []byte
}

// Format returns the dispatch tag for the document's suffix.
func (d Document) Format() constants.Format {
	return constants.FormatFromName(d.Name)
}

// TextExtractor is Stage 1: document -> text.
type TextExtractor interface {
	Extract(ctx context.Context, doc Document) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType constants.Format
	Method     string // "pdf-text" | "image-ocr" | "none"
	Language   string
	Duration   time.Duration
}

// FieldExtractor is Stage 2: text -> fields. Implementations must be pure.
type FieldExtractor interface {
	ExtractFields(text string) FieldResult
}

// FieldResult holds the three extracted values; "" means not found.
type FieldResult struct {
	ReportNumber string `json:"report_number"`
	ReviewerName string `json:"qc_name"`
	Amount       string `json:"amount"`
}

// Empty reports whether no field was found.
func (f FieldResult) Empty() bool {
	return f.ReportNumber == "" && f.ReviewerName == "" && f.Amount == ""
}
