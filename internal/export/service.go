package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/expense-ocr/internal/extract"
	"github.com/joseph-ayodele/expense-ocr/internal/pipeline"
)

const (
	SheetName       = "Expense OCR"
	StatusSheetName = "Status"
	DefaultFilename = "Expense_OCR_All.xlsx"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// DebugTextLimit is how many characters of each document's text the debug view keeps.
	DebugTextLimit = 2000
)

// Headers are the output columns, in order.
var Headers = []string{"Expense Report Number", "QC name", "Amount"}

var statusHeaders = []string{"File", "Status", "Error"}

// textFormat is the built-in "@" number format, so cells stay text when edited.
const textFormat = 49

type Options struct {
	IncludeStatusSheet bool
	IncludeText        bool
}

// Service renders a ResultSet into export formats.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns a workbook with one row per result, in order. Every cell is a string.
func (s *Service) ExportXLSX(ctx context.Context, results pipeline.ResultSet, opts Options) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Fields.ReportNumber, r.Fields.ReviewerName, r.Fields.Amount})
	}
	if err := writeSheet(f, SheetName, Headers, rows); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(SheetName, "A", "A", 24) // report number
	_ = f.SetColWidth(SheetName, "B", "B", 22) // name
	_ = f.SetColWidth(SheetName, "C", "C", 14) // amount

	if opts.IncludeStatusSheet {
		if _, err := f.NewSheet(StatusSheetName); err != nil {
			return nil, err
		}
		rows = rows[:0]
		for _, r := range results {
			rows = append(rows, []string{r.Filename, string(r.Status), r.Error})
		}
		if err := writeSheet(f, StatusSheetName, statusHeaders, rows); err != nil {
			return nil, err
		}
		_ = f.SetColWidth(StatusSheetName, "A", "A", 40) // file
		_ = f.SetColWidth(StatusSheetName, "B", "B", 18) // status
		_ = f.SetColWidth(StatusSheetName, "C", "C", 60) // error
	}

	idx, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"status_sheet", opts.IncludeStatusSheet,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// writeSheet writes a header row plus string rows and tags every cell with the text
// format so rows of empty strings are kept in the file.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellStr(sheet, cell, v)
	}

	for i, h := range headers {
		if err := write(i+1, 1, h); err != nil {
			return err
		}
	}
	for r, values := range rows {
		for c, v := range values {
			if err := write(c+1, r+2, v); err != nil {
				return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
			}
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: textFormat})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), len(rows)+1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// ReadXLSX reads the main sheet of an exported workbook back into field results.
func ReadXLSX(data []byte) ([]extract.FieldResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xlsx open: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.Rows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet %q: %w", SheetName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []extract.FieldResult
	header := true
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		for len(cols) < len(Headers) {
			cols = append(cols, "")
		}
		if header {
			for i, h := range Headers {
				if cols[i] != h {
					return nil, fmt.Errorf("xlsx header column %d: got %q, want %q", i+1, cols[i], h)
				}
			}
			header = false
			continue
		}
		out = append(out, extract.FieldResult{ReportNumber: cols[0], ReviewerName: cols[1], Amount: cols[2]})
	}
	if header {
		return nil, fmt.Errorf("xlsx sheet %q has no header row", SheetName)
	}
	return out, rows.Error()
}

// Row is the JSON form of one result.
type Row struct {
	File         string `json:"file"`
	ReportNumber string `json:"report_number"`
	ReviewerName string `json:"qc_name"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	Text         string `json:"text,omitempty"`
}

// Rows converts results to their JSON rows; text is included only with opts.IncludeText.
func Rows(results pipeline.ResultSet, opts Options) []Row {
	out := make([]Row, 0, len(results))
	for _, r := range results {
		row := Row{
			File:         r.Filename,
			ReportNumber: r.Fields.ReportNumber,
			ReviewerName: r.Fields.ReviewerName,
			Amount:       r.Fields.Amount,
			Status:       string(r.Status),
			Error:        r.Error,
		}
		if opts.IncludeText {
			row.Text = DebugText(r.Text)
		}
		out = append(out, row)
	}
	return out
}

// ExportJSON renders results as an indented JSON array.
func (s *Service) ExportJSON(results pipeline.ResultSet, opts Options) ([]byte, error) {
	b, err := json.MarshalIndent(Rows(results, opts), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	s.logger.Debug("export.json.ok", "rows", len(results))
	return b, nil
}

// DebugText keeps the first DebugTextLimit characters of text, marking the cut with "\n...\n".
func DebugText(text string) string {
	if utf8.RuneCountInString(text) <= DebugTextLimit {
		return text
	}
	n := 0
	for i := range text {
		if n == DebugTextLimit {
			return text[:i] + "\n...\n"
		}
		n++
	}
	return text
}
