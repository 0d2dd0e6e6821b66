package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/export"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
	"github.com/joseph-ayodele/expense-ocr/internal/pipeline"
)

// FormField is the repeatable multipart field carrying the documents.
const FormField = "files"

// multipart parts above this stay on disk while parsing
const maxMemory = 32 << 20

type extractResponse struct {
	BatchID string       `json:"batch_id"`
	Results []export.Row `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	results, ok := s.runBatch(w, r)
	if !ok {
		return
	}
	opts := s.export
	opts.IncludeText = true
	writeJSON(w, http.StatusOK, extractResponse{
		BatchID: common.RequestIDFromContext(r.Context()),
		Results: export.Rows(results, opts),
	})
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	results, ok := s.runBatch(w, r)
	if !ok {
		return
	}
	opts := s.export
	if v := r.URL.Query().Get("status_sheet"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, common.InvalidInput(common.CodeInvalidInput, "status_sheet must be a boolean", err))
			return
		}
		opts.IncludeStatusSheet = b
	}
	data, err := s.exporter.ExportXLSX(r.Context(), results, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFilename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// runBatch reads the uploaded documents and processes them; on failure it has
// already written the error response.
func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) (pipeline.ResultSet, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	docs, err := readUploads(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return s.batcher.ProcessBatch(r.Context(), docs), true
}

// readUploads returns the documents of the "files" field in request order.
func readUploads(r *http.Request) ([]extract.Document, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, common.InvalidInput(common.CodeInvalidInput, "expected a multipart form", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[FormField]
	if len(headers) == 0 {
		return nil, common.InvalidInput(common.CodeInvalidInput, fmt.Sprintf("no %q parts in form", FormField), nil)
	}
	docs := make([]extract.Document, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		docs = append(docs, extract.Document{Name: fh.Filename, Data: data})
	}
	return docs, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("http.request.failed", "path", r.URL.Path, "request_id", common.RequestIDFromContext(r.Context()), "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
