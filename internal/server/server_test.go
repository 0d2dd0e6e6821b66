package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/expense-ocr/constants"
	"github.com/joseph-ayodele/expense-ocr/internal/common"
	"github.com/joseph-ayodele/expense-ocr/internal/export"
	"github.com/joseph-ayodele/expense-ocr/internal/extract"
	"github.com/joseph-ayodele/expense-ocr/internal/pipeline"
	"github.com/joseph-ayodele/expense-ocr/internal/server"
)

type stubBatcher struct {
	docs    []extract.Document
	batchID string
}

func (s *stubBatcher) ProcessBatch(ctx context.Context, docs []extract.Document) pipeline.ResultSet {
	s.docs = docs
	s.batchID = common.RequestIDFromContext(ctx)
	out := make(pipeline.ResultSet, 0, len(docs))
	for _, d := range docs {
		out = append(out, pipeline.Result{
			Filename: d.Name,
			Fields:   extract.FieldResult{ReportNumber: "SHPC-" + strings.ToUpper(string(d.Data))},
			Status:   constants.StatusOK,
			Text:     "Expense Report: SHPC-" + string(d.Data),
		})
	}
	return out
}

type upload struct {
	name string
	body string
}

func multipartBody(field string, files ...upload) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(field, f.name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(f.body))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())
	return &buf, mw.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		batcher *stubBatcher
		cfg     common.ServerConfig
		handler http.Handler
		rec     *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		batcher = &stubBatcher{}
		cfg = common.ServerConfig{MaxUploadBytes: 1 << 20}
		rec = httptest.NewRecorder()
	})

	JustBeforeEach(func() {
		handler = server.NewServer(batcher, export.NewService(nil), cfg, export.Options{}, nil).Routes()
	})

	Describe("GET /health", func() {
		It("answers ok", func() {
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("ok"))
			_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("POST /api/extract", func() {
		It("processes the uploaded files in order", func() {
			body, ct := multipartBody(server.FormField, upload{"b.pdf", "b2"}, upload{"a.jpg", "a1"}, upload{"notes.docx", "x"})
			req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
			req.Header.Set("Content-Type", ct)
			handler.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(batcher.docs).To(HaveLen(3))
			Expect(batcher.docs[0].Name).To(Equal("b.pdf"))
			Expect(string(batcher.docs[1].Data)).To(Equal("a1"))

			var resp struct {
				BatchID string       `json:"batch_id"`
				Results []export.Row `json:"results"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.BatchID).To(Equal(batcher.batchID))
			Expect(resp.BatchID).To(Equal(rec.Header().Get("X-Request-ID")))
			Expect(resp.Results).To(HaveLen(3))
			Expect(resp.Results[0].File).To(Equal("b.pdf"))
			Expect(resp.Results[0].ReportNumber).To(Equal("SHPC-B2"))
			Expect(resp.Results[0].Text).To(Equal("Expense Report: SHPC-b2"))
		})

		It("reuses a caller supplied request id", func() {
			id := uuid.NewString()
			body, ct := multipartBody(server.FormField, upload{"a.pdf", "a"})
			req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
			req.Header.Set("Content-Type", ct)
			req.Header.Set("X-Request-ID", id)
			handler.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(batcher.batchID).To(Equal(id))
		})

		It("rejects a form without files", func() {
			body, ct := multipartBody("document", upload{"a.pdf", "a"})
			req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
			req.Header.Set("Content-Type", ct)
			handler.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring(`no \"files\" parts`))
			Expect(batcher.docs).To(BeNil())
		})

		It("rejects non-multipart bodies", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(`{"files":[]}`))
			req.Header.Set("Content-Type", "application/json")
			handler.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		When("the upload exceeds the limit", func() {
			BeforeEach(func() {
				cfg.MaxUploadBytes = 1024
			})

			It("answers 413", func() {
				body, ct := multipartBody(server.FormField, upload{"big.pdf", strings.Repeat("x", 8<<10)})
				req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
				req.Header.Set("Content-Type", ct)
				handler.ServeHTTP(rec, req)

				Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
				Expect(batcher.docs).To(BeNil())
			})
		})
	})

	Describe("POST /api/export", func() {
		It("returns the workbook as an attachment", func() {
			body, ct := multipartBody(server.FormField, upload{"a.pdf", "e1"}, upload{"b.png", "e2"})
			req := httptest.NewRequest(http.MethodPost, "/api/export?status_sheet=true", body)
			req.Header.Set("Content-Type", ct)
			handler.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal(export.ContentTypeXLSX))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring(`filename="Expense_OCR_All.xlsx"`))

			rows, err := export.ReadXLSX(rec.Body.Bytes())
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([]extract.FieldResult{{ReportNumber: "SHPC-E1"}, {ReportNumber: "SHPC-E2"}}))
		})

		It("rejects a malformed status_sheet flag", func() {
			body, ct := multipartBody(server.FormField, upload{"a.pdf", "e1"})
			req := httptest.NewRequest(http.MethodPost, "/api/export?status_sheet=maybe", body)
			req.Header.Set("Content-Type", ct)
			handler.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	It("does not route unknown methods", func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extract", nil))
		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
	})
})
