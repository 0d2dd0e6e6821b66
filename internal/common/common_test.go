package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/expense-ocr/constants"
)

var _ = Describe("Checks", func() {
	It("returns nil when every check passes", func() {
		err := new(Checks).
			NotBlank("A", "x").
			Positive("B", 1).
			OneOf("C", "miss", "miss", "empty").
			Err(CodeConfig)
		Expect(err).NotTo(HaveOccurred())
	})

	It("collects every failure into one error", func() {
		c := new(Checks).
			NotBlank("A", "  ").
			Positive("B", 0).
			OneOf("C", "sometimes", "miss", "empty")
		Expect(c.Fields()).To(HaveLen(3))

		err := c.Err(CodeConfig)
		Expect(err).To(MatchError(ErrInvalidInput))
		Expect(err.Error()).To(ContainSubstring("A="))
		Expect(err.Error()).To(ContainSubstring("must be one of: miss, empty"))

		var appErr *AppError
		Expect(errors.As(err, &appErr)).To(BeTrue())
		Expect(appErr.Code).To(Equal(CodeConfig))

		var fe FieldError
		Expect(errors.As(err, &fe)).To(BeTrue())
		Expect(fe.Key).To(Equal("A"))
	})
})

var _ = Describe("Config", func() {
	keys := []string{"OCR_ENGINE", "TESSERACT_LANG", "OCR_MIN_WIDTH", "NAME_FALLBACK", "BATCH_WORKERS", "MAX_UPLOAD_BYTES", "HTTP_READ_TIMEOUT", "OCR_ENABLE_HEIC"}

	BeforeEach(func() {
		for _, k := range keys {
			GinkgoT().Setenv(k, "")
		}
	})

	It("loads defaults that validate", func() {
		cfg := LoadConfig()
		Expect(cfg.OCR.Engine).To(Equal(EngineTesseract))
		Expect(cfg.OCR.TesseractLang).To(Equal("eng+chi_sim"))
		Expect(cfg.OCR.PSM).To(Equal(6))
		Expect(cfg.Extract.NameFallback).To(Equal(NameFallbackMiss))
		Expect(cfg.Batch.Workers).To(Equal(1))
		Expect(cfg.Server.MaxUploadBytes).To(Equal(DefaultMaxUploadBytes))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("reads overrides from the environment", func() {
		GinkgoT().Setenv("OCR_ENGINE", "Vision")
		GinkgoT().Setenv("BATCH_WORKERS", "4")
		GinkgoT().Setenv("HTTP_READ_TIMEOUT", "5s")
		GinkgoT().Setenv("OCR_ENABLE_HEIC", "true")

		cfg := LoadConfig()
		Expect(cfg.OCR.Engine).To(Equal(EngineVision))
		Expect(cfg.Batch.Workers).To(Equal(4))
		Expect(cfg.Server.ReadTimeout).To(Equal(5 * time.Second))
		Expect(cfg.OCR.EnableHEIC).To(BeTrue())
	})

	It("ignores unparseable numbers", func() {
		GinkgoT().Setenv("BATCH_WORKERS", "lots")
		Expect(LoadConfig().Batch.Workers).To(Equal(1))
	})

	It("rejects bad settings", func() {
		cfg := LoadConfig()
		cfg.OCR.Engine = "paddle"
		cfg.Batch.Workers = 0

		err := cfg.Validate()
		Expect(err).To(MatchError(ErrInvalidInput))
		Expect(err.Error()).To(ContainSubstring("OCR_ENGINE"))
		Expect(err.Error()).To(ContainSubstring("BATCH_WORKERS"))
	})
})

var _ = DescribeTable("DocStatusOf",
	func(err error, want constants.DocStatus) {
		Expect(DocStatusOf(err)).To(Equal(want))
	},
	Entry("success", nil, constants.StatusOK),
	Entry("decode", DecodeError("reading image", errors.New("bad header")), constants.StatusDecodeError),
	Entry("wrapped unsupported", fmt.Errorf("routing: %w", ErrUnsupportedType), constants.StatusUnsupportedType),
	Entry("engine failure", errors.New("tesseract exited 1"), constants.StatusFailed),
	Entry("cancelled", context.Canceled, constants.StatusFailed),
)

var _ = Describe("InvalidInput", func() {
	It("matches both the sentinel and the cause", func() {
		cause := errors.New("unexpected EOF")
		err := InvalidInput(CodeInvalidManifest, "manifest is not valid JSON", cause)
		Expect(err).To(MatchError(ErrInvalidInput))
		Expect(err).To(MatchError(cause))
		Expect(err.Error()).To(HavePrefix(CodeInvalidManifest + ": manifest is not valid JSON"))
	})

	It("works without a cause", func() {
		err := InvalidInput(CodeInvalidInput, "no files", nil)
		Expect(err).To(MatchError(ErrInvalidInput))
	})
})

var _ = Describe("context values", func() {
	It("round-trips request id and filename", func() {
		ctx := WithFilename(WithRequestID(context.Background(), "req-1"), "a.pdf")
		Expect(RequestIDFromContext(ctx)).To(Equal("req-1"))
		Expect(FilenameFromContext(ctx)).To(Equal("a.pdf"))
	})

	It("returns empty strings when unset", func() {
		Expect(RequestIDFromContext(context.Background())).To(BeEmpty())
		Expect(FilenameFromContext(context.Background())).To(BeEmpty())
	})
})
