package ocr

import (
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/joseph-ayodele/expense-ocr/internal/common"
)

// PageReader returns the embedded text layer of each PDF page, "" for pages without one.
type PageReader interface {
	Pages(data []byte) ([]string, error)
}

// FitzPageReader reads text layers with MuPDF.
type FitzPageReader struct{}

func (FitzPageReader) Pages(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, common.DecodeError("opening PDF", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]string, 0, n)
	for i := 0; i < n; i++ {
		txt, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d text: %w", i+1, err)
		}
		pages = append(pages, txt)
	}
	return pages, nil
}
