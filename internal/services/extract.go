package services

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/scholarstack/paperrag/internal/rag"
)

// isPDF sniffs the PDF magic bytes. Content-type headers lie; the file
// header does not.
func isPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// ExtractText validates the PDF, counts its pages and extracts its plain
// text. Failures wrap rag.ErrExtraction.
func ExtractText(data []byte) (string, int, error) {
	if !isPDF(data) {
		return "", 0, fmt.Errorf("%w: missing %%PDF header", rag.ErrExtraction)
	}

	// A relaxed pdfcpu pass catches truncated or corrupt files before the
	// text extractor sees them, and yields the page count as a side effect.
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pageCount, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return "", 0, fmt.Errorf("%w: pdf validation: %v", rag.ErrExtraction, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: pdf reader: %v", rag.ErrExtraction, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("%w: plain text: %v", rag.ErrExtraction, err)
	}
	textBytes, err := io.ReadAll(plain)
	if err != nil {
		return "", 0, fmt.Errorf("%w: reading extracted text: %v", rag.ErrExtraction, err)
	}

	return strings.TrimSpace(string(textBytes)), pageCount, nil
}
