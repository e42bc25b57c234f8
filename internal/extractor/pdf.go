package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"pdfqa/internal/domain"
)

// PDFExtractor reads plain text from every page of a PDF.
type PDFExtractor struct {
	logger *zap.Logger
}

func NewPDFExtractor(logger *zap.Logger) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFExtractor{logger: logger}
}

// Extract returns one page per non-blank PDF page, numbered from 1.
func (e *PDFExtractor) Extract(ctx context.Context, name string, data []byte) (pages []domain.Page, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: parse %s: %v", domain.ErrUpstream, name, r)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrUpstream, name)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrUpstream, name, err)
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("skipping unreadable page",
				zap.String("file", name), zap.Int("page", i), zap.Error(err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{Source: name, Number: i, Text: text})
	}
	e.logger.Debug("extracted pdf",
		zap.String("file", name), zap.Int("pages", numPages), zap.Int("text_pages", len(pages)))
	return pages, nil
}
