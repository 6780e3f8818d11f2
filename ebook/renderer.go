package ebook

import (
	"context"
	"fmt"
	"io"

	"github.com/coreybb/bookforge/models"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Renderer serializes a Document into one output format.
//
// Implementations finish all layout work before the first Write, so an error
// returned without anything written to w is a clean pre-stream failure.
type Renderer interface {
	Format() models.ExportFormat
	ContentType() string
	Render(ctx context.Context, doc *Document, w io.Writer) error
}

// NewRenderer returns the renderer for the given format.
func NewRenderer(format models.ExportFormat, theme Theme) (Renderer, error) {
	switch format {
	case models.ExportFormatPDF:
		return NewPDFRenderer(theme.PDF), nil
	case models.ExportFormatDOCX:
		return NewDOCXRenderer(theme.DOCX), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}
