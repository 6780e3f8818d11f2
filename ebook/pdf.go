package ebook

import (
	"context"
	"fmt"
	"io"

	"github.com/coreybb/bookforge/models"
)

// PDFRenderer lays a Document out on A4 pages.
type PDFRenderer struct {
	style    PDFStyle
	compress bool
}

func NewPDFRenderer(style PDFStyle) *PDFRenderer {
	return &PDFRenderer{style: style, compress: true}
}

func (r *PDFRenderer) Format() models.ExportFormat { return models.ExportFormatPDF }

func (r *PDFRenderer) ContentType() string { return ContentTypePDF }

// Render completes the layout in memory and only then writes to w, so a layout
// error never leaves partial output behind.
func (r *PDFRenderer) Render(ctx context.Context, doc *Document, w io.Writer) error {
	canvas, err := r.layout(ctx, doc)
	if err != nil {
		return err
	}
	if err := canvas.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func (r *PDFRenderer) layout(ctx context.Context, doc *Document) (*pdfCanvas, error) {
	s := r.style
	c := newPDFCanvas(s, r.compress)

	c.pdf.SetTitle(doc.Title.Title, true)
	c.pdf.SetAuthor(doc.Title.Author, true)
	c.pdf.SetCreator("bookforge", true)
	if !doc.Modified.IsZero() {
		c.pdf.SetCreationDate(doc.Modified.UTC())
	}

	c.pageBreak()

	if doc.Cover != nil {
		c.cover(doc.Cover.Data, doc.Cover.Format, doc.Cover.Width, doc.Cover.Height)
		c.pageBreak()
	}

	c.centeredText(doc.Title.Title, s.Title)
	c.moveDown(s.SpaceAfterTitle, s.Title)
	if doc.Title.Subtitle != "" {
		c.centeredText(doc.Title.Subtitle, s.Subtitle)
		c.moveDown(s.SpaceAfterSubtitle, s.Subtitle)
	}
	c.centeredText("By "+doc.Title.Author, s.Author)
	c.pageBreak()

	for i, ch := range doc.Chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.moveDown(s.SpaceBeforeHeading, s.Heading)
		c.centeredText(ch.Heading, s.Heading)
		c.moveDown(s.SpaceAfterHeading, s.Heading)
		c.divider()
		c.moveDown(s.SpaceAfterDivider, s.Body)
		for _, p := range ch.Paragraphs {
			c.paragraph(p)
		}
		if i < len(doc.Chapters)-1 {
			c.pageBreak()
		}
	}

	c.pdf.Close()
	if c.pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, c.pdf.Error())
	}
	return c, nil
}
