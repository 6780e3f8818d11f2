package ebook

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

// pdfCanvas tracks the cursor over a gofpdf document. Text overflowing a page is
// flowed onto the next one by gofpdf itself; explicit breaks come only from pageBreak.
type pdfCanvas struct {
	pdf   *gofpdf.Fpdf
	style PDFStyle
	tr    func(string) string

	currentY    float64
	currentPage int
}

func newPDFCanvas(style PDFStyle, compress bool) *pdfCanvas {
	pdf := gofpdf.New("P", "pt", style.PageSize, "")
	pdf.SetMargins(style.Margin, style.Margin, style.Margin)
	pdf.SetAutoPageBreak(true, style.Margin)
	pdf.SetCompression(compress)
	pdf.SetCatalogSort(true)
	return &pdfCanvas{
		pdf:   pdf,
		style: style,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *pdfCanvas) sync() {
	c.currentY = c.pdf.GetY()
	c.currentPage = c.pdf.PageNo()
}

// pageBreak starts a new page with the cursor at the top margin.
func (c *pdfCanvas) pageBreak() {
	c.pdf.AddPage()
	c.pdf.SetY(c.style.Margin)
	c.sync()
}

func (c *pdfCanvas) lineHeight(font FontSpec) float64 {
	return font.Size * c.style.LineHeight
}

// moveDown advances the cursor by a number of lines of the given font.
// Running past the bottom margin continues on a new page, as text would.
func (c *pdfCanvas) moveDown(lines float64, font FontSpec) {
	y := c.currentY + lines*c.lineHeight(font)
	_, pageHeight := c.pdf.GetPageSize()
	if y > pageHeight-c.style.Margin {
		c.pageBreak()
		return
	}
	c.pdf.SetY(y)
	c.sync()
}

func (c *pdfCanvas) setFont(font FontSpec) {
	c.pdf.SetFont(font.Family, font.Style, font.Size)
	c.pdf.SetTextColor(font.Color.R, font.Color.G, font.Color.B)
}

func (c *pdfCanvas) centeredText(text string, font FontSpec) {
	c.setFont(font)
	c.pdf.SetX(c.style.Margin)
	c.pdf.MultiCell(0, c.lineHeight(font), c.tr(text), "", "C", false)
	c.sync()
}

func (c *pdfCanvas) divider() {
	s := c.style
	c.pdf.SetDrawColor(s.DividerColor.R, s.DividerColor.G, s.DividerColor.B)
	c.pdf.SetLineWidth(s.DividerWidth)
	c.pdf.Line(s.DividerStartX, c.currentY, s.DividerEndX, c.currentY)
}

// paragraph draws the first character as a bold drop cap, then the rest of the
// line as justified body text hanging from it. Blank lines only add space.
func (c *pdfCanvas) paragraph(p Paragraph) {
	s := c.style
	if p.IsSpacing() {
		c.moveDown(s.SpaceForBlankLine, s.Body)
		return
	}

	text := strings.TrimLeft(p.Text, " \t")
	r, size := utf8.DecodeRuneInString(text)
	first, rest := c.tr(string(r)), c.tr(text[size:])
	lineH := c.lineHeight(s.Body)

	c.pdf.SetX(s.Margin + s.BodyIndent)
	c.setFont(s.DropCap)
	c.pdf.CellFormat(c.pdf.GetStringWidth(first)+1, lineH, first, "", 0, "L", false, 0, "")

	c.setFont(s.Body)
	if rest == "" {
		c.pdf.Ln(lineH)
	} else {
		c.pdf.MultiCell(0, lineH, rest, "", "J", false)
	}
	c.pdf.Ln(s.ParagraphGap)
	c.sync()
	c.moveDown(s.SpaceAfterParagraph, s.Body)
}

// cover draws the image scaled to fit the cover box and centered within it.
func (c *pdfCanvas) cover(data []byte, format string, widthPx, heightPx int) {
	s := c.style
	opts := gofpdf.ImageOptions{ImageType: format}
	c.pdf.RegisterImageOptionsReader("cover", opts, bytes.NewReader(data))

	w, h := fitBox(float64(widthPx), float64(heightPx), s.CoverMaxWidth, s.CoverMaxHeight)
	pageWidth, _ := c.pdf.GetPageSize()
	y := c.currentY + (s.CoverMaxHeight-h)/2
	c.pdf.ImageOptions("cover", (pageWidth-w)/2, y, w, h, false, opts, 0, "")
	c.pdf.SetY(y + h)
	c.sync()
}

// fitBox scales w x h to the largest size inside maxW x maxH keeping the aspect ratio.
func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if hs := maxH / h; hs < scale {
		scale = hs
	}
	return w * scale, h * scale
}
