package ebook

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/coreybb/bookforge/models"
)

// Paragraph style IDs defined in the generated word/styles.xml.
const (
	styleTitle    = "BookTitle"
	styleSubtitle = "BookSubtitle"
	styleAuthor   = "BookAuthor"
	styleHeading  = "Heading1"
	styleBody     = "Normal"

	emuPerPixel = 9525

	// A4 in twips with one inch margins.
	a4Width, a4Height = 11906, 16838
	pageMargin        = 1440
)

// DOCXRenderer writes a Document as an Office Open XML word-processing package.
type DOCXRenderer struct {
	style DOCXStyle
}

func NewDOCXRenderer(style DOCXStyle) *DOCXRenderer {
	return &DOCXRenderer{style: style}
}

func (r *DOCXRenderer) Format() models.ExportFormat { return models.ExportFormatDOCX }

func (r *DOCXRenderer) ContentType() string { return ContentTypeDOCX }

// Render builds the whole document in memory, then streams the zip container to w.
func (r *DOCXRenderer) Render(ctx context.Context, doc *Document, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := r.build(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write docx package: %w", err)
	}
	return nil
}

// build lays out the cover, the title page and one page-started section per chapter.
func (r *DOCXRenderer) build(doc *Document) (*docx.Docx, error) {
	s := r.style
	file := docx.New().UseTemplate("default", docx.DefaultTemplateFilesList, &packageTemplate{
		base: docx.TemplateXMLFS,
		parts: map[string][]byte{
			"xml/default/word/styles.xml":   []byte(stylesXML(s)),
			"xml/default/docProps/core.xml": []byte(corePropsXML(doc)),
		},
	})

	newPage := false
	if doc.Cover != nil {
		para := file.AddParagraph().Justification("center")
		run, err := para.AddInlineDrawing(doc.Cover.Data)
		if err != nil {
			return nil, fmt.Errorf("embed cover image: %w", err)
		}
		if d, ok := run.Children[0].(*docx.Drawing); ok && d.Inline != nil {
			d.Inline.Size(int64(s.CoverWidth*emuPerPixel), int64(s.CoverHeight*emuPerPixel))
		}
		newPage = true
	}

	title := file.AddParagraph().Style(styleTitle)
	if newPage {
		title.AddPageBreaks()
	}
	r.text(title, doc.Title.Title, s.TitleSize).Bold()
	if doc.Title.Subtitle != "" {
		r.text(file.AddParagraph().Style(styleSubtitle), doc.Title.Subtitle, s.SubtitleSize).Italic()
	}
	r.text(file.AddParagraph().Style(styleAuthor), "By "+doc.Title.Author, s.AuthorSize).Bold()

	for _, ch := range doc.Chapters {
		heading := file.AddParagraph().Style(styleHeading)
		heading.AddPageBreaks()
		r.text(heading, ch.Heading, s.HeadingSize).Bold()
		for _, p := range ch.Paragraphs {
			para := file.AddParagraph().Style(styleBody)
			if !p.IsSpacing() {
				r.text(para, p.Text, s.BodySize)
			}
		}
	}

	file.Document.Body.Items = append(file.Document.Body.Items, &docx.SectPr{
		PgSz: &docx.PgSz{W: a4Width, H: a4Height},
		PgMar: &docx.PgMar{
			Top: pageMargin, Right: pageMargin, Bottom: pageMargin, Left: pageMargin,
			Header: 708, Footer: 708,
		},
	})
	return file, nil
}

func (r *DOCXRenderer) text(p *docx.Paragraph, text string, size int) *docx.Run {
	sz := strconv.Itoa(size)
	run := p.AddText(text).Size(sz).SizeCs(sz).Font(r.style.FontFamily, "", r.style.FontFamily, "")
	for _, c := range run.Children {
		if t, ok := c.(*docx.Text); ok && strings.TrimSpace(t.Text) != t.Text {
			t.XMLSpace = "preserve"
		}
	}
	return run
}

// packageTemplate serves generated parts over the library's embedded template.
type packageTemplate struct {
	base  fs.FS
	parts map[string][]byte
}

func (t *packageTemplate) Open(name string) (fs.File, error) {
	if data, ok := t.parts[name]; ok {
		return &partFile{Reader: bytes.NewReader(data), name: name}, nil
	}
	return t.base.Open(name)
}

type partFile struct {
	*bytes.Reader
	name string
}

func (f *partFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *partFile) Close() error               { return nil }
func (f *partFile) Name() string               { return f.name[strings.LastIndex(f.name, "/")+1:] }
func (f *partFile) Mode() fs.FileMode          { return 0o444 }
func (f *partFile) ModTime() time.Time         { return time.Time{} }
func (f *partFile) IsDir() bool                { return false }
func (f *partFile) Sys() any                   { return nil }

func corePropsXML(doc *Document) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	b.WriteString(`<dc:title>` + escapeXML(doc.Title.Title) + `</dc:title>`)
	b.WriteString(`<dc:creator>` + escapeXML(doc.Title.Author) + `</dc:creator>`)
	if !doc.Modified.IsZero() {
		ts := doc.Modified.UTC().Format(time.RFC3339)
		b.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>`)
		b.WriteString(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>`)
	}
	b.WriteString(`</cp:coreProperties>`)
	return b.String()
}

// stylesXML carries the paragraph spacing and alignment of the title page,
// headings and body text.
func stylesXML(s DOCXStyle) string {
	font := escapeXML(s.FontFamily)
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:styles xmlns:w="` + docx.XMLNS_W + `">`)
	b.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr>`)
	b.WriteString(`<w:rFonts w:ascii="` + font + `" w:hAnsi="` + font + `" w:cs="` + font + `"/>`)
	fmt.Fprintf(&b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, s.BodySize, s.BodySize)
	b.WriteString(`</w:rPr></w:rPrDefault></w:docDefaults>`)

	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:default="1" w:styleId="%s"><w:name w:val="Normal"/><w:qFormat/>`+
		`<w:pPr><w:spacing w:after="%d"/></w:pPr></w:style>`, styleBody, s.BodySpacingAfter)
	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="heading 1"/>`+
		`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:uiPriority w:val="9"/><w:qFormat/>`+
		`<w:pPr><w:keepNext/><w:spacing w:before="%d" w:after="%d"/><w:outlineLvl w:val="0"/></w:pPr>`+
		`<w:rPr><w:b/><w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr></w:style>`,
		styleHeading, s.HeadingSpacingBefore, s.HeadingSpacingAfter, s.HeadingSize, s.HeadingSize)
	for _, st := range []struct {
		id, name string
		after    int
	}{
		{styleTitle, "Book Title", s.TitleSpacingAfter},
		{styleSubtitle, "Book Subtitle", s.SubtitleSpacingAfter},
		{styleAuthor, "Book Author", s.AuthorSpacingAfter},
	} {
		fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="%s"/><w:basedOn w:val="Normal"/>`+
			`<w:pPr><w:spacing w:after="%d"/><w:jc w:val="center"/></w:pPr></w:style>`, st.id, st.name, st.after)
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
