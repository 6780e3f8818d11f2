package ebook

import (
	"strconv"
	"strings"
)

// Color is an sRGB color.
type Color struct {
	R, G, B int
}

// HexColor parses "#RRGGBB" (the leading '#' is optional). Invalid input yields black.
func HexColor(s string) Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}
	}
	return Color{R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}
}

// FontSpec describes a PDF core font. Style is "", "B", "I" or "BI".
type FontSpec struct {
	Family string
	Style  string
	Size   float64 // points
	Color  Color
}

// DOCXStyle holds Word styling. Sizes are half-points and spacing is twentieths of a point,
// the native OOXML units.
type DOCXStyle struct {
	FontFamily string

	TitleSize    int
	SubtitleSize int
	AuthorSize   int
	HeadingSize  int
	BodySize     int

	TitleSpacingAfter    int
	SubtitleSpacingAfter int
	AuthorSpacingAfter   int
	HeadingSpacingBefore int
	HeadingSpacingAfter  int
	BodySpacingAfter     int

	// Cover image box in pixels; the image is stretched to this box.
	CoverWidth  int
	CoverHeight int
}

// PDFStyle holds PDF layout settings in points.
type PDFStyle struct {
	PageSize string
	Margin   float64

	// The cover is scaled to fit inside this box, keeping its aspect ratio.
	CoverMaxWidth  float64
	CoverMaxHeight float64

	Title    FontSpec
	Subtitle FontSpec
	Author   FontSpec
	Heading  FontSpec
	Body     FontSpec
	DropCap  FontSpec

	DividerStartX float64
	DividerEndX   float64
	DividerColor  Color
	DividerWidth  float64

	BodyIndent   float64
	ParagraphGap float64

	// LineHeight is the multiple of the font size used for one line of text.
	LineHeight float64

	// Vertical spacing, in lines of the current font.
	SpaceAfterTitle     float64
	SpaceAfterSubtitle  float64
	SpaceBeforeHeading  float64
	SpaceAfterHeading   float64
	SpaceAfterDivider   float64
	SpaceAfterParagraph float64
	SpaceForBlankLine   float64
}

// Theme is the complete, fixed visual template for both output formats.
type Theme struct {
	DOCX DOCXStyle
	PDF  PDFStyle
}

// DefaultTheme returns the house style used for every export.
func DefaultTheme() Theme {
	return Theme{
		DOCX: DOCXStyle{
			FontFamily: "Calibri",

			TitleSize:    72,
			SubtitleSize: 32,
			AuthorSize:   30,
			HeadingSize:  40,
			BodySize:     26,

			TitleSpacingAfter:    400,
			SubtitleSpacingAfter: 200,
			AuthorSpacingAfter:   400,
			HeadingSpacingBefore: 400,
			HeadingSpacingAfter:  200,
			BodySpacingAfter:     200,

			CoverWidth:  500,
			CoverHeight: 700,
		},
		PDF: PDFStyle{
			PageSize: "A4",
			Margin:   60,

			CoverMaxWidth:  450,
			CoverMaxHeight: 650,

			Title:    FontSpec{Family: "Times", Style: "B", Size: 48, Color: HexColor("#4C1D95")},
			Subtitle: FontSpec{Family: "Times", Style: "I", Size: 22, Color: HexColor("#6D28D9")},
			Author:   FontSpec{Family: "Times", Style: "", Size: 20, Color: HexColor("#1E1E1E")},
			Heading:  FontSpec{Family: "Times", Style: "B", Size: 28, Color: HexColor("#4C1D95")},
			Body:     FontSpec{Family: "Times", Style: "", Size: 14, Color: HexColor("#1F2937")},
			DropCap:  FontSpec{Family: "Times", Style: "B", Size: 26, Color: HexColor("#1F2937")},

			DividerStartX: 100,
			DividerEndX:   495,
			DividerColor:  HexColor("#C4B5FD"),
			DividerWidth:  1.2,

			BodyIndent:   20,
			ParagraphGap: 10,
			LineHeight:   1.2,

			SpaceAfterTitle:     1,
			SpaceAfterSubtitle:  1,
			SpaceBeforeHeading:  1.5,
			SpaceAfterHeading:   0.5,
			SpaceAfterDivider:   1.5,
			SpaceAfterParagraph: 0.6,
			SpaceForBlankLine:   0.7,
		},
	}
}
