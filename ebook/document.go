package ebook

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/coreybb/bookforge/conversion"
	"github.com/coreybb/bookforge/models"
	"github.com/coreybb/bookforge/storage"
)

// ErrRenderFailure wraps any error raised while laying out or serializing a Document.
var ErrRenderFailure = errors.New("ebook: render failure")

// Document is the format-agnostic representation both renderers consume.
type Document struct {
	BookID   string
	Cover    *storage.Asset // nil when the book has no usable cover
	Title    TitleBlock
	Chapters []ChapterBlock
	Modified time.Time
}

type TitleBlock struct {
	Title    string
	Subtitle string // optional
	Author   string
}

type ChapterBlock struct {
	Heading    string
	Paragraphs []Paragraph
}

// Paragraph is one source line of chapter content.
type Paragraph struct {
	Text string
}

// IsSpacing reports whether the paragraph only contributes vertical space.
func (p Paragraph) IsSpacing() bool {
	return strings.TrimSpace(p.Text) == ""
}

// AssetSource resolves a stored image reference. Errors must wrap storage.ErrAssetUnavailable.
type AssetSource interface {
	Resolve(ref string) (*storage.Asset, error)
}

// Normalizer maps a Book aggregate onto a Document.
type Normalizer struct {
	assets AssetSource
}

func NewNormalizer(assets AssetSource) *Normalizer {
	return &Normalizer{assets: assets}
}

// Normalize never fails: an unusable cover is dropped and logged.
func (n *Normalizer) Normalize(book *models.Book) *Document {
	doc := &Document{
		BookID: book.ID,
		Title: TitleBlock{
			Title:    book.Title,
			Subtitle: strings.TrimSpace(book.Subtitle),
			Author:   book.Author,
		},
		Chapters: make([]ChapterBlock, 0, len(book.Chapters)),
		Modified: book.UpdatedAt,
	}

	if book.CoverImage != "" && n.assets != nil {
		asset, err := n.assets.Resolve(book.CoverImage)
		switch {
		case err == nil:
			doc.Cover = asset
		case errors.Is(err, storage.ErrAssetUnavailable):
			log.Printf("WARN (Normalizer): Omitting cover for book %s: %v", book.ID, err)
		default:
			log.Printf("WARN (Normalizer): Unexpected error resolving cover for book %s, omitting: %v", book.ID, err)
		}
	}

	for i, ch := range book.Chapters {
		doc.Chapters = append(doc.Chapters, n.chapterBlock(i, ch))
	}
	return doc
}

func (n *Normalizer) chapterBlock(index int, ch models.Chapter) ChapterBlock {
	heading := strings.TrimSpace(ch.Title)
	if heading == "" {
		heading = fmt.Sprintf("Chapter %d", index+1)
	}

	lines := conversion.ChapterText(ch.Content)
	paragraphs := make([]Paragraph, len(lines))
	for i, line := range lines {
		paragraphs[i] = Paragraph{Text: line}
	}
	return ChapterBlock{Heading: heading, Paragraphs: paragraphs}
}
