package processing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/coreybb/bookforge/ebook"
	"github.com/coreybb/bookforge/models"
	"github.com/coreybb/bookforge/webutil"
)

// ExportProcessor runs the export pipeline: fetch, normalize, render into a sink.
type ExportProcessor struct {
	fetcher    *ContentFetcher
	normalizer *ebook.Normalizer
	theme      ebook.Theme
}

func NewExportProcessor(fetcher *ContentFetcher, normalizer *ebook.Normalizer, theme ebook.Theme) *ExportProcessor {
	return &ExportProcessor{
		fetcher:    fetcher,
		normalizer: normalizer,
		theme:      theme,
	}
}

// Export renders the requested book into sink. Errors returned while
// sink.Started() is false left nothing behind in the sink.
func (ep *ExportProcessor) Export(ctx context.Context, req models.ExportRequest, sink Sink) error {
	renderer, err := ebook.NewRenderer(req.Format, ep.theme)
	if err != nil {
		return err
	}

	book, err := ep.fetcher.Fetch(ctx, req.BookID, req.RequesterID)
	if err != nil {
		return err
	}

	doc := ep.normalizer.Normalize(book)
	filename := webutil.SanitizeFilename(book.Title) + "." + string(req.Format)
	sink.Prepare(filename, renderer.ContentType())

	startTime := time.Now()
	if err := renderer.Render(ctx, doc, sink); err != nil {
		return fmt.Errorf("failed to export book %s as %s: %w", book.ID, req.Format, err)
	}
	log.Printf("INFO (ExportProcessor): Exported book %s as %s (%d chapters) in %v",
		book.ID, req.Format, len(doc.Chapters), time.Since(startTime))
	return nil
}
