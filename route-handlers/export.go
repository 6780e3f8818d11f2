package routehandlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coreybb/bookforge/auth"
	"github.com/coreybb/bookforge/models"
	"github.com/coreybb/bookforge/processing"
	"github.com/coreybb/bookforge/webutil"
	"github.com/go-chi/chi/v5"
)

const (
	msgBookNotFound  = "Book not found."
	msgNotOwner      = "Unauthorized."
	msgInvalidBookID = "Invalid book ID."
	msgBadFormat     = "Unsupported export format. Use pdf or docx."
)

var exportFailureMessages = map[models.ExportFormat]string{
	models.ExportFormatPDF:  "Unable to export PDF.",
	models.ExportFormatDOCX: "Unable to export as Word.",
}

type ExportHandler struct {
	Processor *processing.ExportProcessor
}

func NewExportHandler(processor *processing.ExportProcessor) *ExportHandler {
	return &ExportHandler{Processor: processor}
}

// HandleExport streams a book as a file download in the format named by the
// "format" URL parameter.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) error {
	return h.export(w, r, chi.URLParam(r, "format"))
}

func (h *ExportHandler) export(w http.ResponseWriter, r *http.Request, rawFormat string) error {
	format, ok := models.IsValidExportFormat(rawFormat)
	if !ok {
		return webutil.ErrBadRequestWrap(msgBadFormat, fmt.Errorf("unknown format %q", rawFormat))
	}

	req := models.ExportRequest{
		BookID:      chi.URLParam(r, "id"),
		RequesterID: auth.RequesterID(r.Context()),
		Format:      format,
	}

	sink := webutil.NewResponseSink(w)
	err := h.Processor.Export(r.Context(), req, sink)
	if err == nil {
		return nil
	}

	if sink.Started() {
		log.Printf("ERROR (ExportHandler): Export of book %s as %s failed after %d bytes were sent: %v",
			req.BookID, format, sink.Written(), err)
		return fmt.Errorf("%w: %v", webutil.ErrResponseStarted, err)
	}

	switch {
	case errors.Is(err, processing.ErrInvalidIdentifier):
		return webutil.ErrBadRequestWrap(msgInvalidBookID, err)
	case errors.Is(err, processing.ErrNotFound):
		return webutil.ErrNotFoundWrap(msgBookNotFound, err)
	case errors.Is(err, processing.ErrForbidden):
		return webutil.ErrForbiddenWrap(msgNotOwner, err)
	default:
		return webutil.ErrInternalServerWrap(exportFailureMessages[format], err)
	}
}
