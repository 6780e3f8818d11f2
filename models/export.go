package models

import "strings"

// ExportFormat defines the set of allowed output formats for a book export.
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatDOCX ExportFormat = "docx"
)

// ExportRequest is ephemeral; it is never persisted.
type ExportRequest struct {
	BookID      string
	RequesterID string
	Format      ExportFormat
}

// IsValidExportFormat checks if the provided format string is a valid ExportFormat.
// It returns the typed ExportFormat and true if valid, otherwise an empty ExportFormat and false.
func IsValidExportFormat(formatStr string) (ExportFormat, bool) {
	ef := ExportFormat(strings.ToLower(formatStr))
	switch ef {
	case ExportFormatPDF, ExportFormatDOCX:
		return ef, true
	default:
		return "", false
	}
}
