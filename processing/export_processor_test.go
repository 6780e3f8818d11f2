package processing

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coreybb/bookforge/ebook"
	"github.com/coreybb/bookforge/models"
	"github.com/coreybb/bookforge/storage"
)

const (
	ownerID = "8d0e5b0e-4a4e-4d43-9d5d-0b7c2f1c9a11"
	otherID = "f4b2a3c1-2c3d-4e5f-8a9b-0c1d2e3f4a5b"
	bookID  = "2f6c1d8e-7b3a-4c5d-9e0f-1a2b3c4d5e6f"
)

type memoryStore struct {
	books map[string]*models.Book
	err   error
}

func (m *memoryStore) GetBookByID(_ context.Context, id string) (*models.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.books[id]
	if !ok {
		return nil, fmt.Errorf("book not found: %w", sql.ErrNoRows)
	}
	return b, nil
}

func testStore() *memoryStore {
	return &memoryStore{books: map[string]*models.Book{
		bookID: {
			ID:       bookID,
			UserID:   ownerID,
			Title:    "My Guide: Part 1!",
			Author:   "A. Writer",
			Chapters: []models.Chapter{{Title: "Intro", Content: "Hello\n\nWorld"}},
		},
	}}
}

func testProcessor(store BookStore) *ExportProcessor {
	normalizer := ebook.NewNormalizer(storage.NewAssetResolver("", ""))
	return NewExportProcessor(NewContentFetcher(store), normalizer, ebook.DefaultTheme())
}

func TestFetch(t *testing.T) {
	fetcher := NewContentFetcher(testStore())

	tests := []struct {
		name      string
		bookID    string
		requester string
		wantErr   error
	}{
		{"owner", bookID, ownerID, nil},
		{"upper case id", strings.ToUpper(bookID), ownerID, nil},
		{"urn id", "urn:uuid:" + bookID, ownerID, nil},
		{"braced id", "{" + bookID + "}", ownerID, nil},
		{"other user", bookID, otherID, ErrForbidden},
		{"anonymous", bookID, "", ErrForbidden},
		{"missing", "11111111-2222-3333-4444-555555555555", ownerID, ErrNotFound},
		{"malformed", "not-a-uuid", ownerID, ErrInvalidIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, err := fetcher.Fetch(context.Background(), tt.bookID, tt.requester)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if book.ID != bookID || len(book.Chapters) != 1 {
				t.Errorf("book = %+v", book)
			}
		})
	}
}

func TestFetchStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := NewContentFetcher(&memoryStore{err: boom}).Fetch(context.Background(), bookID, ownerID)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		t.Errorf("store failure misclassified: %v", err)
	}
}

func TestExport(t *testing.T) {
	tests := []struct {
		format     models.ExportFormat
		wantName   string
		wantType   string
		wantPrefix []byte
	}{
		{models.ExportFormatPDF, "My_Guide__Part_1_.pdf", ebook.ContentTypePDF, []byte("%PDF-")},
		{models.ExportFormatDOCX, "My_Guide__Part_1_.docx", ebook.ContentTypeDOCX, []byte("PK\x03\x04")},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			sink := &BufferSink{}
			req := models.ExportRequest{BookID: bookID, RequesterID: ownerID, Format: tt.format}
			if err := testProcessor(testStore()).Export(context.Background(), req, sink); err != nil {
				t.Fatalf("Export: %v", err)
			}
			if sink.Filename != tt.wantName {
				t.Errorf("filename = %q, want %q", sink.Filename, tt.wantName)
			}
			if sink.ContentType != tt.wantType {
				t.Errorf("content type = %q, want %q", sink.ContentType, tt.wantType)
			}
			if !bytes.HasPrefix(sink.Bytes(), tt.wantPrefix) {
				t.Errorf("body does not start with %q", tt.wantPrefix)
			}
		})
	}
}

func TestExportWithDeletedCover(t *testing.T) {
	root := t.TempDir()
	coverPath := filepath.Join(root, "uploads", "cover.png")
	if err := os.MkdirAll(filepath.Dir(coverPath), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(coverPath, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(coverPath); err != nil {
		t.Fatal(err)
	}

	store := testStore()
	store.books[bookID].CoverImage = "/uploads/cover.png"
	processor := NewExportProcessor(NewContentFetcher(store),
		ebook.NewNormalizer(storage.NewAssetResolver(root, "")), ebook.DefaultTheme())

	t.Run("pdf", func(t *testing.T) {
		sink := &BufferSink{}
		req := models.ExportRequest{BookID: bookID, RequesterID: ownerID, Format: models.ExportFormatPDF}
		if err := processor.Export(context.Background(), req, sink); err != nil {
			t.Fatalf("Export: %v", err)
		}
		// Title page and one chapter, no cover page.
		if got := bytes.Count(sink.Bytes(), []byte("/Type /Page\n")); got != 2 {
			t.Errorf("pages = %d, want 2", got)
		}
		if bytes.Contains(sink.Bytes(), []byte("/Subtype /Image")) {
			t.Errorf("pdf embeds an image for a missing cover")
		}
	})

	t.Run("docx", func(t *testing.T) {
		sink := &BufferSink{}
		req := models.ExportRequest{BookID: bookID, RequesterID: ownerID, Format: models.ExportFormatDOCX}
		if err := processor.Export(context.Background(), req, sink); err != nil {
			t.Fatalf("Export: %v", err)
		}
		zr, err := zip.NewReader(bytes.NewReader(sink.Bytes()), int64(sink.Len()))
		if err != nil {
			t.Fatalf("open docx: %v", err)
		}
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "word/media/") {
				t.Errorf("docx carries media part %s for a missing cover", f.Name)
			}
		}
	})
}

func TestExportFailsBeforeWriting(t *testing.T) {
	tests := []struct {
		name    string
		req     models.ExportRequest
		wantErr error
	}{
		{"forbidden", models.ExportRequest{BookID: bookID, RequesterID: otherID, Format: models.ExportFormatPDF}, ErrForbidden},
		{"malformed", models.ExportRequest{BookID: "42", RequesterID: ownerID, Format: models.ExportFormatDOCX}, ErrInvalidIdentifier},
		{"missing", models.ExportRequest{BookID: otherID, RequesterID: ownerID, Format: models.ExportFormatPDF}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &BufferSink{}
			err := testProcessor(testStore()).Export(context.Background(), tt.req, sink)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if sink.Started() || sink.Filename != "" {
				t.Errorf("sink touched on failure")
			}
		})
	}

	sink := &BufferSink{}
	err := testProcessor(testStore()).Export(context.Background(),
		models.ExportRequest{BookID: bookID, RequesterID: ownerID, Format: "epub"}, sink)
	if err == nil || sink.Started() {
		t.Errorf("unsupported format: err = %v, started = %v", err, sink.Started())
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewFileSink(dir)
	if sink.Started() {
		t.Fatal("new sink reports started")
	}
	req := models.ExportRequest{BookID: bookID, RequesterID: ownerID, Format: models.ExportFormatDOCX}
	if err := testProcessor(testStore()).Export(context.Background(), req, sink); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := filepath.Join(dir, "My_Guide__Part_1_.docx")
	if sink.Path != want {
		t.Errorf("path = %q, want %q", sink.Path, want)
	}
	info, err := os.Stat(want)
	if err != nil || info.Size() == 0 {
		t.Errorf("output file missing or empty: %v", err)
	}
}
