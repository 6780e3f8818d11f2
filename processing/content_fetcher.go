package processing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/coreybb/bookforge/models"
	"github.com/google/uuid"
)

var (
	// ErrInvalidIdentifier is returned when a book ID is not a well-formed identifier.
	ErrInvalidIdentifier = errors.New("invalid book identifier")
	// ErrNotFound is returned when no book has the requested ID.
	ErrNotFound = errors.New("book not found")
	// ErrForbidden is returned when the requester does not own the book.
	ErrForbidden = errors.New("requester does not own book")
)

// BookStore loads a book aggregate. A missing book must be reported as an error wrapping sql.ErrNoRows.
type BookStore interface {
	GetBookByID(ctx context.Context, id string) (*models.Book, error)
}

// ContentFetcher loads a book and enforces that only its owner may export it.
type ContentFetcher struct {
	books BookStore
}

func NewContentFetcher(books BookStore) *ContentFetcher {
	return &ContentFetcher{books: books}
}

// Fetch returns the book with its chapters in stored order. Any accepted UUID
// spelling is looked up in its canonical lower-case hyphenated form.
func (cf *ContentFetcher) Fetch(ctx context.Context, bookID, requesterID string) (*models.Book, error) {
	id, err := uuid.Parse(bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, bookID)
	}
	bookID = id.String()

	book, err := cf.books.GetBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, bookID)
		}
		return nil, fmt.Errorf("failed to load book %s: %w", bookID, err)
	}

	if requesterID == "" || book.UserID != requesterID {
		log.Printf("WARN (ContentFetcher): User %q denied access to book %s", requesterID, bookID)
		return nil, fmt.Errorf("%w: %s", ErrForbidden, bookID)
	}
	return book, nil
}
