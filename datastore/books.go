package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coreybb/bookforge/models"
	"github.com/google/uuid"
)

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// CreateBook inserts a book and its chapters in a single transaction.
// Chapter positions follow the order of book.Chapters.
func (r *BookRepository) CreateBook(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	if _, err := uuid.Parse(book.UserID); err != nil {
		return fmt.Errorf("invalid user_id format: %w", err)
	}

	now := time.Now().UTC()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	if book.UpdatedAt.IsZero() {
		book.UpdatedAt = book.CreatedAt
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO books (id, user_id, title, subtitle, author, cover_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		book.ID, book.UserID, book.Title, book.Subtitle, book.Author,
		book.CoverImage, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	chapterQuery := `
		INSERT INTO chapters (book_id, position, title, description, content)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, ch := range book.Chapters {
		if _, err := tx.ExecContext(ctx, chapterQuery, book.ID, i, ch.Title, ch.Description, ch.Content); err != nil {
			return fmt.Errorf("failed to insert chapter %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit book: %w", err)
	}
	return nil
}

// GetBookByID retrieves a book aggregate, with chapters in their stored order.
func (r *BookRepository) GetBookByID(ctx context.Context, bookID string) (*models.Book, error) {
	query := `
		SELECT id, user_id, title, subtitle, author, cover_image, created_at, updated_at
		FROM books
		WHERE id = $1
	`
	var book models.Book
	row := r.db.QueryRowContext(ctx, query, bookID)
	err := row.Scan(
		&book.ID, &book.UserID, &book.Title, &book.Subtitle, &book.Author,
		&book.CoverImage, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("book not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	chapters, err := r.getChapters(ctx, bookID)
	if err != nil {
		return nil, err
	}
	book.Chapters = chapters
	return &book, nil
}

func (r *BookRepository) getChapters(ctx context.Context, bookID string) ([]models.Chapter, error) {
	query := `
		SELECT title, description, content
		FROM chapters
		WHERE book_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters for book %s: %w", bookID, err)
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var ch models.Chapter
		if err := rows.Scan(&ch.Title, &ch.Description, &ch.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row for book %s: %w", bookID, err)
		}
		chapters = append(chapters, ch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapter rows for book %s: %w", bookID, err)
	}

	if chapters == nil {
		chapters = []models.Chapter{}
	}
	return chapters, nil
}
