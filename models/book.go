package models

import "time"

// Book is the aggregate loaded for an export: metadata plus its ordered chapters.
type Book struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitempty"`
	Author     string    `json:"author"`
	CoverImage string    `json:"cover_image,omitempty"` // e.g. "/uploads/cover-123.jpg"
	Chapters   []Chapter `json:"chapters"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Chapter belongs to exactly one Book. Its position in Book.Chapters is its order.
type Chapter struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"` // Only used for AI generation
	Content     string `json:"content"`
}
