package storage

import (
	"context"

	"book-pipeline/models"
)

// BookStore is the interface any relational backend must satisfy.
type BookStore interface {
	// Replace swaps the raw table contents for books and rebuilds the
	// summary with prices multiplied by rate. It is all-or-nothing.
	Replace(ctx context.Context, books []models.Book, rate float64) error
	Counts(ctx context.Context) (models.Counts, error)
	Summary(ctx context.Context) ([]models.YearSummary, error)
	Close() error
}

// RawBookWriter is the interface for dumping normalized records before they
// reach the store.
type RawBookWriter interface {
	WriteRaw(books []models.Book) error
	Close() error
}
