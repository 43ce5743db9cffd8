// Package store defines the canonical relational store used by the catalog.
package store

import (
	"context"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/query"
)

// Page selects a window of an ordered result.
type Page struct {
	Limit  int
	Offset int
}

// Store is the canonical store gateway.
//
// Book reads return scalar fields plus ordered authors and genres.
// Activity counters are not stored on books; use the Count methods.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Books
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBookByExternalID(ctx context.Context, source domain.ExternalSource, externalID string) (*domain.Book, error)
	CreateBook(ctx context.Context, book *domain.Book) error
	UpdateBook(ctx context.Context, book *domain.Book) error
	SearchBooks(ctx context.Context, filter query.BookFilter, page Page) ([]*domain.Book, error)
	CountBooks(ctx context.Context, filter query.BookFilter) (int, error)
	ListBookIDs(ctx context.Context, page Page) ([]string, error)

	// Authors and genres
	UpsertAuthor(ctx context.Context, author *domain.Author) error
	UpsertBookAuthor(ctx context.Context, bookID string, credit domain.BookAuthor) error
	UpsertGenreBySlug(ctx context.Context, genre *domain.Genre) (*domain.Genre, error)
	UpsertBookGenre(ctx context.Context, bookID, genreID string, confidence *float64) error

	// Activity
	UpsertReaction(ctx context.Context, r *domain.UserBookReaction) (*domain.UserBookReaction, error)
	UpsertStatus(ctx context.Context, st *domain.UserBookStatus) (*domain.UserBookStatus, error)
	CountReactions(ctx context.Context, bookID string, reaction domain.Reaction) (int, error)
	CountStatuses(ctx context.Context, bookID string, status domain.ReadingStatus) (int, error)
}
