package service

import (
	"context"
	"strings"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
)

// GetBook returns a book from the store with its authors and genres.
// Counters are only computed when includeStats is set; otherwise they are
// zero.
func (s *CatalogService) GetBook(ctx context.Context, bookID string, includeStats bool) (*domain.Book, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, domainerrors.InvalidArgument("book id is required")
	}
	return s.hydrate(ctx, bookID, includeStats)
}

// Ping checks that the store is reachable.
func (s *CatalogService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// IndexedDocuments returns the number of documents in the search index.
func (s *CatalogService) IndexedDocuments() (uint64, error) {
	n, err := s.index.DocumentCount()
	if err != nil {
		return 0, indexError(err, "count search documents")
	}
	return n, nil
}
