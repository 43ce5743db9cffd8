package service

import (
	"context"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/search"
	"github.com/bookster/catalog-server/internal/store"
)

// writeDocuments replaces the search documents of hydrated books.
func (s *CatalogService) writeDocuments(ctx context.Context, books ...*domain.Book) error {
	docs := make([]*search.BookDocument, 0, len(books))
	for _, b := range books {
		docs = append(docs, search.BookToDocument(b))
	}
	if err := s.index.UpdateDocuments(ctx, docs); err != nil {
		return indexError(err, "write search documents")
	}
	return nil
}

// IndexBook re-derives one book's search document from the store.
func (s *CatalogService) IndexBook(ctx context.Context, bookID string) error {
	book, err := s.hydrate(ctx, bookID, true)
	if err != nil {
		return err
	}
	if err := s.writeDocuments(ctx, book); err != nil {
		return err
	}
	s.logger.Debug("indexed book", "id", book.ID, "title", book.Title)
	return nil
}

// ReindexAll rewrites the search document of every book in the store and
// returns how many were written.
func (s *CatalogService) ReindexAll(ctx context.Context) (int, error) {
	page := store.Page{Limit: s.opts.ReindexBatchSize}
	indexed := 0

	for {
		ids, err := s.store.ListBookIDs(ctx, page)
		if err != nil {
			return indexed, storeError(err, "list book ids")
		}
		if len(ids) == 0 {
			break
		}

		books := make([]*domain.Book, 0, len(ids))
		for _, bookID := range ids {
			book, err := s.hydrate(ctx, bookID, true)
			if err != nil {
				return indexed, err
			}
			books = append(books, book)
		}
		if err := s.writeDocuments(ctx, books...); err != nil {
			return indexed, err
		}

		indexed += len(books)
		s.logger.Debug("reindex progress", "indexed", indexed)

		if len(ids) < page.Limit {
			break
		}
		page.Offset += len(ids)
	}

	s.logger.Info("reindex complete", "books", indexed)
	return indexed, nil
}

// RebuildIndex drops every search document, then rewrites one per book in
// the store. Documents for books no longer in the store do not survive.
func (s *CatalogService) RebuildIndex(ctx context.Context) (int, error) {
	if err := s.index.Rebuild(); err != nil {
		return 0, indexError(err, "rebuild search index")
	}
	if len(s.index.Settings().FilterableAttributes) == 0 {
		if err := s.EnsureIndexSettings(ctx); err != nil {
			return 0, err
		}
	}
	return s.ReindexAll(ctx)
}

// ReindexIfEmpty runs ReindexAll when the index holds no documents but the
// store holds books. It reports whether a reindex ran.
func (s *CatalogService) ReindexIfEmpty(ctx context.Context) (bool, error) {
	docs, err := s.index.DocumentCount()
	if err != nil {
		return false, indexError(err, "count search documents")
	}
	if docs > 0 {
		return false, nil
	}

	books, err := s.store.CountBooks(ctx, query.BookFilter{})
	if err != nil {
		return false, storeError(err, "count books")
	}
	if books == 0 {
		return false, nil
	}

	s.logger.Info("search index is empty, rebuilding from store", "books", books)
	if _, err := s.ReindexAll(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureIndexSettings pushes the catalog's index settings. A failure is
// logged and returned; the index applies the settings on its next
// successful document write.
func (s *CatalogService) EnsureIndexSettings(ctx context.Context) error {
	if err := s.index.UpdateSettings(ctx, search.DefaultSettings()); err != nil {
		s.logger.Warn("index settings not applied yet, will retry on next write", "error", err)
		return indexError(err, "update index settings")
	}
	return nil
}
