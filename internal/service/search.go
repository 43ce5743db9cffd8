package service

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/search"
	"github.com/bookster/catalog-server/internal/store"
)

// SearchResult is the outcome of a tiered search.
//
// Total depends on the tier that answered. Index hits report the index's
// estimated match count. Store hits report every store row matching the
// filter, counted with CountBooks, rather than the index's estimate, which is
// zero whenever the store tier runs. External hits report the number of
// promoted books.
//
// UsedExternalFallback and ImportEnqueued are reserved for asynchronous
// imports and are always false: external hits are promoted inline.
type SearchResult struct {
	Books                []*domain.Book `json:"books"`
	Total                int            `json:"total"`
	UsedExternalFallback bool           `json:"usedExternalFallback"`
	ImportEnqueued       bool           `json:"importEnqueued"`
}

// Tier names a stage of the lookup chain.
type Tier string

// Lookup tiers in the order they are consulted.
const (
	TierIndex    Tier = "index"
	TierStore    Tier = "store"
	TierExternal Tier = "external"
)

// Search finds books for req.
//
// The index answers first. When it has no hits and req carries text, the
// store is scanned by title. When that is empty too, the external source is
// asked word by word and the first external hit is promoted into the store
// and index before being returned.
func (s *CatalogService) Search(ctx context.Context, req query.Request) (*SearchResult, error) {
	plan := query.Compile(req)

	res, err := s.index.Search(ctx, search.Query{
		Text:   plan.Text,
		Filter: plan.Filter,
		Sort:   plan.Sort,
		Limit:  plan.Limit,
		Offset: plan.Offset,
	})
	if err != nil {
		return nil, indexError(err, "search index")
	}
	if len(res.Hits) > 0 {
		s.logger.Debug("search served", "tier", TierIndex, "query", plan.Text, "hits", len(res.Hits))
		books := make([]*domain.Book, 0, len(res.Hits))
		for _, hit := range res.Hits {
			books = append(books, search.DocumentToBook(hit))
		}
		return &SearchResult{Books: books, Total: res.EstimatedTotal}, nil
	}

	if strings.TrimSpace(plan.Text) == "" {
		return emptyResult(), nil
	}

	result, err := s.searchStore(ctx, plan)
	if err != nil {
		return nil, err
	}
	if len(result.Books) > 0 {
		s.logger.Debug("search served", "tier", TierStore, "query", plan.Text, "hits", len(result.Books))
		return result, nil
	}

	if s.external == nil {
		return emptyResult(), nil
	}
	return s.searchExternal(ctx, plan)
}

func emptyResult() *SearchResult {
	return &SearchResult{Books: []*domain.Book{}}
}

// searchStore runs the title scan and hydrates every row with live counters.
func (s *CatalogService) searchStore(ctx context.Context, plan query.Plan) (*SearchResult, error) {
	rows, err := s.store.SearchBooks(ctx, plan.Store, store.Page{Limit: plan.Limit, Offset: plan.Offset})
	if err != nil {
		return nil, storeError(err, "search books")
	}
	if len(rows) == 0 {
		return emptyResult(), nil
	}

	for _, b := range rows {
		stats, err := s.computeStats(ctx, b.ID)
		if err != nil {
			return nil, storeError(err, "compute stats for %s", b.ID)
		}
		b.BookStats = stats
	}

	total, err := s.store.CountBooks(ctx, plan.Store)
	if err != nil {
		return nil, storeError(err, "count books")
	}

	return &SearchResult{Books: rows, Total: total}, nil
}

// searchExternal asks the external source and promotes its hits.
// Only the first hit is promoted unless PromoteAllExternal is set; the
// rest are returned as previews.
func (s *CatalogService) searchExternal(ctx context.Context, plan query.Plan) (*SearchResult, error) {
	lookup := func(ctx context.Context, word string) ([]domain.Book, error) {
		return s.external.SearchBooks(ctx, word, plan.Limit)
	}

	previews, word, err := FirstSuccessfulWord(ctx, strings.FieldsSeq(plan.Text), lookup, s.logger)
	if err != nil {
		return nil, err
	}
	if len(previews) == 0 {
		s.logger.Info("search found nothing in any tier", "query", plan.Text)
		return emptyResult(), nil
	}

	result := &SearchResult{Books: make([]*domain.Book, 0, len(previews))}
	promoted := 0
	for i := range previews {
		preview := &previews[i]
		if promoted > 0 && !s.opts.PromoteAllExternal {
			result.Books = append(result.Books, preview)
			continue
		}

		book, err := s.promote(ctx, preview)
		if err != nil {
			return nil, err
		}
		result.Books = append(result.Books, book)
		result.Total++
		promoted++
	}

	s.logger.Info("search served",
		"tier", TierExternal,
		"query", plan.Text,
		"word", word,
		"hits", len(previews),
		"promoted", promoted,
	)
	return result, nil
}

// promote upserts an external preview into the store, re-indexes it, and
// returns the canonical book.
func (s *CatalogService) promote(ctx context.Context, preview *domain.Book) (*domain.Book, error) {
	res, err := s.UpsertBook(ctx, UpsertRequestFromBook(preview, true))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("promoted external book",
		"id", res.Book.ID,
		"external_source", res.Book.ExternalSource,
		"external_id", res.Book.ExternalID,
		"created", res.Created,
	)
	return res.Book, nil
}

// WordLookup searches a single word.
type WordLookup func(ctx context.Context, word string) ([]domain.Book, error)

// FirstSuccessfulWord tries words in order and returns the results of the
// first word whose lookup yields at least one book, along with that word.
// Results of different words are never merged.
//
// A failed lookup is logged and the next word is tried, so a source that
// fails for every word yields no results and no error. Only cancellation of
// ctx ends the walk with an error.
func FirstSuccessfulWord(ctx context.Context, words iter.Seq[string], lookup WordLookup, logger *slog.Logger) ([]domain.Book, string, error) {
	for word := range words {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		books, err := lookup(ctx, word)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", ctxErr
			}
			logger.Warn("external lookup failed, trying next word", "word", word, "error", err)
			continue
		}
		if len(books) > 0 {
			return books, word, nil
		}
	}
	return nil, "", nil
}
