package service

import (
	"context"
	"log/slog"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/search"
	"github.com/bookster/catalog-server/internal/store"
)

// Index is the search tier the catalog reads from and writes back to.
// *search.SearchIndex satisfies it.
type Index interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	UpdateDocuments(ctx context.Context, docs []*search.BookDocument) error
	UpdateSettings(ctx context.Context, settings search.Settings) error
	DocumentCount() (uint64, error)
	Settings() search.Settings
	Rebuild() error
}

// ExternalSource looks up book previews in a third-party catalog by a
// single word. *openlibrary.Client satisfies it.
type ExternalSource interface {
	SearchBooks(ctx context.Context, word string, limit int) ([]domain.Book, error)
}

// Options tunes catalog behavior.
type Options struct {
	// PromoteAllExternal promotes every external hit of a search instead
	// of only the first.
	PromoteAllExternal bool

	// ReindexBatchSize is the number of books written per index batch
	// during a full reindex.
	ReindexBatchSize int
}

const defaultReindexBatchSize = 200

// CatalogService runs the tiered book lookup and owns every write that
// must keep the search index in step with the store.
type CatalogService struct {
	store    store.Store
	index    Index
	external ExternalSource
	opts     Options
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
// external may be nil, which disables the external tier.
func NewCatalogService(st store.Store, index Index, external ExternalSource, opts Options, logger *slog.Logger) *CatalogService {
	if opts.ReindexBatchSize <= 0 {
		opts.ReindexBatchSize = defaultReindexBatchSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CatalogService{
		store:    st,
		index:    index,
		external: external,
		opts:     opts,
		logger:   logger,
	}
}
