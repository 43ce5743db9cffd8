package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/search"
	"github.com/bookster/catalog-server/internal/store"
	"github.com/bookster/catalog-server/internal/store/sqlite"
)

// indexSpy records calls to a real in-memory index.
type indexSpy struct {
	*search.SearchIndex

	mu          sync.Mutex
	searches    []search.Query
	updates     int
	failUpdates error
}

func (s *indexSpy) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	s.mu.Lock()
	s.searches = append(s.searches, q)
	s.mu.Unlock()
	return s.SearchIndex.Search(ctx, q)
}

func (s *indexSpy) UpdateDocuments(ctx context.Context, docs []*search.BookDocument) error {
	s.mu.Lock()
	fail := s.failUpdates
	if fail == nil {
		s.updates++
	}
	s.mu.Unlock()
	if fail != nil {
		return fail
	}
	return s.SearchIndex.UpdateDocuments(ctx, docs)
}

// storeSpy counts title scans on a real store.
type storeSpy struct {
	store.Store

	mu          sync.Mutex
	searchCalls int
}

func (s *storeSpy) SearchBooks(ctx context.Context, f query.BookFilter, page store.Page) ([]*domain.Book, error) {
	s.mu.Lock()
	s.searchCalls++
	s.mu.Unlock()
	return s.Store.SearchBooks(ctx, f, page)
}

// fakeExternal serves canned previews per word.
type fakeExternal struct {
	mu      sync.Mutex
	results map[string][]domain.Book
	errs    map[string]error
	calls   []string
	limits  []int
}

func (f *fakeExternal) SearchBooks(_ context.Context, word string, limit int) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, word)
	f.limits = append(f.limits, limit)
	if err := f.errs[word]; err != nil {
		return nil, err
	}
	books := f.results[word]
	out := make([]domain.Book, len(books))
	copy(out, books)
	return out, nil
}

type testCatalog struct {
	svc      *CatalogService
	store    *storeSpy
	index    *indexSpy
	external *fakeExternal
}

func setupTestCatalog(t *testing.T, opts Options) *testCatalog {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	idx, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	tc := &testCatalog{
		store:    &storeSpy{Store: st},
		index:    &indexSpy{SearchIndex: idx},
		external: &fakeExternal{results: map[string][]domain.Book{}, errs: map[string]error{}},
	}
	tc.svc = NewCatalogService(tc.store, tc.index, tc.external, opts, logger)
	require.NoError(t, tc.svc.EnsureIndexSettings(context.Background()))

	return tc
}

// upsertTestBook writes a minimal book and returns it hydrated.
func upsertTestBook(t *testing.T, svc *CatalogService, req UpsertBookRequest) *domain.Book {
	t.Helper()
	res, err := svc.UpsertBook(context.Background(), req)
	require.NoError(t, err)
	return res.Book
}

func emptyFilter() query.BookFilter {
	return query.BookFilter{}
}
