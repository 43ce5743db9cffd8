package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/search"
)

func TestReindexAll(t *testing.T) {
	tc := setupTestCatalog(t, Options{ReindexBatchSize: 2})
	ctx := context.Background()

	for _, title := range []string{"Dune", "Hyperion", "Kindred", "Solaris", "Ubik"} {
		upsertTestBook(t, tc.svc, UpsertBookRequest{Title: title})
	}

	n, err := tc.svc.ReindexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 3, tc.index.updates, "five books in batches of two")

	count, err := tc.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
}

func TestRebuildIndex_DropsOrphanedDocuments(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()

	book := upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "Dune"})
	require.NoError(t, tc.index.UpdateDocuments(ctx, []*search.BookDocument{
		{ID: "orphan", Title: "Dune Encyclopedia", CreatedAt: "2024-01-01T00:00:00Z"},
	}))

	n, err := tc.svc.RebuildIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := tc.index.Search(ctx, search.Query{Text: "dune", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, book.ID, res.Hits[0].ID)

	assert.Equal(t, search.DefaultSettings(), tc.index.Settings(), "settings survive the rebuild")
}

func TestReindexIfEmpty(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()

	ran, err := tc.svc.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, ran, "empty store needs no reindex")

	upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "Dune"})

	ran, err = tc.svc.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = tc.svc.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, ran, "populated index is left alone")
}

func TestIndexBook_UsesLiveCounters(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()
	book := upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "Dune"})

	_, err := tc.store.UpsertStatus(ctx, &domain.UserBookStatus{UserID: "u1", BookID: book.ID, Status: domain.StatusWant})
	require.NoError(t, err)

	require.NoError(t, tc.svc.IndexBook(ctx, book.ID))

	res, err := tc.index.Search(ctx, search.Query{Text: "dune", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 1, res.Hits[0].WantCount)
}

func TestEnsureIndexSettings(t *testing.T) {
	tc := setupTestCatalog(t, Options{})

	assert.Equal(t, search.DefaultSettings(), tc.index.Settings())

	// Declared sortable attributes are accepted once settings are in place.
	_, err := tc.svc.Search(context.Background(), query.Request{Query: "dune", Sort: string(query.SortLikeCountDesc)})
	assert.NoError(t, err)
}
