package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/metadata/openlibrary"
	"github.com/bookster/catalog-server/internal/query"
)

func duneDoc() openlibrary.Doc {
	return openlibrary.Doc{
		Key:              "/works/OL893415W",
		Title:            "Dune",
		FirstPublishYear: 1965,
		CoverID:          11481354,
		AuthorName:       []string{"Frank Herbert"},
		AuthorKey:        []string{"OL79034A"},
		Language:         []string{"eng"},
	}
}

func TestSearch_DuneEndToEnd(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()
	tc.external.results["dune"] = []domain.Book{openlibrary.MapDoc(duneDoc())}

	first, err := tc.svc.Search(ctx, query.Request{Query: "dune"})
	require.NoError(t, err)
	require.Len(t, first.Books, 1)
	assert.Equal(t, 1, first.Total)
	assert.Equal(t, domain.ExternalSourceOpenLibrary, first.Books[0].ExternalSource)
	assert.Equal(t, "/works/OL893415W", first.Books[0].ExternalID)
	assert.False(t, first.UsedExternalFallback)
	assert.False(t, first.ImportEnqueued)
	assert.Equal(t, []string{"dune"}, tc.external.calls)
	assert.Equal(t, 1, tc.store.searchCalls)

	// The promoted book is canonical.
	stored, err := tc.store.GetBookByExternalID(ctx, domain.ExternalSourceOpenLibrary, "/works/OL893415W")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, first.Books[0].ID)
	assert.Equal(t, []string{"Frank Herbert"}, stored.AuthorNames)

	// The second search is answered by the index.
	second, err := tc.svc.Search(ctx, query.Request{Query: "dune"})
	require.NoError(t, err)
	require.Len(t, second.Books, 1)
	assert.Equal(t, first.Books[0].ID, second.Books[0].ID)
	assert.Equal(t, domain.ExternalSourceOpenLibrary, second.Books[0].ExternalSource)
	assert.Equal(t, 1, second.Total)
	assert.Len(t, tc.external.calls, 1, "external source must not be called again")
	assert.Equal(t, 1, tc.store.searchCalls, "store must not be scanned again")
}

func TestSearch_IndexHitSkipsOtherTiers(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()

	upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "The Left Hand of Darkness", Reindex: true})

	res, err := tc.svc.Search(ctx, query.Request{Query: "darkness"})
	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "The Left Hand of Darkness", res.Books[0].Title)

	assert.Zero(t, tc.store.searchCalls)
	assert.Empty(t, tc.external.calls)
}

func TestSearch_BlankQuerySkipsStore(t *testing.T) {
	tc := setupTestCatalog(t, Options{})

	// Present in the store but not in the index.
	upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "Kindred"})

	res, err := tc.svc.Search(context.Background(), query.Request{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, res.Books)
	assert.Zero(t, res.Total)
	assert.NotNil(t, res.Books)

	assert.Zero(t, tc.store.searchCalls)
	assert.Empty(t, tc.external.calls)
}

func TestSearch_StoreTierHydratesCounters(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()

	book := upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "Kindred", Language: "en"})
	upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "Kindred Spirits", Language: "en"})
	_, err := tc.store.UpsertReaction(ctx, &domain.UserBookReaction{UserID: "u1", BookID: book.ID, Reaction: domain.ReactionLike})
	require.NoError(t, err)

	res, err := tc.svc.Search(ctx, query.Request{Query: "KINDRED", Limit: 1})
	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, book.ID, res.Books[0].ID)
	assert.Equal(t, 1, res.Books[0].LikeCount)
	assert.Equal(t, 2, res.Total, "total counts every match, not just the page")

	assert.Equal(t, 1, tc.store.searchCalls)
	assert.Empty(t, tc.external.calls)
}

func TestSearch_StoreTierMatchesAccentedTitles(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()

	book := upsertTestBook(t, tc.svc, UpsertBookRequest{Title: "Émile"})
	tc.external.results["Émile"] = []domain.Book{{ID: "ol-OL1W", Title: "Émile", ExternalSource: domain.ExternalSourceOpenLibrary, ExternalID: "/works/OL1W"}}

	for _, q := range []string{"Émile", "ÉMILE", "émile"} {
		res, err := tc.svc.Search(ctx, query.Request{Query: q})
		require.NoError(t, err, q)
		require.Len(t, res.Books, 1, q)
		assert.Equal(t, book.ID, res.Books[0].ID, q)
		assert.Equal(t, 1, res.Total, q)
	}

	assert.Equal(t, 3, tc.store.searchCalls)
	assert.Empty(t, tc.external.calls)
}

func TestSearch_LimitNeverExceedsMax(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()

	for _, limit := range []int{-5, 0, 20, 100, 101, 5000} {
		_, err := tc.svc.Search(ctx, query.Request{Query: "nothing", Limit: limit})
		require.NoError(t, err)
	}

	require.NotEmpty(t, tc.index.searches)
	for _, q := range tc.index.searches {
		assert.LessOrEqual(t, q.Limit, query.MaxLimit)
		assert.Positive(t, q.Limit)
	}
	for _, limit := range tc.external.limits {
		assert.LessOrEqual(t, limit, query.MaxLimit)
	}
	assert.Equal(t, query.DefaultLimit, tc.index.searches[0].Limit)
	assert.Equal(t, query.MaxLimit, tc.index.searches[len(tc.index.searches)-1].Limit)
}

func TestSearch_ExternalFailureTriesNextWord(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	tc.external.errs["frank"] = openlibrary.ErrServer
	tc.external.results["dune"] = []domain.Book{openlibrary.MapDoc(duneDoc())}

	res, err := tc.svc.Search(context.Background(), query.Request{Query: "frank dune"})
	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "Dune", res.Books[0].Title)
	assert.Equal(t, []string{"frank", "dune"}, tc.external.calls)
}

func TestSearch_ExternalOutageDegradesToEmpty(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	tc.external.errs["frank"] = openlibrary.ErrRateLimited
	tc.external.errs["herbert"] = openlibrary.ErrServer

	res, err := tc.svc.Search(context.Background(), query.Request{Query: "frank herbert"})
	require.NoError(t, err)
	assert.Empty(t, res.Books)
	assert.Zero(t, res.Total)
	assert.Equal(t, []string{"frank", "herbert"}, tc.external.calls)
}

func TestSearch_FirstSuccessfulWordWins(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	tc.external.results["dune"] = []domain.Book{openlibrary.MapDoc(duneDoc())}
	tc.external.results["messiah"] = []domain.Book{openlibrary.MapDoc(openlibrary.Doc{Key: "/works/OL893502W", Title: "Dune Messiah"})}

	res, err := tc.svc.Search(context.Background(), query.Request{Query: "dune messiah"})
	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "Dune", res.Books[0].Title)
	assert.Equal(t, []string{"dune"}, tc.external.calls)
}

func TestSearch_PromotesFirstExternalHitOnly(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()
	tc.external.results["herbert"] = []domain.Book{
		openlibrary.MapDoc(duneDoc()),
		openlibrary.MapDoc(openlibrary.Doc{Key: "/works/OL893502W", Title: "Dune Messiah"}),
	}

	res, err := tc.svc.Search(ctx, query.Request{Query: "herbert"})
	require.NoError(t, err)
	require.Len(t, res.Books, 2)
	assert.Equal(t, 1, res.Total)

	_, err = tc.store.GetBookByExternalID(ctx, domain.ExternalSourceOpenLibrary, "/works/OL893415W")
	require.NoError(t, err)
	_, err = tc.store.GetBookByExternalID(ctx, domain.ExternalSourceOpenLibrary, "/works/OL893502W")
	assert.Error(t, err, "second hit stays a preview")
	assert.Equal(t, "ol-OL893502W", res.Books[1].ID)
}

func TestSearch_PromoteAllExternal(t *testing.T) {
	tc := setupTestCatalog(t, Options{PromoteAllExternal: true})
	ctx := context.Background()
	tc.external.results["herbert"] = []domain.Book{
		openlibrary.MapDoc(duneDoc()),
		openlibrary.MapDoc(openlibrary.Doc{Key: "/works/OL893502W", Title: "Dune Messiah"}),
	}

	res, err := tc.svc.Search(ctx, query.Request{Query: "herbert"})
	require.NoError(t, err)
	require.Len(t, res.Books, 2)
	assert.Equal(t, 2, res.Total)

	for _, key := range []string{"/works/OL893415W", "/works/OL893502W"} {
		_, err := tc.store.GetBookByExternalID(ctx, domain.ExternalSourceOpenLibrary, key)
		assert.NoError(t, err, key)
	}
}

func TestSearch_NoExternalSource(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	svc := NewCatalogService(tc.store, tc.index, nil, Options{}, nil)

	res, err := svc.Search(context.Background(), query.Request{Query: "dune"})
	require.NoError(t, err)
	assert.Empty(t, res.Books)
}

func TestSearch_FiltersReachIndex(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()

	upsertTestBook(t, tc.svc, UpsertBookRequest{
		Title:    "Neuromancer",
		Language: "en",
		Genres:   []GenreInput{{Name: "Cyberpunk"}},
		Reindex:  true,
	})
	upsertTestBook(t, tc.svc, UpsertBookRequest{
		Title:    "Neuromancien",
		Language: "fr",
		Reindex:  true,
	})

	res, err := tc.svc.Search(ctx, query.Request{Query: "neuromancer", Language: "en", GenreSlugs: []string{"cyberpunk", "noir"}})
	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "Neuromancer", res.Books[0].Title)

	last := tc.index.searches[len(tc.index.searches)-1]
	assert.Equal(t, `language = "en" AND (genreSlugs = "cyberpunk" OR genreSlugs = "noir")`, last.Filter.String())
}

func TestFirstSuccessfulWord(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hit := []domain.Book{{ID: "b1", Title: "Hit"}}

	tests := []struct {
		name      string
		words     []string
		results   map[string][]domain.Book
		errs      map[string]error
		wantWord  string
		wantCalls []string
		wantHits  int
	}{
		{
			name:      "first word hits",
			words:     []string{"a", "b"},
			results:   map[string][]domain.Book{"a": hit, "b": hit},
			wantWord:  "a",
			wantCalls: []string{"a"},
			wantHits:  1,
		},
		{
			name:      "empty words are skipped",
			words:     []string{"a", "b", "c"},
			results:   map[string][]domain.Book{"c": hit},
			wantWord:  "c",
			wantCalls: []string{"a", "b", "c"},
			wantHits:  1,
		},
		{
			name:      "failures are skipped",
			words:     []string{"a", "b"},
			results:   map[string][]domain.Book{"b": hit},
			errs:      map[string]error{"a": errors.New("boom")},
			wantWord:  "b",
			wantCalls: []string{"a", "b"},
			wantHits:  1,
		},
		{
			name:      "nothing anywhere",
			words:     []string{"a", "b"},
			errs:      map[string]error{"b": errors.New("boom")},
			wantCalls: []string{"a", "b"},
		},
		{
			name: "no words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			lookup := func(_ context.Context, word string) ([]domain.Book, error) {
				calls = append(calls, word)
				if err := tt.errs[word]; err != nil {
					return nil, err
				}
				return tt.results[word], nil
			}

			books, word, err := FirstSuccessfulWord(context.Background(), slices.Values(tt.words), lookup, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWord, word)
			assert.Len(t, books, tt.wantHits)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestFirstSuccessfulWord_ContextCanceled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	var calls []string
	lookup := func(ctx context.Context, word string) ([]domain.Book, error) {
		calls = append(calls, word)
		cancel()
		return nil, ctx.Err()
	}

	_, _, err := FirstSuccessfulWord(ctx, slices.Values([]string{"a", "b"}), lookup, logger)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, calls)
}
