package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
	catalogquery "github.com/bookster/catalog-server/internal/query"
)

// setupTestIndex creates an in-memory index with the default settings applied.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	require.NoError(t, index.UpdateSettings(context.Background(), DefaultSettings()))
	return index
}

func doc(id, title string, year int, language string, slugs ...string) *BookDocument {
	return &BookDocument{
		ID:            id,
		Title:         title,
		Language:      language,
		PublishedYear: year,
		GenreSlugs:    slugs,
		AuthorNames:   []string{},
		CreatedAt:     time.Date(2024, 1, year%28+1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339Nano),
	}
}

func search(t *testing.T, index *SearchIndex, req catalogquery.Request) *Result {
	t.Helper()
	plan := catalogquery.Compile(req)
	result, err := index.Search(context.Background(), Query{
		Text:   plan.Text,
		Filter: plan.Filter,
		Sort:   plan.Sort,
		Limit:  plan.Limit,
		Offset: plan.Offset,
	})
	require.NoError(t, err)
	return result
}

func ids(result *Result) []string {
	out := make([]string, 0, len(result.Hits))
	for _, h := range result.Hits {
		out = append(out, h.ID)
	}
	return out
}

func TestNewSearchIndex_OnDisk(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	require.NoError(t, index.UpdateSettings(context.Background(), DefaultSettings()))
	require.NoError(t, index.Close())

	version, err := os.ReadFile(filepath.Join(dir, "books.version"))
	require.NoError(t, err)
	assert.Equal(t, mappingVersion, string(version))

	// Settings survive a reopen.
	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, DefaultSettings(), reopened.Settings())
}

func TestNewSearchIndex_RebuildsOnVersionMismatch(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.UpdateDocuments(context.Background(), []*BookDocument{doc("b1", "Dune", 1965, "en")}))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.version"), []byte("old"), 0o644))

	rebuilt, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer rebuilt.Close()

	count, err := rebuilt.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_TextSearch(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{
		doc("b1", "Dune", 1965, "en"),
		doc("b2", "Neuromancer", 1984, "en"),
		doc("b3", "The Hobbit", 1937, "en"),
	}))

	result := search(t, index, catalogquery.Request{Query: "dune"})
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "b1", result.Hits[0].ID)
	assert.Equal(t, "Dune", result.Hits[0].Title)
	assert.Equal(t, 1, result.EstimatedTotal)

	// One typo is tolerated.
	result = search(t, index, catalogquery.Request{Query: "dube"})
	assert.Equal(t, []string{"b1"}, ids(result))

	// Prefix of the last word.
	result = search(t, index, catalogquery.Request{Query: "hobb"})
	assert.Equal(t, []string{"b3"}, ids(result))

	result = search(t, index, catalogquery.Request{Query: "zzzzqqq"})
	assert.Empty(t, result.Hits)
}

func TestSearchIndex_SearchesAuthorNames(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	d := doc("b1", "Dune", 1965, "en")
	d.PrimaryAuthor = "Frank Herbert"
	d.AuthorNames = []string{"Frank Herbert"}
	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{d, doc("b2", "Emma", 1815, "en")}))

	result := search(t, index, catalogquery.Request{Query: "herbert"})
	assert.Equal(t, []string{"b1"}, ids(result))
}

func TestSearchIndex_Filters(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{
		doc("b1", "Dune", 1965, "en", "scifi"),
		doc("b2", "The Big Sleep", 1939, "en", "noir"),
		doc("b3", "Solaris", 1961, "pl", "scifi"),
		doc("b4", "Emma", 1815, "en", "romance"),
	}))

	tests := []struct {
		name string
		req  catalogquery.Request
		want []string
	}{
		{"language", catalogquery.Request{Language: "pl"}, []string{"b3"}},
		{"genre any-of", catalogquery.Request{GenreSlugs: []string{"scifi", "noir"}, Sort: "published_year:asc"}, []string{"b2", "b3", "b1"}},
		{"genre and language", catalogquery.Request{GenreSlugs: []string{"scifi", "noir"}, Language: "en", Sort: "published_year:asc"}, []string{"b2", "b1"}},
		{"year min", catalogquery.Request{PublishedYearMin: 1960, Sort: "published_year:desc"}, []string{"b1", "b3"}},
		{"year range", catalogquery.Request{PublishedYearMin: 1900, PublishedYearMax: 1962, Sort: "published_year:asc"}, []string{"b2", "b3"}},
		{"text and filter", catalogquery.Request{Query: "dune", GenreSlugs: []string{"noir"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(search(t, index, tt.req)))
		})
	}
}

func TestSearchIndex_SortByCounter(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	a := doc("a", "Alpha", 2000, "en")
	a.LikeCount = 1
	b := doc("b", "Beta", 2000, "en")
	b.LikeCount = 5
	c := doc("c", "Gamma", 2000, "en")
	c.LikeCount = 3
	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{a, b, c}))

	result := search(t, index, catalogquery.Request{Sort: "like_count:desc"})
	assert.Equal(t, []string{"b", "c", "a"}, ids(result))
}

func TestSearchIndex_Pagination(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	var docs []*BookDocument
	for i, title := range []string{"A", "B", "C", "D", "E"} {
		docs = append(docs, doc("b"+title, title, 2000+i, "en"))
	}
	require.NoError(t, index.UpdateDocuments(ctx, docs))

	result := search(t, index, catalogquery.Request{Sort: "published_year:asc", Limit: 2, Offset: 2})
	assert.Equal(t, []string{"bC", "bD"}, ids(result))
	assert.Equal(t, 5, result.EstimatedTotal)
}

func TestSearchIndex_UpdateReplacesDocument(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{doc("b1", "Dune", 1965, "en")}))

	updated := doc("b1", "Dune", 1965, "en")
	updated.LikeCount = 9
	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{updated}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	result := search(t, index, catalogquery.Request{Query: "dune"})
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 9, result.Hits[0].LikeCount)
}

func TestSearchIndex_RejectsUndeclaredAttributes(t *testing.T) {
	index, err := NewSearchIndex(Options{InMemory: true})
	require.NoError(t, err)
	defer index.Close()

	// Nothing is filterable until settings are applied.
	_, err = index.Search(context.Background(), Query{
		Filter: catalogquery.Compile(catalogquery.Request{Language: "en"}).Filter,
		Limit:  10,
	})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidArgument))

	err = index.UpdateSettings(context.Background(), Settings{SortableAttributes: []string{"title"}})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidArgument))
}

func TestSearchIndex_PendingSettingsAppliedOnWrite(t *testing.T) {
	index, err := NewSearchIndex(Options{InMemory: true})
	require.NoError(t, err)
	defer index.Close()

	pending := DefaultSettings()
	index.pending = &pending

	require.NoError(t, index.UpdateDocuments(context.Background(), []*BookDocument{doc("b1", "Dune", 1965, "en")}))

	assert.Nil(t, index.pending)
	assert.Equal(t, DefaultSettings(), index.Settings())
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{doc("b1", "Dune", 1965, "en")}))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	assert.Equal(t, DefaultSettings(), index.Settings())
}

func TestCodec_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.UTC)
	updated := created.Add(time.Hour)
	confidence := 0.8

	book := &domain.Book{
		Timestamps:     domain.Timestamps{CreatedAt: created, UpdatedAt: updated},
		BookStats:      domain.BookStats{LikeCount: 1, DislikeCount: 2, WantCount: 3, ReadingCount: 4, ReadCount: 5, DNFCount: 6},
		ID:             "b1",
		Title:          "Dune",
		Subtitle:       "Book One",
		Description:    "Spice.",
		Language:       "en",
		PublishedYear:  1965,
		CoverImageURL:  "https://covers.openlibrary.org/b/id/1-M.jpg",
		ExternalSource: domain.ExternalSourceOpenLibrary,
		ExternalID:     "/works/OL893415W",
		Authors: []domain.BookAuthor{{
			Author: domain.Author{
				Timestamps:     domain.Timestamps{CreatedAt: created, UpdatedAt: updated},
				ID:             "a1",
				Name:           "Frank Herbert",
				SortName:       "Herbert, Frank",
				ExternalSource: domain.ExternalSourceOpenLibrary,
				ExternalID:     "OL79034A",
			},
			Role:     "author",
			Position: 0,
		}},
		Genres: []domain.BookGenre{{
			Genre:      domain.Genre{Timestamps: domain.Timestamps{CreatedAt: created, UpdatedAt: updated}, ID: "g1", Name: "Science Fiction", Slug: "scifi"},
			Confidence: &confidence,
		}},
	}
	book.Denormalize()

	got := DocumentToBook(BookToDocument(book))

	assert.Equal(t, book.ID, got.ID)
	assert.Equal(t, book.Title, got.Title)
	assert.Equal(t, book.Subtitle, got.Subtitle)
	assert.Equal(t, book.Description, got.Description)
	assert.Equal(t, book.Language, got.Language)
	assert.Equal(t, book.PublishedYear, got.PublishedYear)
	assert.Equal(t, book.CoverImageURL, got.CoverImageURL)
	assert.Equal(t, book.ExternalSource, got.ExternalSource)
	assert.Equal(t, book.ExternalID, got.ExternalID)
	assert.Equal(t, book.BookStats, got.BookStats)
	assert.Equal(t, book.PrimaryAuthor, got.PrimaryAuthor)
	assert.Equal(t, book.AuthorNames, got.AuthorNames)
	assert.Equal(t, book.GenreSlugs, got.GenreSlugs)
	assert.True(t, book.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, book.UpdatedAt.Equal(got.UpdatedAt))

	require.Len(t, got.Authors, 1)
	assert.Equal(t, "Frank Herbert", got.Authors[0].Name)
	assert.Equal(t, "Herbert, Frank", got.Authors[0].SortName)
	assert.Equal(t, "author", got.Authors[0].Role)
	assert.Equal(t, domain.ExternalSourceOpenLibrary, got.Authors[0].ExternalSource)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "scifi", got.Genres[0].Slug)
	require.NotNil(t, got.Genres[0].Confidence)
	assert.InDelta(t, 0.8, *got.Genres[0].Confidence, 1e-9)

	// Nested timestamps are not part of the document.
	assert.True(t, got.Authors[0].CreatedAt.IsZero())
	assert.True(t, got.Authors[0].UpdatedAt.IsZero())
	assert.True(t, got.Genres[0].CreatedAt.IsZero())
	assert.True(t, got.Genres[0].UpdatedAt.IsZero())
}

func TestCodec_SurvivesIndex(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	book := &domain.Book{
		Timestamps: domain.Timestamps{CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		ID:         "b1",
		Title:      "Dune",
		Authors:    []domain.BookAuthor{{Author: domain.Author{ID: "a1", Name: "Frank Herbert"}}},
	}
	book.Denormalize()

	require.NoError(t, index.UpdateDocuments(ctx, []*BookDocument{BookToDocument(book)}))

	result := search(t, index, catalogquery.Request{Query: "dune"})
	require.Len(t, result.Hits, 1)

	got := DocumentToBook(result.Hits[0])
	assert.Equal(t, "Frank Herbert", got.PrimaryAuthor)
	assert.Equal(t, []string{"Frank Herbert"}, got.AuthorNames)
	assert.True(t, book.CreatedAt.Equal(got.CreatedAt))
}
