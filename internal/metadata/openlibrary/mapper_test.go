package openlibrary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/domain"
)

func TestMapDoc(t *testing.T) {
	doc := Doc{
		Key:              "/works/OL893415W",
		Title:            "Dune",
		FirstPublishYear: 1965,
		CoverID:          11481354,
		AuthorName:       []string{"Frank Herbert", "Anonymous"},
		AuthorKey:        []string{"OL79034A"},
		Language:         []string{"eng"},
	}

	b := MapDoc(doc)

	assert.Equal(t, "ol-OL893415W", b.ID)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, 1965, b.PublishedYear)
	assert.Equal(t, "eng", b.Language)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/11481354-M.jpg", b.CoverImageURL)
	assert.Equal(t, domain.ExternalSourceOpenLibrary, b.ExternalSource)
	assert.Equal(t, "/works/OL893415W", b.ExternalID)
	assert.True(t, b.HasExternalIdentity())

	require.Len(t, b.Authors, 2)
	assert.Equal(t, "ol-OL79034A", b.Authors[0].ID)
	assert.Equal(t, "OL79034A", b.Authors[0].ExternalID)
	assert.Equal(t, domain.ExternalSourceOpenLibrary, b.Authors[0].ExternalSource)
	assert.Equal(t, 0, b.Authors[0].Position)
	assert.Equal(t, "", b.Authors[0].Role)

	// Missing author key falls back to a book-scoped positional id.
	assert.Equal(t, "ol-OL893415W-author-1", b.Authors[1].ID)
	assert.Empty(t, b.Authors[1].ExternalID)
	assert.Equal(t, 1, b.Authors[1].Position)

	assert.Equal(t, "Frank Herbert", b.PrimaryAuthor)
	assert.Equal(t, []string{"Frank Herbert", "Anonymous"}, b.AuthorNames)
	assert.NotNil(t, b.Genres)
	assert.Empty(t, b.GenreSlugs)
	assert.Zero(t, b.LikeCount)
}

func TestMapDoc_Sparse(t *testing.T) {
	b := MapDoc(Doc{Key: "/works/OL1W", Title: "Untitled"})

	assert.Equal(t, "ol-OL1W", b.ID)
	assert.Empty(t, b.CoverImageURL)
	assert.Empty(t, b.Language)
	assert.Empty(t, b.PrimaryAuthor)
	assert.NotNil(t, b.Authors)
	assert.NotNil(t, b.AuthorNames)
}

func TestMapDoc_NoKey(t *testing.T) {
	b := MapDoc(Doc{Title: "Loose", CoverID: 42})

	assert.Equal(t, "ol-cover-42", b.ID)
	assert.False(t, b.HasExternalIdentity())
	assert.False(t, b.ExternalSource.IsSet())
}
