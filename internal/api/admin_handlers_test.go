package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/auth"
	"github.com/bookster/catalog-server/internal/search"
	"github.com/bookster/catalog-server/internal/service"
)

func TestReindex_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/admin/reindex")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/admin/reindex", ts.bearer(t, "user-1", auth.RoleUser))
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)
}

func TestReindex_WritesMissingDocuments(t *testing.T) {
	ts := setupTestServer(t)
	for _, title := range []string{"Dune", "Emma"} {
		_, err := ts.catalog.UpsertBook(t.Context(), service.UpsertBookRequest{Title: title})
		require.NoError(t, err)
	}

	count, err := ts.index.DocumentCount()
	require.NoError(t, err)
	require.Zero(t, count)

	resp := ts.api.Post("/api/v1/admin/reindex", ts.bearer(t, "admin-1", auth.RoleAdmin))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decodeData[ReindexResponse](t, resp)
	assert.Equal(t, 2, out.Indexed)
	assert.False(t, out.Rebuilt)

	count, err = ts.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestReindex_RebuildDropsOrphanedDocuments(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBook(t, service.UpsertBookRequest{Title: "Dune"})
	require.NoError(t, ts.index.UpdateDocuments(t.Context(), []*search.BookDocument{
		{ID: "orphan", Title: "Emma"},
	}))

	resp := ts.api.Post("/api/v1/admin/reindex?rebuild=true", ts.bearer(t, "admin-1", auth.RoleAdmin))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decodeData[ReindexResponse](t, resp)
	assert.Equal(t, 1, out.Indexed)
	assert.True(t, out.Rebuilt)

	count, err := ts.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	assert.Equal(t, search.DefaultSettings(), ts.index.Settings())
}
