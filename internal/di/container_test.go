package di

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/auth"
	"github.com/bookster/catalog-server/internal/config"
	"github.com/bookster/catalog-server/internal/di/providers"
	"github.com/bookster/catalog-server/internal/logger"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/service"
)

func testContainer(t *testing.T, extraArgs ...string) *do.RootScope {
	t.Helper()
	dir := t.TempDir()

	args := append([]string{
		"-data-path", dir,
		"-env-file", filepath.Join(dir, "missing.env"),
	}, extraArgs...)
	cfg, err := config.Load(args)
	require.NoError(t, err)

	log := logger.New(logger.Config{Writer: &bytes.Buffer{}})
	injector := NewContainerWithConfig(cfg, log)
	t.Cleanup(func() { _ = injector.Shutdown() })
	return injector
}

func TestContainer_WiresCatalogOffline(t *testing.T) {
	injector := testContainer(t, "-openlibrary-enabled", "false")

	catalog, err := do.Invoke[*service.CatalogService](injector)
	require.NoError(t, err)
	require.NoError(t, catalog.EnsureIndexSettings(t.Context()))

	res, err := catalog.UpsertBook(t.Context(), service.UpsertBookRequest{Title: "Dune", Reindex: true})
	require.NoError(t, err)

	// No external tier: an unknown word yields an empty result, not a panic.
	result, err := catalog.Search(t.Context(), query.Request{Query: "zzzz"})
	require.NoError(t, err)
	assert.Empty(t, result.Books)

	result, err = catalog.Search(t.Context(), query.Request{Query: "dune"})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, res.Book.ID, result.Books[0].ID)

	olHandle, err := do.Invoke[*providers.OpenLibraryClientHandle](injector)
	require.NoError(t, err)
	assert.Nil(t, olHandle.Client)
}

func TestContainer_OpenLibraryWithCache(t *testing.T) {
	injector := testContainer(t)

	olHandle, err := do.Invoke[*providers.OpenLibraryClientHandle](injector)
	require.NoError(t, err)
	assert.NotNil(t, olHandle.Client)

	cacheHandle, err := do.Invoke[*providers.OpenLibraryCacheHandle](injector)
	require.NoError(t, err)
	assert.NotNil(t, cacheHandle.BadgerCache)
}

func TestContainer_TokenKeyPersistsInDataDir(t *testing.T) {
	injector := testContainer(t, "-openlibrary-enabled", "false")

	tokens, err := do.Invoke[*auth.TokenService](injector)
	require.NoError(t, err)

	token, err := tokens.GenerateAccessToken("user-1", auth.RoleUser)
	require.NoError(t, err)
	claims, err := tokens.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	cfg := do.MustInvoke[*config.Config](injector)
	assert.FileExists(t, filepath.Join(cfg.Data.BasePath, "auth.key"))
}
