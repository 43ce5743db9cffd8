package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
)

func TestGetBook(t *testing.T) {
	tc := setupTestCatalog(t, Options{})
	ctx := context.Background()
	book := upsertTestBook(t, tc.svc, UpsertBookRequest{
		Title:   "Dune",
		Authors: []AuthorInput{{ID: "a1", Name: "Frank Herbert"}},
	})

	_, err := tc.svc.SetReaction(ctx, "user-1", book.ID, domain.ReactionLike)
	require.NoError(t, err)

	withStats, err := tc.svc.GetBook(ctx, book.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, withStats.LikeCount)
	assert.Equal(t, "Frank Herbert", withStats.PrimaryAuthor)

	without, err := tc.svc.GetBook(ctx, book.ID, false)
	require.NoError(t, err)
	assert.Zero(t, without.LikeCount)
	assert.Equal(t, "Frank Herbert", without.PrimaryAuthor)
}

func TestGetBook_Errors(t *testing.T) {
	tc := setupTestCatalog(t, Options{})

	_, err := tc.svc.GetBook(context.Background(), "missing", false)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = tc.svc.GetBook(context.Background(), " ", false)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}
