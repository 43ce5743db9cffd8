package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookster/catalog-server/internal/errors"
	"github.com/bookster/catalog-server/internal/validation"
)

type testAuthor struct {
	Name string `json:"name" validate:"required,max=10"`
}

type testRequest struct {
	Title          string       `json:"title" validate:"required"`
	Language       string       `json:"language,omitempty" validate:"omitempty,language"`
	ExternalSource string       `json:"externalSource,omitempty" validate:"omitempty,external_source"`
	ExternalID     string       `json:"externalId,omitempty" validate:"required_with=ExternalSource"`
	Slug           string       `json:"slug,omitempty" validate:"omitempty,slug"`
	Reaction       string       `json:"reaction,omitempty" validate:"omitempty,reaction"`
	Status         string       `json:"status,omitempty" validate:"omitempty,reading_status"`
	Year           int          `json:"publishedYear,omitempty" validate:"gte=0,lte=9999"`
	Authors        []testAuthor `json:"authors" validate:"max=3,dive"`
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
	fields, ok := domainErr.Details.(map[string]string)
	require.True(t, ok, "details should map fields to messages")
	return fields
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{
		Title:          "Dune",
		Language:       "en",
		ExternalSource: "open_library",
		ExternalID:     "OL1W",
		Slug:           "science-fiction",
		Reaction:       "like",
		Status:         "READING",
		Year:           1965,
		Authors:        []testAuthor{{Name: "Herbert"}},
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testRequest
		wantField string
		wantMsg   string
	}{
		{"missing title", testRequest{}, "title", "is required"},
		{"bad language", testRequest{Title: "x", Language: "English"}, "language", "language code"},
		{"unknown source", testRequest{Title: "x", ExternalSource: "AMAZON", ExternalID: "1"}, "externalSource", "OPEN_LIBRARY"},
		{"source without id", testRequest{Title: "x", ExternalSource: "OTHER"}, "externalId", "is required when"},
		{"bad slug", testRequest{Title: "x", Slug: "Sci Fi"}, "slug", "hyphens"},
		{"bad reaction", testRequest{Title: "x", Reaction: "LOVE"}, "reaction", "LIKE"},
		{"bad status", testRequest{Title: "x", Status: "SKIMMED"}, "status", "DNF"},
		{"negative year", testRequest{Title: "x", Year: -1}, "publishedYear", "greater than or equal to 0"},
		{"nested author", testRequest{Title: "x", Authors: []testAuthor{{Name: "ok"}, {}}}, "authors[1].name", "is required"},
		{"too many authors", testRequest{Title: "x", Authors: make([]testAuthor, 4)}, "authors", "more than 3 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			fields := details(t, err)
			require.Contains(t, fields, tt.wantField, "fields: %v", fields)
			assert.Contains(t, fields[tt.wantField], tt.wantMsg)
		})
	}
}

func TestValidator_MultipleErrors(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{Language: "x", Slug: "-"})
	fields := details(t, err)

	assert.Len(t, fields, 3)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "language")
	assert.Contains(t, fields, "slug")
}

func TestValidator_NonStruct(t *testing.T) {
	v := validation.New()

	err := v.Validate("not a struct")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}
