package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Searches the index, then the catalog by title, then OpenLibrary word by word. External hits are imported into the catalog.",
		Tags:        []string{"Books"},
		Middlewares: huma.Middlewares{rateLimitMiddleware(s.limiter, s.logger)},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a catalog book with its authors and genres",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "upsertBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create or update book",
		Description:   "Resolves the book by external identity, then by id, and creates it when neither matches",
		Tags:          []string{"Books"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusOK,
	}, s.handleUpsertBook)
}

// === DTOs ===

// SearchBooksInput contains parameters for searching the catalog.
type SearchBooksInput struct {
	Query            string `query:"q" maxLength:"200" doc:"Free-text query"`
	Limit            int    `query:"limit" doc:"Page size (default 20, capped at 100)"`
	Offset           int    `query:"offset" doc:"Pagination offset (default 0)"`
	Language         string `query:"language" maxLength:"8" doc:"Language code filter"`
	PublishedYearMin int    `query:"publishedYearMin" doc:"Earliest publication year (0 = unbounded)"`
	PublishedYearMax int    `query:"publishedYearMax" doc:"Latest publication year (0 = unbounded)"`
	GenreSlugs       string `query:"genreSlugs" maxLength:"500" doc:"Comma-separated genre slugs; a book matches any of them"`
	Sort             string `query:"sort" doc:"relevance, published_year:asc, published_year:desc, like_count:desc, reading_count:desc, read_count:desc or created_at:desc"`
}

// SearchBooksOutput wraps the search result for Huma.
type SearchBooksOutput struct {
	Body *service.SearchResult
}

// GetBookInput contains parameters for fetching a book.
type GetBookInput struct {
	ID           string `path:"id" maxLength:"128" doc:"Book ID"`
	IncludeStats bool   `query:"includeStats" doc:"Compute reaction and status counters"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// AuthorBody is an author credit in an upsert request.
type AuthorBody struct {
	ID             string `json:"id,omitempty" doc:"Existing author ID; generated when empty"`
	Name           string `json:"name" validate:"required,max=300" doc:"Display name"`
	SortName       string `json:"sortName,omitempty" validate:"max=300" doc:"Name used for sorting"`
	ExternalSource string `json:"externalSource,omitempty" validate:"omitempty,external_source" doc:"Source catalog of the author"`
	ExternalID     string `json:"externalId,omitempty" validate:"max=128" doc:"Author ID in the source catalog"`
	Role           string `json:"role,omitempty" validate:"max=64" doc:"Credit role, e.g. author or translator"`
	Position       int    `json:"position,omitempty" validate:"gte=0" doc:"Display order; lower first"`
}

// GenreBody is a genre assignment in an upsert request.
type GenreBody struct {
	ID         string   `json:"id,omitempty" doc:"Genre ID used when the slug is new"`
	Name       string   `json:"name,omitempty" validate:"max=200" doc:"Display name"`
	Slug       string   `json:"slug,omitempty" validate:"omitempty,slug" doc:"Unique slug; derived from the name when empty"`
	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1" doc:"Assignment confidence between 0 and 1"`
}

// UpsertBookBody is the upsert request payload.
type UpsertBookBody struct {
	ID             string `json:"id,omitempty" validate:"max=128" doc:"Book ID hint"`
	ExternalSource string `json:"externalSource,omitempty" validate:"omitempty,external_source" doc:"OPEN_LIBRARY, GOOGLE_BOOKS or OTHER"`
	ExternalID     string `json:"externalId,omitempty" validate:"max=128" doc:"Book ID in the source catalog; required when externalSource is set"`

	Title         string `json:"title" validate:"required,max=500" doc:"Title"`
	Subtitle      string `json:"subtitle,omitempty" validate:"max=500" doc:"Subtitle"`
	Description   string `json:"description,omitempty" validate:"max=20000" doc:"Description"`
	Language      string `json:"language,omitempty" validate:"omitempty,language" doc:"Language code"`
	PublishedYear int    `json:"publishedYear,omitempty" validate:"gte=0,lte=9999" doc:"Year of first publication"`
	CoverImageURL string `json:"coverImageUrl,omitempty" validate:"omitempty,url" doc:"Cover image URL"`

	Authors []AuthorBody `json:"authors,omitempty" validate:"max=50,dive" doc:"Author credits; existing credits not listed are kept"`
	Genres  []GenreBody  `json:"genres,omitempty" validate:"max=50,dive" doc:"Genre assignments; existing assignments not listed are kept"`

	ReindexSearchDocument *bool `json:"reindexSearchDocument,omitempty" doc:"Write the search document after saving (default true)"`
}

// UpsertBookInput wraps the upsert payload for Huma.
type UpsertBookInput struct {
	Body UpsertBookBody
}

// UpsertBookOutput carries the saved book. Status is 201 when the book was
// created.
type UpsertBookOutput struct {
	Status int
	Body   *service.UpsertBookResult
}

// === Handlers ===

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	result, err := s.catalog.Search(ctx, query.Request{
		Query:            input.Query,
		Limit:            input.Limit,
		Offset:           input.Offset,
		Language:         input.Language,
		PublishedYearMin: input.PublishedYearMin,
		PublishedYearMax: input.PublishedYearMax,
		GenreSlugs:       query.ParseGenreSlugs(input.GenreSlugs),
		Sort:             input.Sort,
	})
	if err != nil {
		return nil, statusError(err)
	}
	return &SearchBooksOutput{Body: result}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.catalog.GetBook(ctx, input.ID, input.IncludeStats)
	if err != nil {
		return nil, statusError(err)
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpsertBook(ctx context.Context, input *UpsertBookInput) (*UpsertBookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, statusError(err)
	}
	if err := s.validator.Validate(&input.Body); err != nil {
		return nil, statusError(err)
	}

	req, err := input.Body.toRequest()
	if err != nil {
		return nil, statusError(err)
	}

	result, err := s.catalog.UpsertBook(ctx, req)
	if err != nil {
		return nil, statusError(err)
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return &UpsertBookOutput{Status: status, Body: result}, nil
}

// toRequest converts the wire payload. Source names are parsed here so
// numeric wire codes are accepted.
func (b *UpsertBookBody) toRequest() (service.UpsertBookRequest, error) {
	source, err := domain.ParseExternalSource(b.ExternalSource)
	if err != nil {
		return service.UpsertBookRequest{}, domainerrors.InvalidArgument(err.Error())
	}
	if source.IsSet() && strings.TrimSpace(b.ExternalID) == "" {
		return service.UpsertBookRequest{}, domainerrors.InvalidArgumentWithDetails("validation failed", map[string]string{
			"externalId": "is required when externalSource is set",
		})
	}

	reindex := true
	if b.ReindexSearchDocument != nil {
		reindex = *b.ReindexSearchDocument
	}

	req := service.UpsertBookRequest{
		ID:             b.ID,
		ExternalSource: source,
		ExternalID:     b.ExternalID,
		Title:          b.Title,
		Subtitle:       b.Subtitle,
		Description:    b.Description,
		Language:       b.Language,
		PublishedYear:  b.PublishedYear,
		CoverImageURL:  b.CoverImageURL,
		Authors:        make([]service.AuthorInput, 0, len(b.Authors)),
		Genres:         make([]service.GenreInput, 0, len(b.Genres)),
		Reindex:        reindex,
	}

	for _, a := range b.Authors {
		authorSource, err := domain.ParseExternalSource(a.ExternalSource)
		if err != nil {
			return service.UpsertBookRequest{}, domainerrors.InvalidArgument(err.Error())
		}
		req.Authors = append(req.Authors, service.AuthorInput{
			ID:             a.ID,
			Name:           a.Name,
			SortName:       a.SortName,
			ExternalSource: authorSource,
			ExternalID:     a.ExternalID,
			Role:           a.Role,
			Position:       a.Position,
		})
	}
	for _, g := range b.Genres {
		req.Genres = append(req.Genres, service.GenreInput{
			ID:         g.ID,
			Name:       g.Name,
			Slug:       g.Slug,
			Confidence: g.Confidence,
		})
	}

	return req, nil
}
