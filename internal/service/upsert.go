package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
	"github.com/bookster/catalog-server/internal/genre"
	"github.com/bookster/catalog-server/internal/id"
	"github.com/bookster/catalog-server/internal/store"
)

// AuthorInput is an author credit supplied to UpsertBook.
type AuthorInput struct {
	ID             string                `json:"id,omitempty"`
	Name           string                `json:"name"`
	SortName       string                `json:"sortName,omitempty"`
	ExternalSource domain.ExternalSource `json:"externalSource,omitempty"`
	ExternalID     string                `json:"externalId,omitempty"`
	Role           string                `json:"role,omitempty"`
	Position       int                   `json:"position"`
}

// GenreInput is a genre assignment supplied to UpsertBook.
type GenreInput struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Slug       string   `json:"slug,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// UpsertBookRequest describes a book write. ID, ExternalSource and
// ExternalID are identity hints.
type UpsertBookRequest struct {
	ID             string
	ExternalSource domain.ExternalSource
	ExternalID     string

	Title         string
	Subtitle      string
	Description   string
	Language      string
	PublishedYear int
	CoverImageURL string

	Authors []AuthorInput
	Genres  []GenreInput

	// Reindex writes the book's search document after the store write.
	Reindex bool
}

// UpsertBookResult is the hydrated book and whether a new row was created.
type UpsertBookResult struct {
	Book    *domain.Book `json:"book"`
	Created bool         `json:"created"`
}

// UpsertRequestFromBook builds a request that writes b as is.
func UpsertRequestFromBook(b *domain.Book, reindex bool) UpsertBookRequest {
	req := UpsertBookRequest{
		ID:             b.ID,
		ExternalSource: b.ExternalSource,
		ExternalID:     b.ExternalID,
		Title:          b.Title,
		Subtitle:       b.Subtitle,
		Description:    b.Description,
		Language:       b.Language,
		PublishedYear:  b.PublishedYear,
		CoverImageURL:  b.CoverImageURL,
		Authors:        make([]AuthorInput, 0, len(b.Authors)),
		Genres:         make([]GenreInput, 0, len(b.Genres)),
		Reindex:        reindex,
	}
	for _, a := range b.Authors {
		req.Authors = append(req.Authors, AuthorInput{
			ID:             a.ID,
			Name:           a.Name,
			SortName:       a.SortName,
			ExternalSource: a.ExternalSource,
			ExternalID:     a.ExternalID,
			Role:           a.Role,
			Position:       a.Position,
		})
	}
	for _, g := range b.Genres {
		req.Genres = append(req.Genres, GenreInput{
			ID:         g.ID,
			Name:       g.Name,
			Slug:       g.Slug,
			Confidence: g.Confidence,
		})
	}
	return req
}

func (r *UpsertBookRequest) normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.ExternalID = strings.TrimSpace(r.ExternalID)
	r.Title = strings.TrimSpace(r.Title)
}

func (r *UpsertBookRequest) validate() error {
	if r.Title == "" {
		return domainerrors.InvalidArgument("title is required")
	}
	if !r.ExternalSource.IsValid() {
		return domainerrors.InvalidArgumentf("unknown external source %q", r.ExternalSource)
	}
	if r.ExternalSource.IsSet() && r.ExternalID == "" {
		return domainerrors.InvalidArgument("externalId is required when externalSource is set")
	}
	if r.PublishedYear < 0 {
		return domainerrors.InvalidArgument("publishedYear must not be negative")
	}
	for i, a := range r.Authors {
		if strings.TrimSpace(a.Name) == "" {
			return domainerrors.InvalidArgumentf("authors[%d]: name is required", i)
		}
		if !a.ExternalSource.IsValid() {
			return domainerrors.InvalidArgumentf("authors[%d]: unknown external source %q", i, a.ExternalSource)
		}
	}
	for i, g := range r.Genres {
		if genre.ResolveSlug(g.Slug, g.Name) == "" {
			return domainerrors.InvalidArgumentf("genres[%d]: slug or name is required", i)
		}
	}
	return nil
}

// UpsertBook creates or updates a book and adds its author and genre
// associations.
//
// Identity is resolved in order: the (externalSource, externalId) pair,
// then the id, then a new row. A match on the external pair overwrites
// every scalar field; a match on the id keeps stored values for fields the
// request leaves empty. Associations not named in the request are left in
// place.
func (s *CatalogService) UpsertBook(ctx context.Context, req UpsertBookRequest) (*UpsertBookResult, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	book, created, err := s.writeBook(ctx, &req)
	if err != nil {
		return nil, err
	}

	if err := s.syncAuthors(ctx, book.ID, req.Authors); err != nil {
		return nil, err
	}
	if err := s.syncGenres(ctx, book.ID, req.Genres); err != nil {
		return nil, err
	}

	hydrated, err := s.hydrate(ctx, book.ID, true)
	if err != nil {
		return nil, err
	}

	if req.Reindex {
		if err := s.writeDocuments(ctx, hydrated); err != nil {
			return nil, err
		}
	}

	s.logger.Info("book upserted", "id", hydrated.ID, "title", hydrated.Title, "created", created)
	return &UpsertBookResult{Book: hydrated, Created: created}, nil
}

// writeBook resolves the target row and writes the scalar fields.
func (s *CatalogService) writeBook(ctx context.Context, req *UpsertBookRequest) (*domain.Book, bool, error) {
	if req.ExternalSource.IsSet() && req.ExternalID != "" {
		existing, err := s.store.GetBookByExternalID(ctx, req.ExternalSource, req.ExternalID)
		switch {
		case err == nil:
			overwriteBook(existing, req)
			if err := s.store.UpdateBook(ctx, existing); err != nil {
				return nil, false, storeError(err, "update book %s", existing.ID)
			}
			return existing, false, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, false, storeError(err, "find book by external id")
		}
		return s.createBook(ctx, req, req.ID)
	}

	if req.ID != "" {
		existing, err := s.store.GetBook(ctx, req.ID)
		switch {
		case err == nil:
			mergeBook(existing, req)
			if err := s.store.UpdateBook(ctx, existing); err != nil {
				return nil, false, storeError(err, "update book %s", existing.ID)
			}
			return existing, false, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, false, storeError(err, "find book %s", req.ID)
		}
		return s.createBook(ctx, req, req.ID)
	}

	return s.createBook(ctx, req, "")
}

func (s *CatalogService) createBook(ctx context.Context, req *UpsertBookRequest, bookID string) (*domain.Book, bool, error) {
	if bookID == "" {
		bookID = id.NewBookID()
	}
	book := &domain.Book{
		ID:             bookID,
		Title:          req.Title,
		Subtitle:       req.Subtitle,
		Description:    req.Description,
		Language:       req.Language,
		PublishedYear:  req.PublishedYear,
		CoverImageURL:  req.CoverImageURL,
		ExternalSource: req.ExternalSource,
		ExternalID:     req.ExternalID,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, false, storeError(err, "create book %s", bookID)
	}
	return book, true, nil
}

// overwriteBook replaces every scalar field, clearing those the request
// leaves empty.
func overwriteBook(b *domain.Book, req *UpsertBookRequest) {
	b.Title = req.Title
	b.Subtitle = req.Subtitle
	b.Description = req.Description
	b.Language = req.Language
	b.PublishedYear = req.PublishedYear
	b.CoverImageURL = req.CoverImageURL
	b.Touch()
}

// mergeBook replaces only the scalar fields the request sets.
func mergeBook(b *domain.Book, req *UpsertBookRequest) {
	b.Title = req.Title
	b.Subtitle = coalesce(req.Subtitle, b.Subtitle)
	b.Description = coalesce(req.Description, b.Description)
	b.Language = coalesce(req.Language, b.Language)
	b.CoverImageURL = coalesce(req.CoverImageURL, b.CoverImageURL)
	if req.PublishedYear > 0 {
		b.PublishedYear = req.PublishedYear
	}
	b.Touch()
}

func coalesce(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}

// syncAuthors upserts each author by id and then its credit on the book.
func (s *CatalogService) syncAuthors(ctx context.Context, bookID string, authors []AuthorInput) error {
	for _, in := range authors {
		authorID := strings.TrimSpace(in.ID)
		if authorID == "" {
			generated, err := id.Generate("author")
			if err != nil {
				return domainerrors.Wrap(err, domainerrors.CodeInternal, "generate author id")
			}
			authorID = generated
		}

		author := domain.Author{
			ID:             authorID,
			Name:           strings.TrimSpace(in.Name),
			SortName:       in.SortName,
			ExternalSource: in.ExternalSource,
			ExternalID:     in.ExternalID,
		}
		if err := s.store.UpsertAuthor(ctx, &author); err != nil {
			return storeError(err, "upsert author %s", authorID)
		}

		credit := domain.BookAuthor{Author: author, Role: in.Role, Position: in.Position}
		if err := s.store.UpsertBookAuthor(ctx, bookID, credit); err != nil {
			return storeError(err, "link author %s to book %s", authorID, bookID)
		}
	}
	return nil
}

// syncGenres upserts each genre by slug and then its assignment on the book.
func (s *CatalogService) syncGenres(ctx context.Context, bookID string, genres []GenreInput) error {
	for _, in := range genres {
		slug := genre.ResolveSlug(in.Slug, in.Name)
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = slug
		}

		genreID := strings.TrimSpace(in.ID)
		if genreID == "" {
			generated, err := id.Generate("genre")
			if err != nil {
				return domainerrors.Wrap(err, domainerrors.CodeInternal, "generate genre id")
			}
			genreID = generated
		}

		saved, err := s.store.UpsertGenreBySlug(ctx, &domain.Genre{ID: genreID, Name: name, Slug: slug})
		if err != nil {
			return storeError(err, "upsert genre %s", slug)
		}
		if err := s.store.UpsertBookGenre(ctx, bookID, saved.ID, in.Confidence); err != nil {
			return storeError(err, "link genre %s to book %s", slug, bookID)
		}
	}
	return nil
}

// hydrate loads a book with its associations and, when withStats is set,
// live counters.
func (s *CatalogService) hydrate(ctx context.Context, bookID string, withStats bool) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeError(err, "book %s", bookID)
	}
	if withStats {
		stats, err := s.computeStats(ctx, bookID)
		if err != nil {
			return nil, storeError(err, "compute stats for %s", bookID)
		}
		book.BookStats = stats
	}
	return book, nil
}
