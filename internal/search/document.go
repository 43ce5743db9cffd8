// Package search is the catalog's bleve-backed search tier.
// Book documents are flat, denormalized projections of canonical books;
// they may be stale or missing and are rebuilt from the store on demand.
package search

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bookster/catalog-server/internal/domain"
)

// BookDocument is the indexed form of a book.
//
// Nested authors and genres do not carry their timestamps.
type BookDocument struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle,omitempty"`
	Description    string `json:"description,omitempty"`
	Language       string `json:"language,omitempty"`
	PublishedYear  int    `json:"publishedYear,omitempty"`
	CoverImageURL  string `json:"coverImageUrl,omitempty"`
	ExternalSource string `json:"externalSource,omitempty"`
	ExternalID     string `json:"externalId,omitempty"`

	Authors []DocumentAuthor `json:"authors"`
	Genres  []DocumentGenre  `json:"genres"`

	PrimaryAuthor string   `json:"primaryAuthor,omitempty"`
	AuthorNames   []string `json:"authorNames"`
	GenreSlugs    []string `json:"genreSlugs"`

	LikeCount    int `json:"likeCount"`
	DislikeCount int `json:"dislikeCount"`
	WantCount    int `json:"wantCount"`
	ReadingCount int `json:"readingCount"`
	ReadCount    int `json:"readCount"`
	DNFCount     int `json:"dnfCount"`

	// RFC 3339 with nanoseconds.
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// DocumentAuthor is an author credit embedded in a BookDocument.
type DocumentAuthor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SortName       string `json:"sortName,omitempty"`
	ExternalSource string `json:"externalSource,omitempty"`
	ExternalID     string `json:"externalId,omitempty"`
	Role           string `json:"role,omitempty"`
	Position       int    `json:"position"`
}

// DocumentGenre is a genre assignment embedded in a BookDocument.
type DocumentGenre struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// sourceField holds the JSON encoding of the whole document so hits can be
// decoded without re-reading the store.
const sourceField = "doc"

// ToMap converts the document into the field map bleve indexes.
// Only mapped attributes are indexed; the full document rides along in
// sourceField.
func (d *BookDocument) ToMap() (map[string]any, error) {
	src, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", d.ID, err)
	}

	m := map[string]any{
		"id":            d.ID,
		"title":         d.Title,
		"subtitle":      d.Subtitle,
		"description":   d.Description,
		"primaryAuthor": d.PrimaryAuthor,
		"authorNames":   d.AuthorNames,
		"genreSlugs":    d.GenreSlugs,
		"language":      d.Language,
		"likeCount":     float64(d.LikeCount),
		"readingCount":  float64(d.ReadingCount),
		"readCount":     float64(d.ReadCount),
		sourceField:     string(src),
	}
	// Books without a year sort last instead of as year zero.
	if d.PublishedYear > 0 {
		m["publishedYear"] = float64(d.PublishedYear)
	}
	if t, err := time.Parse(time.RFC3339Nano, d.CreatedAt); err == nil {
		m["createdAt"] = float64(t.UnixMilli())
	}
	return m, nil
}

// decodeDocument parses the JSON stored in sourceField.
func decodeDocument(src string) (*BookDocument, error) {
	var doc BookDocument
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// BookToDocument projects a hydrated book into its indexed form.
func BookToDocument(b *domain.Book) *BookDocument {
	doc := &BookDocument{
		ID:             b.ID,
		Title:          b.Title,
		Subtitle:       b.Subtitle,
		Description:    b.Description,
		Language:       b.Language,
		PublishedYear:  b.PublishedYear,
		CoverImageURL:  b.CoverImageURL,
		ExternalSource: string(b.ExternalSource),
		ExternalID:     b.ExternalID,
		Authors:        make([]DocumentAuthor, 0, len(b.Authors)),
		Genres:         make([]DocumentGenre, 0, len(b.Genres)),
		PrimaryAuthor:  b.PrimaryAuthor,
		AuthorNames:    nonNil(b.AuthorNames),
		GenreSlugs:     nonNil(b.GenreSlugs),
		LikeCount:      b.LikeCount,
		DislikeCount:   b.DislikeCount,
		WantCount:      b.WantCount,
		ReadingCount:   b.ReadingCount,
		ReadCount:      b.ReadCount,
		DNFCount:       b.DNFCount,
		CreatedAt:      formatTime(b.CreatedAt),
		UpdatedAt:      formatTime(b.UpdatedAt),
	}

	for _, a := range b.Authors {
		doc.Authors = append(doc.Authors, DocumentAuthor{
			ID:             a.ID,
			Name:           a.Name,
			SortName:       a.SortName,
			ExternalSource: string(a.ExternalSource),
			ExternalID:     a.ExternalID,
			Role:           a.Role,
			Position:       a.Position,
		})
	}
	for _, g := range b.Genres {
		doc.Genres = append(doc.Genres, DocumentGenre{
			ID:         g.ID,
			Name:       g.Name,
			Slug:       g.Slug,
			Confidence: g.Confidence,
		})
	}

	return doc
}

// DocumentToBook rebuilds a book from its indexed form. Nested authors and
// genres come back with zero timestamps.
func DocumentToBook(d *BookDocument) *domain.Book {
	b := &domain.Book{
		Timestamps: domain.Timestamps{
			CreatedAt: parseTime(d.CreatedAt),
			UpdatedAt: parseTime(d.UpdatedAt),
		},
		BookStats: domain.BookStats{
			LikeCount:    d.LikeCount,
			DislikeCount: d.DislikeCount,
			WantCount:    d.WantCount,
			ReadingCount: d.ReadingCount,
			ReadCount:    d.ReadCount,
			DNFCount:     d.DNFCount,
		},
		ID:             d.ID,
		Title:          d.Title,
		Subtitle:       d.Subtitle,
		Description:    d.Description,
		Language:       d.Language,
		PublishedYear:  d.PublishedYear,
		CoverImageURL:  d.CoverImageURL,
		ExternalSource: domain.ExternalSource(d.ExternalSource),
		ExternalID:     d.ExternalID,
		Authors:        make([]domain.BookAuthor, 0, len(d.Authors)),
		Genres:         make([]domain.BookGenre, 0, len(d.Genres)),
		PrimaryAuthor:  d.PrimaryAuthor,
		AuthorNames:    nonNil(d.AuthorNames),
		GenreSlugs:     nonNil(d.GenreSlugs),
	}

	for _, a := range d.Authors {
		b.Authors = append(b.Authors, domain.BookAuthor{
			Author: domain.Author{
				ID:             a.ID,
				Name:           a.Name,
				SortName:       a.SortName,
				ExternalSource: domain.ExternalSource(a.ExternalSource),
				ExternalID:     a.ExternalID,
			},
			Role:     a.Role,
			Position: a.Position,
		})
	}
	for _, g := range d.Genres {
		b.Genres = append(b.Genres, domain.BookGenre{
			Genre:      domain.Genre{ID: g.ID, Name: g.Name, Slug: g.Slug},
			Confidence: g.Confidence,
		})
	}

	return b
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
