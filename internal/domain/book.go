// Package domain contains the catalog's core entities.
package domain

// Book is the canonical catalog entry.
// Authors are ordered by Position; Genres are an unordered set.
type Book struct {
	Timestamps
	BookStats

	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Subtitle       string         `json:"subtitle,omitempty"`
	Description    string         `json:"description,omitempty"`
	Language       string         `json:"language,omitempty"`
	PublishedYear  int            `json:"publishedYear,omitempty"`
	CoverImageURL  string         `json:"coverImageUrl,omitempty"`
	ExternalSource ExternalSource `json:"externalSource,omitempty"`
	ExternalID     string         `json:"externalId,omitempty"`

	Authors []BookAuthor `json:"authors"`
	Genres  []BookGenre  `json:"genres"`

	// Denormalized from Authors and Genres by Denormalize.
	PrimaryAuthor string   `json:"primaryAuthor,omitempty"`
	AuthorNames   []string `json:"authorNames"`
	GenreSlugs    []string `json:"genreSlugs"`
}

// BookStats holds the activity counters derived from reactions and statuses.
// They are never stored on the book row.
type BookStats struct {
	LikeCount    int `json:"likeCount"`
	DislikeCount int `json:"dislikeCount"`
	WantCount    int `json:"wantCount"`
	ReadingCount int `json:"readingCount"`
	ReadCount    int `json:"readCount"`
	DNFCount     int `json:"dnfCount"`
}

// HasExternalIdentity reports whether the book carries a usable
// (source, external id) pair.
func (b *Book) HasExternalIdentity() bool {
	return b.ExternalSource.IsSet() && b.ExternalID != ""
}

// Denormalize recomputes PrimaryAuthor, AuthorNames and GenreSlugs.
// Authors must already be in display order.
func (b *Book) Denormalize() {
	b.AuthorNames = make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		b.AuthorNames = append(b.AuthorNames, a.Name)
	}
	b.PrimaryAuthor = ""
	if len(b.AuthorNames) > 0 {
		b.PrimaryAuthor = b.AuthorNames[0]
	}

	b.GenreSlugs = make([]string, 0, len(b.Genres))
	for _, g := range b.Genres {
		b.GenreSlugs = append(b.GenreSlugs, g.Slug)
	}
}
