package openlibrary

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookster/catalog-server/internal/domain"
)

// CoverBaseURL serves cover images by numeric cover id.
const CoverBaseURL = "https://covers.openlibrary.org/b/id"

// MapDoc converts a search result into a catalog book preview.
//
// Preview ids are "ol-" plus the last segment of the work key, so they are
// safe in URL paths. The full key is kept as the external id. Authors
// without a key get an id scoped to the book. Subjects are not mapped to
// genres.
func MapDoc(doc Doc) domain.Book {
	now := time.Now().UTC()

	b := domain.Book{
		Timestamps:    domain.Timestamps{CreatedAt: now, UpdatedAt: now},
		ID:            previewID(doc),
		Title:         doc.Title,
		Subtitle:      doc.Subtitle,
		PublishedYear: doc.FirstPublishYear,
		Authors:       make([]domain.BookAuthor, 0, len(doc.AuthorName)),
		Genres:        []domain.BookGenre{},
	}
	if doc.Key != "" {
		b.ExternalSource = domain.ExternalSourceOpenLibrary
		b.ExternalID = doc.Key
	}

	if len(doc.Language) > 0 {
		b.Language = doc.Language[0]
	}
	if doc.CoverID > 0 {
		b.CoverImageURL = fmt.Sprintf("%s/%d-M.jpg", CoverBaseURL, doc.CoverID)
	}

	for i, name := range doc.AuthorName {
		author := domain.Author{
			Timestamps: domain.Timestamps{CreatedAt: now, UpdatedAt: now},
			ID:         fmt.Sprintf("%s-author-%d", b.ID, i),
			Name:       name,
			SortName:   name,
		}
		if i < len(doc.AuthorKey) && doc.AuthorKey[i] != "" {
			author.ID = "ol-" + doc.AuthorKey[i]
			author.ExternalSource = domain.ExternalSourceOpenLibrary
			author.ExternalID = doc.AuthorKey[i]
		}
		b.Authors = append(b.Authors, domain.BookAuthor{Author: author, Position: i})
	}

	b.Denormalize()
	return b
}

func previewID(doc Doc) string {
	if key := strings.Trim(doc.Key, "/"); key != "" {
		return "ol-" + key[strings.LastIndex(key, "/")+1:]
	}
	if doc.CoverID > 0 {
		return fmt.Sprintf("ol-cover-%d", doc.CoverID)
	}
	return fmt.Sprintf("ol-%d", time.Now().UnixNano())
}
