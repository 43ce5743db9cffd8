package search

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Settings declares how the index treats document attributes.
// Earlier searchable attributes weigh more in relevance.
type Settings struct {
	SearchableAttributes []string `json:"searchableAttributes"`
	FilterableAttributes []string `json:"filterableAttributes"`
	SortableAttributes   []string `json:"sortableAttributes"`
}

// DefaultSettings returns the catalog's book index settings.
func DefaultSettings() Settings {
	return Settings{
		SearchableAttributes: []string{"title", "subtitle", "primaryAuthor", "authorNames", "description"},
		FilterableAttributes: []string{"genreSlugs", "language", "publishedYear"},
		SortableAttributes:   []string{"publishedYear", "likeCount", "readingCount", "readCount", "createdAt"},
	}
}

// settingsKey is where settings live in bleve's internal storage.
var settingsKey = []byte("catalog.settings")

// Validate checks every attribute against the mapping.
func (s Settings) Validate() error {
	for _, a := range s.SearchableAttributes {
		if !slices.Contains(textAttributes, a) {
			return fmt.Errorf("attribute %q cannot be searchable", a)
		}
	}
	for _, a := range s.FilterableAttributes {
		if !isFilterableAttribute(a) {
			return fmt.Errorf("attribute %q cannot be filterable", a)
		}
	}
	for _, a := range s.SortableAttributes {
		if !slices.Contains(numericAttributes, a) {
			return fmt.Errorf("attribute %q cannot be sortable", a)
		}
	}
	return nil
}

func (s Settings) encode() ([]byte, error) {
	return json.Marshal(s)
}

func decodeSettings(b []byte) (Settings, error) {
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}
