package query

import "strings"

// SortKey is one of the supported result orderings.
type SortKey string

// Supported sort keys.
const (
	SortRelevance         SortKey = "relevance"
	SortPublishedYearAsc  SortKey = "published_year:asc"
	SortPublishedYearDesc SortKey = "published_year:desc"
	SortLikeCountDesc     SortKey = "like_count:desc"
	SortReadingCountDesc  SortKey = "reading_count:desc"
	SortReadCountDesc     SortKey = "read_count:desc"
	SortCreatedAtDesc     SortKey = "created_at:desc"
)

var sortDirectives = map[SortKey]SortDirective{
	SortPublishedYearAsc:  {Field: FieldPublishedYear},
	SortPublishedYearDesc: {Field: FieldPublishedYear, Descending: true},
	SortLikeCountDesc:     {Field: FieldLikeCount, Descending: true},
	SortReadingCountDesc:  {Field: FieldReadingCount, Descending: true},
	SortReadCountDesc:     {Field: FieldReadCount, Descending: true},
	SortCreatedAtDesc:     {Field: FieldCreatedAt, Descending: true},
}

// SortDirective orders results by one index attribute.
type SortDirective struct {
	Field      string
	Descending bool
}

// String renders the directive as "field:asc" or "field:desc".
func (d SortDirective) String() string {
	if d.Descending {
		return d.Field + ":desc"
	}
	return d.Field + ":asc"
}

// ParseSort maps a sort token to a SortKey. Empty and unrecognized tokens
// yield SortRelevance.
func ParseSort(s string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sortDirectives[key]; ok {
		return key
	}
	return SortRelevance
}

// Directives returns the index sort for k, or nil for relevance order.
func (k SortKey) Directives() []SortDirective {
	d, ok := sortDirectives[k]
	if !ok {
		return nil
	}
	return []SortDirective{d}
}
