// Package query compiles catalog search requests into index filters, sort
// directives and the typed relational filter used by the store.
package query

import "strings"

// Pagination limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Index attribute names shared by the compiler and the search index.
const (
	FieldLanguage      = "language"
	FieldPublishedYear = "publishedYear"
	FieldGenreSlugs    = "genreSlugs"
	FieldLikeCount     = "likeCount"
	FieldReadingCount  = "readingCount"
	FieldReadCount     = "readCount"
	FieldCreatedAt     = "createdAt"
)

// Request is a structured catalog search.
// Zero values mean "not supplied".
type Request struct {
	Query            string
	Limit            int
	Offset           int
	Language         string
	PublishedYearMin int
	PublishedYearMax int
	GenreSlugs       []string
	Sort             string
}

// Plan is a compiled Request.
type Plan struct {
	Text   string
	Limit  int
	Offset int

	// Filter is nil when the request carries no constraint.
	Filter *Filter
	// Sort is nil for relevance order.
	Sort []SortDirective

	Store BookFilter
}

// BookFilter is the relational form of a request's constraints.
// Zero values apply no constraint.
type BookFilter struct {
	TitleContains string
	Language      string
	YearMin       int
	YearMax       int
	GenreSlugs    []string
}

// Compile translates req into a Plan. It never fails: unknown sort keys
// fall back to relevance and out-of-range pagination is clamped.
func Compile(req Request) Plan {
	text := strings.TrimSpace(req.Query)
	language := strings.TrimSpace(req.Language)
	slugs := cleanSlugs(req.GenreSlugs)

	// Non-positive years mean "unbounded".
	yearMin := max(req.PublishedYearMin, 0)
	yearMax := max(req.PublishedYearMax, 0)

	var f Filter
	if language != "" {
		f.Clauses = append(f.Clauses, Equals{Field: FieldLanguage, Value: language})
	}
	if yearMin > 0 {
		f.Clauses = append(f.Clauses, Range{Field: FieldPublishedYear, Op: OpGreaterOrEqual, Value: yearMin})
	}
	if yearMax > 0 {
		f.Clauses = append(f.Clauses, Range{Field: FieldPublishedYear, Op: OpLessOrEqual, Value: yearMax})
	}
	if len(slugs) > 0 {
		f.Clauses = append(f.Clauses, AnyOf{Field: FieldGenreSlugs, Values: slugs})
	}

	plan := Plan{
		Text:   text,
		Limit:  ClampLimit(req.Limit),
		Offset: max(req.Offset, 0),
		Sort:   ParseSort(req.Sort).Directives(),
		Store: BookFilter{
			TitleContains: text,
			Language:      language,
			YearMin:       yearMin,
			YearMax:       yearMax,
			GenreSlugs:    slugs,
		},
	}
	if len(f.Clauses) > 0 {
		plan.Filter = &f
	}
	return plan
}

// ClampLimit applies the default page size to non-positive limits and caps
// the rest at MaxLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// ParseGenreSlugs splits a comma separated list, dropping blanks.
func ParseGenreSlugs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return cleanSlugs(strings.Split(s, ","))
}

func cleanSlugs(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
