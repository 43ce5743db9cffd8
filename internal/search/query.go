package search

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	domainerrors "github.com/bookster/catalog-server/internal/errors"
	catalogquery "github.com/bookster/catalog-server/internal/query"
)

// Query is a compiled search against the book index.
type Query struct {
	Text   string
	Filter *catalogquery.Filter
	Sort   []catalogquery.SortDirective
	Limit  int
	Offset int
}

// Result holds decoded hits and the index's estimate of the total matches.
type Result struct {
	Hits           []*BookDocument
	EstimatedTotal int
}

// Search runs q. Filters and sorts on attributes the settings do not
// declare filterable or sortable are rejected.
func (s *SearchIndex) Search(ctx context.Context, q Query) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkAttributes(q); err != nil {
		return nil, err
	}

	searchRequest := bleve.NewSearchRequestOptions(s.buildQuery(q), q.Limit, q.Offset, false)
	searchRequest.SortBy(sortOrder(q.Sort))
	searchRequest.Fields = []string{sourceField}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, domainerrors.UpstreamUnavailable(err, "execute search")
	}

	result := &Result{
		Hits:           make([]*BookDocument, 0, len(searchResult.Hits)),
		EstimatedTotal: int(searchResult.Total),
	}

	for _, hit := range searchResult.Hits {
		src, ok := hit.Fields[sourceField].(string)
		if !ok {
			s.logger.Warn("search hit without stored document", "id", hit.ID)
			continue
		}
		doc, err := decodeDocument(src)
		if err != nil {
			s.logger.Warn("skipping undecodable search hit", "id", hit.ID, "error", err)
			continue
		}
		result.Hits = append(result.Hits, doc)
	}

	return result, nil
}

func (s *SearchIndex) checkAttributes(q Query) error {
	for _, field := range q.Filter.Fields() {
		if !slices.Contains(s.settings.FilterableAttributes, field) {
			return domainerrors.InvalidArgumentf("attribute %q is not filterable", field)
		}
	}
	for _, d := range q.Sort {
		if !slices.Contains(s.settings.SortableAttributes, d.Field) {
			return domainerrors.InvalidArgumentf("attribute %q is not sortable", d.Field)
		}
	}
	return nil
}

// buildQuery combines the text query and filter clauses with AND.
func (s *SearchIndex) buildQuery(q Query) query.Query {
	var queries []query.Query

	if text := strings.TrimSpace(q.Text); text != "" {
		queries = append(queries, s.textQuery(text))
	}
	if q.Filter != nil {
		for _, c := range q.Filter.Clauses {
			queries = append(queries, clauseQuery(c))
		}
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// textQuery matches text against every searchable attribute with typo
// tolerance. Earlier attributes get a larger boost; a title prefix match
// covers partially typed words.
func (s *SearchIndex) textQuery(text string) query.Query {
	attrs := s.settings.SearchableAttributes
	if len(attrs) == 0 {
		attrs = textAttributes
	}

	textQueries := make([]query.Query, 0, len(attrs)+1)
	for i, field := range attrs {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(field)
		mq.SetFuzziness(1)
		mq.SetBoost(float64(len(attrs) - i))
		textQueries = append(textQueries, mq)
	}

	words := strings.Fields(strings.ToLower(text))
	if last := words[len(words)-1]; len(last) >= 2 {
		pq := bleve.NewPrefixQuery(last)
		pq.SetField("title")
		pq.SetBoost(0.5)
		textQueries = append(textQueries, pq)
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}

func clauseQuery(c catalogquery.Clause) query.Query {
	switch c := c.(type) {
	case catalogquery.Equals:
		tq := bleve.NewTermQuery(c.Value)
		tq.SetField(c.Field)
		return tq
	case catalogquery.Range:
		v := float64(c.Value)
		inclusive := true
		var rq *query.NumericRangeQuery
		if c.Op == catalogquery.OpGreaterOrEqual {
			rq = bleve.NewNumericRangeInclusiveQuery(&v, nil, &inclusive, nil)
		} else {
			rq = bleve.NewNumericRangeInclusiveQuery(nil, &v, nil, &inclusive)
		}
		rq.SetField(c.Field)
		return rq
	case catalogquery.AnyOf:
		terms := make([]query.Query, len(c.Values))
		for i, v := range c.Values {
			tq := bleve.NewTermQuery(v)
			tq.SetField(c.Field)
			terms[i] = tq
		}
		return bleve.NewDisjunctionQuery(terms...)
	default:
		panic(fmt.Sprintf("search: unhandled filter clause %T", c))
	}
}

// sortOrder converts directives into bleve sort strings. Relevance order
// breaks ties by document id so paging is stable.
func sortOrder(directives []catalogquery.SortDirective) []string {
	if len(directives) == 0 {
		return []string{"-_score", "_id"}
	}
	order := make([]string, 0, len(directives)+1)
	for _, d := range directives {
		if d.Descending {
			order = append(order, "-"+d.Field)
		} else {
			order = append(order, d.Field)
		}
	}
	return append(order, "_id")
}
