package search

import (
	"slices"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Attribute names by how the mapping indexes them.
var (
	textAttributes    = []string{"title", "subtitle", "primaryAuthor", "authorNames", "description"}
	keywordAttributes = []string{"id", "language", "genreSlugs"}
	numericAttributes = []string{"publishedYear", "likeCount", "readingCount", "readCount", "createdAt"}
)

// isFilterableAttribute reports whether the mapping can evaluate an exact
// or range filter on name.
func isFilterableAttribute(name string) bool {
	return slices.Contains(keywordAttributes, name) || slices.Contains(numericAttributes, name)
}

// buildIndexMapping creates the bleve mapping for book documents.
//
// Text attributes use the English analyzer, filter attributes the keyword
// analyzer, and sortable attributes are numeric. The JSON source is stored
// but not indexed.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	for _, name := range textAttributes {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = false
		fm.IncludeTermVectors = name == "title"
		docMapping.AddFieldMappingsAt(name, fm)
	}

	for _, name := range keywordAttributes {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = false
		fm.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, fm)
	}

	for _, name := range numericAttributes {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = false
		fm.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, fm)
	}

	sourceMapping := bleve.NewTextFieldMapping()
	sourceMapping.Index = false
	sourceMapping.Store = true
	sourceMapping.IncludeInAll = false
	sourceMapping.IncludeTermVectors = false
	sourceMapping.DocValues = false
	docMapping.AddFieldMappingsAt(sourceField, sourceMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
