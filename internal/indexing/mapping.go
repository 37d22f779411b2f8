package indexing

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// NewCatalogMapping keeps section and names as exact keywords and
// analyses titles and tokens
func NewCatalogMapping() *mapping.IndexMappingImpl {
	docMapping := bleve.NewDocumentMapping()

	keyword := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("section", keyword)
	docMapping.AddFieldMappingsAt("docname", keyword)
	docMapping.AddFieldMappingsAt("filename", keyword)

	text := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("breadcrumb", text)
	docMapping.AddFieldMappingsAt("keywords", text)
	docMapping.AddFieldMappingsAt("terms", text)
	docMapping.AddFieldMappingsAt("title_terms", text)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
