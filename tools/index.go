package tools

import "github.com/blevesearch/bleve/v2"

// Index is the part of a bleve index the catalog tools use. Tests replace
// it with mockIndex.
type Index interface {
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)
	DocCount() (uint64, error)
	Close() error
}

// bleveCatalog adapts an open bleve.Index to Index
type bleveCatalog struct {
	index bleve.Index
}

func wrapCatalog(index bleve.Index) Index {
	return &bleveCatalog{index: index}
}

func (c *bleveCatalog) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return c.index.Search(req)
}

func (c *bleveCatalog) DocCount() (uint64, error) {
	return c.index.DocCount()
}

func (c *bleveCatalog) Close() error {
	return c.index.Close()
}
