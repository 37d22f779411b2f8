package searchindex

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned when a document name or index is not in the index.
var ErrNotFound = errors.New("document not found")

// Len returns the number of documents.
func (idx *Index) Len() int {
	return len(idx.DocNames)
}

// Document returns the i-th document. Missing filenames or titles (a
// malformed index) come back empty.
func (idx *Index) Document(i int) (Document, bool) {
	if i < 0 || i >= len(idx.DocNames) {
		return Document{}, false
	}

	doc := Document{Index: i, Name: idx.DocNames[i]}
	if i < len(idx.FileNames) {
		doc.FileName = idx.FileNames[i]
	}
	if i < len(idx.Titles) {
		doc.Title = idx.Titles[i]
	}
	return doc, true
}

// DocumentByName finds a document by its docname.
func (idx *Index) DocumentByName(name string) (Document, error) {
	for i, n := range idx.DocNames {
		if n == name {
			doc, _ := idx.Document(i)
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

// Documents returns every document in index order.
func (idx *Index) Documents() []Document {
	docs := make([]Document, 0, len(idx.DocNames))
	for i := range idx.DocNames {
		doc, _ := idx.Document(i)
		docs = append(docs, doc)
	}
	return docs
}

// Postings returns the postings stored for term in the body table, trying
// the exact key before its lower-cased form.
func (idx *Index) Postings(term string) (Postings, bool) {
	return lookupPostings(idx.Terms, term)
}

// TitlePostings is Postings for the title table.
func (idx *Index) TitlePostings(term string) (Postings, bool) {
	return lookupPostings(idx.TitleTerms, term)
}

// Lookup resolves the body postings of term to documents. Unknown terms
// return nil; out-of-range entries are skipped.
func (idx *Index) Lookup(term string) []Document {
	p, _ := idx.Postings(term)
	return idx.resolve(p)
}

// LookupTitle resolves the title postings of term to documents.
func (idx *Index) LookupTitle(term string) []Document {
	p, _ := idx.TitlePostings(term)
	return idx.resolve(p)
}

// TermsFor returns the sorted body tokens whose postings include doc.
func (idx *Index) TermsFor(doc int) []string {
	idx.buildInverse()
	if doc < 0 || doc >= len(idx.inverse.terms) {
		return nil
	}
	return idx.inverse.terms[doc]
}

// TitleTermsFor returns the sorted title tokens whose postings include doc.
func (idx *Index) TitleTermsFor(doc int) []string {
	idx.buildInverse()
	if doc < 0 || doc >= len(idx.inverse.titles) {
		return nil
	}
	return idx.inverse.titles[doc]
}

func (idx *Index) buildInverse() {
	idx.inverse.once.Do(func() {
		idx.inverse.terms = invert(idx.Terms, len(idx.DocNames))
		idx.inverse.titles = invert(idx.TitleTerms, len(idx.DocNames))
	})
}

func invert(table map[string]Postings, n int) [][]string {
	inv := make([][]string, n)
	for term, postings := range table {
		for _, doc := range postings {
			if doc >= 0 && doc < n {
				inv[doc] = append(inv[doc], term)
			}
		}
	}
	for _, terms := range inv {
		sort.Strings(terms)
	}
	return inv
}

func lookupPostings(table map[string]Postings, term string) (Postings, bool) {
	if p, ok := table[term]; ok {
		return p, true
	}
	lower := strings.ToLower(term)
	if lower == term {
		return nil, false
	}
	p, ok := table[lower]
	return p, ok
}

func (idx *Index) resolve(p Postings) []Document {
	if len(p) == 0 {
		return nil
	}
	docs := make([]Document, 0, len(p))
	for _, i := range p {
		if doc, ok := idx.Document(i); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Stats summarises the size of an index.
type Stats struct {
	Documents        int     `json:"documents"`
	Terms            int     `json:"terms"`
	TitleTerms       int     `json:"title_terms"`
	Postings         int     `json:"postings"`
	TitlePostings    int     `json:"title_postings"`
	AvgPostings      float64 `json:"avg_postings"`
	LargestTerm      string  `json:"largest_term,omitempty"`
	LargestPostings  int     `json:"largest_postings"`
	ObjectPrefixes   int     `json:"object_prefixes"`
	ObjectTypes      int     `json:"object_types"`
	GeneratorVersion int     `json:"generator_version,omitempty"`
	EnvDomains       int     `json:"env_domains,omitempty"`
}

// Stats computes the index summary.
func (idx *Index) Stats() Stats {
	s := Stats{
		Documents:      len(idx.DocNames),
		Terms:          len(idx.Terms),
		TitleTerms:     len(idx.TitleTerms),
		ObjectPrefixes: len(idx.Objects),
		ObjectTypes:    len(idx.ObjTypes),
		EnvDomains:     len(idx.EnvVersion.Domains),
	}
	if v, ok := idx.EnvVersion.Generator(); ok {
		s.GeneratorVersion = v
	}

	// Sorted so ties on the largest list resolve the same way every run
	terms := make([]string, 0, len(idx.Terms))
	for term := range idx.Terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	for _, term := range terms {
		n := len(idx.Terms[term])
		s.Postings += n
		if n > s.LargestPostings {
			s.LargestPostings = n
			s.LargestTerm = term
		}
	}
	for _, p := range idx.TitleTerms {
		s.TitlePostings += len(p)
	}
	if s.Terms > 0 {
		s.AvgPostings = float64(s.Postings) / float64(s.Terms)
	}
	return s
}
