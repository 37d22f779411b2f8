package indexing

import (
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

// BuildRecords turns every document of idx into a catalog record.
// baseURL may be empty, in which case records carry no URL.
func BuildRecords(idx *searchindex.Index, baseURL string) []DocRecord {
	df := func(term string) int {
		return len(idx.Terms[term])
	}

	records := make([]DocRecord, 0, idx.Len())
	for _, doc := range idx.Documents() {
		terms := idx.TermsFor(doc.Index)
		titleTerms := idx.TitleTermsFor(doc.Index)

		records = append(records, DocRecord{
			ID:         doc.Name,
			Index:      doc.Index,
			DocName:    doc.Name,
			FileName:   doc.FileName,
			Title:      StripTags(doc.Title),
			Section:    SectionOf(doc.Name),
			Breadcrumb: BuildBreadcrumb(doc.Name),
			URL:        BuildURL(baseURL, doc.Name),
			Terms:      terms,
			TitleTerms: titleTerms,
			Keywords:   ExtractKeywords(titleTerms, terms, df),
			TermCount:  len(terms),
		})
	}
	return records
}

// SectionCounts tallies records per section.
func SectionCounts(records []DocRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Section]++
	}
	return counts
}
