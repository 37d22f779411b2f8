package indexing

// DocRecord represents one document of a search index in the catalog
type DocRecord struct {
	ID         string   `json:"id"`
	Index      int      `json:"index"`                 // Position in the docnames list
	DocName    string   `json:"docname"`               // Path without extension
	FileName   string   `json:"filename"`              // Source file
	Title      string   `json:"title"`                 // Title with HTML removed
	Section    string   `json:"section"`               // First path segment, or "root"
	Breadcrumb string   `json:"breadcrumb,omitempty"`  // "Providers > System > Print"
	URL        string   `json:"url,omitempty"`         // Rendered page, when a base URL is known
	Terms      []string `json:"terms,omitempty"`       // Body tokens whose postings list this document
	TitleTerms []string `json:"title_terms,omitempty"` // Title tokens whose postings list this document
	Keywords   []string `json:"keywords,omitempty"`    // Most specific tokens of the document
	TermCount  int      `json:"term_count"`
}
