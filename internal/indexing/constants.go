package indexing

// Catalog record constants
const (
	// MaxKeywords caps the keywords attached to a record
	MaxKeywords = 10

	// MinKeywordLength drops short tokens like "a" or "is" from keywords
	MinKeywordLength = 3

	// RootSection is the section of documents at the top of the tree
	RootSection = "root"

	// IndexSchemaVersion increments when the record layout changes
	// v1: names and titles only, v2: terms, keywords and breadcrumbs
	IndexSchemaVersion = 2
)
