package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/docsearch/searchindex-mcp/internal/indexing"
	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// DocumentSummary is one entry of the docnames/filenames/titles lists
type DocumentSummary struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	FileName string `json:"filename"`
	Title    string `json:"title"`
	Section  string `json:"section"`
	URL      string `json:"url,omitempty"`
}

func summarize(doc searchindex.Document) DocumentSummary {
	return DocumentSummary{
		Index:    doc.Index,
		Name:     doc.Name,
		FileName: doc.FileName,
		Title:    indexing.StripTags(doc.Title),
		Section:  indexing.SectionOf(doc.Name),
		URL:      indexing.BuildURL(settings.BaseURL, doc.Name),
	}
}

// DescribeIndexInput defines input for describe_index tool
type DescribeIndexInput struct{}

// DescribeIndexOutput defines output for describe_index tool
type DescribeIndexOutput struct {
	Source      string            `json:"source"`
	Fingerprint string            `json:"fingerprint"`
	LoadedAt    time.Time         `json:"loaded_at"`
	Stats       searchindex.Stats `json:"stats"`
	Sections    map[string]int    `json:"sections"`
	ObjectTypes map[string]string `json:"object_types,omitempty"`
	EnvVersion  map[string]int    `json:"env_version,omitempty"`
}

// ValidateIndexInput defines input for validate_index tool
type ValidateIndexInput struct{}

// ValidateIndexOutput defines output for validate_index tool
type ValidateIndexOutput struct {
	searchindex.Report
	SchemaViolations []searchindex.Violation `json:"schema_violations"`
	Source           string                  `json:"source"`
}

// ListDocumentsInput defines input for list_documents tool
type ListDocumentsInput struct {
	Section string `json:"section,omitempty" jsonschema:"Only documents under this top-level section, e.g. providers or root (optional)"`
	Offset  int    `json:"offset,omitempty" jsonschema:"Number of documents to skip (optional)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum documents to return (optional, defaults to 50, max 200)"`
}

// ListDocumentsOutput defines output for list_documents tool
type ListDocumentsOutput struct {
	Documents []DocumentSummary `json:"documents"`
	Total     int               `json:"total"`
	Offset    int               `json:"offset"`
	HasMore   bool              `json:"has_more"`
}

// GetDocumentInput defines input for get_document tool
type GetDocumentInput struct {
	Name  string `json:"name,omitempty" jsonschema:"Docname, e.g. providers/system/print"`
	Index *int   `json:"index,omitempty" jsonschema:"Position in the docnames list (used when name is empty)"`
}

// GetDocumentOutput defines output for get_document tool
type GetDocumentOutput struct {
	Document   DocumentSummary `json:"document"`
	Breadcrumb string          `json:"breadcrumb"`
	Terms      []string        `json:"terms"`
	TitleTerms []string        `json:"title_terms"`
	Keywords   []string        `json:"keywords"`
}

// LookupTermInput defines input for lookup_term tool
type LookupTermInput struct {
	Term       string `json:"term" jsonschema:"Index token to resolve, e.g. hook"`
	TitlesOnly bool   `json:"titles_only,omitempty" jsonschema:"Look only at title tokens (optional, defaults to false)"`
}

// LookupTermOutput defines output for lookup_term tool
type LookupTermOutput struct {
	Term       string            `json:"term"`
	Found      bool              `json:"found"`
	Postings   []int             `json:"postings"`
	TitleHits  []int             `json:"title_postings"`
	Documents  []DocumentSummary `json:"documents"`
	Suggestion string            `json:"suggestion,omitempty"`
}

// DescribeIndex summarises the loaded search index
func DescribeIndex(ctx context.Context, req *mcp.CallToolRequest, input DescribeIndexInput) (*mcp.CallToolResult, DescribeIndexOutput, error) {
	loaded, err := currentIndex(ctx)
	if err != nil {
		return nil, DescribeIndexOutput{}, err
	}
	idx := loaded.Index

	sections := make(map[string]int)
	for _, name := range idx.DocNames {
		sections[indexing.SectionOf(name)]++
	}

	output := DescribeIndexOutput{
		Source:      loaded.Source,
		Fingerprint: loaded.Fingerprint,
		LoadedAt:    loaded.LoadedAt,
		Stats:       idx.Stats(),
		Sections:    sections,
		ObjectTypes: idx.ObjTypes,
	}
	if v, ok := idx.EnvVersion.Generator(); ok && len(idx.EnvVersion.Domains) == 0 {
		output.EnvVersion = map[string]int{"sphinx": v}
	} else {
		output.EnvVersion = idx.EnvVersion.Domains
	}
	return nil, output, nil
}

// ValidateIndex re-checks the loaded index and validates its raw payload
// against the JSON schema
func ValidateIndex(ctx context.Context, req *mcp.CallToolRequest, input ValidateIndexInput) (*mcp.CallToolResult, ValidateIndexOutput, error) {
	loaded, err := currentIndex(ctx)
	if err != nil {
		return nil, ValidateIndexOutput{}, err
	}

	output := ValidateIndexOutput{
		Report:           searchindex.Check(loaded.Index),
		SchemaViolations: []searchindex.Violation{},
		Source:           loaded.Source,
	}

	if err := searchindex.SchemaValidate(loaded.raw); err != nil {
		var verr *searchindex.ValidationError
		if !errors.As(err, &verr) {
			return nil, output, fmt.Errorf("schema validation failed: %w", err)
		}
		output.SchemaViolations = verr.Violations
		output.Valid = false
		output.Summary = fmt.Sprintf("%s; %d schema violation(s)", output.Summary, len(verr.Violations))
	}

	return nil, output, nil
}

// ListDocuments pages through the documents of the index
func ListDocuments(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	loaded, err := currentIndex(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	if input.Offset < 0 {
		return nil, ListDocumentsOutput{}, fmt.Errorf("offset must not be negative")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var matched []searchindex.Document
	for _, doc := range loaded.Index.Documents() {
		if input.Section != "" && indexing.SectionOf(doc.Name) != input.Section {
			continue
		}
		matched = append(matched, doc)
	}

	output := ListDocumentsOutput{
		Documents: []DocumentSummary{},
		Total:     len(matched),
		Offset:    input.Offset,
	}
	if input.Offset >= len(matched) {
		return nil, output, nil
	}

	end := input.Offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	for _, doc := range matched[input.Offset:end] {
		output.Documents = append(output.Documents, summarize(doc))
	}
	output.HasMore = end < len(matched)

	return nil, output, nil
}

// GetDocument returns one document with the terms that point at it
func GetDocument(ctx context.Context, req *mcp.CallToolRequest, input GetDocumentInput) (*mcp.CallToolResult, GetDocumentOutput, error) {
	loaded, err := currentIndex(ctx)
	if err != nil {
		return nil, GetDocumentOutput{}, err
	}
	idx := loaded.Index

	var doc searchindex.Document
	switch {
	case input.Name != "":
		doc, err = idx.DocumentByName(input.Name)
		if err != nil {
			return nil, GetDocumentOutput{}, fmt.Errorf("document %q: %w", input.Name, err)
		}
	case input.Index != nil:
		var ok bool
		doc, ok = idx.Document(*input.Index)
		if !ok {
			return nil, GetDocumentOutput{}, fmt.Errorf("document index %d out of range [0, %d)", *input.Index, idx.Len())
		}
	default:
		return nil, GetDocumentOutput{}, fmt.Errorf("either name or index is required")
	}

	terms := idx.TermsFor(doc.Index)
	titleTerms := idx.TitleTermsFor(doc.Index)
	df := func(term string) int { return len(idx.Terms[term]) }

	output := GetDocumentOutput{
		Document:   summarize(doc),
		Breadcrumb: indexing.BuildBreadcrumb(doc.Name),
		Terms:      nonNil(terms),
		TitleTerms: nonNil(titleTerms),
		Keywords:   nonNil(indexing.ExtractKeywords(titleTerms, terms, df)),
	}
	return nil, output, nil
}

// LookupTerm resolves a token to the documents that contain it
func LookupTerm(ctx context.Context, req *mcp.CallToolRequest, input LookupTermInput) (*mcp.CallToolResult, LookupTermOutput, error) {
	term := strings.TrimSpace(input.Term)
	if term == "" {
		return nil, LookupTermOutput{}, fmt.Errorf("term is required")
	}

	loaded, err := currentIndex(ctx)
	if err != nil {
		return nil, LookupTermOutput{}, err
	}
	idx := loaded.Index

	output := LookupTermOutput{
		Term:      term,
		Postings:  []int{},
		TitleHits: []int{},
		Documents: []DocumentSummary{},
	}

	var docs []searchindex.Document
	if !input.TitlesOnly {
		if p, ok := idx.Postings(term); ok {
			output.Found = true
			output.Postings = p
			docs = append(docs, idx.Lookup(term)...)
		}
	}
	if p, ok := idx.TitlePostings(term); ok {
		output.Found = true
		output.TitleHits = p
		docs = append(docs, idx.LookupTitle(term)...)
	}

	seen := make(map[int]bool)
	for _, doc := range docs {
		if seen[doc.Index] {
			continue
		}
		seen[doc.Index] = true
		output.Documents = append(output.Documents, summarize(doc))
	}

	if !output.Found {
		output.Suggestion = "Index tokens are stemmed and lower-case; try search_documents for free text"
	}
	return nil, output, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// RegisterIndexTools registers the search index inspection tools
func RegisterIndexTools(ctx context.Context, server *mcp.Server) error {
	if err := InitializeIndex(ctx); err != nil {
		log.Printf("Warning: Search index initialization failed: %v", err)
		log.Printf("Index tools will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "describe_index",
			Description: "Summarise the loaded searchindex.js: document, term and posting counts, sections, object types and generator versions",
		},
		DescribeIndex,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_index",
			Description: "Check the loaded index: parallel docnames/filenames/titles, postings within range, plus warnings and JSON schema violations",
		},
		ValidateIndex,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_documents",
			Description: "List indexed documents with their position, name, source file and title, optionally filtered by section",
		},
		ListDocuments,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_document",
			Description: "Get one document by docname or position, with every body and title token whose postings list it",
		},
		GetDocument,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "lookup_term",
			Description: "Resolve an index token to its postings and the documents they point at",
		},
		LookupTerm,
	)

	return nil
}
