package searchindex_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

func loadSample(t *testing.T) *searchindex.Index {
	t.Helper()
	idx, err := searchindex.Load(filepath.Join("testdata", "searchindex.js"))
	if err != nil {
		t.Fatalf("Failed to load sample index: %v", err)
	}
	return idx
}

func docNames(docs []searchindex.Document) []string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return names
}

func TestDocument(t *testing.T) {
	idx := loadSample(t)

	doc, ok := idx.Document(80)
	if !ok {
		t.Fatal("Expected document 80 to exist")
	}
	expected := searchindex.Document{
		Index:    80,
		Name:     "providers/system/print",
		FileName: "providers/system/print.md",
		Title:    "print",
	}
	if doc != expected {
		t.Errorf("Expected %+v, got %+v", expected, doc)
	}

	for _, i := range []int{-1, 113, 1000} {
		if _, ok := idx.Document(i); ok {
			t.Errorf("Document(%d) should not exist", i)
		}
	}
}

func TestDocumentByName(t *testing.T) {
	idx := loadSample(t)

	doc, err := idx.DocumentByName("calling-tackle")
	if err != nil {
		t.Fatalf("DocumentByName failed: %v", err)
	}
	if doc.Index != 23 || doc.Title != "Calling Tackle-box" {
		t.Errorf("Unexpected document: %+v", doc)
	}

	if _, err := idx.DocumentByName("does/not/exist"); !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDocuments(t *testing.T) {
	idx := loadSample(t)
	docs := idx.Documents()
	if len(docs) != 113 {
		t.Fatalf("Expected 113 documents, got %d", len(docs))
	}
	for i, d := range docs {
		if d.Index != i {
			t.Errorf("Document %d reports index %d", i, d.Index)
		}
	}
}

func TestLookup(t *testing.T) {
	idx := loadSample(t)

	tests := []struct {
		name     string
		term     string
		titles   bool
		expected []string
	}{
		{
			name:     "title term with two documents",
			term:     "toml",
			titles:   true,
			expected: []string{"providers/toml/index", "providers/toml/toml"},
		},
		{
			name:     "body term stored as a scalar",
			term:     "10",
			expected: []string{"providers/toml/index"},
		},
		{
			name:     "upper-case query falls back to lower-case key",
			term:     "TOML",
			titles:   true,
			expected: []string{"providers/toml/index", "providers/toml/toml"},
		},
		{
			name:     "mixed-case key matched exactly",
			term:     "Being",
			titles:   true,
			expected: []string{"CONTRIBUTING"},
		},
		{
			name:     "unknown term",
			term:     "kubernetes",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var docs []searchindex.Document
			if tt.titles {
				docs = idx.LookupTitle(tt.term)
			} else {
				docs = idx.Lookup(tt.term)
			}
			got := docNames(docs)
			if len(tt.expected) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLookup_SkipsOutOfRange(t *testing.T) {
	idx, err := searchindex.Parse([]byte(`{docnames:["a"],filenames:["a.md"],titles:["A"],terms:{x:[0,5]},titleterms:{}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	docs := idx.Lookup("x")
	if len(docs) != 1 || docs[0].Name != "a" {
		t.Errorf("Expected only document a, got %v", docs)
	}
}

func TestTermsFor(t *testing.T) {
	idx := loadSample(t)

	got := idx.TitleTermsFor(80)
	expected := []string{"argument", "input", "output", "print"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	terms := idx.TermsFor(80)
	if len(terms) == 0 {
		t.Fatal("Expected body terms for document 80")
	}
	for _, term := range terms {
		p, ok := idx.Postings(term)
		if !ok || !p.Contains(80) {
			t.Errorf("Term %q does not list document 80", term)
		}
	}

	if idx.TermsFor(-1) != nil || idx.TermsFor(500) != nil {
		t.Error("Out-of-range documents should have no terms")
	}
}

func TestTermsFor_ConcurrentReaders(t *testing.T) {
	idx := loadSample(t)

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = idx.TitleTermsFor(109)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Errorf("Reader %d saw %v, reader 0 saw %v", i, results[i], results[0])
		}
	}
}

func TestStats(t *testing.T) {
	idx := loadSample(t)
	s := idx.Stats()

	if s.Documents != 113 {
		t.Errorf("Expected 113 documents, got %d", s.Documents)
	}
	if s.Terms != 1668 || s.TitleTerms != 243 {
		t.Errorf("Unexpected term counts: %d / %d", s.Terms, s.TitleTerms)
	}
	if s.Postings != 5200 {
		t.Errorf("Expected 5200 postings, got %d", s.Postings)
	}
	if s.LargestTerm != "hook" || s.LargestPostings != 76 {
		t.Errorf("Expected largest term hook (76), got %s (%d)", s.LargestTerm, s.LargestPostings)
	}
	if s.GeneratorVersion != 56 {
		t.Errorf("Expected generator version 56, got %d", s.GeneratorVersion)
	}
	if s.EnvDomains != 14 {
		t.Errorf("Expected 14 env domains, got %d", s.EnvDomains)
	}
}

func TestObjectEntries(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "map layout",
			input: `{docnames:["api"],objects:{"mod":{"run":[0,0,1,"mod.run"]}}}`,
		},
		{
			name:  "list layout",
			input: `{docnames:["api"],objects:{"mod":[[0,0,1,"mod.run","run"]]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := searchindex.Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			entries, err := idx.ObjectEntries()
			if err != nil {
				t.Fatalf("ObjectEntries failed: %v", err)
			}
			expected := []searchindex.ObjectEntry{{
				Prefix: "mod", Name: "run", DocIndex: 0, TypeIndex: 0, Priority: 1, Anchor: "mod.run",
			}}
			if !reflect.DeepEqual(entries, expected) {
				t.Errorf("Expected %+v, got %+v", expected, entries)
			}
		})
	}
}
