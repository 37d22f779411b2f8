package tools

import (
	"io/fs"
	"testing"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
)

func TestMockDataProvider_ReadFile(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile("data/test.js", []byte("test content"))

	content, err := mock.ReadFile("data/test.js")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != "test content" {
		t.Errorf("Expected 'test content', got: %s", string(content))
	}

	_, err = mock.ReadFile("data/missing.js")
	if err != fs.ErrNotExist {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}
}

func TestUseDataProvider(t *testing.T) {
	original := defaultDataProvider

	t.Run("swapped", func(t *testing.T) {
		mock := NewMockDataProvider()
		mock.AddFile(embeddedIndexFile, []byte(`{docnames:[]}`))
		useDataProvider(t, mock)

		content, err := defaultDataProvider.ReadFile(embeddedIndexFile)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if string(content) != `{docnames:[]}` {
			t.Errorf("Expected mock content, got: %s", string(content))
		}
	})

	if defaultDataProvider != original {
		t.Error("Expected provider to be restored after the subtest")
	}
}

func TestEmbeddedIndex(t *testing.T) {
	data, err := NewEmbeddedDataProvider().ReadFile(embeddedIndexFile)
	if err != nil {
		t.Fatalf("Embedded index missing: %v", err)
	}

	idx, err := searchindex.Parse(data)
	if err != nil {
		t.Fatalf("Embedded index does not parse: %v", err)
	}
	if err := searchindex.Validate(idx); err != nil {
		t.Errorf("Embedded index is invalid: %v", err)
	}
}
