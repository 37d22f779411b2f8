package tools

import "embed"

// The bundled index lets the server answer without any configuration:
// it is the documentation index of the tackle-box project.
//
//go:embed data/searchindex.js
var embeddedFS embed.FS

// embeddedIndexFile is the path of the bundled index inside embeddedFS
const embeddedIndexFile = "data/searchindex.js"

// embeddedDataProvider implements DataProvider using embed.FS.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates the production DataProvider backed by the
// files compiled into the binary.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

// ReadFile reads the named file from the embedded filesystem.
func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

// Default provider used by package-level functions
var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
