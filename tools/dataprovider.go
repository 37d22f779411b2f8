package tools

// DataProvider gives access to the data files bundled with the server.
// Tests swap in an in-memory implementation.
//
// Implementations:
//   - embeddedDataProvider: Uses embed.FS for production (real embedded files)
//   - MockDataProvider: Uses in-memory map for testing
type DataProvider interface {
	// ReadFile reads the named file and returns its contents.
	// The name is relative to the data root (e.g., "data/searchindex.js").
	ReadFile(name string) ([]byte, error)
}
