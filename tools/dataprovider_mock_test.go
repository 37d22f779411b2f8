package tools

import "io/fs"

// MockDataProvider implements DataProvider for testing with an in-memory
// map instead of the embedded files.
type MockDataProvider struct {
	files map[string][]byte
}

// NewMockDataProvider creates a new mock data provider for testing.
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{
		files: make(map[string][]byte),
	}
}

// AddFile adds a file to the mock provider.
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.files[name] = content
}

// ReadFile reads a file from the mock storage.
func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	content, exists := m.files[name]
	if !exists {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// useDataProvider swaps the package provider for the duration of a test.
func useDataProvider(t interface{ Cleanup(func()) }, provider DataProvider) {
	old := defaultDataProvider
	defaultDataProvider = provider
	t.Cleanup(func() { defaultDataProvider = old })
}
