package indexing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StampFile sits next to the catalog directory and names the index the
// catalog was built from
const StampFile = ".stamp"

// Fingerprint identifies raw searchindex.js bytes
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// CatalogStamp identifies the index and record layout a catalog was built from.
// Records carry page URLs, so the base URL is part of it.
func CatalogStamp(fingerprint, baseURL string) string {
	return fmt.Sprintf("v%d:%s:%s", IndexSchemaVersion, fingerprint, baseURL)
}

func stampPath(catalogDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(catalogDir)), StampFile)
}

// ReadStamp returns the stamp of the catalog at catalogDir, or "" when there is none
func ReadStamp(catalogDir string) string {
	data, err := os.ReadFile(stampPath(catalogDir))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// WriteStamp records stamp for the catalog at catalogDir
func WriteStamp(catalogDir, stamp string) error {
	path := stampPath(catalogDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(stamp), 0644)
}
