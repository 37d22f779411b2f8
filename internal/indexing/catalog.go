package indexing

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
)

// BatchSize is the number of records submitted to bleve at once
const BatchSize = 100

// WriteCatalog creates a bleve catalog at path holding records. The
// directory must not exist yet.
func WriteCatalog(path string, records []DocRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	index, err := bleve.New(path, NewCatalogMapping())
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	if err := indexBatched(index, records); err != nil {
		index.Close()
		return err
	}

	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close catalog: %w", err)
	}
	return nil
}

func indexBatched(index bleve.Index, records []DocRecord) error {
	batch := index.NewBatch()
	for i, record := range records {
		if err := batch.Index(record.ID, record); err != nil {
			return fmt.Errorf("failed to add record %s to batch: %w", record.ID, err)
		}

		if (i+1)%BatchSize == 0 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
			log.Printf("  Indexed %d/%d records...", i+1, len(records))
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}
