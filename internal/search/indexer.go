package search

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/khanglvm/promptwatch/internal/storage"
)

// DefaultDirName is the on-disk index directory under the promptwatch home.
const DefaultDirName = "alerts.bleve"

// timeLayout is fixed width so the timestamp field sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Indexer is a full-text index over sanitized alert excerpts. It is a
// rebuildable mirror of the alerts table.
type Indexer struct {
	mu         sync.RWMutex
	bleveIndex bleve.Index
	indexPath  string
}

// NewIndexer returns an indexer that lives only in memory.
func NewIndexer() (*Indexer, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory alert index: %w", err)
	}
	return &Indexer{bleveIndex: idx}, nil
}

// NewIndexerWithPath opens the scorch index at indexPath, creating it on
// first use. Only one process may hold it open.
func NewIndexerWithPath(indexPath string) (*Indexer, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o700); err != nil {
		return nil, fmt.Errorf("create alert index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.NewUsing(indexPath, buildIndexMapping(), scorch.Name, scorch.Name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open alert index %s: %w", indexPath, err)
	}
	return &Indexer{bleveIndex: idx, indexPath: indexPath}, nil
}

// buildIndexMapping creates the Bleve index mapping for alert documents.
func buildIndexMapping() mapping.IndexMapping {
	alertMapping := bleve.NewDocumentMapping()

	// Sanitized content: analyzed free text.
	alertMapping.AddFieldMappingsAt("content", bleve.NewTextFieldMapping())

	// Exact-match fields used for filtering and display.
	for _, field := range []string{"alertType", "severity", "tool", "timestamp", "sessionId"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		alertMapping.AddFieldMappingsAt(field, fm)
	}

	resolved := bleve.NewBooleanFieldMapping()
	alertMapping.AddFieldMappingsAt("resolved", resolved)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", alertMapping)

	return indexMapping
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func alertDocument(a storage.SecurityAlert) map[string]interface{} {
	return map[string]interface{}{
		"content":   a.SanitizedContent,
		"alertType": a.AlertType,
		"severity":  string(a.Severity),
		"tool":      a.Tool,
		"timestamp": a.Timestamp.UTC().Format(timeLayout),
		"sessionId": a.SessionID,
		"resolved":  a.Resolved,
	}
}

// IndexAlerts adds or replaces the given alerts. Alerts without an ID are
// skipped.
func (i *Indexer) IndexAlerts(alerts []storage.SecurityAlert) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, a := range alerts {
		if a.ID == 0 {
			continue
		}
		if err := batch.Index(docID(a.ID), alertDocument(a)); err != nil {
			log.Printf("Warning: failed to index alert %d: %v", a.ID, err)
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index alerts: %w", err)
	}
	return nil
}

// Sync makes the index mirror alerts exactly: every alert is (re)indexed
// and documents for alerts no longer present are removed.
func (i *Indexer) Sync(alerts []storage.SecurityAlert) error {
	keep := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		keep[docID(a.ID)] = true
	}

	ids, err := i.allIDs()
	if err != nil {
		return err
	}

	i.mu.Lock()
	batch := i.bleveIndex.NewBatch()
	for _, id := range ids {
		if !keep[id] {
			batch.Delete(id)
		}
	}
	err = i.bleveIndex.Batch(batch)
	i.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to batch delete: %w", err)
	}

	return i.IndexAlerts(alerts)
}

// RemoveAlert deletes one alert from the index.
func (i *Indexer) RemoveAlert(id int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.bleveIndex.Delete(docID(id)); err != nil {
		return fmt.Errorf("failed to delete alert %d: %w", id, err)
	}
	return nil
}

func (i *Indexer) allIDs() ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count, err := i.bleveIndex.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get doc count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	results, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed alerts: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count returns the number of indexed alerts.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("count alert index: %w", err)
	}
	return n, nil
}

// Close releases the index and, for a persistent one, its file lock.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.bleveIndex == nil {
		return nil
	}
	return i.bleveIndex.Close()
}
