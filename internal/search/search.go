package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/khanglvm/promptwatch/internal/model"
)

var hitFields = []string{"content", "alertType", "severity", "tool", "timestamp", "resolved"}

// Search runs q against the index. Results are ordered by relevance, then
// by recency.
func (i *Indexer) Search(q Query) ([]AlertHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.Fields = hitFields
	req.SortBy([]string{"-_score", "-timestamp"})

	results, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	return convertBleveResults(results), nil
}

func buildQuery(q Query) query.Query {
	var parts []query.Query

	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, bleve.NewMatchQuery(text))
	} else {
		parts = append(parts, bleve.NewMatchAllQuery())
	}
	if q.Severity != "" {
		tq := bleve.NewTermQuery(string(q.Severity))
		tq.SetField("severity")
		parts = append(parts, tq)
	}
	if q.Tool != "" {
		tq := bleve.NewTermQuery(q.Tool)
		tq.SetField("tool")
		parts = append(parts, tq)
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return bleve.NewConjunctionQuery(parts...)
}

func convertBleveResults(results *bleve.SearchResult) []AlertHit {
	hits := make([]AlertHit, 0, len(results.Hits))

	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		content, _ := hit.Fields["content"].(string)
		alertType, _ := hit.Fields["alertType"].(string)
		severity, _ := hit.Fields["severity"].(string)
		tool, _ := hit.Fields["tool"].(string)
		resolved, _ := hit.Fields["resolved"].(bool)

		var ts time.Time
		if raw, ok := hit.Fields["timestamp"].(string); ok {
			ts, _ = time.Parse(timeLayout, raw)
		}

		hits = append(hits, AlertHit{
			ID:        id,
			AlertType: alertType,
			Severity:  model.RiskLevel(severity),
			Tool:      tool,
			Content:   content,
			Timestamp: ts,
			Resolved:  resolved,
			Score:     hit.Score,
		})
	}

	return hits
}
