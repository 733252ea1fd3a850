package storage

import (
	"database/sql"
	"time"
)

const usageColumns = `id, timestamp, tool, risk_level, content_type, sensitive_data_detected,
	api_key_exposed, compliance_flags, content_hash, session_id`

// RecordUsage records one interaction with a recognized AI tool.
func (s *SQLiteStorage) RecordUsage(event UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}

	query := `
		INSERT INTO usage_events (timestamp, tool, risk_level, content_type, sensitive_data_detected,
			api_key_exposed, compliance_flags, content_hash, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		formatTime(event.Timestamp),
		event.Tool,
		string(event.RiskLevel),
		string(event.ContentType),
		boolToInt(event.SensitiveDataDetected),
		boolToInt(event.APIKeyExposed),
		flagsToJSON(event.ComplianceFlags),
		event.ContentHash,
		event.SessionID,
	)
	return wrap("insert", "usage_events", err)
}

// GetUsageHistory retrieves usage for a tool since a given time, newest
// first. An empty tool matches every tool.
func (s *SQLiteStorage) GetUsageHistory(tool string, since time.Time) ([]UsageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return []UsageEvent{}, nil
	}

	query := `SELECT ` + usageColumns + ` FROM usage_events WHERE timestamp >= ?`
	args := []any{formatTime(since)}
	if tool != "" {
		query += ` AND tool = ?`
		args = append(args, tool)
	}
	query += ` ORDER BY timestamp DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap("query", "usage_events", err)
	}
	defer rows.Close()

	events := []UsageEvent{}
	for rows.Next() {
		event, err := scanUsage(rows)
		if err != nil {
			return nil, wrap("scan", "usage_events", err)
		}
		events = append(events, event)
	}
	return events, wrap("query", "usage_events", rows.Err())
}

// ListUsage returns usage across every tool since a given time, newest
// first, capped at limit when limit is positive.
func (s *SQLiteStorage) ListUsage(since time.Time, limit int) ([]UsageEvent, error) {
	events, err := s.GetUsageHistory("", since)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func scanUsage(rows *sql.Rows) (UsageEvent, error) {
	var (
		event              UsageEvent
		ts, risk, ctype    string
		flags              string
		sensitive, exposed int
	)
	if err := rows.Scan(
		&event.ID,
		&ts,
		&event.Tool,
		&risk,
		&ctype,
		&sensitive,
		&exposed,
		&flags,
		&event.ContentHash,
		&event.SessionID,
	); err != nil {
		return UsageEvent{}, err
	}

	event.Timestamp = parseTime(ts)
	event.RiskLevel = riskLevel(risk)
	event.ContentType = contentType(ctype)
	event.SensitiveDataDetected = sensitive == 1
	event.APIKeyExposed = exposed == 1
	event.ComplianceFlags = jsonToFlags(flags)
	return event, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStorage) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
