package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/khanglvm/promptwatch/internal/model"
)

const alertColumns = `id, timestamp, alert_type, severity, tool, sanitized_content, resolved, resolved_at, session_id`

// RecordAlert stores a security alert and returns its ID. A disabled
// storage returns 0.
func (s *SQLiteStorage) RecordAlert(alert SecurityAlert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return 0, nil
	}

	if alert.Timestamp.IsZero() {
		alert.Timestamp = s.clock()
	}

	query := `
		INSERT INTO security_alerts (timestamp, alert_type, severity, tool, sanitized_content, resolved, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.Exec(query,
		formatTime(alert.Timestamp),
		alert.AlertType,
		string(alert.Severity),
		alert.Tool,
		alert.SanitizedContent,
		boolToInt(alert.Resolved),
		alert.SessionID,
	)
	if err != nil {
		return 0, wrap("insert", "security_alerts", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap("insert", "security_alerts", err)
	}
	return id, nil
}

// ListAlerts returns alerts matching filter, newest first.
func (s *SQLiteStorage) ListAlerts(filter AlertFilter) ([]SecurityAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return []SecurityAlert{}, nil
	}

	query := `SELECT ` + alertColumns + ` FROM security_alerts WHERE 1 = 1`
	var args []any
	if !filter.Since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, formatTime(filter.Since))
	}
	if filter.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(filter.Severity))
	}
	if filter.UnresolvedOnly {
		query += ` AND resolved = 0`
	}
	query += ` ORDER BY timestamp DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap("query", "security_alerts", err)
	}
	defer rows.Close()

	alerts := []SecurityAlert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, wrap("scan", "security_alerts", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, wrap("query", "security_alerts", rows.Err())
}

// GetAlert returns the alert with the given ID, or ErrNotFound.
func (s *SQLiteStorage) GetAlert(id int64) (SecurityAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return SecurityAlert{}, wrap("get", "security_alerts", ErrNotFound)
	}

	rows, err := s.db.Query(`SELECT `+alertColumns+` FROM security_alerts WHERE id = ?`, id)
	if err != nil {
		return SecurityAlert{}, wrap("get", "security_alerts", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return SecurityAlert{}, wrap("get", "security_alerts", err)
		}
		return SecurityAlert{}, wrap("get", "security_alerts", fmt.Errorf("alert %d: %w", id, ErrNotFound))
	}
	alert, err := scanAlert(rows)
	return alert, wrap("get", "security_alerts", err)
}

// ResolveAlert marks an alert as resolved. Resolving twice keeps the first
// resolution time.
func (s *SQLiteStorage) ResolveAlert(id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return nil
	}

	res, err := s.db.Exec(
		`UPDATE security_alerts SET resolved = 1, resolved_at = COALESCE(resolved_at, ?) WHERE id = ?`,
		formatTime(at), id,
	)
	if err != nil {
		return wrap("update", "security_alerts", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update", "security_alerts", err)
	}
	if n == 0 {
		return wrap("update", "security_alerts", fmt.Errorf("alert %d: %w", id, ErrNotFound))
	}
	return nil
}

func scanAlert(rows *sql.Rows) (SecurityAlert, error) {
	var (
		alert        SecurityAlert
		ts, severity string
		resolved     int
		resolvedAt   sql.NullString
	)
	if err := rows.Scan(
		&alert.ID,
		&ts,
		&alert.AlertType,
		&severity,
		&alert.Tool,
		&alert.SanitizedContent,
		&resolved,
		&resolvedAt,
		&alert.SessionID,
	); err != nil {
		return SecurityAlert{}, err
	}

	alert.Timestamp = parseTime(ts)
	alert.Severity = riskLevel(severity)
	alert.Resolved = resolved == 1
	if resolvedAt.Valid {
		t := parseTime(resolvedAt.String)
		alert.ResolvedAt = &t
	}
	return alert, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func riskLevel(s string) model.RiskLevel {
	return model.RiskLevel(s)
}

func contentType(s string) model.ContentType {
	return model.ContentType(s)
}
