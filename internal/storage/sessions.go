package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// OpenSession records the start of a monitoring session.
func (s *SQLiteStorage) OpenSession(session MonitoringSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return nil
	}
	if session.ID == "" {
		return wrap("insert", "monitoring_sessions", fmt.Errorf("session id is required"))
	}
	if session.StartTime.IsZero() {
		session.StartTime = s.clock()
	}

	_, err := s.db.Exec(
		`INSERT INTO monitoring_sessions (id, start_time, total_usage, total_cost) VALUES (?, ?, ?, ?)`,
		session.ID, formatTime(session.StartTime), session.TotalUsage, session.TotalCost,
	)
	return wrap("insert", "monitoring_sessions", err)
}

// CloseSession stores the end time and totals of a session. A zero
// EndTime is filled with the current time.
func (s *SQLiteStorage) CloseSession(session MonitoringSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return nil
	}

	end := s.clock()
	if session.EndTime != nil {
		end = *session.EndTime
	}

	res, err := s.db.Exec(
		`UPDATE monitoring_sessions SET end_time = ?, total_usage = ?, total_cost = ? WHERE id = ?`,
		formatTime(end), session.TotalUsage, session.TotalCost, session.ID,
	)
	if err != nil {
		return wrap("update", "monitoring_sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update", "monitoring_sessions", err)
	}
	if n == 0 {
		return wrap("update", "monitoring_sessions", fmt.Errorf("session %s: %w", session.ID, ErrNotFound))
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first. A limit of
// zero returns all of them.
func (s *SQLiteStorage) ListSessions(limit int) ([]MonitoringSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready() {
		return []MonitoringSession{}, nil
	}

	query := `SELECT id, start_time, end_time, total_usage, total_cost FROM monitoring_sessions ORDER BY start_time DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrap("query", "monitoring_sessions", err)
	}
	defer rows.Close()

	sessions := []MonitoringSession{}
	for rows.Next() {
		var (
			session MonitoringSession
			start   string
			end     sql.NullString
		)
		if err := rows.Scan(&session.ID, &start, &end, &session.TotalUsage, &session.TotalCost); err != nil {
			return nil, wrap("scan", "monitoring_sessions", err)
		}
		session.StartTime = parseTime(start)
		if end.Valid {
			t := parseTime(end.String)
			session.EndTime = &t
		}
		sessions = append(sessions, session)
	}
	return sessions, wrap("query", "monitoring_sessions", rows.Err())
}

// Cleanup removes usage events and alerts older than retention, and
// closed sessions that ended before the cutoff. Open sessions are kept.
func (s *SQLiteStorage) Cleanup(retention time.Duration) (CleanupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result CleanupResult
	if !s.ready() || retention <= 0 {
		return result, nil
	}

	cutoff := formatTime(s.clock().Add(-retention))

	deletes := []struct {
		table string
		query string
		count *int64
	}{
		{"usage_events", `DELETE FROM usage_events WHERE timestamp < ?`, &result.UsageEvents},
		{"security_alerts", `DELETE FROM security_alerts WHERE timestamp < ?`, &result.Alerts},
		{"monitoring_sessions", `DELETE FROM monitoring_sessions WHERE end_time IS NOT NULL AND end_time < ?`, &result.Sessions},
	}
	for _, d := range deletes {
		res, err := s.db.Exec(d.query, cutoff)
		if err != nil {
			return result, wrap("delete", d.table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			*d.count = n
		}
	}

	if result.Total() > 0 {
		if _, err := s.db.Exec("VACUUM"); err != nil {
			log.Printf("Warning: failed to vacuum database: %v", err)
		}
	}
	return result, nil
}
