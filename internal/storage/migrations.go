package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			log.Printf("Warning: bad timestamp %q in database: %v", s, err)
			return time.Time{}
		}
	}
	return t
}

// schema lists migrations in version order. Each one runs in its own
// transaction together with its schema_migrations row.
var schema = []struct {
	version    int
	name       string
	statements []string
}{
	{1, "initial_schema", []string{
		`CREATE TABLE IF NOT EXISTS usage_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			tool TEXT NOT NULL,
			risk_level TEXT NOT NULL,
			content_type TEXT NOT NULL,
			sensitive_data_detected INTEGER NOT NULL DEFAULT 0,
			api_key_exposed INTEGER NOT NULL DEFAULT 0,
			compliance_flags TEXT NOT NULL DEFAULT '[]',
			content_hash TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_events_tool ON usage_events(tool)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_events_timestamp ON usage_events(timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS security_alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			alert_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			tool TEXT NOT NULL DEFAULT '',
			sanitized_content TEXT NOT NULL,
			resolved INTEGER NOT NULL DEFAULT 0,
			session_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_security_alerts_timestamp ON security_alerts(timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS monitoring_sessions (
			id TEXT PRIMARY KEY,
			start_time TEXT NOT NULL,
			end_time TEXT,
			total_usage INTEGER NOT NULL DEFAULT 0,
			total_cost REAL NOT NULL DEFAULT 0
		)`,
	}},
	{2, "alert_resolution", []string{
		`ALTER TABLE security_alerts ADD COLUMN resolved_at TEXT`,
	}},
}

// runMigrations brings the schema up to the latest version.
func (s *SQLiteStorage) runMigrations() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return err
	}

	for _, m := range schema {
		if m.version <= current {
			continue
		}
		log.Printf("[storage] applying migration %d (%s)", m.version, m.name)
		if err := s.apply(m.version, m.name, m.statements); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) apply(version int, name string, statements []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, version, name); err != nil {
		return err
	}
	return tx.Commit()
}

func flagsToJSON(flags []string) string {
	if flags == nil {
		flags = []string{}
	}
	data, err := json.Marshal(flags)
	if err != nil {
		log.Printf("Warning: failed to marshal compliance flags: %v", err)
		return "[]"
	}
	return string(data)
}

func jsonToFlags(s string) []string {
	flags := []string{}
	if err := json.Unmarshal([]byte(s), &flags); err != nil {
		log.Printf("Warning: failed to parse compliance flags: %v", err)
		return []string{}
	}
	return flags
}
