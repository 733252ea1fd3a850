/*
Package storage persists usage events, security alerts and monitoring
sessions in a local SQLite database.

The database uses modernc.org/sqlite (a pure Go, CGo-free implementation).
If the database cannot be opened the storage disables itself and every
operation becomes a no-op, so monitoring keeps running without history.
*/
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultFileName is the database file created under the promptwatch home.
const DefaultFileName = "history.db"

// Storage defines the interface for persistent storage operations.
type Storage interface {
	// Init initializes the database and runs migrations.
	Init() error

	// RecordUsage records one interaction with a recognized AI tool.
	RecordUsage(event UsageEvent) error

	// GetUsageHistory retrieves usage for a tool since a given time.
	// An empty tool matches every tool.
	GetUsageHistory(tool string, since time.Time) ([]UsageEvent, error)

	// ListUsage returns usage across every tool, newest first.
	ListUsage(since time.Time, limit int) ([]UsageEvent, error)

	// RecordAlert stores a security alert and returns its ID.
	RecordAlert(alert SecurityAlert) (int64, error)

	// ListAlerts returns alerts matching filter, newest first.
	ListAlerts(filter AlertFilter) ([]SecurityAlert, error)

	// GetAlert returns a single alert.
	GetAlert(id int64) (SecurityAlert, error)

	// ResolveAlert marks an alert as resolved.
	ResolveAlert(id int64, at time.Time) error

	// OpenSession records the start of a monitoring session.
	OpenSession(session MonitoringSession) error

	// CloseSession stores the end time and totals of a session.
	CloseSession(session MonitoringSession) error

	// ListSessions returns the most recent sessions, newest first.
	ListSessions(limit int) ([]MonitoringSession, error)

	// Cleanup removes records older than the retention period.
	Cleanup(retention time.Duration) (CleanupResult, error)

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage is the Storage backed by a single SQLite file.
type SQLiteStorage struct {
	mu       sync.Mutex
	db       *sql.DB
	dbPath   string
	enabled  bool
	initOnce sync.Once
	now      func() time.Time
}

// NewStorage returns a storage for the database at dbPath. Nothing is
// opened until Init. An empty path yields a storage that records nothing.
func NewStorage(dbPath string) *SQLiteStorage {
	s := &SQLiteStorage{dbPath: dbPath, enabled: dbPath != "", now: time.Now}
	if !s.enabled {
		log.Printf("Warning: no database path, history disabled")
	}
	return s
}

// Init opens the database and applies pending migrations. On failure the
// storage switches itself off, logs a warning and returns the cause; later
// calls are no-ops.
func (s *SQLiteStorage) Init() error {
	var err error
	s.initOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.enabled {
			return
		}
		if err = s.open(); err != nil {
			s.enabled = false
			log.Printf("Warning: history disabled: %v", err)
		}
	})
	return err
}

func (s *SQLiteStorage) open() error {
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(s.dbPath), err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.dbPath, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("open %s: %w", s.dbPath, err)
	}
	s.db = db
	if err := s.runMigrations(); err != nil {
		db.Close()
		s.db = nil
		return fmt.Errorf("migrate %s: %w", s.dbPath, err)
	}
	return nil
}

// Enabled reports whether the database is usable.
func (s *SQLiteStorage) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close releases the database. It is safe to call more than once.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", s.dbPath, err)
	}
	return nil
}

// ready reports whether an operation should touch the database.
// Callers must hold s.mu.
func (s *SQLiteStorage) ready() bool {
	return s.enabled && s.db != nil
}
