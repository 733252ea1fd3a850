package config

import (
	"errors"
	"sync"
)

// Store holds the process-wide configuration. Reads are cheap and return
// copies; writes go through Update, which validates and persists before
// publishing the new values.
type Store struct {
	mu   sync.RWMutex
	path string
	file Config // as persisted, without environment overrides
}

// NewStore loads path, using defaults when the file is missing.
func NewStore(path string) (*Store, error) {
	cfg, err := LoadFrom(path)
	if err != nil {
		var notFound *ConfigNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		cfg = NewConfig()
	}
	return &Store{path: path, file: *cfg}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Config returns the effective configuration with environment overrides.
func (s *Store) Config() Config {
	s.mu.RLock()
	cfg := s.file
	s.mu.RUnlock()

	ApplyEnv(&cfg)
	return cfg
}

// Preferences returns the current notification preferences.
func (s *Store) Preferences() NotificationPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Notifications
}

// Update applies fn to a copy of the persisted configuration, validates and
// saves it, then makes it current. Validation sees environment overrides so
// a token supplied only through the environment is accepted. On error
// nothing changes.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.file
	if err := fn(&next); err != nil {
		return err
	}

	effective := next
	ApplyEnv(&effective)
	if err := Validate(&effective); err != nil {
		if ice, ok := err.(*InvalidConfigError); ok {
			ice.Path = s.path
		}
		return err
	}
	if err := write(&next, s.path); err != nil {
		return err
	}
	s.file = next
	return nil
}
