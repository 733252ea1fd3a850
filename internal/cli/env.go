/*
Package cli implements the promptwatch commands.

Every command resolves its files under config.HomeDir (~/.promptwatch, or
$PROMPTWATCH_HOME): config.json, history.db, the alerts.bleve search index
and the run.lock instance lock.
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khanglvm/promptwatch/internal/config"
	"github.com/khanglvm/promptwatch/internal/storage"
)

// homeDir returns the state directory, creating it if needed.
func homeDir() (string, error) {
	dir, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// openConfig loads the configuration store, with defaults when no file exists.
func openConfig() (*config.Store, error) {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	store, err := config.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return store, nil
}

// openHistory opens the history database. Commands that only read history
// treat an unusable database as an error rather than degrading silently.
func openHistory() (*storage.SQLiteStorage, error) {
	dir, err := homeDir()
	if err != nil {
		return nil, err
	}
	history := storage.NewStorage(filepath.Join(dir, storage.DefaultFileName))
	if err := history.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return history, nil
}

// verbose reports the inherited --verbose flag. Commands built outside the
// root command have no such flag.
func verbose(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("verbose")
	return err == nil && v
}
