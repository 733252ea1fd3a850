package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// fileMode keeps the config owner-only; it may hold a bot token.
	fileMode   = 0o600
	dirMode    = 0o700
	backupExt  = ".bak"
	tempPrefix = ".config-*.tmp"
)

// Save validates cfg and writes it to path. The previous file, if any, is
// kept next to it with a .bak suffix.
func Save(cfg *Config, path string) error {
	if err := Validate(cfg); err != nil {
		if ice, ok := err.(*InvalidConfigError); ok {
			ice.Path = path
		}
		return err
	}
	return write(cfg, path)
}

// write persists cfg without validating it.
func write(cfg *Config, path string) error {
	if err := ensureWritable(path); err != nil {
		return err
	}

	if err := keepBackup(path); err != nil {
		log.Printf("Warning: could not back up %s: %v", path, err)
	}

	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return replaceFile(path, append(payload, '\n'))
}

// keepBackup copies the current file to path.bak. A missing file is not an
// error.
func keepBackup(path string) error {
	current, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return err
	}
	return os.WriteFile(path+backupExt, current, fileMode)
}

// replaceFile writes data to a temp file in the target directory and renames
// it over path, so readers never observe a partial config.
func replaceFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, tempPrefix)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ensureWritable reports a PermissionError before anything is touched when
// either the directory or an existing file cannot be written.
func ensureWritable(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return &PermissionError{
			Path:    dir,
			Op:      "write",
			Fix:     chmodHint(dir, "u+w"),
			Details: "the config directory is not writable",
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	if f, err := os.OpenFile(path, os.O_WRONLY, 0); err == nil {
		f.Close()
	} else if !os.IsNotExist(err) {
		return &PermissionError{
			Path:    path,
			Op:      "write",
			Fix:     chmodHint(path, "u+w"),
			Details: "the config file is read-only",
		}
	}
	return nil
}

// chmodHint suggests how to grant access to path.
func chmodHint(path, mode string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("grant your user access to %s in its Security properties", path)
	}
	return fmt.Sprintf("chmod %s %s", mode, path)
}

// modeOf describes the current permission bits of path, if known.
func modeOf(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("mode is %04o", info.Mode().Perm())
}
