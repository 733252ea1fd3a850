package config

import (
	"fmt"
	"strings"
)

// PermissionError means the config file or its directory could not be
// read or written.
type PermissionError struct {
	Path    string
	Op      string // read or write
	Fix     string
	Details string
}

func (e *PermissionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot %s config %s: permission denied", e.Op, e.Path)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	if e.Fix != "" {
		fmt.Fprintf(&b, "\nTry: %s", e.Fix)
	}
	return b.String()
}

// ConfigNotFoundError is returned by LoadFrom for a missing file.
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	if e.Hint == "" {
		return "no config at " + e.Path
	}
	return fmt.Sprintf("no config at %s; %s", e.Path, e.Hint)
}

// InvalidConfigError reports a config that cannot be decoded or holds a
// value outside its allowed range.
type InvalidConfigError struct {
	Path    string
	Field   string
	Message string
	Hint    string
}

func (e *InvalidConfigError) Error() string {
	parts := []string{"invalid config"}
	if e.Path != "" {
		parts[0] += " " + e.Path
	}
	switch {
	case e.Field != "" && e.Message != "":
		parts = append(parts, e.Field+": "+e.Message)
	case e.Field != "":
		parts = append(parts, e.Field)
	case e.Message != "":
		parts = append(parts, e.Message)
	}
	msg := strings.Join(parts, ": ")
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// UnknownKeyError is returned when setting a key that does not exist.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown setting %q (see 'promptwatch prefs show')", e.Key)
}
