/*
Package version holds build metadata for promptwatch.

Values are injected with ldflags:

	-X github.com/khanglvm/promptwatch/internal/version.Version=v0.3.0
	-X github.com/khanglvm/promptwatch/internal/version.Commit=abc1234
	-X github.com/khanglvm/promptwatch/internal/version.Date=2026-03-01

Unset values report a development build.
*/
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is build metadata in structured form.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the injected build metadata.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String formats the metadata for --version output.
func (i Info) String() string {
	if i.Version == "dev" {
		return "dev (development build)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}
