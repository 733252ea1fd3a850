package version

import "testing"

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"development build", Info{Version: "dev", Commit: "none", Date: "unknown"}, "dev (development build)"},
		{"release build", Info{Version: "v0.3.0", Commit: "abc1234", Date: "2026-03-01"}, "v0.3.0 (commit: abc1234, built: 2026-03-01)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	if got := Get(); got.Version != "v1.2.3" {
		t.Errorf("Get().Version = %q", got.Version)
	}
}
