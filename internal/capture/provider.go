/*
Package capture produces screen samples on a fixed interval.

A Provider grabs the focused window's title and a screenshot. The Scheduler
drives a Provider from a cron schedule and hands every sample to a callback;
samples are ephemeral and never written to disk by this package.
*/
package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Sample is one screen capture. ImageData holds the raw screenshot; Text is
// set instead when the provider already knows the visible text.
type Sample struct {
	Timestamp    time.Time
	ImageData    []byte
	Text         string
	ActiveWindow string
	ScreenID     string
}

// Provider captures the current screen state.
type Provider interface {
	CaptureScreen(ctx context.Context) (Sample, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Sample, error)

// CaptureScreen calls f(ctx).
func (f ProviderFunc) CaptureScreen(ctx context.Context) (Sample, error) {
	return f(ctx)
}

// fileToken in a screenshot command is replaced with a temporary file path;
// the screenshot is then read from that file instead of stdout.
const fileToken = "{file}"

// defaultCommandTimeout bounds each external command.
const defaultCommandTimeout = 10 * time.Second

// execCommand is a variable so tests can substitute a fake process.
var execCommand = exec.CommandContext

// CommandProvider captures the screen by running OS commands.
type CommandProvider struct {
	// WindowCmd prints the focused window title on stdout.
	WindowCmd []string

	// ScreenshotCmd writes a PNG to stdout, or to the path given by {file}.
	// Empty disables screenshots; samples then carry only the window title.
	ScreenshotCmd []string

	ScreenID string
	Timeout  time.Duration
}

// darwinWindowScript prints "<app> - <window title>" for the frontmost
// application, or just the app name when it has no titled window. Browser
// tab titles live in the window name, so both parts are needed.
var darwinWindowScript = []string{
	`tell application "System Events"`,
	`set frontApp to first application process whose frontmost is true`,
	`set appName to name of frontApp`,
	`try`,
	`set winName to name of front window of frontApp`,
	`on error`,
	`return appName`,
	`end try`,
	`end tell`,
	`if winName is missing value or winName is "" then return appName`,
	`return appName & " - " & winName`,
}

// DefaultCommandProvider returns the commands for the running OS.
func DefaultCommandProvider() *CommandProvider {
	return commandProviderFor(runtime.GOOS)
}

func commandProviderFor(goos string) *CommandProvider {
	if goos == "darwin" {
		cmd := []string{"osascript"}
		for _, line := range darwinWindowScript {
			cmd = append(cmd, "-e", line)
		}
		return &CommandProvider{
			WindowCmd:     cmd,
			ScreenshotCmd: []string{"screencapture", "-x", "-t", "png", fileToken},
			ScreenID:      "main",
			Timeout:       defaultCommandTimeout,
		}
	}
	return &CommandProvider{
		WindowCmd:     []string{"xdotool", "getactivewindow", "getwindowname"},
		ScreenshotCmd: []string{"import", "-window", "root", "png:-"},
		ScreenID:      os.Getenv("DISPLAY"),
		Timeout:       defaultCommandTimeout,
	}
}

// CaptureScreen runs the window and screenshot commands.
func (p *CommandProvider) CaptureScreen(ctx context.Context) (Sample, error) {
	sample := Sample{Timestamp: time.Now(), ScreenID: p.ScreenID}

	if len(p.WindowCmd) > 0 {
		out, err := p.run(ctx, p.WindowCmd)
		if err != nil {
			return Sample{}, fmt.Errorf("active window: %w", err)
		}
		sample.ActiveWindow = strings.TrimSpace(string(out))
	}

	if len(p.ScreenshotCmd) > 0 {
		img, err := p.screenshot(ctx)
		if err != nil {
			return Sample{}, fmt.Errorf("screenshot: %w", err)
		}
		sample.ImageData = img
	}

	return sample, nil
}

func (p *CommandProvider) screenshot(ctx context.Context) ([]byte, error) {
	args := p.ScreenshotCmd
	path := ""
	for i, a := range args {
		if a != fileToken {
			continue
		}
		f, err := os.CreateTemp("", "promptwatch-*.png")
		if err != nil {
			return nil, err
		}
		path = f.Name()
		f.Close()
		defer os.Remove(path)

		args = append([]string(nil), args...)
		args[i] = path
		break
	}

	out, err := p.run(ctx, args)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return out, nil
	}
	return os.ReadFile(filepath.Clean(path))
}

func (p *CommandProvider) run(ctx context.Context, args []string) ([]byte, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}
