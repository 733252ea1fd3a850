package notify

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// execCommand is a variable so tests can substitute a fake process.
var execCommand = exec.CommandContext

// DesktopSink shows native notifications through notify-send on Linux and
// osascript on macOS.
type DesktopSink struct {
	AppName string
	goos    string
}

// NewDesktopSink returns a sink for the running OS.
func NewDesktopSink() *DesktopSink {
	return &DesktopSink{AppName: "promptwatch", goos: runtime.GOOS}
}

// Notify implements Sink. It blocks until the user picks an action, the
// notification expires, or ctx ends.
func (d *DesktopSink) Notify(ctx context.Context, n Notification) (string, error) {
	name, args := d.command(n)

	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}

	if d.goos == "darwin" {
		return parseDialogButton(stdout.String(), n.Actions), nil
	}
	return parseActionKey(stdout.String(), n.Actions), nil
}

func (d *DesktopSink) command(n Notification) (string, []string) {
	if d.goos == "darwin" {
		return "osascript", []string{"-e", dialogScript(n)}
	}

	args := []string{"--app-name=" + d.AppName, "--urgency=" + urgency(n.Kind)}
	if n.Duration > 0 {
		args = append(args, "--expire-time="+strconv.FormatInt(n.Duration.Milliseconds(), 10))
	}
	if len(n.Actions) > 0 {
		args = append(args, "--wait")
		for i, a := range n.Actions {
			args = append(args, "--action="+strconv.Itoa(i)+"="+a)
		}
	}
	body := n.Message
	if prompt := n.ImprovedPrompt(); prompt != "" {
		body += "\n\nTry: " + prompt
	}
	return "notify-send", append(args, n.Title, body)
}

func urgency(kind Kind) string {
	switch kind {
	case KindCritical:
		return "critical"
	case KindWarning:
		return "normal"
	default:
		return "low"
	}
}

// parseActionKey maps notify-send's printed action key back to its label.
func parseActionKey(out string, actions []string) string {
	i, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil || i < 0 || i >= len(actions) {
		return ""
	}
	return actions[i]
}

func dialogScript(n Notification) string {
	script := fmt.Sprintf("display dialog %s with title %s", appleString(n.Message), appleString(n.Title))
	if len(n.Actions) > 0 {
		quoted := make([]string, len(n.Actions))
		for i, a := range n.Actions {
			quoted[i] = appleString(a)
		}
		script += fmt.Sprintf(" buttons {%s} default button %s", strings.Join(quoted, ", "), quoted[len(quoted)-1])
	}
	if n.Duration > 0 {
		script += fmt.Sprintf(" giving up after %d", int(n.Duration/time.Second))
	}
	return script
}

// parseDialogButton extracts the label from "button returned:X, gave up:false".
func parseDialogButton(out string, actions []string) string {
	const prefix = "button returned:"
	i := strings.Index(out, prefix)
	if i < 0 {
		return ""
	}
	label := out[i+len(prefix):]
	if j := strings.Index(label, ","); j >= 0 {
		label = label[:j]
	}
	label = strings.TrimSpace(label)
	for _, a := range actions {
		if a == label {
			return a
		}
	}
	return ""
}

func appleString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
