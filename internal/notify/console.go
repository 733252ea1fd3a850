package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(72)

	kindColors = map[Kind]lipgloss.Color{
		KindCritical: lipgloss.Color("196"),
		KindWarning:  lipgloss.Color("214"),
		KindTip:      lipgloss.Color("42"),
		KindLearning: lipgloss.Color("39"),
	}

	consoleTitleStyle = lipgloss.NewStyle().Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))
)

// ConsoleSink prints notifications as boxes. It never reports an action.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink writes to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Notify implements Sink.
func (c *ConsoleSink) Notify(_ context.Context, n Notification) (string, error) {
	out := Render(n)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, out)
	return "", err
}

// Render formats a notification as a bordered box.
func Render(n Notification) string {
	color, ok := kindColors[n.Kind]
	if !ok {
		color = lipgloss.Color("250")
	}

	var b strings.Builder
	b.WriteString(consoleTitleStyle.Foreground(color).Render(n.Title))
	b.WriteString("\n")
	b.WriteString(n.Message)

	if prompt := n.ImprovedPrompt(); prompt != "" {
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("Try: " + prompt))
	}
	if n.ResourceURL != "" {
		b.WriteString("\n")
		b.WriteString(n.ResourceURL)
	}
	if len(n.Actions) > 0 {
		b.WriteString("\n\n")
		b.WriteString(actionStyle.Render("[" + strings.Join(n.Actions, "] [") + "]"))
	}

	return boxStyle.BorderForeground(color).Render(b.String())
}
