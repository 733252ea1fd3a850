package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/khanglvm/promptwatch/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	riskStyles = map[model.RiskLevel]lipgloss.Style{
		model.RiskCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		model.RiskHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		model.RiskMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		model.RiskLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

func renderRisk(level model.RiskLevel) string {
	style, ok := riskStyles[level]
	if !ok {
		return string(level)
	}
	return style.Render(string(level))
}

// newTable returns a tabwriter whose first row is a styled header.
func newTable(w io.Writer, columns ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	styled := make([]string, len(columns))
	for i, c := range columns {
		styled[i] = titleStyle.Render(c)
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// truncate shortens s to n runes, marking the cut.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
