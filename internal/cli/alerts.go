package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/khanglvm/promptwatch/internal/model"
	"github.com/khanglvm/promptwatch/internal/search"
	"github.com/khanglvm/promptwatch/internal/storage"
)

// NewAlertsCmd creates the 'alerts' command group.
func NewAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Review security alerts",
		Long: `Security alerts are raised for high and critical risk prompts. Each alert
keeps a sanitized excerpt: API keys, SSNs and card numbers are redacted and
long text is truncated.`,
	}

	cmd.AddCommand(newAlertsListCmd())
	cmd.AddCommand(newAlertsResolveCmd())
	cmd.AddCommand(newAlertsSearchCmd())
	cmd.AddCommand(newAlertsExportCmd())
	return cmd
}

func parseSeverity(s string) (model.RiskLevel, error) {
	switch level := model.RiskLevel(strings.ToLower(s)); level {
	case "", model.RiskHigh, model.RiskCritical:
		return level, nil
	case model.RiskLow, model.RiskMedium:
		return "", fmt.Errorf("alerts are only raised for high and critical risk, got %q", s)
	default:
		return "", fmt.Errorf("unknown severity %q (use high or critical)", s)
	}
}

func sinceTime(since time.Duration) time.Time {
	if since <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-since)
}

func newAlertsListCmd() *cobra.Command {
	var (
		since      time.Duration
		severity   string
		unresolved bool
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent alerts",
		Example: `  promptwatch alerts list
  promptwatch alerts list --unresolved --severity critical
  promptwatch alerts list --since 24h --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseSeverity(severity)
			if err != nil {
				return err
			}
			history, err := openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			alerts, err := history.ListAlerts(storage.AlertFilter{
				Since:          sinceTime(since),
				Severity:       level,
				UnresolvedOnly: unresolved,
				Limit:          limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, alerts)
			}
			printAlerts(out, alerts)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "Only alerts newer than this (e.g. 24h)")
	cmd.Flags().StringVarP(&severity, "severity", "s", "", "Only high or critical alerts")
	cmd.Flags().BoolVarP(&unresolved, "unresolved", "u", false, "Hide resolved alerts")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of alerts (0 for all)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func printAlerts(w io.Writer, alerts []storage.SecurityAlert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, okStyle.Render("No alerts"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Alerts (%d)", len(alerts))))
	tw := newTable(w, "ID", "TIME", "SEVERITY", "TYPE", "TOOL", "STATUS", "EXCERPT")
	for _, a := range alerts {
		status := "open"
		if a.Resolved {
			status = dimStyle.Render("resolved")
		}
		row(tw,
			strconv.FormatInt(a.ID, 10),
			formatTime(a.Timestamp),
			renderRisk(a.Severity),
			a.AlertType,
			orDash(a.Tool),
			status,
			truncate(a.SanitizedContent, 48),
		)
	}
	tw.Flush()
}

func newAlertsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>...",
		Short: "Mark alerts as resolved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid alert id %q", arg)
				}
				ids = append(ids, id)
			}

			history, err := openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			now := time.Now()
			for _, id := range ids {
				if err := history.ResolveAlert(id, now); err != nil {
					if storage.IsNotFound(err) {
						return fmt.Errorf("alert %d not found", id)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Alert %d resolved\n", okStyle.Render("✓"), id)
			}
			return nil
		},
	}
}

func newAlertsSearchCmd() *cobra.Command {
	var (
		severity   string
		tool       string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search [text...]",
		Short: "Full-text search over alert excerpts",
		Long: `Search sanitized alert excerpts. The search index in
~/.promptwatch/alerts.bleve is brought up to date with the history
database before every search.`,
		Example: `  promptwatch alerts search payroll
  promptwatch alerts search --tool chatgpt --severity critical`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseSeverity(severity)
			if err != nil {
				return err
			}

			history, err := openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			alerts, err := history.ListAlerts(storage.AlertFilter{})
			if err != nil {
				return err
			}

			idx, closeIndex, err := openAlertIndex(alerts)
			if err != nil {
				return err
			}
			defer closeIndex()

			hits, err := idx.Search(search.Query{
				Text:     strings.Join(args, " "),
				Severity: level,
				Tool:     strings.ToLower(tool),
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, hits)
			}
			printHits(out, hits)
			return nil
		},
	}

	cmd.Flags().StringVarP(&severity, "severity", "s", "", "Only high or critical alerts")
	cmd.Flags().StringVarP(&tool, "tool", "t", "", "Only alerts for this AI tool (e.g. chatgpt)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// openAlertIndex returns an index holding alerts. The persistent index is
// used unless a running monitor owns it, in which case a throwaway
// in-memory index is built instead.
func openAlertIndex(alerts []storage.SecurityAlert) (*search.Indexer, func(), error) {
	dir, err := homeDir()
	if err != nil {
		return nil, nil, err
	}

	lock, err := acquireInstanceLock(dir)
	if err != nil {
		if !errors.Is(err, errAlreadyRunning) {
			return nil, nil, err
		}
		idx, err := search.NewIndexer()
		if err != nil {
			return nil, nil, err
		}
		if err := idx.IndexAlerts(alerts); err != nil {
			idx.Close()
			return nil, nil, err
		}
		return idx, func() { idx.Close() }, nil
	}

	idx, err := search.NewIndexerWithPath(filepath.Join(dir, search.DefaultDirName))
	if err != nil {
		releaseInstanceLock(lock)
		return nil, nil, err
	}
	if err := idx.Sync(alerts); err != nil {
		idx.Close()
		releaseInstanceLock(lock)
		return nil, nil, err
	}
	return idx, func() {
		idx.Close()
		releaseInstanceLock(lock)
	}, nil
}

func printHits(w io.Writer, hits []search.AlertHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No matching alerts")
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Matches (%d)", len(hits))))
	tw := newTable(w, "ID", "TIME", "SEVERITY", "TOOL", "SCORE", "EXCERPT")
	for _, h := range hits {
		row(tw,
			strconv.FormatInt(h.ID, 10),
			formatTime(h.Timestamp),
			renderRisk(h.Severity),
			orDash(h.Tool),
			fmt.Sprintf("%.2f", h.Score),
			truncate(h.Content, 56),
		)
	}
	tw.Flush()
}

func newAlertsExportCmd() *cobra.Command {
	var (
		format string
		output string
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export alerts as JSON, JSONL or YAML",
		Example: `  promptwatch alerts export > alerts.json
  promptwatch alerts export --format jsonl --since 720h
  promptwatch alerts export --format yaml --output alerts.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			switch format {
			case "json", "jsonl", "yaml":
			default:
				return fmt.Errorf("unknown format %q (use json, jsonl or yaml)", format)
			}

			history, err := openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			alerts, err := history.ListAlerts(storage.AlertFilter{Since: sinceTime(since)})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := writeAlerts(w, alerts, format); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %d alerts to %s\n", okStyle.Render("✓"), len(alerts), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, jsonl or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only alerts newer than this (e.g. 720h)")
	return cmd
}

// writeAlerts encodes alerts in the given format.
func writeAlerts(w io.Writer, alerts []storage.SecurityAlert, format string) error {
	switch format {
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, a := range alerts {
			if err := enc.Encode(a); err != nil {
				return fmt.Errorf("failed to encode alert: %w", err)
			}
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(alerts)
	default:
		return writeJSON(w, alerts)
	}
}
