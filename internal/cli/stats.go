package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/promptwatch/internal/model"
	"github.com/khanglvm/promptwatch/internal/stats"
	"github.com/khanglvm/promptwatch/internal/storage"
)

// statsReport is the JSON form of the stats command.
type statsReport struct {
	stats.Summary
	Sessions []storage.MonitoringSession `json:"sessions"`
}

// NewStatsCmd creates the 'stats' command.
func NewStatsCmd() *cobra.Command {
	var (
		since      time.Duration
		sessions   int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize AI tool usage and risk",
		Long: `Summarize stored usage: interactions, estimated cost, risk levels,
compliance categories and a per-tool breakdown.

Tools are ranked by 0.6*frequency + 0.3*recency + 0.1*safety, where
frequency counts the last 7 days, recency decays with a 24h half-life and
safety is the share of interactions without sensitive data.`,
		Example: `  promptwatch stats
  promptwatch stats --since 720h --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if since <= 0 {
				return fmt.Errorf("--since must be positive")
			}
			store, err := openConfig()
			if err != nil {
				return err
			}
			history, err := openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			now := time.Now()
			from := now.Add(-since)
			// Ranking always needs the full frequency window.
			fetchFrom := from
			if window := now.Add(-stats.FrequencyWindow); window.Before(fetchFrom) {
				fetchFrom = window
			}
			events, err := history.GetUsageHistory("", fetchFrom)
			if err != nil {
				return err
			}
			recent, err := history.ListSessions(sessions)
			if err != nil {
				return err
			}

			report := statsReport{
				Summary:  stats.Summarize(events, from, now, store.Config().Monitoring.CostPerInteraction),
				Sessions: recent,
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, report)
			}
			printStats(out, report, since)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", stats.FrequencyWindow, "Period to summarize")
	cmd.Flags().IntVar(&sessions, "sessions", 5, "Number of recent monitoring sessions to show")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

var riskOrder = []model.RiskLevel{model.RiskCritical, model.RiskHigh, model.RiskMedium, model.RiskLow}

func printStats(w io.Writer, r statsReport, since time.Duration) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Usage over the last %s", since)))
	fmt.Fprintf(w, "  Interactions:   %d\n", r.Interactions)
	fmt.Fprintf(w, "  Estimated cost: $%.2f\n", r.EstimatedCost)

	if r.Interactions > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Risk levels"))
		for _, level := range riskOrder {
			if n := r.RiskLevels[level]; n > 0 {
				fmt.Fprintf(w, "  %-10s %d\n", renderRisk(level), n)
			}
		}
	}

	if len(r.ComplianceFlags) > 0 {
		flags := make([]string, 0, len(r.ComplianceFlags))
		for flag := range r.ComplianceFlags {
			flags = append(flags, flag)
		}
		sort.Strings(flags)

		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Compliance"))
		for _, flag := range flags {
			fmt.Fprintf(w, "  %-12s %d\n", flag, r.ComplianceFlags[flag])
		}
	}

	if len(r.Tools) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w, "TOOL", "USES", "SENSITIVE", "API KEYS", "LAST USED", "SCORE")
		for _, t := range r.Tools {
			row(tw,
				orDash(t.Tool),
				strconv.Itoa(t.Interactions),
				strconv.Itoa(t.Sensitive),
				strconv.Itoa(t.APIKeyExposed),
				formatTime(t.LastUsed),
				fmt.Sprintf("%.3f", t.Score),
			)
		}
		tw.Flush()
	}

	if len(r.Sessions) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w, "SESSION", "STARTED", "ENDED", "USES", "COST")
		for _, s := range r.Sessions {
			ended := "running"
			if s.EndTime != nil {
				ended = formatTime(*s.EndTime)
			}
			row(tw,
				shortID(s.ID),
				formatTime(s.StartTime),
				ended,
				strconv.Itoa(s.TotalUsage),
				fmt.Sprintf("$%.2f", s.TotalCost),
			)
		}
		tw.Flush()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
