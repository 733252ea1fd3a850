package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCleanupCmd creates the 'cleanup' command.
func NewCleanupCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete history older than the retention period",
		Long: `Delete usage events, alerts and closed monitoring sessions older than
monitoring.retentionDays (or --days). The monitor also does this on start.`,
		Example: `  promptwatch cleanup
  promptwatch cleanup --days 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			retention := time.Duration(days) * 24 * time.Hour
			if !cmd.Flags().Changed("days") {
				store, err := openConfig()
				if err != nil {
					return err
				}
				retention = store.Config().Monitoring.Retention()
			}
			if retention <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Retention is unlimited, nothing to delete")
				return nil
			}

			history, err := openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			result, err := history.Cleanup(retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %d usage events, %d alerts, %d sessions older than %d days\n",
				okStyle.Render("✓"), result.UsageEvents, result.Alerts, result.Sessions, int(retention/(24*time.Hour)))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default: monitoring.retentionDays)")
	return cmd
}
