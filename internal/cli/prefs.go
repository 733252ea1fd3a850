package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/promptwatch/internal/config"
)

// NewPrefsCmd creates the 'prefs' command group.
func NewPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
		Long: `Preferences live in ~/.promptwatch/config.json. Keys use dotted names,
for example notifications.frequency or monitoring.intervalSeconds.

Environment variables override the file without changing it:
  PROMPTWATCH_TELEGRAM_TOKEN, PROMPTWATCH_TELEGRAM_CHAT_ID,
  PROMPTWATCH_DASHBOARD_URL, PROMPTWATCH_INTERVAL`,
	}

	cmd.AddCommand(newPrefsShowCmd())
	cmd.AddCommand(newPrefsGetCmd())
	cmd.AddCommand(newPrefsSetCmd())
	cmd.AddCommand(newPrefsResetCmd())
	return cmd
}

func newPrefsShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show every preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfig()
			if err != nil {
				return err
			}
			cfg := store.Config()
			out := cmd.OutOrStdout()

			if jsonOutput {
				redacted := cfg
				if redacted.Telegram.Token != "" {
					redacted.Telegram.Token = "***"
				}
				return writeJSON(out, redacted)
			}

			fmt.Fprintf(out, "%s %s\n\n", headerStyle.Render("Preferences"), dimStyle.Render(store.Path()))
			tw := newTable(out, "KEY", "VALUE")
			for _, key := range config.Keys() {
				value, _ := config.Get(&cfg, key)
				if key == "telegram.token" && value != "" {
					value = "***"
				}
				row(tw, key, orDash(value))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func newPrefsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfig()
			if err != nil {
				return err
			}
			cfg := store.Config()
			value, err := config.Get(&cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Example: `  promptwatch prefs set notifications.frequency occasional
  promptwatch prefs set notifications.promptSuggestions true
  promptwatch prefs set monitoring.retentionDays 90`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			store, err := openConfig()
			if err != nil {
				return err
			}
			if err := store.Update(func(c *config.Config) error {
				return config.Set(c, key, value)
			}); err != nil {
				return err
			}
			cfg := store.Config()
			got, _ := config.Get(&cfg, key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", okStyle.Render("✓"), key, got)
			return nil
		},
	}
}

func newPrefsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default preferences",
		Long:  `Restore every preference to its default. The previous file is kept as config.json.bak.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfig()
			if err != nil {
				return err
			}
			if err := store.Update(func(c *config.Config) error {
				*c = *config.NewConfig()
				return nil
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Preferences reset to defaults\n", okStyle.Render("✓"))
			return nil
		},
	}
}
