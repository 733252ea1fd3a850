package cli

import (
	"github.com/spf13/cobra"

	"github.com/khanglvm/promptwatch/internal/version"
)

// NewRootCmd builds the promptwatch command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "promptwatch",
		Short: "Watch AI tool usage for sensitive data and weak prompts",
		Long: `promptwatch periodically captures the focused window, reads the text of
AI tool windows (ChatGPT, Claude, Gemini, Copilot and others) and warns when
a prompt exposes sensitive data such as API keys, passwords or personal
information. It also coaches on prompt quality.

Only derived results are stored: risk level, detected categories, a content
hash and sanitized alert excerpts. Raw screen text never leaves the process.

State lives in ~/.promptwatch (override with PROMPTWATCH_HOME).`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Log every capture decision")

	root.AddCommand(NewRunCmd())
	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewPrefsCmd())
	root.AddCommand(NewAlertsCmd())
	root.AddCommand(NewStatsCmd())
	root.AddCommand(NewCleanupCmd())
	root.AddCommand(NewVersionCmd())

	return root
}
