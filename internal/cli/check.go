package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/promptwatch/internal/analyzer"
	"github.com/khanglvm/promptwatch/internal/capture"
	"github.com/khanglvm/promptwatch/internal/model"
	"github.com/khanglvm/promptwatch/internal/monitor"
	"github.com/khanglvm/promptwatch/internal/notify"
	"github.com/khanglvm/promptwatch/internal/ocr"
	"github.com/khanglvm/promptwatch/internal/window"
)

// checkReport is the JSON form of a check.
type checkReport struct {
	Classification model.WindowClassification `json:"classification"`
	Result         model.AnalysisResult       `json:"result"`
	AlertID        int64                      `json:"alertId,omitempty"`
}

// NewCheckCmd creates the 'check' command for analyzing a prompt on demand.
func NewCheckCmd() *cobra.Command {
	var (
		windowTitle string
		record      bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "check [prompt...]",
		Short: "Analyze a prompt for sensitive data and quality",
		Long: `Analyze prompt text without capturing the screen. The text is taken from
the arguments, or from stdin when no argument (or "-") is given.

With --record the result is stored like a captured sample and a
notification is shown according to your preferences.`,
		Example: `  promptwatch check "summarize this customer list for me"
  pbpaste | promptwatch check --window "Chrome - claude.ai"
  promptwatch check --record --json -- "my password: hunter2, why does login fail?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readPrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no prompt text given")
			}
			report, err := checkPrompt(cmd, text, windowTitle, record)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printCheck(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&windowTitle, "window", "w", "", "Window title the prompt was typed in")
	cmd.Flags().BoolVarP(&record, "record", "r", false, "Store the result and notify")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

func readPrompt(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func checkPrompt(cmd *cobra.Command, text, windowTitle string, record bool) (checkReport, error) {
	if !record {
		return analyzeOnly(text, windowTitle), nil
	}

	store, err := openConfig()
	if err != nil {
		return checkReport{}, err
	}
	history, err := openHistory()
	if err != nil {
		return checkReport{}, err
	}
	defer history.Close()

	svc, err := monitor.New(monitor.Options{
		Provider:  capture.ProviderFunc(noCapture),
		Extractor: ocr.Passthrough{},
		Storage:   history,
		Config:    store,
		Sink:      notify.NewConsoleSink(cmd.ErrOrStderr()),
		Verbose:   verbose(cmd),
	})
	if err != nil {
		return checkReport{}, err
	}

	tick, err := svc.AnalyzeNow(cmd.Context(), text, windowTitle)
	if err != nil {
		return checkReport{}, err
	}
	svc.Wait()

	return checkReport{
		Classification: tick.Classification,
		Result:         *tick.Result,
		AlertID:        tick.AlertID,
	}, nil
}

// analyzeOnly runs the analyzer without touching history or sinks.
func analyzeOnly(text, windowTitle string) checkReport {
	return checkReport{
		Classification: window.New(nil).Classify(windowTitle, text),
		Result:         analyzer.New().Analyze(text, windowTitle),
	}
}

func noCapture(context.Context) (capture.Sample, error) {
	return capture.Sample{}, fmt.Errorf("screen capture is not used by check")
}

func printCheck(w io.Writer, r checkReport) {
	res := r.Result

	fmt.Fprintln(w, headerStyle.Render("Prompt analysis"))
	fmt.Fprintf(w, "  Risk:      %s\n", renderRisk(res.RiskLevel))
	fmt.Fprintf(w, "  Tool:      %s\n", orDash(res.AIToolDetected))
	if r.Classification.IsAIWindow {
		fmt.Fprintf(w, "  Window:    %s (%s)\n", r.Classification.Platform, orDash(r.Classification.AppName))
	}
	if res.SensitiveDataDetected {
		fmt.Fprintf(w, "  Sensitive: %s\n", strings.Join(res.SensitiveDataTypes, ", "))
	} else {
		fmt.Fprintf(w, "  Sensitive: %s\n", okStyle.Render("none"))
	}
	fmt.Fprintf(w, "  Quality:   %s\n", res.PromptQuality)
	fmt.Fprintf(w, "  Content:   %s\n", res.ContentType)
	if r.AlertID != 0 {
		fmt.Fprintf(w, "  Alert:     #%d\n", r.AlertID)
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Suggestions"))
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "  [%s] %s\n", s.Priority, s.Title)
			fmt.Fprintf(w, "      %s\n", s.Description)
			if s.ImprovedPrompt != "" {
				fmt.Fprintf(w, "      Try: %s\n", dimStyle.Render(s.ImprovedPrompt))
			}
		}
	}

	if lo := res.LearningOpportunity; lo != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Learn:"), lo.Title)
		if lo.ResourceURL != "" {
			fmt.Fprintf(w, "  %s\n", lo.ResourceURL)
		}
	}
}
