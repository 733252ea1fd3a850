package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/promptwatch/internal/capture"
	"github.com/khanglvm/promptwatch/internal/config"
	"github.com/khanglvm/promptwatch/internal/dashboard"
	"github.com/khanglvm/promptwatch/internal/monitor"
	"github.com/khanglvm/promptwatch/internal/notify"
	"github.com/khanglvm/promptwatch/internal/ocr"
	"github.com/khanglvm/promptwatch/internal/search"
	"github.com/khanglvm/promptwatch/internal/storage"
)

// shutdownGrace bounds how long run waits for notifications on exit.
const shutdownGrace = 2 * time.Second

// NewRunCmd creates the 'run' command that starts the monitor.
func NewRunCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start monitoring in the foreground",
		Long: `Start the monitor. Every interval the focused window is captured; windows
of AI tools are read with OCR and analyzed. Results are stored in
~/.promptwatch/history.db and notifications are shown on the configured
sinks (console, desktop, Telegram).

Only one monitor may run per state directory. Records older than
monitoring.retentionDays are removed on start. Stop with Ctrl+C.`,
		Example: `  promptwatch run
  promptwatch run --interval 10s
  promptwatch run -v  # log every capture decision`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval != 0 && interval < time.Second {
				return fmt.Errorf("--interval must be at least 1s, got %s", interval)
			}
			return runMonitor(cmd, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Capture interval (overrides monitoring.intervalSeconds)")
	return cmd
}

// runMonitor wires the monitor and blocks until SIGINT/SIGTERM/SIGQUIT.
func runMonitor(cmd *cobra.Command, interval time.Duration) error {
	out := cmd.OutOrStdout()

	dir, err := homeDir()
	if err != nil {
		return err
	}
	lock, err := acquireInstanceLock(dir)
	if err != nil {
		return err
	}
	defer releaseInstanceLock(lock)

	store, err := openConfig()
	if err != nil {
		return err
	}
	var source monitor.ConfigSource = store
	if interval > 0 {
		source = intervalOverride{ConfigSource: store, interval: interval}
	}
	cfg := source.Config()

	history := storage.NewStorage(filepath.Join(dir, storage.DefaultFileName))
	if err := history.Init(); err != nil {
		log.Printf("Warning: history disabled, results will not be stored: %v", err)
	}
	defer history.Close()
	pruneHistory(history, cfg.Monitoring.Retention())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := monitor.Options{
		Provider:  capture.DefaultCommandProvider(),
		Extractor: newExtractor(cfg.OCR),
		Storage:   history,
		Config:    source,
		Verbose:   verbose(cmd),
	}

	indexer, err := search.NewIndexerWithPath(filepath.Join(dir, search.DefaultDirName))
	if err != nil {
		log.Printf("Warning: alert search index disabled: %v", err)
	} else {
		defer indexer.Close()
		opts.Index = indexer
	}

	sink, stopSinks := buildSinks(ctx, cfg, out)
	defer stopSinks()
	if sink != nil {
		opts.Sink = sink
	}

	if cfg.Dashboard.Enabled && cfg.Dashboard.URL != "" {
		fwd := dashboard.NewForwarder(
			dashboard.NewHTTPSink(cfg.Dashboard.URL),
			cfg.Dashboard.BatchSize,
			time.Duration(cfg.Dashboard.FlushIntervalSeconds)*time.Second,
		)
		defer fwd.Stop()
		opts.Forwarder = fwd
	}

	svc, err := monitor.New(opts)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	fmt.Fprintf(out, "%s Monitoring every %s (Ctrl+C to stop)\n", okStyle.Render("✓"), cfg.Monitoring.Interval())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	log.Printf("Received signal: %v, shutting down gracefully...", sig)

	if err := svc.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	waitBriefly(svc.Wait, shutdownGrace)

	c := svc.Counters()
	fmt.Fprintf(out, "Session ended: %d captures, %d analyzed, %d alerts, %d notifications\n",
		c.Ticks, c.Analyzed, c.Alerts, c.Notified)
	return nil
}

// intervalOverride replaces the configured capture interval.
type intervalOverride struct {
	monitor.ConfigSource
	interval time.Duration
}

func (o intervalOverride) Config() config.Config {
	cfg := o.ConfigSource.Config()
	cfg.Monitoring.IntervalSeconds = int(o.interval / time.Second)
	return cfg
}

// newExtractor prefers text attached by the capture provider and falls back
// to tesseract.
func newExtractor(cfg config.OCRConfig) ocr.Extractor {
	tess := ocr.NewTesseract(cfg.Language)
	if cfg.Binary != "" {
		tess.Binary = cfg.Binary
	}
	if !tess.Available() {
		log.Printf("Warning: %s not found in PATH, screen text cannot be read", tess.Binary)
	}
	return ocr.Chain{ocr.Passthrough{}, tess}
}

// buildSinks assembles the enabled notification sinks. The returned sink is
// nil when none is enabled; the stop function is always safe to call.
func buildSinks(ctx context.Context, cfg config.Config, out io.Writer) (notify.Sink, func()) {
	var sinks notify.MultiSink
	stop := func() {}

	if cfg.Sinks.Console {
		sinks = append(sinks, notify.NewConsoleSink(out))
	}
	if cfg.Sinks.Desktop {
		sinks = append(sinks, notify.NewDesktopSink())
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramSink(cfg.Telegram)
		if err == nil {
			err = tg.Start(ctx)
		}
		if err != nil {
			log.Printf("Warning: telegram notifications disabled: %v", err)
		} else {
			sinks = append(sinks, tg)
			stop = tg.Stop
		}
	}

	switch len(sinks) {
	case 0:
		log.Printf("Warning: no notification sink enabled, alerts are only stored")
		return nil, stop
	case 1:
		return sinks[0], stop
	default:
		return sinks, stop
	}
}

// pruneHistory applies the retention policy. Failures are logged only.
func pruneHistory(history storage.Storage, retention time.Duration) {
	if retention <= 0 {
		return
	}
	result, err := history.Cleanup(retention)
	if err != nil {
		log.Printf("Warning: history cleanup failed: %v", err)
		return
	}
	if result.Total() > 0 {
		log.Printf("[storage] removed %d records older than %s", result.Total(), retention)
	}
}

func waitBriefly(wait func(), timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
