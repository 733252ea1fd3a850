package capture

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
)

// DefaultInterval is the capture period when none is configured.
const DefaultInterval = 5 * time.Second

// stopTimeout bounds how long Stop waits for an in-flight tick.
const stopTimeout = 5 * time.Second

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("capture scheduler already running")

// Handler receives every successful sample. It runs on the scheduler's
// goroutine; ticks never overlap.
type Handler func(ctx context.Context, sample Sample)

// Scheduler periodically captures the screen and passes samples to a Handler.
type Scheduler struct {
	provider Provider
	interval time.Duration
	handler  Handler

	mu     sync.Mutex
	cron   *rcron.Cron
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. A non-positive interval uses
// DefaultInterval.
func NewScheduler(provider Provider, interval time.Duration, handler Handler) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		provider: provider,
		interval: interval,
		handler:  handler,
	}
}

// Interval returns the capture period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// Start begins capturing. The context passed to the handler is cancelled by
// Stop or when ctx ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	logger := rcron.PrintfLogger(log.Default())
	c := rcron.New(rcron.WithChain(
		rcron.Recover(logger),
		rcron.SkipIfStillRunning(logger),
	))
	c.Schedule(fixedInterval(s.interval), rcron.FuncJob(func() {
		s.Tick(runCtx)
	}))
	c.Start()

	s.cron = c
	s.cancel = cancel
	log.Printf("[capture] started, interval %s", s.interval)
	return nil
}

// Stop halts the schedule and waits for a running tick to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	cancel := s.cancel
	s.cron = nil
	s.cancel = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopTimeout):
		log.Printf("[capture] stop timeout waiting for running tick")
	}
	log.Printf("[capture] stopped")
}

// Tick performs one capture and hands the sample to the handler. Capture
// failures are logged and the tick is dropped.
func (s *Scheduler) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	sample, err := s.provider.CaptureScreen(ctx)
	if err != nil {
		log.Printf("[capture] Warning: capture failed: %v", err)
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	s.handler(ctx, sample)
}

// fixedInterval is a fixed-period schedule. Unlike rcron.Every it allows
// sub-second periods.
type fixedInterval time.Duration

// Next implements rcron.Schedule.
func (i fixedInterval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(i))
}
