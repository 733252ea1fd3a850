/*
Package monitor runs the capture, classify, analyze and notify loop.

A Service owns one monitoring session at a time. Each capture tick passes
through a fixed sequence of gates (busy, analysis throttle, window
classification, blank text) before the text is analyzed, persisted,
forwarded and considered for a notification.
*/
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/promptwatch/internal/analyzer"
	"github.com/khanglvm/promptwatch/internal/capture"
	"github.com/khanglvm/promptwatch/internal/config"
	"github.com/khanglvm/promptwatch/internal/dashboard"
	"github.com/khanglvm/promptwatch/internal/notify"
	"github.com/khanglvm/promptwatch/internal/ocr"
	"github.com/khanglvm/promptwatch/internal/storage"
	"github.com/khanglvm/promptwatch/internal/window"
)

// ErrNotRunning is returned by operations that need an active session.
var ErrNotRunning = errors.New("monitor is not running")

// State is the lifecycle state of a Service.
type State int32

const (
	Stopped State = iota
	Starting
	Active
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ConfigSource supplies the current configuration. *config.Store satisfies
// it; preferences are re-read on every notification decision.
type ConfigSource interface {
	Config() config.Config
}

// AlertIndexer receives newly stored alerts.
type AlertIndexer interface {
	IndexAlerts(alerts []storage.SecurityAlert) error
}

// RecordForwarder receives derived records for the dashboard.
type RecordForwarder interface {
	Forward(r dashboard.Record)
}

// Options wires a Service. Provider, Extractor, Storage and Config are
// required; the rest are optional.
type Options struct {
	Provider   capture.Provider
	Extractor  ocr.Extractor
	Storage    storage.Storage
	Config     ConfigSource
	Analyzer   *analyzer.Analyzer
	Classifier *window.Classifier
	Policy     *notify.Policy

	// Sink shows notifications. Nil disables delivery.
	Sink notify.Sink

	// OnAction is called after the service has handled a user action.
	OnAction notify.ActionHandler

	Index     AlertIndexer
	Forwarder RecordForwarder

	// Now overrides the clock, for tests.
	Now func() time.Time

	// Verbose logs every tick decision.
	Verbose bool
}

// Service is the monitoring state machine.
type Service struct {
	provider   capture.Provider
	extractor  ocr.Extractor
	store      storage.Storage
	cfg        ConfigSource
	analyzer   *analyzer.Analyzer
	classifier *window.Classifier
	policy     *notify.Policy
	dispatcher *notify.Dispatcher
	onAction   notify.ActionHandler
	index      AlertIndexer
	forwarder  RecordForwarder
	now        func() time.Time
	verbose    bool

	busy atomic.Bool

	mu               sync.Mutex
	state            State
	scheduler        *capture.Scheduler
	session          storage.MonitoringSession
	lastAnalysis     time.Time
	lastNotification time.Time
	counters         Counters
}

// Counters tally tick outcomes for the current session.
type Counters struct {
	Ticks    int `json:"ticks"`
	Analyzed int `json:"analyzed"`
	Alerts   int `json:"alerts"`
	Notified int `json:"notified"`
}

// New validates opts and builds a stopped Service.
func New(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("capture provider is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("text extractor is required")
	}
	if opts.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("config source is required")
	}

	s := &Service{
		provider:   opts.Provider,
		extractor:  opts.Extractor,
		store:      opts.Storage,
		cfg:        opts.Config,
		analyzer:   opts.Analyzer,
		classifier: opts.Classifier,
		policy:     opts.Policy,
		onAction:   opts.OnAction,
		index:      opts.Index,
		forwarder:  opts.Forwarder,
		now:        opts.Now,
		verbose:    opts.Verbose,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.analyzer == nil {
		s.analyzer = analyzer.NewWithClock(s.now)
	}
	if s.classifier == nil {
		s.classifier = window.New(nil)
	}
	if s.policy == nil {
		s.policy = notify.NewPolicy(nil)
	}
	if opts.Sink != nil {
		s.dispatcher = notify.NewDispatcher(opts.Sink, s.handleAction)
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns the open session, or ErrNotRunning.
func (s *Service) Session() (storage.MonitoringSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return storage.MonitoringSession{}, ErrNotRunning
	}
	return s.session, nil
}

// Counters returns the tick tallies of the current or last session.
func (s *Service) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// Start opens a session and begins capturing. Calling Start when the
// service is not stopped logs a warning and does nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Stopped {
		state := s.state
		s.mu.Unlock()
		log.Printf("[monitor] Warning: start ignored, monitor is %s", state)
		return nil
	}
	s.state = Starting
	s.mu.Unlock()

	cfg := s.cfg.Config()
	session := storage.MonitoringSession{ID: uuid.NewString(), StartTime: s.now()}
	if err := s.store.OpenSession(session); err != nil {
		s.setState(Stopped)
		return fmt.Errorf("open session: %w", err)
	}

	scheduler := capture.NewScheduler(s.provider, cfg.Monitoring.Interval(), func(ctx context.Context, sample capture.Sample) {
		s.HandleCapture(ctx, sample)
	})

	s.mu.Lock()
	s.session = session
	s.scheduler = scheduler
	s.counters = Counters{}
	s.mu.Unlock()

	if err := scheduler.Start(ctx); err != nil {
		s.closeSession()
		s.setState(Stopped)
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.setState(Active)
	log.Printf("[monitor] started session %s", session.ID)
	return nil
}

// Stop halts capturing and closes the session. Stopping a stopped service
// does nothing.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return nil
	}
	s.state = Stopping
	scheduler := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	scheduler.Stop()
	err := s.closeSession()
	s.setState(Stopped)

	c := s.Counters()
	log.Printf("[monitor] stopped: %d ticks, %d analyzed, %d alerts, %d notified", c.Ticks, c.Analyzed, c.Alerts, c.Notified)
	return err
}

// Wait blocks until every dispatched notification has finished.
func (s *Service) Wait() {
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
}

func (s *Service) closeSession() error {
	s.mu.Lock()
	session := s.session
	end := s.now()
	session.EndTime = &end
	s.session = session
	s.mu.Unlock()

	if err := s.store.CloseSession(session); err != nil {
		log.Printf("[monitor] Warning: failed to close session %s: %v", session.ID, err)
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Service) debugf(format string, args ...any) {
	if s.verbose {
		log.Printf("[monitor] "+format, args...)
	}
}
