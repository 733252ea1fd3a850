/*
Package dashboard forwards derived usage records to a team dashboard.

Records never carry captured text. The Forwarder batches them in the
background so the monitoring tick never waits on the network.
*/
package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/khanglvm/promptwatch/internal/detect"
	"github.com/khanglvm/promptwatch/internal/model"
)

const (
	// queueSize is the buffer size for the record queue.
	// If full, records are dropped (non-blocking).
	queueSize = 1000

	// DefaultBatchSize is the number of records that triggers an immediate flush.
	DefaultBatchSize = 20

	// DefaultFlushInterval is how often pending records are flushed.
	DefaultFlushInterval = 10 * time.Second

	// sendTimeout bounds one delivery to the sink.
	sendTimeout = 10 * time.Second
)

// Record is one analyzed interaction as seen by the dashboard.
type Record struct {
	Timestamp       time.Time           `json:"timestamp"`
	SessionID       string              `json:"sessionId"`
	Tool            string              `json:"tool"`
	RiskLevel       model.RiskLevel     `json:"riskLevel"`
	PromptQuality   model.PromptQuality `json:"promptQuality"`
	ContentType     model.ContentType   `json:"contentType"`
	SensitiveTypes  []string            `json:"sensitiveTypes"`
	ComplianceFlags []string            `json:"complianceFlags"`
	ContentHash     string              `json:"contentHash"`
}

// NewRecord derives a Record from an analysis result.
func NewRecord(r model.AnalysisResult, sessionID string) Record {
	types := append([]string{}, r.SensitiveDataTypes...)
	return Record{
		Timestamp:       r.Timestamp,
		SessionID:       sessionID,
		Tool:            r.AIToolDetected,
		RiskLevel:       r.RiskLevel,
		PromptQuality:   r.PromptQuality,
		ContentType:     r.ContentType,
		SensitiveTypes:  types,
		ComplianceFlags: detect.ComplianceFlags(r.SensitiveDataTypes),
		ContentHash:     r.ContentHash,
	}
}

// Sink receives batches of records.
type Sink interface {
	Send(ctx context.Context, records []Record) error
}

// Forwarder queues records and delivers them to a Sink in batches.
type Forwarder struct {
	sink          Sink
	batchSize     int
	flushInterval time.Duration

	queue    chan Record
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	sent    int
	dropped int
	failed  int
}

// NewForwarder starts a forwarder. Non-positive sizes fall back to the
// defaults.
func NewForwarder(sink Sink, batchSize int, flushInterval time.Duration) *Forwarder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	f := &Forwarder{
		sink:          sink,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		queue:         make(chan Record, queueSize),
		stopChan:      make(chan struct{}),
	}

	f.wg.Add(1)
	go f.process()

	return f
}

// Forward queues a record (non-blocking).
// If the queue is full, the record is dropped and a warning is logged.
func (f *Forwarder) Forward(r Record) {
	select {
	case <-f.stopChan:
		return
	default:
	}

	select {
	case f.queue <- r:
	default:
		f.mu.Lock()
		f.dropped++
		f.mu.Unlock()
		log.Printf("[dashboard] Warning: queue full, dropping record for %s", r.Tool)
	}
}

// Stop flushes queued records and shuts the forwarder down.
func (f *Forwarder) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopChan)
		f.wg.Wait()
	})
}

// Stats reports delivered, dropped and failed record counts.
func (f *Forwarder) Stats() (sent, dropped, failed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent, f.dropped, f.failed
}

// QueueLen returns the number of records waiting in the queue.
func (f *Forwarder) QueueLen() int {
	return len(f.queue)
}

func (f *Forwarder) process() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, f.batchSize)

	for {
		select {
		case r := <-f.queue:
			batch = append(batch, r)
			if len(batch) >= f.batchSize {
				f.flush(batch)
				batch = make([]Record, 0, f.batchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				f.flush(batch)
				batch = make([]Record, 0, f.batchSize)
			}

		case <-f.stopChan:
			// Drain whatever is queued, then flush and exit.
			for {
				select {
				case r := <-f.queue:
					batch = append(batch, r)
					if len(batch) >= f.batchSize {
						f.flush(batch)
						batch = make([]Record, 0, f.batchSize)
					}
				default:
					f.flush(batch)
					return
				}
			}
		}
	}
}

func (f *Forwarder) flush(batch []Record) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err := f.sink.Send(ctx, batch)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.failed += len(batch)
		log.Printf("[dashboard] Warning: failed to send %d records: %v", len(batch), err)
		return
	}
	f.sent += len(batch)
}
