// Package audit decouples the response path from audit delivery with a
// bounded in-process queue drained by a single consumer goroutine.
// Enqueue never blocks: when the queue is full the entry is dropped and
// counted, so back-pressure cannot reach retrieval latency.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/core/ports"
)

const DefaultQueueSize = 256

type Dispatcher struct {
	sink   ports.AuditSink
	logger *slog.Logger

	queue   chan domain.AuditEntry
	dropped atomic.Int64

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func NewDispatcher(sink ports.AuditSink, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan domain.AuditEntry, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the consumer goroutine. Safe to call once; entries
// enqueued before Start wait in the channel.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.consume()
	})
}

// PublishQueryAudited enqueues without blocking. A saturated queue drops
// the entry; the caller's retrieval result is never affected.
func (d *Dispatcher) PublishQueryAudited(_ context.Context, entry domain.AuditEntry) error {
	select {
	case d.queue <- entry:
	default:
		dropped := d.dropped.Add(1)
		d.logger.Warn("audit_queue_full", "dropped_total", dropped, "entry_id", entry.ID)
	}
	return nil
}

// Stop closes the queue and waits for the consumer to drain it.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

// Dropped reports how many entries were discarded due to saturation.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) consume() {
	defer close(d.done)
	for entry := range d.queue {
		if err := d.sink.PublishQueryAudited(context.Background(), entry); err != nil {
			d.logger.Warn("audit_sink_failed", "entry_id", entry.ID, "error", err)
		}
	}
}
