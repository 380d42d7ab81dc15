package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/events"
)

// DefaultAuditBuffer is the number of events that may wait for the writer.
const DefaultAuditBuffer = 256

// ErrAuditQueueFull is returned to the publisher when an event is dropped.
var ErrAuditQueueFull = errors.New("audit queue full, event dropped")

// Recorder persists one audit event.
type Recorder interface {
	Record(ctx context.Context, event events.Event) error
}

// AuditWorker moves audit writes off the request path. Events published on
// the dispatcher are buffered and written by a single goroutine in order.
type AuditWorker struct {
	recorder Recorder
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan events.Event
	wg     sync.WaitGroup
}

// NewAuditWorker creates a stopped worker.
func NewAuditWorker(recorder Recorder, logger *zap.Logger, buffer int) *AuditWorker {
	if buffer <= 0 {
		buffer = DefaultAuditBuffer
	}
	return &AuditWorker{
		recorder: recorder,
		logger:   logger.Named("audit_worker"),
		queue:    make(chan events.Event, buffer),
	}
}

// StartAuditWorker subscribes a new worker to every event and starts it.
// The caller must Stop it to flush pending events.
func StartAuditWorker(dispatcher events.Dispatcher, recorder Recorder, logger *zap.Logger) *AuditWorker {
	w := NewAuditWorker(recorder, logger, DefaultAuditBuffer)
	dispatcher.Subscribe(events.AllEvents, w.Enqueue)
	w.Start()
	return w
}

// Start launches the writer goroutine.
func (w *AuditWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Enqueue hands an event to the writer without blocking the publisher.
func (w *AuditWorker) Enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrAuditQueueFull
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrAuditQueueFull
	}
}

// Stop refuses new events and waits until the buffered ones are written.
func (w *AuditWorker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *AuditWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		if err := w.recorder.Record(context.Background(), event); err != nil {
			w.logger.Warn("failed to record audit event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}
}
