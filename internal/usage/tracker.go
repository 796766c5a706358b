package usage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
	"github.com/roofline-ai/roofline-backend/pkg/metrics"
)

// Event is one usage increment to apply asynchronously.
type Event struct {
	UserID  string
	Month   string
	Day     string
	Kind    EventKind
	Premium bool
}

type EventKind string

const (
	EventChat      EventKind = "chat"
	EventReport    EventKind = "report"
	EventWebSearch EventKind = "web_search"
)

// Tracker applies usage events off the request path. Enqueue never blocks
// the caller: when the queue is full the event is dropped and counted.
// Writes run on a detached context so a client disconnect mid-stream does
// not cancel the increment.
type Tracker struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.UsageMetrics

	queue        chan Event
	writeTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	failure error
}

// NewTracker starts the worker goroutine draining the queue.
func NewTracker(cfg config.TrackerConfig, repo Repository, logg *logger.Logger, m *metrics.UsageMetrics) *Tracker {
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	t := &Tracker{
		repo:         repo,
		logg:         logg,
		metrics:      m,
		queue:        make(chan Event, size),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	go t.run()
	return t
}

// Enqueue hands an event to the worker. Returns false when the queue is
// full or the tracker is shut down; the caller's request proceeds either way.
func (t *Tracker) Enqueue(ev Event) bool {
	if t == nil {
		return false
	}
	select {
	case <-t.done:
		t.metrics.IncTrackingDropped()
		return false
	default:
	}

	select {
	case t.queue <- ev:
		t.metrics.SetQueueDepth(len(t.queue))
		return true
	default:
		t.metrics.IncTrackingDropped()
		if t.logg != nil {
			ctx := t.logg.WithFields(context.Background(), map[string]any{
				"user_id": ev.UserID,
				"kind":    string(ev.Kind),
			})
			t.logg.Warn(ctx, "usage tracker queue full, event dropped")
		}
		return false
	}
}

// Close stops accepting events, drains the queue, and reports any write
// failures seen over the tracker's lifetime.
func (t *Tracker) Close(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var closeErr error
	t.closeOnce.Do(func() {
		close(t.done)

		drained := make(chan struct{})
		go func() {
			for {
				select {
				case ev := <-t.queue:
					t.apply(ev)
				default:
					close(drained)
					return
				}
			}
		}()

		select {
		case <-drained:
		case <-ctx.Done():
			closeErr = ctx.Err()
		}
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	return multierr.Append(closeErr, t.failure)
}

func (t *Tracker) run() {
	for {
		select {
		case ev := <-t.queue:
			t.apply(ev)
			t.metrics.SetQueueDepth(len(t.queue))
		case <-t.done:
			return
		}
	}
}

func (t *Tracker) apply(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), t.writeTimeout)
	defer cancel()

	var err error
	switch ev.Kind {
	case EventChat:
		_, err = t.repo.IncrementChat(ctx, ev.UserID, ev.Month, ev.Day, ev.Premium)
	case EventReport:
		_, err = t.repo.IncrementReports(ctx, ev.UserID, ev.Month)
	case EventWebSearch:
		_, err = t.repo.IncrementWebSearches(ctx, ev.UserID, ev.Month)
	default:
		return
	}
	if err != nil {
		t.metrics.IncTrackingFailure(string(ev.Kind))
		if t.logg != nil {
			lctx := t.logg.WithFields(context.Background(), map[string]any{
				"user_id": ev.UserID,
				"month":   ev.Month,
				"kind":    string(ev.Kind),
			})
			t.logg.Error(lctx, "usage tracking write failed", err)
		}
		t.mu.Lock()
		t.failure = multierr.Append(t.failure, err)
		t.mu.Unlock()
	}
}
