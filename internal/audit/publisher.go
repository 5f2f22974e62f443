package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher routes events to the store. Fail-closed actions are written
// synchronously and their error propagates to the caller; everything else
// goes through a buffered channel drained by a background worker.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

// NewPublisher starts the background worker for best-effort events.
// Close must be called to drain the channel on shutdown.
func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	p := &Publisher{
		store:  store,
		logger: logger,
		inbox:  make(chan Event, 256),
	}
	p.wg.Add(1)
	go p.drain()
	return p
}

// Emit records one event. For fail-closed actions the caller must treat
// a returned error as fatal to its own operation.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Action.FailClosed() {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action, "registrant_id", event.RegistrantID, "error", err)
			return err
		}
		return nil
	}

	select {
	case p.inbox <- event:
	default:
		// Full buffer: best-effort events are dropped, never block the
		// request path.
		p.logger.WarnContext(ctx, "audit buffer full, event dropped", "action", event.Action)
	}
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}

// Close stops accepting best-effort events and blocks until the buffer
// is drained.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.inbox)
	})
	p.wg.Wait()
}
