package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store is an append-only audit sink. Append must be durable before it
// returns; the fail-closed publisher relies on that.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRegistrant(ctx context.Context, registrantID uuid.UUID) ([]Event, error)
}

// InMemoryStore keeps events in process memory. Used in tests and local
// development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByRegistrant(_ context.Context, registrantID uuid.UUID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.RegistrantID == registrantID {
			out = append(out, event)
		}
	}
	return out, nil
}

// All returns every recorded event, in append order.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
