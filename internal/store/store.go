package store

import (
	"log/slog"
	"sync"

	"hangout-chat/go-client/pkg/models"
)

// Mirror is the durable record the collection is kept in sync with. The
// store is its only writer.
type Mirror interface {
	Persist(rels []models.Relationship) error
}

// Store serializes every dispatch through one mutex, applies the reducer,
// runs the persistence effect while still inside the critical section, then
// notifies subscribers. This is the single dispatch path all mutation flows
// through.
type Store struct {
	mu     sync.Mutex
	state  State
	mirror Mirror
	logger *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

func New(mirror Mirror, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		mirror: mirror,
		logger: logger,
		subs:   make(map[int]func(State)),
	}
}

// Dispatch applies the action and returns the resulting state. A mirror
// write failure is surfaced in Err but does not roll back the in-memory
// transition; the next successful write converges the record.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	next := Reduce(s.state, action)
	if s.mirror != nil && persistAfter(action) {
		if err := s.mirror.Persist(next.Relationships); err != nil {
			s.logger.Error("relationship mirror write failed", "error", err)
			next.Err = err
		}
	}
	s.state = next
	s.mu.Unlock()

	s.notify(next)
	return next
}

// Snapshot returns the current state value.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an observer called after every dispatch with the new
// state. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(state State) {
	s.subMu.Lock()
	observers := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	s.subMu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}
