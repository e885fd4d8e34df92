package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrActorNotFound is returned when an actor lookup yields no result.
var ErrActorNotFound = errors.New("actor not found")

// Store is the actor persistence boundary consumed by the combat core.
// Implementations must serialize writes per actor so concurrent damage never
// loses an update.
type Store interface {
	// Get returns a snapshot of the actor.
	Get(ctx context.Context, id string) (*Actor, error)
	// ApplyHPDelta adds delta to the actor's hit points, flooring at 0, and
	// returns the new value.
	ApplyHPDelta(ctx context.Context, id string, delta int) (int, error)
	// MarkDead flips the actor's alive flag to false. Idempotent.
	MarkDead(ctx context.Context, id string) error
}

// MemoryStore is an in-memory Store. All methods are safe for concurrent use;
// a single mutex serializes every write, so per-actor updates never race.
type MemoryStore struct {
	mu     sync.RWMutex
	actors map[string]*Actor
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{actors: make(map[string]*Actor)}
}

// Put inserts or replaces an actor.
//
// Precondition: a must be non-nil with a non-empty ID.
func (s *MemoryStore) Put(a *Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[a.ID] = a
}

// Get returns a snapshot copy of the actor, so callers never observe
// half-applied writes and cannot mutate the store through the result.
//
// Postcondition: Returns ErrActorNotFound when id is unknown.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[id]
	if !ok {
		return nil, fmt.Errorf("getting actor %q: %w", id, ErrActorNotFound)
	}
	snapshot := *a
	snapshot.Resistances = copyFloatMap(a.Resistances)
	snapshot.Stats = copyFloatMap(a.Stats)
	return &snapshot, nil
}

// ApplyHPDelta adds delta to the actor's HP, flooring at 0.
//
// Postcondition: Returned HP >= 0; ErrActorNotFound when id is unknown.
func (s *MemoryStore) ApplyHPDelta(ctx context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	if !ok {
		return 0, fmt.Errorf("applying hp delta to actor %q: %w", id, ErrActorNotFound)
	}
	a.HP += delta
	if a.HP < 0 {
		a.HP = 0
	}
	return a.HP, nil
}

// MarkDead flips the actor's alive flag to false.
//
// Postcondition: Alive is false; ErrActorNotFound when id is unknown.
func (s *MemoryStore) MarkDead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	if !ok {
		return fmt.Errorf("marking actor %q dead: %w", id, ErrActorNotFound)
	}
	a.Alive = false
	return nil
}

func copyFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
