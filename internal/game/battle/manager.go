package battle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emberwild/emberwild/internal/game/actor"
	"github.com/emberwild/emberwild/internal/game/status"
)

// Manager errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session already finished")
	ErrNotParticipant  = errors.New("actor is not a participant")
)

// Manager owns every battle session. Starting is idempotent per location:
// one running session per location at a time. Safe for concurrent use;
// sessions at different locations never contend beyond the map lock.
type Manager struct {
	mu         sync.RWMutex
	actors     actor.Store
	statuses   *status.Engine
	logger     *zap.Logger
	sessions   map[string]*Session
	byLocation map[string]string
}

// NewManager creates a Manager. statuses may be nil when turn advancement
// should not tick status effects.
//
// Precondition: actors and logger must not be nil.
func NewManager(actors actor.Store, statuses *status.Engine, logger *zap.Logger) *Manager {
	return &Manager{
		actors:     actors,
		statuses:   statuses,
		logger:     logger,
		sessions:   make(map[string]*Session),
		byLocation: make(map[string]string),
	}
}

// Start returns the running session at location, creating one at turn 0 if
// none exists. Each named actor that exists in the store joins as an alive
// participant; actors already in the session and unknown actor IDs are
// skipped. Join order is preserved.
func (m *Manager) Start(ctx context.Context, location string, actorIDs []string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s *Session
	if id, ok := m.byLocation[location]; ok {
		s = m.sessions[id]
	}
	if s == nil {
		s = &Session{
			ID:       uuid.NewString(),
			Location: location,
			State:    StateRunning,
		}
		m.sessions[s.ID] = s
		m.byLocation[location] = s.ID
		m.logger.Info("battle session started",
			zap.String("session", s.ID),
			zap.String("location", location))
	}

	for _, actorID := range actorIDs {
		if s.participant(actorID) != nil {
			continue
		}
		if _, err := m.actors.Get(ctx, actorID); err != nil {
			if errors.Is(err, actor.ErrActorNotFound) {
				m.logger.Warn("skipping unknown actor on session start",
					zap.String("session", s.ID),
					zap.String("actor", actorID))
				continue
			}
			return nil, fmt.Errorf("starting battle at %q: %w", location, err)
		}
		s.Participants = append(s.Participants, Participant{ActorID: actorID, Alive: true})
	}
	return snapshot(s), nil
}

// Get returns a snapshot of the session.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("looking up session %q: %w", sessionID, ErrSessionNotFound)
	}
	return snapshot(s), nil
}

// AdvanceTurn moves the session forward exactly one turn: the turn index
// increments, expired skills are purged, and every alive participant's
// status effects tick once.
//
// Postcondition: the returned index is the previous index plus 1.
func (m *Manager) AdvanceTurn(ctx context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return 0, fmt.Errorf("advancing turn in session %q: %w", sessionID, ErrSessionNotFound)
	}
	if s.State == StateFinished {
		m.mu.Unlock()
		return 0, fmt.Errorf("advancing turn in session %q: %w", sessionID, ErrSessionFinished)
	}
	s.TurnIndex++
	turn := s.TurnIndex
	kept := s.Skills[:0]
	for _, sk := range s.Skills {
		if !sk.Expired(turn) {
			kept = append(kept, sk)
		}
	}
	s.Skills = kept
	participants := make([]Participant, len(s.Participants))
	copy(participants, s.Participants)
	m.mu.Unlock()

	if m.statuses != nil {
		for _, p := range participants {
			if !p.Alive {
				continue
			}
			if err := m.statuses.Tick(ctx, p.ActorID); err != nil {
				return 0, fmt.Errorf("advancing turn in session %q: %w", sessionID, err)
			}
		}
	}
	return turn, nil
}

// End finishes the session and purges every session-scoped skill. Ending a
// finished session is an error; the finished state is terminal.
func (m *Manager) End(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("ending session %q: %w", sessionID, ErrSessionNotFound)
	}
	if s.State == StateFinished {
		return fmt.Errorf("ending session %q: %w", sessionID, ErrSessionFinished)
	}
	s.State = StateFinished
	s.Skills = nil
	delete(m.byLocation, s.Location)
	m.logger.Info("battle session ended",
		zap.String("session", s.ID),
		zap.String("location", s.Location),
		zap.Int("turns", s.TurnIndex))
	return nil
}

// SetActiveActor records whose turn it is.
//
// Precondition: the actor must be a participant of the session.
func (m *Manager) SetActiveActor(sessionID, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("setting active actor in session %q: %w", sessionID, ErrSessionNotFound)
	}
	if s.participant(actorID) == nil {
		return fmt.Errorf("setting active actor %q in session %q: %w", actorID, sessionID, ErrNotParticipant)
	}
	s.ActiveActor = actorID
	return nil
}

// MarkParticipantDead flips the participant's alive flag to false.
func (m *Manager) MarkParticipantDead(sessionID, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("marking participant dead in session %q: %w", sessionID, ErrSessionNotFound)
	}
	p := s.participant(actorID)
	if p == nil {
		return fmt.Errorf("marking participant %q dead in session %q: %w", actorID, sessionID, ErrNotParticipant)
	}
	p.Alive = false
	return nil
}

// AddSkill attaches a session-scoped timed skill at the current turn index.
func (m *Manager) AddSkill(sessionID, actorID, skillID string, durationTurns int, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("adding skill %q in session %q: %w", skillID, sessionID, ErrSessionNotFound)
	}
	if s.State == StateFinished {
		return fmt.Errorf("adding skill %q in session %q: %w", skillID, sessionID, ErrSessionFinished)
	}
	if s.participant(actorID) == nil {
		return fmt.Errorf("adding skill %q for actor %q in session %q: %w", skillID, actorID, sessionID, ErrNotParticipant)
	}
	s.Skills = append(s.Skills, Skill{
		ActorID:       actorID,
		SkillID:       skillID,
		AppliedAtTurn: s.TurnIndex,
		DurationTurns: durationTurns,
		Note:          note,
	})
	return nil
}

// HasSkill reports whether the actor has an unexpired instance of the skill
// in the session.
func (m *Manager) HasSkill(sessionID, actorID, skillID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	for _, sk := range s.Skills {
		if sk.ActorID == actorID && sk.SkillID == skillID && !sk.Expired(s.TurnIndex) {
			return true
		}
	}
	return false
}

// SessionAt returns the running session at location, if any.
func (m *Manager) SessionAt(location string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byLocation[location]
	if !ok {
		return nil, false
	}
	return snapshot(m.sessions[id]), true
}

func snapshot(s *Session) *Session {
	out := *s
	out.Participants = make([]Participant, len(s.Participants))
	copy(out.Participants, s.Participants)
	out.Skills = make([]Skill, len(s.Skills))
	copy(out.Skills, s.Skills)
	return &out
}
