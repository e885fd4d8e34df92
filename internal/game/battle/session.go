// Package battle manages battle sessions: bounded, turn-indexed groupings of
// participants at one location, plus the session-scoped timed skills that
// expire as turns advance.
package battle

// State is a session's lifecycle state. Sessions start running and finish
// exactly once; there is no transition out of finished.
type State string

// Session states.
const (
	StateRunning  State = "running"
	StateFinished State = "finished"
)

// Session is one battle at one location.
type Session struct {
	ID        string
	Location  string
	State     State
	TurnIndex int
	// ActiveActor is the participant whose turn it is, empty when unset.
	ActiveActor string
	// Participants in join order; join order breaks initiative ties.
	Participants []Participant
	// Skills are the session-scoped timed tags; purged wholesale on end.
	Skills []Skill
}

// Participant is one actor's membership in a session.
type Participant struct {
	ActorID    string
	Team       string
	Initiative int
	Alive      bool
}

// Skill is a session-scoped timed tag on a participant. It expires when
// AppliedAtTurn + DurationTurns <= the session's turn index.
type Skill struct {
	ActorID       string
	SkillID       string
	AppliedAtTurn int
	DurationTurns int
	Note          string
}

// Expired reports whether the skill has run out at the given turn index.
func (s Skill) Expired(turnIndex int) bool {
	return s.AppliedAtTurn+s.DurationTurns <= turnIndex
}

// participant returns a pointer to the named participant, or nil.
func (s *Session) participant(actorID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ActorID == actorID {
			return &s.Participants[i]
		}
	}
	return nil
}
