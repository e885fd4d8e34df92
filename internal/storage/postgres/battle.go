package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberwild/emberwild/internal/game/battle"
)

// ErrSessionNotFound is returned when a battle session lookup yields no rows.
var ErrSessionNotFound = errors.New("battle session not found")

// BattleRepository persists battle sessions, their participants, and their
// session-scoped skills.
type BattleRepository struct {
	db *pgxpool.Pool
}

// NewBattleRepository creates a BattleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

// CreateSession inserts a new running session at turn 0.
//
// Precondition: s.ID must be a fresh UUID; no running session may exist at
// s.Location (enforced by a partial unique index).
func (r *BattleRepository) CreateSession(ctx context.Context, s *battle.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO battle_sessions (id, location, state, turn_index, active_actor)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.Location, string(s.State), s.TurnIndex, nullable(s.ActiveActor),
	)
	if err != nil {
		return fmt.Errorf("inserting battle session: %w", err)
	}
	return nil
}

// GetSession retrieves a session with its participants (join order) and
// skills.
//
// Postcondition: Returns ErrSessionNotFound when no row matches.
func (r *BattleRepository) GetSession(ctx context.Context, id string) (*battle.Session, error) {
	var (
		s      battle.Session
		state  string
		active *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, location, state, turn_index, active_actor
		FROM battle_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Location, &state, &s.TurnIndex, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("querying battle session %q: %w", id, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("querying battle session: %w", err)
	}
	s.State = battle.State(state)
	if active != nil {
		s.ActiveActor = *active
	}

	if err := r.loadParticipants(ctx, &s); err != nil {
		return nil, err
	}
	if err := r.loadSkills(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindRunningByLocation returns the running session at the location, if any.
//
// Postcondition: Returns ErrSessionNotFound when the location is quiet.
func (r *BattleRepository) FindRunningByLocation(ctx context.Context, location string) (*battle.Session, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		SELECT id FROM battle_sessions WHERE location = $1 AND state = 'running'`,
		location,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("finding running session at %q: %w", location, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("finding running session: %w", err)
	}
	return r.GetSession(ctx, id)
}

// AddParticipant joins an actor to the session. Re-joining is a no-op, so
// join order is preserved across repeated starts.
func (r *BattleRepository) AddParticipant(ctx context.Context, sessionID string, p battle.Participant) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO battle_participants (session_id, actor_id, team, initiative, alive)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (session_id, actor_id) DO NOTHING`,
		sessionID, p.ActorID, p.Team, p.Initiative, p.Alive,
	)
	if err != nil {
		return fmt.Errorf("adding battle participant: %w", err)
	}
	return nil
}

// SetTurnIndex stores the session's turn index.
func (r *BattleRepository) SetTurnIndex(ctx context.Context, sessionID string, turnIndex int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE battle_sessions SET turn_index = $2, updated_at = NOW() WHERE id = $1`,
		sessionID, turnIndex,
	)
	if err != nil {
		return fmt.Errorf("updating turn index: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating turn index for session %q: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// SetActiveActor stores whose turn it is.
func (r *BattleRepository) SetActiveActor(ctx context.Context, sessionID, actorID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE battle_sessions SET active_actor = $2, updated_at = NOW() WHERE id = $1`,
		sessionID, nullable(actorID),
	)
	if err != nil {
		return fmt.Errorf("updating active actor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating active actor for session %q: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// FinishSession marks the session finished and deletes its skills.
func (r *BattleRepository) FinishSession(ctx context.Context, sessionID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning finish transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE battle_sessions SET state = 'finished', updated_at = NOW() WHERE id = $1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("finishing battle session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finishing battle session %q: %w", sessionID, ErrSessionNotFound)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM battle_skills WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("purging session skills: %w", err)
	}
	return tx.Commit(ctx)
}

// AddSkill attaches a session-scoped skill.
func (r *BattleRepository) AddSkill(ctx context.Context, sessionID string, sk battle.Skill) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO battle_skills (session_id, actor_id, skill_id, applied_at_turn, duration_turns, note)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		sessionID, sk.ActorID, sk.SkillID, sk.AppliedAtTurn, sk.DurationTurns, sk.Note,
	)
	if err != nil {
		return fmt.Errorf("adding battle skill: %w", err)
	}
	return nil
}

// PurgeExpiredSkills deletes every skill that has run out at the given turn
// index and returns how many were removed.
func (r *BattleRepository) PurgeExpiredSkills(ctx context.Context, sessionID string, turnIndex int) (int, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM battle_skills
		WHERE session_id = $1 AND applied_at_turn + duration_turns <= $2`,
		sessionID, turnIndex,
	)
	if err != nil {
		return 0, fmt.Errorf("purging expired skills: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// MarkParticipantDead flips a participant's alive flag to false.
func (r *BattleRepository) MarkParticipantDead(ctx context.Context, sessionID, actorID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE battle_participants SET alive = FALSE
		WHERE session_id = $1 AND actor_id = $2`,
		sessionID, actorID,
	)
	if err != nil {
		return fmt.Errorf("marking participant dead: %w", err)
	}
	return nil
}

func (r *BattleRepository) loadParticipants(ctx context.Context, s *battle.Session) error {
	rows, err := r.db.Query(ctx, `
		SELECT actor_id, team, initiative, alive
		FROM battle_participants WHERE session_id = $1 ORDER BY join_order ASC`,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p battle.Participant
		if err := rows.Scan(&p.ActorID, &p.Team, &p.Initiative, &p.Alive); err != nil {
			return fmt.Errorf("scanning participant row: %w", err)
		}
		s.Participants = append(s.Participants, p)
	}
	return rows.Err()
}

func (r *BattleRepository) loadSkills(ctx context.Context, s *battle.Session) error {
	rows, err := r.db.Query(ctx, `
		SELECT actor_id, skill_id, applied_at_turn, duration_turns, note
		FROM battle_skills WHERE session_id = $1 ORDER BY id ASC`,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("listing skills: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sk battle.Skill
		if err := rows.Scan(&sk.ActorID, &sk.SkillID, &sk.AppliedAtTurn, &sk.DurationTurns, &sk.Note); err != nil {
			return fmt.Errorf("scanning skill row: %w", err)
		}
		s.Skills = append(s.Skills, sk)
	}
	return rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
