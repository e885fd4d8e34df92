package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberwild/emberwild/internal/game/actor"
)

// ActorRepository persists actors and implements the combat core's actor
// store. HP writes are single UPDATE statements, so concurrent damage on one
// actor serializes at the row and never loses an update.
type ActorRepository struct {
	db *pgxpool.Pool
}

// NewActorRepository creates an ActorRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewActorRepository(db *pgxpool.Pool) *ActorRepository {
	return &ActorRepository{db: db}
}

// Create inserts a new actor row.
//
// Precondition: a.ID must be non-empty and unused.
func (r *ActorRepository) Create(ctx context.Context, a *actor.Actor) error {
	resistances, err := json.Marshal(orEmpty(a.Resistances))
	if err != nil {
		return fmt.Errorf("encoding resistances: %w", err)
	}
	stats, err := json.Marshal(orEmpty(a.Stats))
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO actors (id, location, x, y, hp, armor_level, resistances, stats, alive)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.Location, a.X, a.Y, a.HP, a.ArmorLevel, resistances, stats, a.Alive,
	)
	if err != nil {
		return fmt.Errorf("inserting actor: %w", err)
	}
	return nil
}

// Get retrieves an actor by ID.
//
// Postcondition: Returns actor.ErrActorNotFound when no row matches.
func (r *ActorRepository) Get(ctx context.Context, id string) (*actor.Actor, error) {
	var (
		a           actor.Actor
		resistances []byte
		stats       []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, location, x, y, hp, armor_level, resistances, stats, alive
		FROM actors WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Location, &a.X, &a.Y, &a.HP, &a.ArmorLevel, &resistances, &stats, &a.Alive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("querying actor %q: %w", id, actor.ErrActorNotFound)
		}
		return nil, fmt.Errorf("querying actor: %w", err)
	}
	if err := json.Unmarshal(resistances, &a.Resistances); err != nil {
		return nil, fmt.Errorf("decoding resistances for actor %q: %w", id, err)
	}
	if err := json.Unmarshal(stats, &a.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats for actor %q: %w", id, err)
	}
	return &a, nil
}

// ApplyHPDelta adds delta to the actor's hit points, flooring at 0, and
// returns the new value.
//
// Postcondition: Returned HP >= 0; actor.ErrActorNotFound when id is unknown.
func (r *ActorRepository) ApplyHPDelta(ctx context.Context, id string, delta int) (int, error) {
	var hp int
	err := r.db.QueryRow(ctx, `
		UPDATE actors SET hp = GREATEST(0, hp + $2), updated_at = NOW()
		WHERE id = $1
		RETURNING hp`,
		id, delta,
	).Scan(&hp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("updating hp for actor %q: %w", id, actor.ErrActorNotFound)
		}
		return 0, fmt.Errorf("updating hp: %w", err)
	}
	return hp, nil
}

// MarkDead flips the actor's alive flag to false. Idempotent.
func (r *ActorRepository) MarkDead(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE actors SET alive = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("marking actor dead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("marking actor %q dead: %w", id, actor.ErrActorNotFound)
	}
	return nil
}

// SetPosition moves the actor to a cell, possibly in another location.
func (r *ActorRepository) SetPosition(ctx context.Context, id, location string, x, y int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE actors SET location = $2, x = $3, y = $4, updated_at = NOW() WHERE id = $1`,
		id, location, x, y,
	)
	if err != nil {
		return fmt.Errorf("moving actor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("moving actor %q: %w", id, actor.ErrActorNotFound)
	}
	return nil
}

// ListByLocation returns all actors standing in the given location.
func (r *ActorRepository) ListByLocation(ctx context.Context, location string) ([]*actor.Actor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, location, x, y, hp, armor_level, resistances, stats, alive
		FROM actors WHERE location = $1 ORDER BY id ASC`,
		location,
	)
	if err != nil {
		return nil, fmt.Errorf("listing actors: %w", err)
	}
	defer rows.Close()

	actors := make([]*actor.Actor, 0)
	for rows.Next() {
		var (
			a           actor.Actor
			resistances []byte
			stats       []byte
		)
		if err := rows.Scan(&a.ID, &a.Location, &a.X, &a.Y, &a.HP, &a.ArmorLevel, &resistances, &stats, &a.Alive); err != nil {
			return nil, fmt.Errorf("scanning actor row: %w", err)
		}
		if err := json.Unmarshal(resistances, &a.Resistances); err != nil {
			return nil, fmt.Errorf("decoding resistances: %w", err)
		}
		if err := json.Unmarshal(stats, &a.Stats); err != nil {
			return nil, fmt.Errorf("decoding stats: %w", err)
		}
		actors = append(actors, &a)
	}
	return actors, rows.Err()
}

func orEmpty(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
