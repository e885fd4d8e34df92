package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberwild/emberwild/internal/game/event"
)

// LoggedEvent is one persisted combat event with its battle context.
type LoggedEvent struct {
	ID        int64
	SessionID string
	TurnIndex int
	Event     event.Event
	CreatedAt time.Time
}

// EventRepository appends combat events to a per-session log. The log is
// append-only; narration and replay layers read it, nothing rewrites it.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates an EventRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Append writes one event to the session's log.
func (r *EventRepository) Append(ctx context.Context, sessionID string, turnIndex int, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding combat event: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO combat_events (session_id, turn_index, event_type, payload)
		VALUES ($1,$2,$3,$4)`,
		sessionID, turnIndex, string(e.Type), payload,
	)
	if err != nil {
		return fmt.Errorf("appending combat event: %w", err)
	}
	return nil
}

// ListBySession returns the session's events in append order.
func (r *EventRepository) ListBySession(ctx context.Context, sessionID string) ([]LoggedEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, turn_index, payload, created_at
		FROM combat_events WHERE session_id = $1 ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing combat events: %w", err)
	}
	defer rows.Close()

	out := make([]LoggedEvent, 0)
	for rows.Next() {
		var (
			le      LoggedEvent
			payload []byte
		)
		if err := rows.Scan(&le.ID, &le.SessionID, &le.TurnIndex, &payload, &le.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning combat event row: %w", err)
		}
		if err := json.Unmarshal(payload, &le.Event); err != nil {
			return nil, fmt.Errorf("decoding combat event %d: %w", le.ID, err)
		}
		out = append(out, le)
	}
	return out, rows.Err()
}

// Sink returns an event.Sink that appends every event to the session's log,
// tagging it with the turn index read from turn at emission time. Append
// failures are reported through onErr since Sink has no error path.
func (r *EventRepository) Sink(sessionID string, turn func() int, onErr func(error)) event.Sink {
	return event.SinkFunc(func(e event.Event) {
		if err := r.Append(context.Background(), sessionID, turn(), e); err != nil && onErr != nil {
			onErr(err)
		}
	})
}
