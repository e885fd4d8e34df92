package status

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/emberwild/emberwild/internal/game/actor"
	"github.com/emberwild/emberwild/internal/game/event"
)

// Aggregate damage multiplier bounds. A stack of stances can never push the
// combined multiplier outside this window.
const (
	MinDamageMult = 0.1
	MaxDamageMult = 5.0
)

// CombatMods is the aggregate of every status on an attacker/target pair,
// folded into the four knobs the damage model consumes.
type CombatMods struct {
	// Accuracy is the attacker's total hit chance shift.
	Accuracy int
	// DamageBonus is the attacker's total flat damage bonus.
	DamageBonus int
	// DamageMult is the combined damage multiplier from the attacker's
	// outgoing stances and the target's incoming stances, clamped to
	// [MinDamageMult, MaxDamageMult].
	DamageMult float64
	// ArmorBonus is the target's total armor level shift.
	ArmorBonus int
}

// Engine tracks active statuses per actor and applies their round ticks.
// Safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	actors  actor.Store
	sink    event.Sink
	logger  *zap.Logger
	applied map[string][]*Active
}

// NewEngine creates an Engine backed by the given actor store. Events emitted
// during ticks go to sink.
//
// Precondition: actors, sink, and logger must not be nil.
func NewEngine(actors actor.Store, sink event.Sink, logger *zap.Logger) *Engine {
	return &Engine{
		actors:  actors,
		sink:    sink,
		logger:  logger,
		applied: make(map[string][]*Active),
	}
}

// Apply places st on the actor. Reapplying a kind the actor already carries
// replaces the old instance in place; its position in tick order is kept.
//
// Precondition:  st.Remaining > 0.
// Postcondition: the actor carries exactly one instance of st.Kind.
func (e *Engine) Apply(ctx context.Context, actorID string, st Active) error {
	if st.Remaining <= 0 {
		return fmt.Errorf("applying status %q to actor %q: remaining rounds must be positive, got %d", st.Kind, actorID, st.Remaining)
	}
	if _, err := e.actors.Get(ctx, actorID); err != nil {
		return fmt.Errorf("applying status %q: %w", st.Kind, err)
	}

	e.mu.Lock()
	set := e.applied[actorID]
	replaced := false
	for i, existing := range set {
		if existing.Kind == st.Kind {
			set[i] = &st
			replaced = true
			break
		}
	}
	if !replaced {
		e.applied[actorID] = append(set, &st)
	}
	e.mu.Unlock()

	e.logger.Debug("status applied",
		zap.String("actor", actorID),
		zap.String("kind", string(st.Kind)),
		zap.Int("remaining", st.Remaining),
		zap.Bool("replaced", replaced))
	e.sink.Emit(event.Event{Type: event.TypeStatusApply, Actor: actorID, Status: string(st.Kind), Amount: st.Remaining})
	return nil
}

// Remove strips the named kind from the actor. Removing a kind the actor
// does not carry is a no-op.
func (e *Engine) Remove(actorID string, kind Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	set := e.applied[actorID]
	for i, st := range set {
		if st.Kind == kind {
			e.applied[actorID] = append(set[:i:i], set[i+1:]...)
			return
		}
	}
}

// Statuses returns a snapshot of the actor's statuses in application order.
func (e *Engine) Statuses(actorID string) []Active {
	e.mu.Lock()
	defer e.mu.Unlock()
	set := e.applied[actorID]
	out := make([]Active, len(set))
	for i, st := range set {
		out[i] = *st
	}
	return out
}

// Has reports whether the actor currently carries the named kind.
func (e *Engine) Has(actorID string, kind Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, st := range e.applied[actorID] {
		if st.Kind == kind {
			return true
		}
	}
	return false
}

// Tick advances the actor's statuses by one round, in application order:
// each status deals its tick damage, then loses one remaining round, then
// expires if none are left. A status applied with one round remaining both
// ticks and expires in the same call.
//
// Postcondition: HP never drops below 0; a dying actor is marked dead and a
// DEATH event is emitted exactly once.
func (e *Engine) Tick(ctx context.Context, actorID string) error {
	a, err := e.actors.Get(ctx, actorID)
	if err != nil {
		return fmt.Errorf("ticking statuses: %w", err)
	}

	e.mu.Lock()
	set := e.applied[actorID]
	snapshot := make([]Active, len(set))
	for i, st := range set {
		snapshot[i] = *st
	}
	e.mu.Unlock()

	wasAlive := a.Alive
	for _, st := range snapshot {
		if dmg := st.TickDamage(); dmg > 0 {
			hp, err := e.actors.ApplyHPDelta(ctx, actorID, -dmg)
			if err != nil {
				return fmt.Errorf("ticking status %q on actor %q: %w", st.Kind, actorID, err)
			}
			e.sink.Emit(event.Event{Type: event.TypeStatusTick, Actor: actorID, Status: string(st.Kind), Amount: dmg})
			if hp == 0 && wasAlive {
				wasAlive = false
				if err := e.actors.MarkDead(ctx, actorID); err != nil {
					return fmt.Errorf("ticking status %q on actor %q: %w", st.Kind, actorID, err)
				}
				e.sink.Emit(event.Event{Type: event.TypeDeath, Actor: actorID, Detail: string(st.Kind)})
			}
		}
		if e.spendRound(actorID, st.Kind) {
			e.sink.Emit(event.Event{Type: event.TypeStatusExpire, Actor: actorID, Status: string(st.Kind)})
		}
	}
	return nil
}

// spendRound consumes one remaining round on the actor's live instance of the
// kind, removing it when none are left, and reports whether it expired. The
// decrement and removal happen under the lock so concurrent readers never
// observe a torn instance.
func (e *Engine) spendRound(actorID string, kind Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	set := e.applied[actorID]
	for i, st := range set {
		if st.Kind == kind {
			st.Remaining--
			if st.Remaining <= 0 {
				e.applied[actorID] = append(set[:i:i], set[i+1:]...)
				return true
			}
			return false
		}
	}
	return false
}

// Mods folds the attacker's and target's statuses into a single CombatMods.
// Attacker statuses contribute accuracy, flat damage, outgoing multipliers;
// target statuses contribute armor shifts and incoming multipliers. The
// combined multiplier is clamped to [MinDamageMult, MaxDamageMult].
func (e *Engine) Mods(attackerID, targetID string) CombatMods {
	e.mu.Lock()
	defer e.mu.Unlock()

	mods := CombatMods{DamageMult: 1.0}
	for _, st := range e.applied[attackerID] {
		mods.Accuracy += st.Mods.AccuracyMod
		mods.DamageBonus += st.Mods.DamageBonus
		mods.DamageMult *= st.Mods.EffectiveMult()
		mods.DamageMult *= st.Kind.OutgoingMult()
	}
	for _, st := range e.applied[targetID] {
		mods.ArmorBonus += st.Mods.ArmorBonus
		mods.DamageMult *= st.Kind.IncomingMult()
	}
	if mods.DamageMult < MinDamageMult {
		mods.DamageMult = MinDamageMult
	}
	if mods.DamageMult > MaxDamageMult {
		mods.DamageMult = MaxDamageMult
	}
	return mods
}
