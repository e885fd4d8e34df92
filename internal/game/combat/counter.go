package combat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emberwild/emberwild/internal/game/dice"
	"github.com/emberwild/emberwild/internal/game/event"
	"github.com/emberwild/emberwild/internal/game/status"
)

// Counter severity bands on the damage just received.
const (
	counterPressMax = 5
	counterRageMin  = 12
	// counterRageChance is the percent chance a heavy hit enrages instead
	// of staggering.
	counterRageChance = 20
)

// One-turn counter modifier magnitudes.
const (
	pressAccuracyBonus   = 10
	pressDamageBonus     = 2
	rageAccuracyBonus    = 10
	staggerAccuracyDrop  = 15
	counterModifierTurns = 1
)

// CounterResult reports a reactive counter: the one-turn modifier granted to
// the defender (empty when the damage band grants none) and the retaliation
// attack, nil when the defender is in no state to retaliate.
type CounterResult struct {
	Modifier status.Kind
	Attack   *Result
}

// Counter resolves the defender's instinctive retaliation after taking
// damage. Light hits let the defender press the advantage, heavy hits either
// enrage or stagger them, and middling hits grant nothing; the defender then
// attacks the source through the normal resolution, modifier included.
//
// Postcondition: a dead defender neither gains a modifier nor retaliates.
func (r *Resolver) Counter(ctx context.Context, defenderID, attackerID string, damageReceived int) (*CounterResult, error) {
	defender, err := r.actors.Get(ctx, defenderID)
	if err != nil {
		return nil, fmt.Errorf("resolving counter: %w", err)
	}
	if !defender.Alive || defender.HP == 0 {
		return &CounterResult{}, nil
	}

	res := &CounterResult{}
	switch {
	case damageReceived <= counterPressMax:
		res.Modifier = status.KindPress
		err = r.statuses.Apply(ctx, defenderID, status.Active{
			Kind:      status.KindPress,
			Remaining: counterModifierTurns,
			Mods:      status.Modifiers{AccuracyMod: pressAccuracyBonus, DamageBonus: pressDamageBonus},
		})
	case damageReceived >= counterRageMin:
		if dice.Percent(r.dice) <= counterRageChance {
			res.Modifier = status.KindRage
			err = r.statuses.Apply(ctx, defenderID, status.Active{
				Kind:      status.KindRage,
				Remaining: counterModifierTurns,
				Mods:      status.Modifiers{AccuracyMod: rageAccuracyBonus},
			})
		} else {
			res.Modifier = status.KindStagger
			err = r.statuses.Apply(ctx, defenderID, status.Active{
				Kind:      status.KindStagger,
				Remaining: counterModifierTurns,
				Mods:      status.Modifiers{AccuracyMod: -staggerAccuracyDrop},
			})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolving counter: %w", err)
	}
	r.sink.Emit(event.Event{Type: event.TypeCounter, Actor: defenderID, Target: attackerID, Status: string(res.Modifier), Amount: damageReceived})
	r.logger.Debug("counter triggered",
		zap.String("defender", defenderID),
		zap.String("attacker", attackerID),
		zap.Int("damage_received", damageReceived),
		zap.String("modifier", string(res.Modifier)))

	attack, err := r.PerformAttack(ctx, defenderID, attackerID)
	if err != nil {
		return nil, fmt.Errorf("resolving counter: %w", err)
	}
	res.Attack = attack
	return res, nil
}
