package combat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emberwild/emberwild/internal/game/actor"
	"github.com/emberwild/emberwild/internal/game/dice"
	"github.com/emberwild/emberwild/internal/game/event"
	"github.com/emberwild/emberwild/internal/game/geometry"
	"github.com/emberwild/emberwild/internal/game/status"
)

// Outcome classifies how an attack resolution ended. Everything except
// OutcomeHit and OutcomeMiss is a precondition failure: a normal game
// outcome that mutated nothing.
type Outcome string

// Attack outcomes.
const (
	OutcomeHit        Outcome = "hit"
	OutcomeMiss       Outcome = "miss"
	OutcomeNoWeapon   Outcome = "no_weapon"
	OutcomeNoAmmo     Outcome = "no_ammo"
	OutcomeOutOfRange Outcome = "out_of_range"
	OutcomeBlocked    Outcome = "los_blocked"
	OutcomeTargetDead Outcome = "target_dead"
)

// Result is the full record of one attack resolution.
type Result struct {
	Outcome  Outcome
	Weapon   string
	Distance int
	Aligned  bool
	Accuracy int
	Roll     int
	Crit     bool
	// Damage is the final damage dealt; zero unless Outcome is OutcomeHit.
	Damage int
	// TargetHP is the target's hit points after the resolution.
	TargetHP   int
	TargetDied bool
	// Events is the ordered event stream of the resolution, also emitted to
	// the Resolver's sink as it was produced.
	Events []event.Event
}

// DeathHook is invoked once when a resolution drops an actor to 0 HP, after
// the DEATH event has been emitted.
type DeathHook func(actorID string)

// Resolver executes attack resolutions against the collaborating stores.
// Each resolution is a single synchronous unit of work; a precondition
// failure mutates nothing, and a storage failure rolls back the ammo charge
// it reserved.
type Resolver struct {
	actors    actor.Store
	equipment Equipment
	statuses  *status.Engine
	blocks    geometry.BlocksFunc
	dice      dice.Source
	sink      event.Sink
	logger    *zap.Logger
	onDeath   DeathHook
}

// NewResolver wires a Resolver. blocks may be nil for obstacle-free
// locations.
//
// Precondition: actors, equipment, statuses, src, sink, and logger must not
// be nil.
func NewResolver(actors actor.Store, equipment Equipment, statuses *status.Engine, blocks geometry.BlocksFunc, src dice.Source, sink event.Sink, logger *zap.Logger) *Resolver {
	return &Resolver{
		actors:    actors,
		equipment: equipment,
		statuses:  statuses,
		blocks:    blocks,
		dice:      src,
		sink:      sink,
		logger:    logger,
	}
}

// OnDeath registers the hook invoked when a resolution kills an actor.
func (r *Resolver) OnDeath(h DeathHook) {
	r.onDeath = h
}

func (r *Resolver) emit(res *Result, e event.Event) {
	res.Events = append(res.Events, e)
	r.sink.Emit(e)
}

// PerformAttack resolves one attack from attacker to target.
//
// Unknown actors and cross-location attacks are hard errors. Precondition
// failures (no weapon, dead target, range, LOS, ammo) return a Result with
// the matching Outcome and zero mutation. On a hit, ammo, HP, and events
// land together or the whole resolution fails.
func (r *Resolver) PerformAttack(ctx context.Context, attackerID, targetID string) (*Result, error) {
	attacker, err := r.actors.Get(ctx, attackerID)
	if err != nil {
		return nil, fmt.Errorf("resolving attack: %w", err)
	}
	target, err := r.actors.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("resolving attack: %w", err)
	}
	if attacker.Location != target.Location {
		return nil, fmt.Errorf("resolving attack: attacker %q is in %q but target %q is in %q", attackerID, attacker.Location, targetID, target.Location)
	}

	res := &Result{TargetHP: target.HP}
	r.emit(res, event.Event{Type: event.TypeAttackStart, Actor: attackerID, Target: targetID})

	weapon, ok := r.equipment.WeaponInHand(attackerID)
	if !ok {
		res.Outcome = OutcomeNoWeapon
		r.emit(res, event.Event{Type: event.TypeNoWeapon, Actor: attackerID})
		return res, nil
	}
	def := weapon.Def
	res.Weapon = def.ID

	if !target.Alive || target.HP == 0 {
		res.Outcome = OutcomeTargetDead
		r.emit(res, event.Event{Type: event.TypeTargetDead, Actor: attackerID, Target: targetID})
		return res, nil
	}

	from := geometry.Cell{X: attacker.X, Y: attacker.Y}
	to := geometry.Cell{X: target.X, Y: target.Y}
	res.Distance = geometry.Distance(from, to)
	res.Aligned = geometry.Aligned(from, to)

	if def.IsMelee() && res.Distance != 1 {
		res.Outcome = OutcomeOutOfRange
		r.emit(res, event.Event{Type: event.TypeAttackOutOfRange, Actor: attackerID, Target: targetID, Detail: "melee_requires_adjacent"})
		return res, nil
	}
	if def.MaxRange > 0 && res.Distance > def.MaxRange {
		res.Outcome = OutcomeOutOfRange
		r.emit(res, event.Event{Type: event.TypeAttackOutOfRange, Actor: attackerID, Target: targetID, Detail: "beyond_max_range"})
		return res, nil
	}
	if r.blocks != nil && !geometry.HasLOS(attacker.Location, from, to, r.blocks) {
		res.Outcome = OutcomeBlocked
		r.emit(res, event.Event{Type: event.TypeLOSBlocked, Actor: attackerID, Target: targetID})
		return res, nil
	}

	// A miss still costs ammo, so the charge is reserved before the roll.
	plan, ok, err := reserveAmmo(r.equipment, attackerID, weapon)
	if err != nil {
		return nil, fmt.Errorf("resolving attack: %w", err)
	}
	if !ok {
		res.Outcome = OutcomeNoAmmo
		r.emit(res, event.Event{Type: event.TypeNoAmmo, Actor: attackerID, Weapon: def.ID})
		return res, nil
	}
	for _, e := range plan.events(attackerID) {
		r.emit(res, e)
	}

	mods := r.statuses.Mods(attackerID, targetID)
	actx := AttackContext{
		Weapon:           def,
		Distance:         res.Distance,
		Aligned:          res.Aligned,
		AttackerAccBonus: int(attacker.Stat("acc_bonus")),
		TargetEvasion:    int(target.Stat("evasion")),
		Mods:             mods,
		TargetResistance: target.Resistance(def.DamageType),
		TargetArmorLevel: target.ArmorLevel + mods.ArmorBonus,
	}

	res.Accuracy = Accuracy(actx)
	res.Roll = dice.Percent(r.dice)
	r.emit(res, event.Event{Type: event.TypeHitRoll, Actor: attackerID, Target: targetID, Roll: res.Roll, Accuracy: res.Accuracy})

	if res.Roll > res.Accuracy {
		res.Outcome = OutcomeMiss
		r.emit(res, event.Event{Type: event.TypeAttackMiss, Actor: attackerID, Target: targetID, Roll: res.Roll, Accuracy: res.Accuracy})
		r.finishAmmo(plan, attackerID)
		return res, nil
	}

	breakdown := ResolveDamage(res.Roll, actx)
	res.Crit = breakdown.Crit
	if breakdown.Crit {
		r.emit(res, event.Event{Type: event.TypeAttackCrit, Actor: attackerID, Target: targetID, Roll: res.Roll})
	}
	if actx.TargetResistance != 1.0 {
		r.emit(res, event.Event{Type: event.TypeResistApply, Actor: attackerID, Target: targetID, Amount: breakdown.AfterResist})
	}
	if breakdown.ArmorLevel > 0 {
		r.emit(res, event.Event{Type: event.TypeArmorApply, Actor: attackerID, Target: targetID, Amount: breakdown.Final})
	}

	hp, err := r.actors.ApplyHPDelta(ctx, targetID, -breakdown.Final)
	if err != nil {
		r.undoHit(ctx, targetID, attackerID, 0, plan)
		return nil, fmt.Errorf("resolving attack: %w", err)
	}
	res.Outcome = OutcomeHit
	res.Damage = breakdown.Final
	res.TargetHP = hp
	r.emit(res, event.Event{Type: event.TypeDamageApply, Actor: attackerID, Target: targetID, Amount: breakdown.Final})
	r.emit(res, event.Event{Type: event.TypeAttackHit, Actor: attackerID, Target: targetID, Weapon: def.ID, Amount: breakdown.Final})

	if hp == 0 && target.Alive {
		if err := r.actors.MarkDead(ctx, targetID); err != nil {
			r.undoHit(ctx, targetID, attackerID, target.HP-hp, plan)
			return nil, fmt.Errorf("resolving attack: %w", err)
		}
		res.TargetDied = true
		r.emit(res, event.Event{Type: event.TypeDeath, Actor: targetID, Detail: attackerID})
		if r.onDeath != nil {
			r.onDeath(targetID)
		}
	}

	r.finishAmmo(plan, attackerID)

	r.logger.Debug("attack resolved",
		zap.String("attacker", attackerID),
		zap.String("target", targetID),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("roll", res.Roll),
		zap.Int("accuracy", res.Accuracy),
		zap.Int("damage", res.Damage))
	return res, nil
}

// undoHit compensates a resolution aborted by a storage failure: the HP the
// target actually lost is re-applied and the reserved ammo charge returned,
// so the attack reads as not having happened. Compensation failures are
// logged; there is nothing further to unwind.
func (r *Resolver) undoHit(ctx context.Context, targetID, attackerID string, hpLost int, p ammoPlan) {
	if hpLost > 0 {
		if _, err := r.actors.ApplyHPDelta(ctx, targetID, hpLost); err != nil {
			r.logger.Error("hp compensation failed after aborted resolution",
				zap.String("target", targetID),
				zap.Int("hp_lost", hpLost),
				zap.Error(err))
		}
	}
	if err := p.rollback(r.equipment); err != nil {
		r.logger.Error("ammo rollback failed after aborted resolution",
			zap.String("attacker", attackerID),
			zap.Error(err))
	}
}

// finishAmmo finalizes the consumption plan once the resolution stands. The
// only commit action is deleting a zero-charge stack, and every ammo accessor
// skips empty stacks, so a failure is logged rather than voiding the attack.
func (r *Resolver) finishAmmo(p ammoPlan, attackerID string) {
	if err := p.commit(r.equipment); err != nil {
		r.logger.Warn("depleted ammo stack not deleted",
			zap.String("attacker", attackerID),
			zap.Error(err))
	}
}

// AttackPreview reports what an attack would face without rolling or
// mutating anything: geometry, range, LOS, and the computed accuracy.
type AttackPreview struct {
	Weapon   string
	Distance int
	Aligned  bool
	HasLOS   bool
	InRange  bool
	Accuracy int
}

// Preview evaluates the attack geometry and accuracy for attacker against
// target without consuming ammo or drawing a roll. Unknown actors and
// cross-location pairs are hard errors; a missing weapon leaves Weapon empty
// with zero accuracy.
func (r *Resolver) Preview(ctx context.Context, attackerID, targetID string) (*AttackPreview, error) {
	attacker, err := r.actors.Get(ctx, attackerID)
	if err != nil {
		return nil, fmt.Errorf("previewing attack: %w", err)
	}
	target, err := r.actors.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("previewing attack: %w", err)
	}
	if attacker.Location != target.Location {
		return nil, fmt.Errorf("previewing attack: attacker %q is in %q but target %q is in %q", attackerID, attacker.Location, targetID, target.Location)
	}

	from := geometry.Cell{X: attacker.X, Y: attacker.Y}
	to := geometry.Cell{X: target.X, Y: target.Y}
	p := &AttackPreview{
		Distance: geometry.Distance(from, to),
		Aligned:  geometry.Aligned(from, to),
		HasLOS:   true,
	}
	if r.blocks != nil {
		p.HasLOS = geometry.HasLOS(attacker.Location, from, to, r.blocks)
	}

	weapon, ok := r.equipment.WeaponInHand(attackerID)
	if !ok {
		return p, nil
	}
	def := weapon.Def
	p.Weapon = def.ID
	if def.IsMelee() {
		p.InRange = p.Distance == 1
	} else {
		p.InRange = def.MaxRange == 0 || p.Distance <= def.MaxRange
	}

	mods := r.statuses.Mods(attackerID, targetID)
	p.Accuracy = Accuracy(AttackContext{
		Weapon:           def,
		Distance:         p.Distance,
		Aligned:          p.Aligned,
		AttackerAccBonus: int(attacker.Stat("acc_bonus")),
		TargetEvasion:    int(target.Stat("evasion")),
		Mods:             mods,
		TargetResistance: target.Resistance(def.DamageType),
		TargetArmorLevel: target.ArmorLevel + mods.ArmorBonus,
	})
	return p, nil
}

// ReloadWeapon reloads the attacker's in-hand weapon from their pack.
func (r *Resolver) ReloadWeapon(ctx context.Context, actorID string) (*ReloadResult, error) {
	if _, err := r.actors.Get(ctx, actorID); err != nil {
		return nil, fmt.Errorf("reloading: %w", err)
	}
	weapon, ok := r.equipment.WeaponInHand(actorID)
	if !ok {
		return &ReloadResult{Outcome: ReloadNoExternalAmmo}, nil
	}
	res, err := Reload(r.equipment, actorID, weapon)
	if err != nil {
		return nil, fmt.Errorf("reloading: %w", err)
	}
	r.logger.Debug("reload resolved",
		zap.String("actor", actorID),
		zap.String("weapon", weapon.ID),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("loaded", res.Loaded))
	return res, nil
}
