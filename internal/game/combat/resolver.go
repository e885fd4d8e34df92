// Package combat resolves attacks: weapon and ammo selection, the accuracy
// roll, the damage pipeline, and reactive counters. The formulas are pure
// functions over an AttackContext; mutation and event emission live in the
// Resolver.
package combat

import (
	"math"

	"github.com/emberwild/emberwild/internal/game/item"
	"github.com/emberwild/emberwild/internal/game/status"
)

// Accuracy bounds. No attack is ever a guaranteed hit or a guaranteed miss.
const (
	MinAccuracy = 5
	MaxAccuracy = 95
)

// Accuracy penalties.
const (
	unalignedPenalty    = 30
	rangeFalloffPerCell = 5
)

// MaxArmorLevel caps effective armor after modifiers.
const MaxArmorLevel = 5

// AttackContext carries everything the pure accuracy and damage formulas
// need, precomputed by the caller: geometry, weapon, actor stats, and the
// aggregated status modifiers.
type AttackContext struct {
	Weapon           *item.WeaponDef
	Distance         int
	Aligned          bool
	AttackerAccBonus int
	TargetEvasion    int
	// Mods is the status aggregate for this attacker/target pair.
	Mods status.CombatMods
	// TargetResistance is the target's multiplier for the weapon's damage type.
	TargetResistance float64
	// TargetArmorLevel is the target's equipped armor level plus the status
	// armor bonus, before clamping.
	TargetArmorLevel int
}

// Accuracy computes the final hit chance: start at 100, penalize misaligned
// and beyond-optimal-range shots, penalize point-blank use of standoff
// weapons, then fold in weapon, actor, and status bonuses.
//
// Postcondition: result ∈ [MinAccuracy, MaxAccuracy].
func Accuracy(ctx AttackContext) int {
	w := ctx.Weapon
	acc := 100
	if !ctx.Aligned {
		acc -= unalignedPenalty
	}
	if over := ctx.Distance - w.OptRange; over > 0 {
		acc -= rangeFalloffPerCell * over
	}
	acc += w.HitBonus
	if w.IsStandoff() && ctx.Distance < w.MinRange {
		acc -= (w.MinRange - ctx.Distance) * w.EffectiveNearPenalty()
	}
	acc += ctx.AttackerAccBonus - ctx.TargetEvasion
	acc += ctx.Mods.Accuracy
	if acc < MinAccuracy {
		return MinAccuracy
	}
	if acc > MaxAccuracy {
		return MaxAccuracy
	}
	return acc
}

// DamageBreakdown records every stage of the damage pipeline for one hit.
type DamageBreakdown struct {
	// Base is the weapon's base damage plus the status flat bonus.
	Base int
	// Crit is true when the hit roll also cleared the crit threshold.
	Crit bool
	// BeforeResist is the damage after the status multiplier and crit, rounded.
	BeforeResist int
	// AfterResist is the damage after the target's resistance, rounded.
	AfterResist int
	// ArmorLevel is the effective armor level used, clamped to [0, MaxArmorLevel].
	ArmorLevel int
	// Final is the damage actually dealt, never below 1.
	Final int
}

// ResolveDamage runs the damage pipeline for a hit with the given roll:
// base + bonus, status multiplier, crit, resistance, then armor. The same
// roll decides both hit and crit.
//
// Precondition:  the roll already cleared the accuracy check.
// Postcondition: Final >= 1.
func ResolveDamage(roll int, ctx AttackContext) DamageBreakdown {
	w := ctx.Weapon
	base := w.EffectiveBaseDamage() + ctx.Mods.DamageBonus
	dmg := float64(base) * ctx.Mods.DamageMult

	crit := roll <= w.CritChance
	if crit {
		dmg *= w.EffectiveCritMult()
	}
	beforeResist := int(math.Round(dmg))

	afterResist := int(math.Round(dmg * ctx.TargetResistance))

	level := clampArmorLevel(ctx.TargetArmorLevel)
	return DamageBreakdown{
		Base:         base,
		Crit:         crit,
		BeforeResist: beforeResist,
		AfterResist:  afterResist,
		ArmorLevel:   level,
		Final:        ApplyArmorReduction(afterResist, level),
	}
}

// ApplyArmorReduction reduces damage by 10% per armor level, flooring the
// result at 1 so a successful hit always lands.
//
// Postcondition: result >= 1; result <= damage for damage >= 1.
func ApplyArmorReduction(damage, level int) int {
	level = clampArmorLevel(level)
	reduced := damage - int(math.Floor(float64(damage)*0.1*float64(level)))
	if reduced < 1 {
		return 1
	}
	return reduced
}

func clampArmorLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxArmorLevel {
		return MaxArmorLevel
	}
	return level
}
