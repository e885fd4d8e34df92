// Package status implements timed combat effects: periodic damage, stance
// multipliers, and stat modifiers that expire as rounds tick by.
package status

import "math"

// Kind names a status effect. The set of kinds with intrinsic behavior is
// closed; a kind outside it still tracks duration and modifiers but has no
// built-in effect.
type Kind string

// Known status kinds.
const (
	KindBurn    Kind = "burn"
	KindBleed   Kind = "bleed"
	KindGuard   Kind = "guard"
	KindRage    Kind = "rage"
	KindPress   Kind = "press"
	KindStagger Kind = "stagger"
)

// TickDamage returns the damage this status deals on one round tick.
// Burn scales with intensity, bleed with stacks; everything else deals none.
func (a *Active) TickDamage() int {
	switch a.Kind {
	case KindBurn:
		return int(math.Round(a.Intensity * 2))
	case KindBleed:
		return a.Stacks
	default:
		return 0
	}
}

// IncomingMult returns the multiplier this kind applies to damage taken by
// its bearer. Guard halves it.
func (k Kind) IncomingMult() float64 {
	if k == KindGuard {
		return 0.5
	}
	return 1.0
}

// OutgoingMult returns the multiplier this kind applies to damage dealt by
// its bearer. Rage raises it.
func (k Kind) OutgoingMult() float64 {
	if k == KindRage {
		return 1.5
	}
	return 1.0
}
