// Package actor provides the combat-facing actor model and the stores the
// combat core reads and mutates through.
package actor

// Actor is one combat participant: player, NPC, or training dummy.
//
// Invariant: HP >= 0. Alive transitions true → false at most once, and only
// when HP reaches 0.
type Actor struct {
	// ID uniquely identifies the actor.
	ID string
	// Location is the node the actor stands in; combat never crosses locations.
	Location string
	// X, Y is the actor's cell inside the location grid.
	X int
	Y int
	// HP is the current hit points, floored at 0.
	HP int
	// Resistances maps damage type to an incoming damage multiplier.
	// Missing entries default to 1.0.
	Resistances map[string]float64
	// ArmorLevel is the equipped armor level, 0..5.
	ArmorLevel int
	// Stats holds free-form numeric stats such as "acc_bonus" and "evasion".
	Stats map[string]float64
	// Alive is false once the actor has died.
	Alive bool
}

// Resistance returns the incoming damage multiplier for the given damage
// type, defaulting to 1.0.
func (a *Actor) Resistance(damageType string) float64 {
	if m, ok := a.Resistances[damageType]; ok {
		return m
	}
	return 1.0
}

// Stat returns the named stat, or 0 when absent.
func (a *Actor) Stat(name string) float64 {
	return a.Stats[name]
}

// IsDead reports whether the actor has no hit points left.
func (a *Actor) IsDead() bool {
	return a.HP <= 0
}
