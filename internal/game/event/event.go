// Package event defines the combat event stream: every observable thing the
// combat core does is reported as an ordered sequence of events, so callers
// can replay, log, or narrate a resolution without re-deriving it.
package event

// Type discriminates combat events.
type Type string

// Combat event types, in rough emission order within an attack.
const (
	TypeAttackStart      Type = "ATTACK_START"
	TypeNoWeapon         Type = "NO_WEAPON"
	TypeTargetDead       Type = "TARGET_DEAD"
	TypeLOSBlocked       Type = "LOS_BLOCKED"
	TypeAttackOutOfRange Type = "ATTACK_OUT_OF_RANGE"
	TypeNoAmmo           Type = "NO_AMMO"
	TypeAmmoConsume      Type = "AMMO_CONSUME"
	TypeAmmoEmpty        Type = "AMMO_EMPTY"
	TypeAmmoDepleted     Type = "AMMO_DEPLETED"
	TypeHitRoll          Type = "HIT_ROLL"
	TypeAttackMiss       Type = "ATTACK_MISS"
	TypeAttackCrit       Type = "ATTACK_CRIT"
	TypeResistApply      Type = "RESIST_APPLY"
	TypeArmorApply       Type = "ARMOR_APPLY"
	TypeDamageApply      Type = "DAMAGE_APPLY"
	TypeAttackHit        Type = "ATTACK_HIT"
	TypeDeath            Type = "DEATH"
	TypeStatusApply      Type = "STATUS_APPLY"
	TypeStatusTick       Type = "STATUS_TICK"
	TypeStatusExpire     Type = "STATUS_EXPIRE"
	TypeCounter          Type = "COUNTER"
)

// Event is one entry in a resolution's event stream. Only the fields relevant
// to the Type are populated; the rest stay zero.
type Event struct {
	Type   Type   `json:"type"`
	Actor  string `json:"actor,omitempty"`
	Target string `json:"target,omitempty"`
	Weapon string `json:"weapon,omitempty"`
	Status string `json:"status,omitempty"`
	Item   string `json:"item,omitempty"`
	Roll   int    `json:"roll,omitempty"`
	// Accuracy is the clipped final hit chance for HIT_ROLL events.
	Accuracy int `json:"accuracy,omitempty"`
	// Amount carries the type-specific quantity: damage dealt, charges
	// consumed, or HP remaining after a DAMAGE_APPLY.
	Amount int    `json:"amount,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Sink receives events in emission order. Implementations must not retain
// the event past the call.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}
