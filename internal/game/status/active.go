package status

// Modifiers are the stat adjustments a single status instance contributes
// while it lasts. The zero value contributes nothing.
type Modifiers struct {
	// AccuracyMod shifts the bearer's hit chance when attacking.
	AccuracyMod int
	// DamageBonus adds flat damage to the bearer's attacks.
	DamageBonus int
	// DamageMult scales the bearer's attack damage. Zero means unset and is
	// treated as 1.0.
	DamageMult float64
	// ArmorBonus shifts the bearer's effective armor level when defending.
	ArmorBonus int
}

// EffectiveMult returns DamageMult with the unset zero value mapped to 1.0.
func (m Modifiers) EffectiveMult() float64 {
	if m.DamageMult == 0 {
		return 1.0
	}
	return m.DamageMult
}

// Active is one status instance on an actor.
type Active struct {
	Kind Kind
	// Intensity scales kind-specific effects such as burn damage.
	Intensity float64
	// Stacks counts accumulation for stacking kinds such as bleed.
	Stacks int
	// Remaining is the number of round ticks left before expiry.
	Remaining int
	// Mods are the stat adjustments this instance grants while active.
	Mods Modifiers
}
