// Package item provides weapon kind definitions, item instances, and the
// explicit charge model used by combat ammunition resolution.
package item

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WeaponClass partitions weapons by their attack mode.
type WeaponClass string

const (
	// ClassMelee requires adjacency (distance exactly 1).
	ClassMelee WeaponClass = "melee"
	// ClassRanged attacks at distance and usually consumes ammunition.
	ClassRanged WeaponClass = "ranged"
	// ClassMagic attacks at distance powered by the weapon's own charges.
	ClassMagic WeaponClass = "magic"
)

// Class base damage used when a weapon declares no explicit base_damage.
const (
	meleeBaseDamage  = 5
	rangedBaseDamage = 6
	magicBaseDamage  = 7
)

// DefaultCritMult is the damage multiplier applied on a critical hit when the
// weapon does not override it.
const DefaultCritMult = 2.0

// DefaultNearPenalty is the per-cell accuracy penalty for firing a standoff
// weapon inside its minimum range, when the weapon does not override it.
const DefaultNearPenalty = 10

// WeaponDef defines the static properties of a weapon kind loaded from YAML.
type WeaponDef struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Class      WeaponClass `yaml:"class"`
	DamageType string      `yaml:"damage_type"`
	// OptRange is the distance up to which no falloff penalty applies.
	OptRange int `yaml:"opt_range"`
	// MaxRange is the hard attack range limit; 0 = unlimited.
	MaxRange int `yaml:"max_range"`
	// MinRange, when > 0, marks a standoff weapon penalized at closer range.
	MinRange int `yaml:"min_range"`
	// NearPenalty is the accuracy loss per cell inside MinRange; 0 = default.
	NearPenalty int `yaml:"near_penalty"`
	// CritChance is compared against the same 1-100 roll as the hit check.
	CritChance int `yaml:"crit_chance"`
	// CritMult multiplies damage on a critical hit; 0 = default 2.0.
	CritMult float64 `yaml:"crit_mult"`
	// HitBonus is a flat accuracy modifier.
	HitBonus int `yaml:"hit_bonus"`
	// AmmoType links the weapon to the consumable ammunition kind it fires.
	// Empty = the weapon does not draw external ammunition.
	AmmoType string `yaml:"ammo_type"`
	// MaxCharges is the weapon's own magazine capacity; 0 = no own counter.
	MaxCharges int `yaml:"max_charges"`
	// BaseDamage overrides the class default; 0 = use class default.
	BaseDamage int      `yaml:"base_damage"`
	Tags       []string `yaml:"tags"`
}

// IsMelee reports whether the weapon requires adjacency.
func (w *WeaponDef) IsMelee() bool {
	return w.Class == ClassMelee
}

// HasTag reports whether the weapon carries the given tag.
func (w *WeaponDef) HasTag(tag string) bool {
	for _, t := range w.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsStandoff reports whether the weapon is penalized at point-blank range.
// A weapon qualifies when it declares a MinRange and is either bow-tagged or
// fires arrow-type ammunition.
func (w *WeaponDef) IsStandoff() bool {
	if w.Class != ClassRanged || w.MinRange <= 0 {
		return false
	}
	return w.HasTag("bow") || w.AmmoType == "arrow"
}

// EffectiveBaseDamage returns the weapon's explicit base damage, or the class
// default (melee 5, ranged 6, magic 7) when none is declared.
//
// Postcondition: Returns > 0 for any valid WeaponDef.
func (w *WeaponDef) EffectiveBaseDamage() int {
	if w.BaseDamage > 0 {
		return w.BaseDamage
	}
	switch w.Class {
	case ClassRanged:
		return rangedBaseDamage
	case ClassMagic:
		return magicBaseDamage
	default:
		return meleeBaseDamage
	}
}

// EffectiveCritMult returns the weapon's crit multiplier, defaulting to 2.0.
func (w *WeaponDef) EffectiveCritMult() float64 {
	if w.CritMult > 0 {
		return w.CritMult
	}
	return DefaultCritMult
}

// EffectiveNearPenalty returns the per-cell penalty inside MinRange,
// defaulting to DefaultNearPenalty.
func (w *WeaponDef) EffectiveNearPenalty() int {
	if w.NearPenalty > 0 {
		return w.NearPenalty
	}
	return DefaultNearPenalty
}

// Validate checks that the WeaponDef satisfies its invariants.
//
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (w *WeaponDef) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	switch w.Class {
	case ClassMelee, ClassRanged, ClassMagic:
	default:
		errs = append(errs, fmt.Errorf("Class must be melee, ranged, or magic, got %q", w.Class))
	}
	if w.DamageType == "" {
		errs = append(errs, errors.New("DamageType must not be empty"))
	}
	if w.CritChance < 0 || w.CritChance > 100 {
		errs = append(errs, fmt.Errorf("CritChance must be 0-100, got %d", w.CritChance))
	}
	if w.MaxRange < 0 || w.OptRange < 0 || w.MinRange < 0 {
		errs = append(errs, errors.New("ranges must not be negative"))
	}
	if w.MaxCharges < 0 {
		errs = append(errs, errors.New("MaxCharges must not be negative"))
	}
	if w.MaxCharges > 0 && w.AmmoType != "" && w.Class != ClassRanged {
		errs = append(errs, errors.New("only ranged weapons may combine own charges with external ammo"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}
	return nil
}

// LoadWeapons reads all *.yaml files from dir, parses each as a WeaponDef,
// validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid WeaponDefs or the first encountered error.
func LoadWeapons(dir string) ([]*WeaponDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadWeapons: cannot read directory %q: %w", dir, err)
	}

	var weapons []*WeaponDef
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot read file %q: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		var w WeaponDef
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("LoadWeapons: cannot parse file %q: %w", path, err)
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("LoadWeapons: invalid weapon in %q: %w", path, err)
		}
		weapons = append(weapons, &w)
	}
	return weapons, nil
}
