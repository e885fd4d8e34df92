package item

import "github.com/google/uuid"

// Item is one concrete item instance: a weapon in a hand or an ammunition
// stack in storage.
type Item struct {
	// ID is the unique instance identifier.
	ID string
	// Def is the weapon kind this instance belongs to. For plain ammunition
	// stacks Def may be nil and KindID alone identifies the ammo kind.
	Def *WeaponDef
	// KindID identifies the item kind; for ammunition stacks this is matched
	// against a weapon's AmmoType.
	KindID string
	// Charges is the instance's use counter.
	Charges Charge
	// Durability is carried for display and crafting; combat ignores it.
	Durability int
}

// NewWeapon creates a weapon instance of the given kind. Weapons with
// MaxCharges > 0 start fully charged; others are uncounted.
//
// Precondition: def must be non-nil and valid.
func NewWeapon(def *WeaponDef) *Item {
	charges := Uncounted()
	if def.MaxCharges > 0 {
		charges = Counted(def.MaxCharges)
	}
	return &Item{
		ID:      uuid.NewString(),
		Def:     def,
		KindID:  def.ID,
		Charges: charges,
	}
}

// NewAmmo creates an ammunition stack of the given kind holding count units.
//
// Precondition: kindID must be non-empty; count >= 0.
func NewAmmo(kindID string, count int) *Item {
	return &Item{
		ID:      uuid.NewString(),
		KindID:  kindID,
		Charges: Counted(count),
	}
}
