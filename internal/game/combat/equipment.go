package combat

import "github.com/emberwild/emberwild/internal/game/item"

// Equipment is the storage capability the combat core draws weapons and
// ammunition through. Pack iteration order must be stable: FindAmmo and
// AmmoStacks walk it front to back.
type Equipment interface {
	// WeaponInHand returns the actor's active weapon, primary hand first.
	WeaponInHand(actorID string) (*item.Item, bool)
	// FindAmmo returns the first non-empty stack of the given ammo kind.
	FindAmmo(actorID, ammoType string) (*item.Item, bool)
	// AmmoStacks returns every non-empty stack of the given ammo kind.
	AmmoStacks(actorID, ammoType string) []*item.Item
	// ConsumeCharge removes n charges and returns the remaining count.
	ConsumeCharge(itemID string, n int) (int, error)
	// AddCharge adds up to n charges, capped at the item's capacity, and
	// returns the number actually added.
	AddCharge(itemID string, n int) (int, error)
	// DeleteItem removes the item from storage entirely.
	DeleteItem(itemID string) error
}
