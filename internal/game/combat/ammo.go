package combat

import (
	"fmt"

	"github.com/emberwild/emberwild/internal/game/event"
	"github.com/emberwild/emberwild/internal/game/item"
)

// ammoPlan is the reserved-but-uncommitted result of consuming one shot's
// worth of ammo. The charge decrement happens up front so a miss still costs
// ammo; stack deletion waits for commit so a failed resolution can roll the
// decrement back.
type ammoPlan struct {
	// itemID is the item a charge was taken from; empty when the weapon
	// needs no ammo.
	itemID string
	// remaining is the charge count left on itemID after the decrement.
	remaining int
	// weaponEmptied is true when a self-charged weapon just spent its last
	// charge.
	weaponEmptied bool
	// stackDepleted is true when an external ammo stack hit zero and must be
	// deleted on commit.
	stackDepleted bool
}

// reserveAmmo decrements one charge for the shot, choosing the charge model
// from the weapon instance: a counted weapon spends its own charge, a weapon
// with an ammo type draws from the first matching pack stack, and anything
// else consumes nothing.
//
// Returns ok=false (with a nil error) when the weapon needs ammo and none is
// available; nothing has been mutated in that case.
func reserveAmmo(eq Equipment, actorID string, w *item.Item) (ammoPlan, bool, error) {
	if count, counted := w.Charges.Count(); counted {
		if count == 0 {
			return ammoPlan{}, false, nil
		}
		remaining, err := eq.ConsumeCharge(w.ID, 1)
		if err != nil {
			return ammoPlan{}, false, fmt.Errorf("consuming weapon charge: %w", err)
		}
		return ammoPlan{itemID: w.ID, remaining: remaining, weaponEmptied: remaining == 0}, true, nil
	}

	if w.Def != nil && w.Def.AmmoType != "" {
		stack, found := eq.FindAmmo(actorID, w.Def.AmmoType)
		if !found {
			return ammoPlan{}, false, nil
		}
		remaining, err := eq.ConsumeCharge(stack.ID, 1)
		if err != nil {
			return ammoPlan{}, false, fmt.Errorf("consuming ammo %q: %w", w.Def.AmmoType, err)
		}
		return ammoPlan{itemID: stack.ID, remaining: remaining, stackDepleted: remaining == 0}, true, nil
	}

	return ammoPlan{}, true, nil
}

// rollback returns the reserved charge. Used when a storage failure aborts
// the resolution after the decrement.
func (p ammoPlan) rollback(eq Equipment) error {
	if p.itemID == "" {
		return nil
	}
	if _, err := eq.AddCharge(p.itemID, 1); err != nil {
		return fmt.Errorf("rolling back ammo charge on %q: %w", p.itemID, err)
	}
	return nil
}

// commit finalizes the consumption: a depleted external stack is deleted
// rather than left at zero.
func (p ammoPlan) commit(eq Equipment) error {
	if !p.stackDepleted {
		return nil
	}
	if err := eq.DeleteItem(p.itemID); err != nil {
		return fmt.Errorf("deleting depleted ammo stack %q: %w", p.itemID, err)
	}
	return nil
}

// events returns the consumption's event stream entries, in order.
func (p ammoPlan) events(actorID string) []event.Event {
	if p.itemID == "" {
		return nil
	}
	out := []event.Event{{Type: event.TypeAmmoConsume, Actor: actorID, Item: p.itemID, Amount: p.remaining}}
	if p.weaponEmptied {
		out = append(out, event.Event{Type: event.TypeAmmoEmpty, Actor: actorID, Item: p.itemID})
	}
	if p.stackDepleted {
		out = append(out, event.Event{Type: event.TypeAmmoDepleted, Actor: actorID, Item: p.itemID})
	}
	return out
}

// ReloadOutcome classifies a reload attempt.
type ReloadOutcome string

// Reload outcomes. A partial fill is still ReloadLoaded.
const (
	ReloadLoaded         ReloadOutcome = "loaded"
	ReloadAlreadyFull    ReloadOutcome = "already_full"
	ReloadNoExternalAmmo ReloadOutcome = "no_external_ammo"
)

// ReloadResult reports what a reload did.
type ReloadResult struct {
	Outcome ReloadOutcome
	// Loaded is the number of charges transferred into the weapon.
	Loaded int
	// Charges is the weapon's charge count after the reload.
	Charges int
	// DeletedStacks lists ammo stacks emptied and removed by the transfer.
	DeletedStacks []string
}

// Reload fills the weapon's magazine from the actor's pack: matching ammo
// stacks are drained in pack order until the weapon reaches capacity or the
// pack runs dry. Emptied stacks are deleted. Filling short of capacity is a
// valid outcome, not an error.
//
// Precondition: w must be a counted weapon with an ammo type; otherwise the
// reload is rejected with ReloadNoExternalAmmo.
func Reload(eq Equipment, actorID string, w *item.Item) (*ReloadResult, error) {
	count, counted := w.Charges.Count()
	if !counted || w.Def == nil || w.Def.AmmoType == "" || w.Def.MaxCharges <= 0 {
		return &ReloadResult{Outcome: ReloadNoExternalAmmo, Charges: count}, nil
	}
	capacity := w.Def.MaxCharges
	if count >= capacity {
		return &ReloadResult{Outcome: ReloadAlreadyFull, Charges: count}, nil
	}

	res := &ReloadResult{Outcome: ReloadLoaded, Charges: count}
	needed := capacity - count
	for _, stack := range eq.AmmoStacks(actorID, w.Def.AmmoType) {
		if needed == 0 {
			break
		}
		available, _ := stack.Charges.Count()
		take := needed
		if available < take {
			take = available
		}
		remaining, err := eq.ConsumeCharge(stack.ID, take)
		if err != nil {
			return nil, fmt.Errorf("draining ammo stack %q: %w", stack.ID, err)
		}
		if _, err := eq.AddCharge(w.ID, take); err != nil {
			return nil, fmt.Errorf("loading weapon %q: %w", w.ID, err)
		}
		if remaining == 0 {
			if err := eq.DeleteItem(stack.ID); err != nil {
				return nil, fmt.Errorf("deleting emptied ammo stack %q: %w", stack.ID, err)
			}
			res.DeletedStacks = append(res.DeletedStacks, stack.ID)
		}
		res.Loaded += take
		res.Charges += take
		needed -= take
	}
	return res, nil
}
