package actor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/emberwild/emberwild/internal/game/item"
)

// Loadout errors.
var (
	ErrItemNotFound        = errors.New("item not found")
	ErrInsufficientCharges = errors.New("insufficient charges")
	ErrUncountedCharge     = errors.New("item carries no charge counter")
)

// Loadout tracks what every actor holds and carries: a primary and secondary
// hand plus an ordered pack. It is the in-memory equipment provider behind
// attack and reload resolution.
//
// Invariant: pack order is join order; ammo searches always walk the pack
// front to back.
type Loadout struct {
	mu    sync.RWMutex
	hands map[string]*hands
	packs map[string][]*item.Item
	items map[string]*item.Item
}

type hands struct {
	primary   *item.Item
	secondary *item.Item
}

// NewLoadout creates an empty Loadout.
func NewLoadout() *Loadout {
	return &Loadout{
		hands: make(map[string]*hands),
		packs: make(map[string][]*item.Item),
		items: make(map[string]*item.Item),
	}
}

// SetPrimary places it in the actor's primary hand. A nil item clears the hand.
func (l *Loadout) SetPrimary(actorID string, it *item.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handsFor(actorID).primary = it
	l.index(it)
}

// SetSecondary places it in the actor's secondary hand. A nil item clears the hand.
func (l *Loadout) SetSecondary(actorID string, it *item.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handsFor(actorID).secondary = it
	l.index(it)
}

// AddToPack appends it to the actor's pack, preserving insertion order.
func (l *Loadout) AddToPack(actorID string, it *item.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.packs[actorID] = append(l.packs[actorID], it)
	l.index(it)
}

// WeaponInHand returns the actor's active weapon: the primary hand when it
// holds a weapon, otherwise the secondary hand. The second return is false
// when neither hand holds a weapon.
func (l *Loadout) WeaponInHand(actorID string) (*item.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.hands[actorID]
	if !ok {
		return nil, false
	}
	if h.primary != nil && h.primary.Def != nil {
		return h.primary, true
	}
	if h.secondary != nil && h.secondary.Def != nil {
		return h.secondary, true
	}
	return nil, false
}

// FindAmmo returns the first non-empty pack stack whose kind matches
// ammoType, walking the pack in insertion order.
func (l *Loadout) FindAmmo(actorID, ammoType string) (*item.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.packs[actorID] {
		if it.KindID == ammoType && !it.Charges.IsEmpty() {
			return it, true
		}
	}
	return nil, false
}

// AmmoStacks returns every pack stack of the given kind with at least one
// charge, in insertion order.
func (l *Loadout) AmmoStacks(actorID, ammoType string) []*item.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*item.Item
	for _, it := range l.packs[actorID] {
		if it.KindID == ammoType && !it.Charges.IsEmpty() {
			out = append(out, it)
		}
	}
	return out
}

// ConsumeCharge removes n charges from the item and returns the remaining
// count.
//
// Precondition:  the item carries a counted charge.
// Postcondition: on error nothing changed; the count never goes negative.
func (l *Loadout) ConsumeCharge(itemID string, n int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[itemID]
	if !ok {
		return 0, fmt.Errorf("consuming %d charge(s) from item %q: %w", n, itemID, ErrItemNotFound)
	}
	count, counted := it.Charges.Count()
	if !counted {
		return 0, fmt.Errorf("consuming %d charge(s) from item %q: %w", n, itemID, ErrUncountedCharge)
	}
	if count < n {
		return 0, fmt.Errorf("consuming %d charge(s) from item %q with %d left: %w", n, itemID, count, ErrInsufficientCharges)
	}
	it.Charges = item.Counted(count - n)
	return count - n, nil
}

// AddCharge adds n charges to the item, capped at the item's capacity when
// its definition declares one, and returns the number actually added.
//
// Precondition: the item carries a counted charge.
func (l *Loadout) AddCharge(itemID string, n int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[itemID]
	if !ok {
		return 0, fmt.Errorf("adding %d charge(s) to item %q: %w", n, itemID, ErrItemNotFound)
	}
	count, counted := it.Charges.Count()
	if !counted {
		return 0, fmt.Errorf("adding %d charge(s) to item %q: %w", n, itemID, ErrUncountedCharge)
	}
	capacity := count + n
	if it.Def != nil && it.Def.MaxCharges > 0 {
		capacity = it.Def.MaxCharges
	}
	it.Charges = it.Charges.Add(n, capacity)
	after, _ := it.Charges.Count()
	return after - count, nil
}

// DeleteItem removes the item from the index, the pack, and any hand that
// holds it.
//
// Postcondition: the item is unreachable through every accessor.
func (l *Loadout) DeleteItem(itemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[itemID]; !ok {
		return fmt.Errorf("deleting item %q: %w", itemID, ErrItemNotFound)
	}
	delete(l.items, itemID)
	for actorID, pack := range l.packs {
		for i, it := range pack {
			if it.ID == itemID {
				l.packs[actorID] = append(pack[:i:i], pack[i+1:]...)
				break
			}
		}
	}
	for _, h := range l.hands {
		if h.primary != nil && h.primary.ID == itemID {
			h.primary = nil
		}
		if h.secondary != nil && h.secondary.ID == itemID {
			h.secondary = nil
		}
	}
	return nil
}

// Item returns the indexed item by ID, or nil when unknown.
func (l *Loadout) Item(itemID string) *item.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.items[itemID]
}

func (l *Loadout) handsFor(actorID string) *hands {
	h, ok := l.hands[actorID]
	if !ok {
		h = &hands{}
		l.hands[actorID] = h
	}
	return h
}

func (l *Loadout) index(it *item.Item) {
	if it != nil {
		l.items[it.ID] = it
	}
}
