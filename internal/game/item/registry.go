package item

import "fmt"

// Registry holds all loaded weapon definitions indexed by ID.
type Registry struct {
	weapons map[string]*WeaponDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: the internal map is initialised.
func NewRegistry() *Registry {
	return &Registry{weapons: make(map[string]*WeaponDef)}
}

// RegisterWeapon adds w to the registry.
//
// Precondition:  w must not be nil.
// Postcondition: Weapon(w.ID) returns w; returns error if w.ID already registered.
func (r *Registry) RegisterWeapon(w *WeaponDef) error {
	if _, exists := r.weapons[w.ID]; exists {
		return fmt.Errorf("item: Registry.RegisterWeapon: weapon ID %q already registered", w.ID)
	}
	r.weapons[w.ID] = w
	return nil
}

// Weapon returns the WeaponDef for the given id, or nil if not found.
func (r *Registry) Weapon(id string) *WeaponDef {
	return r.weapons[id]
}

// AllWeapons returns all registered WeaponDefs in unspecified order.
//
// Postcondition: len(result) == number of registered weapons.
func (r *Registry) AllWeapons() []*WeaponDef {
	out := make([]*WeaponDef, 0, len(r.weapons))
	for _, w := range r.weapons {
		out = append(out, w)
	}
	return out
}
