package item

import "fmt"

// Charge is an explicit two-variant use counter: either the item carries no
// counter at all (uncounted, always ready) or it carries a finite count.
// This replaces null-as-sentinel charge fields.
//
// Invariant: a Counted charge never goes below 0.
type Charge struct {
	counted bool
	n       int
}

// Uncounted returns a Charge with no counter. Consuming it never decrements
// and never exhausts.
func Uncounted() Charge {
	return Charge{}
}

// Counted returns a Charge holding exactly n uses.
//
// Precondition: n >= 0 (panics otherwise).
func Counted(n int) Charge {
	if n < 0 {
		panic(fmt.Sprintf("item: Counted: n must be >= 0, got %d", n))
	}
	return Charge{counted: true, n: n}
}

// IsCounted reports whether the charge carries a finite counter.
func (c Charge) IsCounted() bool {
	return c.counted
}

// Count returns the remaining uses and whether the charge is counted.
// For an uncounted charge the first return value is meaningless.
func (c Charge) Count() (int, bool) {
	return c.n, c.counted
}

// IsEmpty reports whether a counted charge has no uses left. An uncounted
// charge is never empty.
func (c Charge) IsEmpty() bool {
	return c.counted && c.n <= 0
}

// Consume removes one use. For an uncounted charge this is a no-op that
// always succeeds. For a counted charge it decrements, failing when already
// empty.
//
// Postcondition: on ok, the returned Charge has the same variant; a counted
// result is one lower, never negative.
func (c Charge) Consume() (Charge, bool) {
	if !c.counted {
		return c, true
	}
	if c.n <= 0 {
		return c, false
	}
	return Charge{counted: true, n: c.n - 1}, true
}

// Add returns a counted Charge increased by n, capped at capacity.
//
// Precondition: c must be counted; n >= 0; capacity >= 0.
// Postcondition: result count == min(c.n + n, capacity).
func (c Charge) Add(n, capacity int) Charge {
	if !c.counted {
		panic("item: Charge.Add called on uncounted charge")
	}
	total := c.n + n
	if total > capacity {
		total = capacity
	}
	return Charge{counted: true, n: total}
}

// String returns "∞" for uncounted charges and the decimal count otherwise.
func (c Charge) String() string {
	if !c.counted {
		return "∞"
	}
	return fmt.Sprintf("%d", c.n)
}
