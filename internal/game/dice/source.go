// Package dice provides the randomness abstraction for the Emberwild combat
// engine. All hit, crit, and counter rolls draw from an injected Source so
// combat resolution is deterministic and replayable under test.
package dice

// Source is the randomness provider for combat rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Percent draws a uniform roll in [1, 100] from src.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a value in [1, 100].
func Percent(src Source) int {
	return src.Intn(100) + 1
}
