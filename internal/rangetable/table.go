// Package rangetable maps a numeric score onto a value through half-open
// bands. Each band covers [Floor, next higher Floor); the highest band is
// bounded by the table ceiling when one is set.
package rangetable

import (
	"math"
	"sort"
)

// Band is one row of a table.
type Band[T any] struct {
	Floor float64
	Value T
}

// Table is an immutable band lookup. The zero value always returns the zero T.
type Table[T any] struct {
	bands      []Band[T] // descending by Floor
	ceiling    float64
	hasCeiling bool
	fallback   T
}

// New builds a table from bands in any order. When two bands share a floor the
// one declared first wins.
func New[T any](fallback T, bands ...Band[T]) Table[T] {
	sorted := make([]Band[T], len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Floor > sorted[j].Floor
	})
	return Table[T]{bands: sorted, fallback: fallback}
}

// WithCeiling returns a copy that treats values above max as out of domain.
func (t Table[T]) WithCeiling(max float64) Table[T] {
	t.ceiling = max
	t.hasCeiling = true
	return t
}

// Find returns the value of the first band, scanning floors from the highest
// down, whose floor is at or below x. ok is false when x is NaN, above the
// ceiling or below every floor.
func (t Table[T]) Find(x float64) (T, bool) {
	if math.IsNaN(x) || (t.hasCeiling && x > t.ceiling) {
		return t.fallback, false
	}
	for _, b := range t.bands {
		if x >= b.Floor {
			return b.Value, true
		}
	}
	return t.fallback, false
}

// Lookup is Find without the found flag.
func (t Table[T]) Lookup(x float64) T {
	v, _ := t.Find(x)
	return v
}

// Bands returns the rows in ascending floor order.
func (t Table[T]) Bands() []Band[T] {
	out := make([]Band[T], len(t.bands))
	for i, b := range t.bands {
		out[len(t.bands)-1-i] = b
	}
	return out
}
