package collection

import "fmt"

// Immutable is a read-only wrapper around a freshly materialized Collection,
// as returned by session.SelectRows and the final state of a simulation run.
// Grounded on orm/collection.py's ImmutableCollection.
type Immutable[T any] struct {
	rows []T
}

// NewImmutable wraps a snapshot of rows. The slice is copied so later
// mutation of the source collection cannot leak through the view.
func NewImmutable[T any](rows []T) *Immutable[T] {
	snap := make([]T, len(rows))
	copy(snap, rows)
	return &Immutable[T]{rows: snap}
}

// Len returns the number of rows in the snapshot.
func (v *Immutable[T]) Len() int { return len(v.rows) }

// Get returns the row at pos.
func (v *Immutable[T]) Get(pos int) T { return v.rows[pos] }

// All returns the snapshot's rows in order. Callers must not mutate it.
func (v *Immutable[T]) All() []T { return v.rows }

// Contains reports whether item is present, compared with eq.
func (v *Immutable[T]) Contains(item T, eq func(a, b T) bool) bool {
	for _, r := range v.rows {
		if eq(r, item) {
			return true
		}
	}
	return false
}

// Equal compares the snapshot against an ordered sequence of rows, using eq
// per element. other may be a plain slice or another Immutable's All().
func (v *Immutable[T]) Equal(other []T, eq func(a, b T) bool) bool {
	if len(v.rows) != len(other) {
		return false
	}
	for i := range v.rows {
		if !eq(v.rows[i], other[i]) {
			return false
		}
	}
	return true
}

// String gives a human-readable representation, mirroring
// ImmutableCollection.__repr__ in the original.
func (v *Immutable[T]) String() string {
	return fmt.Sprintf("Immutable(%v)", v.rows)
}
