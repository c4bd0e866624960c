package index

import (
	"github.com/google/btree"
)

// rangeEntry is one bucket of a RangeIndex: a key and every position that
// currently holds it. Equal keys coalesce into a single bucket, per
// spec.md's range-index semantics.
type rangeEntry struct {
	key       any
	positions PositionSet
}

// RangeIndex is an order-preserving multimap field-value -> positions,
// backed by a google/btree.BTreeG so gt/ge/lt/le queries walk a sorted
// structure instead of scanning every bucket. Keys are ordered using the
// field type's natural total order (see compare.go).
//
// Grounded on src/orm/index/index_types.py's RangeIndex (there backed by
// sortedcontainers.SortedDict), rebuilt on google/btree.BTreeG for its
// ordered-walk operations.
type RangeIndex[T any] struct {
	field string
	keyOf KeyFunc[T]
	tree  *btree.BTreeG[*rangeEntry]
}

// NewRangeIndex builds an empty range index bound to field.
func NewRangeIndex[T any](field string, keyOf KeyFunc[T]) *RangeIndex[T] {
	less := func(a, b *rangeEntry) bool {
		c, err := compare(a.key, b.key)
		if err != nil {
			// PositionsForQuery rejects query values that cannot be
			// compared with the stored keys before walking the tree, so
			// an error here comes from the rows themselves: a field type
			// that compare does not order.
			panic(err)
		}
		return c < 0
	}
	return &RangeIndex[T]{field: field, keyOf: keyOf, tree: btree.NewG(32, less)}
}

// FieldName implements Index.
func (idx *RangeIndex[T]) FieldName() string { return idx.field }

// Rebuild implements Index.
func (idx *RangeIndex[T]) Rebuild(rows []T) error {
	idx.tree.Clear(false)
	for pos, row := range rows {
		key, err := idx.keyOf(row)
		if err != nil {
			return err
		}
		idx.add(key, pos)
	}
	return nil
}

// OnAppend implements Index.
func (idx *RangeIndex[T]) OnAppend(row T, pos int) error {
	key, err := idx.keyOf(row)
	if err != nil {
		return err
	}
	idx.add(key, pos)
	return nil
}

// OnUpdate implements Index.
func (idx *RangeIndex[T]) OnUpdate(oldRow, newRow T, pos int) error {
	oldKey, err := idx.keyOf(oldRow)
	if err != nil {
		return err
	}
	newKey, err := idx.keyOf(newRow)
	if err != nil {
		return err
	}
	if oldKey == newKey {
		return nil
	}
	idx.remove(oldKey, pos)
	idx.add(newKey, pos)
	return nil
}

// OnPop implements Index.
func (idx *RangeIndex[T]) OnPop(row T, pos int) error {
	key, err := idx.keyOf(row)
	if err != nil {
		return err
	}
	idx.remove(key, pos)
	return nil
}

// PositionsForQuery implements Index. Supports eq, in, gt, ge, lt, le.
func (idx *RangeIndex[T]) PositionsForQuery(op Operator, value any) (PositionSet, bool, error) {
	if op != In && IsOperator(string(op)) {
		if first, ok := idx.tree.Min(); ok {
			if _, err := compare(first.key, value); err != nil {
				return nil, true, err
			}
		}
	}
	switch op {
	case Eq:
		if e, ok := idx.tree.Get(&rangeEntry{key: value}); ok {
			return e.positions, true, nil
		}
		return PositionSet{}, true, nil
	case In:
		candidates, err := toSlice(value)
		if err != nil {
			return nil, true, err
		}
		result := make(PositionSet)
		for _, c := range candidates {
			if first, ok := idx.tree.Min(); ok {
				if _, err := compare(first.key, c); err != nil {
					return nil, true, err
				}
			}
			if e, ok := idx.tree.Get(&rangeEntry{key: c}); ok {
				result = result.Union(e.positions)
			}
		}
		return result, true, nil
	case Ge:
		return idx.collectFrom(value, true), true, nil
	case Gt:
		return idx.collectFrom(value, false), true, nil
	case Le:
		return idx.collectTo(value, true), true, nil
	case Lt:
		return idx.collectTo(value, false), true, nil
	default:
		return nil, false, nil
	}
}

func (idx *RangeIndex[T]) collectFrom(value any, inclusive bool) PositionSet {
	result := make(PositionSet)
	idx.tree.AscendGreaterOrEqual(&rangeEntry{key: value}, func(e *rangeEntry) bool {
		if !inclusive {
			if c, err := compare(e.key, value); err == nil && c == 0 {
				return true
			}
		}
		result = result.Union(e.positions)
		return true
	})
	return result
}

func (idx *RangeIndex[T]) collectTo(value any, inclusive bool) PositionSet {
	result := make(PositionSet)
	idx.tree.DescendLessOrEqual(&rangeEntry{key: value}, func(e *rangeEntry) bool {
		if !inclusive {
			if c, err := compare(e.key, value); err == nil && c == 0 {
				return true
			}
		}
		result = result.Union(e.positions)
		return true
	})
	return result
}

func (idx *RangeIndex[T]) add(key any, pos int) {
	if e, ok := idx.tree.Get(&rangeEntry{key: key}); ok {
		e.positions.Add(pos)
		return
	}
	idx.tree.ReplaceOrInsert(&rangeEntry{key: key, positions: NewPositionSet(pos)})
}

func (idx *RangeIndex[T]) remove(key any, pos int) {
	e, ok := idx.tree.Get(&rangeEntry{key: key})
	if !ok {
		return
	}
	e.positions.Remove(pos)
	if len(e.positions) == 0 {
		idx.tree.Delete(&rangeEntry{key: key})
	}
}
