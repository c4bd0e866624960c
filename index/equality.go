package index

import "fmt"

// EqualityIndex is a hashed multimap field-value -> positions. Supports
// only eq and in lookups; any other operator is UnsupportedOperator.
//
// Grounded on src/orm/index/index_types.py's BaseIndex.
type EqualityIndex[T any] struct {
	field  string
	keyOf  KeyFunc[T]
	values map[any]PositionSet
}

// NewEqualityIndex builds an empty equality index bound to field, using
// keyOf to extract the field's value from a row.
func NewEqualityIndex[T any](field string, keyOf KeyFunc[T]) *EqualityIndex[T] {
	return &EqualityIndex[T]{field: field, keyOf: keyOf, values: make(map[any]PositionSet)}
}

// FieldName implements Index.
func (idx *EqualityIndex[T]) FieldName() string { return idx.field }

// Rebuild implements Index.
func (idx *EqualityIndex[T]) Rebuild(rows []T) error {
	idx.values = make(map[any]PositionSet)
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
func (idx *EqualityIndex[T]) OnAppend(row T, pos int) error {
	key, err := idx.keyOf(row)
	if err != nil {
		return err
	}
	idx.add(key, pos)
	return nil
}

// OnUpdate implements Index.
func (idx *EqualityIndex[T]) OnUpdate(oldRow, newRow T, pos int) error {
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
func (idx *EqualityIndex[T]) OnPop(row T, pos int) error {
	key, err := idx.keyOf(row)
	if err != nil {
		return err
	}
	idx.remove(key, pos)
	return nil
}

// PositionsForQuery implements Index. Supports eq and in only.
func (idx *EqualityIndex[T]) PositionsForQuery(op Operator, value any) (PositionSet, bool, error) {
	switch op {
	case Eq:
		return idx.values[value], true, nil
	case In:
		candidates, err := toSlice(value)
		if err != nil {
			return nil, true, err
		}
		result := make(PositionSet)
		for _, c := range candidates {
			result = result.Union(idx.values[c])
		}
		return result, true, nil
	default:
		return nil, false, nil
	}
}

// HasKey reports whether key is currently indexed by at least one live row.
// Table uses this to enforce UNIQUE before an insert/update commits.
func (idx *EqualityIndex[T]) HasKey(key any) bool {
	positions, ok := idx.values[key]
	return ok && len(positions) > 0
}

func (idx *EqualityIndex[T]) add(key any, pos int) {
	s, ok := idx.values[key]
	if !ok {
		s = make(PositionSet)
		idx.values[key] = s
	}
	s.Add(pos)
}

func (idx *EqualityIndex[T]) remove(key any, pos int) {
	s, ok := idx.values[key]
	if !ok {
		return
	}
	s.Remove(pos)
	if len(s) == 0 {
		delete(idx.values, key)
	}
}

// toSlice reflects an `in`-operator right-hand side (any iterable of
// candidate keys) into a plain slice.
func toSlice(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("index: `in` value %v (%T) is not a supported iterable of keys", value, value)
	}
}
