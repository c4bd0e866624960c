// Package table implements T, the typed row store that ties a Collection
// of records to its secondary indexes and uniqueness constraints, and
// evaluates filter queries against them.
//
// Grounded on src/orm/table.py's Table, with the `is_created` decorator
// replaced by an explicit requireCreated guard and the dynamic field
// lookups replaced by record.Descriptor.
package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/acksell/ormtab/collection"
	"github.com/acksell/ormtab/constraint"
	"github.com/acksell/ormtab/dberr"
	"github.com/acksell/ormtab/index"
	"github.com/acksell/ormtab/record"
)

// Table is a typed row store over record type T: a dense row Collection,
// a set of named secondary indexes, and a registry of uniqueness
// constraints enforced on every Append and UpdateAt.
type Table[T any] struct {
	name        string
	dtype       *record.Descriptor
	rows        *collection.Collection[T]
	indexes     map[string]index.Index[T]
	constraints *constraint.Set
	created     bool
}

// New declares a table named name over record type dtype. The table is
// not usable until Create is called.
func New[T any](name string, dtype *record.Descriptor) *Table[T] {
	return &Table[T]{
		name:        name,
		dtype:       dtype,
		rows:        collection.New[T](),
		indexes:     make(map[string]index.Index[T]),
		constraints: constraint.NewSet(),
	}
}

// Name returns the table's declared name.
func (t *Table[T]) Name() string { return t.name }

// Dtype returns the record descriptor this table is declared over.
func (t *Table[T]) Dtype() *record.Descriptor { return t.dtype }

// Create marks the table usable and builds an implicit equality index for
// every field already named in a UNIQUE constraint, mirroring
// orm/table.py's create() unioning constraint fields for implicit index
// creation. Idempotent: calling it again only fills in indexes for
// constraints added since the last call.
func (t *Table[T]) Create() error {
	t.created = true
	for _, field := range t.constraints.Fields(constraint.Unique) {
		if _, ok := t.indexes[field]; ok {
			continue
		}
		idx, err := index.Create("base", field, t.keyFunc(field))
		if err != nil {
			return err
		}
		if err := idx.Rebuild(t.rows.All()); err != nil {
			return err
		}
		t.indexes[field] = idx
	}
	return nil
}

func (t *Table[T]) requireCreated() error {
	if !t.created {
		return &dberr.TableNotCreatedErr{Name: t.name}
	}
	return nil
}

func (t *Table[T]) keyFunc(field string) index.KeyFunc[T] {
	return func(row T) (any, error) { return t.dtype.Get(row, field) }
}

// CreateIndex registers a new index of the given tag ("base" or "range")
// on field, backfilled from the current rows.
func (t *Table[T]) CreateIndex(tag, field string) error {
	if err := t.requireCreated(); err != nil {
		return err
	}
	if !t.dtype.HasField(field) {
		return &dberr.UnknownNameErr{Kind: "field", Name: field}
	}
	if _, exists := t.indexes[field]; exists {
		return &dberr.IndexExistsErr{Field: field}
	}
	idx, err := index.Create(tag, field, t.keyFunc(field))
	if err != nil {
		return err
	}
	if err := idx.Rebuild(t.rows.All()); err != nil {
		return err
	}
	t.indexes[field] = idx
	return nil
}

// DropIndex removes the index on field, if one exists; dropping a field
// with no index is a no-op.
func (t *Table[T]) DropIndex(field string) error {
	if err := t.requireCreated(); err != nil {
		return err
	}
	delete(t.indexes, field)
	return nil
}

// CreateConstraint registers fields under kind. UNIQUE is the only
// supported kind; FOREIGN_KEY is a reserved tag spec.md leaves out of
// scope and is rejected outright. If the table is already created,
// implicit equality indexes are built immediately for any newly
// constrained field that lacks one.
func (t *Table[T]) CreateConstraint(kind constraint.Kind, fields ...string) error {
	if kind == constraint.ForeignKey {
		return &constraint.UnsupportedError{Kind: kind}
	}
	t.constraints.Add(kind, fields...)
	if kind != constraint.Unique || !t.created {
		return nil
	}
	for _, field := range fields {
		if _, ok := t.indexes[field]; ok {
			continue
		}
		idx, err := index.Create("base", field, t.keyFunc(field))
		if err != nil {
			return err
		}
		if err := idx.Rebuild(t.rows.All()); err != nil {
			return err
		}
		t.indexes[field] = idx
	}
	return nil
}

// DropConstraint removes fields from kind's set. For UNIQUE, it also drops
// the implicit index built for each field actually removed, matching
// orm/table.py's drop_constraint: `to_remove = existing & fields`, then
// `for field in to_remove: self.drop_index(field)`.
func (t *Table[T]) DropConstraint(kind constraint.Kind, fields ...string) error {
	var toRemove []string
	if kind == constraint.Unique {
		for _, field := range fields {
			if t.constraints.Has(kind, field) {
				toRemove = append(toRemove, field)
			}
		}
	}
	t.constraints.Drop(kind, fields...)
	for _, field := range toRemove {
		delete(t.indexes, field)
	}
	return nil
}

// Append adds row to the end of the table after checking every UNIQUE
// constraint.
func (t *Table[T]) Append(row T) error {
	if err := t.requireCreated(); err != nil {
		return err
	}
	if err := t.checkUniqueAppend(row); err != nil {
		return err
	}
	pos := t.rows.Len()
	t.rows.Append(row)
	for _, idx := range t.indexes {
		if err := idx.OnAppend(row, pos); err != nil {
			return err
		}
	}
	return nil
}

// Pop removes and returns the last row.
func (t *Table[T]) Pop() (T, error) {
	var zero T
	if err := t.requireCreated(); err != nil {
		return zero, err
	}
	pos := t.rows.Len() - 1
	row, err := t.rows.Pop()
	if err != nil {
		return zero, err
	}
	for _, idx := range t.indexes {
		if err := idx.OnPop(row, pos); err != nil {
			return zero, err
		}
	}
	return row, nil
}

// RemoveByIndex removes the row at pos. When autoUpdate is false, the
// caller is responsible for calling RebuildIndexes once it has finished a
// batch of removals — the pattern a session uses for a multi-row delete,
// where positions are removed highest-first so earlier positions stay
// valid until the final rebuild.
func (t *Table[T]) RemoveByIndex(pos int, autoUpdate bool) (T, error) {
	var zero T
	if err := t.requireCreated(); err != nil {
		return zero, err
	}
	row, err := t.rows.PopAt(pos)
	if err != nil {
		return zero, err
	}
	if autoUpdate {
		if err := t.RebuildIndexes(); err != nil {
			return row, err
		}
	}
	return row, nil
}

// Insert places row back at pos without any uniqueness check — the
// low-level positional counterpart to RemoveByIndex, used to undo a
// delete during transaction rollback.
func (t *Table[T]) Insert(row T, pos int, autoUpdate bool) error {
	if err := t.requireCreated(); err != nil {
		return err
	}
	if err := t.rows.Insert(pos, row); err != nil {
		return err
	}
	if autoUpdate {
		return t.RebuildIndexes()
	}
	return nil
}

// Remove deletes the first row equal to row (per eq) and rebuilds every
// index. Reports whether a row was removed.
func (t *Table[T]) Remove(row T, eq func(a, b T) bool) (bool, error) {
	if err := t.requireCreated(); err != nil {
		return false, err
	}
	removed := t.rows.RemoveFirst(row, eq)
	if removed {
		if err := t.RebuildIndexes(); err != nil {
			return true, err
		}
	}
	return removed, nil
}

// UpdateAt replaces selected fields of the row at pos, checking UNIQUE
// only for fields named in updates whose value actually changes.
func (t *Table[T]) UpdateAt(pos int, updates map[string]any) error {
	if err := t.requireCreated(); err != nil {
		return err
	}
	oldRow := t.rows.Get(pos)
	replaced, err := t.dtype.Replace(oldRow, updates)
	if err != nil {
		return err
	}
	newRow := replaced.(T)
	if err := t.checkUniqueUpdate(oldRow, newRow); err != nil {
		return err
	}
	t.rows.Set(pos, newRow)
	for _, idx := range t.indexes {
		if err := idx.OnUpdate(oldRow, newRow, pos); err != nil {
			return err
		}
	}
	return nil
}

// RebuildIndexes discards and recomputes every index from the current
// rows. Called after any operation that disturbs row positions in bulk.
func (t *Table[T]) RebuildIndexes() error {
	rows := t.rows.All()
	for _, idx := range t.indexes {
		if err := idx.Rebuild(rows); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table[T]) Len() int { return t.rows.Len() }

// Iter returns every row in position order. Callers must not mutate it.
func (t *Table[T]) Iter() []T { return t.rows.All() }

// Get returns the row at pos.
func (t *Table[T]) Get(pos int) T { return t.rows.Get(pos) }

// SetAt overwrites the row at pos in place without touching any index —
// the positional counterpart an update's rollback uses to restore the
// prior row verbatim before the caller rebuilds indexes.
func (t *Table[T]) SetAt(pos int, row T) error {
	if err := t.requireCreated(); err != nil {
		return err
	}
	if pos < 0 || pos >= t.rows.Len() {
		return &dberr.UnknownNameErr{Kind: "position", Name: fmt.Sprintf("%d", pos)}
	}
	t.rows.Set(pos, row)
	return nil
}

// Query evaluates a set of filter clauses (keyed "field__op", op one of
// eq/gt/ge/lt/le/in; a key with no "__op" suffix defaults to eq) and
// returns every row satisfying all of them, AND-combined. A filter on an
// indexed field uses the index; otherwise it full-scans. The result set
// short-circuits to empty as soon as any filter's intersection empties.
func (t *Table[T]) Query(filters map[string]any) ([]T, error) {
	positions, err := t.QueryPositions(filters)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(positions))
	for _, pos := range positions {
		out = append(out, t.rows.Get(pos))
	}
	return out, nil
}

// QueryPositions evaluates the same filter grammar as Query but returns
// row positions in ascending order instead of rows, so Update and Delete
// can act on the matched rows in place.
func (t *Table[T]) QueryPositions(filters map[string]any) ([]int, error) {
	if err := t.requireCreated(); err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		positions := make([]int, t.rows.Len())
		for i := range positions {
			positions[i] = i
		}
		return positions, nil
	}

	var result index.PositionSet
	first := true
	for key, value := range filters {
		field, op, err := parseFilterKey(key)
		if err != nil {
			return nil, err
		}
		if !t.dtype.HasField(field) {
			return nil, &dberr.UnknownNameErr{Kind: "field", Name: field}
		}
		positions, err := t.positionsFor(field, op, value)
		if err != nil {
			return nil, err
		}
		if first {
			result = positions
			first = false
		} else {
			result = result.Intersect(positions)
		}
		if len(result) == 0 {
			return nil, nil
		}
	}

	positions := result.Slice()
	sort.Ints(positions)
	return positions, nil
}

func (t *Table[T]) positionsFor(field string, op index.Operator, value any) (index.PositionSet, error) {
	if idx, ok := t.indexes[field]; ok {
		positions, supported, err := idx.PositionsForQuery(op, value)
		if err != nil {
			return nil, err
		}
		if supported {
			return positions, nil
		}
	}
	return t.fullScan(field, op, value)
}

func (t *Table[T]) fullScan(field string, op index.Operator, value any) (index.PositionSet, error) {
	result := make(index.PositionSet)
	for pos, row := range t.rows.All() {
		fieldVal, err := t.dtype.Get(row, field)
		if err != nil {
			return nil, err
		}
		match, err := index.Match(op, fieldVal, value)
		if err != nil {
			return nil, err
		}
		if match {
			result.Add(pos)
		}
	}
	return result, nil
}

func (t *Table[T]) checkUniqueAppend(row T) error {
	for _, field := range t.constraints.Fields(constraint.Unique) {
		key, err := t.dtype.Get(row, field)
		if err != nil {
			return err
		}
		if eqIdx, ok := t.indexes[field].(*index.EqualityIndex[T]); ok && eqIdx.HasKey(key) {
			return &constraint.FailedError{Kind: constraint.Unique, Field: field, Value: key}
		}
	}
	return nil
}

func (t *Table[T]) checkUniqueUpdate(oldRow, newRow T) error {
	for _, field := range t.constraints.Fields(constraint.Unique) {
		oldKey, err := t.dtype.Get(oldRow, field)
		if err != nil {
			return err
		}
		newKey, err := t.dtype.Get(newRow, field)
		if err != nil {
			return err
		}
		if oldKey == newKey {
			continue
		}
		if eqIdx, ok := t.indexes[field].(*index.EqualityIndex[T]); ok && eqIdx.HasKey(newKey) {
			return &constraint.FailedError{Kind: constraint.Unique, Field: field, Value: newKey}
		}
	}
	return nil
}

// parseFilterKey splits a filter key "field__op" into its field and
// operator, defaulting to Eq when no "__op" suffix is present. A suffix
// that is not a recognized operator is treated as part of the field name,
// also with implicit Eq. Grounded on orm/table.py's query(), which falls
// back to (filter_, "eq") whenever the parsed op isn't in cst.OPERATORS.
func parseFilterKey(key string) (string, index.Operator, error) {
	i := strings.LastIndex(key, "__")
	if i < 0 {
		return key, index.Eq, nil
	}
	suffix := key[i+2:]
	if !index.IsOperator(suffix) {
		return key, index.Eq, nil
	}
	return key[:i], index.Operator(suffix), nil
}
