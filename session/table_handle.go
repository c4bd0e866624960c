package session

import (
	"reflect"

	"github.com/acksell/ormtab/constraint"
	"github.com/acksell/ormtab/dberr"
	"github.com/acksell/ormtab/record"
	"github.com/acksell/ormtab/table"
)

// tableHandle is the type-erased view of a table.Table[T] a Session keeps
// in its table registry. Session itself cannot be generic over every
// declared record type at once, so it holds tables behind this interface
// and recovers T at each call site via the package-level generic
// functions (Insert, SelectRows, Remove, ...) — the Go analogue of the
// original's untyped dict[str, Table].
type tableHandle interface {
	Dtype() *record.Descriptor
	Len() int
	Get(pos int) any
	SetAt(pos int, row any) error
	Append(row any) error
	Remove(row any) (bool, error)
	RemoveByIndex(pos int, autoUpdate bool) (any, error)
	Insert(row any, pos int, autoUpdate bool) error
	UpdateAt(pos int, updates map[string]any) error
	RebuildIndexes() error
	Query(filters map[string]any) ([]any, error)
	QueryPositions(filters map[string]any) ([]int, error)
	CreateIndex(tag, field string) error
	DropIndex(field string) error
	CreateConstraint(kind constraint.Kind, fields ...string) error
	DropConstraint(kind constraint.Kind, fields ...string) error
}

// tableWrapper adapts a table.Table[T] to tableHandle, type-asserting
// `any` payloads back to T at the boundary.
type tableWrapper[T any] struct {
	inner *table.Table[T]
}

func newTableWrapper[T any](inner *table.Table[T]) *tableWrapper[T] {
	return &tableWrapper[T]{inner: inner}
}

func (w *tableWrapper[T]) asT(row any) (T, error) {
	typed, ok := row.(T)
	if !ok {
		var zero T
		return zero, &dberr.TypeErr{Expected: w.inner.Dtype().Name(), Got: row}
	}
	return typed, nil
}

func (w *tableWrapper[T]) Dtype() *record.Descriptor { return w.inner.Dtype() }

func (w *tableWrapper[T]) Len() int        { return w.inner.Len() }
func (w *tableWrapper[T]) Get(pos int) any { return w.inner.Get(pos) }

func (w *tableWrapper[T]) SetAt(pos int, row any) error {
	typed, err := w.asT(row)
	if err != nil {
		return err
	}
	return w.inner.SetAt(pos, typed)
}

func (w *tableWrapper[T]) Append(row any) error {
	typed, err := w.asT(row)
	if err != nil {
		return err
	}
	return w.inner.Append(typed)
}

func (w *tableWrapper[T]) Remove(row any) (bool, error) {
	typed, err := w.asT(row)
	if err != nil {
		return false, err
	}
	return w.inner.Remove(typed, func(a, b T) bool { return rowEqual(a, b) })
}

func (w *tableWrapper[T]) RemoveByIndex(pos int, autoUpdate bool) (any, error) {
	return w.inner.RemoveByIndex(pos, autoUpdate)
}

func (w *tableWrapper[T]) Insert(row any, pos int, autoUpdate bool) error {
	typed, err := w.asT(row)
	if err != nil {
		return err
	}
	return w.inner.Insert(typed, pos, autoUpdate)
}

func (w *tableWrapper[T]) UpdateAt(pos int, updates map[string]any) error {
	return w.inner.UpdateAt(pos, updates)
}

func (w *tableWrapper[T]) RebuildIndexes() error { return w.inner.RebuildIndexes() }

func (w *tableWrapper[T]) Query(filters map[string]any) ([]any, error) {
	rows, err := w.inner.Query(filters)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out, nil
}

func (w *tableWrapper[T]) QueryPositions(filters map[string]any) ([]int, error) {
	return w.inner.QueryPositions(filters)
}

func (w *tableWrapper[T]) CreateIndex(tag, field string) error { return w.inner.CreateIndex(tag, field) }
func (w *tableWrapper[T]) DropIndex(field string) error        { return w.inner.DropIndex(field) }

func (w *tableWrapper[T]) CreateConstraint(kind constraint.Kind, fields ...string) error {
	return w.inner.CreateConstraint(kind, fields...)
}

func (w *tableWrapper[T]) DropConstraint(kind constraint.Kind, fields ...string) error {
	return w.inner.DropConstraint(kind, fields...)
}

// rowEqual compares two rows of the same record type structurally. Used
// only by the session-level Remove (by-value) path the original exposes
// through Collection.remove; the bulk of session CRUD goes through
// positions instead.
func rowEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
