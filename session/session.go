// Package session implements the Session: the registry of declared
// record types and tables, and the single-writer transaction log that
// gives every mutation exact rollback.
//
// Grounded on src/database/session.py's DatabaseSession, with Python's
// dynamically typed dict-of-tables replaced by a type-erased tableHandle
// registry and generic free functions recovering the caller's record
// type at each call site (Go methods cannot add their own type
// parameters on top of a non-generic receiver).
package session

import (
	"log"
	"sort"

	"github.com/acksell/ormtab/collection"
	"github.com/acksell/ormtab/constraint"
	"github.com/acksell/ormtab/dberr"
	"github.com/acksell/ormtab/record"
	"github.com/acksell/ormtab/table"
)

// Session owns every declared record type, every table built over one,
// and at most one open transaction.
type Session struct {
	dtypes map[string]*record.Descriptor
	tables map[string]tableHandle
	tx     *transaction
	logger *log.Logger
}

// New returns an empty Session. logger receives a line for every dtype
// and table creation or drop; index and constraint changes are not
// logged. Pass nil to use log.Default().
func New(logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		dtypes: make(map[string]*record.Descriptor),
		tables: make(map[string]tableHandle),
		logger: logger,
	}
}

// CreateDtype registers a record type under name, described from a
// sample value of T. Fails with DuplicateNameErr if name is already
// registered.
func CreateDtype[T any](s *Session, name string, sample T) error {
	if _, exists := s.dtypes[name]; exists {
		return &dberr.DuplicateNameErr{Kind: "dtype", Name: name}
	}
	d, err := record.Describe(sample)
	if err != nil {
		return err
	}
	s.dtypes[name] = d
	s.logger.Printf("session: created dtype %q", name)
	return nil
}

// DropDtype cascades: every table declared over name is dropped first, then
// the dtype itself, matching database/session.py's drop_dtype (which
// collects tables_to_drop by `table.dtype == dtype` before deleting them).
func (s *Session) DropDtype(name string) error {
	d, ok := s.dtypes[name]
	if !ok {
		return &dberr.UnknownNameErr{Kind: "dtype", Name: name}
	}
	for tableName, tbl := range s.tables {
		if tbl.Dtype() == d {
			delete(s.tables, tableName)
			s.logger.Printf("session: dropped table %q (cascaded from dtype %q)", tableName, name)
		}
	}
	delete(s.dtypes, name)
	s.logger.Printf("session: dropped dtype %q", name)
	return nil
}

// CreateTable declares and creates a table named tableName over the
// record type registered as dtypeName.
func CreateTable[T any](s *Session, dtypeName, tableName string) error {
	if _, exists := s.tables[tableName]; exists {
		return &dberr.DuplicateNameErr{Kind: "table", Name: tableName}
	}
	d, ok := s.dtypes[dtypeName]
	if !ok {
		return &dberr.UnknownNameErr{Kind: "dtype", Name: dtypeName}
	}
	tbl := table.New[T](tableName, d)
	if err := tbl.Create(); err != nil {
		return err
	}
	s.tables[tableName] = newTableWrapper(tbl)
	s.logger.Printf("session: created table %q over dtype %q", tableName, dtypeName)
	return nil
}

// DropTable removes a registered table.
func (s *Session) DropTable(name string) error {
	if _, ok := s.tables[name]; !ok {
		return &dberr.UnknownNameErr{Kind: "table", Name: name}
	}
	delete(s.tables, name)
	s.logger.Printf("session: dropped table %q", name)
	return nil
}

func (s *Session) lookupTable(name string) (tableHandle, error) {
	tbl, ok := s.tables[name]
	if !ok {
		return nil, &dberr.UnknownNameErr{Kind: "table", Name: name}
	}
	return tbl, nil
}

// CreateIdx registers a new index of the given tag ("base" or "range")
// on field of the named table.
func (s *Session) CreateIdx(tableName, tag, field string) error {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return err
	}
	return tbl.CreateIndex(tag, field)
}

// DropIdx removes the index on field of the named table.
func (s *Session) DropIdx(tableName, field string) error {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return err
	}
	return tbl.DropIndex(field)
}

// CreateConstraint registers fields of the named table under kind.
func (s *Session) CreateConstraint(tableName string, kind constraint.Kind, fields ...string) error {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return err
	}
	return tbl.CreateConstraint(kind, fields...)
}

// DropConstraint removes fields of the named table from kind.
func (s *Session) DropConstraint(tableName string, kind constraint.Kind, fields ...string) error {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return err
	}
	return tbl.DropConstraint(kind, fields...)
}

// Insert appends row to the named table, logging it for rollback if a
// transaction is open.
func Insert[T any](s *Session, tableName string, row T) error {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return err
	}
	if err := tbl.Append(row); err != nil {
		return err
	}
	if s.tx != nil {
		s.tx.log(insertEntry{table: tableName, pos: tbl.Len() - 1})
	}
	return nil
}

// Select evaluates filters against the named table and returns the
// matching row positions, mirroring database/session.py's select().
func Select(s *Session, tableName string, filters map[string]any) ([]int, error) {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return nil, err
	}
	return tbl.QueryPositions(filters)
}

// SelectRows evaluates filters against the named table and returns the
// matching rows as a read-only snapshot, mirroring
// database/session.py's select_rows().
func SelectRows[T any](s *Session, tableName string, filters map[string]any) (*collection.Immutable[T], error) {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return nil, err
	}
	rowsAny, err := tbl.Query(filters)
	if err != nil {
		return nil, err
	}
	rows := make([]T, len(rowsAny))
	for i, r := range rowsAny {
		typed, ok := r.(T)
		if !ok {
			return nil, &dberr.TypeErr{Expected: "row", Got: r}
		}
		rows[i] = typed
	}
	return collection.NewImmutable(rows), nil
}

// Update applies updates to every row in the named table matching
// filters, returning the number of rows changed. Each changed row is
// logged with its pre-update value for rollback.
func Update(s *Session, tableName string, filters map[string]any, updates map[string]any) (int, error) {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return 0, err
	}
	positions, err := tbl.QueryPositions(filters)
	if err != nil {
		return 0, err
	}
	for _, pos := range positions {
		oldRow := tbl.Get(pos)
		if err := tbl.UpdateAt(pos, updates); err != nil {
			return 0, err
		}
		if s.tx != nil {
			s.tx.log(updateEntry{table: tableName, pos: pos, oldRow: oldRow})
		}
	}
	return len(positions), nil
}

// Delete removes every row in the named table matching filters,
// returning the number of rows removed. Positions are removed
// highest-first so earlier positions stay valid until indexes are
// rebuilt once at the end, mirroring src/database/session.py's delete().
func Delete(s *Session, tableName string, filters map[string]any) (int, error) {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return 0, err
	}
	positions, err := tbl.QueryPositions(filters)
	if err != nil {
		return 0, err
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	for _, pos := range positions {
		row, err := tbl.RemoveByIndex(pos, false)
		if err != nil {
			return 0, err
		}
		if s.tx != nil {
			s.tx.log(deleteEntry{table: tableName, pos: pos, row: row})
		}
	}
	if len(positions) > 0 {
		if err := tbl.RebuildIndexes(); err != nil {
			return 0, err
		}
	}
	return len(positions), nil
}

// Remove deletes the first row in the named table structurally equal to
// row. Unlike Delete, this is a by-value removal with no filter grammar,
// grounded on orm/table.py's remove(item).
func Remove[T any](s *Session, tableName string, row T) (bool, error) {
	tbl, err := s.lookupTable(tableName)
	if err != nil {
		return false, err
	}
	return tbl.Remove(row)
}
