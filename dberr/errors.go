// Package dberr collects the table engine's error taxonomy as typed Go
// errors, shared between table and session so neither has to import the
// other to raise or match them.
//
// Grounded on src/orm/exceptions.py, whose dataclass exception hierarchy
// (TableNotCreated, IndexExists, ConstraintFailed, ...) this mirrors one
// type per case instead of one shared base class.
package dberr

import "fmt"

// TypeErr reports a value of the wrong declared record type.
type TypeErr struct {
	Expected string
	Got      any
}

func (e *TypeErr) Error() string {
	return fmt.Sprintf("dberr: expected a %s, got %v (%T)", e.Expected, e.Got, e.Got)
}

// DuplicateNameErr reports re-registration of an already-used name (a
// dtype name, a table name).
type DuplicateNameErr struct {
	Kind string
	Name string
}

func (e *DuplicateNameErr) Error() string {
	return fmt.Sprintf("dberr: %s %q already exists", e.Kind, e.Name)
}

// UnknownNameErr reports a lookup against a name that was never
// registered (a dtype, a table, an index field).
type UnknownNameErr struct {
	Kind string
	Name string
}

func (e *UnknownNameErr) Error() string {
	return fmt.Sprintf("dberr: unknown %s %q", e.Kind, e.Name)
}

// IndexExistsErr reports CreateIndex called for a field that already has
// an index.
type IndexExistsErr struct {
	Field string
}

func (e *IndexExistsErr) Error() string {
	return fmt.Sprintf("dberr: index already exists on field %q", e.Field)
}

// TableNotCreatedErr reports a mutation or query against a Table whose
// Create has not been called, mirroring orm/table.py's `is_created`
// decorator guard.
type TableNotCreatedErr struct {
	Name string
}

func (e *TableNotCreatedErr) Error() string {
	return fmt.Sprintf("dberr: table %q has not been created", e.Name)
}

// TransactionAlreadyOpenErr reports Begin called while a transaction is
// already open; the engine is single-writer, one transaction at a time.
type TransactionAlreadyOpenErr struct{}

func (e *TransactionAlreadyOpenErr) Error() string {
	return "dberr: a transaction is already open"
}

// NoTransactionErr reports Commit or Rollback called with no open
// transaction.
type NoTransactionErr struct{}

func (e *NoTransactionErr) Error() string {
	return "dberr: no transaction is open"
}
