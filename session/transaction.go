package session

import "github.com/acksell/ormtab/dberr"

// logEntry is the inverse-operation record a transaction needs to undo
// one mutation. Grounded on src/database/log_operations.py's Insert,
// Update and Delete dataclasses.
type logEntry interface {
	tableName() string
}

type insertEntry struct {
	table string
	pos   int
}

func (e insertEntry) tableName() string { return e.table }

type deleteEntry struct {
	table string
	pos   int
	row   any
}

func (e deleteEntry) tableName() string { return e.table }

type updateEntry struct {
	table  string
	pos    int
	oldRow any
}

func (e updateEntry) tableName() string { return e.table }

// transaction is the single open undo log a Session tracks; each entry is
// appended after its mutation has been applied. The
// engine is single-writer: at most one transaction is open at a time, and
// Begin rejects a second.
type transaction struct {
	entries []logEntry
}

func (tx *transaction) log(e logEntry) { tx.entries = append(tx.entries, e) }

// Begin opens a transaction. Fails if one is already open.
func (s *Session) Begin() error {
	if s.tx != nil {
		return &dberr.TransactionAlreadyOpenErr{}
	}
	s.tx = &transaction{}
	return nil
}

// Commit closes the open transaction, discarding its log. Fails if none
// is open.
func (s *Session) Commit() error {
	if s.tx == nil {
		return &dberr.NoTransactionErr{}
	}
	s.tx = nil
	return nil
}

// Rollback undoes every logged mutation in reverse order, then closes the
// transaction. An insert is undone by removing the row it added; a
// delete is undone by re-inserting the row it removed at its original
// position; an update is undone by overwriting the row directly, then
// rebuilding every index once. Grounded on
// src/database/session.py's rollback_action dispatch.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return &dberr.NoTransactionErr{}
	}
	entries := s.tx.entries
	s.tx = nil

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		tbl, ok := s.tables[entry.tableName()]
		if !ok {
			return &dberr.UnknownNameErr{Kind: "table", Name: entry.tableName()}
		}
		switch e := entry.(type) {
		case insertEntry:
			if _, err := tbl.RemoveByIndex(e.pos, true); err != nil {
				return err
			}
		case deleteEntry:
			if err := tbl.Insert(e.row, e.pos, true); err != nil {
				return err
			}
		case updateEntry:
			if err := tbl.SetAt(e.pos, e.oldRow); err != nil {
				return err
			}
			if err := tbl.RebuildIndexes(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Transaction runs fn inside a begin/commit pair, rolling back and
// propagating fn's error (or re-panicking after rollback) if it fails —
// the Go analogue of the original's @contextmanager transaction().
func (s *Session) Transaction(fn func() error) (err error) {
	if err := s.Begin(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = s.Rollback()
			panic(r)
		}
	}()
	if ferr := fn(); ferr != nil {
		if rerr := s.Rollback(); rerr != nil {
			return rerr
		}
		return ferr
	}
	return s.Commit()
}
