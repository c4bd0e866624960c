package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acksell/ormtab/constraint"
	"github.com/acksell/ormtab/dberr"
)

type Book struct {
	Title  string
	Author string
	Year   int
	Genre  string
	ISBN   int
	Pages  int
}

func newLibrarySession(t *testing.T) *Session {
	t.Helper()
	s := New(nil)
	require.NoError(t, CreateDtype(s, "book", Book{}))
	require.NoError(t, CreateTable[Book](s, "book", "library"))
	require.NoError(t, s.CreateConstraint("library", constraint.Unique, "ISBN"))
	require.NoError(t, s.CreateIdx("library", "base", "Genre"))
	require.NoError(t, s.CreateIdx("library", "base", "Author"))
	require.NoError(t, s.CreateIdx("library", "range", "Year"))
	return s
}

func seedSession(t *testing.T, s *Session) []Book {
	t.Helper()
	books := []Book{
		{Title: "Title 1", Author: "Author 1", Year: 2000, Genre: "Genre 1", ISBN: 1234567890123, Pages: 100},
		{Title: "Title 2", Author: "Author 2", Year: 2015, Genre: "Genre 1", ISBN: 1234567890124, Pages: 150},
		{Title: "Title 3", Author: "Author 2", Year: 2010, Genre: "Genre 2", ISBN: 1234567890125, Pages: 125},
	}
	for _, b := range books {
		require.NoError(t, Insert(s, "library", b))
	}
	return books
}

func TestCreateDtypeDuplicateFails(t *testing.T) {
	s := New(nil)
	require.NoError(t, CreateDtype(s, "book", Book{}))
	err := CreateDtype(s, "book", Book{})
	var dup *dberr.DuplicateNameErr
	assert.ErrorAs(t, err, &dup)
}

func TestCreateTableUnknownDtypeFails(t *testing.T) {
	s := New(nil)
	err := CreateTable[Book](s, "book", "library")
	var unk *dberr.UnknownNameErr
	assert.ErrorAs(t, err, &unk)
}

func TestInsertAndSelectRows(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	rows, err := SelectRows[Book](s, "library", map[string]any{"Genre": "Genre 1"})
	require.NoError(t, err)
	assert.Equal(t, 2, rows.Len())
}

func TestSelectReturnsMatchingPositions(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	positions, err := Select(s, "library", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, positions)
}

func TestDeleteByFilterRemovesMatchingRows(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	n, err := Delete(s, "library", map[string]any{"Genre": "Genre 1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := SelectRows[Book](s, "library", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rows.Len())
}

func TestUpdateChangesMatchingRows(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	n, err := Update(s, "library", map[string]any{"ISBN": 1234567890123}, map[string]any{"Title": "Retitled"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := SelectRows[Book](s, "library", map[string]any{"ISBN": 1234567890123})
	require.NoError(t, err)
	require.Equal(t, 1, rows.Len())
	assert.Equal(t, "Retitled", rows.Get(0).Title)
}

func TestTransactionRollsBackInsertOnError(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	err := s.Transaction(func() error {
		if err := Insert(s, "library", Book{ISBN: 999, Title: "Temp"}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)

	rows, err := SelectRows[Book](s, "library", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, rows.Len(), "the inserted row must have been rolled back")
}

func TestTransactionRollsBackDeleteOnError(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	err := s.Transaction(func() error {
		if _, err := Delete(s, "library", map[string]any{"ISBN": 1234567890123}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)

	rows, err := SelectRows[Book](s, "library", map[string]any{"ISBN": 1234567890123})
	require.NoError(t, err)
	assert.Equal(t, 1, rows.Len(), "the deleted row must have been restored")
}

func TestTransactionRollsBackUpdateOnError(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	err := s.Transaction(func() error {
		if _, err := Update(s, "library", map[string]any{"ISBN": 1234567890123}, map[string]any{"Title": "Temp"}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)

	rows, err := SelectRows[Book](s, "library", map[string]any{"ISBN": 1234567890123})
	require.NoError(t, err)
	require.Equal(t, 1, rows.Len())
	assert.Equal(t, "Title 1", rows.Get(0).Title)
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	err := s.Transaction(func() error {
		return Insert(s, "library", Book{ISBN: 999, Title: "Temp"})
	})
	require.NoError(t, err)

	rows, err := SelectRows[Book](s, "library", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, rows.Len())
}

func TestBeginTwiceFails(t *testing.T) {
	s := newLibrarySession(t)
	require.NoError(t, s.Begin())
	err := s.Begin()
	var already *dberr.TransactionAlreadyOpenErr
	assert.ErrorAs(t, err, &already)
	require.NoError(t, s.Rollback())
}

func TestCommitWithoutTransactionFails(t *testing.T) {
	s := newLibrarySession(t)
	err := s.Commit()
	var none *dberr.NoTransactionErr
	assert.ErrorAs(t, err, &none)
}

func TestInsertUniqueConstraintFailure(t *testing.T) {
	s := newLibrarySession(t)
	books := seedSession(t, s)

	err := Insert(s, "library", books[0])
	var failed *constraint.FailedError
	assert.ErrorAs(t, err, &failed)
}

func TestDropDtypeCascadesToItsTables(t *testing.T) {
	s := newLibrarySession(t)
	seedSession(t, s)

	require.NoError(t, s.DropDtype("book"))

	var unk *dberr.UnknownNameErr
	_, err := SelectRows[Book](s, "library", nil)
	assert.ErrorAs(t, err, &unk, "the library table must be dropped along with its dtype")
}
