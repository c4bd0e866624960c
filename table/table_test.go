package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acksell/ormtab/constraint"
	"github.com/acksell/ormtab/dberr"
	"github.com/acksell/ormtab/record"
)

type Book struct {
	Title  string
	Author string
	Year   int
	Genre  string
	ISBN   int
	Pages  int
}

func newLibrary(t *testing.T) *Table[Book] {
	t.Helper()
	d, err := record.Describe(Book{})
	require.NoError(t, err)
	tbl := New[Book]("library", d)
	require.NoError(t, tbl.CreateConstraint(constraint.Unique, "ISBN"))
	require.NoError(t, tbl.Create())
	require.NoError(t, tbl.CreateIndex("base", "Genre"))
	require.NoError(t, tbl.CreateIndex("base", "Author"))
	require.NoError(t, tbl.CreateIndex("range", "Year"))
	return tbl
}

func seedLibrary(t *testing.T, tbl *Table[Book]) []Book {
	t.Helper()
	books := []Book{
		{Title: "Title 1", Author: "Author 1", Year: 2000, Genre: "Genre 1", ISBN: 1234567890123, Pages: 100},
		{Title: "Title 2", Author: "Author 2", Year: 2015, Genre: "Genre 1", ISBN: 1234567890124, Pages: 150},
		{Title: "Title 3", Author: "Author 2", Year: 2010, Genre: "Genre 2", ISBN: 1234567890125, Pages: 125},
	}
	for _, b := range books {
		require.NoError(t, tbl.Append(b))
	}
	return books
}

func TestOperationsBeforeCreateFail(t *testing.T) {
	d, err := record.Describe(Book{})
	require.NoError(t, err)
	tbl := New[Book]("library", d)

	err = tbl.Append(Book{})
	var notCreated *dberr.TableNotCreatedErr
	assert.ErrorAs(t, err, &notCreated)
}

func TestAppendAndQueryByEquality(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	rows, err := tbl.Query(map[string]any{"Genre": "Genre 1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestQueryByIsbnFindsExactRow(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	rows, err := tbl.Query(map[string]any{"ISBN": 1234567890125})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Title 3", rows[0].Title)
}

func TestRangeQueryIntersectsWithEquality(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	rows, err := tbl.Query(map[string]any{"Year__ge": 2005, "Author": "Author 2"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestQueryShortCircuitsToEmpty(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	rows, err := tbl.Query(map[string]any{"Year__gt": 2030})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAppendDuplicateIsbnFails(t *testing.T) {
	tbl := newLibrary(t)
	books := seedLibrary(t, tbl)

	err := tbl.Append(books[0])
	var failed *constraint.FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "ISBN", failed.Field)
}

func TestUpdateAtPreservesUnchangedFields(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	require.NoError(t, tbl.UpdateAt(0, map[string]any{"Title": "New Title"}))
	assert.Equal(t, "New Title", tbl.Get(0).Title)
	assert.Equal(t, "Author 1", tbl.Get(0).Author)
}

func TestUpdateAtRejectsUniqueCollision(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	err := tbl.UpdateAt(0, map[string]any{"ISBN": 1234567890124})
	var failed *constraint.FailedError
	assert.ErrorAs(t, err, &failed)
}

func TestUpdateAtAllowsUnchangedUniqueField(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	err := tbl.UpdateAt(0, map[string]any{"ISBN": 1234567890123, "Title": "Retitled"})
	require.NoError(t, err)
}

func TestRemoveByIndexThenQueryReflectsChange(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	_, err := tbl.RemoveByIndex(0, true)
	require.NoError(t, err)

	rows, err := tbl.Query(map[string]any{"Genre": "Genre 1"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDropIndexFallsBackToFullScan(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	require.NoError(t, tbl.DropIndex("Genre"))
	rows, err := tbl.Query(map[string]any{"Genre": "Genre 2"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreateIndexTwiceFails(t *testing.T) {
	tbl := newLibrary(t)
	err := tbl.CreateIndex("base", "Genre")
	var exists *dberr.IndexExistsErr
	assert.ErrorAs(t, err, &exists)
}

func TestDropUniqueConstraintDropsImplicitIndex(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	require.NoError(t, tbl.DropConstraint(constraint.Unique, "ISBN"))
	require.NoError(t, tbl.CreateIndex("base", "ISBN"), "the implicit ISBN index must be gone after dropping its constraint")

	require.NoError(t, tbl.Append(Book{Title: "Title 4", Author: "Author 1", Year: 2020, Genre: "Genre 1", ISBN: 1234567890123, Pages: 90}))
}

func TestQueryWithUnrecognizedSuffixTreatsItAsPartOfFieldName(t *testing.T) {
	tbl := newLibrary(t)
	seedLibrary(t, tbl)

	_, err := tbl.Query(map[string]any{"Year__between": 2000})
	var unknown *dberr.UnknownNameErr
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Year__between", unknown.Name)
}
