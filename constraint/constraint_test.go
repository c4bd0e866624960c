package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndHas(t *testing.T) {
	s := NewSet()
	s.Add(Unique, "isbn", "title")
	assert.True(t, s.Has(Unique, "isbn"))
	assert.True(t, s.Has(Unique, "title"))
	assert.False(t, s.Has(Unique, "genre"))
}

func TestDropSubtractsFields(t *testing.T) {
	s := NewSet()
	s.Add(Unique, "isbn", "title")
	s.Drop(Unique, "title")
	assert.True(t, s.Has(Unique, "isbn"))
	assert.False(t, s.Has(Unique, "title"))
}

func TestDropEmptiesKindEntirely(t *testing.T) {
	s := NewSet()
	s.Add(Unique, "isbn")
	s.Drop(Unique, "isbn")
	assert.Empty(t, s.Fields(Unique))
}

func TestDropUnknownKindIsNoop(t *testing.T) {
	s := NewSet()
	s.Drop(Unique, "isbn")
	assert.Empty(t, s.Fields(Unique))
}

func TestFailedErrorMessage(t *testing.T) {
	err := &FailedError{Kind: Unique, Field: "isbn", Value: 123}
	assert.Contains(t, err.Error(), "isbn")
}
