package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchEq(t *testing.T) {
	ok, err := Match(Eq, "scifi", "scifi")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchGtNumeric(t *testing.T) {
	ok, err := Match(Gt, 2015, 2000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchLeBoundary(t *testing.T) {
	ok, err := Match(Le, 2000, 2000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchIn(t *testing.T) {
	ok, err := Match(In, "b", []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchUnsupportedOperator(t *testing.T) {
	_, err := Match(Operator("bogus"), 1, 1)
	assert.Error(t, err)
}
