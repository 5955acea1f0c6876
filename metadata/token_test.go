package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedToken(t *testing.T) {
	tok := IndexedToken(7)
	assert.False(t, tok.IsNamed())
	assert.Equal(t, int32(7), tok.Index())
	assert.Equal(t, "7", tok.String())
	assert.Equal(t, "7", tok.Key())
}

func TestIndexedTokenClampsNegative(t *testing.T) {
	assert.Equal(t, int32(0), IndexedToken(-5).Index())
}

func TestNamedToken(t *testing.T) {
	tok, err := NamedToken("System.Object")
	require.NoError(t, err)
	assert.True(t, tok.IsNamed())
	assert.Equal(t, "System.Object", tok.Name())
	assert.Equal(t, "'System.Object'", tok.String())
	assert.Equal(t, "System.Object", tok.Key())
}

func TestNamedTokenRejectsReservedCharacters(t *testing.T) {
	for _, name := range []string{"", "a(b", "a)b", "a,b", "a@b", "a'b"} {
		_, err := NamedToken(name)
		require.Error(t, err, "name %q", name)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestTokenCompare(t *testing.T) {
	named1, _ := NamedToken("Alpha")
	named2, _ := NamedToken("Beta")
	idx1 := IndexedToken(1)
	idx2 := IndexedToken(2)

	// Named tokens sort before every indexed token.
	assert.Equal(t, -1, named2.Compare(idx1))
	assert.Equal(t, 1, idx1.Compare(named2))
	assert.Equal(t, -1, named1.Compare(named2))
	assert.Equal(t, -1, idx1.Compare(idx2))
	assert.Equal(t, 0, idx1.Compare(IndexedToken(1)))
	assert.Equal(t, 0, named1.Compare(named1))
}

func TestTokenEquality(t *testing.T) {
	a, _ := NamedToken("X")
	b, _ := NamedToken("X")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, IndexedToken(0))
}
