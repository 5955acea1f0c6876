package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseTableSequentialInsertion(t *testing.T) {
	md := New(0)

	err := md.types.Add(IndexedToken(0), TypeEntry{Level: LevelReference, Ref: &Type{Name: "A"}})
	require.NoError(t, err)
	err = md.types.Add(IndexedToken(1), TypeEntry{Level: LevelReference, Ref: &Type{Name: "B"}})
	require.NoError(t, err)

	// Skipping an index breaks the dense invariant.
	err = md.types.Add(IndexedToken(3), TypeEntry{Level: LevelReference, Ref: &Type{Name: "D"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Named tokens do not belong in an indexed table.
	named, _ := NamedToken("A")
	err = md.types.Add(named, TypeEntry{Level: LevelReference, Ref: &Type{Name: "A"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 2, md.TypeCount())
	assert.Equal(t, []Token{IndexedToken(0), IndexedToken(1)}, md.TypeTokens())
}

func TestNamedTableInsertionOrder(t *testing.T) {
	md := New(OptionNamedTokens)

	names := []string{"Zebra", "Alpha", "Mid"}
	for _, n := range names {
		tok, err := NamedToken(n)
		require.NoError(t, err)
		err = md.types.Add(tok, TypeEntry{Level: LevelReference, Ref: &Type{Name: n}})
		require.NoError(t, err)
	}

	toks := md.TypeTokens()
	require.Len(t, toks, 3)
	for i, n := range names {
		assert.Equal(t, n, toks[i].Name())
	}
}

func TestNamedTableRejectsDuplicates(t *testing.T) {
	md := New(OptionNamedTokens)
	tok, _ := NamedToken("X")
	require.NoError(t, md.types.Add(tok, TypeEntry{Level: LevelReference, Ref: &Type{Name: "X"}}))
	err := md.types.Add(tok, TypeEntry{Level: LevelReference, Ref: &Type{Name: "X"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestContainerLookupNotFound(t *testing.T) {
	md := New(0)
	_, err := md.Type(IndexedToken(0))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = md.Field(IndexedToken(9))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = md.Method(IndexedToken(9))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceRequiresExistingToken(t *testing.T) {
	md := New(0)
	err := md.types.Replace(IndexedToken(0), TypeEntry{Level: LevelDefinition, Def: &TypeDef{}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOptionsHas(t *testing.T) {
	opts := OptionNamedTokens | OptionSkipMethodBodies
	assert.True(t, opts.Has(OptionNamedTokens))
	assert.True(t, opts.Has(OptionSkipMethodBodies))
	assert.False(t, opts.Has(OptionSkipCustomAttributes))
}
