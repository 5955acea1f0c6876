package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func methodSig(paramTypes ...ComplexType) ComplexType {
	args := []ComplexType{Int32Type(0), Int32Type(int32(len(paramTypes))), TypeSig(ElemVoid)}
	args = append(args, paramTypes...)
	return CallConvSig(CCDefault, args...)
}

func TestUpdaterAllocatesSequentialIndexes(t *testing.T) {
	md := New(0)
	u := NewUpdater(md)

	tokA, _, err := u.UpdateTypeRef(&Type{Name: "A"})
	require.NoError(t, err)
	tokB, _, err := u.UpdateTypeRef(&Type{Name: "B"})
	require.NoError(t, err)

	assert.Equal(t, IndexedToken(0), tokA)
	assert.Equal(t, IndexedToken(1), tokB)
}

func TestUpdaterDeduplicatesByIdentity(t *testing.T) {
	md := New(0)
	u := NewUpdater(md)

	tok1, _, err := u.UpdateTypeRef(&Type{Name: "C", Namespace: "Ns"})
	require.NoError(t, err)
	// A distinct object with the same identity maps to the same token.
	tok2, _, err := u.UpdateTypeRef(&Type{Name: "C", Namespace: "Ns"})
	require.NoError(t, err)
	assert.Equal(t, tok1, tok2)
	assert.Equal(t, 1, md.TypeCount())

	// A different assembly is a different identity.
	tok3, _, err := u.UpdateTypeRef(&Type{Name: "C", Namespace: "Ns", Assembly: "Other"})
	require.NoError(t, err)
	assert.NotEqual(t, tok1, tok3)
}

func TestUpdaterUpgradesLevels(t *testing.T) {
	md := New(0)
	u := NewUpdater(md)

	tok, old, err := u.UpdateTypeRef(&Type{Name: "T"})
	require.NoError(t, err)
	assert.Equal(t, LevelReference, old)

	def := &TypeDef{Type: Type{Name: "T"}, Attributes: 0x100}
	tok2, old, err := u.UpdateTypeDef(def, LevelDefinition)
	require.NoError(t, err)
	assert.Equal(t, tok, tok2)
	assert.Equal(t, LevelReference, old)

	entry, err := md.Type(tok)
	require.NoError(t, err)
	assert.Equal(t, LevelDefinition, entry.Level)
	assert.Same(t, def, entry.Def)

	tok3, old, err := u.UpdateTypeDef(def, LevelDefinitionWithChildren)
	require.NoError(t, err)
	assert.Equal(t, tok, tok3)
	assert.Equal(t, LevelDefinition, old)

	entry, err = md.Type(tok)
	require.NoError(t, err)
	assert.Equal(t, LevelDefinitionWithChildren, entry.Level)
}

func TestUpdaterNeverDowngrades(t *testing.T) {
	md := New(0)
	u := NewUpdater(md)

	def := &TypeDef{Type: Type{Name: "T"}, Attributes: 7}
	tok, _, err := u.UpdateTypeDef(def, LevelDefinition)
	require.NoError(t, err)

	// Registering a reference with the same identity is a no-op.
	tok2, old, err := u.UpdateTypeRef(&Type{Name: "T"})
	require.NoError(t, err)
	assert.Equal(t, tok, tok2)
	assert.Equal(t, LevelDefinition, old)

	entry, err := md.Type(tok)
	require.NoError(t, err)
	assert.Equal(t, LevelDefinition, entry.Level)
	assert.Equal(t, uint32(7), entry.Def.Attributes)
}

func TestUpdaterIdempotent(t *testing.T) {
	md := New(0)
	u := NewUpdater(md)

	def := &TypeDef{Type: Type{Name: "T"}}
	tok, _, err := u.UpdateTypeDef(def, LevelDefinition)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, old, err := u.UpdateTypeDef(def, LevelDefinition)
		require.NoError(t, err)
		assert.Equal(t, tok, again)
		assert.Equal(t, LevelDefinition, old)
	}
	assert.Equal(t, 1, md.TypeCount())
}

func TestUpdaterRejectsReferenceLevelForDef(t *testing.T) {
	md := New(0)
	u := NewUpdater(md)
	_, _, err := u.UpdateTypeDef(&TypeDef{Type: Type{Name: "T"}}, LevelReference)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdaterNamedTypeTokens(t *testing.T) {
	md := New(OptionNamedTokens)
	u := NewUpdater(md)

	tok, _, err := u.UpdateTypeRef(&Type{Name: "Console", Namespace: "System"})
	require.NoError(t, err)
	assert.True(t, tok.IsNamed())
	assert.Equal(t, "System.Console", tok.Name())

	nested, _, err := u.UpdateTypeRef(&Type{Name: "Inner", EnclosingNames: []string{"Outer"}})
	require.NoError(t, err)
	assert.Equal(t, "Outer/Inner", nested.Name())
}

func TestUpdaterNamedMemberTokens(t *testing.T) {
	md := New(OptionNamedTokens)
	u := NewUpdater(md)

	tokA, _, err := u.UpdateTypeRef(&Type{Name: "TypeA"})
	require.NoError(t, err)
	tokB, _, err := u.UpdateTypeRef(&Type{Name: "TypeB"})
	require.NoError(t, err)

	// Same method name on different declaring types gets distinct,
	// type-qualified names.
	m1, _, err := u.UpdateMethodRef(&Method{
		Name:          "WriteLine",
		DeclaringType: TokenType(tokA),
		Signature:     methodSig(TypeSig(ElemString)),
	})
	require.NoError(t, err)
	m2, _, err := u.UpdateMethodRef(&Method{
		Name:          "WriteLine",
		DeclaringType: TokenType(tokB),
		Signature:     methodSig(TypeSig(ElemString)),
	})
	require.NoError(t, err)
	assert.Equal(t, "TypeA::WriteLine", m1.Name())
	assert.Equal(t, "TypeB::WriteLine", m2.Name())

	// An overload on the same type collides on the display name and gets a
	// numeric suffix.
	m3, _, err := u.UpdateMethodRef(&Method{
		Name:          "WriteLine",
		DeclaringType: TokenType(tokA),
		Signature:     methodSig(TypeSig(ElemI4)),
	})
	require.NoError(t, err)
	assert.Equal(t, "TypeA::WriteLine_2", m3.Name())

	m4, _, err := u.UpdateMethodRef(&Method{
		Name:          "WriteLine",
		DeclaringType: TokenType(tokA),
		Signature:     methodSig(TypeSig(ElemI8)),
	})
	require.NoError(t, err)
	assert.Equal(t, "TypeA::WriteLine_3", m4.Name())
}

func TestUpdaterSanitizesGeneratedNames(t *testing.T) {
	md := New(OptionNamedTokens)
	u := NewUpdater(md)

	tok, _, err := u.UpdateTypeRef(&Type{Name: "Weird"})
	require.NoError(t, err)

	// op_Explicit-style names with grammar delimiters are flattened.
	m, _, err := u.UpdateMethodRef(&Method{
		Name:          "op(x,y)",
		DeclaringType: TokenType(tok),
		Signature:     methodSig(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Weird::op_x_y_", m.Name())
}

func TestUpdaterFieldDedup(t *testing.T) {
	md := New(0)
	u := NewUpdater(md)

	tok, _, err := u.UpdateTypeRef(&Type{Name: "T"})
	require.NoError(t, err)
	sig := CallConvSig(CCField, Int32Type(0), TypeSig(ElemI4))

	f1, _, err := u.UpdateFieldRef(&Field{Name: "count", DeclaringType: TokenType(tok), Signature: sig})
	require.NoError(t, err)
	f2, old, err := u.UpdateFieldDef(&FieldDef{
		Field:      Field{Name: "count", DeclaringType: TokenType(tok), Signature: sig},
		Attributes: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
	assert.Equal(t, LevelReference, old)

	entry, err := md.Field(f1)
	require.NoError(t, err)
	assert.Equal(t, LevelDefinition, entry.Level)

	// A field with the same name but a different signature is distinct.
	otherSig := CallConvSig(CCField, Int32Type(0), TypeSig(ElemI8))
	f3, _, err := u.UpdateFieldRef(&Field{Name: "count", DeclaringType: TokenType(tok), Signature: otherSig})
	require.NoError(t, err)
	assert.NotEqual(t, f1, f3)
}

func TestUpdaterNilArguments(t *testing.T) {
	u := NewUpdater(New(0))
	_, _, err := u.UpdateTypeRef(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = u.UpdateFieldRef(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = u.UpdateMethodRef(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = u.UpdateTypeDef(nil, LevelDefinition)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = u.UpdateFieldDef(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = u.UpdateMethodDef(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
