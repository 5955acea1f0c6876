package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparerReferenceMode(t *testing.T) {
	ref := Comparer{}

	a := TypeEntry{Level: LevelReference, Ref: &Type{Name: "T", Namespace: "Ns"}}
	b := TypeEntry{Level: LevelDefinition, Def: &TypeDef{Type: Type{Name: "T", Namespace: "Ns"}, Attributes: 99}}
	// Same identity at different levels is equal in reference mode.
	assert.True(t, ref.TypesEqual(a, b))
	assert.False(t, Comparer{Full: true}.TypesEqual(a, b))

	c := TypeEntry{Level: LevelReference, Ref: &Type{Name: "T", Namespace: "Other"}}
	assert.False(t, ref.TypesEqual(a, c))
}

func TestComparerFullModeTypeDefs(t *testing.T) {
	full := Comparer{Full: true}

	base := TypeSig(ElemClass, TokenType(IndexedToken(0)))
	mk := func() TypeEntry {
		return TypeEntry{Level: LevelDefinition, Def: &TypeDef{
			Type:       Type{Name: "T"},
			Attributes: 1,
			BaseType:   &base,
			Interfaces: []ComplexType{TypeSig(ElemClass, TokenType(IndexedToken(1)))},
			Layout:     &ClassLayout{PackingSize: 4, ClassSize: 16},
		}}
	}
	assert.True(t, full.TypesEqual(mk(), mk()))

	other := mk()
	other.Def.Layout.ClassSize = 32
	assert.False(t, full.TypesEqual(mk(), other))

	noBase := mk()
	noBase.Def.BaseType = nil
	assert.False(t, full.TypesEqual(mk(), noBase))
}

func TestComparerMethodBodies(t *testing.T) {
	full := Comparer{Full: true}
	sig := CallConvSig(CCDefault, Int32Type(0), Int32Type(0), TypeSig(ElemVoid))
	mk := func(maxStack uint16) MethodEntry {
		return MethodEntry{Level: LevelDefinition, Def: &MethodDef{
			Method: Method{Name: "M", DeclaringType: TokenType(IndexedToken(0)), Signature: sig},
			Body: &MethodBody{
				MaxStack: maxStack,
				Instructions: []Instruction{
					{OpCode: "nop"},
					{OpCode: "ret"},
				},
				ExceptionHandlers: []ExceptionHandler{
					{Kind: HandlerFinally, TryStart: 0, TryEnd: 1, FilterStart: NoIndex, HandlerStart: 1, HandlerEnd: 2},
				},
			},
		}}
	}
	assert.True(t, full.MethodsEqual(mk(4), mk(4)))
	assert.False(t, full.MethodsEqual(mk(4), mk(8)))
}

func TestComparerContainers(t *testing.T) {
	a := buildSample(t, 0)
	b := buildSample(t, 0)
	assert.True(t, Comparer{Full: true}.ContainersEqual(a, b))
	assert.True(t, Comparer{}.ContainersEqual(a, b))

	// Mutating one definition breaks full equality but not reference
	// equality.
	entry, err := b.Type(IndexedToken(1))
	require.NoError(t, err)
	entry.Def.Attributes ^= 1
	assert.False(t, Comparer{Full: true}.ContainersEqual(a, b))
	assert.True(t, Comparer{}.ContainersEqual(a, b))
}

func TestComparerDifferentOptions(t *testing.T) {
	a := buildSample(t, 0)
	b := buildSample(t, OptionNamedTokens)
	assert.False(t, Comparer{}.ContainersEqual(a, b))
}

func TestComparerNilContainers(t *testing.T) {
	var c Comparer
	assert.True(t, c.ContainersEqual(nil, nil))
	assert.False(t, c.ContainersEqual(buildSample(t, 0), nil))
}
