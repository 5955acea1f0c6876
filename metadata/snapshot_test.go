package metadata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTripIndexed(t *testing.T) {
	md := buildSample(t, 0)
	data, err := md.EncodeSnapshot()
	require.NoError(t, err)

	back, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.True(t, Comparer{Full: true}.ContainersEqual(md, back))
}

func TestSnapshotRoundTripNamed(t *testing.T) {
	md := buildSample(t, OptionNamedTokens)
	data, err := md.EncodeSnapshot()
	require.NoError(t, err)

	back, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.True(t, Comparer{Full: true}.ContainersEqual(md, back))
}

func TestSnapshotDeterministic(t *testing.T) {
	a, err := buildSample(t, OptionNamedTokens).EncodeSnapshot()
	require.NoError(t, err)
	b, err := buildSample(t, OptionNamedTokens).EncodeSnapshot()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSnapshotPreservesNaNOperands(t *testing.T) {
	// Canonical CBOR rewrites NaN float values; operands carry bit patterns
	// instead, so distinct payloads must survive.
	md := New(0)
	u := NewUpdater(md)
	tok, _, err := u.UpdateTypeRef(&Type{Name: "T"})
	require.NoError(t, err)

	nan32 := math.Float32frombits(0x7fc0_0777)
	nan64 := math.Float64frombits(0x7ff8_0000_0000_0999)
	_, _, err = u.UpdateMethodDef(&MethodDef{
		Method: Method{
			Name:          "M",
			DeclaringType: TokenType(tok),
			Signature:     CallConvSig(CCDefault, Int32Type(0), Int32Type(0), TypeSig(ElemVoid)),
		},
		Body: &MethodBody{
			Instructions: []Instruction{
				{OpCode: "ldc.r4", Operand: Float32Operand(nan32)},
				{OpCode: "ldc.r8", Operand: Float64Operand(nan64)},
				{OpCode: "ret"},
			},
		},
	})
	require.NoError(t, err)

	data, err := md.EncodeSnapshot()
	require.NoError(t, err)
	back, err := DecodeSnapshot(data)
	require.NoError(t, err)

	entry, err := back.Method(IndexedToken(0))
	require.NoError(t, err)
	instrs := entry.Def.Body.Instructions
	require.Len(t, instrs, 3)
	assert.Equal(t, uint32(0x7fc0_0777), math.Float32bits(instrs[0].Operand.Float32))
	assert.Equal(t, uint64(0x7ff8_0000_0000_0999), math.Float64bits(instrs[1].Operand.Float64))
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte{0xff, 0x00, 0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDecodeSnapshotValidatesLevels(t *testing.T) {
	// A field entry cannot carry the with-children level.
	snap := snapshot{
		Fields: []fieldSnapshot{{
			Token: IndexedToken(0),
			Level: LevelDefinitionWithChildren,
			Def:   &FieldDef{Field: Field{Name: "f"}},
		}},
	}
	data, err := cborEncMode.Marshal(&snap)
	require.NoError(t, err)
	_, err = DecodeSnapshot(data)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDecodeSnapshotRequiresPayload(t *testing.T) {
	snap := snapshot{
		Types: []typeSnapshot{{Token: IndexedToken(0), Level: LevelDefinition}},
	}
	data, err := cborEncMode.Marshal(&snap)
	require.NoError(t, err)
	_, err = DecodeSnapshot(data)
	assert.ErrorIs(t, err, ErrInvalidData)
}
