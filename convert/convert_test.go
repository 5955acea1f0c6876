package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpack/dnmeta/live"
	"github.com/ilpack/dnmeta/metadata"
)

func varargSig(after ...*live.TypeSig) *live.MethodSig {
	return &live.MethodSig{
		CallConv:            byte(metadata.CCVarArg),
		Return:              live.PrimitiveSig(byte(metadata.ElemVoid)),
		Params:              []*live.TypeSig{live.PrimitiveSig(byte(metadata.ElemString))},
		ParamsAfterSentinel: after,
	}
}

func TestReaderRejectsVarArgMethodReference(t *testing.T) {
	asm := live.NewAssembly("App")
	typ := live.NewTypeDecl("App", "T")
	asm.AddType(typ)

	printf := &live.MethodDecl{
		Name:          "printf",
		DeclaringType: typ,
		IsReference:   true,
		Sig:           varargSig(live.PrimitiveSig(byte(metadata.ElemI4))),
	}
	caller := &live.MethodDecl{
		Name: "Caller",
		Sig: &live.MethodSig{
			CallConv: 0,
			Return:   live.PrimitiveSig(byte(metadata.ElemVoid)),
		},
		Body: &live.BodyDecl{Instructions: []*live.InstrDecl{
			{OpCode: "call", Operand: printf},
			{OpCode: "ret"},
		}},
	}
	typ.AddMethod(caller)

	err := NewReader(metadata.New(0)).AddAssembly(asm)
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrUnsupported)
}

func TestReaderRejectsSentinelParamsInDefinition(t *testing.T) {
	asm := live.NewAssembly("App")
	typ := live.NewTypeDecl("App", "T")
	asm.AddType(typ)
	bad := &live.MethodDecl{
		Name: "Bad",
		Sig:  varargSig(live.PrimitiveSig(byte(metadata.ElemI4))),
	}
	typ.AddMethod(bad)

	err := NewReader(metadata.New(0)).AddAssembly(asm)
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrInvalidData)
}

func TestEncodeMethodSigMergesSentinel(t *testing.T) {
	r := NewReader(metadata.New(0))
	sig := varargSig(
		live.PrimitiveSig(byte(metadata.ElemI4)),
		live.PrimitiveSig(byte(metadata.ElemI8)),
	)
	ct, err := r.encodeMethodSig(sig)
	require.NoError(t, err)
	s, err := metadata.Format(ct)
	require.NoError(t, err)
	assert.Equal(t, "VarArg(Int32(0),Int32(3),Void,String,Sentinel,I4,I8)", s)
}

func TestEncodeMethodSigNoSentinelWithoutTail(t *testing.T) {
	r := NewReader(metadata.New(0))
	ct, err := r.encodeMethodSig(varargSig())
	require.NoError(t, err)
	s, err := metadata.Format(ct)
	require.NoError(t, err)
	assert.Equal(t, "VarArg(Int32(0),Int32(1),Void,String)", s)
}

func TestDecodeMethodSigSplitsAtSentinel(t *testing.T) {
	ct, err := metadata.Parse("VarArg(Int32(0),Int32(3),Void,String,Sentinel,I4,I8)")
	require.NoError(t, err)

	w := NewWriter(metadata.New(0), live.NewAssembly("App"))
	sig, err := w.decodeMethodSig(ct)
	require.NoError(t, err)

	assert.True(t, sig.IsVarArg())
	require.Len(t, sig.Params, 1)
	assert.Equal(t, live.SigPrimitive, sig.Params[0].Kind)
	assert.Equal(t, byte(metadata.ElemString), sig.Params[0].Primitive)
	require.Len(t, sig.ParamsAfterSentinel, 2)
	assert.Equal(t, byte(metadata.ElemI4), sig.ParamsAfterSentinel[0].Primitive)
	assert.Equal(t, byte(metadata.ElemI8), sig.ParamsAfterSentinel[1].Primitive)
}

func TestDecodeMethodSigRejectsSecondSentinel(t *testing.T) {
	// The grammar rejects double sentinels, so build the tree directly.
	ct := metadata.CallConvSig(metadata.CCVarArg,
		metadata.Int32Type(0),
		metadata.Int32Type(1),
		metadata.TypeSig(metadata.ElemVoid),
		metadata.TypeSig(metadata.ElemSentinel),
		metadata.TypeSig(metadata.ElemI4),
		metadata.TypeSig(metadata.ElemSentinel),
	)
	w := NewWriter(metadata.New(0), live.NewAssembly("App"))
	_, err := w.decodeMethodSig(ct)
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrInvalidData)
}

func TestDecodeMethodSigValidatesParamCount(t *testing.T) {
	ct := metadata.CallConvSig(metadata.CCDefault,
		metadata.Int32Type(0),
		metadata.Int32Type(2),
		metadata.TypeSig(metadata.ElemVoid),
		metadata.TypeSig(metadata.ElemI4),
	)
	w := NewWriter(metadata.New(0), live.NewAssembly("App"))
	_, err := w.decodeMethodSig(ct)
	assert.ErrorIs(t, err, metadata.ErrInvalidData)
}

func TestReaderRejectsMethodWithoutDeclaringType(t *testing.T) {
	r := NewReader(metadata.New(0))
	_, err := r.methodToken(&live.MethodDecl{
		Name: "Orphan",
		Sig:  &live.MethodSig{Return: live.PrimitiveSig(byte(metadata.ElemVoid))},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrInvalidArgument)
}

func TestReaderRejectsBranchOutsideBody(t *testing.T) {
	asm := live.NewAssembly("App")
	typ := live.NewTypeDecl("App", "T")
	asm.AddType(typ)

	stray := &live.InstrDecl{OpCode: "ret"}
	m := &live.MethodDecl{
		Name: "M",
		Sig:  &live.MethodSig{Return: live.PrimitiveSig(byte(metadata.ElemVoid))},
		Body: &live.BodyDecl{Instructions: []*live.InstrDecl{
			{OpCode: "br.s", Operand: stray},
		}},
	}
	typ.AddMethod(m)

	err := NewReader(metadata.New(0)).AddAssembly(asm)
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrInvalidData)
}

func TestWriterRejectsDanglingToken(t *testing.T) {
	md := metadata.New(0)
	u := metadata.NewUpdater(md)
	tok, _, err := u.UpdateTypeRef(&metadata.Type{Name: "T"})
	require.NoError(t, err)

	// A field whose declaring type token does not exist in the container.
	_, _, err = u.UpdateFieldRef(&metadata.Field{
		Name:          "f",
		DeclaringType: metadata.TokenType(metadata.IndexedToken(9)),
		Signature:     metadata.CallConvSig(metadata.CCField, metadata.Int32Type(0), metadata.TypeSig(metadata.ElemI4)),
	})
	require.NoError(t, err)
	_ = tok

	w := NewWriter(md, live.NewAssembly("App"))
	err = w.Materialize()
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrInvalidData)
}

func TestEncodeSigArrayShape(t *testing.T) {
	r := NewReader(metadata.New(0))
	sig := live.ArraySig(live.PrimitiveSig(byte(metadata.ElemI4)), 2, []int32{3, 4}, []int32{0})
	ct, err := r.encodeSig(sig)
	require.NoError(t, err)
	s, err := metadata.Format(ct)
	require.NoError(t, err)
	assert.Equal(t, "Array(I4,Int32(2),Int32(2),Int32(3),Int32(4),Int32(1),Int32(0))", s)

	w := NewWriter(metadata.New(0), live.NewAssembly("App"))
	back, err := w.decodeSig(ct)
	require.NoError(t, err)
	assert.Equal(t, live.SigArray, back.Kind)
	assert.Equal(t, int32(2), back.Rank)
	assert.Equal(t, []int32{3, 4}, back.Sizes)
	assert.Equal(t, []int32{0}, back.LowerBounds)
}

func TestEncodeSigGenericInstantiation(t *testing.T) {
	md := metadata.New(0)
	r := NewReader(md)

	list := live.NewTypeDecl("System.Collections.Generic", "List`1")
	list.IsReference = true
	mscorlib := live.NewAssembly("mscorlib")
	mscorlib.AddType(list)

	sig := live.GenericInstSig(live.ClassSig(list), live.PrimitiveSig(byte(metadata.ElemString)))
	ct, err := r.encodeSig(sig)
	require.NoError(t, err)
	s, err := metadata.Format(ct)
	require.NoError(t, err)
	assert.Equal(t, "GenericInst(Class(0),Int32(1),String)", s)
}

func TestConversionErrorsAreClassified(t *testing.T) {
	r := NewReader(metadata.New(0))
	_, err := r.encodeSig(nil)
	assert.ErrorIs(t, err, metadata.ErrInvalidArgument)

	_, err = r.encodeSig(&live.TypeSig{Kind: live.SigPrimitive, Primitive: byte(metadata.ElemPtr)})
	assert.ErrorIs(t, err, metadata.ErrInvalidData)

	err = r.AddAssembly(nil)
	assert.ErrorIs(t, err, metadata.ErrInvalidArgument)
}
