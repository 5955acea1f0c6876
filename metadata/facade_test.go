package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSample populates a container with an interleaved mix of references
// and definitions across all three sections.
func buildSample(t *testing.T, opts Options) *Metadata {
	t.Helper()
	md := New(opts)
	u := NewUpdater(md)

	objTok, _, err := u.UpdateTypeRef(&Type{Name: "Object", Namespace: "System", Assembly: "mscorlib"})
	require.NoError(t, err)

	base := TypeSig(ElemClass, TokenType(objTok))
	def := &TypeDef{
		Type:       Type{Name: "Widget", Namespace: "App"},
		Attributes: 0x100001,
		BaseType:   &base,
	}
	widgetTok, _, err := u.UpdateTypeDef(def, LevelDefinition)
	require.NoError(t, err)

	_, _, err = u.UpdateTypeRef(&Type{Name: "IDisposable", Namespace: "System", Assembly: "mscorlib"})
	require.NoError(t, err)

	fieldSig := CallConvSig(CCField, Int32Type(0), TypeSig(ElemI4))
	fieldDef := &FieldDef{
		Field:      Field{Name: "count", DeclaringType: TokenType(widgetTok), Signature: fieldSig},
		Attributes: 0x6,
		Constant:   &Constant{Type: ElemI4, Slot: 41},
	}
	fieldTok, _, err := u.UpdateFieldDef(fieldDef)
	require.NoError(t, err)

	mref := &Method{
		Name:          "Dispose",
		DeclaringType: TokenType(objTok),
		Signature:     CallConvSig(CCDefault, Int32Type(int32(CCFlagHasThis)), Int32Type(0), TypeSig(ElemVoid)),
	}
	_, _, err = u.UpdateMethodRef(mref)
	require.NoError(t, err)

	mdef := &MethodDef{
		Method: Method{
			Name:          "Increment",
			DeclaringType: TokenType(widgetTok),
			Signature:     CallConvSig(CCDefault, Int32Type(int32(CCFlagHasThis)), Int32Type(0), TypeSig(ElemVoid)),
		},
		Attributes: 0x86,
		Body: &MethodBody{
			MaxStack:   8,
			InitLocals: true,
			Locals:     []ComplexType{TypeSig(ElemI4)},
			Instructions: []Instruction{
				{OpCode: "ldc.i4", Operand: Int32Operand(1)},
				{OpCode: "br.s", Operand: Int32Operand(2)},
				{OpCode: "ret"},
			},
		},
	}
	methodTok, _, err := u.UpdateMethodDef(mdef)
	require.NoError(t, err)

	// Upgrade the widget to carry children.
	def.Fields = []Token{fieldTok}
	def.Methods = []Token{methodTok}
	_, _, err = u.UpdateTypeDef(def, LevelDefinitionWithChildren)
	require.NoError(t, err)

	return md
}

func TestFacadeRoundTripIndexed(t *testing.T) {
	md := buildSample(t, 0)
	data, err := md.EncodeJSON()
	require.NoError(t, err)

	back, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.True(t, Comparer{Full: true}.ContainersEqual(md, back))
}

func TestFacadeRoundTripNamed(t *testing.T) {
	md := buildSample(t, OptionNamedTokens)
	data, err := md.EncodeJSON()
	require.NoError(t, err)

	back, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.True(t, Comparer{Full: true}.ContainersEqual(md, back))
}

func TestFacadeOrdersOnlyInNamedMode(t *testing.T) {
	indexed, err := buildSample(t, 0).ToDocument()
	require.NoError(t, err)
	assert.Nil(t, indexed.Types.Orders)

	named, err := buildSample(t, OptionNamedTokens).ToDocument()
	require.NoError(t, err)
	// ref, def, ref enumeration order: runs [1 1 1].
	assert.Equal(t, []int{1, 1, 1}, named.Types.Orders)
}

func TestFacadeOrdersLeadingZero(t *testing.T) {
	md := New(OptionNamedTokens)
	u := NewUpdater(md)
	_, _, err := u.UpdateTypeDef(&TypeDef{Type: Type{Name: "First"}}, LevelDefinition)
	require.NoError(t, err)
	_, _, err = u.UpdateTypeRef(&Type{Name: "Second", Assembly: "Ext"})
	require.NoError(t, err)

	doc, err := md.ToDocument()
	require.NoError(t, err)
	// First entry is a definition: the reference run list starts with zero.
	assert.Equal(t, []int{0, 1, 1}, doc.Types.Orders)

	back, err := FromDocument(doc)
	require.NoError(t, err)
	assert.True(t, Comparer{Full: true}.ContainersEqual(md, back))
}

func TestFacadePreservesWithChildrenLevel(t *testing.T) {
	// A childless type at the with-children level is indistinguishable from
	// a plain definition by payload alone; the document keeps the level.
	md := New(0)
	u := NewUpdater(md)
	_, _, err := u.UpdateTypeDef(&TypeDef{Type: Type{Name: "Empty"}}, LevelDefinitionWithChildren)
	require.NoError(t, err)
	_, _, err = u.UpdateTypeDef(&TypeDef{Type: Type{Name: "Plain"}}, LevelDefinition)
	require.NoError(t, err)

	data, err := md.EncodeJSON()
	require.NoError(t, err)
	back, err := DecodeJSON(data)
	require.NoError(t, err)

	e0, err := back.Type(IndexedToken(0))
	require.NoError(t, err)
	assert.Equal(t, LevelDefinitionWithChildren, e0.Level)
	e1, err := back.Type(IndexedToken(1))
	require.NoError(t, err)
	assert.Equal(t, LevelDefinition, e1.Level)
}

func TestFromDocumentRejectsSparseIndexedSection(t *testing.T) {
	refs := NewOrderedMap[*Type]()
	refs.Set("0", &Type{Name: "A"})
	refs.Set("2", &Type{Name: "C"})
	doc := &Document{
		Types: TypeSection{References: refs, Definitions: NewOrderedMap[*typeDefDoc]()},
		Fields: FieldSection{
			References: NewOrderedMap[*Field](), Definitions: NewOrderedMap[*FieldDef](),
		},
	}
	_, err := FromDocument(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestFromDocumentNamedWithoutOrders(t *testing.T) {
	// Only references populated: order is unambiguous without a run list.
	md := New(OptionNamedTokens)
	u := NewUpdater(md)
	_, _, err := u.UpdateTypeRef(&Type{Name: "A"})
	require.NoError(t, err)
	_, _, err = u.UpdateTypeRef(&Type{Name: "B"})
	require.NoError(t, err)

	doc, err := md.ToDocument()
	require.NoError(t, err)
	doc.Types.Orders = nil
	back, err := FromDocument(doc)
	require.NoError(t, err)
	assert.True(t, Comparer{Full: true}.ContainersEqual(md, back))
}

func TestFromDocumentNamedMixedWithoutOrdersFails(t *testing.T) {
	md := New(OptionNamedTokens)
	u := NewUpdater(md)
	_, _, err := u.UpdateTypeRef(&Type{Name: "A", Assembly: "Ext"})
	require.NoError(t, err)
	_, _, err = u.UpdateTypeDef(&TypeDef{Type: Type{Name: "B"}}, LevelDefinition)
	require.NoError(t, err)

	doc, err := md.ToDocument()
	require.NoError(t, err)
	doc.Types.Orders = nil
	_, err = FromDocument(doc)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestFacadeJSONShape(t *testing.T) {
	md := buildSample(t, OptionNamedTokens)
	data, err := md.EncodeJSON()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, section := range []string{"Options", "Types", "Fields", "Methods"} {
		assert.Contains(t, raw, section)
	}
}
