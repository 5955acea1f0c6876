package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpack/dnmeta/live"
	"github.com/ilpack/dnmeta/metadata"
)

// buildLiveAssembly constructs a small but representative object graph:
// a cyclic self-referencing type, an external base type, a nested type,
// a branching method body, a property and a custom attribute.
func buildLiveAssembly(t *testing.T) *live.Assembly {
	t.Helper()

	mscorlib := live.NewAssembly("mscorlib")
	object := live.NewTypeDecl("System", "Object")
	object.IsReference = true
	mscorlib.AddType(object)
	disposable := live.NewTypeDecl("System", "IDisposable")
	disposable.IsReference = true
	mscorlib.AddType(disposable)

	attrCtor := &live.MethodDecl{
		Name:          ".ctor",
		DeclaringType: object,
		IsReference:   true,
		Sig: &live.MethodSig{
			CallConv: live.CallConvHasThis,
			Return:   live.PrimitiveSig(byte(metadata.ElemVoid)),
		},
	}

	app := live.NewAssembly("App")
	node := live.NewTypeDecl("App", "Node")
	node.Attributes = 0x100001
	node.BaseType = live.ClassSig(object)
	node.Interfaces = []*live.TypeSig{live.ClassSig(disposable)}
	node.PackingSize = 4
	node.ClassSize = 16
	node.CustomAttrs = []*live.CustomAttrDecl{{Constructor: attrCtor, Blob: []byte{1, 0, 0, 0}}}
	app.AddType(node)

	cursor := live.NewTypeDecl("", "Cursor")
	node.AddNested(cursor)

	// The field type closes a cycle back to the declaring type.
	next := &live.FieldDecl{Name: "next", Type: live.ClassSig(node)}
	node.AddField(next)
	value := &live.FieldDecl{
		Name:       "value",
		Type:       live.PrimitiveSig(byte(metadata.ElemI4)),
		Constant:   &live.ConstantDecl{Kind: byte(metadata.ElemI4), Slot: 42},
		Attributes: 0x6,
	}
	node.AddField(value)

	walk := &live.MethodDecl{
		Name:       "Walk",
		Attributes: 0x86,
		Sig: &live.MethodSig{
			CallConv: live.CallConvHasThis,
			Return:   live.PrimitiveSig(byte(metadata.ElemVoid)),
		},
	}
	i0 := &live.InstrDecl{OpCode: "ldc.i4", Operand: int32(0)}
	i3 := &live.InstrDecl{OpCode: "ret"}
	i1 := &live.InstrDecl{OpCode: "brtrue.s", Operand: i3}
	i2 := &live.InstrDecl{OpCode: "nop"}
	walk.Body = &live.BodyDecl{
		MaxStack:     8,
		InitLocals:   true,
		Locals:       []*live.TypeSig{live.PrimitiveSig(byte(metadata.ElemI4))},
		Instructions: []*live.InstrDecl{i0, i1, i2, i3},
		Handlers: []*live.HandlerDecl{{
			Kind:         live.HandlerFinally,
			TryStart:     i0,
			TryEnd:       i2,
			HandlerStart: i2,
			HandlerEnd:   i3,
		}},
	}
	node.AddMethod(walk)

	getValue := &live.MethodDecl{
		Name: "get_Value",
		Sig: &live.MethodSig{
			CallConv: live.CallConvHasThis,
			Return:   live.PrimitiveSig(byte(metadata.ElemI4)),
		},
	}
	node.AddMethod(getValue)
	node.Properties = []*live.PropertyDecl{{
		Name: "Value",
		Sig: &live.MethodSig{
			CallConv: byte(metadata.CCProperty) | live.CallConvHasThis,
			Return:   live.PrimitiveSig(byte(metadata.ElemI4)),
		},
		GetMethod: getValue,
	}}

	return app
}

func readContainer(t *testing.T, asm *live.Assembly, opts metadata.Options) *metadata.Metadata {
	t.Helper()
	md := metadata.New(opts)
	r := NewReader(md)
	require.NoError(t, r.AddAssembly(asm))
	return md
}

func TestRoundTripIndexed(t *testing.T) {
	first := readContainer(t, buildLiveAssembly(t), 0)

	target := live.NewAssembly("App")
	w := NewWriter(first, target)
	require.NoError(t, w.Materialize())

	second := readContainer(t, target, 0)
	assert.True(t, metadata.Comparer{Full: true}.ContainersEqual(first, second))
}

func TestRoundTripNamed(t *testing.T) {
	first := readContainer(t, buildLiveAssembly(t), metadata.OptionNamedTokens)

	target := live.NewAssembly("App")
	w := NewWriter(first, target)
	require.NoError(t, w.Materialize())

	second := readContainer(t, target, metadata.OptionNamedTokens)
	assert.True(t, metadata.Comparer{Full: true}.ContainersEqual(first, second))
}

func TestRoundTripThroughJSON(t *testing.T) {
	first := readContainer(t, buildLiveAssembly(t), metadata.OptionNamedTokens)

	data, err := first.EncodeJSON()
	require.NoError(t, err)
	decoded, err := metadata.DecodeJSON(data)
	require.NoError(t, err)

	target := live.NewAssembly("App")
	require.NoError(t, NewWriter(decoded, target).Materialize())

	second := readContainer(t, target, metadata.OptionNamedTokens)
	assert.True(t, metadata.Comparer{Full: true}.ContainersEqual(first, second))
}

func TestWriterRebuildsLiveGraph(t *testing.T) {
	md := readContainer(t, buildLiveAssembly(t), 0)

	target := live.NewAssembly("App")
	w := NewWriter(md, target)
	require.NoError(t, w.Materialize())

	node := target.FindType("App", "Node")
	require.NotNil(t, node)
	assert.False(t, node.IsReference)
	assert.Equal(t, uint32(0x100001), node.Attributes)
	assert.Equal(t, int32(4), node.PackingSize)
	assert.Equal(t, int32(16), node.ClassSize)

	// The base type points into the auto-created reference assembly.
	require.NotNil(t, node.BaseType)
	require.Equal(t, live.SigClass, node.BaseType.Kind)
	require.NotNil(t, node.BaseType.Decl.Assembly)
	assert.Equal(t, "mscorlib", node.BaseType.Decl.Assembly.Name)
	assert.True(t, node.BaseType.Decl.IsReference)

	// The cyclic field points back at the very same declaration.
	require.Len(t, node.Fields, 2)
	next := node.Fields[0]
	require.Equal(t, live.SigClass, next.Type.Kind)
	assert.Same(t, node, next.Type.Decl)

	value := node.Fields[1]
	require.NotNil(t, value.Constant)
	assert.Equal(t, int64(42), value.Constant.Slot)

	// Nested type is reattached under its declaring type.
	require.Len(t, node.NestedTypes, 1)
	assert.Equal(t, "Cursor", node.NestedTypes[0].Name)
	assert.Same(t, node, node.NestedTypes[0].DeclaringType)

	// Branch targets are pointers again, and handler boundaries line up.
	require.Len(t, node.Methods, 2)
	walk := node.Methods[0]
	require.NotNil(t, walk.Body)
	require.Len(t, walk.Body.Instructions, 4)
	branch := walk.Body.Instructions[1]
	target3, ok := branch.Operand.(*live.InstrDecl)
	require.True(t, ok)
	assert.Same(t, walk.Body.Instructions[3], target3)
	require.Len(t, walk.Body.Handlers, 1)
	assert.Same(t, walk.Body.Instructions[0], walk.Body.Handlers[0].TryStart)
	assert.Nil(t, walk.Body.Handlers[0].FilterStart)

	// Property accessors resolve to the materialized method.
	require.Len(t, node.Properties, 1)
	assert.Same(t, node.Methods[1], node.Properties[0].GetMethod)

	// Custom attribute constructor is a method reference on the external
	// type.
	require.Len(t, node.CustomAttrs, 1)
	ctor := node.CustomAttrs[0].Constructor
	require.NotNil(t, ctor)
	assert.True(t, ctor.IsReference)
	assert.Equal(t, ".ctor", ctor.Name)
}

func TestWriterSkipsBodiesWhenOptioned(t *testing.T) {
	md := readContainer(t, buildLiveAssembly(t), metadata.OptionSkipMethodBodies)

	entry, err := md.Method(metadata.IndexedToken(1))
	require.NoError(t, err)
	if entry.Def != nil {
		assert.Nil(t, entry.Def.Body)
	}
}

func TestWriterAssemblyResolverHook(t *testing.T) {
	md := readContainer(t, buildLiveAssembly(t), 0)

	prebuilt := live.NewAssembly("mscorlib")
	var asked []string
	target := live.NewAssembly("App")
	w := NewWriter(md, target, WithAssemblyResolver(func(name string) (*live.Assembly, error) {
		asked = append(asked, name)
		if name == "mscorlib" {
			return prebuilt, nil
		}
		return nil, nil
	}))
	require.NoError(t, w.Materialize())

	assert.Contains(t, asked, "mscorlib")
	assert.NotEmpty(t, prebuilt.Types)
}

func TestWriterTypeResolverHook(t *testing.T) {
	md := readContainer(t, buildLiveAssembly(t), 0)

	mscorlib := live.NewAssembly("mscorlib")
	existing := live.NewTypeDecl("System", "Object")
	existing.IsReference = true
	mscorlib.AddType(existing)

	target := live.NewAssembly("App")
	w := NewWriter(md, target, WithTypeResolver(func(ref *metadata.Type) (*live.TypeDecl, error) {
		if ref.Assembly == "mscorlib" && ref.Name == "Object" {
			return existing, nil
		}
		return nil, nil
	}))
	require.NoError(t, w.Materialize())

	node := target.FindType("App", "Node")
	require.NotNil(t, node)
	assert.Same(t, existing, node.BaseType.Decl)
}
