// Package live is an in-memory metadata object model: the collaborator
// surface the converters read from and write into. It mirrors the shape of
// an assembly-editing library — declarations link to each other with real
// pointers and the graph may be cyclic, unlike the portable model where all
// cross-entity links are tokens.
package live

// Assembly is one metadata container in the live model. Reference
// assemblies (created while resolving external types) carry only a name.
type Assembly struct {
	Name  string
	Types []*TypeDecl
}

// NewAssembly creates an empty assembly.
func NewAssembly(name string) *Assembly {
	return &Assembly{Name: name}
}

// AddType appends a top-level type and records its owning assembly.
func (a *Assembly) AddType(t *TypeDecl) *TypeDecl {
	t.Assembly = a
	a.Types = append(a.Types, t)
	return t
}

// FindType returns the top-level type with the given namespace and name,
// or nil.
func (a *Assembly) FindType(namespace, name string) *TypeDecl {
	for _, t := range a.Types {
		if t.Namespace == namespace && t.Name == name {
			return t
		}
	}
	return nil
}

// TypeDecl is a type declaration or reference. A reference carries only
// identity (name, namespace, assembly, declaring chain); a declaration
// additionally carries attributes, base type, members and so on.
type TypeDecl struct {
	Name          string
	Namespace     string
	Assembly      *Assembly
	DeclaringType *TypeDecl
	IsReference   bool

	Attributes uint32
	BaseType   *TypeSig
	Interfaces []*TypeSig

	// PackingSize and ClassSize are -1 when the type has no explicit
	// layout.
	PackingSize int32
	ClassSize   int32

	GenericParams []*GenericParamDecl
	CustomAttrs   []*CustomAttrDecl

	NestedTypes []*TypeDecl
	Fields      []*FieldDecl
	Methods     []*MethodDecl
	Properties  []*PropertyDecl
	Events      []*EventDecl
}

// NewTypeDecl creates a type declaration with no explicit layout.
func NewTypeDecl(namespace, name string) *TypeDecl {
	return &TypeDecl{Namespace: namespace, Name: name, PackingSize: -1, ClassSize: -1}
}

// AddNested appends a nested type, wiring the declaring link.
func (t *TypeDecl) AddNested(n *TypeDecl) *TypeDecl {
	n.DeclaringType = t
	n.Assembly = t.Assembly
	t.NestedTypes = append(t.NestedTypes, n)
	return n
}

// AddField appends a field, wiring the declaring link.
func (t *TypeDecl) AddField(f *FieldDecl) *FieldDecl {
	f.DeclaringType = t
	t.Fields = append(t.Fields, f)
	return f
}

// AddMethod appends a method, wiring the declaring link.
func (t *TypeDecl) AddMethod(m *MethodDecl) *MethodDecl {
	m.DeclaringType = t
	t.Methods = append(t.Methods, m)
	return m
}

// HasLayout reports whether the type carries explicit packing/size layout.
func (t *TypeDecl) HasLayout() bool {
	return t.PackingSize >= 0 || t.ClassSize >= 0
}

// EnclosingNames returns the declaring-type names, innermost first.
func (t *TypeDecl) EnclosingNames() []string {
	var names []string
	for d := t.DeclaringType; d != nil; d = d.DeclaringType {
		names = append(names, d.Name)
	}
	return names
}

// FieldDecl is a field declaration or reference.
type FieldDecl struct {
	Name          string
	DeclaringType *TypeDecl
	Type          *TypeSig
	IsReference   bool

	Attributes   uint32
	InitialValue []byte
	Constant     *ConstantDecl
	CustomAttrs  []*CustomAttrDecl
}

// MethodDecl is a method declaration or reference.
type MethodDecl struct {
	Name          string
	DeclaringType *TypeDecl
	Sig           *MethodSig
	IsReference   bool

	Attributes     uint32
	ImplAttributes uint32
	Params         []*ParamDecl
	Body           *BodyDecl
	Overrides      []*OverrideDecl
	PInvoke        *PInvokeDecl
	GenericParams  []*GenericParamDecl
	CustomAttrs    []*CustomAttrDecl
}

// ConstantDecl is a typed primitive constant. Numeric payloads live in the
// 64-bit slot; Kind is the element-type code of the value.
type ConstantDecl struct {
	Kind byte
	Slot int64
	Str  string
}

// ParamDecl is one declared parameter.
type ParamDecl struct {
	Name       string
	Sequence   uint16
	Attributes uint16
	Constant   *ConstantDecl
}

// PInvokeDecl is a method's P/Invoke mapping.
type PInvokeDecl struct {
	Module     string
	Name       string
	Attributes uint16
}

// GenericParamDecl is one generic parameter with its constraints.
type GenericParamDecl struct {
	Number      uint16
	Attributes  uint16
	Name        string
	Constraints []*TypeSig
}

// CustomAttrDecl is a custom attribute: constructor reference plus raw blob.
type CustomAttrDecl struct {
	Constructor *MethodDecl
	Blob        []byte
}

// OverrideDecl pairs an overriding method with the declaration it
// implements.
type OverrideDecl struct {
	Body        *MethodDecl
	Declaration *MethodDecl
}

// PropertyDecl groups accessor methods.
type PropertyDecl struct {
	Name         string
	Attributes   uint16
	Sig          *MethodSig
	GetMethod    *MethodDecl
	SetMethod    *MethodDecl
	OtherMethods []*MethodDecl
}

// EventDecl groups event accessors.
type EventDecl struct {
	Name         string
	Attributes   uint16
	Type         *TypeSig
	AddMethod    *MethodDecl
	RemoveMethod *MethodDecl
	InvokeMethod *MethodDecl
	OtherMethods []*MethodDecl
}
