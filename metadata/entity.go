package metadata

// Level is how much of an entity has been materialized in a container.
type Level uint8

const (
	// LevelReference holds only the identity fields of an entity.
	LevelReference Level = iota
	// LevelDefinition holds the full metadata of an entity.
	LevelDefinition
	// LevelDefinitionWithChildren additionally holds the child token lists.
	// Only types have this level.
	LevelDefinitionWithChildren
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelReference:
		return "Reference"
	case LevelDefinition:
		return "Definition"
	case LevelDefinitionWithChildren:
		return "DefinitionWithChildren"
	}
	return "Unknown"
}

// Type is the reference shape of a type: just enough identity to find the
// real definition. An empty Assembly means the type is defined in the same
// container. EnclosingNames lists the declaring types of a nested type,
// innermost first.
type Type struct {
	Name           string   `json:"Name"`
	Namespace      string   `json:"Namespace,omitempty"`
	Assembly       string   `json:"Assembly,omitempty"`
	EnclosingNames []string `json:"EnclosingNames,omitempty"`
}

// QualifiedName returns the display name used for generated named tokens:
// the namespace-qualified name with enclosing types joined by '/'.
func (t *Type) QualifiedName() string {
	name := t.Name
	if t.Namespace != "" {
		name = t.Namespace + "." + name
	}
	for _, outer := range t.EnclosingNames {
		name = outer + "/" + name
	}
	return name
}

// TypeDef is the definition shape of a type. The child token lists
// (NestedTypes, Fields, Methods) and the member groupings (Properties,
// Events) are only populated at LevelDefinitionWithChildren.
type TypeDef struct {
	Type
	Attributes       uint32            `json:"Attributes"`
	BaseType         *ComplexType      `json:"BaseType,omitempty"`
	Interfaces       []ComplexType     `json:"Interfaces,omitempty"`
	Layout           *ClassLayout      `json:"Layout,omitempty"`
	GenericParams    []GenericParam    `json:"GenericParams,omitempty"`
	CustomAttributes []CustomAttribute `json:"CustomAttributes,omitempty"`
	NestedTypes      []Token           `json:"NestedTypes,omitempty"`
	Fields           []Token           `json:"Fields,omitempty"`
	Methods          []Token           `json:"Methods,omitempty"`
	Properties       []Property        `json:"Properties,omitempty"`
	Events           []Event           `json:"Events,omitempty"`
}

// Field is the reference shape of a field: name, declaring type, and the
// Field-kind calling-convention signature.
type Field struct {
	Name          string      `json:"Name"`
	DeclaringType ComplexType `json:"DeclaringType"`
	Signature     ComplexType `json:"Signature"`
}

// FieldDef is the definition shape of a field.
type FieldDef struct {
	Field
	Attributes       uint32            `json:"Attributes"`
	InitialValue     []byte            `json:"InitialValue,omitempty"`
	Constant         *Constant         `json:"Constant,omitempty"`
	CustomAttributes []CustomAttribute `json:"CustomAttributes,omitempty"`
}

// Method is the reference shape of a method.
type Method struct {
	Name          string      `json:"Name"`
	DeclaringType ComplexType `json:"DeclaringType"`
	Signature     ComplexType `json:"Signature"`
}

// MethodDef is the definition shape of a method.
type MethodDef struct {
	Method
	Attributes       uint32            `json:"Attributes"`
	ImplAttributes   uint32            `json:"ImplAttributes"`
	Params           []Param           `json:"Params,omitempty"`
	Body             *MethodBody       `json:"Body,omitempty"`
	Overrides        []MethodOverride  `json:"Overrides,omitempty"`
	PInvoke          *PInvokeMap       `json:"PInvoke,omitempty"`
	GenericParams    []GenericParam    `json:"GenericParams,omitempty"`
	CustomAttributes []CustomAttribute `json:"CustomAttributes,omitempty"`
}

// ClassLayout is the optional packing/size layout of a type.
type ClassLayout struct {
	PackingSize uint16 `json:"PackingSize"`
	ClassSize   uint32 `json:"ClassSize"`
}

// GenericParam is one generic parameter of a type or method.
type GenericParam struct {
	Number      uint16        `json:"Number"`
	Attributes  uint16        `json:"Attributes,omitempty"`
	Name        string        `json:"Name"`
	Constraints []ComplexType `json:"Constraints,omitempty"`
}

// CustomAttribute is a constructor reference plus the raw value blob.
type CustomAttribute struct {
	Constructor ComplexType `json:"Constructor"`
	Blob        []byte      `json:"Blob,omitempty"`
}

// Param is one declared parameter of a method definition.
type Param struct {
	Sequence   uint16    `json:"Sequence"`
	Attributes uint16    `json:"Attributes,omitempty"`
	Name       string    `json:"Name,omitempty"`
	Constant   *Constant `json:"Constant,omitempty"`
}

// PInvokeMap is the P/Invoke mapping of a method definition.
type PInvokeMap struct {
	Module     string `json:"Module"`
	Name       string `json:"Name"`
	Attributes uint16 `json:"Attributes,omitempty"`
}

// MethodOverride pairs the overriding method body with the declaration it
// implements.
type MethodOverride struct {
	Body        ComplexType `json:"Body"`
	Declaration ComplexType `json:"Declaration"`
}

// Property groups accessor methods of a type definition.
type Property struct {
	Name         string      `json:"Name"`
	Attributes   uint16      `json:"Attributes,omitempty"`
	Signature    ComplexType `json:"Signature"`
	GetMethod    *Token      `json:"GetMethod,omitempty"`
	SetMethod    *Token      `json:"SetMethod,omitempty"`
	OtherMethods []Token     `json:"OtherMethods,omitempty"`
}

// Event groups event accessor methods of a type definition.
type Event struct {
	Name         string      `json:"Name"`
	Attributes   uint16      `json:"Attributes,omitempty"`
	Type         ComplexType `json:"Type"`
	AddMethod    *Token      `json:"AddMethod,omitempty"`
	RemoveMethod *Token      `json:"RemoveMethod,omitempty"`
	InvokeMethod *Token      `json:"InvokeMethod,omitempty"`
	OtherMethods []Token     `json:"OtherMethods,omitempty"`
}

// Constant is a typed primitive constant. Numeric values share the 64-bit
// Slot; 32-bit floats go through the bit-level widening protocol so NaN
// payloads survive. String constants use Str with ElemString as the type.
type Constant struct {
	Type ElementType `json:"Type"`
	Slot int64       `json:"Slot,omitempty"`
	Str  string      `json:"Str,omitempty"`
}

// Float32Constant builds an R4 constant through the slot protocol.
func Float32Constant(f float32) *Constant {
	return &Constant{Type: ElemR4, Slot: Float32ToSlot(f)}
}

// Float64Constant builds an R8 constant.
func Float64Constant(f float64) *Constant {
	return &Constant{Type: ElemR8, Slot: Float64ToSlot(f)}
}

// Float32 decodes an R4 constant from the slot.
func (c *Constant) Float32() float32 {
	return Float32FromSlot(c.Slot)
}

// Float64 decodes an R8 constant from the slot.
func (c *Constant) Float64() float64 {
	return Float64FromSlot(c.Slot)
}

// TypeEntry is one stored type with its materialization level. Exactly one
// of Ref and Def is set: Ref at LevelReference, Def above it.
type TypeEntry struct {
	Level Level
	Ref   *Type
	Def   *TypeDef
}

// Reference returns the identity fields of the entry regardless of level.
func (e TypeEntry) Reference() *Type {
	if e.Def != nil {
		return &e.Def.Type
	}
	return e.Ref
}

// FieldEntry is one stored field with its materialization level.
type FieldEntry struct {
	Level Level
	Ref   *Field
	Def   *FieldDef
}

// Reference returns the identity fields of the entry regardless of level.
func (e FieldEntry) Reference() *Field {
	if e.Def != nil {
		return &e.Def.Field
	}
	return e.Ref
}

// MethodEntry is one stored method with its materialization level.
type MethodEntry struct {
	Level Level
	Ref   *Method
	Def   *MethodDef
}

// Reference returns the identity fields of the entry regardless of level.
func (e MethodEntry) Reference() *Method {
	if e.Def != nil {
		return &e.Def.Method
	}
	return e.Ref
}
