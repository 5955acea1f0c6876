package live

// SigKind discriminates live type-signature nodes.
type SigKind uint8

const (
	// SigPrimitive is a built-in type; Primitive holds its element code.
	SigPrimitive SigKind = iota
	// SigClass references a class declaration.
	SigClass
	// SigValueType references a value-type declaration.
	SigValueType
	// SigPtr is an unmanaged pointer to Elem.
	SigPtr
	// SigByRef is a managed reference to Elem.
	SigByRef
	// SigSZArray is a single-dimensional zero-based array of Elem.
	SigSZArray
	// SigArray is a general array of Elem with rank, sizes and lower
	// bounds.
	SigArray
	// SigGenericInst instantiates Elem with GenArgs.
	SigGenericInst
	// SigVar is a type generic variable; Index is its number.
	SigVar
	// SigMVar is a method generic variable; Index is its number.
	SigMVar
	// SigModReqd is a required custom modifier: Modifier applied to Elem.
	SigModReqd
	// SigModOpt is an optional custom modifier: Modifier applied to Elem.
	SigModOpt
	// SigPinned pins Elem.
	SigPinned
	// SigFnPtr is a function pointer with signature Method.
	SigFnPtr
	// SigSentinel is the vararg boundary marker.
	SigSentinel
	// SigValueArray is a fixed-size value array of Elem; Index is the size.
	SigValueArray
	// SigModule scopes Elem to another module; Index is the module index.
	SigModule
)

// TypeSig is one node of a live type signature. Unlike the portable tree,
// Class/ValueType nodes point straight at declarations, so signature graphs
// can reach back into the declaring type graph.
type TypeSig struct {
	Kind        SigKind
	Primitive   byte
	Decl        *TypeDecl
	Elem        *TypeSig
	Modifier    *TypeSig
	Index       int32
	Rank        int32
	Sizes       []int32
	LowerBounds []int32
	GenArgs     []*TypeSig
	Method      *MethodSig
}

// PrimitiveSig returns a built-in type node for an element code.
func PrimitiveSig(code byte) *TypeSig {
	return &TypeSig{Kind: SigPrimitive, Primitive: code}
}

// ClassSig returns a class reference node.
func ClassSig(decl *TypeDecl) *TypeSig {
	return &TypeSig{Kind: SigClass, Decl: decl}
}

// ValueTypeSig returns a value-type reference node.
func ValueTypeSig(decl *TypeDecl) *TypeSig {
	return &TypeSig{Kind: SigValueType, Decl: decl}
}

// PtrSig returns a pointer node.
func PtrSig(elem *TypeSig) *TypeSig {
	return &TypeSig{Kind: SigPtr, Elem: elem}
}

// ByRefSig returns a managed-reference node.
func ByRefSig(elem *TypeSig) *TypeSig {
	return &TypeSig{Kind: SigByRef, Elem: elem}
}

// SZArraySig returns a vector node.
func SZArraySig(elem *TypeSig) *TypeSig {
	return &TypeSig{Kind: SigSZArray, Elem: elem}
}

// ArraySig returns a general array node.
func ArraySig(elem *TypeSig, rank int32, sizes, lowerBounds []int32) *TypeSig {
	return &TypeSig{Kind: SigArray, Elem: elem, Rank: rank, Sizes: sizes, LowerBounds: lowerBounds}
}

// GenericInstSig returns a generic instantiation node.
func GenericInstSig(base *TypeSig, args ...*TypeSig) *TypeSig {
	return &TypeSig{Kind: SigGenericInst, Elem: base, GenArgs: args}
}

// VarSig returns a type generic variable node.
func VarSig(number int32) *TypeSig {
	return &TypeSig{Kind: SigVar, Index: number}
}

// MVarSig returns a method generic variable node.
func MVarSig(number int32) *TypeSig {
	return &TypeSig{Kind: SigMVar, Index: number}
}

// ModReqdSig returns a required-modifier node.
func ModReqdSig(modifier, elem *TypeSig) *TypeSig {
	return &TypeSig{Kind: SigModReqd, Modifier: modifier, Elem: elem}
}

// ModOptSig returns an optional-modifier node.
func ModOptSig(modifier, elem *TypeSig) *TypeSig {
	return &TypeSig{Kind: SigModOpt, Modifier: modifier, Elem: elem}
}

// PinnedSig returns a pinned node.
func PinnedSig(elem *TypeSig) *TypeSig {
	return &TypeSig{Kind: SigPinned, Elem: elem}
}

// FnPtrSig returns a function-pointer node.
func FnPtrSig(sig *MethodSig) *TypeSig {
	return &TypeSig{Kind: SigFnPtr, Method: sig}
}

// SentinelSig returns the vararg boundary marker.
func SentinelSig() *TypeSig {
	return &TypeSig{Kind: SigSentinel}
}

// MethodSig is a live method signature. CallConv is the raw convention
// byte: the low nibble selects the convention, the high bits carry the
// has-this/explicit-this/generic flags. Call sites of vararg methods list
// the fixed parameters in Params and the variadic tail in
// ParamsAfterSentinel; the two lists merge around a single sentinel marker
// on the wire.
type MethodSig struct {
	CallConv            byte
	GenParamCount       uint32
	Return              *TypeSig
	Params              []*TypeSig
	ParamsAfterSentinel []*TypeSig
}

// Raw calling-convention flag bits.
const (
	CallConvMask         byte = 0x0f
	CallConvGeneric      byte = 0x10
	CallConvHasThis      byte = 0x20
	CallConvExplicitThis byte = 0x40
)

// IsVarArg reports whether the convention nibble is the managed vararg
// convention.
func (s *MethodSig) IsVarArg() bool {
	return s.CallConv&CallConvMask == 0x5
}

// InstrDecl is one live instruction. Operand is the open object slot live
// models use: int32, int64, float32, float64, string, *InstrDecl (branch),
// []*InstrDecl (switch), *TypeSig, *TypeDecl, *FieldDecl or *MethodDecl.
type InstrDecl struct {
	OpCode  string
	Operand interface{}
}

// BodyDecl is a live method body. Branch operands and handler boundaries
// reference instruction objects; the portable form flattens them to
// indices.
type BodyDecl struct {
	MaxStack     uint16
	InitLocals   bool
	Locals       []*TypeSig
	Instructions []*InstrDecl
	Handlers     []*HandlerDecl
}

// HandlerKind values for live exception handlers.
const (
	HandlerCatch uint8 = iota
	HandlerFilter
	HandlerFinally
	HandlerFault
)

// HandlerDecl is one live exception-handler clause. Nil boundaries are
// absent.
type HandlerDecl struct {
	Kind         uint8
	TryStart     *InstrDecl
	TryEnd       *InstrDecl
	FilterStart  *InstrDecl
	HandlerStart *InstrDecl
	HandlerEnd   *InstrDecl
	CatchType    *TypeSig
}
