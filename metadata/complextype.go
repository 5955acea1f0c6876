package metadata

// ComplexType is the recursive tagged value at the center of the portable
// model. One value represents a type signature node, a calling-convention
// signature, a token back-reference, an embedded integer literal, an
// instantiated generic method, or an inline CIL operand wrapper.
//
// The structure is always a finite tree: entities that would close a cycle
// (a type referencing itself through its base type, for example) appear as
// Token leaves, which are lookup keys into the owning container rather than
// owning links.

// Kind discriminates the variants of ComplexType.
type Kind uint8

const (
	// KindToken is a reference to an entity defined elsewhere in the
	// same container. The payload is the Token.
	KindToken Kind = iota
	// KindTypeSig is a type-signature node; Code holds the element type.
	KindTypeSig
	// KindCallingConventionSig is a method/field/local/generic signature;
	// Code holds the calling convention.
	KindCallingConventionSig
	// KindInt32 is an integer literal stored in the token's index slot.
	KindInt32
	// KindMethodSpec is an instantiated generic method: [method, instantiation].
	KindMethodSpec
	// KindInlineType wraps a CIL type operand.
	KindInlineType
	// KindInlineField wraps a CIL field operand.
	KindInlineField
	// KindInlineMethod wraps a CIL method operand.
	KindInlineMethod
)

var kindNames = map[Kind]string{
	KindToken:                "Token",
	KindTypeSig:              "TypeSig",
	KindCallingConventionSig: "CallingConventionSig",
	KindInt32:                "Int32",
	KindMethodSpec:           "MethodSpec",
	KindInlineType:           "InlineType",
	KindInlineField:          "InlineField",
	KindInlineMethod:         "InlineMethod",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// String returns the kind name as used by the structured JSON form.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// ComplexType is one node of the recursive signature tree. Args is nil when
// the node has no arguments; an empty non-nil slice violates the model
// invariant and is rejected by the formatter.
type ComplexType struct {
	Kind  Kind
	Token Token
	Code  byte
	Args  []ComplexType
}

// TokenType returns a Token-kind node referencing tok.
func TokenType(tok Token) ComplexType {
	return ComplexType{Kind: KindToken, Token: tok}
}

// Int32Type returns an Int32-kind node holding v in the token index slot.
func Int32Type(v int32) ComplexType {
	return ComplexType{Kind: KindInt32, Token: rawIndexToken(v)}
}

// TypeSig returns a type-signature node for the given element type.
func TypeSig(code ElementType, args ...ComplexType) ComplexType {
	return ComplexType{Kind: KindTypeSig, Code: byte(code), Args: normalizeArgs(args)}
}

// CallConvSig returns a calling-convention signature node.
func CallConvSig(code CallingConvention, args ...ComplexType) ComplexType {
	return ComplexType{Kind: KindCallingConventionSig, Code: byte(code), Args: normalizeArgs(args)}
}

// MethodSpecType returns a MethodSpec node: an instantiated generic method.
func MethodSpecType(method, instantiation ComplexType) ComplexType {
	return ComplexType{Kind: KindMethodSpec, Args: []ComplexType{method, instantiation}}
}

// InlineTypeOperand wraps a type operand of a CIL instruction.
func InlineTypeOperand(t ComplexType) ComplexType {
	return ComplexType{Kind: KindInlineType, Args: []ComplexType{t}}
}

// InlineFieldOperand wraps a field operand of a CIL instruction.
func InlineFieldOperand(t ComplexType) ComplexType {
	return ComplexType{Kind: KindInlineField, Args: []ComplexType{t}}
}

// InlineMethodOperand wraps a method operand of a CIL instruction.
func InlineMethodOperand(t ComplexType) ComplexType {
	return ComplexType{Kind: KindInlineMethod, Args: []ComplexType{t}}
}

func normalizeArgs(args []ComplexType) []ComplexType {
	if len(args) == 0 {
		return nil
	}
	return args
}

// Int32Value returns the embedded integer. It is an invariant violation to
// call it on any kind other than Int32.
func (c ComplexType) Int32Value() (int32, error) {
	if c.Kind != KindInt32 {
		return 0, errInvariantf("Int32Value on %s node", c.Kind)
	}
	return c.Token.index, nil
}

// ElementType returns the element-type code of a TypeSig node.
func (c ComplexType) ElementType() ElementType {
	return ElementType(c.Code)
}

// CallingConvention returns the convention code of a CallingConventionSig node.
func (c ComplexType) CallingConvention() CallingConvention {
	return CallingConvention(c.Code)
}

// IsSentinel reports whether this node is the vararg Sentinel marker.
func (c ComplexType) IsSentinel() bool {
	return c.Kind == KindTypeSig && ElementType(c.Code) == ElemSentinel
}

// Equal reports structural equality: same kind, token, code and recursively
// equal argument lists.
func (c ComplexType) Equal(o ComplexType) bool {
	if c.Kind != o.Kind || c.Token != o.Token || c.Code != o.Code {
		return false
	}
	if len(c.Args) != len(o.Args) {
		return false
	}
	for i := range c.Args {
		if !c.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. ComplexType has value semantics; entities that
// duplicate a tree must not share argument slices with the original.
func (c ComplexType) Clone() ComplexType {
	out := c
	if c.Args != nil {
		out.Args = make([]ComplexType, len(c.Args))
		for i := range c.Args {
			out.Args[i] = c.Args[i].Clone()
		}
	}
	return out
}

// String returns the compact textual form, or a diagnostic placeholder when
// the tree violates a formatting invariant.
func (c ComplexType) String() string {
	s, err := Format(c)
	if err != nil {
		return "<invalid " + c.Kind.String() + ">"
	}
	return s
}
