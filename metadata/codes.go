package metadata

// ElementType is the ECMA-335 element-type code identifying the kind of a
// type-signature node.
type ElementType byte

const (
	ElemEnd         ElementType = 0x00
	ElemVoid        ElementType = 0x01
	ElemBoolean     ElementType = 0x02
	ElemChar        ElementType = 0x03
	ElemI1          ElementType = 0x04
	ElemU1          ElementType = 0x05
	ElemI2          ElementType = 0x06
	ElemU2          ElementType = 0x07
	ElemI4          ElementType = 0x08
	ElemU4          ElementType = 0x09
	ElemI8          ElementType = 0x0a
	ElemU8          ElementType = 0x0b
	ElemR4          ElementType = 0x0c
	ElemR8          ElementType = 0x0d
	ElemString      ElementType = 0x0e
	ElemPtr         ElementType = 0x0f
	ElemByRef       ElementType = 0x10
	ElemValueType   ElementType = 0x11
	ElemClass       ElementType = 0x12
	ElemVar         ElementType = 0x13
	ElemArray       ElementType = 0x14
	ElemGenericInst ElementType = 0x15
	ElemTypedByRef  ElementType = 0x16
	ElemValueArray  ElementType = 0x17
	ElemI           ElementType = 0x18
	ElemU           ElementType = 0x19
	ElemR           ElementType = 0x1a
	ElemFnPtr       ElementType = 0x1b
	ElemObject      ElementType = 0x1c
	ElemSZArray     ElementType = 0x1d
	ElemMVar        ElementType = 0x1e
	ElemCModReqd    ElementType = 0x1f
	ElemCModOpt     ElementType = 0x20
	ElemModule      ElementType = 0x3f
	ElemSentinel    ElementType = 0x41
	ElemPinned      ElementType = 0x45
)

var elementTypeNames = map[ElementType]string{
	ElemEnd:         "End",
	ElemVoid:        "Void",
	ElemBoolean:     "Boolean",
	ElemChar:        "Char",
	ElemI1:          "I1",
	ElemU1:          "U1",
	ElemI2:          "I2",
	ElemU2:          "U2",
	ElemI4:          "I4",
	ElemU4:          "U4",
	ElemI8:          "I8",
	ElemU8:          "U8",
	ElemR4:          "R4",
	ElemR8:          "R8",
	ElemString:      "String",
	ElemPtr:         "Ptr",
	ElemByRef:       "ByRef",
	ElemValueType:   "ValueType",
	ElemClass:       "Class",
	ElemVar:         "Var",
	ElemArray:       "Array",
	ElemGenericInst: "GenericInst",
	ElemTypedByRef:  "TypedByRef",
	ElemValueArray:  "ValueArray",
	ElemI:           "I",
	ElemU:           "U",
	ElemR:           "R",
	ElemFnPtr:       "FnPtr",
	ElemObject:      "Object",
	ElemSZArray:     "SZArray",
	ElemMVar:        "MVar",
	ElemCModReqd:    "CModReqd",
	ElemCModOpt:     "CModOpt",
	ElemModule:      "Module",
	ElemSentinel:    "Sentinel",
	ElemPinned:      "Pinned",
}

var elementTypesByName = func() map[string]ElementType {
	m := make(map[string]ElementType, len(elementTypeNames))
	for code, name := range elementTypeNames {
		m[name] = code
	}
	return m
}()

// String returns the grammar name of the element type.
func (e ElementType) String() string {
	if n, ok := elementTypeNames[e]; ok {
		return n
	}
	return "Unknown"
}

// IsLeaf reports whether the element type takes no arguments.
func (e ElementType) IsLeaf() bool {
	switch e {
	case ElemEnd, ElemVoid, ElemBoolean, ElemChar,
		ElemI1, ElemU1, ElemI2, ElemU2, ElemI4, ElemU4, ElemI8, ElemU8,
		ElemR4, ElemR8, ElemString, ElemTypedByRef,
		ElemI, ElemU, ElemR, ElemObject, ElemSentinel:
		return true
	}
	return false
}

// CallingConvention is the code identifying the shape of a method, field,
// local-variable or generic-instantiation signature. The low nibble of the
// raw signature byte selects the convention; the remaining bits are flags.
type CallingConvention byte

const (
	CCDefault      CallingConvention = 0x0
	CCC            CallingConvention = 0x1
	CCStdCall      CallingConvention = 0x2
	CCThisCall     CallingConvention = 0x3
	CCFastCall     CallingConvention = 0x4
	CCVarArg       CallingConvention = 0x5
	CCField        CallingConvention = 0x6
	CCLocalSig     CallingConvention = 0x7
	CCProperty     CallingConvention = 0x8
	CCUnmanaged    CallingConvention = 0x9
	CCGenericInst  CallingConvention = 0xa
	CCNativeVarArg CallingConvention = 0xb
)

// Calling-convention flag bits, carried in the Int32 flags argument of every
// CallingConventionSig with the convention nibble already stripped.
const (
	CCFlagGeneric      byte = 0x10
	CCFlagHasThis      byte = 0x20
	CCFlagExplicitThis byte = 0x40
	// CCMask extracts the convention nibble from a raw signature byte.
	CCMask byte = 0x0f
)

var callingConventionNames = map[CallingConvention]string{
	CCDefault:      "Default",
	CCC:            "C",
	CCStdCall:      "StdCall",
	CCThisCall:     "ThisCall",
	CCFastCall:     "FastCall",
	CCVarArg:       "VarArg",
	CCField:        "Field",
	CCLocalSig:     "LocalSig",
	CCProperty:     "Property",
	CCUnmanaged:    "Unmanaged",
	CCGenericInst:  "GenericInstCC",
	CCNativeVarArg: "NativeVarArg",
}

var callingConventionsByName = func() map[string]CallingConvention {
	m := make(map[string]CallingConvention, len(callingConventionNames))
	for code, name := range callingConventionNames {
		m[name] = code
	}
	return m
}()

// String returns the grammar name of the calling convention.
func (c CallingConvention) String() string {
	if n, ok := callingConventionNames[c]; ok {
		return n
	}
	return "Unknown"
}

// HasParamList reports whether the convention carries a parameter count,
// return type and parameter list (as opposed to the Field, LocalSig and
// GenericInstCC shapes).
func (c CallingConvention) HasParamList() bool {
	switch c {
	case CCField, CCLocalSig, CCGenericInst:
		return false
	}
	return true
}
