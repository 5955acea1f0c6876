package metadata

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// MethodBody is the flat, serializable form of a CIL method body. Branch
// targets and exception-handler boundaries are instruction indices, never
// pointers, so the representation round-trips through text unchanged.
type MethodBody struct {
	MaxStack          uint16             `json:"MaxStack"`
	InitLocals        bool               `json:"InitLocals,omitempty"`
	Locals            []ComplexType      `json:"Locals,omitempty"`
	Instructions      []Instruction      `json:"Instructions"`
	ExceptionHandlers []ExceptionHandler `json:"ExceptionHandlers,omitempty"`
}

// OperandKind discriminates the closed set of instruction operand payloads.
type OperandKind uint8

const (
	// OperandNone means the instruction takes no operand.
	OperandNone OperandKind = iota
	// OperandInt32 is a 32-bit integer, including branch-target indices.
	OperandInt32
	// OperandInt64 is a 64-bit integer.
	OperandInt64
	// OperandFloat32 is a 32-bit float.
	OperandFloat32
	// OperandFloat64 is a 64-bit float.
	OperandFloat64
	// OperandString is an inline string.
	OperandString
	// OperandSwitch is the list of switch-target instruction indices.
	OperandSwitch
	// OperandType is a ComplexType: an inline token operand.
	OperandType
)

var operandKindNames = map[OperandKind]string{
	OperandNone:    "none",
	OperandInt32:   "i4",
	OperandInt64:   "i8",
	OperandFloat32: "r4",
	OperandFloat64: "r8",
	OperandString:  "string",
	OperandSwitch:  "switch",
	OperandType:    "type",
}

var operandKindsByName = func() map[string]OperandKind {
	m := make(map[string]OperandKind, len(operandKindNames))
	for k, n := range operandKindNames {
		m[n] = k
	}
	return m
}()

// String returns the operand kind name used on the wire.
func (k OperandKind) String() string {
	if n, ok := operandKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Operand is the polymorphic payload of an instruction, modeled as a closed
// tagged union. At most the field matching Kind is meaningful.
type Operand struct {
	Kind    OperandKind
	Int32   int32
	Int64   int64
	Float32 float32
	Float64 float64
	Str     string
	Targets []int32
	Type    *ComplexType
}

// Int32Operand returns an i4 operand; branch targets use it for the index.
func Int32Operand(v int32) Operand { return Operand{Kind: OperandInt32, Int32: v} }

// Int64Operand returns an i8 operand.
func Int64Operand(v int64) Operand { return Operand{Kind: OperandInt64, Int64: v} }

// Float32Operand returns an r4 operand.
func Float32Operand(v float32) Operand { return Operand{Kind: OperandFloat32, Float32: v} }

// Float64Operand returns an r8 operand.
func Float64Operand(v float64) Operand { return Operand{Kind: OperandFloat64, Float64: v} }

// StringOperand returns an inline-string operand.
func StringOperand(s string) Operand { return Operand{Kind: OperandString, Str: s} }

// SwitchOperand returns the switch-target list operand.
func SwitchOperand(targets []int32) Operand { return Operand{Kind: OperandSwitch, Targets: targets} }

// TypeOperand returns an inline-token operand.
func TypeOperand(t ComplexType) Operand { return Operand{Kind: OperandType, Type: &t} }

// Equal reports structural equality. Float payloads compare by bit pattern
// so NaN operands with distinct payloads stay distinct.
func (o Operand) Equal(other Operand) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case OperandNone:
		return true
	case OperandInt32:
		return o.Int32 == other.Int32
	case OperandInt64:
		return o.Int64 == other.Int64
	case OperandFloat32:
		return math.Float32bits(o.Float32) == math.Float32bits(other.Float32)
	case OperandFloat64:
		return math.Float64bits(o.Float64) == math.Float64bits(other.Float64)
	case OperandString:
		return o.Str == other.Str
	case OperandSwitch:
		if len(o.Targets) != len(other.Targets) {
			return false
		}
		for i := range o.Targets {
			if o.Targets[i] != other.Targets[i] {
				return false
			}
		}
		return true
	case OperandType:
		if o.Type == nil || other.Type == nil {
			return o.Type == other.Type
		}
		return o.Type.Equal(*other.Type)
	}
	return false
}

// operandJSON is the wire shape of an operand. Floats travel as bit
// patterns: encoding/json cannot represent NaN or infinity as numbers, and
// the model guarantees bit-level fidelity either way.
type operandJSON struct {
	Kind    string       `json:"Kind"`
	Value   *json.Number `json:"Value,omitempty"`
	Bits    *uint64      `json:"Bits,omitempty"`
	Str     *string      `json:"Str,omitempty"`
	Targets []int32      `json:"Targets,omitempty"`
	Type    *ComplexType `json:"Type,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (o Operand) MarshalJSON() ([]byte, error) {
	out := operandJSON{Kind: o.Kind.String()}
	switch o.Kind {
	case OperandNone:
	case OperandInt32:
		n := json.Number(formatInt(int64(o.Int32)))
		out.Value = &n
	case OperandInt64:
		n := json.Number(formatInt(o.Int64))
		out.Value = &n
	case OperandFloat32:
		b := uint64(math.Float32bits(o.Float32))
		out.Bits = &b
	case OperandFloat64:
		b := math.Float64bits(o.Float64)
		out.Bits = &b
	case OperandString:
		s := o.Str
		out.Str = &s
	case OperandSwitch:
		out.Targets = o.Targets
		if out.Targets == nil {
			out.Targets = []int32{}
		}
	case OperandType:
		out.Type = o.Type
	default:
		return nil, errInvariantf("unknown operand kind %d", o.Kind)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Operand) UnmarshalJSON(data []byte) error {
	var in operandJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return wrapInvalidData("decoding operand", err)
	}
	kind, ok := operandKindsByName[in.Kind]
	if !ok {
		return errInvalidDataf("unknown operand kind %q", in.Kind)
	}
	out := Operand{Kind: kind}
	switch kind {
	case OperandNone:
	case OperandInt32:
		v, err := numberInt(in.Value, 32)
		if err != nil {
			return err
		}
		out.Int32 = int32(v)
	case OperandInt64:
		v, err := numberInt(in.Value, 64)
		if err != nil {
			return err
		}
		out.Int64 = v
	case OperandFloat32:
		if in.Bits == nil {
			return errInvalidDataf("r4 operand missing Bits")
		}
		if *in.Bits > math.MaxUint32 {
			return errInvalidDataf("r4 operand bits out of range")
		}
		out.Float32 = math.Float32frombits(uint32(*in.Bits))
	case OperandFloat64:
		if in.Bits == nil {
			return errInvalidDataf("r8 operand missing Bits")
		}
		out.Float64 = math.Float64frombits(*in.Bits)
	case OperandString:
		if in.Str == nil {
			return errInvalidDataf("string operand missing Str")
		}
		out.Str = *in.Str
	case OperandSwitch:
		out.Targets = in.Targets
		if out.Targets == nil {
			out.Targets = []int32{}
		}
	case OperandType:
		if in.Type == nil {
			return errInvalidDataf("type operand missing Type")
		}
		out.Type = in.Type
	}
	*o = out
	return nil
}

func numberInt(n *json.Number, bits int) (int64, error) {
	if n == nil {
		return 0, errInvalidDataf("integer operand missing Value")
	}
	v, err := n.Int64()
	if err != nil {
		return 0, wrapInvalidData("parsing integer operand", err)
	}
	if bits == 32 && (v < math.MinInt32 || v > math.MaxInt32) {
		return 0, errInvalidDataf("operand %d out of 32-bit range", v)
	}
	return v, nil
}

// Instruction is one CIL instruction: an opcode name plus operand.
type Instruction struct {
	OpCode  string  `json:"OpCode"`
	Operand Operand `json:"Operand,omitempty"`
}

// Equal reports structural equality of two instructions.
func (i Instruction) Equal(o Instruction) bool {
	return i.OpCode == o.OpCode && i.Operand.Equal(o.Operand)
}

// HandlerKind classifies an exception handler clause.
type HandlerKind uint8

const (
	HandlerCatch HandlerKind = iota
	HandlerFilter
	HandlerFinally
	HandlerFault
)

// NoIndex is the sentinel for an absent instruction index in an exception
// handler clause.
const NoIndex int32 = -1

// ExceptionHandler is one protected region. All positions are instruction
// indices; NoIndex marks an absent boundary.
type ExceptionHandler struct {
	Kind         HandlerKind  `json:"Kind"`
	TryStart     int32        `json:"TryStart"`
	TryEnd       int32        `json:"TryEnd"`
	FilterStart  int32        `json:"FilterStart"`
	HandlerStart int32        `json:"HandlerStart"`
	HandlerEnd   int32        `json:"HandlerEnd"`
	CatchType    *ComplexType `json:"CatchType,omitempty"`
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
