package metadata

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Binary snapshot of a container. Unlike the JSON facade, the snapshot
// stores each section as an explicit token/entry pair list, so enumeration
// order never depends on map behavior. Canonical encoding keeps snapshots
// byte-deterministic for identical containers.

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("metadata: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type snapshot struct {
	Options Options          `cbor:"Options"`
	Types   []typeSnapshot   `cbor:"Types"`
	Fields  []fieldSnapshot  `cbor:"Fields"`
	Methods []methodSnapshot `cbor:"Methods"`
}

type typeSnapshot struct {
	Token Token    `cbor:"Token"`
	Level Level    `cbor:"Level"`
	Ref   *Type    `cbor:"Ref,omitempty"`
	Def   *TypeDef `cbor:"Def,omitempty"`
}

type fieldSnapshot struct {
	Token Token     `cbor:"Token"`
	Level Level     `cbor:"Level"`
	Ref   *Field    `cbor:"Ref,omitempty"`
	Def   *FieldDef `cbor:"Def,omitempty"`
}

type methodSnapshot struct {
	Token Token      `cbor:"Token"`
	Level Level      `cbor:"Level"`
	Ref   *Method    `cbor:"Ref,omitempty"`
	Def   *MethodDef `cbor:"Def,omitempty"`
}

// MarshalCBOR encodes the token as a text string (named) or integer.
func (t Token) MarshalCBOR() ([]byte, error) {
	if t.named {
		return cborEncMode.Marshal(t.name)
	}
	return cborEncMode.Marshal(t.index)
}

// UnmarshalCBOR decodes a token from its integer or string form.
func (t *Token) UnmarshalCBOR(data []byte) error {
	var v interface{}
	if err := cbor.Unmarshal(data, &v); err != nil {
		return wrapInvalidData("decoding token", err)
	}
	switch val := v.(type) {
	case uint64:
		*t = IndexedToken(int32(val))
	case int64:
		*t = IndexedToken(int32(val))
	case string:
		tok, err := NamedToken(val)
		if err != nil {
			return errInvalidDataf("invalid token name %q", val)
		}
		*t = tok
	default:
		return errInvalidDataf("token is neither an integer nor a string")
	}
	return nil
}

// MarshalCBOR encodes the tree as its compact string form.
func (c ComplexType) MarshalCBOR() ([]byte, error) {
	s, err := Format(c)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(s)
}

// UnmarshalCBOR decodes a tree from its compact string form.
func (c *ComplexType) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return wrapInvalidData("decoding complex type", err)
	}
	ct, err := Parse(s)
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// operandCBOR is the snapshot shape of an instruction operand. Floats are
// stored as bit patterns: canonical CBOR rewrites NaN values, and operands
// must keep their exact bits.
type operandCBOR struct {
	Kind    uint8        `cbor:"Kind"`
	Value   int64        `cbor:"Value,omitempty"`
	Bits    uint64       `cbor:"Bits,omitempty"`
	Str     string       `cbor:"Str,omitempty"`
	Targets []int32      `cbor:"Targets,omitempty"`
	Type    *ComplexType `cbor:"Type,omitempty"`
}

// MarshalCBOR implements cbor.Marshaler.
func (o Operand) MarshalCBOR() ([]byte, error) {
	out := operandCBOR{Kind: uint8(o.Kind)}
	switch o.Kind {
	case OperandNone:
	case OperandInt32:
		out.Value = int64(o.Int32)
	case OperandInt64:
		out.Value = o.Int64
	case OperandFloat32:
		out.Bits = uint64(math.Float32bits(o.Float32))
	case OperandFloat64:
		out.Bits = math.Float64bits(o.Float64)
	case OperandString:
		out.Str = o.Str
	case OperandSwitch:
		out.Targets = o.Targets
	case OperandType:
		out.Type = o.Type
	default:
		return nil, errInvariantf("unknown operand kind %d", o.Kind)
	}
	return cborEncMode.Marshal(&out)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (o *Operand) UnmarshalCBOR(data []byte) error {
	var in operandCBOR
	if err := cbor.Unmarshal(data, &in); err != nil {
		return wrapInvalidData("decoding operand", err)
	}
	out := Operand{Kind: OperandKind(in.Kind)}
	switch out.Kind {
	case OperandNone:
	case OperandInt32:
		if in.Value < math.MinInt32 || in.Value > math.MaxInt32 {
			return errInvalidDataf("operand %d out of 32-bit range", in.Value)
		}
		out.Int32 = int32(in.Value)
	case OperandInt64:
		out.Int64 = in.Value
	case OperandFloat32:
		if in.Bits > math.MaxUint32 {
			return errInvalidDataf("r4 operand bits out of range")
		}
		out.Float32 = math.Float32frombits(uint32(in.Bits))
	case OperandFloat64:
		out.Float64 = math.Float64frombits(in.Bits)
	case OperandString:
		out.Str = in.Str
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
	default:
		return errInvalidDataf("unknown operand kind %d", in.Kind)
	}
	*o = out
	return nil
}

// EncodeSnapshot serializes the container to CBOR bytes.
func (m *Metadata) EncodeSnapshot() ([]byte, error) {
	snap := snapshot{Options: m.opts}
	for _, tok := range m.TypeTokens() {
		entry, err := m.Type(tok)
		if err != nil {
			return nil, err
		}
		snap.Types = append(snap.Types, typeSnapshot{
			Token: tok, Level: entry.Level, Ref: entry.Ref, Def: entry.Def,
		})
	}
	for _, tok := range m.FieldTokens() {
		entry, err := m.Field(tok)
		if err != nil {
			return nil, err
		}
		snap.Fields = append(snap.Fields, fieldSnapshot{
			Token: tok, Level: entry.Level, Ref: entry.Ref, Def: entry.Def,
		})
	}
	for _, tok := range m.MethodTokens() {
		entry, err := m.Method(tok)
		if err != nil {
			return nil, err
		}
		snap.Methods = append(snap.Methods, methodSnapshot{
			Token: tok, Level: entry.Level, Ref: entry.Ref, Def: entry.Def,
		})
	}
	return cborEncMode.Marshal(&snap)
}

// DecodeSnapshot rebuilds a container from CBOR bytes.
func DecodeSnapshot(data []byte) (*Metadata, error) {
	var snap snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, wrapInvalidData("decoding metadata snapshot", err)
	}
	md := New(snap.Options)
	for _, s := range snap.Types {
		entry := TypeEntry{Level: s.Level, Ref: s.Ref, Def: s.Def}
		if err := validateSnapshotEntry(s.Level, s.Ref == nil, s.Def == nil, true); err != nil {
			return nil, err
		}
		if err := md.types.Add(s.Token, entry); err != nil {
			return nil, wrapInvalidData("loading type snapshot", err)
		}
	}
	for _, s := range snap.Fields {
		if err := validateSnapshotEntry(s.Level, s.Ref == nil, s.Def == nil, false); err != nil {
			return nil, err
		}
		if err := md.fields.Add(s.Token, FieldEntry{Level: s.Level, Ref: s.Ref, Def: s.Def}); err != nil {
			return nil, wrapInvalidData("loading field snapshot", err)
		}
	}
	for _, s := range snap.Methods {
		if err := validateSnapshotEntry(s.Level, s.Ref == nil, s.Def == nil, false); err != nil {
			return nil, err
		}
		if err := md.methods.Add(s.Token, MethodEntry{Level: s.Level, Ref: s.Ref, Def: s.Def}); err != nil {
			return nil, wrapInvalidData("loading method snapshot", err)
		}
	}
	return md, nil
}

func validateSnapshotEntry(level Level, refNil, defNil, isType bool) error {
	switch level {
	case LevelReference:
		if refNil {
			return errInvalidDataf("reference entry missing payload")
		}
	case LevelDefinition:
		if defNil {
			return errInvalidDataf("definition entry missing payload")
		}
	case LevelDefinitionWithChildren:
		if !isType {
			return errInvalidDataf("only types have the with-children level")
		}
		if defNil {
			return errInvalidDataf("definition entry missing payload")
		}
	default:
		return errInvalidDataf("unknown level %d", level)
	}
	return nil
}
