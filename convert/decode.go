package convert

import (
	"fmt"

	"github.com/ilpack/dnmeta/live"
	"github.com/ilpack/dnmeta/metadata"
)

func (w *Writer) typeByToken(tok metadata.Token) (*live.TypeDecl, error) {
	if d, ok := w.types[tok.String()]; ok {
		return d, nil
	}
	return nil, invalidData(fmt.Sprintf("type token %s has no entry", tok))
}

func (w *Writer) fieldByToken(tok metadata.Token) (*live.FieldDecl, error) {
	if d, ok := w.fields[tok.String()]; ok {
		return d, nil
	}
	return nil, invalidData(fmt.Sprintf("field token %s has no entry", tok))
}

func (w *Writer) methodByToken(tok metadata.Token) (*live.MethodDecl, error) {
	if d, ok := w.methods[tok.String()]; ok {
		return d, nil
	}
	return nil, invalidData(fmt.Sprintf("method token %s has no entry", tok))
}

// typeFromComplexType resolves a declaring-type node: either a bare token
// or a Class/ValueType node wrapping one.
func (w *Writer) typeFromComplexType(ct metadata.ComplexType) (*live.TypeDecl, error) {
	target := ct
	if ct.Kind == metadata.KindTypeSig && len(ct.Args) == 1 {
		switch ct.ElementType() {
		case metadata.ElemClass, metadata.ElemValueType:
			target = ct.Args[0]
		}
	}
	if target.Kind != metadata.KindToken {
		return nil, unsupported(fmt.Sprintf("declaring type %s is not token-shaped", ct))
	}
	return w.typeByToken(target.Token)
}

// methodFromComplexType resolves a method node. Instantiated generic
// methods (MethodSpec) have no live counterpart here.
func (w *Writer) methodFromComplexType(ct metadata.ComplexType) (*live.MethodDecl, error) {
	if ct.Kind != metadata.KindToken {
		return nil, unsupported(fmt.Sprintf("method reference %s is not token-shaped", ct))
	}
	return w.methodByToken(ct.Token)
}

// decodeFieldSig unwraps the Field calling-convention envelope around a
// field's type.
func (w *Writer) decodeFieldSig(ct metadata.ComplexType) (*live.TypeSig, error) {
	if ct.Kind != metadata.KindCallingConventionSig || ct.CallingConvention() != metadata.CCField {
		return nil, invalidData(fmt.Sprintf("field signature %s is not a Field signature", ct))
	}
	if len(ct.Args) != 2 {
		return nil, invalidData("Field signature must have flags and a type")
	}
	return w.decodeSig(ct.Args[1])
}

// decodeSig rebuilds a live signature graph from a portable tree. The
// parser validates shape for trees that came through the grammar; trees
// built programmatically get the same checks here.
func (w *Writer) decodeSig(ct metadata.ComplexType) (*live.TypeSig, error) {
	switch ct.Kind {
	case metadata.KindToken:
		decl, err := w.typeByToken(ct.Token)
		if err != nil {
			return nil, err
		}
		return live.ClassSig(decl), nil

	case metadata.KindTypeSig:
		return w.decodeTypeSigNode(ct)

	case metadata.KindCallingConventionSig:
		return nil, invalidData(fmt.Sprintf("calling-convention signature %s where a type was expected", ct))
	}
	return nil, invalidData(fmt.Sprintf("%s node where a type was expected", ct.Kind))
}

func (w *Writer) decodeTypeSigNode(ct metadata.ComplexType) (*live.TypeSig, error) {
	code := ct.ElementType()
	if code.IsLeaf() {
		if len(ct.Args) != 0 {
			return nil, invalidData(fmt.Sprintf("%s takes no arguments", code))
		}
		if code == metadata.ElemSentinel {
			return live.SentinelSig(), nil
		}
		return live.PrimitiveSig(byte(code)), nil
	}

	switch code {
	case metadata.ElemClass, metadata.ElemValueType:
		if len(ct.Args) != 1 {
			return nil, invalidData(fmt.Sprintf("%s takes exactly one argument", code))
		}
		if ct.Args[0].Kind != metadata.KindToken {
			return nil, unsupported(fmt.Sprintf("%s node does not wrap a token", code))
		}
		decl, err := w.typeByToken(ct.Args[0].Token)
		if err != nil {
			return nil, err
		}
		if code == metadata.ElemValueType {
			return live.ValueTypeSig(decl), nil
		}
		return live.ClassSig(decl), nil

	case metadata.ElemPtr, metadata.ElemByRef, metadata.ElemSZArray, metadata.ElemPinned:
		if len(ct.Args) != 1 {
			return nil, invalidData(fmt.Sprintf("%s takes exactly one argument", code))
		}
		elem, err := w.decodeSig(ct.Args[0])
		if err != nil {
			return nil, err
		}
		switch code {
		case metadata.ElemPtr:
			return live.PtrSig(elem), nil
		case metadata.ElemByRef:
			return live.ByRefSig(elem), nil
		case metadata.ElemSZArray:
			return live.SZArraySig(elem), nil
		default:
			return live.PinnedSig(elem), nil
		}

	case metadata.ElemVar, metadata.ElemMVar:
		if len(ct.Args) != 1 {
			return nil, invalidData(fmt.Sprintf("%s takes exactly one argument", code))
		}
		n, err := intArg(ct.Args[0])
		if err != nil {
			return nil, err
		}
		if code == metadata.ElemVar {
			return live.VarSig(n), nil
		}
		return live.MVarSig(n), nil

	case metadata.ElemArray:
		return w.decodeArraySig(ct)

	case metadata.ElemGenericInst:
		if len(ct.Args) < 2 {
			return nil, invalidData("GenericInst needs a base type and an argument count")
		}
		base, err := w.decodeSig(ct.Args[0])
		if err != nil {
			return nil, err
		}
		n, err := intArg(ct.Args[1])
		if err != nil {
			return nil, err
		}
		if int(n) != len(ct.Args)-2 || n < 1 {
			return nil, invalidData(fmt.Sprintf("GenericInst declares %d arguments but has %d", n, len(ct.Args)-2))
		}
		args := make([]*live.TypeSig, 0, n)
		for _, a := range ct.Args[2:] {
			s, err := w.decodeSig(a)
			if err != nil {
				return nil, err
			}
			args = append(args, s)
		}
		return live.GenericInstSig(base, args...), nil

	case metadata.ElemCModReqd, metadata.ElemCModOpt:
		if len(ct.Args) != 2 {
			return nil, invalidData(fmt.Sprintf("%s takes a modifier and a type", code))
		}
		mod, err := w.decodeSig(ct.Args[0])
		if err != nil {
			return nil, err
		}
		elem, err := w.decodeSig(ct.Args[1])
		if err != nil {
			return nil, err
		}
		if code == metadata.ElemCModReqd {
			return live.ModReqdSig(mod, elem), nil
		}
		return live.ModOptSig(mod, elem), nil

	case metadata.ElemFnPtr:
		if len(ct.Args) != 1 {
			return nil, invalidData("FnPtr takes exactly one argument")
		}
		sig, err := w.decodeMethodSig(ct.Args[0])
		if err != nil {
			return nil, err
		}
		return live.FnPtrSig(sig), nil

	case metadata.ElemValueArray:
		if len(ct.Args) != 2 {
			return nil, invalidData("ValueArray takes a type and a size")
		}
		elem, err := w.decodeSig(ct.Args[0])
		if err != nil {
			return nil, err
		}
		size, err := intArg(ct.Args[1])
		if err != nil {
			return nil, err
		}
		return &live.TypeSig{Kind: live.SigValueArray, Elem: elem, Index: size}, nil

	case metadata.ElemModule:
		if len(ct.Args) != 2 {
			return nil, invalidData("Module takes an index and a type")
		}
		idx, err := intArg(ct.Args[0])
		if err != nil {
			return nil, err
		}
		elem, err := w.decodeSig(ct.Args[1])
		if err != nil {
			return nil, err
		}
		return &live.TypeSig{Kind: live.SigModule, Index: idx, Elem: elem}, nil
	}
	return nil, invalidData(fmt.Sprintf("unknown element type 0x%02x", byte(code)))
}

func (w *Writer) decodeArraySig(ct metadata.ComplexType) (*live.TypeSig, error) {
	if len(ct.Args) < 4 {
		return nil, invalidData("Array needs a type, rank, sizes and lower bounds")
	}
	elem, err := w.decodeSig(ct.Args[0])
	if err != nil {
		return nil, err
	}
	rank, err := intArg(ct.Args[1])
	if err != nil {
		return nil, err
	}
	pos := 2
	numSizes, err := intArg(ct.Args[pos])
	if err != nil {
		return nil, err
	}
	pos++
	if numSizes < 0 || pos+int(numSizes) >= len(ct.Args) {
		return nil, invalidData("Array size count out of range")
	}
	sizes := make([]int32, 0, numSizes)
	for i := 0; i < int(numSizes); i++ {
		v, err := intArg(ct.Args[pos])
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, v)
		pos++
	}
	numLB, err := intArg(ct.Args[pos])
	if err != nil {
		return nil, err
	}
	pos++
	if numLB < 0 || pos+int(numLB) != len(ct.Args) {
		return nil, invalidData("Array lower-bound count out of range")
	}
	lbs := make([]int32, 0, numLB)
	for i := 0; i < int(numLB); i++ {
		v, err := intArg(ct.Args[pos])
		if err != nil {
			return nil, err
		}
		lbs = append(lbs, v)
		pos++
	}
	return live.ArraySig(elem, rank, sizes, lbs), nil
}

// decodeMethodSig rebuilds a live method signature, splitting the wire
// parameter list at the sentinel marker.
func (w *Writer) decodeMethodSig(ct metadata.ComplexType) (*live.MethodSig, error) {
	if ct.Kind != metadata.KindCallingConventionSig {
		return nil, invalidData(fmt.Sprintf("%s where a method signature was expected", ct))
	}
	conv := ct.CallingConvention()
	if !conv.HasParamList() {
		return nil, invalidData(fmt.Sprintf("method signature with %s convention", conv))
	}
	if len(ct.Args) < 3 {
		return nil, invalidData("method signature needs flags, a parameter count and a return type")
	}
	flags, err := intArg(ct.Args[0])
	if err != nil {
		return nil, err
	}
	sig := &live.MethodSig{CallConv: byte(conv) | byte(flags)}
	pos := 1
	if byte(flags)&metadata.CCFlagGeneric != 0 {
		gpc, err := intArg(ct.Args[pos])
		if err != nil {
			return nil, err
		}
		sig.GenParamCount = uint32(gpc)
		pos++
	}
	if pos+1 >= len(ct.Args) {
		return nil, invalidData("method signature missing return type")
	}
	paramCount, err := intArg(ct.Args[pos])
	if err != nil {
		return nil, err
	}
	pos++
	if sig.Return, err = w.decodeSig(ct.Args[pos]); err != nil {
		return nil, err
	}
	pos++
	afterSentinel := false
	for ; pos < len(ct.Args); pos++ {
		if ct.Args[pos].IsSentinel() {
			if afterSentinel {
				return nil, invalidData("second sentinel in method signature")
			}
			afterSentinel = true
			continue
		}
		p, err := w.decodeSig(ct.Args[pos])
		if err != nil {
			return nil, err
		}
		if afterSentinel {
			sig.ParamsAfterSentinel = append(sig.ParamsAfterSentinel, p)
		} else {
			sig.Params = append(sig.Params, p)
		}
	}
	if got := len(sig.Params) + len(sig.ParamsAfterSentinel); int(paramCount) != got {
		return nil, invalidData(fmt.Sprintf("method signature declares %d parameters but has %d", paramCount, got))
	}
	return sig, nil
}

// decodeBody rebuilds a live body. Instructions are created in a first
// pass so branch operands can point forward.
func (w *Writer) decodeBody(body *metadata.MethodBody) (*live.BodyDecl, error) {
	out := &live.BodyDecl{MaxStack: body.MaxStack, InitLocals: body.InitLocals}
	for _, local := range body.Locals {
		s, err := w.decodeSig(local)
		if err != nil {
			return nil, err
		}
		out.Locals = append(out.Locals, s)
	}
	instrs := make([]*live.InstrDecl, len(body.Instructions))
	for i, instr := range body.Instructions {
		instrs[i] = &live.InstrDecl{OpCode: instr.OpCode}
	}
	for i, instr := range body.Instructions {
		operand, err := w.decodeOperand(instr, instrs)
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", i, instr.OpCode, err)
		}
		instrs[i].Operand = operand
	}
	out.Instructions = instrs
	for _, h := range body.ExceptionHandlers {
		hd := &live.HandlerDecl{Kind: uint8(h.Kind)}
		var err error
		if hd.TryStart, err = instrAt(h.TryStart, instrs); err != nil {
			return nil, err
		}
		if hd.TryEnd, err = instrAt(h.TryEnd, instrs); err != nil {
			return nil, err
		}
		if hd.FilterStart, err = instrAt(h.FilterStart, instrs); err != nil {
			return nil, err
		}
		if hd.HandlerStart, err = instrAt(h.HandlerStart, instrs); err != nil {
			return nil, err
		}
		if hd.HandlerEnd, err = instrAt(h.HandlerEnd, instrs); err != nil {
			return nil, err
		}
		if h.CatchType != nil {
			if hd.CatchType, err = w.decodeSig(*h.CatchType); err != nil {
				return nil, err
			}
		}
		out.Handlers = append(out.Handlers, hd)
	}
	return out, nil
}

func (w *Writer) decodeOperand(instr metadata.Instruction, instrs []*live.InstrDecl) (interface{}, error) {
	op := instr.Operand
	switch op.Kind {
	case metadata.OperandNone:
		return nil, nil
	case metadata.OperandInt32:
		if isBranch(instr.OpCode) {
			target, err := instrAt(op.Int32, instrs)
			if err != nil {
				return nil, err
			}
			if target == nil {
				return nil, invalidData("branch target index is absent")
			}
			return target, nil
		}
		return op.Int32, nil
	case metadata.OperandInt64:
		return op.Int64, nil
	case metadata.OperandFloat32:
		return op.Float32, nil
	case metadata.OperandFloat64:
		return op.Float64, nil
	case metadata.OperandString:
		return op.Str, nil
	case metadata.OperandSwitch:
		targets := make([]*live.InstrDecl, len(op.Targets))
		for i, idx := range op.Targets {
			t, err := instrAt(idx, instrs)
			if err != nil {
				return nil, err
			}
			if t == nil {
				return nil, invalidData("switch target index is absent")
			}
			targets[i] = t
		}
		return targets, nil
	case metadata.OperandType:
		return w.decodeInlineOperand(op.Type)
	}
	return nil, invalidData(fmt.Sprintf("unknown operand kind %d", op.Kind))
}

// decodeInlineOperand unwraps an inline token operand into the live
// declaration (or type signature) it names.
func (w *Writer) decodeInlineOperand(ct *metadata.ComplexType) (interface{}, error) {
	if ct == nil {
		return nil, invalidData("type operand missing payload")
	}
	if len(ct.Args) != 1 {
		return nil, invalidData(fmt.Sprintf("inline operand %s must wrap one value", ct))
	}
	inner := ct.Args[0]
	switch ct.Kind {
	case metadata.KindInlineType:
		if inner.Kind == metadata.KindToken {
			return w.typeByToken(inner.Token)
		}
		return w.decodeSig(inner)
	case metadata.KindInlineField:
		if inner.Kind != metadata.KindToken {
			return nil, unsupported(fmt.Sprintf("field operand %s is not token-shaped", inner))
		}
		return w.fieldByToken(inner.Token)
	case metadata.KindInlineMethod:
		if inner.Kind != metadata.KindToken {
			return nil, unsupported(fmt.Sprintf("method operand %s is not token-shaped", inner))
		}
		return w.methodByToken(inner.Token)
	}
	return nil, invalidData(fmt.Sprintf("%s is not an inline operand", ct.Kind))
}

func instrAt(idx int32, instrs []*live.InstrDecl) (*live.InstrDecl, error) {
	if idx == metadata.NoIndex {
		return nil, nil
	}
	if idx < 0 || int(idx) >= len(instrs) {
		return nil, invalidData(fmt.Sprintf("instruction index %d out of range", idx))
	}
	return instrs[idx], nil
}

func intArg(ct metadata.ComplexType) (int32, error) {
	if ct.Kind != metadata.KindInt32 {
		return 0, invalidData(fmt.Sprintf("%s where an integer literal was expected", ct))
	}
	return ct.Int32Value()
}
