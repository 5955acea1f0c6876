package convert

import (
	"fmt"

	"github.com/ilpack/dnmeta/live"
	"github.com/ilpack/dnmeta/metadata"
)

// encodeSig flattens a live type-signature graph into a portable tree.
// Class and ValueType nodes wrap the declaration's token, which is where
// cyclic signature graphs become finite.
func (r *Reader) encodeSig(s *live.TypeSig) (metadata.ComplexType, error) {
	if s == nil {
		return metadata.ComplexType{}, invalidArgument("nil type signature")
	}
	switch s.Kind {
	case live.SigPrimitive:
		code := metadata.ElementType(s.Primitive)
		if !code.IsLeaf() {
			return metadata.ComplexType{}, invalidData(fmt.Sprintf("element type %s is not a primitive", code))
		}
		return metadata.TypeSig(code), nil

	case live.SigClass, live.SigValueType:
		tok, err := r.typeToken(s.Decl)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		code := metadata.ElemClass
		if s.Kind == live.SigValueType {
			code = metadata.ElemValueType
		}
		return metadata.TypeSig(code, metadata.TokenType(tok)), nil

	case live.SigPtr, live.SigByRef, live.SigSZArray, live.SigPinned:
		elem, err := r.encodeSig(s.Elem)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		var code metadata.ElementType
		switch s.Kind {
		case live.SigPtr:
			code = metadata.ElemPtr
		case live.SigByRef:
			code = metadata.ElemByRef
		case live.SigSZArray:
			code = metadata.ElemSZArray
		default:
			code = metadata.ElemPinned
		}
		return metadata.TypeSig(code, elem), nil

	case live.SigArray:
		elem, err := r.encodeSig(s.Elem)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		args := []metadata.ComplexType{
			elem,
			metadata.Int32Type(s.Rank),
			metadata.Int32Type(int32(len(s.Sizes))),
		}
		for _, size := range s.Sizes {
			args = append(args, metadata.Int32Type(size))
		}
		args = append(args, metadata.Int32Type(int32(len(s.LowerBounds))))
		for _, lb := range s.LowerBounds {
			args = append(args, metadata.Int32Type(lb))
		}
		return metadata.TypeSig(metadata.ElemArray, args...), nil

	case live.SigGenericInst:
		base, err := r.encodeSig(s.Elem)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		args := []metadata.ComplexType{base, metadata.Int32Type(int32(len(s.GenArgs)))}
		for _, ga := range s.GenArgs {
			ct, err := r.encodeSig(ga)
			if err != nil {
				return metadata.ComplexType{}, err
			}
			args = append(args, ct)
		}
		return metadata.TypeSig(metadata.ElemGenericInst, args...), nil

	case live.SigVar:
		return metadata.TypeSig(metadata.ElemVar, metadata.Int32Type(s.Index)), nil
	case live.SigMVar:
		return metadata.TypeSig(metadata.ElemMVar, metadata.Int32Type(s.Index)), nil

	case live.SigModReqd, live.SigModOpt:
		mod, err := r.encodeSig(s.Modifier)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		elem, err := r.encodeSig(s.Elem)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		code := metadata.ElemCModReqd
		if s.Kind == live.SigModOpt {
			code = metadata.ElemCModOpt
		}
		return metadata.TypeSig(code, mod, elem), nil

	case live.SigFnPtr:
		sig, err := r.encodeMethodSig(s.Method)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		return metadata.TypeSig(metadata.ElemFnPtr, sig), nil

	case live.SigSentinel:
		return metadata.TypeSig(metadata.ElemSentinel), nil

	case live.SigValueArray:
		elem, err := r.encodeSig(s.Elem)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		return metadata.TypeSig(metadata.ElemValueArray, elem, metadata.Int32Type(s.Index)), nil

	case live.SigModule:
		elem, err := r.encodeSig(s.Elem)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		return metadata.TypeSig(metadata.ElemModule, metadata.Int32Type(s.Index), elem), nil
	}
	return metadata.ComplexType{}, invalidData(fmt.Sprintf("unknown signature kind %d", s.Kind))
}

// encodeMethodSig flattens a live method signature. The two parameter lists
// merge around a single sentinel marker; the sentinel and everything after
// it do not count toward the declared parameter count.
func (r *Reader) encodeMethodSig(s *live.MethodSig) (metadata.ComplexType, error) {
	if s == nil {
		return metadata.ComplexType{}, invalidArgument("nil method signature")
	}
	conv := metadata.CallingConvention(s.CallConv & live.CallConvMask)
	if !conv.HasParamList() {
		return metadata.ComplexType{}, invalidData(fmt.Sprintf("method signature with %s convention", conv))
	}
	flags := s.CallConv &^ live.CallConvMask

	args := []metadata.ComplexType{metadata.Int32Type(int32(flags))}
	if flags&live.CallConvGeneric != 0 {
		args = append(args, metadata.Int32Type(int32(s.GenParamCount)))
	}
	args = append(args, metadata.Int32Type(int32(len(s.Params)+len(s.ParamsAfterSentinel))))
	ret, err := r.encodeSig(s.Return)
	if err != nil {
		return metadata.ComplexType{}, err
	}
	args = append(args, ret)
	for _, p := range s.Params {
		ct, err := r.encodeSig(p)
		if err != nil {
			return metadata.ComplexType{}, err
		}
		args = append(args, ct)
	}
	if len(s.ParamsAfterSentinel) > 0 {
		args = append(args, metadata.TypeSig(metadata.ElemSentinel))
		for _, p := range s.ParamsAfterSentinel {
			ct, err := r.encodeSig(p)
			if err != nil {
				return metadata.ComplexType{}, err
			}
			args = append(args, ct)
		}
	}
	return metadata.CallConvSig(conv, args...), nil
}

// encodeBody flattens a live body: branch and handler boundaries become
// instruction indices, inline declaration operands become tokens.
func (r *Reader) encodeBody(b *live.BodyDecl) (*metadata.MethodBody, error) {
	index := make(map[*live.InstrDecl]int32, len(b.Instructions))
	for i, instr := range b.Instructions {
		index[instr] = int32(i)
	}

	out := &metadata.MethodBody{MaxStack: b.MaxStack, InitLocals: b.InitLocals}
	for _, local := range b.Locals {
		ct, err := r.encodeSig(local)
		if err != nil {
			return nil, err
		}
		out.Locals = append(out.Locals, ct)
	}
	for _, instr := range b.Instructions {
		op, err := r.encodeOperand(instr.Operand, index)
		if err != nil {
			return nil, fmt.Errorf("instruction %s: %w", instr.OpCode, err)
		}
		out.Instructions = append(out.Instructions, metadata.Instruction{OpCode: instr.OpCode, Operand: op})
	}
	for _, h := range b.Handlers {
		eh := metadata.ExceptionHandler{Kind: metadata.HandlerKind(h.Kind)}
		var err error
		if eh.TryStart, err = boundaryIndex(h.TryStart, index); err != nil {
			return nil, err
		}
		if eh.TryEnd, err = boundaryIndex(h.TryEnd, index); err != nil {
			return nil, err
		}
		if eh.FilterStart, err = boundaryIndex(h.FilterStart, index); err != nil {
			return nil, err
		}
		if eh.HandlerStart, err = boundaryIndex(h.HandlerStart, index); err != nil {
			return nil, err
		}
		if eh.HandlerEnd, err = boundaryIndex(h.HandlerEnd, index); err != nil {
			return nil, err
		}
		if h.CatchType != nil {
			ct, err := r.encodeSig(h.CatchType)
			if err != nil {
				return nil, err
			}
			eh.CatchType = &ct
		}
		out.ExceptionHandlers = append(out.ExceptionHandlers, eh)
	}
	return out, nil
}

func (r *Reader) encodeOperand(operand interface{}, index map[*live.InstrDecl]int32) (metadata.Operand, error) {
	switch v := operand.(type) {
	case nil:
		return metadata.Operand{}, nil
	case int32:
		return metadata.Int32Operand(v), nil
	case int64:
		return metadata.Int64Operand(v), nil
	case float32:
		return metadata.Float32Operand(v), nil
	case float64:
		return metadata.Float64Operand(v), nil
	case string:
		return metadata.StringOperand(v), nil
	case *live.InstrDecl:
		idx, ok := index[v]
		if !ok {
			return metadata.Operand{}, invalidData("branch target outside method body")
		}
		return metadata.Int32Operand(idx), nil
	case []*live.InstrDecl:
		targets := make([]int32, len(v))
		for i, t := range v {
			idx, ok := index[t]
			if !ok {
				return metadata.Operand{}, invalidData("switch target outside method body")
			}
			targets[i] = idx
		}
		return metadata.SwitchOperand(targets), nil
	case *live.TypeSig:
		ct, err := r.encodeSig(v)
		if err != nil {
			return metadata.Operand{}, err
		}
		return metadata.TypeOperand(metadata.InlineTypeOperand(ct)), nil
	case *live.TypeDecl:
		tok, err := r.typeToken(v)
		if err != nil {
			return metadata.Operand{}, err
		}
		return metadata.TypeOperand(metadata.InlineTypeOperand(metadata.TokenType(tok))), nil
	case *live.FieldDecl:
		tok, err := r.fieldToken(v)
		if err != nil {
			return metadata.Operand{}, err
		}
		return metadata.TypeOperand(metadata.InlineFieldOperand(metadata.TokenType(tok))), nil
	case *live.MethodDecl:
		tok, err := r.methodToken(v)
		if err != nil {
			return metadata.Operand{}, err
		}
		return metadata.TypeOperand(metadata.InlineMethodOperand(metadata.TokenType(tok))), nil
	}
	return metadata.Operand{}, unsupported(fmt.Sprintf("operand of type %T", operand))
}

func boundaryIndex(instr *live.InstrDecl, index map[*live.InstrDecl]int32) (int32, error) {
	if instr == nil {
		return metadata.NoIndex, nil
	}
	idx, ok := index[instr]
	if !ok {
		return 0, invalidData("handler boundary outside method body")
	}
	return idx, nil
}
