package metadata

import (
	"strconv"
)

// Parse reconstructs a ComplexType from its compact textual form. Parsing is
// a single left-to-right scan with no backtracking: each comma- or
// paren-delimited word is tested as a token, an element-type name, a
// calling-convention name, or one of the special forms (Int32, MethodSpec,
// InlineType, InlineField, InlineMethod), and the matching argument shape is
// enforced. Malformed input yields an invalid-data error and no partial tree.
func Parse(text string) (ComplexType, error) {
	p := &parser{input: text}
	ct, err := p.parseType()
	if err != nil {
		return ComplexType{}, err
	}
	if p.pos != len(p.input) {
		return ComplexType{}, errInvalidDataf("trailing input at offset %d in %q", p.pos, text)
	}
	return ct, nil
}

type parser struct {
	input string
	pos   int
}

// readWord consumes characters up to the next delimiter. An empty word means
// the input is malformed; the cursor can never silently run past the end.
func (p *parser) readWord() (string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '(', ')', ',':
			goto done
		}
		p.pos++
	}
done:
	if p.pos == start {
		return "", errInvalidDataf("empty token at offset %d", start)
	}
	return p.input[start:p.pos], nil
}

func (p *parser) peek() (byte, bool) {
	if p.pos < len(p.input) {
		return p.input[p.pos], true
	}
	return 0, false
}

func (p *parser) expect(ch byte) error {
	if c, ok := p.peek(); !ok || c != ch {
		return errInvalidDataf("expected %q at offset %d", string(ch), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) parseType() (ComplexType, error) {
	word, err := p.readWord()
	if err != nil {
		return ComplexType{}, err
	}

	// Token syntax first: quoted name or bare integer.
	if word[0] == '\'' {
		if len(word) < 3 || word[len(word)-1] != '\'' {
			return ComplexType{}, errInvalidDataf("malformed named token %q", word)
		}
		tok, err := NamedToken(word[1 : len(word)-1])
		if err != nil {
			return ComplexType{}, errInvalidDataf("invalid token name in %q", word)
		}
		return TokenType(tok), nil
	}
	if isAllDigits(word) {
		n, err := strconv.ParseInt(word, 10, 32)
		if err != nil {
			return ComplexType{}, errInvalidDataf("token index %q out of range", word)
		}
		return TokenType(IndexedToken(int32(n))), nil
	}

	if et, ok := elementTypesByName[word]; ok {
		return p.parseTypeSig(et)
	}
	if cc, ok := callingConventionsByName[word]; ok {
		return p.parseCallConvSig(cc)
	}

	switch word {
	case "Int32":
		return p.parseInt32()
	case "MethodSpec":
		args, err := p.parseArgList()
		if err != nil {
			return ComplexType{}, err
		}
		if len(args) != 2 {
			return ComplexType{}, errInvalidDataf("MethodSpec takes 2 arguments, got %d", len(args))
		}
		return MethodSpecType(args[0], args[1]), nil
	case "InlineType", "InlineField", "InlineMethod":
		args, err := p.parseArgList()
		if err != nil {
			return ComplexType{}, err
		}
		if len(args) != 1 {
			return ComplexType{}, errInvalidDataf("%s takes 1 argument, got %d", word, len(args))
		}
		kind := KindInlineType
		switch word {
		case "InlineField":
			kind = KindInlineField
		case "InlineMethod":
			kind = KindInlineMethod
		}
		return ComplexType{Kind: kind, Args: args}, nil
	}
	return ComplexType{}, errInvalidDataf("unknown type %q at offset %d", word, p.pos)
}

// parseInt32 reads the literal integer argument of an Int32 node. The value
// is read as a raw (possibly negative) integer, not as a nested type.
func (p *parser) parseInt32() (ComplexType, error) {
	if err := p.expect('('); err != nil {
		return ComplexType{}, err
	}
	word, err := p.readWord()
	if err != nil {
		return ComplexType{}, err
	}
	n, err := strconv.ParseInt(word, 10, 32)
	if err != nil {
		return ComplexType{}, errInvalidDataf("invalid Int32 literal %q", word)
	}
	if err := p.expect(')'); err != nil {
		return ComplexType{}, err
	}
	return Int32Type(int32(n)), nil
}

// parseArgList reads '(' Type (',' Type)* ')'.
func (p *parser) parseArgList() ([]ComplexType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var args []ComplexType
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		c, ok := p.peek()
		if !ok {
			return nil, errInvalidDataf("unterminated argument list at offset %d", p.pos)
		}
		p.pos++
		if c == ')' {
			return args, nil
		}
		if c != ',' {
			return nil, errInvalidDataf("expected ',' or ')' at offset %d", p.pos-1)
		}
	}
}

func (p *parser) parseTypeSig(et ElementType) (ComplexType, error) {
	if et.IsLeaf() {
		if c, ok := p.peek(); ok && c == '(' {
			return ComplexType{}, errInvalidDataf("%s takes no arguments", et)
		}
		return TypeSig(et), nil
	}
	args, err := p.parseArgList()
	if err != nil {
		return ComplexType{}, err
	}
	if err := validateTypeSigShape(et, args); err != nil {
		return ComplexType{}, err
	}
	return ComplexType{Kind: KindTypeSig, Code: byte(et), Args: args}, nil
}

func (p *parser) parseCallConvSig(cc CallingConvention) (ComplexType, error) {
	args, err := p.parseArgList()
	if err != nil {
		return ComplexType{}, err
	}
	if err := validateCallConvShape(cc, args); err != nil {
		return ComplexType{}, err
	}
	return ComplexType{Kind: KindCallingConventionSig, Code: byte(cc), Args: args}, nil
}

// validateTypeSigShape enforces the fixed argument arity of each element
// type. The counts embedded as Int32 literals (array sizes, generic argument
// counts) drive the variable-length shapes.
func validateTypeSigShape(et ElementType, args []ComplexType) error {
	argErr := func(want string) error {
		return errInvalidDataf("%s expects %s, got %d arguments", et, want, len(args))
	}
	switch et {
	case ElemPtr, ElemByRef, ElemSZArray, ElemPinned, ElemValueType, ElemClass:
		if len(args) != 1 {
			return argErr("1 argument")
		}
	case ElemFnPtr:
		if len(args) != 1 {
			return argErr("1 argument")
		}
		if args[0].Kind != KindCallingConventionSig {
			return errInvalidDataf("FnPtr argument must be a calling-convention signature")
		}
	case ElemVar, ElemMVar:
		if len(args) != 1 {
			return argErr("1 argument")
		}
		if args[0].Kind != KindInt32 {
			return errInvalidDataf("%s index must be an Int32 literal", et)
		}
	case ElemValueArray:
		if len(args) != 2 {
			return argErr("2 arguments")
		}
		if args[1].Kind != KindInt32 {
			return errInvalidDataf("ValueArray size must be an Int32 literal")
		}
	case ElemCModReqd, ElemCModOpt:
		if len(args) != 2 {
			return argErr("2 arguments")
		}
	case ElemModule:
		if len(args) != 2 {
			return argErr("2 arguments")
		}
		if args[0].Kind != KindInt32 {
			return errInvalidDataf("Module index must be an Int32 literal")
		}
	case ElemGenericInst:
		if len(args) < 2 {
			return argErr("at least 2 arguments")
		}
		n, err := intArg(args[1], "GenericInst argument count")
		if err != nil {
			return err
		}
		if int64(len(args)) != 2+int64(n) || n < 0 {
			return errInvalidDataf("GenericInst declares %d arguments, got %d", n, len(args)-2)
		}
	case ElemArray:
		return validateArrayShape(args)
	default:
		return errInvalidDataf("%s takes no arguments", et)
	}
	return nil
}

// validateArrayShape checks: next, rank, numSizes, numSizes sizes,
// numLowerBounds, numLowerBounds lower bounds.
func validateArrayShape(args []ComplexType) error {
	if len(args) < 3 {
		return errInvalidDataf("Array expects at least 3 arguments, got %d", len(args))
	}
	if _, err := intArg(args[1], "Array rank"); err != nil {
		return err
	}
	numSizes, err := intArg(args[2], "Array size count")
	if err != nil {
		return err
	}
	if numSizes < 0 || int64(len(args)) < 4+int64(numSizes) {
		return errInvalidDataf("Array declares %d sizes but has %d arguments", numSizes, len(args))
	}
	for i := 0; i < int(numSizes); i++ {
		if _, err := intArg(args[3+i], "Array size"); err != nil {
			return err
		}
	}
	lbIndex := 3 + int(numSizes)
	numLB, err := intArg(args[lbIndex], "Array lower-bound count")
	if err != nil {
		return err
	}
	if numLB < 0 || int64(len(args)) != int64(lbIndex)+1+int64(numLB) {
		return errInvalidDataf("Array declares %d lower bounds but has %d arguments", numLB, len(args))
	}
	for i := 0; i < int(numLB); i++ {
		if _, err := intArg(args[lbIndex+1+i], "Array lower bound"); err != nil {
			return err
		}
	}
	return nil
}

// validateCallConvShape enforces the calling-convention shapes. For method
// conventions the Sentinel vararg marker may appear at most once among the
// parameters and does not count toward the declared parameter count.
func validateCallConvShape(cc CallingConvention, args []ComplexType) error {
	if len(args) < 1 {
		return errInvalidDataf("%s expects a flags argument", cc)
	}
	flags, err := intArg(args[0], "calling-convention flags")
	if err != nil {
		return err
	}
	switch cc {
	case CCField:
		if len(args) != 2 {
			return errInvalidDataf("Field signature expects 2 arguments, got %d", len(args))
		}
		return nil
	case CCLocalSig, CCGenericInst:
		if len(args) < 2 {
			return errInvalidDataf("%s expects a count argument", cc)
		}
		n, err := intArg(args[1], "signature count")
		if err != nil {
			return err
		}
		if n < 0 || int64(len(args)) != 2+int64(n) {
			return errInvalidDataf("%s declares %d entries, got %d", cc, n, len(args)-2)
		}
		return nil
	}

	// Method conventions: flags, [genericParamCount], paramCount, return
	// type, parameters.
	i := 1
	if byte(flags)&CCFlagGeneric != 0 {
		if len(args) <= i {
			return errInvalidDataf("%s generic signature missing generic parameter count", cc)
		}
		if _, err := intArg(args[i], "generic parameter count"); err != nil {
			return err
		}
		i++
	}
	if len(args) <= i {
		return errInvalidDataf("%s signature missing parameter count", cc)
	}
	paramCount, err := intArg(args[i], "parameter count")
	if err != nil {
		return err
	}
	i++
	if len(args) <= i {
		return errInvalidDataf("%s signature missing return type", cc)
	}
	i++
	params := args[i:]
	sentinels := 0
	for _, a := range params {
		if a.IsSentinel() {
			sentinels++
		}
	}
	if sentinels > 1 {
		return errInvalidDataf("%s signature has multiple sentinel markers", cc)
	}
	if paramCount < 0 || int64(len(params)-sentinels) != int64(paramCount) {
		return errInvalidDataf("%s declares %d parameters, got %d", cc, paramCount, len(params)-sentinels)
	}
	return nil
}

func intArg(a ComplexType, what string) (int32, error) {
	if a.Kind != KindInt32 {
		return 0, errInvalidDataf("%s must be an Int32 literal, got %s", what, describeArg(a))
	}
	return a.Token.index, nil
}

func describeArg(a ComplexType) string {
	if a.Kind == KindTypeSig {
		return ElementType(a.Code).String()
	}
	return a.Kind.String()
}
