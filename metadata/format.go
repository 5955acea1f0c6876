package metadata

import (
	"strconv"
	"strings"
)

// Format renders a ComplexType in the compact textual grammar. The output
// re-parses to a structurally equal tree. Formatting fails with an invariant
// violation if the tree holds an empty non-nil argument list or an unknown
// code, and never emits empty parentheses.
func Format(c ComplexType) (string, error) {
	var b strings.Builder
	if err := formatInto(&b, c); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatInto(b *strings.Builder, c ComplexType) error {
	if c.Args != nil && len(c.Args) == 0 {
		return errInvariantf("%s node with empty non-nil argument list", c.Kind)
	}
	switch c.Kind {
	case KindToken:
		b.WriteString(c.Token.String())
		return nil
	case KindInt32:
		b.WriteString("Int32(")
		b.WriteString(strconv.FormatInt(int64(c.Token.index), 10))
		b.WriteByte(')')
		return nil
	case KindTypeSig:
		name, ok := elementTypeNames[ElementType(c.Code)]
		if !ok {
			return errInvariantf("unknown element type 0x%02x", c.Code)
		}
		b.WriteString(name)
		return formatArgs(b, c.Args)
	case KindCallingConventionSig:
		name, ok := callingConventionNames[CallingConvention(c.Code)]
		if !ok {
			return errInvariantf("unknown calling convention 0x%02x", c.Code)
		}
		b.WriteString(name)
		return formatArgs(b, c.Args)
	case KindMethodSpec:
		if len(c.Args) != 2 {
			return errInvariantf("MethodSpec with %d arguments", len(c.Args))
		}
		b.WriteString("MethodSpec")
		return formatArgs(b, c.Args)
	case KindInlineType, KindInlineField, KindInlineMethod:
		if len(c.Args) != 1 {
			return errInvariantf("%s with %d arguments", c.Kind, len(c.Args))
		}
		b.WriteString(c.Kind.String())
		return formatArgs(b, c.Args)
	}
	return errInvariantf("unknown complex type kind %d", c.Kind)
}

func formatArgs(b *strings.Builder, args []ComplexType) error {
	if len(args) == 0 {
		return nil
	}
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := formatInto(b, a); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}
