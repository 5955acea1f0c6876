package metadata

import (
	"strconv"
	"strings"
)

// tokenInvalidChars are the characters a named token may not contain. The
// parens and comma collide with the compact grammar's delimiters, '@' is
// reserved, and the single quote is the grammar's name delimiter.
const tokenInvalidChars = "(),@'"

// Token identifies an entity within one metadata container. It is exactly
// one of two disjoint forms: a dense non-negative index assigned in insertion
// order, or a human-readable name used for diffing and patching.
//
// Tokens are immutable value types. Equality is plain ==; ordering places
// every named token before every indexed token, names lexicographically and
// indexes numerically.
type Token struct {
	index int32
	name  string
	named bool
}

// IndexedToken returns the indexed token for a non-negative index.
// A negative index is clamped to zero; indexes are allocated by the Updater
// so callers normally never construct out-of-range values.
func IndexedToken(index int32) Token {
	if index < 0 {
		index = 0
	}
	return Token{index: index}
}

// NamedToken returns a named token. The name must be non-empty and must not
// contain any of ( ) , @ '.
func NamedToken(name string) (Token, error) {
	if name == "" {
		return Token{}, errInvalidArgumentf("token name is empty")
	}
	if strings.ContainsAny(name, tokenInvalidChars) {
		return Token{}, errInvalidArgumentf("token name %q contains a reserved character", name)
	}
	return Token{name: name, named: true}, nil
}

// rawIndexToken bypasses the non-negative check. It backs the Int32 kind of
// ComplexType, which reuses the index slot for a signed literal.
func rawIndexToken(v int32) Token {
	return Token{index: v}
}

// IsNamed reports whether the token is the named form.
func (t Token) IsNamed() bool { return t.named }

// Name returns the token name. Only meaningful for named tokens.
func (t Token) Name() string { return t.name }

// Index returns the token index. Only meaningful for indexed tokens.
func (t Token) Index() int32 { return t.index }

// String returns the canonical textual form: the bare decimal index, or the
// name wrapped in single quotes. The canonical form doubles as the hash key
// for token-keyed maps, so it is consistent with equality by construction.
func (t Token) String() string {
	if t.named {
		return "'" + t.name + "'"
	}
	return strconv.FormatInt(int64(t.index), 10)
}

// Key returns the string used to key this token in serialized documents:
// the bare name for named tokens, the decimal index otherwise.
func (t Token) Key() string {
	if t.named {
		return t.name
	}
	return strconv.FormatInt(int64(t.index), 10)
}

// Compare orders tokens: named before indexed, names lexicographically,
// indexes numerically. Returns -1, 0 or 1.
func (t Token) Compare(o Token) int {
	if t.named != o.named {
		if t.named {
			return -1
		}
		return 1
	}
	if t.named {
		return strings.Compare(t.name, o.name)
	}
	switch {
	case t.index < o.index:
		return -1
	case t.index > o.index:
		return 1
	}
	return 0
}

// parseTokenKey reconstructs a token from its Key form: all-digit strings
// become indexed tokens, everything else is a name.
func parseTokenKey(key string) (Token, error) {
	if key == "" {
		return Token{}, errInvalidDataf("empty token key")
	}
	if isAllDigits(key) {
		n, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return Token{}, errInvalidDataf("token index %q out of range", key)
		}
		return IndexedToken(int32(n)), nil
	}
	tok, err := NamedToken(key)
	if err != nil {
		return Token{}, errInvalidDataf("invalid token name %q", key)
	}
	return tok, nil
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
