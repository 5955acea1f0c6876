package metadata

// Metadata is the portable container: three independent token-keyed tables
// for types, fields and methods, plus the serialization options fixed at
// construction. The container exclusively owns every entry it holds;
// everything outside refers to entries through tokens.
//
// Construction is single-writer and append-only. A fully built container is
// safe for concurrent readers because nothing mutates it afterwards.
type Metadata struct {
	opts    Options
	types   tokenTable[TypeEntry]
	fields  tokenTable[FieldEntry]
	methods tokenTable[MethodEntry]
}

// New creates an empty container. The options select the table backing
// (dense indexed vs named) and cannot change afterwards.
func New(opts Options) *Metadata {
	if opts.Has(OptionNamedTokens) {
		return &Metadata{
			opts:    opts,
			types:   newNamedTable[TypeEntry](),
			fields:  newNamedTable[FieldEntry](),
			methods: newNamedTable[MethodEntry](),
		}
	}
	return &Metadata{
		opts:    opts,
		types:   &denseTable[TypeEntry]{},
		fields:  &denseTable[FieldEntry]{},
		methods: &denseTable[MethodEntry]{},
	}
}

// Options returns the flags the container was created with.
func (m *Metadata) Options() Options { return m.opts }

// TypeCount returns the number of stored types.
func (m *Metadata) TypeCount() int { return m.types.Len() }

// FieldCount returns the number of stored fields.
func (m *Metadata) FieldCount() int { return m.fields.Len() }

// MethodCount returns the number of stored methods.
func (m *Metadata) MethodCount() int { return m.methods.Len() }

// TypeTokens returns the type tokens in insertion order.
func (m *Metadata) TypeTokens() []Token { return m.types.Tokens() }

// FieldTokens returns the field tokens in insertion order.
func (m *Metadata) FieldTokens() []Token { return m.fields.Tokens() }

// MethodTokens returns the method tokens in insertion order.
func (m *Metadata) MethodTokens() []Token { return m.methods.Tokens() }

// Type returns the entry bound to tok.
func (m *Metadata) Type(tok Token) (TypeEntry, error) {
	e, ok := m.types.Get(tok)
	if !ok {
		return TypeEntry{}, errNotFoundf("type token %s", tok)
	}
	return e, nil
}

// Field returns the entry bound to tok.
func (m *Metadata) Field(tok Token) (FieldEntry, error) {
	e, ok := m.fields.Get(tok)
	if !ok {
		return FieldEntry{}, errNotFoundf("field token %s", tok)
	}
	return e, nil
}

// Method returns the entry bound to tok.
func (m *Metadata) Method(tok Token) (MethodEntry, error) {
	e, ok := m.methods.Get(tok)
	if !ok {
		return MethodEntry{}, errNotFoundf("method token %s", tok)
	}
	return e, nil
}

// tokenTable is the token-keyed mapping behind each entity kind. Two
// implementations exist: a dense slice for sequential indexed tokens, and an
// insertion-ordered map for named tokens. The backing is chosen once at
// container construction and never switched.
type tokenTable[E any] interface {
	Len() int
	Get(tok Token) (E, bool)
	// Add inserts a new entry. Dense tables require tok to be the next
	// sequential index; sparse or out-of-order insertion is an error.
	Add(tok Token, e E) error
	// Replace rebinds an existing token to an upgraded entry.
	Replace(tok Token, e E) error
	// Tokens returns the keys in insertion order.
	Tokens() []Token
}

// denseTable keys entries by sequential index; the slice position is the
// token.
type denseTable[E any] struct {
	items []E
}

func (t *denseTable[E]) Len() int { return len(t.items) }

func (t *denseTable[E]) Get(tok Token) (E, bool) {
	var zero E
	if tok.IsNamed() || tok.Index() < 0 || int(tok.Index()) >= len(t.items) {
		return zero, false
	}
	return t.items[tok.Index()], true
}

func (t *denseTable[E]) Add(tok Token, e E) error {
	if tok.IsNamed() {
		return errInvalidArgumentf("named token %s in indexed table", tok)
	}
	if int(tok.Index()) != len(t.items) {
		return errInvalidArgumentf("token %s breaks dense insertion order (next is %d)", tok, len(t.items))
	}
	t.items = append(t.items, e)
	return nil
}

func (t *denseTable[E]) Replace(tok Token, e E) error {
	if tok.IsNamed() || tok.Index() < 0 || int(tok.Index()) >= len(t.items) {
		return errNotFoundf("token %s", tok)
	}
	t.items[tok.Index()] = e
	return nil
}

func (t *denseTable[E]) Tokens() []Token {
	out := make([]Token, len(t.items))
	for i := range t.items {
		out[i] = IndexedToken(int32(i))
	}
	return out
}

// namedTable keys entries by token string. A separate key slice keeps
// enumeration in insertion order; Go maps do not preserve it.
type namedTable[E any] struct {
	keys []Token
	vals map[string]E
}

func newNamedTable[E any]() *namedTable[E] {
	return &namedTable[E]{vals: make(map[string]E)}
}

func (t *namedTable[E]) Len() int { return len(t.keys) }

func (t *namedTable[E]) Get(tok Token) (E, bool) {
	e, ok := t.vals[tok.String()]
	return e, ok
}

func (t *namedTable[E]) Add(tok Token, e E) error {
	key := tok.String()
	if _, ok := t.vals[key]; ok {
		return errInvalidArgumentf("token %s already present", tok)
	}
	t.keys = append(t.keys, tok)
	t.vals[key] = e
	return nil
}

func (t *namedTable[E]) Replace(tok Token, e E) error {
	key := tok.String()
	if _, ok := t.vals[key]; !ok {
		return errNotFoundf("token %s", tok)
	}
	t.vals[key] = e
	return nil
}

func (t *namedTable[E]) Tokens() []Token {
	out := make([]Token, len(t.keys))
	copy(out, t.keys)
	return out
}
