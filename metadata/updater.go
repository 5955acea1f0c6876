package metadata

import (
	"strconv"
	"strings"
)

// Updater registers entities in a container, deduplicating them by
// structural identity and upgrading stored entries in place as higher
// materialization levels arrive. Every Update call is idempotent: the same
// entity always maps to the same token, and re-registering at an equal or
// lower level mutates nothing.
//
// This two-phase register-then-fill protocol is what keeps cyclic type
// graphs finite: mutually referencing entities obtain tokens at reference
// level first, and their definitions are filled in afterwards.
type Updater struct {
	md *Metadata

	typeKeys   map[string]Token
	fieldKeys  map[string]Token
	methodKeys map[string]Token

	typeNames   map[string]bool
	fieldNames  map[string]bool
	methodNames map[string]bool
}

// NewUpdater creates an updater bound to md. A container should be
// populated by exactly one updater; the identity indexes live here, not in
// the container.
func NewUpdater(md *Metadata) *Updater {
	return &Updater{
		md:          md,
		typeKeys:    make(map[string]Token),
		fieldKeys:   make(map[string]Token),
		methodKeys:  make(map[string]Token),
		typeNames:   make(map[string]bool),
		fieldNames:  make(map[string]bool),
		methodNames: make(map[string]bool),
	}
}

// UpdateTypeRef registers t at reference level. Returns the stable token and
// the level stored before the call.
func (u *Updater) UpdateTypeRef(t *Type) (Token, Level, error) {
	if t == nil {
		return Token{}, 0, errInvalidArgumentf("nil type reference")
	}
	return u.updateType(t, nil, LevelReference)
}

// UpdateTypeDef registers d at LevelDefinition or LevelDefinitionWithChildren.
func (u *Updater) UpdateTypeDef(d *TypeDef, level Level) (Token, Level, error) {
	if d == nil {
		return Token{}, 0, errInvalidArgumentf("nil type definition")
	}
	if level != LevelDefinition && level != LevelDefinitionWithChildren {
		return Token{}, 0, errInvalidArgumentf("type definition level %s", level)
	}
	return u.updateType(&d.Type, d, level)
}

func (u *Updater) updateType(ref *Type, def *TypeDef, level Level) (Token, Level, error) {
	key := typeIdentity(ref)
	if tok, ok := u.typeKeys[key]; ok {
		entry, err := u.md.Type(tok)
		if err != nil {
			return Token{}, 0, err
		}
		old := entry.Level
		if level > old {
			if err := u.md.types.Replace(tok, TypeEntry{Level: level, Def: def}); err != nil {
				return Token{}, 0, err
			}
		}
		return tok, old, nil
	}

	tok, err := u.allocToken(u.md.types.Len(), u.typeNames, ref.QualifiedName())
	if err != nil {
		return Token{}, 0, err
	}
	entry := TypeEntry{Level: level}
	if level == LevelReference {
		entry.Ref = ref
	} else {
		entry.Def = def
	}
	if err := u.md.types.Add(tok, entry); err != nil {
		return Token{}, 0, err
	}
	u.typeKeys[key] = tok
	return tok, level, nil
}

// UpdateFieldRef registers f at reference level.
func (u *Updater) UpdateFieldRef(f *Field) (Token, Level, error) {
	if f == nil {
		return Token{}, 0, errInvalidArgumentf("nil field reference")
	}
	return u.updateField(f, nil, LevelReference)
}

// UpdateFieldDef registers d at definition level. Fields have no
// with-children level.
func (u *Updater) UpdateFieldDef(d *FieldDef) (Token, Level, error) {
	if d == nil {
		return Token{}, 0, errInvalidArgumentf("nil field definition")
	}
	return u.updateField(&d.Field, d, LevelDefinition)
}

func (u *Updater) updateField(ref *Field, def *FieldDef, level Level) (Token, Level, error) {
	key, err := memberIdentity(ref.Name, ref.DeclaringType, ref.Signature)
	if err != nil {
		return Token{}, 0, err
	}
	if tok, ok := u.fieldKeys[key]; ok {
		entry, err := u.md.Field(tok)
		if err != nil {
			return Token{}, 0, err
		}
		old := entry.Level
		if level > old {
			if err := u.md.fields.Replace(tok, FieldEntry{Level: level, Def: def}); err != nil {
				return Token{}, 0, err
			}
		}
		return tok, old, nil
	}

	tok, err := u.allocToken(u.md.fields.Len(), u.fieldNames, u.memberDisplayName(ref.DeclaringType, ref.Name))
	if err != nil {
		return Token{}, 0, err
	}
	entry := FieldEntry{Level: level}
	if level == LevelReference {
		entry.Ref = ref
	} else {
		entry.Def = def
	}
	if err := u.md.fields.Add(tok, entry); err != nil {
		return Token{}, 0, err
	}
	u.fieldKeys[key] = tok
	return tok, level, nil
}

// UpdateMethodRef registers m at reference level.
func (u *Updater) UpdateMethodRef(m *Method) (Token, Level, error) {
	if m == nil {
		return Token{}, 0, errInvalidArgumentf("nil method reference")
	}
	return u.updateMethod(m, nil, LevelReference)
}

// UpdateMethodDef registers d at definition level. Methods have no
// with-children level.
func (u *Updater) UpdateMethodDef(d *MethodDef) (Token, Level, error) {
	if d == nil {
		return Token{}, 0, errInvalidArgumentf("nil method definition")
	}
	return u.updateMethod(&d.Method, d, LevelDefinition)
}

func (u *Updater) updateMethod(ref *Method, def *MethodDef, level Level) (Token, Level, error) {
	key, err := memberIdentity(ref.Name, ref.DeclaringType, ref.Signature)
	if err != nil {
		return Token{}, 0, err
	}
	if tok, ok := u.methodKeys[key]; ok {
		entry, err := u.md.Method(tok)
		if err != nil {
			return Token{}, 0, err
		}
		old := entry.Level
		if level > old {
			if err := u.md.methods.Replace(tok, MethodEntry{Level: level, Def: def}); err != nil {
				return Token{}, 0, err
			}
		}
		return tok, old, nil
	}

	tok, err := u.allocToken(u.md.methods.Len(), u.methodNames, u.memberDisplayName(ref.DeclaringType, ref.Name))
	if err != nil {
		return Token{}, 0, err
	}
	entry := MethodEntry{Level: level}
	if level == LevelReference {
		entry.Ref = ref
	} else {
		entry.Def = def
	}
	if err := u.md.methods.Add(tok, entry); err != nil {
		return Token{}, 0, err
	}
	u.methodKeys[key] = tok
	return tok, level, nil
}

// allocToken produces the next token: the dense index, or a generated name
// derived from the qualified display name with collisions suffixed _2, _3,
// and so on. Name generation is deterministic because the used-name set
// grows in insertion order.
func (u *Updater) allocToken(nextIndex int, used map[string]bool, display string) (Token, error) {
	if !u.md.opts.Has(OptionNamedTokens) {
		return IndexedToken(int32(nextIndex)), nil
	}
	base := sanitizeTokenName(display)
	name := base
	for n := 2; used[name]; n++ {
		name = base + "_" + strconv.Itoa(n)
	}
	used[name] = true
	return NamedToken(name)
}

// memberDisplayName derives the declaring-type-qualified name a member's
// generated token starts from. A token-shaped declaring type resolves to
// the stored type's qualified name; anything else falls back to its compact
// string form, which the sanitizer flattens.
func (u *Updater) memberDisplayName(declaring ComplexType, name string) string {
	return u.declaringDisplayName(declaring) + "::" + name
}

func (u *Updater) declaringDisplayName(declaring ComplexType) string {
	target := declaring
	// Class/ValueType nodes wrap the declaring token when encoded from a
	// live model.
	if target.Kind == KindTypeSig && len(target.Args) == 1 {
		switch ElementType(target.Code) {
		case ElemClass, ElemValueType:
			target = target.Args[0]
		}
	}
	if target.Kind == KindToken {
		if entry, err := u.md.Type(target.Token); err == nil {
			return entry.Reference().QualifiedName()
		}
	}
	return declaring.String()
}

func sanitizeTokenName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if strings.IndexByte(tokenInvalidChars, name[i]) >= 0 {
			b.WriteByte('_')
		} else {
			b.WriteByte(name[i])
		}
	}
	return b.String()
}

// typeIdentity is the structural-identity key of a type reference:
// assembly, namespace, name and the enclosing chain. The NUL separator
// cannot occur in metadata names.
func typeIdentity(t *Type) string {
	parts := make([]string, 0, 3+len(t.EnclosingNames))
	parts = append(parts, t.Assembly, t.Namespace, t.Name)
	parts = append(parts, t.EnclosingNames...)
	return strings.Join(parts, "\x00")
}

// memberIdentity keys a field or method by name, declaring type and
// signature, using the compact grammar as the canonical encoding.
func memberIdentity(name string, declaring, sig ComplexType) (string, error) {
	d, err := Format(declaring)
	if err != nil {
		return "", err
	}
	s, err := Format(sig)
	if err != nil {
		return "", err
	}
	return name + "\x00" + d + "\x00" + s, nil
}
