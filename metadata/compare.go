package metadata

import "bytes"

// Comparer implements structural equality over entities, containers and
// their parts. Reference mode compares only the identity fields — the same
// notion of identity the Updater deduplicates by. Full mode additionally
// compares definition payloads, bodies and children.
type Comparer struct {
	Full bool
}

// TypesEqual compares two stored type entries.
func (c Comparer) TypesEqual(a, b TypeEntry) bool {
	if !typeRefsEqual(a.Reference(), b.Reference()) {
		return false
	}
	if !c.Full {
		return true
	}
	if a.Level != b.Level {
		return false
	}
	if a.Level == LevelReference {
		return true
	}
	return c.typeDefsEqual(a.Def, b.Def)
}

func typeRefsEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.Namespace != b.Namespace || a.Assembly != b.Assembly {
		return false
	}
	return stringsEqual(a.EnclosingNames, b.EnclosingNames)
}

func (c Comparer) typeDefsEqual(a, b *TypeDef) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Attributes != b.Attributes {
		return false
	}
	if !complexTypePtrsEqual(a.BaseType, b.BaseType) {
		return false
	}
	if !complexTypesEqual(a.Interfaces, b.Interfaces) {
		return false
	}
	if !layoutsEqual(a.Layout, b.Layout) {
		return false
	}
	if !genericParamsEqual(a.GenericParams, b.GenericParams) {
		return false
	}
	if !customAttributesEqual(a.CustomAttributes, b.CustomAttributes) {
		return false
	}
	if !tokensEqual(a.NestedTypes, b.NestedTypes) ||
		!tokensEqual(a.Fields, b.Fields) ||
		!tokensEqual(a.Methods, b.Methods) {
		return false
	}
	return propertiesEqual(a.Properties, b.Properties) && eventsEqual(a.Events, b.Events)
}

// FieldsEqual compares two stored field entries.
func (c Comparer) FieldsEqual(a, b FieldEntry) bool {
	if !memberRefsEqual(a.Reference().Name, b.Reference().Name,
		a.Reference().DeclaringType, b.Reference().DeclaringType,
		a.Reference().Signature, b.Reference().Signature) {
		return false
	}
	if !c.Full {
		return true
	}
	if a.Level != b.Level {
		return false
	}
	if a.Level == LevelReference {
		return true
	}
	da, db := a.Def, b.Def
	if da.Attributes != db.Attributes {
		return false
	}
	if !bytes.Equal(da.InitialValue, db.InitialValue) {
		return false
	}
	if !constantsEqual(da.Constant, db.Constant) {
		return false
	}
	return customAttributesEqual(da.CustomAttributes, db.CustomAttributes)
}

// MethodsEqual compares two stored method entries.
func (c Comparer) MethodsEqual(a, b MethodEntry) bool {
	if !memberRefsEqual(a.Reference().Name, b.Reference().Name,
		a.Reference().DeclaringType, b.Reference().DeclaringType,
		a.Reference().Signature, b.Reference().Signature) {
		return false
	}
	if !c.Full {
		return true
	}
	if a.Level != b.Level {
		return false
	}
	if a.Level == LevelReference {
		return true
	}
	da, db := a.Def, b.Def
	if da.Attributes != db.Attributes || da.ImplAttributes != db.ImplAttributes {
		return false
	}
	if !paramsEqual(da.Params, db.Params) {
		return false
	}
	if !bodiesEqual(da.Body, db.Body) {
		return false
	}
	if !overridesEqual(da.Overrides, db.Overrides) {
		return false
	}
	if !pinvokesEqual(da.PInvoke, db.PInvoke) {
		return false
	}
	if !genericParamsEqual(da.GenericParams, db.GenericParams) {
		return false
	}
	return customAttributesEqual(da.CustomAttributes, db.CustomAttributes)
}

// ContainersEqual compares two containers: options, token sequences and
// every entry in enumeration order.
func (c Comparer) ContainersEqual(a, b *Metadata) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.opts != b.opts {
		return false
	}
	ta, tb := a.TypeTokens(), b.TypeTokens()
	fa, fb := a.FieldTokens(), b.FieldTokens()
	ma, mb := a.MethodTokens(), b.MethodTokens()
	if !tokensEqual(ta, tb) || !tokensEqual(fa, fb) || !tokensEqual(ma, mb) {
		return false
	}
	for _, tok := range ta {
		ea, _ := a.Type(tok)
		eb, _ := b.Type(tok)
		if !c.TypesEqual(ea, eb) {
			return false
		}
	}
	for _, tok := range fa {
		ea, _ := a.Field(tok)
		eb, _ := b.Field(tok)
		if !c.FieldsEqual(ea, eb) {
			return false
		}
	}
	for _, tok := range ma {
		ea, _ := a.Method(tok)
		eb, _ := b.Method(tok)
		if !c.MethodsEqual(ea, eb) {
			return false
		}
	}
	return true
}

func memberRefsEqual(nameA, nameB string, declA, declB, sigA, sigB ComplexType) bool {
	return nameA == nameB && declA.Equal(declB) && sigA.Equal(sigB)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tokensEqual(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func complexTypesEqual(a, b []ComplexType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func complexTypePtrsEqual(a, b *ComplexType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func tokenPtrsEqual(a, b *Token) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func layoutsEqual(a, b *ClassLayout) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func constantsEqual(a, b *Constant) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func pinvokesEqual(a, b *PInvokeMap) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func genericParamsEqual(a, b []GenericParam) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Number != b[i].Number || a[i].Attributes != b[i].Attributes || a[i].Name != b[i].Name {
			return false
		}
		if !complexTypesEqual(a[i].Constraints, b[i].Constraints) {
			return false
		}
	}
	return true
}

func customAttributesEqual(a, b []CustomAttribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Constructor.Equal(b[i].Constructor) || !bytes.Equal(a[i].Blob, b[i].Blob) {
			return false
		}
	}
	return true
}

func paramsEqual(a, b []Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Sequence != b[i].Sequence || a[i].Attributes != b[i].Attributes || a[i].Name != b[i].Name {
			return false
		}
		if !constantsEqual(a[i].Constant, b[i].Constant) {
			return false
		}
	}
	return true
}

func overridesEqual(a, b []MethodOverride) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Body.Equal(b[i].Body) || !a[i].Declaration.Equal(b[i].Declaration) {
			return false
		}
	}
	return true
}

func propertiesEqual(a, b []Property) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Attributes != b[i].Attributes {
			return false
		}
		if !a[i].Signature.Equal(b[i].Signature) {
			return false
		}
		if !tokenPtrsEqual(a[i].GetMethod, b[i].GetMethod) ||
			!tokenPtrsEqual(a[i].SetMethod, b[i].SetMethod) ||
			!tokensEqual(a[i].OtherMethods, b[i].OtherMethods) {
			return false
		}
	}
	return true
}

func eventsEqual(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Attributes != b[i].Attributes {
			return false
		}
		if !a[i].Type.Equal(b[i].Type) {
			return false
		}
		if !tokenPtrsEqual(a[i].AddMethod, b[i].AddMethod) ||
			!tokenPtrsEqual(a[i].RemoveMethod, b[i].RemoveMethod) ||
			!tokenPtrsEqual(a[i].InvokeMethod, b[i].InvokeMethod) ||
			!tokensEqual(a[i].OtherMethods, b[i].OtherMethods) {
			return false
		}
	}
	return true
}

func bodiesEqual(a, b *MethodBody) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.MaxStack != b.MaxStack || a.InitLocals != b.InitLocals {
		return false
	}
	if !complexTypesEqual(a.Locals, b.Locals) {
		return false
	}
	if len(a.Instructions) != len(b.Instructions) {
		return false
	}
	for i := range a.Instructions {
		if !a.Instructions[i].Equal(b.Instructions[i]) {
			return false
		}
	}
	if len(a.ExceptionHandlers) != len(b.ExceptionHandlers) {
		return false
	}
	for i := range a.ExceptionHandlers {
		ha, hb := a.ExceptionHandlers[i], b.ExceptionHandlers[i]
		if ha.Kind != hb.Kind || ha.TryStart != hb.TryStart || ha.TryEnd != hb.TryEnd ||
			ha.FilterStart != hb.FilterStart || ha.HandlerStart != hb.HandlerStart ||
			ha.HandlerEnd != hb.HandlerEnd {
			return false
		}
		if !complexTypePtrsEqual(ha.CatchType, hb.CatchType) {
			return false
		}
	}
	return true
}
