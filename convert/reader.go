// Package convert translates between the live object model and the portable
// metadata container. The Reader walks a live assembly and encodes it
// through the Updater; the Writer materializes live declarations back from
// a container. Both directions share the token/level machinery, so cyclic
// type graphs and repeated references never duplicate entities.
package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ilpack/dnmeta/live"
	"github.com/ilpack/dnmeta/metadata"
)

// Reader encodes a live assembly into a portable metadata container.
type Reader struct {
	md    *metadata.Metadata
	upd   *metadata.Updater
	log   *zap.Logger
	local *live.Assembly
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReaderLogger installs a logger for traversal diagnostics.
func WithReaderLogger(l *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// NewReader creates a reader that populates md.
func NewReader(md *metadata.Metadata, opts ...ReaderOption) *Reader {
	r := &Reader{
		md:  md,
		upd: metadata.NewUpdater(md),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddAssembly encodes every top-level type of asm, with children, into the
// container. Types from other assemblies encountered along the way are
// registered as references.
func (r *Reader) AddAssembly(asm *live.Assembly) error {
	if asm == nil {
		return invalidArgument("nil assembly")
	}
	r.local = asm
	r.log.Debug("reading assembly", zap.String("assembly", asm.Name), zap.Int("types", len(asm.Types)))
	for _, t := range asm.Types {
		if _, err := r.AddType(t); err != nil {
			return fmt.Errorf("reading type %s: %w", t.Name, err)
		}
	}
	return nil
}

// AddType encodes one type at full definition-with-children level and
// returns its token.
func (r *Reader) AddType(t *live.TypeDecl) (metadata.Token, error) {
	if t == nil {
		return metadata.Token{}, invalidArgument("nil type")
	}
	// Publish the token first so members and cyclic signatures can refer
	// back to the type while it is still being encoded.
	tok, _, err := r.upd.UpdateTypeRef(r.typeRef(t))
	if err != nil {
		return metadata.Token{}, err
	}

	def := &metadata.TypeDef{Type: *r.typeRef(t), Attributes: t.Attributes}
	if t.BaseType != nil {
		base, err := r.encodeSig(t.BaseType)
		if err != nil {
			return metadata.Token{}, err
		}
		def.BaseType = &base
	}
	for _, iface := range t.Interfaces {
		ct, err := r.encodeSig(iface)
		if err != nil {
			return metadata.Token{}, err
		}
		def.Interfaces = append(def.Interfaces, ct)
	}
	if t.HasLayout() {
		def.Layout = &metadata.ClassLayout{}
		if t.PackingSize > 0 {
			def.Layout.PackingSize = uint16(t.PackingSize)
		}
		if t.ClassSize > 0 {
			def.Layout.ClassSize = uint32(t.ClassSize)
		}
	}
	def.GenericParams, err = r.encodeGenericParams(t.GenericParams)
	if err != nil {
		return metadata.Token{}, err
	}
	def.CustomAttributes, err = r.encodeCustomAttrs(t.CustomAttrs)
	if err != nil {
		return metadata.Token{}, err
	}
	if _, _, err := r.upd.UpdateTypeDef(def, metadata.LevelDefinition); err != nil {
		return metadata.Token{}, err
	}

	// Children: nested types recurse at full level; fields and methods
	// register as definitions. The stored definition object is mutated in
	// place and then upgraded.
	for _, nested := range t.NestedTypes {
		ntok, err := r.AddType(nested)
		if err != nil {
			return metadata.Token{}, err
		}
		def.NestedTypes = append(def.NestedTypes, ntok)
	}
	for _, f := range t.Fields {
		ftok, err := r.addField(f)
		if err != nil {
			return metadata.Token{}, fmt.Errorf("reading field %s: %w", f.Name, err)
		}
		def.Fields = append(def.Fields, ftok)
	}
	for _, m := range t.Methods {
		mtok, err := r.addMethod(m)
		if err != nil {
			return metadata.Token{}, fmt.Errorf("reading method %s: %w", m.Name, err)
		}
		def.Methods = append(def.Methods, mtok)
	}
	for _, p := range t.Properties {
		prop, err := r.encodeProperty(p)
		if err != nil {
			return metadata.Token{}, err
		}
		def.Properties = append(def.Properties, prop)
	}
	for _, e := range t.Events {
		ev, err := r.encodeEvent(e)
		if err != nil {
			return metadata.Token{}, err
		}
		def.Events = append(def.Events, ev)
	}
	if _, _, err := r.upd.UpdateTypeDef(def, metadata.LevelDefinitionWithChildren); err != nil {
		return metadata.Token{}, err
	}
	r.log.Debug("read type", zap.String("type", def.QualifiedName()), zap.Stringer("token", tok))
	return tok, nil
}

// typeRef builds the portable reference shape of a type. The assembly name
// is only carried for types defined outside the assembly being read.
func (r *Reader) typeRef(t *live.TypeDecl) *metadata.Type {
	ref := &metadata.Type{
		Name:           t.Name,
		Namespace:      t.Namespace,
		EnclosingNames: t.EnclosingNames(),
	}
	if t.Assembly != nil && t.Assembly != r.local {
		ref.Assembly = t.Assembly.Name
	}
	return ref
}

// typeToken registers t at reference level and returns its token.
func (r *Reader) typeToken(t *live.TypeDecl) (metadata.Token, error) {
	if t == nil {
		return metadata.Token{}, invalidArgument("nil type reference")
	}
	tok, _, err := r.upd.UpdateTypeRef(r.typeRef(t))
	return tok, err
}

func (r *Reader) fieldRef(f *live.FieldDecl) (*metadata.Field, error) {
	if f.DeclaringType == nil {
		return nil, invalidArgument("field " + f.Name + " has no declaring type")
	}
	dtok, err := r.typeToken(f.DeclaringType)
	if err != nil {
		return nil, err
	}
	ftype, err := r.encodeSig(f.Type)
	if err != nil {
		return nil, err
	}
	return &metadata.Field{
		Name:          f.Name,
		DeclaringType: metadata.TokenType(dtok),
		Signature:     metadata.CallConvSig(metadata.CCField, metadata.Int32Type(0), ftype),
	}, nil
}

// fieldToken registers f at reference level.
func (r *Reader) fieldToken(f *live.FieldDecl) (metadata.Token, error) {
	ref, err := r.fieldRef(f)
	if err != nil {
		return metadata.Token{}, err
	}
	tok, _, err := r.upd.UpdateFieldRef(ref)
	return tok, err
}

func (r *Reader) addField(f *live.FieldDecl) (metadata.Token, error) {
	ref, err := r.fieldRef(f)
	if err != nil {
		return metadata.Token{}, err
	}
	def := &metadata.FieldDef{Field: *ref, Attributes: f.Attributes}
	if !r.md.Options().Has(metadata.OptionSkipInitialValues) && f.InitialValue != nil {
		def.InitialValue = append([]byte(nil), f.InitialValue...)
	}
	if f.Constant != nil {
		def.Constant = &metadata.Constant{
			Type: metadata.ElementType(f.Constant.Kind),
			Slot: f.Constant.Slot,
			Str:  f.Constant.Str,
		}
	}
	def.CustomAttributes, err = r.encodeCustomAttrs(f.CustomAttrs)
	if err != nil {
		return metadata.Token{}, err
	}
	tok, _, err := r.upd.UpdateFieldDef(def)
	return tok, err
}

func (r *Reader) methodRef(m *live.MethodDecl) (*metadata.Method, error) {
	if m.DeclaringType == nil {
		return nil, invalidArgument("method " + m.Name + " has no declaring type")
	}
	if m.Sig == nil {
		return nil, invalidArgument("method " + m.Name + " has no signature")
	}
	if m.IsReference && (m.Sig.IsVarArg() || len(m.Sig.ParamsAfterSentinel) > 0) {
		return nil, unsupported("vararg method reference " + m.Name)
	}
	if !m.IsReference && len(m.Sig.ParamsAfterSentinel) > 0 {
		return nil, invalidData("method definition " + m.Name + " has parameters after the sentinel")
	}
	dtok, err := r.typeToken(m.DeclaringType)
	if err != nil {
		return nil, err
	}
	sig, err := r.encodeMethodSig(m.Sig)
	if err != nil {
		return nil, err
	}
	return &metadata.Method{
		Name:          m.Name,
		DeclaringType: metadata.TokenType(dtok),
		Signature:     sig,
	}, nil
}

// methodToken registers m at reference level.
func (r *Reader) methodToken(m *live.MethodDecl) (metadata.Token, error) {
	if m == nil {
		return metadata.Token{}, invalidArgument("nil method reference")
	}
	ref, err := r.methodRef(m)
	if err != nil {
		return metadata.Token{}, err
	}
	tok, _, err := r.upd.UpdateMethodRef(ref)
	return tok, err
}

func (r *Reader) addMethod(m *live.MethodDecl) (metadata.Token, error) {
	ref, err := r.methodRef(m)
	if err != nil {
		return metadata.Token{}, err
	}
	def := &metadata.MethodDef{
		Method:         *ref,
		Attributes:     m.Attributes,
		ImplAttributes: m.ImplAttributes,
	}
	for _, p := range m.Params {
		param := metadata.Param{Sequence: p.Sequence, Attributes: p.Attributes, Name: p.Name}
		if p.Constant != nil {
			param.Constant = &metadata.Constant{
				Type: metadata.ElementType(p.Constant.Kind),
				Slot: p.Constant.Slot,
				Str:  p.Constant.Str,
			}
		}
		def.Params = append(def.Params, param)
	}
	if m.PInvoke != nil {
		def.PInvoke = &metadata.PInvokeMap{
			Module:     m.PInvoke.Module,
			Name:       m.PInvoke.Name,
			Attributes: m.PInvoke.Attributes,
		}
	}
	for _, o := range m.Overrides {
		body, err := r.methodToken(o.Body)
		if err != nil {
			return metadata.Token{}, err
		}
		decl, err := r.methodToken(o.Declaration)
		if err != nil {
			return metadata.Token{}, err
		}
		def.Overrides = append(def.Overrides, metadata.MethodOverride{
			Body:        metadata.TokenType(body),
			Declaration: metadata.TokenType(decl),
		})
	}
	def.GenericParams, err = r.encodeGenericParams(m.GenericParams)
	if err != nil {
		return metadata.Token{}, err
	}
	def.CustomAttributes, err = r.encodeCustomAttrs(m.CustomAttrs)
	if err != nil {
		return metadata.Token{}, err
	}
	if m.Body != nil && !r.md.Options().Has(metadata.OptionSkipMethodBodies) {
		def.Body, err = r.encodeBody(m.Body)
		if err != nil {
			return metadata.Token{}, err
		}
	}
	tok, _, err := r.upd.UpdateMethodDef(def)
	return tok, err
}

func (r *Reader) encodeGenericParams(params []*live.GenericParamDecl) ([]metadata.GenericParam, error) {
	var out []metadata.GenericParam
	for _, p := range params {
		gp := metadata.GenericParam{Number: p.Number, Attributes: p.Attributes, Name: p.Name}
		for _, c := range p.Constraints {
			ct, err := r.encodeSig(c)
			if err != nil {
				return nil, err
			}
			gp.Constraints = append(gp.Constraints, ct)
		}
		out = append(out, gp)
	}
	return out, nil
}

func (r *Reader) encodeCustomAttrs(attrs []*live.CustomAttrDecl) ([]metadata.CustomAttribute, error) {
	if r.md.Options().Has(metadata.OptionSkipCustomAttributes) {
		return nil, nil
	}
	var out []metadata.CustomAttribute
	for _, a := range attrs {
		if a.Constructor == nil {
			return nil, invalidArgument("custom attribute has no constructor")
		}
		ctor, err := r.methodToken(a.Constructor)
		if err != nil {
			return nil, err
		}
		out = append(out, metadata.CustomAttribute{
			Constructor: metadata.TokenType(ctor),
			Blob:        append([]byte(nil), a.Blob...),
		})
	}
	return out, nil
}

func (r *Reader) encodeProperty(p *live.PropertyDecl) (metadata.Property, error) {
	sig, err := r.encodeMethodSig(p.Sig)
	if err != nil {
		return metadata.Property{}, err
	}
	prop := metadata.Property{Name: p.Name, Attributes: p.Attributes, Signature: sig}
	if prop.GetMethod, err = r.optionalMethodToken(p.GetMethod); err != nil {
		return metadata.Property{}, err
	}
	if prop.SetMethod, err = r.optionalMethodToken(p.SetMethod); err != nil {
		return metadata.Property{}, err
	}
	for _, m := range p.OtherMethods {
		tok, err := r.methodToken(m)
		if err != nil {
			return metadata.Property{}, err
		}
		prop.OtherMethods = append(prop.OtherMethods, tok)
	}
	return prop, nil
}

func (r *Reader) encodeEvent(e *live.EventDecl) (metadata.Event, error) {
	etype, err := r.encodeSig(e.Type)
	if err != nil {
		return metadata.Event{}, err
	}
	ev := metadata.Event{Name: e.Name, Attributes: e.Attributes, Type: etype}
	if ev.AddMethod, err = r.optionalMethodToken(e.AddMethod); err != nil {
		return metadata.Event{}, err
	}
	if ev.RemoveMethod, err = r.optionalMethodToken(e.RemoveMethod); err != nil {
		return metadata.Event{}, err
	}
	if ev.InvokeMethod, err = r.optionalMethodToken(e.InvokeMethod); err != nil {
		return metadata.Event{}, err
	}
	for _, m := range e.OtherMethods {
		tok, err := r.methodToken(m)
		if err != nil {
			return metadata.Event{}, err
		}
		ev.OtherMethods = append(ev.OtherMethods, tok)
	}
	return ev, nil
}

func (r *Reader) optionalMethodToken(m *live.MethodDecl) (*metadata.Token, error) {
	if m == nil {
		return nil, nil
	}
	tok, err := r.methodToken(m)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}
