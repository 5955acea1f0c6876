package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ilpack/dnmeta/live"
	"github.com/ilpack/dnmeta/metadata"
)

// AssemblyResolver locates or creates the live assembly with the given
// name. Returning a nil assembly falls back to creating an empty reference
// assembly.
type AssemblyResolver func(name string) (*live.Assembly, error)

// TypeResolver can short-circuit type materialization: given the identity
// of a stored type it may return an existing declaration to reuse.
// Returning nil hands the type back to the writer's own shell machinery.
type TypeResolver func(ref *metadata.Type) (*live.TypeDecl, error)

// Writer materializes a metadata container into a live assembly. Because
// stored entities reference each other freely in both directions, the
// writer works in passes: first declaration shells for every token, then
// nesting and placement, then member shells, and only then the definition
// payloads, with method bodies last.
type Writer struct {
	md     *metadata.Metadata
	target *live.Assembly
	log    *zap.Logger

	resolveAssembly AssemblyResolver
	resolveType     TypeResolver

	assemblies map[string]*live.Assembly
	types      map[string]*live.TypeDecl
	fields     map[string]*live.FieldDecl
	methods    map[string]*live.MethodDecl
	resolved   map[string]bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger installs a logger for materialization diagnostics.
func WithWriterLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithAssemblyResolver installs a hook for resolving external assemblies.
func WithAssemblyResolver(r AssemblyResolver) WriterOption {
	return func(w *Writer) { w.resolveAssembly = r }
}

// WithTypeResolver installs a hook that can substitute existing
// declarations for stored types.
func WithTypeResolver(r TypeResolver) WriterOption {
	return func(w *Writer) { w.resolveType = r }
}

// NewWriter creates a writer that materializes md into target.
func NewWriter(md *metadata.Metadata, target *live.Assembly, opts ...WriterOption) *Writer {
	w := &Writer{
		md:         md,
		target:     target,
		log:        zap.NewNop(),
		assemblies: make(map[string]*live.Assembly),
		types:      make(map[string]*live.TypeDecl),
		fields:     make(map[string]*live.FieldDecl),
		methods:    make(map[string]*live.MethodDecl),
		resolved:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Materialize builds the full live graph. It is a one-shot operation; use
// a fresh writer per container.
func (w *Writer) Materialize() error {
	if w.target == nil {
		return invalidArgument("nil target assembly")
	}
	if err := w.typeShells(); err != nil {
		return err
	}
	if err := w.placeTypes(); err != nil {
		return err
	}
	if err := w.fieldShells(); err != nil {
		return err
	}
	if err := w.methodShells(); err != nil {
		return err
	}
	if err := w.fillTypes(); err != nil {
		return err
	}
	if err := w.fillFields(); err != nil {
		return err
	}
	if err := w.fillMethods(); err != nil {
		return err
	}
	w.log.Debug("materialized container",
		zap.String("assembly", w.target.Name),
		zap.Int("types", len(w.types)),
		zap.Int("fields", len(w.fields)),
		zap.Int("methods", len(w.methods)))
	return nil
}

// Type returns the live declaration materialized for tok.
func (w *Writer) Type(tok metadata.Token) (*live.TypeDecl, bool) {
	d, ok := w.types[tok.String()]
	return d, ok
}

// Field returns the live declaration materialized for tok.
func (w *Writer) Field(tok metadata.Token) (*live.FieldDecl, bool) {
	d, ok := w.fields[tok.String()]
	return d, ok
}

// Method returns the live declaration materialized for tok.
func (w *Writer) Method(tok metadata.Token) (*live.MethodDecl, bool) {
	d, ok := w.methods[tok.String()]
	return d, ok
}

// typeShells creates one declaration shell per stored type, so every later
// pass can resolve tokens to pointers regardless of declaration order.
func (w *Writer) typeShells() error {
	for _, tok := range w.md.TypeTokens() {
		entry, err := w.md.Type(tok)
		if err != nil {
			return err
		}
		ref := entry.Reference()
		if w.resolveType != nil {
			decl, err := w.resolveType(ref)
			if err != nil {
				return fmt.Errorf("resolving type %s: %w", ref.QualifiedName(), err)
			}
			if decl != nil {
				w.types[tok.String()] = decl
				w.resolved[tok.String()] = true
				continue
			}
		}
		decl := live.NewTypeDecl(ref.Namespace, ref.Name)
		decl.IsReference = entry.Level == metadata.LevelReference
		w.types[tok.String()] = decl
	}
	return nil
}

// placeTypes attaches every shell to its assembly and declaring type.
// Top-level types attach first so nested attachment can copy the owning
// assembly down the chain; definitions wire nesting through their child
// token lists, references through their enclosing-name chains.
func (w *Writer) placeTypes() error {
	for _, tok := range w.md.TypeTokens() {
		entry, err := w.md.Type(tok)
		if err != nil {
			return err
		}
		decl := w.types[tok.String()]
		ref := entry.Reference()
		if w.resolved[tok.String()] || len(ref.EnclosingNames) > 0 {
			continue
		}
		asm, err := w.assembly(ref.Assembly)
		if err != nil {
			return err
		}
		asm.AddType(decl)
	}
	for _, tok := range w.md.TypeTokens() {
		entry, err := w.md.Type(tok)
		if err != nil {
			return err
		}
		if entry.Def == nil {
			continue
		}
		parent := w.types[tok.String()]
		for _, child := range entry.Def.NestedTypes {
			cdecl, err := w.typeByToken(child)
			if err != nil {
				return err
			}
			if cdecl.DeclaringType == nil && !w.resolved[child.String()] {
				parent.AddNested(cdecl)
			}
		}
	}
	for _, tok := range w.md.TypeTokens() {
		entry, err := w.md.Type(tok)
		if err != nil {
			return err
		}
		decl := w.types[tok.String()]
		ref := entry.Reference()
		if w.resolved[tok.String()] || decl.DeclaringType != nil || len(ref.EnclosingNames) == 0 {
			continue
		}
		asm, err := w.assembly(ref.Assembly)
		if err != nil {
			return err
		}
		parent, err := w.enclosingChain(asm, ref)
		if err != nil {
			return err
		}
		parent.AddNested(decl)
	}
	return nil
}

// assembly resolves an assembly name; empty means the target itself.
func (w *Writer) assembly(name string) (*live.Assembly, error) {
	if name == "" || name == w.target.Name {
		return w.target, nil
	}
	if a, ok := w.assemblies[name]; ok {
		return a, nil
	}
	if w.resolveAssembly != nil {
		a, err := w.resolveAssembly(name)
		if err != nil {
			return nil, fmt.Errorf("resolving assembly %s: %w", name, err)
		}
		if a != nil {
			w.assemblies[name] = a
			return a, nil
		}
	}
	a := live.NewAssembly(name)
	w.assemblies[name] = a
	w.log.Debug("created reference assembly", zap.String("assembly", name))
	return a, nil
}

// enclosingChain walks (creating reference shells as needed) the declaring
// chain of a nested reference, outermost first, and returns the innermost
// declaring type.
func (w *Writer) enclosingChain(asm *live.Assembly, ref *metadata.Type) (*live.TypeDecl, error) {
	names := ref.EnclosingNames
	outer := names[len(names)-1]
	cur := asm.FindType(ref.Namespace, outer)
	if cur == nil {
		cur = live.NewTypeDecl(ref.Namespace, outer)
		cur.IsReference = true
		asm.AddType(cur)
	}
	for i := len(names) - 2; i >= 0; i-- {
		var next *live.TypeDecl
		for _, n := range cur.NestedTypes {
			if n.Name == names[i] {
				next = n
				break
			}
		}
		if next == nil {
			next = live.NewTypeDecl("", names[i])
			next.IsReference = true
			cur.AddNested(next)
		}
		cur = next
	}
	return cur, nil
}

func (w *Writer) fieldShells() error {
	for _, tok := range w.md.FieldTokens() {
		entry, err := w.md.Field(tok)
		if err != nil {
			return err
		}
		ref := entry.Reference()
		declaring, err := w.typeFromComplexType(ref.DeclaringType)
		if err != nil {
			return fmt.Errorf("field %s: %w", ref.Name, err)
		}
		ftype, err := w.decodeFieldSig(ref.Signature)
		if err != nil {
			return fmt.Errorf("field %s: %w", ref.Name, err)
		}
		decl := &live.FieldDecl{
			Name:        ref.Name,
			Type:        ftype,
			IsReference: entry.Level == metadata.LevelReference,
		}
		if decl.IsReference {
			decl.DeclaringType = declaring
		} else {
			declaring.AddField(decl)
		}
		w.fields[tok.String()] = decl
	}
	return nil
}

func (w *Writer) methodShells() error {
	for _, tok := range w.md.MethodTokens() {
		entry, err := w.md.Method(tok)
		if err != nil {
			return err
		}
		ref := entry.Reference()
		declaring, err := w.typeFromComplexType(ref.DeclaringType)
		if err != nil {
			return fmt.Errorf("method %s: %w", ref.Name, err)
		}
		sig, err := w.decodeMethodSig(ref.Signature)
		if err != nil {
			return fmt.Errorf("method %s: %w", ref.Name, err)
		}
		decl := &live.MethodDecl{
			Name:        ref.Name,
			Sig:         sig,
			IsReference: entry.Level == metadata.LevelReference,
		}
		if decl.IsReference {
			decl.DeclaringType = declaring
		} else {
			declaring.AddMethod(decl)
		}
		w.methods[tok.String()] = decl
	}
	return nil
}

func (w *Writer) fillTypes() error {
	for _, tok := range w.md.TypeTokens() {
		entry, err := w.md.Type(tok)
		if err != nil {
			return err
		}
		if entry.Def == nil || w.resolved[tok.String()] {
			continue
		}
		def := entry.Def
		decl := w.types[tok.String()]
		decl.Attributes = def.Attributes
		if def.BaseType != nil {
			if decl.BaseType, err = w.decodeSig(*def.BaseType); err != nil {
				return fmt.Errorf("type %s: %w", def.QualifiedName(), err)
			}
		}
		for _, iface := range def.Interfaces {
			s, err := w.decodeSig(iface)
			if err != nil {
				return fmt.Errorf("type %s: %w", def.QualifiedName(), err)
			}
			decl.Interfaces = append(decl.Interfaces, s)
		}
		if def.Layout != nil {
			decl.PackingSize = int32(def.Layout.PackingSize)
			decl.ClassSize = int32(def.Layout.ClassSize)
		}
		if decl.GenericParams, err = w.decodeGenericParams(def.GenericParams); err != nil {
			return err
		}
		if decl.CustomAttrs, err = w.decodeCustomAttrs(def.CustomAttributes); err != nil {
			return err
		}
		for _, p := range def.Properties {
			prop := &live.PropertyDecl{Name: p.Name, Attributes: p.Attributes}
			if prop.Sig, err = w.decodeMethodSig(p.Signature); err != nil {
				return fmt.Errorf("property %s: %w", p.Name, err)
			}
			if prop.GetMethod, err = w.optionalMethod(p.GetMethod); err != nil {
				return err
			}
			if prop.SetMethod, err = w.optionalMethod(p.SetMethod); err != nil {
				return err
			}
			for _, mt := range p.OtherMethods {
				m, err := w.methodByToken(mt)
				if err != nil {
					return err
				}
				prop.OtherMethods = append(prop.OtherMethods, m)
			}
			decl.Properties = append(decl.Properties, prop)
		}
		for _, e := range def.Events {
			ev := &live.EventDecl{Name: e.Name, Attributes: e.Attributes}
			if ev.Type, err = w.decodeSig(e.Type); err != nil {
				return fmt.Errorf("event %s: %w", e.Name, err)
			}
			if ev.AddMethod, err = w.optionalMethod(e.AddMethod); err != nil {
				return err
			}
			if ev.RemoveMethod, err = w.optionalMethod(e.RemoveMethod); err != nil {
				return err
			}
			if ev.InvokeMethod, err = w.optionalMethod(e.InvokeMethod); err != nil {
				return err
			}
			for _, mt := range e.OtherMethods {
				m, err := w.methodByToken(mt)
				if err != nil {
					return err
				}
				ev.OtherMethods = append(ev.OtherMethods, m)
			}
			decl.Events = append(decl.Events, ev)
		}
	}
	return nil
}

func (w *Writer) fillFields() error {
	for _, tok := range w.md.FieldTokens() {
		entry, err := w.md.Field(tok)
		if err != nil {
			return err
		}
		if entry.Def == nil {
			continue
		}
		def := entry.Def
		decl := w.fields[tok.String()]
		decl.Attributes = def.Attributes
		if def.InitialValue != nil {
			decl.InitialValue = append([]byte(nil), def.InitialValue...)
		}
		if def.Constant != nil {
			decl.Constant = decodeConstant(def.Constant)
		}
		if decl.CustomAttrs, err = w.decodeCustomAttrs(def.CustomAttributes); err != nil {
			return fmt.Errorf("field %s: %w", def.Name, err)
		}
	}
	return nil
}

func (w *Writer) fillMethods() error {
	for _, tok := range w.md.MethodTokens() {
		entry, err := w.md.Method(tok)
		if err != nil {
			return err
		}
		if entry.Def == nil {
			continue
		}
		def := entry.Def
		decl := w.methods[tok.String()]
		decl.Attributes = def.Attributes
		decl.ImplAttributes = def.ImplAttributes
		for _, p := range def.Params {
			param := &live.ParamDecl{Name: p.Name, Sequence: p.Sequence, Attributes: p.Attributes}
			if p.Constant != nil {
				param.Constant = decodeConstant(p.Constant)
			}
			decl.Params = append(decl.Params, param)
		}
		if def.PInvoke != nil {
			decl.PInvoke = &live.PInvokeDecl{
				Module:     def.PInvoke.Module,
				Name:       def.PInvoke.Name,
				Attributes: def.PInvoke.Attributes,
			}
		}
		for _, o := range def.Overrides {
			body, err := w.methodFromComplexType(o.Body)
			if err != nil {
				return err
			}
			declMethod, err := w.methodFromComplexType(o.Declaration)
			if err != nil {
				return err
			}
			decl.Overrides = append(decl.Overrides, &live.OverrideDecl{Body: body, Declaration: declMethod})
		}
		if decl.GenericParams, err = w.decodeGenericParams(def.GenericParams); err != nil {
			return err
		}
		if decl.CustomAttrs, err = w.decodeCustomAttrs(def.CustomAttributes); err != nil {
			return fmt.Errorf("method %s: %w", def.Name, err)
		}
		if def.Body != nil {
			if decl.Body, err = w.decodeBody(def.Body); err != nil {
				return fmt.Errorf("method %s: %w", def.Name, err)
			}
		}
	}
	return nil
}

func (w *Writer) decodeGenericParams(params []metadata.GenericParam) ([]*live.GenericParamDecl, error) {
	var out []*live.GenericParamDecl
	for _, p := range params {
		gp := &live.GenericParamDecl{Number: p.Number, Attributes: p.Attributes, Name: p.Name}
		for _, c := range p.Constraints {
			s, err := w.decodeSig(c)
			if err != nil {
				return nil, err
			}
			gp.Constraints = append(gp.Constraints, s)
		}
		out = append(out, gp)
	}
	return out, nil
}

func (w *Writer) decodeCustomAttrs(attrs []metadata.CustomAttribute) ([]*live.CustomAttrDecl, error) {
	var out []*live.CustomAttrDecl
	for _, a := range attrs {
		ctor, err := w.methodFromComplexType(a.Constructor)
		if err != nil {
			return nil, err
		}
		out = append(out, &live.CustomAttrDecl{
			Constructor: ctor,
			Blob:        append([]byte(nil), a.Blob...),
		})
	}
	return out, nil
}

func (w *Writer) optionalMethod(tok *metadata.Token) (*live.MethodDecl, error) {
	if tok == nil {
		return nil, nil
	}
	return w.methodByToken(*tok)
}

func decodeConstant(c *metadata.Constant) *live.ConstantDecl {
	return &live.ConstantDecl{Kind: byte(c.Type), Slot: c.Slot, Str: c.Str}
}
