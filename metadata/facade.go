package metadata

import (
	"encoding/json"
	"strconv"
)

// Document is the wire-format projection of a container: option flags plus
// one section per entity kind. Each section splits entries into references
// and definitions keyed by the token's string form, with an order list that
// lets named-token documents reconstruct the original enumeration order.
type Document struct {
	Options Options       `json:"Options"`
	Types   TypeSection   `json:"Types"`
	Fields  FieldSection  `json:"Fields"`
	Methods MethodSection `json:"Methods"`
}

// TypeSection holds the serialized type entries.
type TypeSection struct {
	References  *OrderedMap[*Type]       `json:"References"`
	Definitions *OrderedMap[*typeDefDoc] `json:"Definitions"`
	// Orders records run lengths of alternating reference/definition
	// entries, starting with a reference run (a leading zero means the
	// first entry is a definition). Indexed documents omit it: numeric
	// keys already imply the order.
	Orders []int `json:"Orders,omitempty"`
}

// FieldSection holds the serialized field entries.
type FieldSection struct {
	References  *OrderedMap[*Field]    `json:"References"`
	Definitions *OrderedMap[*FieldDef] `json:"Definitions"`
	Orders      []int                  `json:"Orders,omitempty"`
}

// MethodSection holds the serialized method entries.
type MethodSection struct {
	References  *OrderedMap[*Method]    `json:"References"`
	Definitions *OrderedMap[*MethodDef] `json:"Definitions"`
	Orders      []int                   `json:"Orders,omitempty"`
}

// typeDefDoc decorates a TypeDef with its materialization level, which the
// definition shape alone cannot express for a childless type.
type typeDefDoc struct {
	*TypeDef
	// Level is emitted only for DefinitionWithChildren entries; absent
	// means plain Definition.
	Level Level `json:"Level,omitempty"`
}

// ToDocument materializes the container into its facade form. The
// projection is lossless: FromDocument reproduces the exact enumeration
// order and structural content.
func (m *Metadata) ToDocument() (*Document, error) {
	named := m.opts.Has(OptionNamedTokens)
	doc := &Document{
		Options: m.opts,
		Types: TypeSection{
			References:  NewOrderedMap[*Type](),
			Definitions: NewOrderedMap[*typeDefDoc](),
		},
		Fields: FieldSection{
			References:  NewOrderedMap[*Field](),
			Definitions: NewOrderedMap[*FieldDef](),
		},
		Methods: MethodSection{
			References:  NewOrderedMap[*Method](),
			Definitions: NewOrderedMap[*MethodDef](),
		},
	}

	var typeRuns, fieldRuns, methodRuns []int
	for _, tok := range m.TypeTokens() {
		entry, err := m.Type(tok)
		if err != nil {
			return nil, err
		}
		if entry.Level == LevelReference {
			doc.Types.References.Set(tok.Key(), entry.Ref)
		} else {
			dd := &typeDefDoc{TypeDef: entry.Def}
			if entry.Level == LevelDefinitionWithChildren {
				dd.Level = LevelDefinitionWithChildren
			}
			doc.Types.Definitions.Set(tok.Key(), dd)
		}
		typeRuns = appendRun(typeRuns, entry.Level == LevelReference)
	}
	for _, tok := range m.FieldTokens() {
		entry, err := m.Field(tok)
		if err != nil {
			return nil, err
		}
		if entry.Level == LevelReference {
			doc.Fields.References.Set(tok.Key(), entry.Ref)
		} else {
			doc.Fields.Definitions.Set(tok.Key(), entry.Def)
		}
		fieldRuns = appendRun(fieldRuns, entry.Level == LevelReference)
	}
	for _, tok := range m.MethodTokens() {
		entry, err := m.Method(tok)
		if err != nil {
			return nil, err
		}
		if entry.Level == LevelReference {
			doc.Methods.References.Set(tok.Key(), entry.Ref)
		} else {
			doc.Methods.Definitions.Set(tok.Key(), entry.Def)
		}
		methodRuns = appendRun(methodRuns, entry.Level == LevelReference)
	}

	if named {
		doc.Types.Orders = typeRuns
		doc.Fields.Orders = fieldRuns
		doc.Methods.Orders = methodRuns
	}
	return doc, nil
}

// appendRun extends the alternating run-length list. Runs start with a
// reference run; a leading zero is emitted when the first entry is a
// definition.
func appendRun(runs []int, isRef bool) []int {
	refRun := len(runs)%2 == 1 // odd count: last run is a reference run
	if len(runs) == 0 {
		if isRef {
			return []int{1}
		}
		return []int{0, 1}
	}
	if isRef == refRun {
		runs[len(runs)-1]++
		return runs
	}
	return append(runs, 1)
}

// FromDocument rebuilds a container from its facade form.
func FromDocument(doc *Document) (*Metadata, error) {
	if doc == nil {
		return nil, errInvalidArgumentf("nil document")
	}
	md := New(doc.Options)

	typeOrder, err := sectionOrder(md.opts, keysOf(doc.Types.References), keysOf(doc.Types.Definitions), doc.Types.Orders)
	if err != nil {
		return nil, err
	}
	for _, ent := range typeOrder {
		tok, err := parseTokenKey(ent.key)
		if err != nil {
			return nil, err
		}
		var entry TypeEntry
		if ent.isRef {
			ref, _ := doc.Types.References.Get(ent.key)
			if ref == nil {
				return nil, errInvalidDataf("type reference %q is null", ent.key)
			}
			entry = TypeEntry{Level: LevelReference, Ref: ref}
		} else {
			dd, _ := doc.Types.Definitions.Get(ent.key)
			if dd == nil || dd.TypeDef == nil {
				return nil, errInvalidDataf("type definition %q is null", ent.key)
			}
			level := LevelDefinition
			if dd.Level == LevelDefinitionWithChildren {
				level = LevelDefinitionWithChildren
			}
			entry = TypeEntry{Level: level, Def: dd.TypeDef}
		}
		if err := md.types.Add(tok, entry); err != nil {
			return nil, wrapInvalidData("loading type section", err)
		}
	}

	fieldOrder, err := sectionOrder(md.opts, keysOf(doc.Fields.References), keysOf(doc.Fields.Definitions), doc.Fields.Orders)
	if err != nil {
		return nil, err
	}
	for _, ent := range fieldOrder {
		tok, err := parseTokenKey(ent.key)
		if err != nil {
			return nil, err
		}
		var entry FieldEntry
		if ent.isRef {
			ref, _ := doc.Fields.References.Get(ent.key)
			if ref == nil {
				return nil, errInvalidDataf("field reference %q is null", ent.key)
			}
			entry = FieldEntry{Level: LevelReference, Ref: ref}
		} else {
			def, _ := doc.Fields.Definitions.Get(ent.key)
			if def == nil {
				return nil, errInvalidDataf("field definition %q is null", ent.key)
			}
			entry = FieldEntry{Level: LevelDefinition, Def: def}
		}
		if err := md.fields.Add(tok, entry); err != nil {
			return nil, wrapInvalidData("loading field section", err)
		}
	}

	methodOrder, err := sectionOrder(md.opts, keysOf(doc.Methods.References), keysOf(doc.Methods.Definitions), doc.Methods.Orders)
	if err != nil {
		return nil, err
	}
	for _, ent := range methodOrder {
		tok, err := parseTokenKey(ent.key)
		if err != nil {
			return nil, err
		}
		var entry MethodEntry
		if ent.isRef {
			ref, _ := doc.Methods.References.Get(ent.key)
			if ref == nil {
				return nil, errInvalidDataf("method reference %q is null", ent.key)
			}
			entry = MethodEntry{Level: LevelReference, Ref: ref}
		} else {
			def, _ := doc.Methods.Definitions.Get(ent.key)
			if def == nil {
				return nil, errInvalidDataf("method definition %q is null", ent.key)
			}
			entry = MethodEntry{Level: LevelDefinition, Def: def}
		}
		if err := md.methods.Add(tok, entry); err != nil {
			return nil, wrapInvalidData("loading method section", err)
		}
	}

	return md, nil
}

type orderedEntry struct {
	key   string
	isRef bool
}

func keysOf[V any](m *OrderedMap[V]) []string {
	if m == nil {
		return nil
	}
	return m.Keys()
}

// sectionOrder reconstructs the original enumeration order of one section.
// Indexed documents sort by the numeric keys; named documents interleave
// the two maps' stored key order according to the run-length list.
func sectionOrder(opts Options, refKeys, defKeys []string, runs []int) ([]orderedEntry, error) {
	total := len(refKeys) + len(defKeys)
	if total == 0 {
		return nil, nil
	}
	if !opts.Has(OptionNamedTokens) {
		refSet := make(map[string]bool, len(refKeys))
		for _, k := range refKeys {
			refSet[k] = true
		}
		defSet := make(map[string]bool, len(defKeys))
		for _, k := range defKeys {
			defSet[k] = true
		}
		out := make([]orderedEntry, 0, total)
		for i := 0; i < total; i++ {
			key := strconv.Itoa(i)
			switch {
			case refSet[key]:
				out = append(out, orderedEntry{key: key, isRef: true})
			case defSet[key]:
				out = append(out, orderedEntry{key: key, isRef: false})
			default:
				return nil, errInvalidDataf("indexed section is sparse: missing token %d", i)
			}
		}
		return out, nil
	}

	if len(runs) == 0 {
		// Degenerate but unambiguous: only one of the maps is populated.
		if len(refKeys) == 0 {
			out := make([]orderedEntry, 0, total)
			for _, k := range defKeys {
				out = append(out, orderedEntry{key: k})
			}
			return out, nil
		}
		if len(defKeys) == 0 {
			out := make([]orderedEntry, 0, total)
			for _, k := range refKeys {
				out = append(out, orderedEntry{key: k, isRef: true})
			}
			return out, nil
		}
		return nil, errInvalidDataf("named section mixes references and definitions but has no order list")
	}

	out := make([]orderedEntry, 0, total)
	ri, di := 0, 0
	for i, run := range runs {
		isRef := i%2 == 0
		for n := 0; n < run; n++ {
			if isRef {
				if ri >= len(refKeys) {
					return nil, errInvalidDataf("order list overruns references")
				}
				out = append(out, orderedEntry{key: refKeys[ri], isRef: true})
				ri++
			} else {
				if di >= len(defKeys) {
					return nil, errInvalidDataf("order list overruns definitions")
				}
				out = append(out, orderedEntry{key: defKeys[di]})
				di++
			}
		}
	}
	if ri != len(refKeys) || di != len(defKeys) {
		return nil, errInvalidDataf("order list does not cover the section")
	}
	return out, nil
}

// EncodeJSON serializes the container as its facade document.
func (m *Metadata) EncodeJSON() ([]byte, error) {
	doc, err := m.ToDocument()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// DecodeJSON rebuilds a container from facade JSON.
func DecodeJSON(data []byte) (*Metadata, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, wrapInvalidData("decoding metadata document", err)
	}
	return FromDocument(&doc)
}
