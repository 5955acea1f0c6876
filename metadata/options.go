package metadata

// Options are the serialization flags fixed when a container is created.
// They select the container backing (dense indexed vs named tokens) and
// which parts of a definition the converters carry.
type Options uint32

const (
	// OptionNamedTokens keys entities by generated names instead of dense
	// indexes, for human-readable diffing and patching.
	OptionNamedTokens Options = 1 << iota
	// OptionSkipMethodBodies omits method bodies from definitions.
	OptionSkipMethodBodies
	// OptionSkipCustomAttributes omits custom attributes from definitions.
	OptionSkipCustomAttributes
	// OptionSkipInitialValues omits field initial-value bytes.
	OptionSkipInitialValues
)

// Has reports whether all bits of flag are set.
func (o Options) Has(flag Options) bool {
	return o&flag == flag
}
