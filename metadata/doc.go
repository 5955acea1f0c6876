// Package metadata implements a portable, serialization-friendly
// representation of .NET assembly metadata: types, fields, methods, method
// bodies and signatures.
//
// The center of the package is ComplexType, a recursive tagged value that
// encodes type signatures, calling-convention signatures and inline CIL
// operands as finite trees, together with a compact textual grammar
// (Parse/Format) that round-trips every constructible tree exactly.
// Entities link to each other through Tokens — stable per-container
// identifiers — rather than pointers, which is what keeps cyclic type
// graphs representable as trees.
//
// A Metadata container owns three token-keyed tables (types, fields,
// methods). Containers are populated through an Updater, which deduplicates
// entities by structural identity and upgrades stored entries in place from
// reference level to definition level. Containers serialize to a JSON
// facade document or a CBOR snapshot; both projections are lossless and
// order-preserving.
//
// Construction is single-writer; a fully built container is safe for
// concurrent readers.
package metadata
