// Package intent defines the structured representation of a parsed
// work-item query: the QueryIntent produced by the natural-language
// layer and consumed by the WIQL compiler.
//
// A QueryIntent is a plain value. It holds an optional work-item type,
// an ordered list of predicates, an optional sort hint, an optional
// result limit, and the free-text terms that no extractor claimed.
// Predicate order in the intent is clause order in the compiled query,
// and the list never contains two predicates with the same
// (field, operator) pair.
//
// Literal is a sealed interface using the marker method pattern. Only
// String, Int, Date, and List implement it, which keeps the compiler's
// type switches exhaustive and prevents values the query language
// cannot render (floats, nested structures) from entering an intent.
//
// Field references are opaque strings (e.g. "System.AssignedTo").
// Nothing in this package or in the extractors constructs them from
// scratch; they are always produced by the fields package so that a
// predicate can only name a field the mapping table knows about.
package intent
