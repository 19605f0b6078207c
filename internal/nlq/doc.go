// Package nlq converts free-form natural-language requests about work
// items into structured query intents.
//
// The pipeline is single-pass and synchronous:
//
//	raw text → normalize → entity extraction → intent → WIQL
//
// Extraction is a fixed, ordered collection of independent extractors,
// one per fragment category (work-item type, state, priority/severity,
// assignee, tag, date, free text). Each extractor is a pure function
// of the normalized input: it never mutates shared state and running
// it twice yields the same result. The builder assembles extractor
// output into one QueryIntent, emitting predicates in the fixed
// category order - so the order extractors happen to run in can never
// change the compiled query - and resolving (field, operator)
// collisions in favor of the later category.
//
// Conversion never fails on user input. Fragments that do not resolve
// (unknown field aliases, values that will not coerce) are recorded as
// diagnostics and degrade to free-text search; the worst case for any
// input is a query with zero structured predicates.
//
// Time is always the caller's: Convert takes an explicit "now" and an
// explicit current-user token and samples neither, so every conversion
// is a deterministic, repeatable function of its arguments.
package nlq
