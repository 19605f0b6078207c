// Package fields maps human field aliases to canonical Azure DevOps
// field references and coerces raw values to the field's literal type.
//
// The mapping table is immutable once built. A Registry holds the
// process-wide table behind an atomic pointer so an organization's
// custom table can be swapped in without restarting; readers always
// see a complete table, never a partially updated one.
//
// Lookup is two-level: aliases scoped to a work-item type win over
// global aliases ("story points" resolves only for User Story), and an
// alias that matches nothing is an UnknownFieldError. Callers treat
// that as "no predicate produced" - the phrase degrades to free-text
// search instead of failing the conversion.
//
// Tables can be loaded from CUE files (see Load) to let organizations
// declare custom fields next to their other configuration.
package fields
