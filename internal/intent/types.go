package intent

import (
	"fmt"
	"strings"
)

// FieldRef is the canonical, service-recognized identifier of a
// work-item field (e.g. "Microsoft.VSTS.Common.Priority"). It is
// opaque to this package: only the fields package mints them.
type FieldRef string

// WorkItemType is one of the closed set of work-item types the
// converter recognizes. The zero value means "any type".
type WorkItemType string

const (
	TypeBug       WorkItemType = "Bug"
	TypeTask      WorkItemType = "Task"
	TypeUserStory WorkItemType = "User Story"
	TypeFeature   WorkItemType = "Feature"
	TypeEpic      WorkItemType = "Epic"
	TypeTestCase  WorkItemType = "Test Case"
)

// KnownTypes returns the closed type set in a fixed order.
func KnownTypes() []WorkItemType {
	return []WorkItemType{TypeBug, TypeTask, TypeUserStory, TypeFeature, TypeEpic, TypeTestCase}
}

// Operator is a predicate comparison operator. The constant values are
// the WIQL spellings; the compiler emits them verbatim.
type Operator string

const (
	OpEquals   Operator = "="
	OpContains Operator = "CONTAINS"
	OpGte      Operator = ">="
	OpLte      Operator = "<="
	OpIn       Operator = "IN"
)

// knownOperators is the validation allowlist.
var knownOperators = map[Operator]bool{
	OpEquals: true, OpContains: true, OpGte: true, OpLte: true, OpIn: true,
}

// Predicate is one filter condition: field, operator, literal value.
type Predicate struct {
	Field FieldRef
	Op    Operator
	Value Literal
}

// SortHint is an optional ordering request extracted from the query.
type SortHint struct {
	Field      FieldRef
	Descending bool
}

// QueryIntent is the normalized semantic result of parsing one
// natural-language request.
//
// Invariants (checked by Validate):
//   - Predicates holds at most one entry per (Field, Op) pair.
//   - Every predicate has a non-empty field, a known operator, and a
//     non-nil literal; IN values are flat lists.
//   - Limit is never negative.
//
// Predicates are in emission order: the builder sorts them by extractor
// category before handing the intent to the compiler, so identical
// input text always yields byte-identical WIQL.
type QueryIntent struct {
	// Type is the requested work-item type, or empty for "any".
	// It is not a predicate; the compiler synthesizes the
	// [System.WorkItemType] clause from it.
	Type WorkItemType

	Predicates []Predicate

	Sort *SortHint

	// Limit is the requested result count (0 = caller default).
	// WIQL has no portable TOP clause; the limit travels beside the
	// query and becomes the REST page size.
	Limit int

	// FreeText holds terms searched via CONTAINS against title and
	// description, grouped into a single OR clause by the compiler.
	FreeText []string
}

// MalformedIntentError reports an intent that violates the builder
// contract. It indicates a defect in an extractor or in the builder,
// never bad user input: free-form text degrades to free-text search
// long before it can produce one of these.
type MalformedIntentError struct {
	Code    string
	Message string
}

const (
	ErrCodeEmptyField    = "EMPTY_FIELD"
	ErrCodeBadFieldRef   = "BAD_FIELD_REF"
	ErrCodeNilValue      = "NIL_VALUE"
	ErrCodeBadOperator   = "BAD_OPERATOR"
	ErrCodeBadLimit      = "BAD_LIMIT"
	ErrCodeDuplicate     = "DUPLICATE_PREDICATE"
	ErrCodeNestedList    = "NESTED_LIST"
	ErrCodeEmptySortHint = "EMPTY_SORT_FIELD"
)

func (e *MalformedIntentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate checks the intent invariants. A nil return means the intent
// is safe to compile.
func (q *QueryIntent) Validate() error {
	seen := make(map[[2]string]bool, len(q.Predicates))
	for i, p := range q.Predicates {
		if p.Field == "" {
			return &MalformedIntentError{
				Code:    ErrCodeEmptyField,
				Message: fmt.Sprintf("predicate %d has an empty field reference", i),
			}
		}
		if strings.ContainsAny(string(p.Field), "[]'\n") {
			return &MalformedIntentError{
				Code:    ErrCodeBadFieldRef,
				Message: fmt.Sprintf("predicate %d field reference %q contains reserved characters", i, p.Field),
			}
		}
		if !knownOperators[p.Op] {
			return &MalformedIntentError{
				Code:    ErrCodeBadOperator,
				Message: fmt.Sprintf("predicate %d on %s uses unknown operator %q", i, p.Field, p.Op),
			}
		}
		if p.Value == nil {
			return &MalformedIntentError{
				Code:    ErrCodeNilValue,
				Message: fmt.Sprintf("predicate %d on %s has no value", i, p.Field),
			}
		}
		if l, ok := p.Value.(List); ok {
			for _, e := range l {
				if _, nested := e.(List); nested || e == nil {
					return &MalformedIntentError{
						Code:    ErrCodeNestedList,
						Message: fmt.Sprintf("predicate %d on %s has a non-flat list value", i, p.Field),
					}
				}
			}
		}
		key := [2]string{string(p.Field), string(p.Op)}
		if seen[key] {
			return &MalformedIntentError{
				Code:    ErrCodeDuplicate,
				Message: fmt.Sprintf("duplicate predicate for %s %s", p.Field, p.Op),
			}
		}
		seen[key] = true
	}
	if q.Sort != nil && q.Sort.Field == "" {
		return &MalformedIntentError{
			Code:    ErrCodeEmptySortHint,
			Message: "sort hint has an empty field reference",
		}
	}
	if q.Limit < 0 {
		return &MalformedIntentError{
			Code:    ErrCodeBadLimit,
			Message: fmt.Sprintf("negative limit %d", q.Limit),
		}
	}
	return nil
}
