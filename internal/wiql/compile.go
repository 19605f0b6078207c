// Package wiql renders a QueryIntent into a Work Item Query Language
// string.
//
// Compilation is a pure function: the same intent always produces the
// same bytes. Clause order is canonical - the work-item-type clause
// first, then the intent's predicates in their builder order, then the
// free-text OR group - and every string or date literal passes through
// single-quote doubling. The query string is handed verbatim to the
// remote service, so that escaping is the sole injection barrier.
package wiql

import (
	"fmt"
	"strings"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

// DefaultColumns is the SELECT list for every compiled query, matching
// what the result renderer displays.
var DefaultColumns = []intent.FieldRef{
	fields.RefID,
	fields.RefTitle,
	fields.RefWorkItemType,
	fields.RefState,
	fields.RefAssignedTo,
	fields.RefCreatedDate,
	fields.RefChangedDate,
}

// defaultSort orders results by most recently changed when the intent
// carries no sort hint.
var defaultSort = intent.SortHint{Field: fields.RefChangedDate, Descending: true}

// Compile renders the intent as a WIQL query string.
//
// It never fails for a well-formed intent; an error here is a
// MalformedIntentError and means an extractor or the builder broke its
// contract, not that the user typed something odd.
func Compile(q intent.QueryIntent) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i, col := range DefaultColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(renderField(col))
	}
	b.WriteString(" FROM WorkItems")

	clauses := whereClauses(q)
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}

	sort := defaultSort
	if q.Sort != nil {
		sort = *q.Sort
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(renderField(sort.Field))
	if sort.Descending {
		b.WriteString(" DESC")
	} else {
		b.WriteString(" ASC")
	}

	return b.String(), nil
}

// whereClauses assembles the WHERE conjuncts in canonical order.
func whereClauses(q intent.QueryIntent) []string {
	var clauses []string

	if q.Type != "" {
		clauses = append(clauses, fmt.Sprintf("%s = %s",
			renderField(fields.RefWorkItemType), quote(string(q.Type))))
	}

	for _, p := range q.Predicates {
		clauses = append(clauses, fmt.Sprintf("%s %s %s",
			renderField(p.Field), p.Op, renderLiteral(p.Value)))
	}

	if group := freeTextClause(q.FreeText); group != "" {
		clauses = append(clauses, group)
	}

	return clauses
}

// freeTextClause groups the unclaimed terms into one parenthesized OR
// over title and description.
func freeTextClause(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(terms)*2)
	for _, term := range terms {
		parts = append(parts,
			fmt.Sprintf("%s CONTAINS %s", renderField(fields.RefTitle), quote(term)),
			fmt.Sprintf("%s CONTAINS %s", renderField(fields.RefDescription), quote(term)),
		)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func renderField(ref intent.FieldRef) string {
	return "[" + string(ref) + "]"
}

// renderLiteral renders a literal in WIQL syntax. Strings and dates
// are quoted and escaped; integers are bare; lists parenthesize their
// rendered elements.
func renderLiteral(v intent.Literal) string {
	switch val := v.(type) {
	case intent.String:
		return quote(string(val))
	case intent.Int:
		return fmt.Sprintf("%d", int64(val))
	case intent.Date:
		return quote(val.String())
	case intent.List:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = renderLiteral(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		// Unreachable: Literal is sealed and Validate rejects nil.
		return quote(fmt.Sprintf("%v", v))
	}
}

// quote wraps a value in single quotes, doubling any embedded quote.
// Applied to every string and date literal without exception.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
