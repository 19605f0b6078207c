package intent

import (
	"fmt"
	"strings"
	"time"
)

// Literal is a sealed interface over the value types a predicate may
// carry. Only String, Int, Date, and List implement it.
//
// The set is deliberately closed: WIQL literals are strings, integers,
// dates, and parenthesized lists, and nothing else. Floats are excluded
// entirely - no work-item field this converter targets takes one, and
// their formatting is not deterministic across renderers.
type Literal interface {
	literal() // Marker method - seals interface to this package
}

// String is a quoted string literal (names, states, tags, free text).
type String string

func (String) literal() {}

// Int is an unquoted integer literal (priority ordinals, ids).
type Int int64

func (Int) literal() {}

// Date is a calendar-date literal. Only the date component is
// significant; it renders as 'YYYY-MM-DD'.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (Date) literal() {}

// DateOf truncates a timestamp to its calendar date in the timestamp's
// own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of the date in UTC. Used by tests and by
// callers that need to do arithmetic on a resolved date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the date in the form WIQL expects.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// List is an ordered list literal, used with the IN operator.
// Elements must themselves be String, Int, or Date; nested lists are
// rejected by Validate.
type List []Literal

func (List) literal() {}

// LiteralKindOf names the concrete literal type for diagnostics.
func LiteralKindOf(v Literal) string {
	switch v.(type) {
	case String:
		return "string"
	case Int:
		return "int"
	case Date:
		return "date"
	case List:
		return "list"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Strings builds a List of String literals. Convenience for IN
// predicates over enumerated values.
func Strings(vals ...string) List {
	out := make(List, len(vals))
	for i, v := range vals {
		out[i] = String(v)
	}
	return out
}

// FormatList joins the rendered elements for error messages only.
// The WIQL renderer has its own, escaping-aware formatting.
func FormatList(l List) string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = fmt.Sprintf("%v", e)
	}
	return strings.Join(parts, ", ")
}
