package fields

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mdalton/quarry/internal/intent"
)

// ValueKind declares the literal type a field's values must coerce to.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindInt    ValueKind = "int"
	KindDate   ValueKind = "date"
	KindEnum   ValueKind = "enum"
)

// KnownKinds lists the accepted kinds for table validation.
var KnownKinds = []ValueKind{KindString, KindInt, KindDate, KindEnum}

// Mapping is one row of the field table: a human alias bound to a
// canonical reference, optionally scoped to specific work-item types.
type Mapping struct {
	Alias string
	Ref   intent.FieldRef

	// Types scopes the alias to specific work-item types. Empty means
	// the alias applies to every type.
	Types []intent.WorkItemType

	Kind ValueKind

	// Enum maps normalized value tokens to literals for KindEnum
	// fields ("high" -> 2 for priority, "high" -> "2 - High" for
	// severity). Ignored for other kinds.
	Enum map[string]intent.Literal
}

// UnknownFieldError reports an alias no table row matches. Recoverable:
// the caller records a diagnostic and moves on.
type UnknownFieldError struct {
	Alias string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Alias)
}

// CoercionError reports a raw value that does not fit the field's
// declared kind. Recoverable: the predicate is dropped with a
// diagnostic.
type CoercionError struct {
	Ref    intent.FieldRef
	Raw    string
	Kind   ValueKind
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %q to %s for %s: %s", e.Raw, e.Kind, e.Ref, e.Reason)
}

// Table is an immutable alias table. Build one with NewTable; never
// mutate a Table after it is shared.
type Table struct {
	global map[string]Mapping
	byType map[intent.WorkItemType]map[string]Mapping
	byRef  map[intent.FieldRef][]string
	kinds  map[intent.FieldRef]ValueKind
	enums  map[intent.FieldRef]map[string]intent.Literal
}

// NormalizeAlias canonicalizes an alias for lookup: lowercase,
// underscores become spaces, interior runs of whitespace collapse.
func NormalizeAlias(alias string) string {
	s := strings.ToLower(strings.TrimSpace(alias))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// NewTable builds a Table from rows. Later rows override earlier ones
// for the same (alias, scope), which is how loaded organization tables
// layer over DefaultRows.
func NewTable(rows []Mapping) (*Table, error) {
	t := &Table{
		global: make(map[string]Mapping),
		byType: make(map[intent.WorkItemType]map[string]Mapping),
		byRef:  make(map[intent.FieldRef][]string),
		kinds:  make(map[intent.FieldRef]ValueKind),
		enums:  make(map[intent.FieldRef]map[string]intent.Literal),
	}

	for _, row := range rows {
		alias := NormalizeAlias(row.Alias)
		if alias == "" {
			return nil, fmt.Errorf("field table row for %s has an empty alias", row.Ref)
		}
		if row.Ref == "" {
			return nil, fmt.Errorf("field table alias %q has an empty reference", row.Alias)
		}
		if !kindKnown(row.Kind) {
			return nil, fmt.Errorf("field table alias %q has unknown kind %q", row.Alias, row.Kind)
		}
		if row.Kind == KindEnum && len(row.Enum) == 0 {
			return nil, fmt.Errorf("field table alias %q is an enum with no values", row.Alias)
		}

		norm := row
		norm.Alias = alias

		if len(row.Types) == 0 {
			t.global[alias] = norm
		} else {
			for _, wit := range row.Types {
				m, ok := t.byType[wit]
				if !ok {
					m = make(map[string]Mapping)
					t.byType[wit] = m
				}
				m[alias] = norm
			}
		}

		t.kinds[row.Ref] = row.Kind
		if row.Kind == KindEnum {
			enum := make(map[string]intent.Literal, len(row.Enum))
			for k, v := range row.Enum {
				enum[NormalizeAlias(k)] = v
			}
			t.enums[row.Ref] = enum
		}
		t.addReverse(row.Ref, alias)
	}

	return t, nil
}

func kindKnown(k ValueKind) bool {
	for _, known := range KnownKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (t *Table) addReverse(ref intent.FieldRef, alias string) {
	for _, existing := range t.byRef[ref] {
		if existing == alias {
			return
		}
	}
	t.byRef[ref] = append(t.byRef[ref], alias)
	sort.Strings(t.byRef[ref])
}

// Resolve maps an alias to its canonical reference. Aliases scoped to
// the given work-item type are consulted first; the global table is
// the fallback. An empty work-item type skips the scoped lookup.
func (t *Table) Resolve(alias string, wit intent.WorkItemType) (intent.FieldRef, error) {
	norm := NormalizeAlias(alias)
	if wit != "" {
		if scoped, ok := t.byType[wit]; ok {
			if m, ok := scoped[norm]; ok {
				return m.Ref, nil
			}
		}
	}
	if m, ok := t.global[norm]; ok {
		return m.Ref, nil
	}
	return "", &UnknownFieldError{Alias: alias}
}

// Kind returns the declared value kind for a reference, defaulting to
// string for references the table has no kind row for.
func (t *Table) Kind(ref intent.FieldRef) ValueKind {
	if k, ok := t.kinds[ref]; ok {
		return k
	}
	return KindString
}

// CoerceValue converts a raw textual value into the literal type the
// field declares. Enum fields accept their value tokens and, when
// every enum literal is an Int, bare ordinals.
func (t *Table) CoerceValue(ref intent.FieldRef, raw string) (intent.Literal, error) {
	trimmed := strings.TrimSpace(raw)
	switch t.Kind(ref) {
	case KindInt:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, &CoercionError{Ref: ref, Raw: raw, Kind: KindInt, Reason: "not an integer"}
		}
		return intent.Int(n), nil

	case KindDate:
		d, err := parseDate(trimmed)
		if err != nil {
			return nil, &CoercionError{Ref: ref, Raw: raw, Kind: KindDate, Reason: err.Error()}
		}
		return d, nil

	case KindEnum:
		enum := t.enums[ref]
		if lit, ok := enum[NormalizeAlias(trimmed)]; ok {
			return lit, nil
		}
		return nil, &CoercionError{Ref: ref, Raw: raw, Kind: KindEnum, Reason: "not a known level"}

	default:
		return intent.String(trimmed), nil
	}
}

// parseDate accepts calendar dates and RFC 3339 timestamps, keeping
// only the date component.
func parseDate(s string) (intent.Date, error) {
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return intent.DateOf(ts), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return intent.DateOf(ts), nil
	}
	return intent.Date{}, fmt.Errorf("not a date (want YYYY-MM-DD)")
}

// AliasesFor is the reverse lookup: all aliases bound to a reference,
// sorted. Used by the suggestion engine and for debugging.
func (t *Table) AliasesFor(ref intent.FieldRef) []string {
	aliases := t.byRef[ref]
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}

// Aliases returns every alias in the table, sorted and deduplicated.
func (t *Table) Aliases() []string {
	seen := make(map[string]bool)
	var out []string
	for alias := range t.global {
		if !seen[alias] {
			seen[alias] = true
			out = append(out, alias)
		}
	}
	for _, scoped := range t.byType {
		for alias := range scoped {
			if !seen[alias] {
				seen[alias] = true
				out = append(out, alias)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Refs returns every canonical reference in the table, sorted.
func (t *Table) Refs() []intent.FieldRef {
	out := make([]intent.FieldRef, 0, len(t.byRef))
	for ref := range t.byRef {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registry holds the process-wide table behind an atomic pointer.
// Swapping tables is the only mutation in the whole conversion core.
type Registry struct {
	table atomic.Pointer[Table]
}

// NewRegistry creates a registry seeded with the given table.
func NewRegistry(t *Table) *Registry {
	r := &Registry{}
	r.table.Store(t)
	return r
}

// Current returns the active table. The returned table is immutable
// and safe to use for the remainder of a conversion even if a swap
// happens mid-flight.
func (r *Registry) Current() *Table {
	return r.table.Load()
}

// Swap atomically replaces the active table.
func (r *Registry) Swap(t *Table) {
	r.table.Store(t)
}
