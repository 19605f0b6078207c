package nlq

import (
	"fmt"
	"time"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
	"github.com/mdalton/quarry/internal/wiql"
)

// Options carries everything a conversion depends on besides the query
// text. Now and CurrentUser are deliberately explicit: Convert never
// samples the clock or asks anyone who is calling.
type Options struct {
	// Now anchors relative date phrases ("this week").
	Now time.Time

	// CurrentUser is the token bound for "assigned to me". Defaults to
	// the service macro "@Me".
	CurrentUser string

	// Table overrides the built-in field table. Nil means defaults.
	Table *fields.Table

	// States overrides the built-in state vocabulary. Nil means
	// defaults.
	States StateVocabulary

	// DefaultTop caps result counts when the query names no limit of
	// its own. Zero means unlimited.
	DefaultTop int
}

// Result is a completed conversion. Diagnostics are advisory: they
// describe fragments that degraded to free text or were dropped, never
// a failure of the conversion itself.
type Result struct {
	WIQL        string
	Intent      intent.QueryIntent
	Diagnostics []string
}

// Convert turns a free-form request into a query. It is total over
// user input: any string converts, in the worst case to a pure
// free-text search with diagnostics explaining what was not
// understood. The same (query, options) pair always yields the same
// Result.
func Convert(query string, opts Options) (Result, error) {
	if opts.CurrentUser == "" {
		opts.CurrentUser = "@Me"
	}
	table := opts.Table
	if table == nil {
		table = fields.Default()
	}

	in := Input{
		Text:   Normalize(query),
		Now:    opts.Now,
		User:   opts.CurrentUser,
		Table:  table,
		States: opts.States,
	}

	var b builder
	var consumed []string
	for _, ex := range extractors() {
		got := ex.Extract(in)
		b.merge(got)
		consumed = append(consumed, got.Consumed...)
		if ex.Category() == CategoryType {
			// Later extractors scope field lookups by the resolved type.
			in.Type = b.typ
		}
	}

	sortHint, sortConsumed, sortDiags := extractSort(in)
	consumed = append(consumed, sortConsumed...)
	b.diags = append(b.diags, sortDiags...)

	limit, limitConsumed := extractLimit(in.Text)
	consumed = append(consumed, limitConsumed...)
	if limit == 0 {
		limit = opts.DefaultTop
	}

	ft := extractFreeText(in, consumed)
	for _, p := range ft.Predicates {
		b.add(p)
	}
	b.diags = append(b.diags, ft.Diagnostics...)

	q := b.intent(sortHint, limit, ft.Terms)
	compiled, err := wiql.Compile(q)
	if err != nil {
		return Result{}, fmt.Errorf("convert %q: %w", query, err)
	}
	return Result{WIQL: compiled, Intent: q, Diagnostics: b.diags}, nil
}
