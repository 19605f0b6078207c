package nlq

import (
	"regexp"
	"strconv"
	"time"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

// dateVerbs maps the verb preceding a time phrase to the date field it
// filters. A time phrase with no verb defaults to the creation date.
var dateVerbs = map[string]intent.FieldRef{
	"created":  fields.RefCreatedDate,
	"updated":  fields.RefChangedDate,
	"changed":  fields.RefChangedDate,
	"modified": fields.RefChangedDate,
	"closed":   fields.RefClosedDate,
	"resolved": fields.RefResolvedDate,
}

var dateVerbPattern = regexp.MustCompile(`\b(created|updated|changed|modified|closed|resolved)\b`)

type opDate struct {
	op intent.Operator
	d  intent.Date
}

// datePhrases in match order: bounded named ranges first, then counted
// ranges, then explicit calendar dates. The first phrase that matches
// wins; a query carries one date filter.
var datePhrases = []struct {
	pat   *regexp.Regexp
	build func(m []string, now time.Time) []opDate
}{
	{
		pat: regexp.MustCompile(`\btoday\b`),
		build: func(_ []string, now time.Time) []opDate {
			return []opDate{{intent.OpGte, intent.DateOf(now)}}
		},
	},
	{
		pat: regexp.MustCompile(`\byesterday\b`),
		build: func(_ []string, now time.Time) []opDate {
			y := intent.DateOf(now.AddDate(0, 0, -1))
			return []opDate{{intent.OpGte, y}, {intent.OpLte, y}}
		},
	},
	{
		pat: regexp.MustCompile(`\bthis week\b`),
		build: func(_ []string, now time.Time) []opDate {
			return []opDate{{intent.OpGte, intent.DateOf(mondayOf(now))}}
		},
	},
	{
		pat: regexp.MustCompile(`\blast week\b`),
		build: func(_ []string, now time.Time) []opDate {
			mon := mondayOf(now)
			return []opDate{
				{intent.OpGte, intent.DateOf(mon.AddDate(0, 0, -7))},
				{intent.OpLte, intent.DateOf(mon.AddDate(0, 0, -1))},
			}
		},
	},
	{
		pat: regexp.MustCompile(`\bthis month\b`),
		build: func(_ []string, now time.Time) []opDate {
			first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			return []opDate{{intent.OpGte, intent.DateOf(first)}}
		},
	},
	{
		pat: regexp.MustCompile(`\blast month\b`),
		build: func(_ []string, now time.Time) []opDate {
			first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			prev := first.AddDate(0, -1, 0)
			return []opDate{
				{intent.OpGte, intent.DateOf(prev)},
				{intent.OpLte, intent.DateOf(first.AddDate(0, 0, -1))},
			}
		},
	},
	{
		pat: regexp.MustCompile(`\b(?:last|past)\s+(\d+)\s+days?\b`),
		build: func(m []string, now time.Time) []opDate {
			n, _ := strconv.Atoi(m[1])
			return []opDate{{intent.OpGte, intent.DateOf(now.AddDate(0, 0, -n))}}
		},
	},
	{
		pat: regexp.MustCompile(`\b(\d+)\s+(day|week|month)s?\s+ago\b`),
		build: func(m []string, now time.Time) []opDate {
			n, _ := strconv.Atoi(m[1])
			var since time.Time
			switch m[2] {
			case "day":
				since = now.AddDate(0, 0, -n)
			case "week":
				since = now.AddDate(0, 0, -7*n)
			case "month":
				since = now.AddDate(0, -n, 0)
			}
			return []opDate{{intent.OpGte, intent.DateOf(since)}}
		},
	},
	{
		pat: regexp.MustCompile(`\bsince\s+(\d{4}-\d{2}-\d{2})\b`),
		build: func(m []string, _ time.Time) []opDate {
			return isoOp(intent.OpGte, m[1])
		},
	},
	{
		pat: regexp.MustCompile(`\bbefore\s+(\d{4}-\d{2}-\d{2})\b`),
		build: func(m []string, _ time.Time) []opDate {
			return isoOp(intent.OpLte, m[1])
		},
	},
	{
		pat: regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
		build: func(m []string, _ time.Time) []opDate {
			return isoOp(intent.OpEquals, m[1])
		},
	},
}

func isoOp(op intent.Operator, iso string) []opDate {
	ts, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return nil
	}
	return []opDate{{op, intent.DateOf(ts)}}
}

// mondayOf returns the Monday of t's week.
func mondayOf(t time.Time) time.Time {
	off := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -off)
}

// dateExtractor binds relative and explicit time phrases. Relative
// phrases are anchored on the caller-supplied clock, so the same query
// with the same anchor always compiles the same way.
type dateExtractor struct{}

func (dateExtractor) Category() Category { return CategoryDate }

func (dateExtractor) Extract(in Input) Extraction {
	for _, phrase := range datePhrases {
		loc := phrase.pat.FindStringSubmatchIndex(in.Text)
		if loc == nil {
			continue
		}
		m := submatches(in.Text, loc)
		ops := phrase.build(m, in.Now)
		if ops == nil {
			continue
		}

		out := Extraction{Consumed: []string{m[0]}}
		field := fields.RefCreatedDate
		if verb := verbBefore(in.Text, loc[0]); verb != "" {
			field = dateVerbs[verb]
			out.Consumed = append(out.Consumed, verb)
		}
		for _, od := range ops {
			out.Predicates = append(out.Predicates, intent.Predicate{
				Field: field, Op: od.op, Value: od.d,
			})
		}
		return out
	}
	return Extraction{}
}

func submatches(text string, loc []int) []string {
	out := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, text[loc[i]:loc[i+1]])
	}
	return out
}

// verbBefore finds the date verb nearest before pos, or anywhere in the
// text as a fallback ("items created in the last week" keeps its verb
// even with words in between).
func verbBefore(text string, pos int) string {
	var best string
	for _, loc := range dateVerbPattern.FindAllStringIndex(text, -1) {
		if loc[0] < pos || best == "" {
			best = text[loc[0]:loc[1]]
		}
		if loc[0] >= pos {
			break
		}
	}
	return best
}
