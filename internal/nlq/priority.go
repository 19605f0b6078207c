package nlq

import (
	"fmt"
	"regexp"

	"github.com/mdalton/quarry/internal/intent"
)

// Priority phrasing: a level word next to the field name, the field
// name with a level or ordinal, or the shorthand p1..p4. Severity takes
// the same shapes minus the shorthand.
var (
	levelBeforePriority = regexp.MustCompile(`\b(critical|high|medium|low)[- ]priority\b`)
	priorityThenLevel   = regexp.MustCompile(`\bpriority\s*(?:[:=]\s*)?(critical|high|medium|low|[1-4])\b`)
	priorityShorthand   = regexp.MustCompile(`\bp([1-4])\b`)

	levelBeforeSeverity = regexp.MustCompile(`\b(critical|high|medium|low)[- ]severity\b`)
	severityThenLevel   = regexp.MustCompile(`\bseverity\s*(?:[:=]\s*)?(critical|high|medium|low|[1-4])\b`)
)

// priorityExtractor recognizes priority and severity levels. The level
// token is coerced through the field table's enum, so organizations
// that remap levels (or add ones like "blocker") get them here for
// free.
type priorityExtractor struct{}

func (priorityExtractor) Category() Category { return CategoryPriority }

func (priorityExtractor) Extract(in Input) Extraction {
	var out Extraction
	extractLevel(&out, in, "priority", levelBeforePriority, priorityThenLevel, priorityShorthand)
	extractLevel(&out, in, "severity", levelBeforeSeverity, severityThenLevel, nil)
	return out
}

func extractLevel(out *Extraction, in Input, alias string, patterns ...*regexp.Regexp) {
	for _, pat := range patterns {
		if pat == nil {
			continue
		}
		m := pat.FindStringSubmatch(in.Text)
		if m == nil {
			continue
		}
		out.Consumed = append(out.Consumed, m[0])

		ref, err := in.Table.Resolve(alias, in.Type)
		if err != nil {
			out.Diagnostics = append(out.Diagnostics, err.Error())
			return
		}
		lit, err := in.Table.CoerceValue(ref, m[1])
		if err != nil {
			out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("%s level %q not recognized", alias, m[1]))
			return
		}
		out.Predicates = append(out.Predicates, intent.Predicate{
			Field: ref,
			Op:    intent.OpEquals,
			Value: lit,
		})
		return
	}
}
