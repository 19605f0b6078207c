package nlq

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

var (
	sortByPattern = regexp.MustCompile(`\b(?:sort(?:ed)?|order(?:ed)?) by ([\w ]+?)(?: (asc|ascending|desc|descending))?(?:$|[,.]| and | with | limit | top )`)
	newestPattern = regexp.MustCompile(`\bnewest(?: first)?\b`)
	oldestPattern = regexp.MustCompile(`\boldest(?: first)?\b`)

	limitPattern = regexp.MustCompile(`\b(?:top|first|limit)\s+(\d+)\b`)
)

// extractSort recognizes ordering phrases. The sort field goes through
// the same alias table as predicates; an alias the table does not know
// drops the hint with a diagnostic rather than guessing a field.
func extractSort(in Input) (hint *intent.SortHint, consumed []string, diags []string) {
	if m := sortByPattern.FindStringSubmatch(in.Text); m != nil {
		consumed = append(consumed, m[0])
		ref, err := in.Table.Resolve(m[1], in.Type)
		if err != nil {
			diags = append(diags, fmt.Sprintf("cannot sort by unknown field %q", m[1]))
			return nil, consumed, diags
		}
		desc := m[2] == "desc" || m[2] == "descending"
		return &intent.SortHint{Field: ref, Descending: desc}, consumed, nil
	}
	if m := newestPattern.FindString(in.Text); m != "" {
		consumed = append(consumed, m)
		return &intent.SortHint{Field: fields.RefCreatedDate, Descending: true}, consumed, nil
	}
	if m := oldestPattern.FindString(in.Text); m != "" {
		consumed = append(consumed, m)
		return &intent.SortHint{Field: fields.RefCreatedDate}, consumed, nil
	}
	return nil, nil, nil
}

// extractLimit recognizes result-count phrases ("top 10", "first 5",
// "limit 25"). Zero means no limit was asked for.
func extractLimit(text string) (limit int, consumed []string) {
	m := limitPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, nil
	}
	return n, []string{m[0]}
}
