package nlq

import (
	"sort"

	"github.com/mdalton/quarry/internal/fields"
)

// Templates are whole-query completions offered for short or empty
// partials. Each converts cleanly with the default table.
func Templates() []string {
	return []string{
		"all active bugs",
		"bugs assigned to me",
		"bugs created this week",
		"high priority bugs",
		"my open tasks",
		"resolved bugs last week",
		"stories sorted by priority",
		"tasks changed today",
		"unassigned bugs",
		"user stories in progress",
	}
}

// Suggest proposes completions for a partial query by matching it
// against the extractor vocabularies and the field alias table. Ranked
// by length of the shared prefix, longest first, alphabetical within a
// rank; at most max entries. Purely advisory and read-only: suggesting
// never changes how anything converts.
func Suggest(partial string, opts Options, max int) []string {
	if max <= 0 {
		return nil
	}
	table := opts.Table
	if table == nil {
		table = fields.Default()
	}
	states := opts.States
	if states == nil {
		states = DefaultStates()
	}

	partial = Normalize(partial)
	if partial == "" {
		tmpl := Templates()
		sort.Strings(tmpl)
		if len(tmpl) > max {
			tmpl = tmpl[:max]
		}
		return tmpl
	}

	candidates := make(map[string]bool)
	for _, t := range Templates() {
		candidates[t] = true
	}
	for _, a := range table.Aliases() {
		candidates[a] = true
	}
	for _, s := range typeSynonymList {
		candidates[s] = true
	}
	for kw := range states {
		candidates[kw] = true
	}
	for _, phrase := range []string{
		"assigned to me", "created by me", "created this week",
		"created today", "changed this week", "last week",
		"sorted by priority", "tagged with", "unassigned",
	} {
		candidates[phrase] = true
	}

	type ranked struct {
		text  string
		score int
	}
	var matches []ranked
	for c := range candidates {
		if c == partial {
			continue
		}
		score := commonPrefixLen(partial, c)
		if score == 0 {
			continue
		}
		matches = append(matches, ranked{c, score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].text < matches[j].text
	})

	if len(matches) > max {
		matches = matches[:max]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.text
	}
	return out
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
