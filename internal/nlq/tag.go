package nlq

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

var tagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btag(?:ged)?(?: with)?\s+'([^']+)'`),
	regexp.MustCompile(`\btag(?:ged)?(?: with)?\s+"([^"]+)"`),
	regexp.MustCompile(`\btag(?:ged)?(?: with)?\s+([\w-]+)`),
	regexp.MustCompile(`#([\w-]+)`),
}

// tagExtractor binds tag phrases to a Tags CONTAINS predicate. A query
// naming several tags keeps the leftmost; extras are reported as
// diagnostics rather than silently overwritten, since one (field,
// operator) slot is all the intent carries.
type tagExtractor struct{}

func (tagExtractor) Category() Category { return CategoryTag }

type tagMatch struct {
	pos    int
	phrase string
	tag    string
}

func (tagExtractor) Extract(in Input) Extraction {
	var matches []tagMatch
	for _, pat := range tagPatterns {
		for _, loc := range pat.FindAllStringSubmatchIndex(in.Text, -1) {
			m := tagMatch{
				pos:    loc[0],
				phrase: in.Text[loc[0]:loc[1]],
				tag:    in.Text[loc[2]:loc[3]],
			}
			if !covered(matches, m.pos) {
				matches = append(matches, m)
			}
		}
	}
	if len(matches) == 0 {
		return Extraction{}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	out := Extraction{
		Predicates: []intent.Predicate{{
			Field: fields.RefTags,
			Op:    intent.OpContains,
			Value: intent.String(matches[0].tag),
		}},
	}
	for _, m := range matches {
		out.Consumed = append(out.Consumed, m.phrase)
	}
	for _, m := range matches[1:] {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("tag %q ignored: one tag filter per query", m.tag))
	}
	return out
}

// covered reports whether an earlier, more specific pattern already
// claimed the phrase starting at pos (the bare-word pattern re-matches
// the prefix of a quoted one).
func covered(matches []tagMatch, pos int) bool {
	for _, m := range matches {
		if pos >= m.pos && pos < m.pos+len(m.phrase) {
			return true
		}
	}
	return false
}
