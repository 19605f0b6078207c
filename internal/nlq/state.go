package nlq

import (
	"sort"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

// StateVocabulary maps lifecycle keywords to the service state names
// they stand for. A keyword with several states compiles to an IN
// predicate ("open" → New or Active). Organizations customize this
// per process template; see LoadStateVocabulary.
type StateVocabulary map[string][]string

// DefaultStates is the vocabulary for the common process templates.
func DefaultStates() StateVocabulary {
	return StateVocabulary{
		"new":         {"New"},
		"active":      {"Active"},
		"in progress": {"Active"},
		"resolved":    {"Resolved"},
		"closed":      {"Closed"},
		"done":        {"Done"},
		"completed":   {"Done"},
		"finished":    {"Done"},
		"to do":       {"To Do"},
		"todo":        {"To Do"},
		"removed":     {"Removed"},
		"open":        {"New", "Active"},
	}
}

// stateExtractor matches lifecycle keywords. Longest keyword wins
// ("in progress" beats "progress"-adjacent words); tokens outside the
// vocabulary are simply not claimed - a graceful miss, not an error.
type stateExtractor struct{}

func (stateExtractor) Category() Category { return CategoryState }

func (stateExtractor) Extract(in Input) Extraction {
	vocab := in.States
	if vocab == nil {
		vocab = DefaultStates()
	}

	keywords := make([]string, 0, len(vocab))
	for k := range vocab {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)

	best := ""
	bestIdx := -1
	for _, kw := range keywords {
		loc := wordPattern(kw).FindStringIndex(in.Text)
		if loc == nil {
			continue
		}
		switch {
		case len(kw) > len(best):
			best, bestIdx = kw, loc[0]
		case len(kw) == len(best) && loc[0] < bestIdx:
			best, bestIdx = kw, loc[0]
		}
	}
	if best == "" {
		return Extraction{}
	}

	states := vocab[best]
	var pred intent.Predicate
	if len(states) == 1 {
		pred = intent.Predicate{Field: fields.RefState, Op: intent.OpEquals, Value: intent.String(states[0])}
	} else {
		pred = intent.Predicate{Field: fields.RefState, Op: intent.OpIn, Value: intent.Strings(states...)}
	}
	return Extraction{
		Predicates: []intent.Predicate{pred},
		Consumed:   []string{best},
	}
}
