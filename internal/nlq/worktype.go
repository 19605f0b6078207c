package nlq

import (
	"regexp"
	"sort"

	"github.com/mdalton/quarry/internal/intent"
)

// typeSynonyms maps vocabulary phrases to the closed work-item type
// set. Plural forms are listed explicitly; matching is whole-word.
var typeSynonyms = map[string]intent.WorkItemType{
	"bug":          intent.TypeBug,
	"bugs":         intent.TypeBug,
	"defect":       intent.TypeBug,
	"defects":      intent.TypeBug,
	"task":         intent.TypeTask,
	"tasks":        intent.TypeTask,
	"story":        intent.TypeUserStory,
	"stories":      intent.TypeUserStory,
	"user story":   intent.TypeUserStory,
	"user stories": intent.TypeUserStory,
	"feature":      intent.TypeFeature,
	"features":     intent.TypeFeature,
	"epic":         intent.TypeEpic,
	"epics":        intent.TypeEpic,
	"test case":    intent.TypeTestCase,
	"test cases":   intent.TypeTestCase,
}

// typeSynonymList is the vocabulary in deterministic scan order.
var typeSynonymList = func() []string {
	syns := make([]string, 0, len(typeSynonyms))
	for s := range typeSynonyms {
		syns = append(syns, s)
	}
	sort.Strings(syns)
	return syns
}()

var typePatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(typeSynonymList))
	for _, syn := range typeSynonymList {
		out[syn] = wordPattern(syn)
	}
	return out
}()

// wordPattern matches a phrase on word boundaries.
func wordPattern(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// typeExtractor recognizes the work-item type. Longest synonym wins
// when several appear ("user stories" beats the embedded "stories");
// on equal lengths the leftmost occurrence wins.
type typeExtractor struct{}

func (typeExtractor) Category() Category { return CategoryType }

func (typeExtractor) Extract(in Input) Extraction {
	best := ""
	bestIdx := -1
	for _, syn := range typeSynonymList {
		loc := typePatterns[syn].FindStringIndex(in.Text)
		if loc == nil {
			continue
		}
		switch {
		case len(syn) > len(best):
			best, bestIdx = syn, loc[0]
		case len(syn) == len(best) && loc[0] < bestIdx:
			best, bestIdx = syn, loc[0]
		}
	}
	if best == "" {
		return Extraction{}
	}
	return Extraction{
		Type:     typeSynonyms[best],
		Consumed: []string{best},
	}
}
