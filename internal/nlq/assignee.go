package nlq

import (
	"regexp"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

var (
	assignedToMe   = regexp.MustCompile(`\bassigned to (?:me|myself)\b`)
	assignedToName = regexp.MustCompile(`\bassigned to ([\w.@'-]+)`)
	unassigned     = regexp.MustCompile(`\b(?:unassigned|nobody|no one)\b`)
	possessiveMine = regexp.MustCompile(`\b(?:my|mine)\b`)

	createdByMe   = regexp.MustCompile(`\bcreated by (?:me|myself)\b`)
	createdByName = regexp.MustCompile(`\bcreated by ([\w.@'-]+)`)
)

// assigneeExtractor binds ownership phrases. "me" only counts when it
// is the object of an ownership phrase ("assigned to me", "my bugs");
// a bare "me" is conversational filler ("show me the bugs") and is
// left to the stopword filter. The current-user token is bound
// verbatim, never resolved to an identity here.
type assigneeExtractor struct{}

func (assigneeExtractor) Category() Category { return CategoryAssignee }

func (assigneeExtractor) Extract(in Input) Extraction {
	var out Extraction
	out.addOwner(in, fields.RefAssignedTo, assignedToMe, assignedToName, unassigned, possessiveMine)
	out.addOwner(in, fields.RefCreatedBy, createdByMe, createdByName, nil, nil)
	return out
}

func (out *Extraction) addOwner(in Input, ref intent.FieldRef, mePat, namePat, nonePat, minePat *regexp.Regexp) {
	if m := mePat.FindString(in.Text); m != "" {
		out.Consumed = append(out.Consumed, m)
		out.Predicates = append(out.Predicates, intent.Predicate{
			Field: ref, Op: intent.OpEquals, Value: intent.String(in.User),
		})
		return
	}
	if m := namePat.FindStringSubmatch(in.Text); m != nil {
		out.Consumed = append(out.Consumed, m[0])
		out.Predicates = append(out.Predicates, intent.Predicate{
			Field: ref, Op: intent.OpContains, Value: intent.String(m[1]),
		})
		return
	}
	if nonePat != nil {
		if m := nonePat.FindString(in.Text); m != "" {
			out.Consumed = append(out.Consumed, m)
			out.Predicates = append(out.Predicates, intent.Predicate{
				Field: ref, Op: intent.OpEquals, Value: intent.String(""),
			})
			return
		}
	}
	if minePat != nil {
		if m := minePat.FindString(in.Text); m != "" {
			out.Consumed = append(out.Consumed, m)
			out.Predicates = append(out.Predicates, intent.Predicate{
				Field: ref, Op: intent.OpEquals, Value: intent.String(in.User),
			})
		}
	}
}
