package nlq

import (
	"time"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

// Category identifies an extractor and fixes its precedence. Lower
// categories run (and emit) first; on a (field, operator) collision
// the higher category's predicate wins.
type Category int

const (
	CategoryType Category = iota
	CategoryState
	CategoryPriority
	CategoryAssignee
	CategoryTag
	CategoryDate
	CategoryFreeText
)

func (c Category) String() string {
	switch c {
	case CategoryType:
		return "type"
	case CategoryState:
		return "state"
	case CategoryPriority:
		return "priority"
	case CategoryAssignee:
		return "assignee"
	case CategoryTag:
		return "tag"
	case CategoryDate:
		return "date"
	case CategoryFreeText:
		return "free-text"
	default:
		return "unknown"
	}
}

// Input is everything an extractor may look at. Extractors treat it as
// read-only.
type Input struct {
	// Text is the normalized query text.
	Text string

	// Now anchors relative date phrases. Supplied by the caller,
	// never sampled here.
	Now time.Time

	// User is the caller's current-user token (e.g. "@Me"). Bound
	// verbatim; identity resolution is the remote service's job.
	User string

	// Type is the work-item type resolved by the type extractor, or
	// empty. Later extractors use it for type-scoped field lookup.
	Type intent.WorkItemType

	// Table is the active field table.
	Table *fields.Table

	// States is the state vocabulary in effect.
	States StateVocabulary
}

// Extraction is one extractor's contribution. Zero values mean "found
// nothing", which is a graceful miss, never an error.
type Extraction struct {
	// Type is set only by the work-item-type extractor.
	Type intent.WorkItemType

	Predicates []intent.Predicate

	// Consumed lists the phrases this extractor claimed, so the
	// free-text fallback can exclude them.
	Consumed []string

	// Diagnostics records fragments that were recognized but could
	// not be turned into predicates.
	Diagnostics []string
}

// Extractor recognizes one category of query fragment. Implementations
// are pure: no shared state, idempotent on the same input.
type Extractor interface {
	Category() Category
	Extract(in Input) Extraction
}

// extractors returns the full extractor set in precedence order. The
// free-text fallback is not in this list; it runs last over whatever
// text the others left unclaimed.
func extractors() []Extractor {
	return []Extractor{
		typeExtractor{},
		stateExtractor{},
		priorityExtractor{},
		assigneeExtractor{},
		tagExtractor{},
		dateExtractor{},
	}
}
