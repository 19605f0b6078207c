package nlq

import (
	"github.com/mdalton/quarry/internal/intent"
)

// builder assembles extractor output into one QueryIntent. Extractions
// are fed in category order, so a (field, operator) collision resolves
// in favor of the later category: the earlier predicate is removed and
// the later one appended, keeping emission order stable for any input.
type builder struct {
	typ   intent.WorkItemType
	preds []intent.Predicate
	diags []string
}

func (b *builder) merge(ex Extraction) {
	if ex.Type != "" && b.typ == "" {
		b.typ = ex.Type
	}
	for _, p := range ex.Predicates {
		b.add(p)
	}
	b.diags = append(b.diags, ex.Diagnostics...)
}

func (b *builder) add(p intent.Predicate) {
	for i, q := range b.preds {
		if q.Field == p.Field && q.Op == p.Op {
			b.preds = append(b.preds[:i], b.preds[i+1:]...)
			break
		}
	}
	b.preds = append(b.preds, p)
}

func (b *builder) intent(sort *intent.SortHint, limit int, freeText []string) intent.QueryIntent {
	return intent.QueryIntent{
		Type:       b.typ,
		Predicates: b.preds,
		Sort:       sort,
		Limit:      limit,
		FreeText:   freeText,
	}
}
