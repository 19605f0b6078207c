package nlq

import (
	"regexp"
	"strings"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

// stopwords are conversational filler stripped from the free-text
// fallback. Includes the bare "me" that ownership phrases deliberately
// leave unclaimed.
var stopwords = map[string]bool{
	"a": true, "all": true, "an": true, "and": true, "any": true,
	"are": true, "bring": true, "display": true, "find": true,
	"for": true, "get": true, "give": true, "in": true, "is": true,
	"item": true, "items": true, "list": true, "me": true, "of": true,
	"on": true, "or": true, "please": true, "show": true, "that": true,
	"the": true, "up": true, "what": true, "which": true, "with": true,
	"work": true,
}

var (
	withFieldPattern   = regexp.MustCompile(`\bwith ([\w][\w -]*?)(?:$|[,.]| and )`)
	quotedTermPatterns = []*regexp.Regexp{
		regexp.MustCompile(`'([^']+)'`),
		regexp.MustCompile(`"([^"]+)"`),
	}
)

type freeTextResult struct {
	Terms       []string
	Predicates  []intent.Predicate
	Diagnostics []string
}

// extractFreeText runs last, over whatever the structured extractors
// left unclaimed. "with <field> <value>" phrases get one more chance at
// the alias table; everything else degrades to keyword terms, so no
// input is ever rejected outright.
func extractFreeText(in Input, consumed []string) freeTextResult {
	text := in.Text
	for _, phrase := range consumed {
		text = strings.Replace(text, phrase, " ", 1)
	}

	var out freeTextResult
	text = bindWithPhrases(in, text, &out)

	for _, pat := range quotedTermPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			if term := strings.TrimSpace(m[1]); term != "" {
				out.Terms = append(out.Terms, term)
			}
			text = strings.Replace(text, m[0], " ", 1)
		}
	}

	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, ",.!?;:()")
		if len(tok) <= 2 || stopwords[tok] {
			continue
		}
		out.Terms = append(out.Terms, tok)
	}
	out.Terms = dedupe(out.Terms)
	return out
}

// bindWithPhrases resolves "with <alias> <value>" against the field
// table, trying the longest alias split first ("with story points 5").
// A phrase naming no known field becomes a single free-text term plus
// an unknown-field diagnostic; a known field whose value will not
// coerce drops the predicate with a diagnostic.
func bindWithPhrases(in Input, text string, out *freeTextResult) string {
	for _, m := range withFieldPattern.FindAllStringSubmatch(text, -1) {
		phrase := strings.TrimSpace(m[1])
		text = strings.Replace(text, m[0], " ", 1)

		tokens := strings.Fields(phrase)
		if len(tokens) < 2 {
			if phrase != "" {
				out.Terms = append(out.Terms, phrase)
			}
			continue
		}

		bound := false
		for k := len(tokens) - 1; k >= 1; k-- {
			alias := strings.Join(tokens[:k], " ")
			ref, err := in.Table.Resolve(alias, in.Type)
			if err != nil {
				continue
			}
			raw := strings.Join(tokens[k:], " ")
			lit, err := in.Table.CoerceValue(ref, raw)
			if err != nil {
				out.Diagnostics = append(out.Diagnostics, err.Error())
			} else {
				out.Predicates = append(out.Predicates, intent.Predicate{
					Field: ref, Op: intent.OpEquals, Value: lit,
				})
			}
			bound = true
			break
		}
		if !bound {
			err := &fields.UnknownFieldError{Alias: tokens[0]}
			out.Diagnostics = append(out.Diagnostics, err.Error())
			out.Terms = append(out.Terms, phrase)
		}
	}
	return text
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
