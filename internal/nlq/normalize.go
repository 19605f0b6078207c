package nlq

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes query text before extraction: NFC so that
// composed and decomposed forms of the same name compare equal,
// lowercase, and interior whitespace collapsed to single spaces.
// All extractor vocabularies are written against this form.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
