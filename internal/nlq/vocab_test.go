package nlq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

func TestParseStateVocabulary(t *testing.T) {
	vocab, err := ParseStateVocabulary([]byte(`
blocked: Blocked
in review: In Review
open: [New, Active, Blocked]
done: []
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Blocked"}, vocab["blocked"])
	assert.Equal(t, []string{"In Review"}, vocab["in review"])
	assert.Equal(t, []string{"New", "Active", "Blocked"}, vocab["open"])

	// defaults survive unless overridden
	assert.Equal(t, []string{"Resolved"}, vocab["resolved"])

	// an empty list removes the default entry
	_, ok := vocab["done"]
	assert.False(t, ok)
}

func TestParseStateVocabularyErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"not a mapping", `- one`},
		{"nested mapping value", "open:\n  deep: New"},
		{"empty state name", `open: ""`},
		{"empty state in list", `open: [New, ""]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStateVocabulary([]byte(tc.in))
			assert.Error(t, err)
		})
	}
}

func TestLoadStateVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.yaml")
	require.NoError(t, os.WriteFile(path, []byte("triage: Triage\n"), 0o644))

	vocab, err := LoadStateVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Triage"}, vocab["triage"])

	_, err = LoadStateVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStateExtractorCustomVocabulary(t *testing.T) {
	vocab := StateVocabulary{"stuck": {"Blocked"}}
	got := stateExtractor{}.Extract(Input{Text: "stuck bugs", States: vocab})
	require.Len(t, got.Predicates, 1)
	assert.Equal(t, intent.Predicate{
		Field: fields.RefState,
		Op:    intent.OpEquals,
		Value: intent.String("Blocked"),
	}, got.Predicates[0])

	// default vocabulary is not consulted once a custom one is supplied
	got = stateExtractor{}.Extract(Input{Text: "open bugs", States: vocab})
	assert.Empty(t, got.Predicates)
}

func TestStateExtractorLongestKeywordWins(t *testing.T) {
	got := stateExtractor{}.Extract(Input{Text: "tasks in progress"})
	require.Len(t, got.Predicates, 1)
	assert.Equal(t, intent.String("Active"), got.Predicates[0].Value)
	assert.Equal(t, []string{"in progress"}, got.Consumed)
}
