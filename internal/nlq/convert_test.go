package nlq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdalton/quarry/internal/fields"
	"github.com/mdalton/quarry/internal/intent"
)

const selectPrefix = "SELECT [System.Id], [System.Title], [System.WorkItemType], " +
	"[System.State], [System.AssignedTo], [System.CreatedDate], [System.ChangedDate] " +
	"FROM WorkItems"

// wednesday is mid-week so Monday arithmetic is visible in expectations.
var wednesday = time.Date(2024, 1, 10, 15, 4, 5, 0, time.UTC)

func TestConvert(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		opts     Options
		wantWIQL string
		wantDiag int
	}{
		{
			name:  "type and assignee",
			query: "Find all bugs assigned to john",
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'Bug'" +
				" AND [System.AssignedTo] CONTAINS 'john'" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "priority level and multiword type",
			query: "Find high priority user stories",
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'User Story'" +
				" AND [Microsoft.VSTS.Common.Priority] = 2" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "current user token bound verbatim",
			query: "assigned to me",
			opts:  Options{CurrentUser: "@Me"},
			wantWIQL: selectPrefix +
				" WHERE [System.AssignedTo] = '@Me'" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "relative week anchored on caller clock",
			query: "list tasks created this week",
			opts:  Options{Now: wednesday},
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'Task'" +
				" AND [System.CreatedDate] >= '2024-01-08'" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:     "empty query",
			query:    "",
			wantWIQL: selectPrefix + " ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "unknown field degrades to free text",
			query: "show items with frobnicate high",
			wantWIQL: selectPrefix +
				" WHERE ([System.Title] CONTAINS 'frobnicate high'" +
				" OR [System.Description] CONTAINS 'frobnicate high')" +
				" ORDER BY [System.ChangedDate] DESC",
			wantDiag: 1,
		},
		{
			name:  "state vocabulary with multiple states",
			query: "my open tasks",
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'Task'" +
				" AND [System.State] IN ('New', 'Active')" +
				" AND [System.AssignedTo] = '@Me'" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "unassigned",
			query: "unassigned bugs",
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'Bug'" +
				" AND [System.AssignedTo] = ''" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "quoted tag",
			query: "bugs tagged with 'regression'",
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'Bug'" +
				" AND [System.Tags] CONTAINS 'regression'" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "created by name",
			query: "stories created by alice",
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'User Story'" +
				" AND [System.CreatedBy] CONTAINS 'alice'" +
				" ORDER BY [System.ChangedDate] DESC",
		},
		{
			name:  "embedded quote is doubled",
			query: "bugs assigned to o'brien",
			wantWIQL: selectPrefix +
				" WHERE [System.WorkItemType] = 'Bug'" +
				" AND [System.AssignedTo] CONTAINS 'o''brien'" +
				" ORDER BY [System.ChangedDate] DESC",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.query, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.wantWIQL, got.WIQL)
			assert.Len(t, got.Diagnostics, tc.wantDiag)
		})
	}
}

func TestConvertEmptyQueryHasNoPredicates(t *testing.T) {
	got, err := Convert("", Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Intent.Predicates)
	assert.Empty(t, got.Intent.FreeText)
	assert.Empty(t, got.Diagnostics)
	assert.NotContains(t, got.WIQL, "WHERE")
}

func TestConvertUnknownFieldDiagnostic(t *testing.T) {
	got, err := Convert("show items with frobnicate high", Options{})
	require.NoError(t, err)
	require.Len(t, got.Diagnostics, 1)
	assert.Contains(t, got.Diagnostics[0], "unknown field")
	assert.Equal(t, []string{"frobnicate high"}, got.Intent.FreeText)
}

func TestConvertKnownWithPhraseBindsPredicate(t *testing.T) {
	got, err := Convert("user stories with story points 5", Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Diagnostics)
	require.Len(t, got.Intent.Predicates, 1)
	assert.Equal(t, intent.Predicate{
		Field: fields.RefStoryPoints,
		Op:    intent.OpEquals,
		Value: intent.Int(5),
	}, got.Intent.Predicates[0])
}

func TestConvertCoercionFailureDropsPredicate(t *testing.T) {
	got, err := Convert("user stories with story points many", Options{})
	require.NoError(t, err)
	require.Len(t, got.Diagnostics, 1)
	assert.Contains(t, got.Diagnostics[0], "cannot coerce")
	assert.Empty(t, got.Intent.Predicates)
}

func TestConvertDeterministic(t *testing.T) {
	queries := []string{
		"high priority bugs assigned to me created this week tagged with perf",
		"my open tasks sorted by priority desc",
		"show items with frobnicate high and stuff",
		"resolved stories last month",
	}
	opts := Options{Now: wednesday, CurrentUser: "@Me"}
	for _, q := range queries {
		first, err := Convert(q, opts)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := Convert(q, opts)
			require.NoError(t, err)
			assert.Equal(t, first, again, "query %q", q)
		}
	}
}

func TestConvertConflictingLevelsPickOne(t *testing.T) {
	got, err := Convert("high priority low priority task", Options{})
	require.NoError(t, err)
	var priorities int
	for _, p := range got.Intent.Predicates {
		if p.Field == fields.RefPriority {
			priorities++
		}
	}
	assert.Equal(t, 1, priorities)
}

func TestConvertSortAndLimit(t *testing.T) {
	got, err := Convert("top 10 bugs sorted by priority desc", Options{})
	require.NoError(t, err)
	assert.Equal(t, 10, got.Intent.Limit)
	require.NotNil(t, got.Intent.Sort)
	assert.Equal(t, fields.RefPriority, got.Intent.Sort.Field)
	assert.True(t, got.Intent.Sort.Descending)
	assert.Contains(t, got.WIQL, " ORDER BY [Microsoft.VSTS.Common.Priority] DESC")
}

func TestConvertDefaultTop(t *testing.T) {
	got, err := Convert("bugs", Options{DefaultTop: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, got.Intent.Limit)

	got, err = Convert("top 5 bugs", Options{DefaultTop: 50})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Intent.Limit)
}

func TestConvertSeverityScopedToBugs(t *testing.T) {
	got, err := Convert("high severity bugs", Options{})
	require.NoError(t, err)
	require.Len(t, got.Intent.Predicates, 1)
	assert.Equal(t, intent.Predicate{
		Field: fields.RefSeverity,
		Op:    intent.OpEquals,
		Value: intent.String("2 - High"),
	}, got.Intent.Predicates[0])
}

func TestConvertExtraTagsDiagnosed(t *testing.T) {
	got, err := Convert("bugs tagged with perf #regression", Options{})
	require.NoError(t, err)
	require.Len(t, got.Intent.Predicates, 1)
	assert.Equal(t, fields.RefTags, got.Intent.Predicates[0].Field)
	assert.Equal(t, intent.String("perf"), got.Intent.Predicates[0].Value)
	require.Len(t, got.Diagnostics, 1)
	assert.Contains(t, got.Diagnostics[0], "regression")
}

func TestConvertBareMeIsNotAnAssignee(t *testing.T) {
	got, err := Convert("show me the bugs", Options{})
	require.NoError(t, err)
	for _, p := range got.Intent.Predicates {
		assert.NotEqual(t, fields.RefAssignedTo, p.Field)
	}
	assert.Equal(t, intent.TypeBug, got.Intent.Type)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "find all bugs", Normalize("  Find\tALL   bugs "))
	// composed and decomposed é converge under NFC
	assert.Equal(t, Normalize("café"), Normalize("café"))
}
