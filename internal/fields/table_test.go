package fields

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdalton/quarry/internal/intent"
)

func TestResolve_GlobalAlias(t *testing.T) {
	table := Default()

	cases := []struct {
		alias string
		ref   intent.FieldRef
	}{
		{"priority", RefPriority},
		{"Priority", RefPriority},
		{"assigned to", RefAssignedTo},
		{"assigned_to", RefAssignedTo},
		{"  Assigned   To ", RefAssignedTo},
		{"assignee", RefAssignedTo},
		{"tags", RefTags},
		{"sprint", RefIteration},
	}
	for _, tc := range cases {
		t.Run(tc.alias, func(t *testing.T) {
			ref, err := table.Resolve(tc.alias, "")
			require.NoError(t, err)
			assert.Equal(t, tc.ref, ref)
		})
	}
}

func TestResolve_TypeScoped(t *testing.T) {
	table := Default()

	// "story points" exists only for User Story.
	ref, err := table.Resolve("story points", intent.TypeUserStory)
	require.NoError(t, err)
	assert.Equal(t, RefStoryPoints, ref)

	_, err = table.Resolve("story points", intent.TypeBug)
	require.Error(t, err)
	var unknown *UnknownFieldError
	assert.True(t, errors.As(err, &unknown))

	// No type at all skips the scoped tables entirely.
	_, err = table.Resolve("story points", "")
	assert.Error(t, err)
}

func TestResolve_ScopedWinsOverGlobal(t *testing.T) {
	rows := []Mapping{
		{Alias: "impact", Ref: "Custom.GlobalImpact", Kind: KindString},
		{Alias: "impact", Ref: "Custom.BugImpact", Kind: KindString, Types: []intent.WorkItemType{intent.TypeBug}},
	}
	table, err := NewTable(rows)
	require.NoError(t, err)

	ref, err := table.Resolve("impact", intent.TypeBug)
	require.NoError(t, err)
	assert.Equal(t, intent.FieldRef("Custom.BugImpact"), ref)

	ref, err = table.Resolve("impact", intent.TypeTask)
	require.NoError(t, err)
	assert.Equal(t, intent.FieldRef("Custom.GlobalImpact"), ref)
}

func TestResolve_Unknown(t *testing.T) {
	table := Default()
	_, err := table.Resolve("frobnicate", "")
	require.Error(t, err)
	var unknown *UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "frobnicate", unknown.Alias)
}

func TestCoerceValue(t *testing.T) {
	table := Default()

	cases := []struct {
		name string
		ref  intent.FieldRef
		raw  string
		want intent.Literal
	}{
		{"priority textual", RefPriority, "high", intent.Int(2)},
		{"priority ordinal", RefPriority, "2", intent.Int(2)},
		{"priority critical", RefPriority, "critical", intent.Int(1)},
		{"severity textual", RefSeverity, "high", intent.String("2 - High")},
		{"int field", "Microsoft.VSTS.Common.BusinessValue", "40", intent.Int(40)},
		{"date field", RefCreatedDate, "2024-01-08", intent.Date{Year: 2024, Month: time.January, Day: 8}},
		{"date from timestamp", RefCreatedDate, "2024-01-08T15:04:05Z", intent.Date{Year: 2024, Month: time.January, Day: 8}},
		{"string field", RefTitle, "login broken", intent.String("login broken")},
		{"unknown ref defaults to string", "Custom.Anything", "x", intent.String("x")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := table.CoerceValue(tc.ref, tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoerceValue_Failures(t *testing.T) {
	table := Default()

	cases := []struct {
		name string
		ref  intent.FieldRef
		raw  string
	}{
		{"non-integer for int field", "Microsoft.VSTS.Common.BusinessValue", "lots"},
		{"unknown enum level", RefPriority, "urgent-ish"},
		{"garbage date", RefCreatedDate, "next tuesday-ish"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := table.CoerceValue(tc.ref, tc.raw)
			require.Error(t, err)
			var ce *CoercionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.raw, ce.Raw)
		})
	}
}

func TestAliasesFor_RoundTrip(t *testing.T) {
	table := Default()

	// Every alias that resolves must appear in the reverse lookup of
	// the reference it resolved to.
	for _, alias := range table.Aliases() {
		ref, err := resolveAnyScope(table, alias)
		require.NoError(t, err, "alias %q", alias)
		assert.Contains(t, table.AliasesFor(ref), alias, "alias %q not in reverse lookup for %s", alias, ref)
	}
}

// resolveAnyScope resolves an alias globally or under any known type.
func resolveAnyScope(table *Table, alias string) (intent.FieldRef, error) {
	if ref, err := table.Resolve(alias, ""); err == nil {
		return ref, nil
	}
	for _, wit := range intent.KnownTypes() {
		if ref, err := table.Resolve(alias, wit); err == nil {
			return ref, nil
		}
	}
	return "", &UnknownFieldError{Alias: alias}
}

func TestAliasesFor_Sorted(t *testing.T) {
	table := Default()
	aliases := table.AliasesFor(RefChangedDate)
	require.NotEmpty(t, aliases)
	assert.IsNonDecreasing(t, aliases)
	assert.Contains(t, aliases, "updated")
	assert.Contains(t, aliases, "modified")
}

func TestNewTable_Rejects(t *testing.T) {
	cases := []struct {
		name string
		rows []Mapping
	}{
		{"empty alias", []Mapping{{Alias: "  ", Ref: "System.Title", Kind: KindString}}},
		{"empty ref", []Mapping{{Alias: "title", Kind: KindString}}},
		{"unknown kind", []Mapping{{Alias: "title", Ref: "System.Title", Kind: "float"}}},
		{"enum without values", []Mapping{{Alias: "priority", Ref: RefPriority, Kind: KindEnum}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.rows)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_Swap(t *testing.T) {
	base := Default()
	reg := NewRegistry(base)
	assert.Same(t, base, reg.Current())

	custom, err := NewTable(append(DefaultRows(), Mapping{
		Alias: "customer impact",
		Ref:   "Custom.CustomerImpact",
		Kind:  KindString,
	}))
	require.NoError(t, err)

	reg.Swap(custom)
	assert.Same(t, custom, reg.Current())

	ref, err := reg.Current().Resolve("customer impact", "")
	require.NoError(t, err)
	assert.Equal(t, intent.FieldRef("Custom.CustomerImpact"), ref)
}

func TestRegistry_ConcurrentReaders(t *testing.T) {
	reg := NewRegistry(Default())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				table := reg.Current()
				_, err := table.Resolve("priority", "")
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		reg.Swap(Default())
	}
	wg.Wait()
}
