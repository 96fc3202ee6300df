package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/suitecov/internal/artifact"
)

func TestReusedCases(t *testing.T) {
	r := newResolver(t)
	got := r.ReusedCases()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Case.ID)
	assert.Equal(t, 2, got[0].Count)
	require.Len(t, got[0].Suites, 2)
	assert.Equal(t, "API", got[0].Suites[0].Name)
}

func TestReusedCases_Ordering(t *testing.T) {
	// A:3, B:3, C:2, D:1
	cases := []artifact.TestCase{
		{ID: 4, Name: "D", Tags: []string{"d"}},
		{ID: 3, Name: "C", Tags: []string{"c"}},
		{ID: 2, Name: "B", Tags: []string{"b", "x"}},
		{ID: 1, Name: "A", Tags: []string{"a", "x"}},
	}
	suites := []artifact.Suite{
		static(10, "S1"),
		static(11, "S2"),
		dynamic(12, "X", "tag=(x)"),
		dynamic(13, "C only", "name=(C)"),
	}
	links := []artifact.Link{
		{SuiteID: 10, CaseID: 1}, {SuiteID: 11, CaseID: 1},
		{SuiteID: 10, CaseID: 2}, {SuiteID: 11, CaseID: 2},
		{SuiteID: 10, CaseID: 3},
		{SuiteID: 11, CaseID: 4},
		// duplicate row for the same pair counts once
		{SuiteID: 10, CaseID: 3},
	}

	got, err := FindReusedCases(cases, suites, links)
	require.NoError(t, err)

	var names []string
	var counts []int
	for _, rc := range got {
		names = append(names, rc.Case.Name)
		counts = append(counts, rc.Count)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
	assert.Equal(t, []int{3, 3, 2}, counts)
}

func TestReusedCases_TieOnNameUsesID(t *testing.T) {
	cases := []artifact.TestCase{
		{ID: 9, Name: "Same", Tags: []string{"t"}},
		{ID: 2, Name: "Same", Tags: []string{"t"}},
	}
	suites := []artifact.Suite{dynamic(1, "A", "tag=(t)"), dynamic(2, "B", "name=(Sa)")}
	got, err := FindReusedCases(cases, suites, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].Case.ID)
	assert.Equal(t, int64(9), got[1].Case.ID)
}

func TestSuiteInventory(t *testing.T) {
	r := newResolver(t)
	inv := r.SuiteInventory()

	var empty, active []string
	for _, s := range inv.Empty {
		empty = append(empty, s.Suite.Name)
	}
	for _, s := range inv.Active {
		active = append(active, s.Suite.Name)
	}
	assert.Equal(t, []string{"Broken", "Empty"}, empty)
	assert.Equal(t, []string{"API", "Smoke"}, active)
	assert.Equal(t, "tag=(api)", inv.Active[0].Filter)
	assert.Equal(t, 2, inv.Active[0].Size)
	assert.Equal(t, 2, inv.Active[0].Resolved)
}

func TestSuiteInventory_ResolvedLeavesOutDanglingLinks(t *testing.T) {
	r := newResolver(t)
	inv := r.SuiteInventory()

	smoke := inv.Active[1]
	require.Equal(t, "Smoke", smoke.Suite.Name)
	// unresolved reference and out-of-corpus id count toward Size only
	assert.Equal(t, 4, smoke.Size)
	assert.Equal(t, 2, smoke.Resolved)

	snap := fixture()
	snap.Links = []artifact.Link{{SuiteID: 13, CaseID: 0}}
	r, err := NewResolver(snap)
	require.NoError(t, err)
	inv = r.SuiteInventory()
	var dangling SuiteSize
	for _, s := range inv.Active {
		if s.Suite.Name == "Empty" {
			dangling = s
		}
	}
	assert.Equal(t, 1, dangling.Size)
	assert.Equal(t, 0, dangling.Resolved)
}

func TestCollectionInventory(t *testing.T) {
	r := newResolver(t)
	got := r.CollectionInventory()
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "Nightly", c.Suite.Name)
	assert.Equal(t, 1, c.Enabled)
	assert.False(t, c.Empty)
	require.Len(t, c.Members, 2)
	assert.True(t, c.Members[0].Resolved)
	assert.Equal(t, int64(10), c.Members[0].SuiteID)
	assert.Equal(t, 4, c.Members[0].Size)
	assert.False(t, c.Members[1].Resolved)
}

func TestClassCoverage_RuleOrder(t *testing.T) {
	r := newResolver(t)
	got := r.ClassCoverage(ClassSet{
		Rules: []ClassRule{
			{Tag: "p2", Label: "P2 - High", Order: 2},
			{Tag: "p1", Label: "P1 - Critical", Order: 1},
		},
		Fallback: "Unclassified",
	})
	want := []ClassStat{
		{Label: "P1 - Critical", Count: 1, Covered: 1, Percent: 100},
		{Label: "Unclassified", Count: 4, Covered: 2, Percent: 50},
	}
	assert.Equal(t, want, got)
}

func TestClassCoverage_FirstRuleWins(t *testing.T) {
	r := newResolver(t)
	got := r.ClassCoverage(ClassSet{
		Rules: []ClassRule{
			{Tag: "ui", Label: "UI", Order: 1},
			{Tag: "p1", Label: "P1", Order: 2},
		},
		Fallback: "Other",
	})
	require.NotEmpty(t, got)
	assert.Equal(t, "UI", got[0].Label)
	assert.Equal(t, 2, got[0].Count, "case 3 has ui and p1 and lands in UI")
}

func TestClassCoverage_SubstringVersusExact(t *testing.T) {
	cases := []artifact.TestCase{
		{ID: 1, Name: "a", Tags: []string{"P1-critical"}},
		{ID: 2, Name: "b", Tags: []string{"p1"}},
	}
	r, err := NewResolver(Snapshot{Cases: cases})
	require.NoError(t, err)

	loose := r.ClassCoverage(ClassSet{Rules: []ClassRule{{Tag: "p1", Label: "P1"}}, Fallback: "none"})
	require.Len(t, loose, 1)
	assert.Equal(t, 2, loose[0].Count)

	exact := r.ClassCoverage(ClassSet{Rules: []ClassRule{{Tag: "p1", Label: "P1", Exact: true}}, Fallback: "none"})
	assert.Equal(t, []ClassStat{
		{Label: "P1", Count: 1},
		{Label: "none", Count: 1},
	}, exact)
}

func TestClassCoverage_TaggedOnlyByCountLimit(t *testing.T) {
	r := newResolver(t)
	got := r.ClassCoverage(ClassSet{
		Rules: []ClassRule{
			{Tag: "smoke", Label: "Smoke", Order: 1},
			{Tag: "api", Label: "API", Order: 2},
			{Tag: "ui", Label: "UI", Order: 3},
		},
		Fallback:   "Other",
		TaggedOnly: true,
		ByCount:    true,
		Limit:      2,
	})
	// untagged case 5 excluded; UI=2, API=1, Smoke=1
	require.Len(t, got, 2)
	assert.Equal(t, "UI", got[0].Label)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "API", got[1].Label)
}

func TestTagCoverage(t *testing.T) {
	r := newResolver(t)
	st := r.TagCoverage("ui", false)
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, 1, st.Covered)
	assert.InDelta(t, 50.0, st.Percent, 0.001)

	assert.Equal(t, 0, r.TagCoverage("nope", true).Count)
}
