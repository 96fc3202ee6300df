package ops

import (
	"context"
	"reflect"
	"testing"

	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/errors"
)

func TestSummary_Fixture(t *testing.T) {
	database, _ := ingestFixture(t)

	sum, err := Summary(context.Background(), database)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	want := SummaryOutput{
		TotalCases:      5,
		TotalSuites:     4,
		StaticSuites:    2,
		DynamicSuites:   1,
		Collections:     1,
		TotalTags:       5,
		Covered:         3,
		Uncovered:       2,
		ExplicitCovered: 2,
		DynamicCovered:  2,
		CoveragePercent: 60,
		TotalExecutions: 5,
		UnresolvedLinks: 1,
	}
	if *sum != want {
		t.Errorf("Summary = %+v\nwant %+v", *sum, want)
	}
}

func TestSummary_Empty(t *testing.T) {
	sum, err := Summary(context.Background(), openTestDB(t))
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalCases != 0 || sum.CoveragePercent != 0 {
		t.Errorf("Summary = %+v, want zeros", *sum)
	}
}

func TestModules_Fixture(t *testing.T) {
	database, _ := ingestFixture(t)

	out, err := Modules(context.Background(), database, config.DefaultConfig(), ModulesInput{})
	if err != nil {
		t.Fatalf("Modules failed: %v", err)
	}
	if out.Depth != 2 {
		t.Errorf("Depth = %d, want 2", out.Depth)
	}
	want := []coverage.ModuleStat{
		{Key: "Test Cases/Auth/Login", Name: "Login", Covered: 2, Total: 2, Percent: 100},
		{Key: "Test Cases/Shop/Cart", Name: "Cart", Covered: 1, Total: 2, Percent: 50},
		{Key: "Test Cases/Misc", Name: "Misc", Covered: 0, Total: 1, Percent: 0},
	}
	if !reflect.DeepEqual(out.Modules, want) {
		t.Errorf("Modules = %+v\nwant %+v", out.Modules, want)
	}

	shallow, err := Modules(context.Background(), database, nil, ModulesInput{Depth: 1})
	if err != nil {
		t.Fatalf("Modules failed: %v", err)
	}
	if len(shallow.Modules) != 3 || shallow.Modules[0].Key != "Test Cases/Auth" {
		t.Errorf("depth 1 modules = %+v", shallow.Modules)
	}
}

func TestModules_SameFolderNameUnderDifferentParents(t *testing.T) {
	database := openTestDB(t)
	root := writeProject(t, map[string]string{
		"Test Cases/Web/Login/A.tc": caseXML("44444444-0000-0000-0000-000000000001", "A", "web"),
		"Test Cases/API/Login/B.tc": caseXML("44444444-0000-0000-0000-000000000002", "B", "api"),
		"Test Suites/Web.ts":        staticSuiteXML("55555555-0000-0000-0000-000000000001", "Web", "Test Cases/Web/Login/A"),
	})
	if _, err := Ingest(context.Background(), database, IngestInput{Root: root}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	out, err := Modules(context.Background(), database, nil, ModulesInput{Depth: 2})
	if err != nil {
		t.Fatalf("Modules failed: %v", err)
	}
	want := []coverage.ModuleStat{
		{Key: "Test Cases/API/Login", Name: "Login", Covered: 0, Total: 1, Percent: 0},
		{Key: "Test Cases/Web/Login", Name: "Login", Covered: 1, Total: 1, Percent: 100},
	}
	if !reflect.DeepEqual(out.Modules, want) {
		t.Errorf("Modules = %+v\nwant %+v", out.Modules, want)
	}
}

func TestClasses_Fixture(t *testing.T) {
	database, _ := ingestFixture(t)

	out, err := Classes(context.Background(), database, config.DefaultConfig())
	if err != nil {
		t.Fatalf("Classes failed: %v", err)
	}

	wantPriority := []coverage.ClassStat{
		{Label: "P1 (Critical)", Count: 2, Covered: 2, Percent: 100},
		{Label: "P2 (High)", Count: 1, Covered: 0, Percent: 0},
		{Label: PriorityFallback, Count: 2, Covered: 1, Percent: 50},
	}
	if !reflect.DeepEqual(out.Priority, wantPriority) {
		t.Errorf("Priority = %+v\nwant %+v", out.Priority, wantPriority)
	}

	wantTypes := []coverage.ClassStat{
		{Label: "API Tests", Count: 2, Covered: 2, Percent: 100},
		{Label: "UI Tests", Count: 2, Covered: 1, Percent: 50},
	}
	if !reflect.DeepEqual(out.Types, wantTypes) {
		t.Errorf("Types = %+v\nwant %+v", out.Types, wantTypes)
	}

	if out.Critical == nil || out.Critical.Count != 2 || out.Critical.Covered != 2 {
		t.Errorf("Critical = %+v", out.Critical)
	}
}

func TestClasses_ConfigOverride(t *testing.T) {
	database, _ := ingestFixture(t)

	cfg := config.DefaultConfig()
	cfg.PriorityClasses = []config.ClassDef{{Tag: "smoke", Label: "Smoke", Exact: true}}
	cfg.CriticalTag = ""

	out, err := Classes(context.Background(), database, cfg)
	if err != nil {
		t.Fatalf("Classes failed: %v", err)
	}
	if len(out.Priority) != 2 || out.Priority[0].Label != "Smoke" || out.Priority[0].Count != 1 {
		t.Errorf("Priority = %+v", out.Priority)
	}
	if out.Critical != nil {
		t.Errorf("Critical = %+v, want nil without critical tag", out.Critical)
	}
}

func TestSuitesAndCollections_Fixture(t *testing.T) {
	database, _ := ingestFixture(t)

	suites, err := Suites(context.Background(), database)
	if err != nil {
		t.Fatalf("Suites failed: %v", err)
	}
	if len(suites.Empty) != 1 || suites.Empty[0].Suite.Name != "Empty" {
		t.Errorf("Empty = %+v", suites.Empty)
	}
	if len(suites.Active) != 2 {
		t.Fatalf("Active = %+v", suites.Active)
	}
	if suites.Active[0].Suite.Name != "API" || suites.Active[0].Size != 2 {
		t.Errorf("Active[0] = %+v", suites.Active[0])
	}
	if suites.Active[1].Suite.Name != "Smoke" || suites.Active[1].Size != 3 || suites.Active[1].Resolved != 2 {
		t.Errorf("Active[1] = %+v", suites.Active[1])
	}

	cols, err := Collections(context.Background(), database)
	if err != nil {
		t.Fatalf("Collections failed: %v", err)
	}
	if len(cols.Collections) != 1 {
		t.Fatalf("Collections = %+v", cols.Collections)
	}
	c := cols.Collections[0]
	if c.Suite.Name != "Nightly" || c.Enabled != 1 || len(c.Members) != 2 {
		t.Errorf("collection = %+v", c)
	}
	if !c.Members[0].Resolved || c.Members[0].Size != 3 {
		t.Errorf("member 0 = %+v, want resolved to Smoke", c.Members[0])
	}
	if c.Members[1].Resolved {
		t.Errorf("member 1 = %+v, want unresolved", c.Members[1])
	}
}

func TestReusedAndUncovered_Fixture(t *testing.T) {
	database, _ := ingestFixture(t)

	reused, err := Reused(context.Background(), database, ListInput{})
	if err != nil {
		t.Fatalf("Reused failed: %v", err)
	}
	if len(reused.Items) != 1 || reused.Items[0].Case.Name != "AC-Login" || reused.Items[0].Count != 2 {
		t.Errorf("Reused = %+v", reused.Items)
	}

	unc, err := Uncovered(context.Background(), database, ListInput{})
	if err != nil {
		t.Fatalf("Uncovered failed: %v", err)
	}
	if unc.Pagination.Total != 2 || unc.Items[0].Name != "BB-Pay" || unc.Items[1].Name != "ZZ-Lone" {
		t.Errorf("Uncovered = %+v", unc)
	}

	page, err := Uncovered(context.Background(), database, ListInput{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Uncovered failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "ZZ-Lone" || page.Pagination.HasMore {
		t.Errorf("page = %+v", page)
	}
}

func TestMatch(t *testing.T) {
	database, _ := ingestFixture(t)

	tests := []struct {
		name      string
		filter    string
		want      []string
		covered   int
		predicate string
	}{
		{"tag", "tag=(ui)", []string{"BB-Cart", "BB-Pay"}, 1, "tag=(ui)"},
		{"name prefix OR", "name=(AC-, ZZ)", []string{"AC-Login", "AC-Logout", "ZZ-Lone"}, 2, "name=(AC-,ZZ)"},
		{"tags AND", "tag=(api,smoke)", []string{"AC-Login"}, 1, "tag=(api,smoke)"},
		{"no groups", "garbage", []string{}, 0, ""},
		{"unknown field only", "owner=(qa)", []string{}, 0, "owner=(qa)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Match(context.Background(), database, MatchInput{Filter: tc.filter})
			if err != nil {
				t.Fatalf("Match failed: %v", err)
			}
			got := []string{}
			for _, item := range out.Items {
				got = append(got, item.Name)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("names = %v, want %v", got, tc.want)
			}
			if out.Covered != tc.covered {
				t.Errorf("Covered = %d, want %d", out.Covered, tc.covered)
			}
			if out.Predicate != tc.predicate {
				t.Errorf("Predicate = %q, want %q", out.Predicate, tc.predicate)
			}
		})
	}
}

func TestCase_Lookup(t *testing.T) {
	database, _ := ingestFixture(t)
	cfg := config.DefaultConfig()

	byPath, err := Case(context.Background(), database, cfg, CaseInput{Ref: "Test Cases/Auth/Login/AC-Login"})
	if err != nil {
		t.Fatalf("Case failed: %v", err)
	}
	if !byPath.Covered || len(byPath.Suites) != 2 {
		t.Fatalf("Case = %+v", byPath)
	}
	if byPath.Suites[0].Name != "API" || byPath.Suites[1].Name != "Smoke" {
		t.Errorf("Suites = %+v, want API then Smoke", byPath.Suites)
	}
	if byPath.Module != "Test Cases/Auth/Login" {
		t.Errorf("Module = %q", byPath.Module)
	}

	byGUID, err := Case(context.Background(), database, cfg, CaseInput{Ref: "11111111-0000-0000-0000-000000000004"})
	if err != nil {
		t.Fatalf("Case by GUID failed: %v", err)
	}
	if byGUID.Case.Name != "BB-Pay" || byGUID.Covered || len(byGUID.Suites) != 0 {
		t.Errorf("Case by GUID = %+v", byGUID)
	}

	byID, err := Case(context.Background(), database, cfg, CaseInput{Ref: "1"})
	if err != nil {
		t.Fatalf("Case by id failed: %v", err)
	}
	if byID.Case.ID != 1 {
		t.Errorf("Case by id = %+v", byID.Case)
	}
}

func TestCase_Errors(t *testing.T) {
	database, _ := ingestFixture(t)

	_, err := Case(context.Background(), database, nil, CaseInput{Ref: "  "})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank ref: got %v, want INVALID_REQUEST", err)
	}
	_, err = Case(context.Background(), database, nil, CaseInput{Ref: "Test Cases/Nope"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown path: got %v, want NOT_FOUND", err)
	}
	_, err = Case(context.Background(), database, nil, CaseInput{Ref: "999"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown id: got %v, want NOT_FOUND", err)
	}
}

func TestTagsAndTrend(t *testing.T) {
	database, _ := ingestFixture(t)

	tags, err := Tags(context.Background(), database, config.DefaultConfig(), 2)
	if err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	if len(tags.Tags) != 2 {
		t.Fatalf("Tags = %+v", tags.Tags)
	}
	// api, p1 and ui each appear twice; ties break by name
	if tags.Tags[0].Tag != "api" || tags.Tags[1].Tag != "p1" {
		t.Errorf("Tags = %+v", tags.Tags)
	}

	trend, err := Trend(context.Background(), database, 0)
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if len(trend.Days) != 1 || trend.Days[0].Count != 5 {
		t.Errorf("Days = %+v, want all five cases on one day", trend.Days)
	}
	if len(trend.Runs) != 1 {
		t.Errorf("Runs = %+v", trend.Runs)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		n, limit, offset int
		lo, hi           int
		hasMore          bool
	}{
		{10, 0, 0, 0, 10, false},
		{100, 0, 0, 0, DefaultListLimit, true},
		{10, 3, 8, 8, 10, false},
		{10, 3, 20, 10, 10, false},
		{10, 3, -5, 0, 3, true},
		{1000, 10000, 0, 0, MaxListLimit, true},
	}
	for _, tc := range tests {
		lo, hi, p := paginate(tc.n, tc.limit, tc.offset)
		if lo != tc.lo || hi != tc.hi || p.HasMore != tc.hasMore || p.Total != tc.n {
			t.Errorf("paginate(%d,%d,%d) = %d,%d,%+v", tc.n, tc.limit, tc.offset, lo, hi, p)
		}
	}
}
