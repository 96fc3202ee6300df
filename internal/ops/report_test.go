package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/coverage"
)

func recKinds(recs []Recommendation) []string {
	kinds := make([]string, len(recs))
	for i, r := range recs {
		kinds[i] = r.Kind
	}
	return kinds
}

func TestBuildReport_Fixture(t *testing.T) {
	database, _ := ingestFixture(t)

	rep, err := BuildReport(context.Background(), database, config.DefaultConfig(), ReportInput{})
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if rep.ID == "" || rep.GeneratedAt == 0 {
		t.Errorf("ID=%q GeneratedAt=%d", rep.ID, rep.GeneratedAt)
	}
	if rep.Summary.Covered != 3 {
		t.Errorf("Summary.Covered = %d, want 3", rep.Summary.Covered)
	}
	if rep.Maturity.Total != 5 {
		t.Errorf("Maturity.Total = %d, want 5", rep.Maturity.Total)
	}
	if len(rep.Modules.Modules) != 3 {
		t.Errorf("Modules = %+v", rep.Modules.Modules)
	}
	if len(rep.Reused) != 1 {
		t.Errorf("Reused = %+v", rep.Reused)
	}
	if rep.Uncovered.Pagination.Total != 2 {
		t.Errorf("Uncovered = %+v", rep.Uncovered)
	}
	if len(rep.Collections) != 1 {
		t.Errorf("Collections = %+v", rep.Collections)
	}

	got := recKinds(rep.Recommendations)
	want := []string{RecCoverageGap, RecDynamicShareLow}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("recommendations = %v, want %v", got, want)
	}
}

func TestRecommend(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		sum  SummaryOutput
		cls  ClassesOutput
		want []string
	}{
		{
			name: "healthy",
			sum:  SummaryOutput{TotalCases: 10, Covered: 10, TotalSuites: 10, DynamicSuites: 5},
			want: []string{RecHealthy},
		},
		{
			name: "high dynamic share",
			sum:  SummaryOutput{TotalCases: 10, Covered: 10, TotalSuites: 10, DynamicSuites: 8},
			want: []string{RecDynamicShareHigh},
		},
		{
			name: "critical below target",
			sum:  SummaryOutput{TotalCases: 10, Covered: 9, Uncovered: 1, TotalSuites: 2, DynamicSuites: 1},
			cls:  ClassesOutput{Critical: &critical90},
			want: []string{RecCoverageGap, RecCriticalCoverage},
		},
		{
			name: "no critical cases",
			sum:  SummaryOutput{TotalSuites: 2, DynamicSuites: 1},
			cls:  ClassesOutput{Critical: &criticalNone},
			want: []string{RecHealthy},
		},
		{
			name: "no suites",
			sum:  SummaryOutput{TotalCases: 3, Uncovered: 3},
			want: []string{RecCoverageGap},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := recKinds(recommend(&tc.sum, &tc.cls, cfg))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

var (
	critical90   = coverage.ClassStat{Label: "p1", Count: 10, Covered: 9, Percent: 90}
	criticalNone = coverage.ClassStat{Label: "p1"}
)

func TestRecommendations_Empty(t *testing.T) {
	recs, err := Recommendations(context.Background(), openTestDB(t), nil)
	if err != nil {
		t.Fatalf("Recommendations failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Kind != RecHealthy {
		t.Errorf("recommendations = %+v", recs)
	}
}
