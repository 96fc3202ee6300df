package ops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/db"
)

// Recommendation levels
const (
	LevelWarning = "warning"
	LevelInfo    = "info"
	LevelSuccess = "success"
)

// Recommendation kinds
const (
	RecCoverageGap      = "coverage_gap"
	RecCriticalCoverage = "critical_coverage"
	RecDynamicShareHigh = "dynamic_share_high"
	RecDynamicShareLow  = "dynamic_share_low"
	RecHealthy          = "healthy"
)

// Recommendation is one actionable finding about the suite layout.
type Recommendation struct {
	Kind    string `json:"kind"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Report aggregates every analysis into one document.
type Report struct {
	ID          string `json:"id"`
	GeneratedAt int64  `json:"generated_at"`

	Summary         *SummaryOutput               `json:"summary"`
	Maturity        *MaturityOutput              `json:"maturity"`
	Modules         *ModulesOutput               `json:"modules"`
	Classes         *ClassesOutput               `json:"classes"`
	TopTags         []db.TagCount                `json:"top_tags"`
	Reused          []coverage.ReusedCase        `json:"reused"`
	Suites          coverage.Inventory           `json:"suites"`
	Collections     []coverage.CollectionSummary `json:"collections"`
	Uncovered       *CasesOutput                 `json:"uncovered"`
	Trend           *TrendOutput                 `json:"trend"`
	Recommendations []Recommendation             `json:"recommendations"`
}

// ReportInput contains parameters for BuildReport.
type ReportInput struct {
	Depth int // default: config module_depth
}

// BuildReport computes every section inside one read transaction, so all
// sections describe the same state of the store.
func BuildReport(ctx context.Context, database *sql.DB, cfg *config.Config, input ReportInput) (*Report, error) {
	cfg = orDefault(cfg)
	var rep *Report
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		var err error
		rep, err = buildReport(ctx, q, cfg, input)
		return err
	})
	return rep, err
}

func buildReport(ctx context.Context, q db.Querier, cfg *config.Config, input ReportInput) (*Report, error) {
	r, err := loadResolver(ctx, q)
	if err != nil {
		return nil, err
	}
	counts, err := db.CountTables(ctx, q)
	if err != nil {
		return nil, err
	}
	mat, err := maturity(ctx, q)
	if err != nil {
		return nil, err
	}
	tags, err := db.TopTags(ctx, q, cfg.TopTagsLimit)
	if err != nil {
		return nil, err
	}
	tr, err := trend(ctx, q, 10)
	if err != nil {
		return nil, err
	}

	uncovered := r.Uncovered()
	rep := &Report{
		ID:          newRunID(),
		GeneratedAt: time.Now().Unix(),
		Summary:     summarize(r, counts),
		Maturity:    mat,
		Modules:     modules(r, cfg, input.Depth),
		Classes:     classes(r, cfg),
		TopTags:     tags,
		Reused:      r.ReusedCases(),
		Suites:      r.SuiteInventory(),
		Collections: r.CollectionInventory(),
		Uncovered: &CasesOutput{
			Items:      uncovered,
			Pagination: Pagination{Limit: len(uncovered), Total: len(uncovered)},
		},
		Trend: tr,
	}
	rep.Recommendations = recommend(rep.Summary, rep.Classes, cfg)
	return rep, nil
}

// Recommendations computes only the recommendation list.
func Recommendations(ctx context.Context, database *sql.DB, cfg *config.Config) ([]Recommendation, error) {
	cfg = orDefault(cfg)
	var recs []Recommendation
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		r, err := loadResolver(ctx, q)
		if err != nil {
			return err
		}
		counts, err := db.CountTables(ctx, q)
		if err != nil {
			return err
		}
		recs = recommend(summarize(r, counts), classes(r, cfg), cfg)
		return nil
	})
	return recs, err
}

// recommend applies the thresholds from cfg. The dynamic share is the
// percentage of all suites, collections included, that are dynamic.
func recommend(sum *SummaryOutput, cls *ClassesOutput, cfg *config.Config) []Recommendation {
	recs := []Recommendation{}

	if sum.Uncovered > 0 {
		recs = append(recs, Recommendation{
			Kind:    RecCoverageGap,
			Level:   LevelWarning,
			Message: fmt.Sprintf("%d test cases are not included in any test suite; consider creating focused suites", sum.Uncovered),
		})
	}

	if crit := cls.Critical; crit != nil && crit.Count > 0 && crit.Percent < cfg.CriticalCoverageTarget {
		recs = append(recs, Recommendation{
			Kind:    RecCriticalCoverage,
			Level:   LevelWarning,
			Message: fmt.Sprintf("%s test coverage is %.1f%%; ensure critical tests are in smoke or regression suites", crit.Label, crit.Percent),
		})
	}

	if sum.TotalSuites > 0 {
		share := coverage.Percent(sum.DynamicSuites, sum.TotalSuites)
		switch {
		case share > cfg.DynamicShareHigh:
			recs = append(recs, Recommendation{
				Kind:    RecDynamicShareHigh,
				Level:   LevelSuccess,
				Message: fmt.Sprintf("Excellent use of dynamic test suites (%.1f%%)", share),
			})
		case share < cfg.DynamicShareLow:
			recs = append(recs, Recommendation{
				Kind:    RecDynamicShareLow,
				Level:   LevelInfo,
				Message: fmt.Sprintf("Consider more dynamic test suites for easier maintenance (%.1f%% currently)", share),
			})
		}
	}

	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Kind:    RecHealthy,
			Level:   LevelSuccess,
			Message: "Automation setup looks well-structured; keep monitoring",
		})
	}
	return recs
}
