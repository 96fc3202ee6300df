package ops

import (
	"context"
	"database/sql"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/db"
	"github.com/hpungsan/suitecov/internal/errors"
)

// SummaryOutput is the executive summary of the corpus.
type SummaryOutput struct {
	TotalCases      int     `json:"total_cases"`
	TotalSuites     int     `json:"total_suites"`
	StaticSuites    int     `json:"static_suites"`
	DynamicSuites   int     `json:"dynamic_suites"`
	Collections     int     `json:"collections"`
	TotalTags       int     `json:"total_tags"`
	Covered         int     `json:"covered"`
	Uncovered       int     `json:"uncovered"`
	ExplicitCovered int     `json:"explicit_covered"`
	DynamicCovered  int     `json:"dynamic_covered"`
	CoveragePercent float64 `json:"coverage_percent"`
	TotalExecutions int     `json:"total_executions"`
	UnresolvedLinks int     `json:"unresolved_links"`
}

// Summary computes totals and global coverage.
func Summary(ctx context.Context, database *sql.DB) (*SummaryOutput, error) {
	var out *SummaryOutput
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		var err error
		out, err = summary(ctx, q)
		return err
	})
	return out, err
}

func summary(ctx context.Context, q db.Querier) (*SummaryOutput, error) {
	r, err := loadResolver(ctx, q)
	if err != nil {
		return nil, err
	}
	counts, err := db.CountTables(ctx, q)
	if err != nil {
		return nil, err
	}
	return summarize(r, counts), nil
}

func summarize(r *coverage.Resolver, counts db.TableCounts) *SummaryOutput {
	out := &SummaryOutput{
		TotalCases:      len(r.Cases()),
		TotalSuites:     len(r.Suites()),
		TotalTags:       counts.Tags,
		UnresolvedLinks: counts.UnresolvedLinks,
		TotalExecutions: r.TotalExecutions(),
	}
	for _, s := range r.Suites() {
		switch s.Kind {
		case artifact.KindStatic:
			out.StaticSuites++
		case artifact.KindDynamic:
			out.DynamicSuites++
		case artifact.KindCollection:
			out.Collections++
		}
	}
	out.Covered = r.GlobalCoverage().Len()
	out.Uncovered = out.TotalCases - out.Covered
	out.ExplicitCovered = r.ExplicitCoverage().Len()
	out.DynamicCovered = r.DynamicCoverage().Len()
	out.CoveragePercent = coverage.Percent(out.Covered, out.TotalCases)
	return out
}

// ModulesInput contains parameters for the Modules operation.
type ModulesInput struct {
	Depth int // default: config module_depth
}

// ModulesOutput contains per-module coverage.
type ModulesOutput struct {
	Depth   int                   `json:"depth"`
	Modules []coverage.ModuleStat `json:"modules"`
}

// Modules groups cases by the folder at Depth below "Test Cases".
func Modules(ctx context.Context, database *sql.DB, cfg *config.Config, input ModulesInput) (*ModulesOutput, error) {
	r, err := readResolver(ctx, database)
	if err != nil {
		return nil, err
	}
	return modules(r, orDefault(cfg), input.Depth), nil
}

func modules(r *coverage.Resolver, cfg *config.Config, depth int) *ModulesOutput {
	if depth <= 0 {
		depth = cfg.ModuleDepth
	}
	if depth <= 0 {
		depth = 2
	}
	stats := r.ModuleCoverage(moduleKey(depth))
	for i := range stats {
		stats[i].Name = path.Base(stats[i].Key)
	}
	return &ModulesOutput{Depth: depth, Modules: stats}
}

// ClassesOutput contains the priority and test type distributions.
type ClassesOutput struct {
	Priority []coverage.ClassStat `json:"priority"`
	Types    []coverage.ClassStat `json:"types"`

	// Critical is the coverage of cases carrying the configured critical tag
	Critical *coverage.ClassStat `json:"critical,omitempty"`
}

// Classes buckets cases by the configured priority and type rules.
func Classes(ctx context.Context, database *sql.DB, cfg *config.Config) (*ClassesOutput, error) {
	r, err := readResolver(ctx, database)
	if err != nil {
		return nil, err
	}
	return classes(r, orDefault(cfg)), nil
}

func classes(r *coverage.Resolver, cfg *config.Config) *ClassesOutput {
	out := &ClassesOutput{
		Priority: r.ClassCoverage(PriorityClasses(cfg)),
		Types:    r.ClassCoverage(TypeClasses(cfg)),
	}
	if cfg.CriticalTag != "" {
		st := r.TagCoverage(cfg.CriticalTag, false)
		out.Critical = &st
	}
	return out
}

// SuitesOutput contains the suite inventory and per-kind counts.
type SuitesOutput struct {
	coverage.Inventory
	Kinds []db.KindStat `json:"kinds"`
}

// Suites classifies static and dynamic suites as empty or active.
func Suites(ctx context.Context, database *sql.DB) (*SuitesOutput, error) {
	var out *SuitesOutput
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		r, err := loadResolver(ctx, q)
		if err != nil {
			return err
		}
		kinds, err := db.SuiteKinds(ctx, q)
		if err != nil {
			return err
		}
		out = &SuitesOutput{Inventory: r.SuiteInventory(), Kinds: kinds}
		return nil
	})
	return out, err
}

// CollectionsOutput lists every collection with its members.
type CollectionsOutput struct {
	Collections []coverage.CollectionSummary `json:"collections"`
}

// Collections resolves each collection's members to suites.
func Collections(ctx context.Context, database *sql.DB) (*CollectionsOutput, error) {
	r, err := readResolver(ctx, database)
	if err != nil {
		return nil, err
	}
	return &CollectionsOutput{Collections: r.CollectionInventory()}, nil
}

// ListInput contains pagination parameters shared by list operations.
type ListInput struct {
	Limit  int // default: 50, max: 500
	Offset int
}

// ReusedOutput contains cases covered by more than one suite.
type ReusedOutput struct {
	Items      []coverage.ReusedCase `json:"items"`
	Pagination Pagination            `json:"pagination"`
}

// Reused lists cases covered by two or more suites, most reused first.
func Reused(ctx context.Context, database *sql.DB, input ListInput) (*ReusedOutput, error) {
	r, err := readResolver(ctx, database)
	if err != nil {
		return nil, err
	}
	all := r.ReusedCases()
	lo, hi, p := paginate(len(all), input.Limit, input.Offset)
	return &ReusedOutput{Items: all[lo:hi], Pagination: p}, nil
}

// CasesOutput is a page of test cases.
type CasesOutput struct {
	Items      []artifact.TestCase `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// Uncovered lists cases no suite covers, by name.
func Uncovered(ctx context.Context, database *sql.DB, input ListInput) (*CasesOutput, error) {
	r, err := readResolver(ctx, database)
	if err != nil {
		return nil, err
	}
	all := r.Uncovered()
	lo, hi, p := paginate(len(all), input.Limit, input.Offset)
	return &CasesOutput{Items: all[lo:hi], Pagination: p}, nil
}

// MatchInput contains parameters for the Match operation.
type MatchInput struct {
	Filter string // filter expression, e.g. "name=(AC-) tag=(api,smoke)"
	ListInput
}

// MatchOutput contains the cases an ad-hoc filter selects.
type MatchOutput struct {
	// Predicate is the canonical form of the parsed filter
	Predicate  string              `json:"predicate"`
	Items      []artifact.TestCase `json:"items"`
	Covered    int                 `json:"covered"`
	Pagination Pagination          `json:"pagination"`
}

// Match evaluates a filter expression against every case. A filter with
// no recognized groups matches nothing.
func Match(ctx context.Context, database *sql.DB, input MatchInput) (*MatchOutput, error) {
	r, err := readResolver(ctx, database)
	if err != nil {
		return nil, err
	}
	pred := coverage.ParsePredicate(input.Filter)

	var (
		matched []artifact.TestCase
		covered int
	)
	for _, tc := range r.Cases() {
		if !pred.Matches(tc) {
			continue
		}
		matched = append(matched, tc)
		if r.IsCovered(tc.ID) {
			covered++
		}
	}
	sortCases(matched)

	lo, hi, p := paginate(len(matched), input.Limit, input.Offset)
	items := []artifact.TestCase{}
	if hi > lo {
		items = matched[lo:hi]
	}
	return &MatchOutput{
		Predicate:  pred.String(),
		Items:      items,
		Covered:    covered,
		Pagination: p,
	}, nil
}

// CaseInput addresses one test case by id, GUID or relative path.
type CaseInput struct {
	Ref string
}

// CaseOutput describes one test case and the suites covering it.
type CaseOutput struct {
	Case    artifact.TestCase   `json:"case"`
	Module  string              `json:"module"`
	Covered bool                `json:"covered"`
	Suites  []artifact.SuiteRef `json:"suites"`
}

// Case looks up a test case and reports which suites cover it. A numeric
// ref is a row id; anything else is a GUID or a path.
func Case(ctx context.Context, database *sql.DB, cfg *config.Config, input CaseInput) (*CaseOutput, error) {
	ref := strings.TrimSpace(input.Ref)
	if ref == "" {
		return nil, errors.NewInvalidRequest("case reference is required")
	}

	var out *CaseOutput
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		var (
			tc  *artifact.TestCase
			err error
		)
		if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
			tc, err = db.GetTestCase(ctx, q, id)
		} else {
			tc, err = db.FindTestCase(ctx, q, ref)
		}
		if err != nil {
			return err
		}

		r, err := loadResolver(ctx, q)
		if err != nil {
			return err
		}
		cc := r.CaseCoverage(tc.ID)
		if !cc.Found {
			return errors.NewNotFound("test case", ref)
		}
		out = &CaseOutput{
			Case:    *tc,
			Module:  artifact.ModulePath(tc.Path, orDefault(cfg).ModuleDepth),
			Covered: cc.Covered,
			Suites:  cc.Suites,
		}
		return nil
	})
	return out, err
}

// TagsOutput contains the tag distribution.
type TagsOutput struct {
	Tags []db.TagCount `json:"tags"`
}

// Tags returns the most used tags. Limit 0 uses config top_tags_limit;
// a negative limit returns every tag.
func Tags(ctx context.Context, database *sql.DB, cfg *config.Config, limit int) (*TagsOutput, error) {
	if limit == 0 {
		limit = orDefault(cfg).TopTagsLimit
	}
	tags, err := db.TopTags(ctx, database, limit)
	if err != nil {
		return nil, err
	}
	return &TagsOutput{Tags: tags}, nil
}

// TrendOutput contains recent file activity and ingestion history.
type TrendOutput struct {
	Days []db.DayCount  `json:"days"`
	Runs []db.IngestRun `json:"runs"`
}

// Trend reports case file changes per day (newest first) and recent ingest runs.
func Trend(ctx context.Context, database *sql.DB, days int) (*TrendOutput, error) {
	var out *TrendOutput
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		var err error
		out, err = trend(ctx, q, days)
		return err
	})
	return out, err
}

func trend(ctx context.Context, q db.Querier, days int) (*TrendOutput, error) {
	activity, err := db.RecentActivity(ctx, q, days)
	if err != nil {
		return nil, err
	}
	runs, err := db.ListIngestRuns(ctx, q, 10)
	if err != nil {
		return nil, err
	}
	return &TrendOutput{Days: activity, Runs: runs}, nil
}

// MaturityOutput describes how parameterized the cases and suites are.
type MaturityOutput struct {
	db.Complexity
	Kinds []db.KindStat `json:"kinds"`
}

// Maturity reports variable and data link usage and suite kind mix.
func Maturity(ctx context.Context, database *sql.DB) (*MaturityOutput, error) {
	var out *MaturityOutput
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		var err error
		out, err = maturity(ctx, q)
		return err
	})
	return out, err
}

func maturity(ctx context.Context, q db.Querier) (*MaturityOutput, error) {
	cx, err := db.CaseComplexity(ctx, q)
	if err != nil {
		return nil, err
	}
	kinds, err := db.SuiteKinds(ctx, q)
	if err != nil {
		return nil, err
	}
	return &MaturityOutput{Complexity: cx, Kinds: kinds}, nil
}

func sortCases(cases []artifact.TestCase) {
	sort.Slice(cases, func(i, j int) bool {
		if cases[i].Name != cases[j].Name {
			return cases[i].Name < cases[j].Name
		}
		return cases[i].ID < cases[j].ID
	})
}
