package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/db"
)

// Pagination limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Fallback labels for the class distributions.
const (
	PriorityFallback = "Unclassified"
	TypeFallback     = "Other"
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate clamps limit/offset and returns the page bounds for n items.
func paginate(n, limit, offset int) (lo, hi int, p Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)
	lo = min(offset, n)
	hi = min(lo+limit, n)
	return lo, hi, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: hi < n,
		Total:   n,
	}
}

// loadResolver builds a Resolver over the store as q sees it.
func loadResolver(ctx context.Context, q db.Querier) (*coverage.Resolver, error) {
	snap, err := db.LoadSnapshot(ctx, q)
	if err != nil {
		return nil, err
	}
	return coverage.NewResolver(snap)
}

// readResolver loads a Resolver inside its own read transaction.
func readResolver(ctx context.Context, database *sql.DB) (*coverage.Resolver, error) {
	var r *coverage.Resolver
	err := db.ReadTx(ctx, database, func(q db.Querier) error {
		var err error
		r, err = loadResolver(ctx, q)
		return err
	})
	return r, err
}

// moduleKey groups cases by the full module path at depth, so folders that
// share a name under different parents stay apart.
func moduleKey(depth int) func(artifact.TestCase) string {
	return func(tc artifact.TestCase) string {
		return artifact.ModulePath(tc.Path, depth)
	}
}

func classRules(defs []config.ClassDef) []coverage.ClassRule {
	rules := make([]coverage.ClassRule, 0, len(defs))
	for _, d := range defs {
		if d.Tag == "" {
			continue
		}
		label := d.Label
		if label == "" {
			label = d.Tag
		}
		rules = append(rules, coverage.ClassRule{Tag: d.Tag, Label: label, Order: d.Order, Exact: d.Exact})
	}
	return rules
}

// PriorityClasses is the priority bucketing scheme from cfg. Every case is
// counted; unmatched cases are Unclassified.
func PriorityClasses(cfg *config.Config) coverage.ClassSet {
	return coverage.ClassSet{
		Rules:    classRules(cfg.PriorityClasses),
		Fallback: PriorityFallback,
	}
}

// TypeClasses is the test type bucketing scheme from cfg. Only tagged cases
// are counted, largest class first.
func TypeClasses(cfg *config.Config) coverage.ClassSet {
	return coverage.ClassSet{
		Rules:      classRules(cfg.TypeClasses),
		Fallback:   TypeFallback,
		TaggedOnly: true,
		ByCount:    true,
		Limit:      cfg.TypeClassLimit,
	}
}

func orDefault(cfg *config.Config) *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}
