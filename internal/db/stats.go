package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/suitecov/internal/errors"
)

// TableCounts holds row counts of the main tables.
type TableCounts struct {
	TestCases       int `json:"test_cases"`
	Tags            int `json:"tags"`
	TestSuites      int `json:"test_suites"`
	CaseLinks       int `json:"case_links"`
	UnresolvedLinks int `json:"unresolved_links"`
	CollectionLinks int `json:"collection_links"`
}

// TagCount is one row of the tag distribution.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// DayCount is the number of test cases whose file changed on Date (YYYY-MM-DD, UTC).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Complexity summarizes how parameterized the corpus is.
type Complexity struct {
	Total                int     `json:"total"`
	WithVariables        int     `json:"with_variables"`
	WithDataLinks        int     `json:"with_data_links"`
	AvgDescriptionLength float64 `json:"avg_description_length"`
}

// KindStat counts suites of one kind.
type KindStat struct {
	Kind            string  `json:"kind"`
	Count           int     `json:"count"`
	AvgFilterLength float64 `json:"avg_filter_length,omitempty"`
}

// IngestRun is one recorded ingestion.
type IngestRun struct {
	ID         string `json:"id"`
	Root       string `json:"root"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
	TestCases  int    `json:"test_cases"`
	TestSuites int    `json:"test_suites"`
	Warnings   int    `json:"warnings"`
	Pruned     int    `json:"pruned"`
}

// CountTables returns row counts for the main tables.
func CountTables(ctx context.Context, q Querier) (TableCounts, error) {
	var c TableCounts
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM test_cases),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM test_suites),
			(SELECT COUNT(*) FROM test_suite_case_links),
			(SELECT COUNT(*) FROM test_suite_case_links WHERE test_case_id IS NULL),
			(SELECT COUNT(*) FROM test_suite_collection_links)
	`).Scan(&c.TestCases, &c.Tags, &c.TestSuites, &c.CaseLinks, &c.UnresolvedLinks, &c.CollectionLinks)
	if err != nil {
		return c, errors.NewInternal(err)
	}
	return c, nil
}

// TopTags returns the most used tags, most used first, ties by name.
func TopTags(ctx context.Context, q Querier, limit int) ([]TagCount, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.QueryContext(ctx, `
		SELECT t.tag_name, COUNT(*) AS usage_count
		FROM tags t
		JOIN test_case_tags tct ON t.id = tct.tag_id
		GROUP BY t.id
		ORDER BY usage_count DESC, t.tag_name ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// RecentActivity groups test cases by the day their file last changed,
// newest day first.
func RecentActivity(ctx context.Context, q Querier, limit int) ([]DayCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := q.QueryContext(ctx, `
		SELECT date(updated_at, 'unixepoch') AS day, COUNT(*)
		FROM test_cases
		WHERE updated_at IS NOT NULL
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []DayCount{}
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CaseComplexity counts parameterized and data-driven test cases.
func CaseComplexity(ctx context.Context, q Querier) (Complexity, error) {
	var (
		c   Complexity
		avg sql.NullFloat64
	)
	err := q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(has_variables), 0),
			COALESCE(SUM(has_test_data_links), 0),
			AVG(LENGTH(COALESCE(description, '')))
		FROM test_cases
	`).Scan(&c.Total, &c.WithVariables, &c.WithDataLinks, &avg)
	if err != nil {
		return c, errors.NewInternal(err)
	}
	c.AvgDescriptionLength = avg.Float64
	return c, nil
}

// SuiteKinds counts suites per kind, with the average filter length for
// dynamic suites. Ordered by kind.
func SuiteKinds(ctx context.Context, q Querier) ([]KindStat, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT kind, COUNT(*), AVG(LENGTH(filtering_text))
		FROM test_suites
		GROUP BY kind
		ORDER BY kind
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []KindStat{}
	for rows.Next() {
		var (
			k   KindStat
			avg sql.NullFloat64
		)
		if err := rows.Scan(&k.Kind, &k.Count, &avg); err != nil {
			return nil, errors.NewInternal(err)
		}
		k.AvgFilterLength = avg.Float64
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// InsertIngestRun records a finished ingestion.
func InsertIngestRun(ctx context.Context, q Querier, r IngestRun) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, root, started_at, finished_at, test_cases, test_suites, warnings, pruned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Root, r.StartedAt, r.FinishedAt, r.TestCases, r.TestSuites, r.Warnings, r.Pruned)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListIngestRuns returns the most recent ingestions first. ULIDs sort by
// time, so ordering by id is ordering by start.
func ListIngestRuns(ctx context.Context, q Querier, limit int) ([]IngestRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, root, started_at, finished_at, test_cases, test_suites, warnings, pruned
		FROM ingest_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []IngestRun{}
	for rows.Next() {
		var r IngestRun
		if err := rows.Scan(&r.ID, &r.Root, &r.StartedAt, &r.FinishedAt,
			&r.TestCases, &r.TestSuites, &r.Warnings, &r.Pruned); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
