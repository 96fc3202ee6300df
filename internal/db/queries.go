package db

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/errors"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertTestCase inserts or updates a test case keyed by GUID and replaces
// its tag rows. Sets tc.ID to the row id.
func UpsertTestCase(ctx context.Context, q Querier, tc *artifact.TestCase, runID string) error {
	query := `
		INSERT INTO test_cases (
			guid, name, description, tags, relative_path,
			has_test_data_links, has_variables, updated_at, run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			tags = excluded.tags,
			relative_path = excluded.relative_path,
			has_test_data_links = excluded.has_test_data_links,
			has_variables = excluded.has_variables,
			updated_at = excluded.updated_at,
			run_id = excluded.run_id
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		tc.GUID, tc.Name, toNullString(tc.Description), toNullString(artifact.JoinTags(tc.Tags)), tc.Path,
		tc.HasDataLinks, tc.HasVariables, toNullInt(tc.UpdatedAt), runID,
	).Scan(&tc.ID)
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM test_case_tags WHERE test_case_id = ?`, tc.ID); err != nil {
		return errors.NewInternal(err)
	}
	for _, tag := range tc.Tags {
		var tagID int64
		err := q.QueryRowContext(ctx, `
			INSERT INTO tags (tag_name) VALUES (?)
			ON CONFLICT(tag_name) DO UPDATE SET tag_name = excluded.tag_name
			RETURNING id
		`, tag).Scan(&tagID)
		if err != nil {
			return errors.NewInternal(err)
		}
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO test_case_tags (test_case_id, tag_id) VALUES (?, ?)`,
			tc.ID, tagID,
		); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// ResolveCaseRef returns the id of the case stored at relPath, or 0. A row
// written by runID wins over older rows at the same path, which a prune of
// that run would delete.
func ResolveCaseRef(ctx context.Context, q Querier, relPath, runID string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM test_cases WHERE relative_path = ?
		ORDER BY CASE WHEN run_id = ? THEN 0 ELSE 1 END, id
		LIMIT 1
	`, relPath, runID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// UpsertSuite inserts or updates a suite keyed by GUID and replaces its link
// rows. Each ref is resolved to a case id through its relative path,
// preferring cases written by runID; refs
// that resolve to nothing are stored with a NULL case id. Sets s.ID.
func UpsertSuite(ctx context.Context, q Querier, s *artifact.Suite, refs []artifact.CaseRef, runID string) error {
	query := `
		INSERT INTO test_suites (
			guid, name, description, tags, relative_path, kind, filtering_text,
			is_rerun, mail_recipient, number_of_rerun, page_load_timeout,
			rerun_failed_only, rerun_immediately,
			execution_mode, max_concurrent_instances, delay_between_instances,
			updated_at, run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guid) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			tags = excluded.tags,
			relative_path = excluded.relative_path,
			kind = excluded.kind,
			filtering_text = excluded.filtering_text,
			is_rerun = excluded.is_rerun,
			mail_recipient = excluded.mail_recipient,
			number_of_rerun = excluded.number_of_rerun,
			page_load_timeout = excluded.page_load_timeout,
			rerun_failed_only = excluded.rerun_failed_only,
			rerun_immediately = excluded.rerun_immediately,
			execution_mode = excluded.execution_mode,
			max_concurrent_instances = excluded.max_concurrent_instances,
			delay_between_instances = excluded.delay_between_instances,
			updated_at = excluded.updated_at,
			run_id = excluded.run_id
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		s.GUID, s.Name, toNullString(s.Description), toNullString(artifact.JoinTags(s.Tags)), s.Path,
		string(s.Kind), toNullString(s.Filter),
		s.IsRerun, toNullString(s.MailRecipient), s.NumberOfRerun, s.PageLoadTimeout,
		s.RerunFailedOnly, s.RerunImmediately,
		toNullString(s.ExecutionMode), s.MaxConcurrentInstances, s.DelayBetweenInstances,
		toNullInt(s.UpdatedAt), runID,
	).Scan(&s.ID)
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM test_suite_case_links WHERE test_suite_id = ?`, s.ID); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM test_suite_collection_links WHERE collection_id = ?`, s.ID); err != nil {
		return errors.NewInternal(err)
	}

	for _, ref := range refs {
		caseID, err := ResolveCaseRef(ctx, q, artifact.CasePathForReference(ref.TestCaseID), runID)
		if err != nil {
			return err
		}
		var caseCol sql.NullInt64
		if caseID != 0 {
			caseCol = sql.NullInt64{Int64: caseID, Valid: true}
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO test_suite_case_links (
				test_suite_id, link_guid, test_case_ref, test_case_id, is_reuse_driver, is_run
			) VALUES (?, ?, ?, ?, ?, ?)
		`, s.ID, toNullString(ref.GUID), ref.TestCaseID, caseCol, ref.IsReuseDriver, ref.IsRun); err != nil {
			return errors.NewInternal(err)
		}
	}

	for i, m := range s.Collection {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO test_suite_collection_links (
				collection_id, position, suite_path, run_enabled,
				group_name, profile_name, require_config_data, run_configuration_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, s.ID, i, m.SuitePath, m.RunEnabled,
			toNullString(m.GroupName), toNullString(m.ProfileName), m.RequireConfigData, toNullString(m.RunConfigurationID),
		); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// PruneStale deletes cases and suites not touched by runID, then drops
// orphaned tags. Returns the number of cases and suites removed.
func PruneStale(ctx context.Context, q Querier, runID string) (int, error) {
	removed := 0
	for _, stmt := range []string{
		`DELETE FROM test_suites WHERE run_id != ?`,
		`DELETE FROM test_cases WHERE run_id != ?`,
	} {
		res, err := q.ExecContext(ctx, stmt, runID)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		removed += int(n)
	}
	if err := DeleteOrphanTags(ctx, q); err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteOrphanTags removes tags no test case uses.
func DeleteOrphanTags(ctx context.Context, q Querier) error {
	_, err := q.ExecContext(ctx, `DELETE FROM tags WHERE id NOT IN (SELECT tag_id FROM test_case_tags)`)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetTestCase retrieves a test case by row id.
func GetTestCase(ctx context.Context, q Querier, id int64) (*artifact.TestCase, error) {
	row := q.QueryRowContext(ctx, selectTestCases+` WHERE id = ?`, id)
	tc, err := scanTestCase(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("test case", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return tc, nil
}

// FindTestCase retrieves a test case by GUID or relative path.
// A path may omit the ".tc" suffix.
func FindTestCase(ctx context.Context, q Querier, ref string) (*artifact.TestCase, error) {
	row := q.QueryRowContext(ctx,
		selectTestCases+` WHERE guid = ? OR relative_path = ? ORDER BY id LIMIT 1`,
		artifact.NormalizeGUID(ref), artifact.CasePathForReference(ref),
	)
	tc, err := scanTestCase(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("test case", ref)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return tc, nil
}

const selectTestCases = `
	SELECT id, guid, name, description, tags, relative_path,
		has_test_data_links, has_variables, updated_at
	FROM test_cases`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTestCase(row rowScanner) (*artifact.TestCase, error) {
	var (
		tc          artifact.TestCase
		description sql.NullString
		tags        sql.NullString
		updatedAt   sql.NullInt64
	)
	err := row.Scan(
		&tc.ID, &tc.GUID, &tc.Name, &description, &tags, &tc.Path,
		&tc.HasDataLinks, &tc.HasVariables, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	tc.Description = description.String
	tc.Tags = artifact.SplitTags(tags.String)
	tc.UpdatedAt = updatedAt.Int64
	return &tc, nil
}

// toNullString maps "" to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// toNullInt maps 0 to NULL.
func toNullInt(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
