package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/errors"
)

// ReadTx runs fn inside one transaction. Every query fn issues through q
// sees the same state of the store, even while an ingest commits.
func ReadTx(ctx context.Context, db *sql.DB, fn func(q Querier) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LoadSnapshot reads every case, suite and static link through q. Pass the
// Querier handed out by ReadTx for a consistent snapshot.
func LoadSnapshot(ctx context.Context, q Querier) (coverage.Snapshot, error) {
	var (
		snap coverage.Snapshot
		err  error
	)
	if snap.Cases, err = loadTestCases(ctx, q); err != nil {
		return snap, err
	}
	if snap.Suites, err = loadSuites(ctx, q); err != nil {
		return snap, err
	}
	if snap.Links, err = loadLinks(ctx, q); err != nil {
		return snap, err
	}
	return snap, nil
}

func loadTestCases(ctx context.Context, q Querier) ([]artifact.TestCase, error) {
	rows, err := q.QueryContext(ctx, selectTestCases+` ORDER BY id`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	cases := []artifact.TestCase{}
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		cases = append(cases, *tc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return cases, nil
}

func loadSuites(ctx context.Context, q Querier) ([]artifact.Suite, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, guid, name, description, tags, relative_path, kind, filtering_text,
			is_rerun, mail_recipient, number_of_rerun, page_load_timeout,
			rerun_failed_only, rerun_immediately,
			execution_mode, max_concurrent_instances, delay_between_instances, updated_at
		FROM test_suites
		ORDER BY id
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	suites := []artifact.Suite{}
	index := make(map[int64]int)
	for rows.Next() {
		var (
			s             artifact.Suite
			kind          string
			description   sql.NullString
			tags          sql.NullString
			filter        sql.NullString
			mail          sql.NullString
			executionMode sql.NullString
			updatedAt     sql.NullInt64
		)
		err := rows.Scan(
			&s.ID, &s.GUID, &s.Name, &description, &tags, &s.Path, &kind, &filter,
			&s.IsRerun, &mail, &s.NumberOfRerun, &s.PageLoadTimeout,
			&s.RerunFailedOnly, &s.RerunImmediately,
			&executionMode, &s.MaxConcurrentInstances, &s.DelayBetweenInstances, &updatedAt,
		)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		s.Kind = artifact.SuiteKind(kind)
		s.Description = description.String
		s.Tags = artifact.SplitTags(tags.String)
		s.Filter = filter.String
		s.MailRecipient = mail.String
		s.ExecutionMode = executionMode.String
		s.UpdatedAt = updatedAt.Int64
		index[s.ID] = len(suites)
		suites = append(suites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	rows.Close()

	members, err := q.QueryContext(ctx, `
		SELECT collection_id, suite_path, run_enabled, group_name, profile_name,
			require_config_data, run_configuration_id
		FROM test_suite_collection_links
		ORDER BY collection_id, position
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer members.Close()

	for members.Next() {
		var (
			collectionID int64
			m            artifact.CollectionMember
			group        sql.NullString
			profile      sql.NullString
			runConfig    sql.NullString
		)
		if err := members.Scan(&collectionID, &m.SuitePath, &m.RunEnabled, &group, &profile,
			&m.RequireConfigData, &runConfig); err != nil {
			return nil, errors.NewInternal(err)
		}
		m.GroupName = group.String
		m.ProfileName = profile.String
		m.RunConfigurationID = runConfig.String
		if i, ok := index[collectionID]; ok {
			suites[i].Collection = append(suites[i].Collection, m)
		}
	}
	if err := members.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return suites, nil
}

func loadLinks(ctx context.Context, q Querier) ([]artifact.Link, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT test_suite_id, COALESCE(test_case_id, 0)
		FROM test_suite_case_links
		ORDER BY id
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	links := []artifact.Link{}
	for rows.Next() {
		var l artifact.Link
		if err := rows.Scan(&l.SuiteID, &l.CaseID); err != nil {
			return nil, errors.NewInternal(err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return links, nil
}
