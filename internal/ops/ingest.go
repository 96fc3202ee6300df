package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/db"
	"github.com/hpungsan/suitecov/internal/errors"
)

// IngestInput contains parameters for the Ingest operation.
type IngestInput struct {
	Root string // required: project directory holding "Test Cases" and "Test Suites"

	// KeepStale skips pruning of cases and suites whose files are gone
	KeepStale bool

	// Progress, if set, is called after each file with the running count
	Progress func(done, total int)
}

// IngestWarning describes a file that was skipped or altered during ingestion.
type IngestWarning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// IngestOutput contains the result of the Ingest operation.
type IngestOutput struct {
	RunID      string          `json:"run_id"`
	Root       string          `json:"root"`
	TestCases  int             `json:"test_cases"`
	TestSuites int             `json:"test_suites"`
	Links      int             `json:"links"`
	Pruned     int             `json:"pruned"`
	Warnings   []IngestWarning `json:"warnings"`
}

// Ingest walks the project under Root, parses every .tc and .ts file and
// upserts them in one transaction. Cases go first so static suite links can
// resolve to them. A file that cannot be parsed becomes a warning.
func Ingest(ctx context.Context, database *sql.DB, input IngestInput) (*IngestOutput, error) {
	root := strings.TrimSpace(input.Root)
	if root == "" {
		return nil, errors.NewInvalidRequest("root is required")
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid root: %v", err))
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.NewFileNotFound(input.Root)
	}

	out := &IngestOutput{
		RunID:    newRunID(),
		Root:     root,
		Warnings: []IngestWarning{},
	}
	startedAt := time.Now().Unix()

	caseFiles, err := collectFiles(root, artifact.RootCases, ".tc", out)
	if err != nil {
		return nil, err
	}
	suiteFiles, err := collectFiles(root, artifact.RootSuites, ".ts", out)
	if err != nil {
		return nil, err
	}

	total := len(caseFiles) + len(suiteFiles)
	done := 0
	step := func() {
		done++
		if input.Progress != nil {
			input.Progress(done, total)
		}
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	seen := make(map[string]string)
	for _, rel := range caseFiles {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("ingest")
		}
		tc, perr := parseFile(root, rel, artifact.ParseTestCase)
		if perr != nil {
			out.warn(rel, perr.Error())
			step()
			continue
		}
		if first, dup := seen[tc.GUID]; dup {
			out.warn(rel, fmt.Sprintf("duplicate GUID %s (also in %s); using a path-derived GUID", tc.GUID, first))
			tc.GUID = artifact.DerivedGUID(rel)
		}
		seen[tc.GUID] = rel
		if err := db.UpsertTestCase(ctx, tx, tc, out.RunID); err != nil {
			return nil, err
		}
		out.TestCases++
		step()
	}

	clear(seen)
	for _, rel := range suiteFiles {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("ingest")
		}
		ps, perr := parseFile(root, rel, artifact.ParseSuite)
		if perr != nil {
			out.warn(rel, perr.Error())
			step()
			continue
		}
		s := &ps.Suite
		if first, dup := seen[s.GUID]; dup {
			out.warn(rel, fmt.Sprintf("duplicate GUID %s (also in %s); using a path-derived GUID", s.GUID, first))
			s.GUID = artifact.DerivedGUID(rel)
		}
		seen[s.GUID] = rel
		if err := db.UpsertSuite(ctx, tx, s, ps.Refs, out.RunID); err != nil {
			return nil, err
		}
		out.TestSuites++
		out.Links += len(ps.Refs)
		step()
	}

	if !input.KeepStale {
		if out.Pruned, err = db.PruneStale(ctx, tx, out.RunID); err != nil {
			return nil, err
		}
	}

	if err := db.InsertIngestRun(ctx, tx, db.IngestRun{
		ID:         out.RunID,
		Root:       root,
		StartedAt:  startedAt,
		FinishedAt: time.Now().Unix(),
		TestCases:  out.TestCases,
		TestSuites: out.TestSuites,
		Warnings:   len(out.Warnings),
		Pruned:     out.Pruned,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func (o *IngestOutput) warn(path, msg string) {
	o.Warnings = append(o.Warnings, IngestWarning{Path: path, Message: msg})
}

// collectFiles lists files with ext under root/dir as sorted slash paths
// relative to root. A missing dir is a warning, not an error.
func collectFiles(root, dir, ext string, out *IngestOutput) ([]string, error) {
	base := filepath.Join(root, dir)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		out.warn(dir, "directory not found")
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("walk %s: %w", dir, err))
	}
	sort.Strings(files)
	return files, nil
}

func parseFile[T any](root, rel string, parse func(r io.Reader, rel string, modTime int64) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return zero, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return zero, err
	}
	return parse(f, rel, info.ModTime().Unix())
}

func newRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
