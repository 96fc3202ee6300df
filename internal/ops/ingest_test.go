package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/suitecov/internal/db"
	"github.com/hpungsan/suitecov/internal/errors"
)

func TestIngest_Fixture(t *testing.T) {
	database := openTestDB(t)
	root := writeProject(t, fixtureFiles())

	var calls, lastDone, lastTotal int
	out, err := Ingest(context.Background(), database, IngestInput{
		Root: root,
		Progress: func(done, total int) {
			calls++
			lastDone, lastTotal = done, total
		},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if out.TestCases != 5 {
		t.Errorf("TestCases = %d, want 5", out.TestCases)
	}
	if out.TestSuites != 4 {
		t.Errorf("TestSuites = %d, want 4", out.TestSuites)
	}
	if out.Links != 3 {
		t.Errorf("Links = %d, want 3", out.Links)
	}
	if len(out.Warnings) != 1 || out.Warnings[0].Path != "Test Cases/Broken.tc" {
		t.Errorf("Warnings = %+v, want one for Broken.tc", out.Warnings)
	}
	if out.RunID == "" {
		t.Error("RunID is empty")
	}
	if calls != 10 || lastDone != 10 || lastTotal != 10 {
		t.Errorf("progress calls=%d last=(%d,%d), want 10 and (10,10)", calls, lastDone, lastTotal)
	}

	counts, err := db.CountTables(context.Background(), database)
	if err != nil {
		t.Fatalf("CountTables failed: %v", err)
	}
	if counts.UnresolvedLinks != 1 {
		t.Errorf("UnresolvedLinks = %d, want 1", counts.UnresolvedLinks)
	}
	if counts.CollectionLinks != 2 {
		t.Errorf("CollectionLinks = %d, want 2", counts.CollectionLinks)
	}

	runs, err := db.ListIngestRuns(context.Background(), database, 0)
	if err != nil {
		t.Fatalf("ListIngestRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != out.RunID || runs[0].Warnings != 1 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestIngest_TwiceUpdatesInPlace(t *testing.T) {
	database, root := ingestFixture(t)

	before, err := db.CountTables(context.Background(), database)
	if err != nil {
		t.Fatalf("CountTables failed: %v", err)
	}
	out, err := Ingest(context.Background(), database, IngestInput{Root: root})
	if err != nil {
		t.Fatalf("second Ingest failed: %v", err)
	}
	if out.Pruned != 0 {
		t.Errorf("Pruned = %d, want 0", out.Pruned)
	}
	after, err := db.CountTables(context.Background(), database)
	if err != nil {
		t.Fatalf("CountTables failed: %v", err)
	}
	if before != after {
		t.Errorf("counts changed on re-ingest: before %+v, after %+v", before, after)
	}
}

func TestIngest_PrunesRemovedFiles(t *testing.T) {
	database, root := ingestFixture(t)

	if err := os.Remove(filepath.Join(root, "Test Cases", "Shop", "Cart", "BB-Pay.tc")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	kept, err := Ingest(context.Background(), database, IngestInput{Root: root, KeepStale: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if kept.Pruned != 0 {
		t.Errorf("KeepStale: Pruned = %d, want 0", kept.Pruned)
	}
	sum, err := Summary(context.Background(), database)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalCases != 5 {
		t.Errorf("KeepStale: TotalCases = %d, want 5", sum.TotalCases)
	}

	pruned, err := Ingest(context.Background(), database, IngestInput{Root: root})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if pruned.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", pruned.Pruned)
	}
	sum, err = Summary(context.Background(), database)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalCases != 4 {
		t.Errorf("TotalCases = %d, want 4", sum.TotalCases)
	}
}

func TestIngest_GUIDChangeKeepsLinks(t *testing.T) {
	database, root := ingestFixture(t)

	// the case is recreated at the same path with a fresh GUID
	path := filepath.Join(root, "Test Cases", "Shop", "Cart", "BB-Cart.tc")
	recreated := caseXML("11111111-0000-0000-0000-0000000000ff", "BB-Cart", "ui,p1")
	if err := os.WriteFile(path, []byte(recreated), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	out, err := Ingest(context.Background(), database, IngestInput{Root: root})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if out.Pruned != 1 {
		t.Errorf("Pruned = %d, want the old row removed", out.Pruned)
	}

	sum, err := Summary(context.Background(), database)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalCases != 5 {
		t.Errorf("TotalCases = %d, want 5", sum.TotalCases)
	}
	if sum.Covered != 3 {
		t.Errorf("Covered = %d, want 3", sum.Covered)
	}
	if sum.UnresolvedLinks != 1 {
		t.Errorf("UnresolvedLinks = %d, want only the missing case", sum.UnresolvedLinks)
	}

	cs, err := Case(context.Background(), database, nil, CaseInput{Ref: "Test Cases/Shop/Cart/BB-Cart"})
	if err != nil {
		t.Fatalf("Case failed: %v", err)
	}
	if !cs.Covered || len(cs.Suites) != 1 || cs.Suites[0].Name != "Smoke" {
		t.Errorf("BB-Cart coverage = %+v, want covered by Smoke", cs)
	}
}

func TestIngest_DuplicateGUID(t *testing.T) {
	database := openTestDB(t)
	guid := "33333333-0000-0000-0000-000000000001"
	root := writeProject(t, map[string]string{
		"Test Cases/A.tc": caseXML(guid, "A", "x"),
		"Test Cases/B.tc": caseXML(guid, "B", "y"),
	})

	out, err := Ingest(context.Background(), database, IngestInput{Root: root})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if out.TestCases != 2 {
		t.Errorf("TestCases = %d, want 2", out.TestCases)
	}
	if len(out.Warnings) != 2 {
		t.Fatalf("Warnings = %+v, want missing suites dir and duplicate GUID", out.Warnings)
	}
	var dup bool
	for _, w := range out.Warnings {
		if w.Path == "Test Cases/B.tc" && strings.Contains(w.Message, "duplicate GUID") {
			dup = true
		}
	}
	if !dup {
		t.Errorf("no duplicate GUID warning in %+v", out.Warnings)
	}

	sum, err := Summary(context.Background(), database)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalCases != 2 {
		t.Errorf("TotalCases = %d, want both files stored", sum.TotalCases)
	}
}

func TestIngest_InvalidRoot(t *testing.T) {
	database := openTestDB(t)

	_, err := Ingest(context.Background(), database, IngestInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty root: got %v, want INVALID_REQUEST", err)
	}

	_, err = Ingest(context.Background(), database, IngestInput{Root: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing root: got %v, want FILE_NOT_FOUND", err)
	}
}

func TestIngest_Cancelled(t *testing.T) {
	database := openTestDB(t)
	root := writeProject(t, fixtureFiles())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Ingest(ctx, database, IngestInput{Root: root}); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	sum, err := Summary(context.Background(), database)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalCases != 0 {
		t.Errorf("TotalCases = %d, want 0 after rollback", sum.TotalCases)
	}
}
