package ops

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/suitecov/internal/db"
)

func caseXML(guid, name, tags string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<TestCaseEntity>
   <description>%s</description>
   <name>%s</name>
   <tag>%s</tag>
   <testCaseGuid>%s</testCaseGuid>
</TestCaseEntity>`, name, name, tags, guid)
}

func staticSuiteXML(guid, name string, refs ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<TestSuiteEntity>
   <name>%s</name>
   <pageLoadTimeout>30</pageLoadTimeout>
   <testSuiteGuid>%s</testSuiteGuid>
`, name, guid)
	for _, ref := range refs {
		fmt.Fprintf(&b, `   <testCaseLink>
      <isRun>true</isRun>
      <testCaseId>%s</testCaseId>
   </testCaseLink>
`, ref)
	}
	b.WriteString(`</TestSuiteEntity>`)
	return b.String()
}

func dynamicSuiteXML(guid, name, filter string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<FilteringTestSuiteEntity>
   <name>%s</name>
   <testSuiteGuid>%s</testSuiteGuid>
   <filteringText>%s</filteringText>
</FilteringTestSuiteEntity>`, name, guid, filter)
}

const nightlyXML = `<?xml version="1.0" encoding="UTF-8"?>
<TestSuiteCollectionEntity>
   <name>Nightly</name>
   <executionMode>SEQUENTIAL</executionMode>
   <testSuiteRunConfigurations>
      <TestSuiteRunConfiguration>
         <configuration>
            <profileName>default</profileName>
            <runConfigurationId>Chrome</runConfigurationId>
         </configuration>
         <runEnabled>true</runEnabled>
         <testSuiteEntity>Test Suites/Smoke</testSuiteEntity>
      </TestSuiteRunConfiguration>
      <TestSuiteRunConfiguration>
         <configuration>
            <profileName>default</profileName>
            <runConfigurationId>Chrome</runConfigurationId>
         </configuration>
         <runEnabled>false</runEnabled>
         <testSuiteEntity>Test Suites/Nope</testSuiteEntity>
      </TestSuiteRunConfiguration>
   </testSuiteRunConfigurations>
</TestSuiteCollectionEntity>`

// fixtureFiles is a small project:
//
//	AC-Login  api,smoke,p1  linked by Smoke, matched by API
//	AC-Logout api           matched by API
//	BB-Cart   ui,p1         linked by Smoke
//	BB-Pay    ui,p2         uncovered
//	ZZ-Lone   (no tags)     uncovered
//
// plus one unparseable case file, an empty static suite and a collection.
func fixtureFiles() map[string]string {
	return map[string]string{
		"Test Cases/Auth/Login/AC-Login.tc":  caseXML("11111111-0000-0000-0000-000000000001", "AC-Login", "api, smoke, p1"),
		"Test Cases/Auth/Login/AC-Logout.tc": caseXML("11111111-0000-0000-0000-000000000002", "AC-Logout", "api"),
		"Test Cases/Shop/Cart/BB-Cart.tc":    caseXML("11111111-0000-0000-0000-000000000003", "BB-Cart", "ui,p1"),
		"Test Cases/Shop/Cart/BB-Pay.tc":     caseXML("11111111-0000-0000-0000-000000000004", "BB-Pay", "ui,p2"),
		"Test Cases/Misc/ZZ-Lone.tc":         caseXML("11111111-0000-0000-0000-000000000005", "ZZ-Lone", ""),
		"Test Cases/Broken.tc":               "<TestCaseEntity><name>broken",
		"Test Suites/Smoke.ts": staticSuiteXML("22222222-0000-0000-0000-000000000001", "Smoke",
			"Test Cases/Auth/Login/AC-Login", "Test Cases/Shop/Cart/BB-Cart", "Test Cases/Gone/Missing"),
		"Test Suites/API.ts":     dynamicSuiteXML("22222222-0000-0000-0000-000000000002", "API", "tag=(api)"),
		"Test Suites/Empty.ts":   staticSuiteXML("22222222-0000-0000-0000-000000000003", "Empty"),
		"Test Suites/Nightly.ts": nightlyXML,
	}
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	return root
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// ingestFixture ingests fixtureFiles into a fresh database.
func ingestFixture(t *testing.T) (*sql.DB, string) {
	t.Helper()
	database := openTestDB(t)
	root := writeProject(t, fixtureFiles())
	if _, err := Ingest(context.Background(), database, IngestInput{Root: root}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	return database, root
}
