package artifact

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CaseRef is a test case reference inside a static suite file.
type CaseRef struct {
	GUID          string `json:"guid,omitempty"`
	TestCaseID    string `json:"test_case_id"` // e.g. "Test Cases/Login/Valid"
	IsReuseDriver bool   `json:"is_reuse_driver,omitempty"`
	IsRun         bool   `json:"is_run"`
}

// ParsedSuite is a suite file decoded into its record and static references.
type ParsedSuite struct {
	Suite Suite
	Refs  []CaseRef
}

// entityXML covers the union of elements found in .tc and .ts files.
// Unknown elements are ignored by encoding/xml.
type entityXML struct {
	XMLName xml.Name

	Name          string `xml:"name"`
	Description   string `xml:"description"`
	Tag           string `xml:"tag"`
	TestCaseGUID  string `xml:"testCaseGuid"`
	TestSuiteGUID string `xml:"testSuiteGuid"`

	TestDataLinks []innerXML `xml:"testDataLinks"`
	Variables     []innerXML `xml:"variable"`

	IsRerun                  string `xml:"isRerun"`
	MailRecipient            string `xml:"mailRecipient"`
	NumberOfRerun            string `xml:"numberOfRerun"`
	PageLoadTimeout          string `xml:"pageLoadTimeout"`
	RerunFailedTestCasesOnly string `xml:"rerunFailedTestCasesOnly"`
	RerunImmediately         string `xml:"rerunImmediately"`
	FilteringText            string `xml:"filteringText"`

	TestCaseLinks []caseLinkXML `xml:"testCaseLink"`

	DelayBetweenInstances  string         `xml:"delayBetweenInstances"`
	ExecutionMode          string         `xml:"executionMode"`
	MaxConcurrentInstances string         `xml:"maxConcurrentInstances"`
	RunConfigurations      []runConfigXML `xml:"testSuiteRunConfigurations>TestSuiteRunConfiguration"`
}

type innerXML struct {
	Inner string `xml:",innerxml"`
}

type caseLinkXML struct {
	GUID          string `xml:"guid"`
	TestCaseID    string `xml:"testCaseId"`
	IsReuseDriver string `xml:"isReuseDriver"`
	IsRun         string `xml:"isRun"`
}

type runConfigXML struct {
	TestSuiteEntity string `xml:"testSuiteEntity"`
	RunEnabled      string `xml:"runEnabled"`
	Configuration   struct {
		GroupName                string `xml:"groupName"`
		ProfileName              string `xml:"profileName"`
		RequireConfigurationData string `xml:"requireConfigurationData"`
		RunConfigurationID       string `xml:"runConfigurationId"`
	} `xml:"configuration"`
}

func decodeEntity(r io.Reader) (*entityXML, error) {
	var e entityXML
	if err := xml.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	return &e, nil
}

// ParseTestCase decodes a .tc file. relPath is the slash-separated path
// relative to the project root and modTime the file's Unix mtime.
func ParseTestCase(r io.Reader, relPath string, modTime int64) (*TestCase, error) {
	e, err := decodeEntity(r)
	if err != nil {
		return nil, err
	}
	if e.XMLName.Local != EntityTestCase {
		return nil, fmt.Errorf("%s: root element %q is not %s", relPath, e.XMLName.Local, EntityTestCase)
	}

	guid := NormalizeGUID(e.TestCaseGUID)
	if guid == "" {
		guid = DerivedGUID(relPath)
	}

	return &TestCase{
		GUID:         guid,
		Name:         strings.TrimSpace(e.Name),
		Description:  e.Description,
		Tags:         SplitTags(e.Tag),
		Path:         relPath,
		HasDataLinks: len(e.TestDataLinks) > 0,
		HasVariables: len(e.Variables) > 0,
		UpdatedAt:    modTime,
	}, nil
}

// ParseSuite decodes a .ts file of any of the three suite kinds.
func ParseSuite(r io.Reader, relPath string, modTime int64) (*ParsedSuite, error) {
	e, err := decodeEntity(r)
	if err != nil {
		return nil, err
	}
	kind, ok := KindFromEntity(e.XMLName.Local)
	if !ok {
		return nil, fmt.Errorf("%s: root element %q is not a suite entity", relPath, e.XMLName.Local)
	}

	s := Suite{
		Name:        strings.TrimSpace(e.Name),
		Description: e.Description,
		Tags:        SplitTags(e.Tag),
		Path:        relPath,
		Kind:        kind,
		UpdatedAt:   modTime,
	}

	switch kind {
	case KindCollection:
		s.GUID = CollectionGUID(relPath)
		s.ExecutionMode = strings.TrimSpace(e.ExecutionMode)
		s.MaxConcurrentInstances = atoiDefault(e.MaxConcurrentInstances, 1)
		s.DelayBetweenInstances = atoiDefault(e.DelayBetweenInstances, 0)
		for _, rc := range e.RunConfigurations {
			s.Collection = append(s.Collection, CollectionMember{
				SuitePath:          strings.TrimSpace(rc.TestSuiteEntity),
				RunEnabled:         parseBool(rc.RunEnabled),
				GroupName:          rc.Configuration.GroupName,
				ProfileName:        rc.Configuration.ProfileName,
				RequireConfigData:  parseBool(rc.Configuration.RequireConfigurationData),
				RunConfigurationID: rc.Configuration.RunConfigurationID,
			})
		}
		return &ParsedSuite{Suite: s}, nil

	default:
		s.GUID = NormalizeGUID(e.TestSuiteGUID)
		if s.GUID == "" {
			s.GUID = DerivedGUID(relPath)
		}
		s.IsRerun = parseBool(e.IsRerun)
		s.MailRecipient = e.MailRecipient
		s.NumberOfRerun = atoiDefault(e.NumberOfRerun, 0)
		s.PageLoadTimeout = atoiDefault(e.PageLoadTimeout, 30)
		s.RerunFailedOnly = parseBool(e.RerunFailedTestCasesOnly)
		s.RerunImmediately = parseBool(e.RerunImmediately)
	}

	if kind == KindDynamic {
		s.Filter = e.FilteringText
		return &ParsedSuite{Suite: s}, nil
	}

	refs := make([]CaseRef, 0, len(e.TestCaseLinks))
	for _, l := range e.TestCaseLinks {
		refs = append(refs, CaseRef{
			GUID:          strings.TrimSpace(l.GUID),
			TestCaseID:    strings.TrimSpace(l.TestCaseID),
			IsReuseDriver: parseBool(l.IsReuseDriver),
			IsRun:         parseBool(l.IsRun),
		})
	}
	return &ParsedSuite{Suite: s, Refs: refs}, nil
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
