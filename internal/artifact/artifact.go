package artifact

// RootCases is the fixed top-level folder that holds test case files.
const RootCases = "Test Cases"

// RootSuites is the fixed top-level folder that holds test suite files.
const RootSuites = "Test Suites"

// SuiteKind classifies how a suite selects its test cases.
type SuiteKind string

const (
	// KindStatic suites enumerate their test cases explicitly.
	KindStatic SuiteKind = "static"
	// KindDynamic suites select test cases with a filter expression.
	KindDynamic SuiteKind = "dynamic"
	// KindCollection suites run other suites and hold no test cases directly.
	KindCollection SuiteKind = "collection"
)

// XML root element names for each suite kind.
const (
	EntityStatic     = "TestSuiteEntity"
	EntityDynamic    = "FilteringTestSuiteEntity"
	EntityCollection = "TestSuiteCollectionEntity"
	EntityTestCase   = "TestCaseEntity"
)

// KindFromEntity maps an XML root element name to a SuiteKind.
// The second return value is false for unknown roots.
func KindFromEntity(entity string) (SuiteKind, bool) {
	switch entity {
	case EntityStatic:
		return KindStatic, true
	case EntityDynamic:
		return KindDynamic, true
	case EntityCollection:
		return KindCollection, true
	}
	return "", false
}

// Alias returns the UI-friendly name of the kind.
func (k SuiteKind) Alias() string {
	switch k {
	case KindStatic:
		return "Test Suite"
	case KindDynamic:
		return "Dynamic Test Suite"
	case KindCollection:
		return "Test Suite Collection"
	}
	return "Unknown"
}

// Valid reports whether k is one of the known kinds.
func (k SuiteKind) Valid() bool {
	return k == KindStatic || k == KindDynamic || k == KindCollection
}

// TestCase is one ingested test case record.
type TestCase struct {
	// ID is the database row id
	ID int64 `json:"id"`

	// GUID is the durable external key used to detect re-ingestion
	GUID string `json:"guid"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Tags are ordered, case-sensitive, trimmed and non-empty
	Tags []string `json:"tags,omitempty"`

	// Path is slash-delimited and rooted at RootCases, e.g. "Test Cases/Login/Valid.tc"
	Path string `json:"path"`

	HasDataLinks bool `json:"has_data_links,omitempty"`
	HasVariables bool `json:"has_variables,omitempty"`

	// UpdatedAt is the Unix timestamp of the source file modification
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// Suite is one ingested test suite, dynamic suite or collection.
type Suite struct {
	ID          int64     `json:"id"`
	GUID        string    `json:"guid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Path        string    `json:"path"`
	Kind        SuiteKind `json:"kind"`

	// Filter is the raw filter expression (dynamic suites only)
	Filter string `json:"filter,omitempty"`

	// Collection lists the member suites (collections only)
	Collection []CollectionMember `json:"collection,omitempty"`

	// Static and dynamic suite run settings
	IsRerun          bool   `json:"is_rerun,omitempty"`
	NumberOfRerun    int    `json:"number_of_rerun,omitempty"`
	PageLoadTimeout  int    `json:"page_load_timeout,omitempty"`
	MailRecipient    string `json:"mail_recipient,omitempty"`
	RerunFailedOnly  bool   `json:"rerun_failed_only,omitempty"`
	RerunImmediately bool   `json:"rerun_immediately,omitempty"`

	// Collection execution settings
	ExecutionMode          string `json:"execution_mode,omitempty"`
	MaxConcurrentInstances int    `json:"max_concurrent_instances,omitempty"`
	DelayBetweenInstances  int    `json:"delay_between_instances,omitempty"`

	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// CollectionMember is a suite reference inside a collection, with its run profile.
type CollectionMember struct {
	SuitePath          string `json:"suite_path"`
	RunEnabled         bool   `json:"run_enabled"`
	GroupName          string `json:"group_name,omitempty"`
	ProfileName        string `json:"profile_name,omitempty"`
	RequireConfigData  bool   `json:"require_config_data,omitempty"`
	RunConfigurationID string `json:"run_configuration_id,omitempty"`
}

// Link is one explicit membership row of a static suite.
type Link struct {
	SuiteID int64 `json:"suite_id"`
	CaseID  int64 `json:"case_id"`
}

// SuiteRef is a compact reference to a suite used in reports.
type SuiteRef struct {
	ID   int64     `json:"id"`
	Name string    `json:"name"`
	Kind SuiteKind `json:"kind"`
	Path string    `json:"path"`
}

// Ref returns the compact reference for s.
func (s *Suite) Ref() SuiteRef {
	return SuiteRef{ID: s.ID, Name: s.Name, Kind: s.Kind, Path: s.Path}
}
