package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DirName is the name of both the global base directory (~/.suitecov) and
// the per-repo overlay directory (.suitecov).
const DirName = ".suitecov"

// HomeEnv overrides the global base directory.
const HomeEnv = "SUITECOV_HOME"

// configNames are tried in order inside a config directory.
var configNames = []string{"config.json", "config.yaml", "config.yml"}

// ClassDef is one tag class rule as written in the config file.
type ClassDef struct {
	Tag   string `json:"tag" yaml:"tag"`
	Label string `json:"label" yaml:"label"`
	Order int    `json:"order,omitempty" yaml:"order,omitempty"`

	// Exact requires a whole-tag match instead of a substring match
	Exact bool `json:"exact,omitempty" yaml:"exact,omitempty"`
}

// Config holds application configuration.
type Config struct {
	// ModuleDepth is how many folders below "Test Cases" form a module
	ModuleDepth int `json:"module_depth" yaml:"module_depth"`

	// PriorityClasses bucket cases by priority tag; first rule by order wins.
	// A non-empty overlay list replaces the base list.
	PriorityClasses []ClassDef `json:"priority_classes,omitempty" yaml:"priority_classes,omitempty"`

	// TypeClasses bucket tagged cases by test type.
	TypeClasses []ClassDef `json:"type_classes,omitempty" yaml:"type_classes,omitempty"`

	// TypeClassLimit caps the rows of the type distribution
	TypeClassLimit int `json:"type_class_limit,omitempty" yaml:"type_class_limit,omitempty"`

	// TopTagsLimit caps the tag distribution table
	TopTagsLimit int `json:"top_tags_limit,omitempty" yaml:"top_tags_limit,omitempty"`

	// CriticalTag and CriticalCoverageTarget drive the critical coverage
	// recommendation: warn when fewer than target percent of cases tagged
	// CriticalTag are covered.
	CriticalTag            string  `json:"critical_tag,omitempty" yaml:"critical_tag,omitempty"`
	CriticalCoverageTarget float64 `json:"critical_coverage_target,omitempty" yaml:"critical_coverage_target,omitempty"`

	// DynamicShareHigh and DynamicShareLow are the percentages of dynamic
	// suites above/below which a recommendation is emitted.
	DynamicShareHigh float64 `json:"dynamic_share_high,omitempty" yaml:"dynamic_share_high,omitempty"`
	DynamicShareLow  float64 `json:"dynamic_share_low,omitempty" yaml:"dynamic_share_low,omitempty"`

	// AllowedPaths is an allowlist of directories for metric exports.
	// Paths outside <base>/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for exports.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" yaml:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ModuleDepth: 2,
		PriorityClasses: []ClassDef{
			{Tag: "p1", Label: "P1 (Critical)", Order: 1},
			{Tag: "p2", Label: "P2 (High)", Order: 2},
			{Tag: "p3", Label: "P3 (Medium)", Order: 3},
		},
		TypeClasses: []ClassDef{
			{Tag: "ui", Label: "UI Tests", Order: 1},
			{Tag: "api", Label: "API Tests", Order: 2},
			{Tag: "smoke", Label: "Smoke Tests", Order: 3},
			{Tag: "regression", Label: "Regression Tests", Order: 4},
			{Tag: "integration", Label: "Integration Tests", Order: 5},
		},
		TypeClassLimit:         10,
		TopTagsLimit:           20,
		CriticalTag:            "p1",
		CriticalCoverageTarget: 95,
		DynamicShareHigh:       70,
		DynamicShareLow:        30,
	}
}

// BaseDir returns $SUITECOV_HOME, or ~/.suitecov when unset.
func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// Load loads configuration from baseDir/config.{json,yaml,yml}.
// Returns default config if no file exists.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(findConfigFile(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both the global base directory and
// the nearest repo .suitecov directory found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(findConfigFile(globalDir))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .suitecov config file.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		if path := findConfigFile(filepath.Join(dir, DirName)); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// findConfigFile returns the first existing config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path, choosing the
// decoder by extension. Returns zero-valued config (not defaults) if path is
// empty or the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars and class lists; string arrays
// are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.ModuleDepth = firstNonZero(overlay.ModuleDepth, base.ModuleDepth)
	result.TypeClassLimit = firstNonZero(overlay.TypeClassLimit, base.TypeClassLimit)
	result.TopTagsLimit = firstNonZero(overlay.TopTagsLimit, base.TopTagsLimit)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.CriticalCoverageTarget = firstNonZero(overlay.CriticalCoverageTarget, base.CriticalCoverageTarget)
	result.DynamicShareHigh = firstNonZero(overlay.DynamicShareHigh, base.DynamicShareHigh)
	result.DynamicShareLow = firstNonZero(overlay.DynamicShareLow, base.DynamicShareLow)
	result.CriticalTag = firstNonZero(strings.TrimSpace(overlay.CriticalTag), base.CriticalTag)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Class lists are ordered rule sets; merging them would reorder rules
	result.PriorityClasses = overlay.PriorityClasses
	if len(result.PriorityClasses) == 0 {
		result.PriorityClasses = base.PriorityClasses
	}
	result.TypeClasses = overlay.TypeClasses
	if len(result.TypeClasses) == 0 {
		result.TypeClasses = base.TypeClasses
	}

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstNonZero[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
