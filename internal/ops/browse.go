package ops

import (
	"context"
	"database/sql"
	"path"
	"sort"
	"strings"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/config"
	"github.com/hpungsan/suitecov/internal/coverage"
)

// MaxSummaryLength caps BrowseCase.Summary, in runes.
const MaxSummaryLength = 150

// BrowseInput contains parameters for the Browse operation.
type BrowseInput struct {
	Depth  int    // default: config module_depth
	Module string // optional: only this module path and the folders below it
}

// BrowseCase is one test case with its covering suites.
type BrowseCase struct {
	artifact.TestCase

	// Summary is the description up to its step list, truncated
	Summary string              `json:"summary,omitempty"`
	Covered bool                `json:"covered"`
	Suites  []artifact.SuiteRef `json:"suites"`
}

// BrowseFolder groups the cases of one module path.
type BrowseFolder struct {
	Module  string       `json:"module"`
	Name    string       `json:"name"`
	Covered int          `json:"covered"`
	Total   int          `json:"total"`
	Cases   []BrowseCase `json:"cases"`
}

// BrowseOutput lists every test case grouped by module path.
type BrowseOutput struct {
	Depth      int            `json:"depth"`
	Module     string         `json:"module,omitempty"`
	TotalCases int            `json:"total_cases"`
	Folders    []BrowseFolder `json:"folders"`
}

// Browse groups every test case by module path, folders by path and cases
// by name, each with the suites covering it. An unknown Module yields no
// folders.
func Browse(ctx context.Context, database *sql.DB, cfg *config.Config, input BrowseInput) (*BrowseOutput, error) {
	r, err := readResolver(ctx, database)
	if err != nil {
		return nil, err
	}
	return browse(r, orDefault(cfg), input), nil
}

func browse(r *coverage.Resolver, cfg *config.Config, input BrowseInput) *BrowseOutput {
	depth := input.Depth
	if depth <= 0 {
		depth = cfg.ModuleDepth
	}
	if depth <= 0 {
		depth = 2
	}
	filter := strings.TrimSuffix(strings.TrimSpace(input.Module), "/")
	key := moduleKey(depth)

	byModule := make(map[string]*BrowseFolder)
	for _, tc := range r.Cases() {
		module := key(tc)
		if filter != "" && module != filter && !strings.HasPrefix(module, filter+"/") {
			continue
		}
		f, ok := byModule[module]
		if !ok {
			f = &BrowseFolder{Module: module, Name: path.Base(module)}
			byModule[module] = f
		}
		cc := r.CaseCoverage(tc.ID)
		if cc.Suites == nil {
			cc.Suites = []artifact.SuiteRef{}
		}
		f.Cases = append(f.Cases, BrowseCase{
			TestCase: tc,
			Summary:  DescriptionSummary(tc.Description, MaxSummaryLength),
			Covered:  cc.Covered,
			Suites:   cc.Suites,
		})
		f.Total++
		if cc.Covered {
			f.Covered++
		}
	}

	out := &BrowseOutput{Depth: depth, Module: filter, Folders: make([]BrowseFolder, 0, len(byModule))}
	for _, f := range byModule {
		sort.Slice(f.Cases, func(i, j int) bool {
			if f.Cases[i].Name != f.Cases[j].Name {
				return f.Cases[i].Name < f.Cases[j].Name
			}
			return f.Cases[i].ID < f.Cases[j].ID
		})
		out.TotalCases += f.Total
		out.Folders = append(out.Folders, *f)
	}
	sort.Slice(out.Folders, func(i, j int) bool {
		return out.Folders[i].Module < out.Folders[j].Module
	})
	return out
}

// DescriptionSummary returns desc cut before its "Steps:" or "Step:" list,
// on one line and truncated to limit runes with a "..." suffix.
func DescriptionSummary(desc string, limit int) string {
	for _, marker := range []string{"Steps:", "Step:"} {
		if i := strings.Index(desc, marker); i >= 0 {
			desc = desc[:i]
		}
	}
	desc = strings.Join(strings.Fields(desc), " ")
	if r := []rune(desc); limit > 0 && len(r) > limit {
		desc = string(r[:limit]) + "..."
	}
	return desc
}
