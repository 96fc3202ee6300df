package coverage

import (
	"sort"
	"strings"

	"github.com/hpungsan/suitecov/internal/artifact"
)

// ReusedCase is a test case that appears in more than one suite.
type ReusedCase struct {
	Case   artifact.TestCase   `json:"case"`
	Count  int                 `json:"count"`
	Suites []artifact.SuiteRef `json:"suites"`
}

// SuiteSize is a suite with its effective size. Resolved leaves out
// static links whose case is not in the corpus.
type SuiteSize struct {
	Suite    artifact.SuiteRef `json:"suite"`
	Filter   string            `json:"filter,omitempty"`
	Size     int               `json:"size"`
	Resolved int               `json:"resolved"`
}

// Inventory splits static and dynamic suites by whether they cover anything.
// Collections are not part of it.
type Inventory struct {
	Empty  []SuiteSize `json:"empty"`
	Active []SuiteSize `json:"active"`
}

// MemberStatus is one collection member with the suite it resolves to.
type MemberStatus struct {
	artifact.CollectionMember
	Resolved bool  `json:"resolved"`
	SuiteID  int64 `json:"suite_id,omitempty"`
	Size     int   `json:"size"`
}

// CollectionSummary describes a collection and its members.
type CollectionSummary struct {
	Suite                  artifact.SuiteRef `json:"suite"`
	ExecutionMode          string            `json:"execution_mode,omitempty"`
	MaxConcurrentInstances int               `json:"max_concurrent_instances,omitempty"`
	Members                []MemberStatus    `json:"members"`
	Enabled                int               `json:"enabled"`
	Empty                  bool              `json:"empty"`
}

// ReusedCases returns the cases covered by more than one suite, counting
// each static suite that links a case once and each dynamic suite that
// matches it once. Ordered by count descending, then name, then id.
func (r *Resolver) ReusedCases() []ReusedCase {
	counts := make(map[int64]int)
	for i := range r.suites {
		for id := range r.suiteSet(&r.suites[i]) {
			counts[id]++
		}
	}

	out := []ReusedCase{}
	for id, n := range counts {
		if n < 2 {
			continue
		}
		out = append(out, ReusedCase{
			Case:   r.cases[r.caseIdx[id]],
			Count:  n,
			Suites: r.coveringSuites(id),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Case.Name != out[j].Case.Name {
			return out[i].Case.Name < out[j].Case.Name
		}
		return out[i].Case.ID < out[j].Case.ID
	})
	return out
}

// SuiteInventory classifies every static and dynamic suite as empty or
// active by effective size. Both lists are ordered by name then id.
func (r *Resolver) SuiteInventory() Inventory {
	inv := Inventory{Empty: []SuiteSize{}, Active: []SuiteSize{}}
	for i := range r.suites {
		s := &r.suites[i]
		if s.Kind == artifact.KindCollection {
			continue
		}
		ss := SuiteSize{
			Suite:    s.Ref(),
			Filter:   s.Filter,
			Size:     r.EffectiveSuiteSize(s.ID),
			Resolved: r.ResolvedSuiteSize(s.ID),
		}
		if ss.Size == 0 {
			inv.Empty = append(inv.Empty, ss)
		} else {
			inv.Active = append(inv.Active, ss)
		}
	}
	sortSizes(inv.Empty)
	sortSizes(inv.Active)
	return inv
}

func sortSizes(sizes []SuiteSize) {
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].Suite.Name != sizes[j].Suite.Name {
			return sizes[i].Suite.Name < sizes[j].Suite.Name
		}
		return sizes[i].Suite.ID < sizes[j].Suite.ID
	})
}

// CollectionInventory lists every collection, ordered by name then id.
// A member resolves when a suite exists at its path with a ".ts" suffix.
func (r *Resolver) CollectionInventory() []CollectionSummary {
	byPath := make(map[string]*artifact.Suite, len(r.suites))
	for i := range r.suites {
		byPath[strings.TrimSuffix(r.suites[i].Path, ".ts")] = &r.suites[i]
	}

	out := []CollectionSummary{}
	for i := range r.suites {
		s := &r.suites[i]
		if s.Kind != artifact.KindCollection {
			continue
		}
		cs := CollectionSummary{
			Suite:                  s.Ref(),
			ExecutionMode:          s.ExecutionMode,
			MaxConcurrentInstances: s.MaxConcurrentInstances,
			Members:                make([]MemberStatus, 0, len(s.Collection)),
			Empty:                  len(s.Collection) == 0,
		}
		for _, m := range s.Collection {
			ms := MemberStatus{CollectionMember: m}
			if target, ok := byPath[strings.TrimSuffix(m.SuitePath, ".ts")]; ok {
				ms.Resolved = true
				ms.SuiteID = target.ID
				ms.Size = r.EffectiveSuiteSize(target.ID)
			}
			if m.RunEnabled {
				cs.Enabled++
			}
			cs.Members = append(cs.Members, ms)
		}
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Suite.Name != out[j].Suite.Name {
			return out[i].Suite.Name < out[j].Suite.Name
		}
		return out[i].Suite.ID < out[j].Suite.ID
	})
	return out
}

// FindReusedCases builds a one-shot Resolver and returns its reused cases.
func FindReusedCases(cases []artifact.TestCase, suites []artifact.Suite, links []artifact.Link) ([]ReusedCase, error) {
	r, err := NewResolver(Snapshot{Cases: cases, Suites: suites, Links: links})
	if err != nil {
		return nil, err
	}
	return r.ReusedCases(), nil
}
