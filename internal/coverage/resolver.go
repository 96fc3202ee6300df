package coverage

import (
	"slices"
	"sort"

	"github.com/hpungsan/suitecov/internal/artifact"
)

// Snapshot is an isolated, read-only view of the corpus.
type Snapshot struct {
	Cases  []artifact.TestCase
	Suites []artifact.Suite
	// Links are static membership rows. CaseID is 0 for references that did
	// not resolve to an ingested case.
	Links []artifact.Link
}

// Resolver answers coverage questions over one Snapshot. It copies the
// snapshot on construction, so its memoized match sets stay valid for its
// whole lifetime. A Resolver is not safe for concurrent use.
type Resolver struct {
	cases  []artifact.TestCase
	suites []artifact.Suite

	caseIdx  map[int64]int
	suiteIdx map[int64]int

	// static suite id -> linked case ids present in the corpus
	explicit     map[int64]Set
	// static suite id -> number of link rows
	linkRows     map[int64]int
	// static suite id -> number of link rows naming a case in the corpus
	resolvedRows map[int64]int

	// filter text -> match set
	matches map[string]Set
	global  Set
}

// ModuleStat is covered/total for one grouping key.
type ModuleStat struct {
	Key     string  `json:"key"`
	Name    string  `json:"name,omitempty"`
	Covered int     `json:"covered"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// CaseCoverage is the coverage answer for a single test case id.
type CaseCoverage struct {
	CaseID  int64               `json:"case_id"`
	Found   bool                `json:"found"`
	Covered bool                `json:"covered"`
	Suites  []artifact.SuiteRef `json:"suites"`
}

// NewResolver validates every suite and builds a resolver over a private
// copy of snap. A structurally invalid suite is an INVALID_SUITE error.
func NewResolver(snap Snapshot) (*Resolver, error) {
	r := &Resolver{
		cases:    slices.Clone(snap.Cases),
		suites:   slices.Clone(snap.Suites),
		caseIdx:  make(map[int64]int, len(snap.Cases)),
		suiteIdx: make(map[int64]int, len(snap.Suites)),
		explicit: make(map[int64]Set),
		linkRows: make(map[int64]int),
		matches:  make(map[string]Set),

		resolvedRows: make(map[int64]int),
	}

	for i := range r.suites {
		if err := artifact.ValidateSuite(&r.suites[i]); err != nil {
			return nil, err
		}
		r.suiteIdx[r.suites[i].ID] = i
	}
	for i := range r.cases {
		r.caseIdx[r.cases[i].ID] = i
	}

	for _, l := range snap.Links {
		s, ok := r.suite(l.SuiteID)
		if !ok || s.Kind != artifact.KindStatic {
			continue
		}
		r.linkRows[l.SuiteID]++
		if _, ok := r.caseIdx[l.CaseID]; !ok {
			continue
		}
		r.resolvedRows[l.SuiteID]++
		set, ok := r.explicit[l.SuiteID]
		if !ok {
			set = make(Set)
			r.explicit[l.SuiteID] = set
		}
		set.Add(l.CaseID)
	}
	return r, nil
}

func (r *Resolver) suite(id int64) (*artifact.Suite, bool) {
	i, ok := r.suiteIdx[id]
	if !ok {
		return nil, false
	}
	return &r.suites[i], true
}

// Cases returns the corpus in snapshot order.
func (r *Resolver) Cases() []artifact.TestCase {
	return slices.Clone(r.cases)
}

// Suites returns every suite in snapshot order.
func (r *Resolver) Suites() []artifact.Suite {
	return slices.Clone(r.suites)
}

// Case looks up a test case by id.
func (r *Resolver) Case(id int64) (artifact.TestCase, bool) {
	i, ok := r.caseIdx[id]
	if !ok {
		return artifact.TestCase{}, false
	}
	return r.cases[i], true
}

// Suite looks up a suite by id.
func (r *Resolver) Suite(id int64) (artifact.Suite, bool) {
	s, ok := r.suite(id)
	if !ok {
		return artifact.Suite{}, false
	}
	return *s, true
}

// filterMatches returns the memoized match set for filter. Callers must
// not modify the result.
func (r *Resolver) filterMatches(filter string) Set {
	if set, ok := r.matches[filter]; ok {
		return set
	}
	set := MatchPredicate(filter, r.cases)
	r.matches[filter] = set
	return set
}

// suiteSet returns the shared (not copied) member set of a suite.
func (r *Resolver) suiteSet(s *artifact.Suite) Set {
	switch s.Kind {
	case artifact.KindStatic:
		return r.explicit[s.ID]
	case artifact.KindDynamic:
		return r.filterMatches(s.Filter)
	}
	return nil
}

// SuiteMatches returns the cases covered by one suite: explicit links for a
// static suite, predicate matches for a dynamic suite, and nothing for a
// collection or an unknown id.
func (r *Resolver) SuiteMatches(suiteID int64) Set {
	s, ok := r.suite(suiteID)
	if !ok {
		return make(Set)
	}
	return make(Set).Union(r.suiteSet(s))
}

// ExplicitCoverage is the union of every static suite's linked cases.
func (r *Resolver) ExplicitCoverage() Set {
	out := make(Set)
	for _, set := range r.explicit {
		for id := range set {
			out.Add(id)
		}
	}
	return out
}

// DynamicCoverage is the union of every dynamic suite's match set.
func (r *Resolver) DynamicCoverage() Set {
	out := make(Set)
	for i := range r.suites {
		if r.suites[i].Kind != artifact.KindDynamic {
			continue
		}
		for id := range r.filterMatches(r.suites[i].Filter) {
			out.Add(id)
		}
	}
	return out
}

func (r *Resolver) globalSet() Set {
	if r.global == nil {
		r.global = r.ExplicitCoverage().Union(r.DynamicCoverage())
	}
	return r.global
}

// GlobalCoverage returns every case covered by at least one suite.
// A case both linked and matched counts once.
func (r *Resolver) GlobalCoverage() Set {
	return make(Set).Union(r.globalSet())
}

// IsCovered reports whether id is in the global coverage set. Unknown ids
// are uncovered.
func (r *Resolver) IsCovered(id int64) bool {
	return r.globalSet().Has(id)
}

// EffectiveSuiteSize is the number of link rows for a static suite, the
// match count for a dynamic suite, and 0 for a collection or unknown id.
func (r *Resolver) EffectiveSuiteSize(suiteID int64) int {
	s, ok := r.suite(suiteID)
	if !ok {
		return 0
	}
	switch s.Kind {
	case artifact.KindStatic:
		return r.linkRows[s.ID]
	case artifact.KindDynamic:
		return r.filterMatches(s.Filter).Len()
	}
	return 0
}

// ResolvedSuiteSize is EffectiveSuiteSize without the static link rows
// whose case is not in the corpus. For a dynamic suite the two are equal.
func (r *Resolver) ResolvedSuiteSize(suiteID int64) int {
	s, ok := r.suite(suiteID)
	if !ok {
		return 0
	}
	if s.Kind == artifact.KindStatic {
		return r.resolvedRows[s.ID]
	}
	return r.EffectiveSuiteSize(suiteID)
}

// TotalExecutions counts case references across suites: every static link
// row plus every dynamic match. A case in two suites counts twice.
func (r *Resolver) TotalExecutions() int {
	total := 0
	for i := range r.suites {
		total += r.EffectiveSuiteSize(r.suites[i].ID)
	}
	return total
}

// ModuleCoverage groups cases by key and reports covered/total per group,
// ordered by total descending then key.
func (r *Resolver) ModuleCoverage(key func(artifact.TestCase) string) []ModuleStat {
	global := r.globalSet()
	byKey := make(map[string]*ModuleStat)
	for i := range r.cases {
		k := key(r.cases[i])
		st, ok := byKey[k]
		if !ok {
			st = &ModuleStat{Key: k}
			byKey[k] = st
		}
		st.Total++
		if global.Has(r.cases[i].ID) {
			st.Covered++
		}
	}

	out := make([]ModuleStat, 0, len(byKey))
	for _, st := range byKey {
		st.Percent = Percent(st.Covered, st.Total)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// CaseCoverage reports whether caseID is covered and by which suites,
// ordered by suite name then id.
func (r *Resolver) CaseCoverage(caseID int64) CaseCoverage {
	cc := CaseCoverage{CaseID: caseID, Suites: []artifact.SuiteRef{}}
	if _, ok := r.caseIdx[caseID]; !ok {
		return cc
	}
	cc.Found = true
	cc.Suites = r.coveringSuites(caseID)
	cc.Covered = len(cc.Suites) > 0
	return cc
}

func (r *Resolver) coveringSuites(caseID int64) []artifact.SuiteRef {
	refs := []artifact.SuiteRef{}
	for i := range r.suites {
		if r.suiteSet(&r.suites[i]).Has(caseID) {
			refs = append(refs, r.suites[i].Ref())
		}
	}
	sortRefs(refs)
	return refs
}

// Uncovered returns the cases outside the global coverage set, by name then id.
func (r *Resolver) Uncovered() []artifact.TestCase {
	global := r.globalSet()
	out := []artifact.TestCase{}
	for i := range r.cases {
		if !global.Has(r.cases[i].ID) {
			out = append(out, r.cases[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortRefs(refs []artifact.SuiteRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].ID < refs[j].ID
	})
}

// Percent returns part/total as a percentage, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// ResolveGlobalCoverage builds a one-shot Resolver and returns its global set.
func ResolveGlobalCoverage(cases []artifact.TestCase, suites []artifact.Suite, links []artifact.Link) (Set, error) {
	r, err := NewResolver(Snapshot{Cases: cases, Suites: suites, Links: links})
	if err != nil {
		return nil, err
	}
	return r.GlobalCoverage(), nil
}

// EffectiveSuiteSize computes the effective size of a single suite.
func EffectiveSuiteSize(suite artifact.Suite, cases []artifact.TestCase, links []artifact.Link) (int, error) {
	if err := artifact.ValidateSuite(&suite); err != nil {
		return 0, err
	}
	switch suite.Kind {
	case artifact.KindStatic:
		n := 0
		for _, l := range links {
			if l.SuiteID == suite.ID {
				n++
			}
		}
		return n, nil
	case artifact.KindDynamic:
		return MatchPredicate(suite.Filter, cases).Len(), nil
	}
	return 0, nil
}
