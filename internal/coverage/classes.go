package coverage

import (
	"slices"
	"sort"
	"strings"

	"github.com/hpungsan/suitecov/internal/artifact"
)

// ClassRule assigns a case to Label when its tags contain Tag.
//
// By default Tag is a case-insensitive substring of the comma-joined tag
// string, so "p1" also claims "P1-critical". With Exact set, Tag must equal
// one of the case's tags.
type ClassRule struct {
	Tag   string
	Label string
	Order int
	Exact bool
}

func (cr ClassRule) matches(tc *artifact.TestCase, joined string) bool {
	if cr.Exact {
		return slices.Contains(tc.Tags, cr.Tag)
	}
	return strings.Contains(joined, strings.ToLower(cr.Tag))
}

// ClassSet is one bucketing scheme, such as priority or test type.
type ClassSet struct {
	Rules []ClassRule

	// Fallback labels cases no rule claims.
	Fallback string

	// TaggedOnly drops cases with no tags from the population.
	TaggedOnly bool

	// ByCount orders rows by count descending instead of rule order.
	ByCount bool

	// Limit caps the number of rows; 0 means no cap.
	Limit int
}

// ClassStat is the count and coverage of one class.
type ClassStat struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Covered int     `json:"covered"`
	Percent float64 `json:"percent"`
}

// ClassCoverage buckets every case into the first matching rule (by Order)
// and reports how many of each class are in the global coverage set.
// Classes with no cases are omitted.
func (r *Resolver) ClassCoverage(cs ClassSet) []ClassStat {
	rules := append([]ClassRule(nil), cs.Rules...)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Order < rules[j].Order })

	order := make(map[string]int, len(rules))
	for _, rule := range rules {
		if _, seen := order[rule.Label]; !seen {
			order[rule.Label] = rule.Order
		}
	}

	global := r.globalSet()
	byLabel := make(map[string]*ClassStat)
	for i := range r.cases {
		tc := &r.cases[i]
		if cs.TaggedOnly && len(tc.Tags) == 0 {
			continue
		}
		label := cs.Fallback
		joined := strings.ToLower(artifact.JoinTags(tc.Tags))
		for _, rule := range rules {
			if rule.matches(tc, joined) {
				label = rule.Label
				break
			}
		}
		st, ok := byLabel[label]
		if !ok {
			st = &ClassStat{Label: label}
			byLabel[label] = st
		}
		st.Count++
		if global.Has(tc.ID) {
			st.Covered++
		}
	}

	out := make([]ClassStat, 0, len(byLabel))
	for _, st := range byLabel {
		st.Percent = Percent(st.Covered, st.Count)
		out = append(out, *st)
	}

	rank := func(label string) int {
		if o, ok := order[label]; ok {
			return o
		}
		return int(^uint(0) >> 1)
	}
	sort.Slice(out, func(i, j int) bool {
		if cs.ByCount {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
		} else if ri, rj := rank(out[i].Label), rank(out[j].Label); ri != rj {
			return ri < rj
		}
		return out[i].Label < out[j].Label
	})

	if cs.Limit > 0 && len(out) > cs.Limit {
		out = out[:cs.Limit]
	}
	return out
}

// TagCoverage reports count and coverage of the cases a single rule for tag
// would claim.
func (r *Resolver) TagCoverage(tag string, exact bool) ClassStat {
	rule := ClassRule{Tag: tag, Label: tag, Exact: exact}
	st := ClassStat{Label: tag}
	global := r.globalSet()
	for i := range r.cases {
		tc := &r.cases[i]
		if !rule.matches(tc, strings.ToLower(artifact.JoinTags(tc.Tags))) {
			continue
		}
		st.Count++
		if global.Has(tc.ID) {
			st.Covered++
		}
	}
	st.Percent = Percent(st.Covered, st.Count)
	return st
}
