package coverage

import (
	"strings"

	"github.com/hpungsan/suitecov/internal/artifact"
)

// Matches reports whether tc satisfies p. A predicate with neither a name
// nor a tag field matches nothing.
//
// name values are prefixes, any one of which must match. tag values must
// all be present as whole elements of tc.Tags. Both fields must hold when
// both are present.
func (p Predicate) Matches(tc artifact.TestCase) bool {
	if !p.constraining() {
		return false
	}

	if names := p.Names(); len(names) > 0 {
		ok := false
		for _, prefix := range names {
			if strings.HasPrefix(tc.Name, prefix) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if tags := p.Tags(); len(tags) > 0 {
		have := make(map[string]struct{}, len(tc.Tags))
		for _, t := range tc.Tags {
			have[t] = struct{}{}
		}
		for _, want := range tags {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}
	return true
}

// Match returns the ids of every case in cases that satisfies p.
func (p Predicate) Match(cases []artifact.TestCase) Set {
	out := make(Set)
	if !p.constraining() {
		return out
	}
	for i := range cases {
		if p.Matches(cases[i]) {
			out.Add(cases[i].ID)
		}
	}
	return out
}

// MatchPredicate parses expr and evaluates it against cases.
func MatchPredicate(expr string, cases []artifact.TestCase) Set {
	return ParsePredicate(expr).Match(cases)
}
