// Package coverage resolves which test cases are exercised by which suites.
//
// Static suites contribute their explicit link rows; dynamic suites
// contribute the cases matched by their filter predicate. Everything in this
// package is a pure function of an immutable Snapshot.
package coverage

import (
	"regexp"
	"sort"
	"strings"
)

// Predicate field names understood by the matcher. Other field names are
// parsed and kept but never constrain a match.
const (
	FieldName = "name"
	FieldTag  = "tag"
)

var groupPattern = regexp.MustCompile(`(\w+)=\(([^)]*)\)`)

// Predicate maps a field name to its non-empty list of values.
type Predicate map[string][]string

// ParsePredicate extracts every field=(v1,v2,...) group from expr.
// Text outside the groups is ignored. Values are trimmed and empty values
// dropped; a field left with no values is not stored. When a field repeats,
// the last occurrence wins.
func ParsePredicate(expr string) Predicate {
	p := Predicate{}
	for _, m := range groupPattern.FindAllStringSubmatch(expr, -1) {
		var values []string
		for _, v := range strings.Split(m[2], ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			p[m[1]] = values
		}
	}
	return p
}

// IsEmpty reports whether no field was parsed.
func (p Predicate) IsEmpty() bool {
	return len(p) == 0
}

// Names returns the name prefixes (OR).
func (p Predicate) Names() []string {
	return p[FieldName]
}

// Tags returns the required tags (AND).
func (p Predicate) Tags() []string {
	return p[FieldTag]
}

// constraining reports whether p has at least one field the matcher honors.
func (p Predicate) constraining() bool {
	return len(p[FieldName]) > 0 || len(p[FieldTag]) > 0
}

// String renders p in canonical form with fields sorted by name,
// e.g. "name=(AC-) tag=(api,smoke)".
func (p Predicate) String() string {
	fields := make([]string, 0, len(p))
	for f := range p {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f)
		b.WriteString("=(")
		b.WriteString(strings.Join(p[f], ","))
		b.WriteByte(')')
	}
	return b.String()
}
