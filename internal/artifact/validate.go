package artifact

import (
	"strings"

	"github.com/hpungsan/suitecov/internal/errors"
)

// ValidateSuite checks that only the fields owned by the suite's kind are
// populated. Empty filters and empty member lists are valid; they simply
// select nothing.
func ValidateSuite(s *Suite) error {
	name := s.Name
	if name == "" {
		name = s.Path
	}

	hasFilter := strings.TrimSpace(s.Filter) != ""
	hasMembers := len(s.Collection) > 0

	switch s.Kind {
	case KindStatic:
		if hasFilter {
			return errors.NewInvalidSuite(name, "static suite has a filter expression")
		}
		if hasMembers {
			return errors.NewInvalidSuite(name, "static suite has collection members")
		}
	case KindDynamic:
		if hasMembers {
			return errors.NewInvalidSuite(name, "dynamic suite has collection members")
		}
	case KindCollection:
		if hasFilter {
			return errors.NewInvalidSuite(name, "collection has a filter expression")
		}
	default:
		return errors.NewInvalidSuite(name, "unknown suite kind "+string(s.Kind))
	}
	return nil
}
