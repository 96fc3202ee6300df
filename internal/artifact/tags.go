package artifact

import "strings"

// SplitTags splits a comma-joined tag string into trimmed, non-empty tags.
// Order is preserved; duplicates are kept as written.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// JoinTags joins tags back into the stored comma-joined form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
