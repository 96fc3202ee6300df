package artifact

import "strings"

// OtherModule is the group for paths that carry no usable directory.
const OtherModule = "Other"

// directoryParts returns the path segments up to (not including) the file
// name, or nil when the path is not rooted at RootCases.
func directoryParts(path string) []string {
	if !strings.HasPrefix(path, RootCases+"/") {
		return nil
	}
	parts := strings.Split(path, "/")
	if strings.HasSuffix(parts[len(parts)-1], ".tc") {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// effectiveDepth clamps depth to the directories available below the root.
// Returns 0 when the path has no directory below the root.
func effectiveDepth(parts []string, depth int) int {
	available := len(parts) - 1
	if available <= 0 {
		return 0
	}
	if depth < 1 {
		depth = 1
	}
	return min(depth, available)
}

// ModulePath returns the directory path at the given depth below RootCases.
//
//	depth=2: "Test Cases/Platform/Admin/API/test.tc" -> "Test Cases/Platform/Admin"
//	depth=3: "Test Cases/Website/test.tc"            -> "Test Cases/Website"
func ModulePath(path string, depth int) string {
	parts := directoryParts(path)
	d := effectiveDepth(parts, depth)
	if d == 0 {
		return OtherModule
	}
	return strings.Join(parts[:d+1], "/")
}

// ModuleName returns the last segment of ModulePath.
func ModuleName(path string, depth int) string {
	parts := directoryParts(path)
	d := effectiveDepth(parts, depth)
	if d == 0 {
		return OtherModule
	}
	return parts[d]
}

// CasePathForReference converts a static suite's test case reference
// ("Test Cases/Login/Valid") into the stored relative path of the case file.
func CasePathForReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasSuffix(ref, ".tc") {
		return ref
	}
	return ref + ".tc"
}
