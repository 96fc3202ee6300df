package artifact

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NormalizeGUID canonicalizes a UUID-shaped GUID to lowercase hyphenated form.
// Values that do not parse as UUIDs are returned trimmed but otherwise untouched.
func NormalizeGUID(guid string) string {
	guid = strings.TrimSpace(guid)
	if guid == "" {
		return ""
	}
	if id, err := uuid.Parse(guid); err == nil {
		return id.String()
	}
	return guid
}

// DerivedGUID returns a stable name-based UUID for artifacts that carry no GUID
// of their own, so re-ingesting the same file updates the same row.
func DerivedGUID(relPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("suitecov:"+relPath)).String()
}

// CollectionGUID returns the identifier used for collections, which have no
// GUID element: "collection_" followed by 8 hex chars of the path's MD5.
func CollectionGUID(path string) string {
	sum := md5.Sum([]byte(path))
	return "collection_" + hex.EncodeToString(sum[:])[:8]
}
