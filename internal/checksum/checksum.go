// Package checksum computes document digests and compares them against
// HTTP-style entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes sum for use in an ETag header.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Normalize strips a weak prefix and surrounding quotes from an entity tag.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`)
}

// Matches reports whether the If-Match style value expected accepts sum.
// An empty value or "*" accepts anything; a comma-separated list accepts any
// member.
func Matches(expected, sum string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" || expected == "*" {
		return true
	}
	for _, tag := range strings.Split(expected, ",") {
		if Normalize(tag) == sum {
			return true
		}
	}
	return false
}
