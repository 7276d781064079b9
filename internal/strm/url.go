package strm

import "strings"

const (
	playableSuffix = ".mp4?d=true"
	legacyQuery    = "?d=mp4"
)

// NormalizeURL rewrites a catalog link into the direct-play form ending in
// ".mp4?d=true". Links already in that form are returned unchanged.
func NormalizeURL(u string) string {
	switch {
	case strings.HasSuffix(u, playableSuffix):
		return u
	case strings.Contains(u, legacyQuery):
		return strings.Replace(u, legacyQuery, playableSuffix, 1)
	case strings.HasSuffix(u, ".mp4"):
		return u + "?d=true"
	default:
		return u + playableSuffix
	}
}
