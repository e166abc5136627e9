package types

import "strings"

// LastLabels returns the last n dot-separated labels of host, joined by
// dots. If host has fewer than n labels, the whole host is returned. Used
// by both the periodic filter's relaxed suffix match (§4.3) and the
// periodicity inference host-coalescing step (§4.6.2).
func LastLabels(host string, n int) string {
	labels := strings.Split(host, ".")
	if len(labels) <= n {
		return host
	}
	return strings.Join(labels[len(labels)-n:], ".")
}

// MatchesHostPattern reports whether host matches pattern per §4.3: exact
// match, or (if pattern starts with "*.") a suffix match on pattern[2:].
func MatchesHostPattern(host, pattern string) bool {
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[2:])
	}
	return host == pattern
}
