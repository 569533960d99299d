package discovery

import (
	"net/url"
	"strings"
)

// canonicalURL normalizes a URL for dedup purposes: lowercase host, no
// trailing slash, no fragment, no tracking query string.
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "/")
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawQuery = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// dedupeURLs preserves first-seen order while dropping canonical duplicates.
func dedupeURLs(urls []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, u := range urls {
		c := canonicalURL(u)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, u)
	}
	return out
}
