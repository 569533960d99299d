package extract

import "net/url"

// absoluteHref resolves href against the page it was found on.
func absoluteHref(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// dedupeCandidates removes duplicate (name, profileURL) pairs, preserving
// first-seen order.
func dedupeCandidates(in []Candidate) []Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		key := c.Name + "|" + c.ProfileURL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
