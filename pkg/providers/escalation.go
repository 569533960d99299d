package providers

import "context"

// StealthOptions derives the escalated fetch options from a cheap-path
// options value: a longer render wait and a scroll action, so JS-rendered
// content the cheap path's plain fetch would miss gets a chance to load.
func StealthOptions(cheap ScrapeOptions) ScrapeOptions {
	stealth := cheap
	stealth.WaitMS = 4000
	stealth.Actions = []string{"wait", "scroll"}
	return stealth
}

// ShouldEscalate reports whether a cheap-path failure warrants retrying
// with the stealth path. Config/quota/cancelled/circuit-open failures would
// fail the stealth path identically, so only transient and permanent fetch
// failures escalate.
func ShouldEscalate(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindPermanent:
		return true
	default:
		return false
	}
}

// FetchWithEscalation implements §4.1's cheap-path/stealth-path policy:
// try the cheap path first, and only on a classified failure retry once
// with the escalated stealth options. A cheap-path success never escalates.
func FetchWithEscalation(ctx context.Context, s Scrape, url string, cheap ScrapeOptions) (ScrapeResult, error) {
	res, err := s.Fetch(ctx, url, cheap)
	if err == nil {
		return res, nil
	}
	if !ShouldEscalate(err) {
		return res, err
	}
	return s.Fetch(ctx, url, StealthOptions(cheap))
}
