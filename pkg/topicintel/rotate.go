// Package topicintel implements Topic Intelligence (§2): Google-dork query
// rotation, concurrent provider fan-out across the rotated queries, and
// structured synthesis of the merged hits into one brief. Research Pipeline
// and the Prospect Discovery Engine both layer it on top of their own
// base queries rather than querying a provider with the same static string
// on every run.
package topicintel

import "fmt"

// Operator is one Google-dork style refinement layered onto a base query.
type Operator struct {
	Name   string
	Suffix string
}

// Operators is the rotation pool. Order matters: Rotate walks it in order.
var Operators = []Operator{
	{Name: "leadership", Suffix: `intitle:"leadership" OR intitle:"team"`},
	{Name: "staff_directory", Suffix: `inurl:staff OR inurl:about`},
	{Name: "recent", Suffix: `after:2024`},
	{Name: "press", Suffix: `inurl:news OR inurl:press`},
	{Name: "filetype_pdf", Suffix: `filetype:pdf`},
}

// Rotate returns the pool entry for index i, wrapping around the pool in
// both directions so negative indices (shouldn't occur, but cheap to guard)
// don't panic.
func Rotate(i int) Operator {
	n := len(Operators)
	return Operators[((i%n)+n)%n]
}

// BuildQuery layers operator op onto base, producing one dork-style query.
func BuildQuery(base string, op Operator) string {
	if op.Suffix == "" {
		return base
	}
	return fmt.Sprintf("%s %s", base, op.Suffix)
}

// WindowIndex buckets a Unix timestamp into a rotation index that advances
// once per windowSeconds. Calls within the same window reuse one query
// shape; calls in the next window rotate forward, so a daily or weekly
// scheduled topic run doesn't repeat an identical query against the same
// provider cache entry every time it fires.
func WindowIndex(unixSeconds, windowSeconds int64) int {
	if windowSeconds <= 0 {
		windowSeconds = 86400
	}
	return int(unixSeconds / windowSeconds)
}
