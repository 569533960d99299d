package research

import (
	"regexp"
	"sort"
	"strings"

	"github.com/outreachforge/prospector/pkg/models"
)

var sentenceSplitRE = regexp.MustCompile(`[\r\n]+|(?:[.!?])\s+`)

// splitKeyPoints breaks raw provider text into short candidate key points,
// dropping anything too short to carry information.
func splitKeyPoints(text string) []string {
	var out []string
	for _, line := range sentenceSplitRE.Split(text, -1) {
		line = strings.TrimSpace(line)
		if len(line) < 15 {
			continue
		}
		out = append(out, line)
	}
	return out
}

// trigramSimilarity is a Jaccard-over-trigrams similarity measure, used to
// collapse near-duplicate key points surfaced by more than one provider.
func trigramSimilarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		if a == b {
			return 1
		}
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func trigrams(s string) map[string]bool {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	out := map[string]bool{}
	for i := 0; i+3 <= len(s); i++ {
		out[s[i:i+3]] = true
	}
	return out
}

// dedupeKeyPoints removes key points that are near-duplicates (similarity >=
// threshold) of one already kept, preserving first-seen order.
func dedupeKeyPoints(points []string, threshold float64) []string {
	var kept []string
	for _, p := range points {
		dup := false
		for _, k := range kept {
			if trigramSimilarity(p, k) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, p)
		}
	}
	return kept
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "for": true, "on": true, "with": true, "is": true,
	"are": true, "that": true, "this": true, "it": true, "as": true, "by": true,
	"be": true, "at": true, "from": true, "their": true, "they": true,
}

var nonWordRE = regexp.MustCompile(`[^a-z0-9\s-]+`)

// extractTagsFromSources derives a normalized tag set from the topic and
// merged key points: lowercase significant words, deduped, capped.
func extractTagsFromSources(sources []models.InsightSource, topic string) []string {
	freq := map[string]int{}
	addWords := func(text string) {
		cleaned := nonWordRE.ReplaceAllString(strings.ToLower(text), " ")
		for _, w := range strings.Fields(cleaned) {
			if len(w) < 4 || stopWords[w] {
				continue
			}
			freq[w]++
		}
	}
	addWords(topic)
	for _, src := range sources {
		for _, kp := range src.KeyPoints {
			addWords(kp)
		}
	}

	type wc struct {
		word  string
		count int
	}
	var all []wc
	for w, c := range freq {
		all = append(all, wc{w, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].word < all[j].word
	})

	const maxTags = 10
	tags := make([]string, 0, maxTags)
	for i := 0; i < len(all) && i < maxTags; i++ {
		tags = append(tags, all[i].word)
	}
	return tags
}

// normalizeTags lowercases, trims, and dedupes a tag list, preserving order.
func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
